package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestJSONParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawEvidence
	}{
		{
			name:  "single entry",
			input: `[{"type": "vendor_review", "status": "pass"}]`,
			expected: []RawEvidence{
				{Type: "vendor_review", Status: "pass", LineNum: 1},
			},
		},
		{
			name:     "empty array",
			input:    "[]",
			expected: []RawEvidence{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &JSONParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestJSONParser_Parse_AllFields(t *testing.T) {
	input := `[{
		"type": "access_review",
		"status": "partial",
		"issues": ["2 stale accounts", "1 shared login"],
		"score": 0,
		"control": "CC6.2",
		"notes": "Quarterly review",
		"metadata": {"reviewer": "alice"}
	}]`

	parser := &JSONParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 1)

	entry := result[0]
	assert.Equal(t, "access_review", entry.Type)
	assert.Equal(t, "partial", entry.Status)
	assert.Equal(t, []string{"2 stale accounts", "1 shared login"}, entry.Issues)
	require.NotNil(t, entry.Score)
	assert.Equal(t, 0, *entry.Score)
	assert.Equal(t, "CC6.2", entry.Control)
	assert.Equal(t, "Quarterly review", entry.Notes)
	assert.Equal(t, map[string]string{"reviewer": "alice"}, entry.Metadata)
	assert.Equal(t, 1, entry.LineNum)
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	parser := &JSONParser{}
	_, err := parser.Parse(strings.NewReader("not json"))
	require.Error(t, err)
}

func TestCSVParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawEvidence
	}{
		{
			name:  "required column only",
			input: "type\nvendor_review\n",
			expected: []RawEvidence{
				{Type: "vendor_review", LineNum: 2},
			},
		},
		{
			name:     "empty CSV (header only)",
			input:    "type,status\n",
			expected: nil,
		},
		{
			name:  "columns in different order",
			input: "status,type\nfail,pentest\n",
			expected: []RawEvidence{
				{Type: "pentest", Status: "fail", LineNum: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCSVParser_Parse_AllColumns(t *testing.T) {
	input := "type,status,issues,score,control,notes,metadata\n" +
		"access_review,partial,2 stale accounts; 1 shared login,65,CC6.2,Quarterly,reviewer=alice;ticket=SEC-12\n"

	parser := &CSVParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 1)

	entry := result[0]
	assert.Equal(t, "access_review", entry.Type)
	assert.Equal(t, "partial", entry.Status)
	assert.Equal(t, []string{"2 stale accounts", "1 shared login"}, entry.Issues)
	assert.Equal(t, intPtr(65), entry.Score)
	assert.Equal(t, "CC6.2", entry.Control)
	assert.Equal(t, "Quarterly", entry.Notes)
	assert.Equal(t, map[string]string{"reviewer": "alice", "ticket": "SEC-12"}, entry.Metadata)
	assert.Equal(t, 2, entry.LineNum)
}

func TestCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "missing required column",
			input:  "status,issues\npass,\n",
			errMsg: "missing required column: type",
		},
		{
			name:   "invalid score value",
			input:  "type,score\npentest,high\n",
			errMsg: "line 2: invalid score value",
		},
		{
			name:   "invalid metadata pair",
			input:  "type,metadata\npentest,owner\n",
			errMsg: "invalid metadata pair",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestForFormat(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFormat("json"))
	assert.IsType(t, &CSVParser{}, ForFormat("CSV"))
	assert.Nil(t, ForFormat("unknown"))
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("evidence.json"))
	assert.IsType(t, &CSVParser{}, ForFile("evidence.csv"))
	assert.Nil(t, ForFile("file.txt"))
	assert.Nil(t, ForFile("noextension"))
}
