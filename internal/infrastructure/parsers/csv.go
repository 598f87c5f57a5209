package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	listSeparator  = ";"
	pairSeparator  = "="
	requiredColumn = "type"
)

// CSVParser parses evidence entries from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed entries.
// Expected columns: type, status, issues, score, control, notes, metadata.
// issues is ";"-separated; metadata is "key=value;key=value".
func (p *CSVParser) Parse(r io.Reader) ([]RawEvidence, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	if _, ok := colIndex[requiredColumn]; !ok {
		return nil, fmt.Errorf("missing required column: %s", requiredColumn)
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawEvidence.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawEvidence, error) {
	var entries []RawEvidence
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		entry, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// parseRecord converts a CSV record to a RawEvidence.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawEvidence, error) {
	entry := RawEvidence{
		Type:    getColumn(record, colIndex, "type"),
		Status:  getColumn(record, colIndex, "status"),
		Control: getColumn(record, colIndex, "control"),
		Notes:   getColumn(record, colIndex, "notes"),
		Issues:  splitList(getColumn(record, colIndex, "issues")),
		LineNum: lineNum,
	}

	if scoreStr := getColumn(record, colIndex, "score"); scoreStr != "" {
		score, err := strconv.Atoi(scoreStr)
		if err != nil {
			return RawEvidence{}, fmt.Errorf("line %d: invalid score value %q: %w", lineNum, scoreStr, err)
		}
		entry.Score = &score
	}

	metadata, err := parsePairs(getColumn(record, colIndex, "metadata"))
	if err != nil {
		return RawEvidence{}, fmt.Errorf("line %d: %w", lineNum, err)
	}
	entry.Metadata = metadata

	return entry, nil
}

// getColumn safely retrieves a trimmed column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

// splitList splits a ";"-separated cell, dropping empty items.
func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(cell, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parsePairs parses "key=value;key=value" into a map.
func parsePairs(cell string) (map[string]string, error) {
	items := splitList(cell)
	if len(items) == 0 {
		return nil, nil
	}
	pairs := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, pairSeparator)
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid metadata pair %q (want key=value)", item)
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return pairs, nil
}
