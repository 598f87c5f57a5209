// Package openai provides an Advisor implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const remediationPrompt = `You are a security compliance assistant. For each compliance issue you are given,
propose one concrete remediation an engineer can carry out.

For each issue, return:
- issue: The issue text, copied exactly
- action: The remediation, one or two sentences
- priority: "high", "medium", or "low"

Return ONLY a valid JSON array, no other text.

Example:
Input: {"source": "github", "type": "repo_acme_api", "status": "partial", "issues": ["Branch protection is not enabled on default branch"]}
Output: [
  {"issue": "Branch protection is not enabled on default branch", "action": "Enable branch protection on the default branch and require at least one approving review.", "priority": "high"}
]`

// Client implements the Advisor interface using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI advisor client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := DefaultModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Remediate asks the model for one remediation per issue of rec. A record
// without issues needs no advice and makes no API call.
func (c *Client) Remediate(ctx context.Context, rec *entities.EvidenceRecord) ([]entities.Remediation, error) {
	if rec == nil || len(rec.Summary.Issues) == 0 {
		return nil, nil
	}

	input, err := json.Marshal(recordPrompt{
		Source: string(rec.Source),
		Type:   rec.Type,
		Status: string(rec.Summary.Status),
		Score:  rec.Summary.Score,
		Issues: rec.Summary.Issues,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: remediationPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: string(input),
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var raw []rawRemediation
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parsing remediation JSON: %w (response: %s)", err, content)
	}

	remediations := make([]entities.Remediation, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Issue) == "" || strings.TrimSpace(r.Action) == "" {
			continue
		}
		remediations = append(remediations, entities.Remediation{
			Issue:    r.Issue,
			Action:   strings.TrimSpace(r.Action),
			Priority: normalizePriority(r.Priority),
		})
	}

	return remediations, nil
}

// recordPrompt is the JSON the model receives for one record.
type recordPrompt struct {
	Source string   `json:"source"`
	Type   string   `json:"type"`
	Status string   `json:"status"`
	Score  *int     `json:"score,omitempty"`
	Issues []string `json:"issues"`
}

// rawRemediation is the JSON structure returned by the model.
type rawRemediation struct {
	Issue    string `json:"issue"`
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// normalizePriority maps the model's priority onto high, medium or low.
func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "critical", "urgent":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
