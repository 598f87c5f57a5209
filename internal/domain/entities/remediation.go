package entities

// Remediation is a suggested fix for one reported issue.
type Remediation struct {
	Issue    string `json:"issue"`
	Action   string `json:"action"`
	Priority string `json:"priority"`
}
