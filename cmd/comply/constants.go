package main

import "time"

// Default limits for CLI commands.
const (
	DefaultListLimit   = 50
	DefaultRunsLimit   = 20
	DefaultHistoryDays = 30
)

// Accepted layouts for --since and --until.
var timeLayouts = []string{time.RFC3339, "2006-01-02"}
