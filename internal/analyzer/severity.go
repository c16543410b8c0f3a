package analyzer

import (
	"fmt"
	"strings"
)

// Severity represents the danger level of a finding.
type Severity int

const (
	// Safe indicates no danger detected.
	Safe Severity = iota
	// Low indicates a brief lock on a table the application uses.
	Low
	// Medium indicates moderate risk with workarounds available.
	Medium
	// High indicates writes are blocked or the table is rewritten.
	High
	// Critical indicates the statement will fail on a populated table.
	Critical
)

//nolint:gochecknoglobals // read-only lookup tables
var (
	severityLabels = [...]string{"SAFE", "LOW", "MEDIUM", "HIGH", "CRITICAL"}
	severityColors = [...]string{"\033[32m", "\033[36m", "\033[33m", "\033[31m", "\033[91m"}
)

func (s Severity) valid() bool {
	return s >= Safe && s <= Critical
}

// String returns the uppercase label for the severity level.
func (s Severity) String() string {
	if !s.valid() {
		return "UNKNOWN"
	}

	return severityLabels[s]
}

// Color returns an ANSI color code for terminal output.
func (s Severity) Color() string {
	if !s.valid() {
		return "\033[0m"
	}

	return severityColors[s]
}

// ParseSeverity parses a label such as "high", case-insensitively.
func ParseSeverity(label string) (Severity, error) {
	for i, l := range severityLabels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return Severity(i), nil
		}
	}

	return Safe, fmt.Errorf("unknown severity %q (want one of %s)", label,
		strings.ToLower(strings.Join(severityLabels[:], ", ")))
}
