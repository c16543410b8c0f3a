package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
)

func TestSeverity_String_allLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity analyzer.Severity
		expected string
	}{
		{analyzer.Safe, "SAFE"},
		{analyzer.Low, "LOW"},
		{analyzer.Medium, "MEDIUM"},
		{analyzer.High, "HIGH"},
		{analyzer.Critical, "CRITICAL"},
		{analyzer.Severity(99), "UNKNOWN"},
		{analyzer.Severity(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestSeverity_Color_unknownResets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "\033[0m", analyzer.Severity(42).Color())
	assert.Equal(t, "\033[31m", analyzer.High.Color())
}

func TestSeverity_ordering(t *testing.T) {
	t.Parallel()

	assert.Less(t, analyzer.Safe, analyzer.Low)
	assert.Less(t, analyzer.Medium, analyzer.High)
	assert.Less(t, analyzer.High, analyzer.Critical)
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	got, err := analyzer.ParseSeverity(" High ")
	require.NoError(t, err)
	assert.Equal(t, analyzer.High, got)

	got, err = analyzer.ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, analyzer.Critical, got)

	_, err = analyzer.ParseSeverity("scary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safe, low, medium, high, critical")
}
