package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRankOrdering(t *testing.T) {
	for i := 1; i < len(Severities); i++ {
		assert.Greater(t, Severities[i].Rank(), Severities[i-1].Rank(),
			"%s should outrank %s", Severities[i], Severities[i-1])
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Severity
	}{
		{"exact match", "critical", SeverityCritical},
		{"mixed case", "High", SeverityHigh},
		{"padded", "  medium ", SeverityMedium},
		{"unknown degrades to info", "catastrophic", SeverityInfo},
		{"empty degrades to info", "", SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSeverity(tt.raw))
		})
	}
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityLow))
	assert.True(t, SeverityMedium.AtLeast(SeverityMedium))
	assert.False(t, SeverityInfo.AtLeast(SeverityLow))
}

func TestIssueFingerprintDeterministic(t *testing.T) {
	a := Issue{Kind: KindBug, Severity: SeverityHigh, Line: 10, Message: "x", Source: "bugs"}
	b := Issue{Kind: KindBug, Severity: SeverityHigh, Line: 10, Message: "x", Source: "bugs"}
	c := Issue{Kind: KindBug, Severity: SeverityHigh, Line: 11, Message: "x", Source: "bugs"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "python", DetectLanguage("src/app.py"))
	assert.Equal(t, "javascript", DetectLanguage("web/index.tsx"))
	assert.Equal(t, "go", DetectLanguage("main.go"))
	assert.Equal(t, "unknown", DetectLanguage("README.md"))
}
