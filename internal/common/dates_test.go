package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDateTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"utc zulu", "2025-03-01T18:00:00.000Z", "2025-03-01T18:00:00Z"},
		{"offset kept", "2025-03-01T18:00:00-05:00", "2025-03-01T18:00:00-05:00"},
		{"zone-less assumed utc", "2025-03-01T18:00:00", "2025-03-01T18:00:00Z"},
		{"date only", "2025-03-01", "2025-03-01T00:00:00Z"},
		{"human with ordinal", "March 1st, 2025 6:00 PM", "2025-03-01T18:00:00Z"},
		{"human with at", "Jan 2, 2026 at 3:04 PM", "2026-01-02T15:04:00Z"},
		{"unparseable kept raw", "  Tomorrow evening ", "Tomorrow evening"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDateTime(tt.in))
		})
	}
}
