package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISOWeek(t *testing.T) {
	tests := []struct {
		key  string
		want time.Time
	}{
		{"2025-W36", time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-W01", time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)},
		{"2026-W53", time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := ParseISOWeek(tt.key)
		require.True(t, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestParseISOWeekRejectsInvalid(t *testing.T) {
	for _, key := range []string{"2025-W00", "2025-W54", "2025-W53", "2025-36", "week-1", ""} {
		_, ok := ParseISOWeek(key)
		assert.False(t, ok, key)
	}
}

func TestWeekRange(t *testing.T) {
	assert.Equal(t, "Mon 9/1 – Fri 9/5", WeekRange("2025-W36"))
	assert.Equal(t, "", WeekRange("2025-09-01"))
}
