package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Friday, August 29 2025 14:30 local.
var now = time.Date(2025, 8, 29, 14, 30, 0, 0, time.Local)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParseRejectsUnknownKeyword(t *testing.T) {
	_, err := Parse("fortnight")
	assert.Error(t, err)
}

func TestParseEmptyDefaultsToToday(t *testing.T) {
	tr, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, "today", tr.Label())
}

func TestBounds(t *testing.T) {
	tests := []struct {
		keyword string
		start   time.Time
		end     time.Time
	}{
		{"today", day(2025, 8, 29), day(2025, 8, 30)},
		{"yesterday", day(2025, 8, 28), day(2025, 8, 29)},
		// Weeks start on Monday.
		{"week", day(2025, 8, 25), day(2025, 9, 1)},
		{"last-week", day(2025, 8, 18), day(2025, 8, 25)},
		{"month", day(2025, 8, 1), day(2025, 9, 1)},
		{"last-month", day(2025, 7, 1), day(2025, 8, 1)},
		{"year", day(2025, 1, 1), day(2026, 1, 1)},
		{"last-year", day(2024, 1, 1), day(2025, 1, 1)},
		{"7d", day(2025, 8, 23), day(2025, 8, 30)},
		{"30d", day(2025, 7, 31), day(2025, 8, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tr, err := Parse(tt.keyword)
			require.NoError(t, err)
			start, end := tr.Bounds(now)
			assert.Equal(t, tt.start, start, "start")
			assert.Equal(t, tt.end, end, "end")
		})
	}
}

func TestBoundsWeekOnMonday(t *testing.T) {
	monday := time.Date(2025, 8, 25, 8, 0, 0, 0, time.Local)
	tr, err := Parse("week")
	require.NoError(t, err)
	start, end := tr.Bounds(monday)
	assert.Equal(t, day(2025, 8, 25), start)
	assert.Equal(t, day(2025, 9, 1), end)
}

func TestBoundsWeekOnSunday(t *testing.T) {
	sunday := time.Date(2025, 8, 31, 23, 0, 0, 0, time.Local)
	tr, err := Parse("week")
	require.NoError(t, err)
	start, _ := tr.Bounds(sunday)
	assert.Equal(t, day(2025, 8, 25), start)
}

func TestCustomBounds(t *testing.T) {
	start, end := day(2025, 8, 1), day(2025, 8, 15)
	tr := Custom(start, end)
	gotStart, gotEnd := tr.Bounds(now)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, end, gotEnd)
	assert.Equal(t, "custom", tr.Label())
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "9999", FormatCount(9999))
	assert.Equal(t, "12.3K", FormatCount(12345))
	assert.Equal(t, "1.2M", FormatCount(1_234_567))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45m", FormatDuration(45))
	assert.Equal(t, "2h 15m", FormatDuration(135))
}
