package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddCalendarMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "mid month stays on the same day",
			start:  time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 29 in a leap year",
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 28 in a common year",
			start:  time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "mar 31 clamps to apr 30",
			start:  time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "december rolls into the next year",
			start:  time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "multiple months clamp against the target month only",
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 3,
			want:   time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddCalendarMonths(tt.start, tt.months)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2024, 6, 10, 18, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
}
