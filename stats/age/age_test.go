package age_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sriram-PR/Sriram-PR/stats/age"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSince(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  string
	}{
		{
			name:  "plain difference",
			birth: date(2005, time.February, 14),
			now:   date(2026, time.August, 26),
			want:  "21 years, 6 months, 12 days",
		},
		{
			name:  "birthday gets a cake",
			birth: date(2005, time.February, 14),
			now:   date(2026, time.February, 14),
			want:  "21 years, 0 months, 0 days 🎂",
		},
		{
			name:  "singular units",
			birth: date(2005, time.February, 14),
			now:   date(2006, time.March, 15),
			want:  "1 year, 1 month, 1 day",
		},
		{
			name:  "day borrow from previous month",
			birth: date(2005, time.January, 31),
			now:   date(2026, time.March, 1),
			// February 2026 has 28 days, so one day
			// remains after the borrow.
			want: "21 years, 1 month, 1 day",
		},
		{
			name:  "month borrow across year",
			birth: date(2005, time.December, 20),
			now:   date(2026, time.January, 10),
			want:  "20 years, 0 months, 21 days",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := age.Since(tt.birth, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}
