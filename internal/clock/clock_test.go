package clock

import (
	"testing"
	"time"
)

func TestWeekStartMonday(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		// A Monday maps to itself at midnight.
		{time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		// Mid-week.
		{time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		// Sunday belongs to the week that started the previous Monday.
		{time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		// Next Monday starts a new week.
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := WeekStart(tc.in); !got.Equal(tc.want) {
			t.Fatalf("WeekStart(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFixedClock(t *testing.T) {
	instant := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := FixedClock{Instant: instant}
	if !c.Now().Equal(instant) {
		t.Fatalf("expected %v, got %v", instant, c.Now())
	}
}
