package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/termstructure/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdjustModifiedFollowing(t *testing.T) {
	t.Parallel()

	cal := calendar.New("TEST", date(2025, 12, 31))
	cases := []struct {
		in, want time.Time
	}{
		{date(2025, 3, 15), date(2025, 3, 17)}, // Saturday rolls forward
		{date(2025, 5, 31), date(2025, 5, 30)}, // Saturday at month end rolls back
		{date(2025, 12, 31), date(2025, 12, 30)},
		{date(2025, 6, 4), date(2025, 6, 4)},
	}
	for _, c := range cases {
		if got := cal.Adjust(c.in); !got.Equal(c.want) {
			t.Fatalf("Adjust(%s) = %s, want %s", c.in.Format("2006-01-02"), got.Format("2006-01-02"), c.want.Format("2006-01-02"))
		}
	}
	if got := cal.AdjustFollowing(date(2025, 5, 31)); !got.Equal(date(2025, 6, 2)) {
		t.Fatalf("AdjustFollowing mismatch: got %s", got.Format("2006-01-02"))
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	cal := calendar.New("TEST", date(2025, 1, 1))
	if got := cal.AddBusinessDays(date(2024, 12, 30), 2); !got.Equal(date(2025, 1, 2)) {
		t.Fatalf("AddBusinessDays forward: got %s", got.Format("2006-01-02"))
	}
	if got := cal.AddBusinessDays(date(2025, 1, 6), -3); !got.Equal(date(2024, 12, 31)) {
		t.Fatalf("AddBusinessDays backward: got %s", got.Format("2006-01-02"))
	}
	if got := cal.LastBusinessDayOfMonth(date(2025, 8, 10)); !got.Equal(date(2025, 8, 29)) {
		t.Fatalf("LastBusinessDayOfMonth: got %s", got.Format("2006-01-02"))
	}
}

func TestAddMonthEndOfMonth(t *testing.T) {
	t.Parallel()

	if got := calendar.AddMonth(date(2025, 1, 31), 1); !got.Equal(date(2025, 2, 28)) {
		t.Fatalf("AddMonth Jan31+1: got %s", got.Format("2006-01-02"))
	}
	if got := calendar.AddMonth(date(2024, 3, 31), -1); !got.Equal(date(2024, 2, 29)) {
		t.Fatalf("AddMonth Mar31-1: got %s", got.Format("2006-01-02"))
	}
	if got := calendar.AddMonth(date(2025, 4, 15), 12); !got.Equal(date(2026, 4, 15)) {
		t.Fatalf("AddMonth +12: got %s", got.Format("2006-01-02"))
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	cases := map[string]calendar.Period{
		"2D":  {N: 2, Unit: calendar.Days},
		"1w":  {N: 1, Unit: calendar.Weeks},
		"18M": {N: 18, Unit: calendar.Months},
		"10Y": {N: 10, Unit: calendar.Years},
	}
	for in, want := range cases {
		got, err := calendar.ParsePeriod(in)
		if err != nil {
			t.Fatalf("ParsePeriod(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePeriod(%q) = %+v, want %+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "Y", "3Q", "xM"} {
		if _, err := calendar.ParsePeriod(bad); err == nil {
			t.Fatalf("ParsePeriod(%q) expected error", bad)
		}
	}
	if s := calendar.MustParsePeriod("6M").String(); s != "6M" {
		t.Fatalf("String mismatch: %s", s)
	}
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	cal := calendar.Weekends
	start := date(2025, 1, 31)
	if got := cal.Advance(start, calendar.MustParsePeriod("1M")); !got.Equal(date(2025, 2, 28)) {
		t.Fatalf("Advance 1M: got %s", got.Format("2006-01-02"))
	}
	if got := cal.Advance(start, calendar.MustParsePeriod("2D")); !got.Equal(date(2025, 2, 4)) {
		t.Fatalf("Advance 2D: got %s", got.Format("2006-01-02"))
	}
	if got := cal.Advance(date(2025, 2, 1), calendar.MustParsePeriod("1W")); !got.Equal(date(2025, 2, 10)) {
		t.Fatalf("Advance 1W: got %s", got.Format("2006-01-02"))
	}
}
