package daycount_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/termstructure/daycount"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		conv  daycount.Convention
		start time.Time
		end   time.Time
		want  float64
	}{
		{"act360 full year", daycount.Act360, date(2025, 1, 1), date(2026, 1, 1), 365.0 / 360.0},
		{"act365f full year", daycount.Act365F, date(2025, 1, 1), date(2026, 1, 1), 1.0},
		{"act365f leap year", daycount.Act365F, date(2024, 1, 1), date(2025, 1, 1), 366.0 / 365.0},
		{"30/360 month end", daycount.Thirty360, date(2025, 1, 31), date(2025, 3, 31), 60.0 / 360.0},
		{"30E/360 month end", daycount.Thirty360E, date(2025, 1, 30), date(2025, 3, 31), 60.0 / 360.0},
		{"30/360 start on 30th, end on 31st", daycount.Thirty360, date(2025, 4, 30), date(2025, 5, 31), 30.0 / 360.0},
		{"act/act same year", daycount.ActAct, date(2024, 1, 1), date(2024, 7, 1), 182.0 / 366.0},
		{"act/act straddling years", daycount.ActAct, date(2024, 7, 1), date(2025, 7, 1), 184.0/366.0 + 181.0/365.0},
	}

	for _, tt := range tests {
		got := tt.conv.YearFraction(tt.start, tt.end)
		if math.Abs(got-tt.want) > 1e-14 {
			t.Fatalf("%s: got %.12f want %.12f", tt.name, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]daycount.Convention{
		"act/360":  daycount.Act360,
		"ACT/365":  daycount.Act365F,
		"30E/360":  daycount.Thirty360E,
		" act/act": daycount.ActAct,
	} {
		got, err := daycount.Parse(name)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", name, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", name, got, want)
		}
	}

	if _, err := daycount.Parse("BUS/252"); err == nil {
		t.Fatalf("expected error for unsupported convention")
	}
}
