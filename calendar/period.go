package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeUnit of a Period.
type TimeUnit int

const (
	Days TimeUnit = iota
	Weeks
	Months
	Years
)

// Period is a tenor such as 1W, 3M or 10Y.
type Period struct {
	N    int
	Unit TimeUnit
}

// ParsePeriod converts tenor strings like "2D", "1W", "3M", "10Y" into a Period.
func ParsePeriod(tenor string) (Period, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if len(s) < 2 {
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor %q", tenor)
	}
	var unit TimeUnit
	switch s[len(s)-1] {
	case 'D':
		unit = Days
	case 'W':
		unit = Weeks
	case 'M':
		unit = Months
	case 'Y':
		unit = Years
	default:
		return Period{}, fmt.Errorf("ParsePeriod: unknown unit in tenor %q", tenor)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor %q: %w", tenor, err)
	}
	return Period{N: n, Unit: unit}, nil
}

// MustParsePeriod is ParsePeriod for literals; it panics on malformed input.
func MustParsePeriod(tenor string) Period {
	p, err := ParsePeriod(tenor)
	if err != nil {
		panic(err)
	}
	return p
}

// Months returns the period length in months, or false for day and week periods.
func (p Period) Months() (int, bool) {
	switch p.Unit {
	case Months:
		return p.N, true
	case Years:
		return 12 * p.N, true
	default:
		return 0, false
	}
}

// AddTo adds the period to t without business-day adjustment. Month and year
// periods follow EDATE semantics.
func (p Period) AddTo(t time.Time) time.Time {
	switch p.Unit {
	case Days:
		return t.AddDate(0, 0, p.N)
	case Weeks:
		return t.AddDate(0, 0, 7*p.N)
	case Months:
		return AddMonth(t, p.N)
	default:
		return AddMonth(t, 12*p.N)
	}
}

// Years returns an approximate length of the period in years.
func (p Period) Years() float64 {
	switch p.Unit {
	case Days:
		return float64(p.N) / 365.0
	case Weeks:
		return float64(p.N) * 7.0 / 365.0
	case Months:
		return float64(p.N) / 12.0
	default:
		return float64(p.N)
	}
}

func (p Period) String() string {
	return strconv.Itoa(p.N) + [...]string{"D", "W", "M", "Y"}[p.Unit]
}
