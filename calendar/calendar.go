package calendar

import (
	"time"
)

// Calendar is a business-day calendar: weekends plus an explicit holiday set.
type Calendar struct {
	name     string
	holidays map[string]struct{}
}

// Weekends is a calendar whose only non-business days are Saturdays and Sundays.
var Weekends = New("WEEKENDS")

// New builds a calendar with the given holidays.
func New(name string, holidays ...time.Time) *Calendar {
	c := &Calendar{name: name, holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[key(h)] = struct{}{}
	}
	return c
}

func key(t time.Time) string {
	return t.Format("2006-01-02")
}

// Name returns the calendar label.
func (c *Calendar) Name() string { return c.name }

// AddHoliday registers an additional holiday.
func (c *Calendar) AddHoliday(t time.Time) {
	c.holidays[key(t)] = struct{}{}
}

// IsHoliday reports whether t is a registered holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[key(t)]
	return ok
}

// IsBusinessDay checks weekends and the holiday set.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.IsHoliday(t)
}

// Adjust applies Modified Following.
func (c *Calendar) Adjust(t time.Time) time.Time {
	origMonth := t.Month()
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !c.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func (c *Calendar) AdjustFollowing(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}

// Advance moves t by the period and applies Modified Following. Day periods
// are counted in business days.
func (c *Calendar) Advance(t time.Time, p Period) time.Time {
	if p.Unit == Days {
		return c.AddBusinessDays(t, p.N)
	}
	return c.Adjust(p.AddTo(t))
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func (c *Calendar) LastBusinessDayOfMonth(t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return c.AddBusinessDays(nextMonth, -1)
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises.
func AddMonth(t time.Time, months int) time.Time {
	target := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	d := t.AddDate(0, months, 0)
	if d.Month() == target.Month() {
		return d
	}
	// Overflowed into the next month: clamp to the last day of the target month.
	return time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
