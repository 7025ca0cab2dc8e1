package daycount

import (
	"fmt"
	"strings"
	"time"
)

// Convention is a day count convention. It implements YearFraction so it can be
// handed to curves and rate helpers directly.
type Convention string

const (
	Act360     Convention = "ACT/360"
	Act365F    Convention = "ACT/365F"
	Thirty360  Convention = "30/360"
	Thirty360E Convention = "30E/360"
	ActAct     Convention = "ACT/ACT"
)

// Parse maps a convention name (case-insensitive, common aliases accepted) to a Convention.
func Parse(name string) (Convention, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ACT/360", "A360", "ACTUAL/360":
		return Act360, nil
	case "ACT/365F", "ACT/365", "A365F", "ACTUAL/365 (FIXED)":
		return Act365F, nil
	case "30/360", "30U/360", "BOND BASIS":
		return Thirty360, nil
	case "30E/360", "EUROBOND BASIS":
		return Thirty360E, nil
	case "ACT/ACT", "ACT/ACT ISDA", "ACTUAL/ACTUAL":
		return ActAct, nil
	default:
		return "", fmt.Errorf("daycount.Parse: unsupported convention %q", name)
	}
}

// Name returns the convention label.
func (c Convention) Name() string { return string(c) }

// Days returns the actual number of calendar days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// YearFraction computes the accrual fraction between start and end.
// Unknown conventions fall back to ACT/365F.
func (c Convention) YearFraction(start, end time.Time) float64 {
	switch c {
	case Act360:
		return Days(start, end) / 360.0
	case Thirty360:
		return thirty360(start, end, false)
	case Thirty360E:
		return thirty360(start, end, true)
	case ActAct:
		return actActISDA(start, end)
	default:
		return Days(start, end) / 365.0
	}
}

func thirty360(start, end time.Time, european bool) float64 {
	d1, d2 := start.Day(), end.Day()
	if european {
		if d1 > 30 {
			d1 = 30
		}
		if d2 > 30 {
			d2 = 30
		}
	} else {
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
	}
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

func actActISDA(start, end time.Time) float64 {
	if end.Before(start) {
		return -actActISDA(end, start)
	}
	y1, y2 := start.Year(), end.Year()
	if y1 == y2 {
		return Days(start, end) / daysInYear(y1)
	}
	frac := Days(start, time.Date(y1+1, 1, 1, 0, 0, 0, 0, start.Location())) / daysInYear(y1)
	frac += float64(y2 - y1 - 1)
	frac += Days(time.Date(y2, 1, 1, 0, 0, 0, 0, end.Location()), end) / daysInYear(y2)
	return frac
}

func daysInYear(y int) float64 {
	if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
		return 366
	}
	return 365
}
