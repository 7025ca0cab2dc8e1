// Package instruments holds rate helpers that price deposits, FRAs and
// overnight index swaps on a curve being bootstrapped.
package instruments

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/curve"
	"github.com/meenmo/termstructure/daycount"
	"github.com/meenmo/termstructure/marketdata"
)

// ErrNoTermStructure is returned by ImpliedQuote before SetTermStructure.
var ErrNoTermStructure = errors.New("term structure not set")

// base carries what every helper shares.
type base struct {
	quote    marketdata.Quote
	ts       curve.YieldCurve
	earliest time.Time
	pillar   time.Time
}

func (b *base) Quote() marketdata.Quote              { return b.quote }
func (b *base) EarliestDate() time.Time              { return b.earliest }
func (b *base) PillarDate() time.Time                { return b.pillar }
func (b *base) SetTermStructure(ts curve.YieldCurve) { b.ts = ts }

func (b *base) discount(d time.Time) (float64, error) {
	if b.ts == nil {
		return 0, ErrNoTermStructure
	}
	return b.ts.DiscountAt(d)
}

// Conventions are the date rules of a helper. Zero values mean a weekend-only
// calendar and ACT/360.
type Conventions struct {
	Calendar *calendar.Calendar
	DayCount daycount.Convention
	// PayDelay is the payment lag in business days after each accrual end
	// (OIS only).
	PayDelay int
	// FrequencyMonths is the fixed-leg coupon frequency in months (OIS only).
	// Zero means annual.
	FrequencyMonths int
}

func (c Conventions) withDefaults() Conventions {
	if c.Calendar == nil {
		c.Calendar = calendar.Weekends
	}
	if c.DayCount == "" {
		c.DayCount = daycount.Act360
	}
	if c.FrequencyMonths == 0 {
		c.FrequencyMonths = 12
	}
	return c
}

// simpleRate is the simply compounded rate between two dates on the curve.
func (b *base) simpleRate(start, end time.Time, dc daycount.Convention) (float64, error) {
	d1, err := b.discount(start)
	if err != nil {
		return 0, err
	}
	d2, err := b.discount(end)
	if err != nil {
		return 0, err
	}
	tau := dc.YearFraction(start, end)
	if tau <= 0 {
		return 0, fmt.Errorf("simpleRate: empty accrual period %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return (d1/d2 - 1) / tau, nil
}
