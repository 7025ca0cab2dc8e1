package curve

import (
	"time"

	"github.com/meenmo/termstructure/marketdata"
)

// DayCounter converts dates to year fractions.
type DayCounter interface {
	YearFraction(start, end time.Time) float64
}

// YieldCurve is the view of a curve that instruments price against.
type YieldCurve interface {
	ReferenceDate() time.Time
	TimeFromReference(d time.Time) float64
	Discount(t float64) (float64, error)
	DiscountAt(d time.Time) (float64, error)
}

// RateHelper is an instrument the bootstrap calibrates to. ImpliedQuote
// prices the instrument on the curve set with SetTermStructure.
type RateHelper interface {
	EarliestDate() time.Time
	PillarDate() time.Time
	Quote() marketdata.Quote
	ImpliedQuote() (float64, error)
	SetTermStructure(YieldCurve)
}

// Recorder receives one observation per bootstrap run.
type Recorder interface {
	ObserveBootstrap(curve string, passes, evaluations int, elapsed time.Duration, err error)
}

// Node is one pillar of a built curve.
type Node struct {
	Date  time.Time
	Time  float64
	Value float64
}
