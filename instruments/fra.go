package instruments

import (
	"fmt"
	"time"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/marketdata"
)

// FRAHelper is a forward rate agreement, e.g. 3x6: the simply compounded rate
// from spot+3M to spot+6M.
type FRAHelper struct {
	base
	conv     Conventions
	start    time.Time
	maturity time.Time
}

// NewFRA returns an FRA fixing from spot advanced by startTenor to spot
// advanced by endTenor.
func NewFRA(quote marketdata.Quote, spot time.Time, startTenor, endTenor calendar.Period, conv Conventions) (*FRAHelper, error) {
	if quote == nil {
		return nil, fmt.Errorf("NewFRA: quote required")
	}
	conv = conv.withDefaults()
	h := &FRAHelper{conv: conv}
	spot = conv.Calendar.Adjust(spot)
	h.start = conv.Calendar.Advance(spot, startTenor)
	h.maturity = conv.Calendar.Advance(spot, endTenor)
	if !h.maturity.After(h.start) {
		return nil, fmt.Errorf("NewFRA: %s must end after %s", endTenor, startTenor)
	}
	h.quote = quote
	h.earliest = h.start
	h.pillar = h.maturity
	return h, nil
}

func (h *FRAHelper) Start() time.Time    { return h.start }
func (h *FRAHelper) Maturity() time.Time { return h.maturity }

// ImpliedQuote is the forward rate implied by the curve.
func (h *FRAHelper) ImpliedQuote() (float64, error) {
	return h.simpleRate(h.start, h.maturity, h.conv.DayCount)
}
