package instruments

import (
	"fmt"
	"time"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/marketdata"
)

// DepositHelper is a cash deposit from a start date over a tenor, quoted as a
// simply compounded rate.
type DepositHelper struct {
	base
	conv     Conventions
	start    time.Time
	maturity time.Time
}

// NewDeposit returns a deposit starting on start (adjusted) and maturing one
// tenor later, modified following.
func NewDeposit(quote marketdata.Quote, start time.Time, tenor calendar.Period, conv Conventions) (*DepositHelper, error) {
	if quote == nil {
		return nil, fmt.Errorf("NewDeposit: quote required")
	}
	if tenor.N <= 0 {
		return nil, fmt.Errorf("NewDeposit: tenor must be positive, got %s", tenor)
	}
	conv = conv.withDefaults()
	h := &DepositHelper{conv: conv}
	h.start = conv.Calendar.Adjust(start)
	h.maturity = conv.Calendar.Advance(h.start, tenor)
	h.quote = quote
	h.earliest = h.start
	h.pillar = h.maturity
	return h, nil
}

// Maturity is the deposit's end date.
func (h *DepositHelper) Maturity() time.Time { return h.maturity }

// ImpliedQuote is the deposit rate implied by the curve.
func (h *DepositHelper) ImpliedQuote() (float64, error) {
	return h.simpleRate(h.start, h.maturity, h.conv.DayCount)
}
