package instruments

import (
	"fmt"
	"time"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/marketdata"
)

// Coupon is one fixed-leg period of an OIS.
type Coupon struct {
	AccrualStart time.Time
	AccrualEnd   time.Time
	PaymentDate  time.Time
	Accrual      float64
}

// OISHelper is a par fixed-vs-overnight swap. The overnight leg compounds
// over the same periods as the fixed leg and pays with the same delay.
type OISHelper struct {
	base
	conv     Conventions
	coupons  []Coupon
	maturity time.Time
}

// NewOIS returns a swap from settlement over tenor. The schedule rolls
// backward from the unadjusted maturity so coupon dates stay aligned to it.
func NewOIS(quote marketdata.Quote, settlement time.Time, tenor calendar.Period, conv Conventions) (*OISHelper, error) {
	if quote == nil {
		return nil, fmt.Errorf("NewOIS: quote required")
	}
	if tenor.N <= 0 || tenor.Unit == calendar.Days {
		return nil, fmt.Errorf("NewOIS: invalid tenor %s", tenor)
	}
	conv = conv.withDefaults()
	h := &OISHelper{conv: conv, maturity: tenor.AddTo(settlement)}
	h.coupons = buildCoupons(settlement, h.maturity, conv)
	h.quote = quote
	h.earliest = h.coupons[0].AccrualStart
	for _, c := range h.coupons {
		if c.PaymentDate.After(h.pillar) {
			h.pillar = c.PaymentDate
		}
	}
	return h, nil
}

func buildCoupons(settlement, maturity time.Time, conv Conventions) []Coupon {
	unadjusted := []time.Time{}
	for current, k := maturity, 1; current.After(settlement); k++ {
		unadjusted = append([]time.Time{current}, unadjusted...)
		current = calendar.AddMonth(maturity, -k*conv.FrequencyMonths)
	}
	// a stub shorter than a week is merged into the first period
	if len(unadjusted) > 1 && unadjusted[0].Sub(settlement) < 7*24*time.Hour {
		unadjusted = unadjusted[1:]
	}
	unadjusted = append([]time.Time{settlement}, unadjusted...)

	coupons := make([]Coupon, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		start := conv.Calendar.Adjust(unadjusted[i])
		end := conv.Calendar.Adjust(unadjusted[i+1])
		coupons = append(coupons, Coupon{
			AccrualStart: start,
			AccrualEnd:   end,
			PaymentDate:  conv.Calendar.AddBusinessDays(end, conv.PayDelay),
			Accrual:      conv.DayCount.YearFraction(start, end),
		})
	}
	return coupons
}

// Coupons returns the fixed-leg schedule.
func (h *OISHelper) Coupons() []Coupon { return append([]Coupon(nil), h.coupons...) }

// Maturity is the unadjusted end of the swap.
func (h *OISHelper) Maturity() time.Time { return h.maturity }

// ImpliedQuote is the par fixed rate on the curve.
func (h *OISHelper) ImpliedQuote() (float64, error) {
	var floating, annuity float64
	for _, c := range h.coupons {
		ds, err := h.discount(c.AccrualStart)
		if err != nil {
			return 0, err
		}
		de, err := h.discount(c.AccrualEnd)
		if err != nil {
			return 0, err
		}
		dp, err := h.discount(c.PaymentDate)
		if err != nil {
			return 0, err
		}
		floating += (ds/de - 1) * dp
		annuity += c.Accrual * dp
	}
	if annuity == 0 {
		return 0, fmt.Errorf("OISHelper.ImpliedQuote: zero annuity")
	}
	return floating / annuity, nil
}
