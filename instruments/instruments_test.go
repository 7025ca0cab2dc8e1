package instruments_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/config"
	"github.com/meenmo/termstructure/curve"
	"github.com/meenmo/termstructure/daycount"
	"github.com/meenmo/termstructure/instruments"
	"github.com/meenmo/termstructure/interpolation"
	"github.com/meenmo/termstructure/marketdata"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const flatRate = 0.025

// flatCurve discounts at a continuously compounded 2.5% on ACT/365F.
func flatCurve(t *testing.T, ref time.Time) *curve.Curve {
	t.Helper()
	dates := []time.Time{ref, ref.AddDate(30, 0, 0)}
	values := []float64{1, math.Exp(-flatRate * daycount.Act365F.YearFraction(ref, dates[1]))}
	cfg := config.DefaultConfig
	c, err := curve.NewInterpolated(curve.Params{
		Dates:         dates,
		Values:        values,
		Traits:        curve.Discount,
		Interpolation: interpolation.LogLinear(),
		DayCounter:    daycount.Act365F,
		Config:        &cfg,
	})
	require.NoError(t, err)
	return c
}

func discount(ref, d time.Time) float64 {
	return math.Exp(-flatRate * daycount.Act365F.YearFraction(ref, d))
}

func TestDepositImpliedQuote(t *testing.T) {
	t.Parallel()

	ref := date(2025, 1, 15)
	h, err := instruments.NewDeposit(marketdata.NewSimpleQuote(0.02), ref, calendar.MustParsePeriod("3M"), instruments.Conventions{})
	require.NoError(t, err)
	assert.True(t, h.EarliestDate().Equal(ref))
	assert.True(t, h.PillarDate().Equal(date(2025, 4, 15)))
	assert.True(t, h.Maturity().Equal(h.PillarDate()))

	_, err = h.ImpliedQuote()
	assert.ErrorIs(t, err, instruments.ErrNoTermStructure)

	h.SetTermStructure(flatCurve(t, ref))
	got, err := h.ImpliedQuote()
	require.NoError(t, err)
	tau := daycount.Act360.YearFraction(ref, h.PillarDate())
	want := (1/discount(ref, h.PillarDate()) - 1) / tau
	assert.InDelta(t, want, got, 1e-12)
	assert.Equal(t, 0.02, h.Quote().Value())
}

func TestDepositRollsModifiedFollowing(t *testing.T) {
	t.Parallel()

	// 2025-05-31 is a Saturday at month end
	h, err := instruments.NewDeposit(marketdata.NewSimpleQuote(0.02), date(2025, 1, 31), calendar.MustParsePeriod("4M"), instruments.Conventions{})
	require.NoError(t, err)
	assert.True(t, h.PillarDate().Equal(date(2025, 5, 30)), h.PillarDate().Format("2006-01-02"))

	_, err = instruments.NewDeposit(marketdata.NewSimpleQuote(0.02), date(2025, 2, 28), calendar.Period{}, instruments.Conventions{})
	assert.Error(t, err)
	_, err = instruments.NewDeposit(nil, date(2025, 2, 28), calendar.MustParsePeriod("3M"), instruments.Conventions{})
	assert.Error(t, err)
}

func TestFRAImpliedQuote(t *testing.T) {
	t.Parallel()

	ref := date(2025, 1, 15)
	h, err := instruments.NewFRA(marketdata.NewSimpleQuote(0.02), ref,
		calendar.MustParsePeriod("3M"), calendar.MustParsePeriod("6M"), instruments.Conventions{DayCount: daycount.Act365F})
	require.NoError(t, err)
	assert.True(t, h.Start().Equal(date(2025, 4, 15)))
	assert.True(t, h.EarliestDate().Equal(h.Start()))
	assert.True(t, h.PillarDate().Equal(date(2025, 7, 15)))

	h.SetTermStructure(flatCurve(t, ref))
	got, err := h.ImpliedQuote()
	require.NoError(t, err)
	tau := daycount.Act365F.YearFraction(h.Start(), h.Maturity())
	assert.InDelta(t, (math.Exp(flatRate*tau)-1)/tau, got, 1e-12)

	_, err = instruments.NewFRA(marketdata.NewSimpleQuote(0.02), ref,
		calendar.MustParsePeriod("6M"), calendar.MustParsePeriod("3M"), instruments.Conventions{})
	assert.Error(t, err)
}

func TestOISSchedule(t *testing.T) {
	t.Parallel()

	settlement := date(2025, 1, 15)
	h, err := instruments.NewOIS(marketdata.NewSimpleQuote(0.02), settlement, calendar.MustParsePeriod("3Y"),
		instruments.Conventions{DayCount: daycount.Act360, PayDelay: 2})
	require.NoError(t, err)

	coupons := h.Coupons()
	require.Len(t, coupons, 3)
	want := []struct{ start, end, pay time.Time }{
		{date(2025, 1, 15), date(2026, 1, 15), date(2026, 1, 19)},
		{date(2026, 1, 15), date(2027, 1, 15), date(2027, 1, 19)},
		{date(2027, 1, 15), date(2028, 1, 17), date(2028, 1, 19)},
	}
	for i, w := range want {
		c := coupons[i]
		assert.True(t, c.AccrualStart.Equal(w.start), "start %d: %s", i, c.AccrualStart.Format("2006-01-02"))
		assert.True(t, c.AccrualEnd.Equal(w.end), "end %d: %s", i, c.AccrualEnd.Format("2006-01-02"))
		assert.True(t, c.PaymentDate.Equal(w.pay), "pay %d: %s", i, c.PaymentDate.Format("2006-01-02"))
		assert.InDelta(t, daycount.Act360.YearFraction(c.AccrualStart, c.AccrualEnd), c.Accrual, 1e-15)
	}
	assert.True(t, h.PillarDate().Equal(date(2028, 1, 19)))
	assert.True(t, h.EarliestDate().Equal(settlement))
	assert.True(t, h.Maturity().Equal(date(2028, 1, 15)))
}

func TestOISShortFrontStub(t *testing.T) {
	t.Parallel()

	// 18M annual: a six month front stub, then a full year
	h, err := instruments.NewOIS(marketdata.NewSimpleQuote(0.02), date(2025, 1, 15), calendar.MustParsePeriod("18M"), instruments.Conventions{})
	require.NoError(t, err)
	coupons := h.Coupons()
	require.Len(t, coupons, 2)
	assert.True(t, coupons[0].AccrualEnd.Equal(date(2025, 7, 15)))
	assert.True(t, coupons[1].AccrualEnd.Equal(date(2026, 7, 15)))

	_, err = instruments.NewOIS(marketdata.NewSimpleQuote(0.02), date(2025, 1, 15), calendar.MustParsePeriod("10D"), instruments.Conventions{})
	assert.Error(t, err)
}

func TestOISParRateWithoutDelay(t *testing.T) {
	t.Parallel()

	ref := date(2025, 1, 15)
	h, err := instruments.NewOIS(marketdata.NewSimpleQuote(0.02), ref, calendar.MustParsePeriod("5Y"), instruments.Conventions{})
	require.NoError(t, err)
	h.SetTermStructure(flatCurve(t, ref))
	got, err := h.ImpliedQuote()
	require.NoError(t, err)

	// without a payment lag the overnight leg telescopes to 1 - D(T)
	annuity := 0.0
	coupons := h.Coupons()
	for _, c := range coupons {
		annuity += c.Accrual * discount(ref, c.PaymentDate)
	}
	want := (1 - discount(ref, coupons[len(coupons)-1].AccrualEnd)) / annuity
	assert.InDelta(t, want, got, 1e-12)
}
