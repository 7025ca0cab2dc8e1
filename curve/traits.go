package curve

import (
	"fmt"
	"math"
	"strings"
)

const (
	avgRate = 0.05
	// shortTime replaces t=0 in zero-rate queries.
	shortTime = 1e-4
	epsilon   = 2.220446049250313e-16
)

// Traits selects what the curve's pillar values are: discount factors,
// continuously compounded zero rates or instantaneous forward rates. The set
// is closed; use Discount, ZeroYield or ForwardRate.
type Traits interface {
	Name() string
	// MaxIterations is the default pass limit of a global bootstrap.
	MaxIterations() int

	initialValue() float64
	dummyInitialValue() bool
	guess(i int, c *Curve, validData bool) float64
	minValueAfter(i int, c *Curve, validData bool) float64
	maxValueAfter(i int, c *Curve, validData bool) float64
	updateGuess(data []float64, v float64, i int)

	discount(c *Curve, t float64) float64
	zeroYield(c *Curve, t float64) float64
	instForward(c *Curve, t float64) float64
}

var (
	Discount    Traits = DiscountTraits{}
	ZeroYield   Traits = ZeroYieldTraits{}
	ForwardRate Traits = ForwardRateTraits{}
)

// ParseTraits maps "discount", "zero" and "forward" to their traits.
func ParseTraits(name string) (Traits, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discount", "df":
		return Discount, nil
	case "zero", "zeroyield", "zero-yield":
		return ZeroYield, nil
	case "forward", "forwardrate", "forward-rate":
		return ForwardRate, nil
	}
	return nil, fmt.Errorf("ParseTraits: unknown curve kind %q", name)
}

// DiscountTraits: pillar values are discount factors.
type DiscountTraits struct{}

func (DiscountTraits) Name() string            { return "discount" }
func (DiscountTraits) MaxIterations() int      { return 50 }
func (DiscountTraits) initialValue() float64   { return 1 }
func (DiscountTraits) dummyInitialValue() bool { return false }

func (DiscountTraits) guess(i int, c *Curve, validData bool) float64 {
	if validData {
		return c.data[i]
	}
	if i == 1 {
		return 1 / (1 + avgRate*c.times[1])
	}
	// flat rate extrapolation
	r := -math.Log(c.data[i-1]) / c.times[i-1]
	return math.Exp(-r * c.times[i])
}

func (DiscountTraits) minValueAfter(i int, c *Curve, validData bool) float64 {
	if validData {
		if c.cfg.AllowNegativeRates {
			return minOf(c.data) / 2
		}
		return c.data[len(c.data)-1] / 2
	}
	dt := c.times[i] - c.times[i-1]
	return c.data[i-1] * math.Exp(-c.cfg.MaxRate*dt)
}

func (DiscountTraits) maxValueAfter(i int, c *Curve, validData bool) float64 {
	if c.cfg.AllowNegativeRates {
		dt := c.times[i] - c.times[i-1]
		return c.data[i-1] * math.Exp(c.cfg.MaxRate*dt)
	}
	// discounts cannot increase
	return c.data[i-1]
}

func (DiscountTraits) updateGuess(data []float64, v float64, i int) { data[i] = v }

func (DiscountTraits) discount(c *Curve, t float64) float64 {
	tMax := c.times[len(c.times)-1]
	if t <= tMax {
		return c.interp.Value(t)
	}
	// flat forward extrapolation
	dMax := c.data[len(c.data)-1]
	instFwdMax := -c.interp.Derivative(tMax) / dMax
	return dMax * math.Exp(-instFwdMax*(t-tMax))
}

func (d DiscountTraits) zeroYield(c *Curve, t float64) float64 {
	return -math.Log(d.discount(c, t)) / t
}

func (d DiscountTraits) instForward(c *Curve, t float64) float64 {
	tMax := c.times[len(c.times)-1]
	if t > tMax {
		t = tMax
	}
	return -c.interp.Derivative(t) / d.discount(c, t)
}

// rateBounds are shared by the zero and forward traits.
type rateBounds struct{}

func (rateBounds) initialValue() float64   { return avgRate }
func (rateBounds) dummyInitialValue() bool { return true }

func (rateBounds) guess(i int, c *Curve, validData bool) float64 {
	if validData {
		return c.data[i]
	}
	if i == 1 {
		return avgRate
	}
	// extrapolate the interpolant fitted on pillars 0..i-1
	if c.interp != nil {
		if v := c.interp.Value(c.times[i]); !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return c.data[i-1]
}

func (rateBounds) minValueAfter(i int, c *Curve, validData bool) float64 {
	if validData {
		r := minOf(c.data)
		if c.cfg.AllowNegativeRates && r < 0 {
			return 2 * r
		}
		return r / 2
	}
	if c.cfg.AllowNegativeRates {
		return -c.cfg.MaxRate
	}
	return epsilon
}

func (rateBounds) maxValueAfter(i int, c *Curve, validData bool) float64 {
	if validData {
		r := maxOf(c.data)
		if r < 0 {
			return r / 2
		}
		return 2 * r
	}
	return c.cfg.MaxRate
}

func (rateBounds) updateGuess(data []float64, v float64, i int) {
	data[i] = v
	if i == 1 {
		// the anchor is a dummy; keep it equal to the first pillar
		data[0] = v
	}
}

// ZeroYieldTraits: pillar values are continuously compounded zero rates.
type ZeroYieldTraits struct{ rateBounds }

func (ZeroYieldTraits) Name() string       { return "zero" }
func (ZeroYieldTraits) MaxIterations() int { return 30 }

func (ZeroYieldTraits) zeroYield(c *Curve, t float64) float64 {
	tMax := c.times[len(c.times)-1]
	if t <= tMax {
		return c.interp.Value(t)
	}
	// flat forward extrapolation
	zMax := c.data[len(c.data)-1]
	instFwdMax := zMax + tMax*c.interp.Derivative(tMax)
	return (zMax*tMax + instFwdMax*(t-tMax)) / t
}

func (z ZeroYieldTraits) discount(c *Curve, t float64) float64 {
	if t == 0 {
		return 1
	}
	return math.Exp(-z.zeroYield(c, t) * t)
}

func (z ZeroYieldTraits) instForward(c *Curve, t float64) float64 {
	tMax := c.times[len(c.times)-1]
	if t > tMax {
		t = tMax
	}
	return c.interp.Value(t) + t*c.interp.Derivative(t)
}

// ForwardRateTraits: pillar values are instantaneous forward rates.
type ForwardRateTraits struct{ rateBounds }

func (ForwardRateTraits) Name() string       { return "forward" }
func (ForwardRateTraits) MaxIterations() int { return 30 }

func (ForwardRateTraits) instForward(c *Curve, t float64) float64 {
	if t <= c.times[len(c.times)-1] {
		return c.interp.Value(t)
	}
	return c.data[len(c.data)-1]
}

func (ForwardRateTraits) integral(c *Curve, t float64) float64 {
	tMax := c.times[len(c.times)-1]
	if t <= tMax {
		return c.interp.Primitive(t)
	}
	return c.interp.Primitive(tMax) + c.data[len(c.data)-1]*(t-tMax)
}

func (f ForwardRateTraits) zeroYield(c *Curve, t float64) float64 {
	if t == 0 {
		return f.instForward(c, 0)
	}
	return f.integral(c, t) / t
}

func (f ForwardRateTraits) discount(c *Curve, t float64) float64 {
	return math.Exp(-f.integral(c, t))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}
