// Package curve builds yield term structures, either interpolated over given
// pillar values or bootstrapped from calibrating instruments.
package curve

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/config"
	"github.com/meenmo/termstructure/interpolation"
	"github.com/meenmo/termstructure/marketdata"
	"github.com/meenmo/termstructure/solver"
)

// Curve is a yield term structure over (date, time, value) pillars. The
// meaning of the values is given by its Traits. Bootstrapped curves are lazy:
// they recalculate on the first query after an input changed.
//
// A Curve is not safe for concurrent use.
type Curve struct {
	marketdata.Observable

	name       string
	traits     Traits
	strategy   interpolation.Strategy
	dayCounter DayCounter
	cfg        config.Config
	logger     *zap.Logger
	recorder   Recorder

	referenceDate  time.Time
	evaluationDate *marketdata.EvaluationDate
	settlementDays int
	calendar       *calendar.Calendar

	dates  []time.Time
	times  []float64
	data   []float64
	interp interpolation.Interpolant

	helpers   []RateHelper
	bootstrap Bootstrap

	valid       bool
	validCurve  bool
	evaluations int
}

// Params describes an interpolated curve. The first date is the reference
// date.
type Params struct {
	Name          string
	Dates         []time.Time
	Values        []float64
	Traits        Traits
	Interpolation interpolation.Strategy
	DayCounter    DayCounter
	// Config defaults to config.GetConfig().
	Config *config.Config
	Logger *zap.Logger
}

// PiecewiseParams describes a bootstrapped curve. Either ReferenceDate or
// EvaluationDate must be set; with an evaluation date the reference date
// moves SettlementDays business days after it.
type PiecewiseParams struct {
	Name           string
	ReferenceDate  time.Time
	EvaluationDate *marketdata.EvaluationDate
	SettlementDays int
	// Calendar defaults to calendar.Weekends.
	Calendar      *calendar.Calendar
	Helpers       []RateHelper
	Traits        Traits
	Interpolation interpolation.Strategy
	DayCounter    DayCounter
	// Bootstrap defaults to IterativeBootstrap.
	Bootstrap Bootstrap
	Config    *config.Config
	Logger    *zap.Logger
	Recorder  Recorder
}

func newCurve(name string, traits Traits, strategy interpolation.Strategy, dc DayCounter, cfg *config.Config, logger *zap.Logger) (*Curve, error) {
	if traits == nil {
		return nil, fmt.Errorf("%w: traits required", ErrInvalidData)
	}
	if dc == nil {
		return nil, fmt.Errorf("%w: day counter required", ErrInvalidData)
	}
	c := &Curve{
		name:       name,
		traits:     traits,
		strategy:   strategy,
		dayCounter: dc,
		cfg:        config.GetConfig(),
		logger:     logger,
	}
	if cfg != nil {
		c.cfg = *cfg
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if c.strategy.Kind == interpolation.KindKernel && c.strategy.Kernel.Tolerance == 0 {
		c.strategy.Kernel.Tolerance = c.cfg.KernelTolerance
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("curve", name), zap.String("traits", traits.Name()))
	return c, nil
}

// NewInterpolated builds a curve through the given pillar values.
func NewInterpolated(p Params) (*Curve, error) {
	c, err := newCurve(p.Name, p.Traits, p.Interpolation, p.DayCounter, p.Config, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("NewInterpolated: %w", err)
	}
	if len(p.Dates) != len(p.Values) {
		return nil, fmt.Errorf("NewInterpolated: %w: %d dates and %d values", ErrInvalidData, len(p.Dates), len(p.Values))
	}
	if len(p.Dates) < c.strategy.RequiredPoints() {
		return nil, fmt.Errorf("NewInterpolated: %w: at least %d dates required, %d provided",
			ErrInvalidData, c.strategy.RequiredPoints(), len(p.Dates))
	}
	c.referenceDate = p.Dates[0]
	c.dates = append([]time.Time(nil), p.Dates...)
	c.data = append([]float64(nil), p.Values...)
	c.times = make([]float64, len(c.dates))
	for i := 1; i < len(c.dates); i++ {
		if !c.dates[i].After(c.dates[i-1]) {
			return nil, fmt.Errorf("NewInterpolated: %w: dates not sorted or duplicated at %s",
				ErrInvalidData, c.dates[i].Format("2006-01-02"))
		}
		c.times[i] = c.TimeFromReference(c.dates[i])
		if !(c.times[i] > c.times[i-1]) {
			return nil, fmt.Errorf("NewInterpolated: %w: dates %s and %s map to the same time",
				ErrInvalidData, c.dates[i-1].Format("2006-01-02"), c.dates[i].Format("2006-01-02"))
		}
	}
	if _, ok := c.traits.(DiscountTraits); ok {
		if err := checkDiscounts(c.data, c.cfg.AllowNegativeRates); err != nil {
			return nil, fmt.Errorf("NewInterpolated: %w", err)
		}
	}
	if c.interp, err = c.strategy.Interpolate(c.times, c.data); err != nil {
		return nil, fmt.Errorf("NewInterpolated: %w", err)
	}
	c.valid = true
	c.validCurve = true
	return c, nil
}

func checkDiscounts(d []float64, negativeRates bool) error {
	if d[0] != 1 {
		return fmt.Errorf("%w: initial discount factor (%g) must be 1", ErrInvalidData, d[0])
	}
	for i := 1; i < len(d); i++ {
		if !(d[i] > 0) {
			return fmt.Errorf("%w: non-positive discount factor (%g) at pillar %d", ErrInvalidData, d[i], i)
		}
		if !negativeRates && d[i] > d[i-1] {
			return fmt.Errorf("%w: discount factor increases at pillar %d (%g after %g)", ErrInvalidData, i, d[i], d[i-1])
		}
	}
	return nil
}

// NewPiecewise returns a bootstrapped curve. Nothing is solved until the
// first query or Recalculate. The curve observes the helper quotes and the
// evaluation date.
func NewPiecewise(p PiecewiseParams) (*Curve, error) {
	c, err := newCurve(p.Name, p.Traits, p.Interpolation, p.DayCounter, p.Config, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("NewPiecewise: %w", err)
	}
	switch {
	case p.EvaluationDate != nil:
		c.evaluationDate = p.EvaluationDate
		c.settlementDays = p.SettlementDays
		c.calendar = p.Calendar
		if c.calendar == nil {
			c.calendar = calendar.Weekends
		}
		c.evaluationDate.RegisterObserver(c)
	case !p.ReferenceDate.IsZero():
		c.referenceDate = p.ReferenceDate
	default:
		return nil, fmt.Errorf("NewPiecewise: %w: reference date or evaluation date required", ErrInvalidData)
	}

	c.helpers = append([]RateHelper(nil), p.Helpers...)
	sort.SliceStable(c.helpers, func(i, j int) bool {
		return c.helpers[i].PillarDate().Before(c.helpers[j].PillarDate())
	})
	for i, h := range c.helpers {
		if i > 0 && h.PillarDate().Equal(c.helpers[i-1].PillarDate()) {
			return nil, fmt.Errorf("NewPiecewise: %w: more than one instrument with pillar %s",
				ErrInvalidData, h.PillarDate().Format("2006-01-02"))
		}
		h.Quote().RegisterObserver(c)
	}

	c.bootstrap = p.Bootstrap
	if c.bootstrap == nil {
		c.bootstrap = IterativeBootstrap{}
	}
	c.recorder = p.Recorder
	return c, nil
}

// Update invalidates the curve and notifies its observers. Bootstrapped
// curves call it when a quote or the evaluation date changes.
func (c *Curve) Update() {
	if c.bootstrap != nil {
		c.valid = false
	}
	c.NotifyObservers()
}

// Valid reports whether the arrays reflect the current inputs.
func (c *Curve) Valid() bool { return c.valid }

// Recalculate bootstraps the curve if it is not valid. It is idempotent.
func (c *Curve) Recalculate() error {
	if c.valid {
		return nil
	}
	// valid is set first so that helpers pricing on the curve during the
	// bootstrap do not trigger it again
	c.valid = true
	c.evaluations = 0
	start := time.Now()
	passes, err := c.bootstrap.bootstrap(c)
	elapsed := time.Since(start)
	if c.recorder != nil {
		c.recorder.ObserveBootstrap(c.name, passes, c.evaluations, elapsed, err)
	}
	if err != nil {
		c.valid = false
		c.validCurve = false
		c.logger.Error("bootstrap failed", zap.Int("passes", passes), zap.Int("evaluations", c.evaluations), zap.Error(err))
		return err
	}
	c.validCurve = true
	c.logger.Debug("bootstrap done",
		zap.Int("passes", passes),
		zap.Int("evaluations", c.evaluations),
		zap.Int("pillars", len(c.times)-1),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (c *Curve) Name() string                          { return c.name }
func (c *Curve) Traits() Traits                        { return c.traits }
func (c *Curve) Interpolation() interpolation.Strategy { return c.strategy }
func (c *Curve) Config() config.Config                 { return c.cfg }

// Helpers returns the calibrating instruments sorted by pillar date.
func (c *Curve) Helpers() []RateHelper {
	return append([]RateHelper(nil), c.helpers...)
}

// ReferenceDate is the date at which discount factors are 1.
func (c *Curve) ReferenceDate() time.Time {
	if c.evaluationDate != nil {
		return c.calendar.AddBusinessDays(c.evaluationDate.Date(), c.settlementDays)
	}
	return c.referenceDate
}

// TimeFromReference converts a date to a year fraction from the reference date.
func (c *Curve) TimeFromReference(d time.Time) float64 {
	return c.dayCounter.YearFraction(c.ReferenceDate(), d)
}

// MaxDate is the last pillar date.
func (c *Curve) MaxDate() (time.Time, error) {
	if err := c.Recalculate(); err != nil {
		return time.Time{}, err
	}
	return c.dates[len(c.dates)-1], nil
}

// MaxTime is the time of the last pillar.
func (c *Curve) MaxTime() (float64, error) {
	if err := c.Recalculate(); err != nil {
		return 0, err
	}
	return c.times[len(c.times)-1], nil
}

// Dates, Times and Data return copies of the pillar arrays as of the last
// successful calculation.
func (c *Curve) Dates() []time.Time { return append([]time.Time(nil), c.dates...) }
func (c *Curve) Times() []float64   { return append([]float64(nil), c.times...) }
func (c *Curve) Data() []float64    { return append([]float64(nil), c.data...) }

// Nodes recalculates and returns the pillars.
func (c *Curve) Nodes() ([]Node, error) {
	if err := c.Recalculate(); err != nil {
		return nil, err
	}
	nodes := make([]Node, len(c.dates))
	for i := range c.dates {
		nodes[i] = Node{Date: c.dates[i], Time: c.times[i], Value: c.data[i]}
	}
	return nodes, nil
}

// check recalculates and validates a query time.
func (c *Curve) check(op string, t float64) error {
	if err := c.Recalculate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if t < 0 {
		return fmt.Errorf("%s: %w: t=%g", op, ErrNegativeTime, t)
	}
	if c.anchorOnly() {
		// flat everywhere, nothing to extrapolate
		return nil
	}
	tMax := c.times[len(c.times)-1]
	if !c.cfg.AllowExtrapolation && t > tMax && !closeTo(t, tMax) {
		return fmt.Errorf("%s: %w: t (%g) past max curve time (%g)", op, interpolation.ErrOutOfRange, t, tMax)
	}
	return nil
}

func closeTo(x, y float64) bool {
	return math.Abs(x-y) <= 42*epsilon*math.Max(math.Abs(x), math.Abs(y))
}

// anchorOnly reports a curve without any pillar past the reference date.
// Such a curve is flat at zero rates.
func (c *Curve) anchorOnly() bool { return c.interp == nil }

// Discount returns the discount factor at time t.
func (c *Curve) Discount(t float64) (float64, error) {
	if err := c.check("Discount", t); err != nil {
		return 0, err
	}
	if t == 0 || c.anchorOnly() {
		return 1, nil
	}
	return c.traits.discount(c, t), nil
}

// DiscountAt returns the discount factor at date d.
func (c *Curve) DiscountAt(d time.Time) (float64, error) {
	return c.Discount(c.TimeFromReference(d))
}

// ZeroRate returns the continuously compounded zero rate to time t. At t=0
// the rate to a short time is returned.
func (c *Curve) ZeroRate(t float64) (float64, error) {
	if err := c.check("ZeroRate", t); err != nil {
		return 0, err
	}
	if c.anchorOnly() {
		return 0, nil
	}
	if t == 0 {
		t = shortTime
	}
	return c.traits.zeroYield(c, t), nil
}

// ZeroRateAt returns the continuously compounded zero rate to date d.
func (c *Curve) ZeroRateAt(d time.Time) (float64, error) {
	return c.ZeroRate(c.TimeFromReference(d))
}

// ForwardRate returns the continuously compounded forward rate between t1
// and t2, or the instantaneous forward when they are equal.
func (c *Curve) ForwardRate(t1, t2 float64) (float64, error) {
	if t2 < t1 {
		return 0, fmt.Errorf("ForwardRate: %w: t2 (%g) before t1 (%g)", ErrInvalidData, t2, t1)
	}
	if t1 == t2 {
		return c.InstantaneousForward(t1)
	}
	if err := c.check("ForwardRate", t1); err != nil {
		return 0, err
	}
	if err := c.check("ForwardRate", t2); err != nil {
		return 0, err
	}
	d1, _ := c.Discount(t1)
	d2, _ := c.Discount(t2)
	return math.Log(d1/d2) / (t2 - t1), nil
}

// ForwardRateAt returns the continuously compounded forward rate between two
// dates.
func (c *Curve) ForwardRateAt(d1, d2 time.Time) (float64, error) {
	return c.ForwardRate(c.TimeFromReference(d1), c.TimeFromReference(d2))
}

// InstantaneousForward returns the instantaneous forward rate at t.
func (c *Curve) InstantaneousForward(t float64) (float64, error) {
	if err := c.check("InstantaneousForward", t); err != nil {
		return 0, err
	}
	if c.anchorOnly() {
		return 0, nil
	}
	return c.traits.instForward(c, t), nil
}

func (c *Curve) solver() solver.Solver1D {
	if strings.EqualFold(c.cfg.Solver, "newtonsafe") {
		return solver.NewtonSafe{MaxEvaluations: c.cfg.MaxEvaluations}
	}
	return solver.Brent{MaxEvaluations: c.cfg.MaxEvaluations}
}

// rebuild refits the interpolant on the first n pillars.
func (c *Curve) rebuild(s interpolation.Strategy, n int) error {
	ip, err := s.Interpolate(c.times[:n], c.data[:n])
	if err != nil {
		return err
	}
	c.interp = ip
	return nil
}
