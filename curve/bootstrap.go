package curve

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/termstructure/interpolation"
	"github.com/meenmo/termstructure/solver"
)

// Bootstrap calibrates a curve's pillar values to its helpers. The set is
// closed: IterativeBootstrap or GlobalBootstrap.
type Bootstrap interface {
	// bootstrap fills the curve arrays and returns the number of passes.
	bootstrap(c *Curve) (int, error)
}

// IterativeBootstrap solves one pillar at a time, each with a bracketed 1-D
// root finder on quote minus implied quote. Global interpolations repeat
// the sweep until pillar values stop moving.
type IterativeBootstrap struct{}

// initialize lays out the pillars for the current reference date and
// returns the helpers that are still alive, in pillar order.
func (c *Curve) initialize() ([]RateHelper, error) {
	ref := c.ReferenceDate()
	alive := make([]RateHelper, 0, len(c.helpers))
	for _, h := range c.helpers {
		if h.PillarDate().After(ref) {
			alive = append(alive, h)
		}
	}
	if skipped := len(c.helpers) - len(alive); skipped > 0 {
		c.logger.Debug("expired instruments skipped", zap.Int("skipped", skipped), zap.Time("reference_date", ref))
	}

	n := len(alive) + 1
	dates := make([]time.Time, n)
	times := make([]float64, n)
	dates[0] = ref
	for i, h := range alive {
		if !h.Quote().IsValid() {
			return nil, fmt.Errorf("%w: instrument %d (pillar %s) has an invalid quote",
				ErrInvalidData, i, h.PillarDate().Format("2006-01-02"))
		}
		dates[i+1] = h.PillarDate()
		times[i+1] = c.dayCounter.YearFraction(ref, dates[i+1])
		if !(times[i+1] > times[i]) {
			return nil, fmt.Errorf("%w: pillars %s and %s map to the same time",
				ErrInvalidData, dates[i].Format("2006-01-02"), dates[i+1].Format("2006-01-02"))
		}
		h.SetTermStructure(c)
	}

	// a warm start needs the previous layout
	if len(c.data) != n {
		c.validCurve = false
	}
	if c.validCurve {
		for i := range dates {
			if !dates[i].Equal(c.dates[i]) {
				c.validCurve = false
				break
			}
		}
	}
	c.dates, c.times = dates, times
	if !c.validCurve {
		c.resetData()
	}
	return alive, nil
}

func (c *Curve) resetData() {
	c.data = make([]float64, len(c.times))
	for i := range c.data {
		c.data[i] = c.traits.initialValue()
	}
	c.interp = nil
}

func (IterativeBootstrap) bootstrap(c *Curve) (int, error) {
	helpers, err := c.initialize()
	if err != nil {
		return 0, err
	}
	n := len(helpers)
	if n == 0 {
		c.interp = nil
		return 0, nil
	}
	if n+1 < c.strategy.RequiredPoints() {
		return 0, fmt.Errorf("%w: %d instruments cannot fit %s", ErrInvalidData, n, c.strategy)
	}

	validData := c.validCurve
	if validData {
		if err := c.rebuild(c.strategy, n+1); err != nil {
			validData = false
			c.validCurve = false
			c.resetData()
		}
	}

	maxPasses := c.cfg.MaxGlobalPasses
	if maxPasses == 0 {
		maxPasses = c.traits.MaxIterations()
	}
	s := c.solver()
	previous := make([]float64, n+1)

	for pass := 0; ; pass++ {
		copy(previous, c.data)
		c.logger.Debug("bootstrap pass", zap.Int("pass", pass+1), zap.Bool("warm", validData))

		for i := 1; i <= n; i++ {
			if err := c.solvePillar(s, helpers[i-1], i, pass, validData); err != nil {
				if c.validCurve {
					// the previous curve was a bad starting point; solve cold
					c.logger.Warn("warm start failed, restarting from scratch",
						zap.Int("instrument", i-1), zap.Error(err))
					c.validCurve = false
					c.resetData()
					return IterativeBootstrap{}.bootstrap(c)
				}
				return pass + 1, err
			}
		}

		if !c.strategy.Global() {
			return pass + 1, nil
		}
		change := 0.0
		for i := 1; i <= n; i++ {
			change = math.Max(change, math.Abs(c.data[i]-previous[i]))
		}
		c.logger.Debug("bootstrap pass done", zap.Int("pass", pass+1), zap.Float64("change", change))
		if pass > 0 && change <= c.cfg.Accuracy {
			return pass + 1, nil
		}
		if pass+1 >= maxPasses {
			if maxPasses == 1 {
				// a single pass was asked for; no pass-to-pass check possible
				return 1, nil
			}
			return pass + 1, &BootstrapError{
				Pass:       pass + 1,
				Instrument: -1,
				PillarDate: c.dates[n],
				Achieved:   change,
				Target:     c.cfg.Accuracy,
			}
		}
		validData = true
	}
}

// solvePillar solves pillar i so that helper h reprices to its quote.
func (c *Curve) solvePillar(s solver.Solver1D, h RateHelper, i, pass int, validData bool) error {
	quote := h.Quote()
	if !quote.IsValid() {
		return fmt.Errorf("%w: instrument %d (pillar %s) has an invalid quote",
			ErrInvalidData, i-1, c.dates[i].Format("2006-01-02"))
	}

	// guessed before the interpolant takes in pillar i
	firstGuess := c.traits.guess(i, c, validData)

	strategy, n := c.strategy, len(c.times)
	if !validData {
		// only pillars up to i are solved
		n = i + 1
		if err := c.rebuild(strategy, n); err != nil {
			if !strategy.Global() {
				return fmt.Errorf("instrument %d: %w", i-1, err)
			}
			c.logger.Warn("interpolation failed on first pillars, using linear",
				zap.Int("pillar", i), zap.String("interpolation", strategy.String()), zap.Error(err))
			strategy = interpolation.Linear()
			if err := c.rebuild(strategy, n); err != nil {
				return fmt.Errorf("instrument %d: %w", i-1, err)
			}
		}
	}

	target := quote.Value()
	objective := func(x float64) (float64, error) {
		c.evaluations++
		c.traits.updateGuess(c.data, x, i)
		if err := c.rebuild(strategy, n); err != nil {
			return 0, err
		}
		implied, err := h.ImpliedQuote()
		if err != nil {
			return 0, err
		}
		return target - implied, nil
	}

	var lo, hi float64
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt == 1 {
			lo = c.traits.minValueAfter(i, c, validData)
			hi = c.traits.maxValueAfter(i, c, validData)
		} else {
			if lo < 0 {
				lo *= c.cfg.MinFactor
			} else {
				lo /= c.cfg.MinFactor
			}
			if hi > 0 {
				hi *= c.cfg.MaxFactor
			} else {
				hi /= c.cfg.MaxFactor
			}
			c.logger.Debug("retrying pillar with a wider bracket",
				zap.Int("pillar", i), zap.Int("attempt", attempt), zap.Float64("min", lo), zap.Float64("max", hi))
		}
		guess := firstGuess
		if guess >= hi {
			guess = hi - (hi-lo)/5
		} else if guess <= lo {
			guess = lo + (hi-lo)/5
		}

		root, err := s.Solve(objective, c.cfg.Accuracy, guess, lo, hi)
		if err == nil {
			// write the root back: not every solver evaluates at it last
			c.traits.updateGuess(c.data, root, i)
			if err := c.rebuild(strategy, n); err != nil {
				return fmt.Errorf("instrument %d: %w", i-1, err)
			}
			return nil
		}
		lastErr = err
	}

	achieved := math.NaN()
	if implied, err := h.ImpliedQuote(); err == nil {
		achieved = math.Abs(target - implied)
	}
	return &BootstrapError{
		Pass:       pass + 1,
		Instrument: i - 1,
		PillarDate: c.dates[i],
		Achieved:   achieved,
		Target:     c.cfg.Accuracy,
		Err:        lastErr,
	}
}
