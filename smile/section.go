// Package smile holds volatility smile sections: implied volatility as a
// function of strike for one exercise time.
package smile

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/termstructure/interpolation"
	"github.com/meenmo/termstructure/marketdata"
)

// ErrInvalidSmile is returned for malformed strikes or volatility quotes.
var ErrInvalidSmile = errors.New("invalid smile")

// Params describes an interpolated smile section.
type Params struct {
	ExerciseTime float64
	Strikes      []float64
	Volatilities []marketdata.Quote
	// ATMLevel is optional; a nil quote leaves it undefined.
	ATMLevel      marketdata.Quote
	Interpolation interpolation.Strategy
	// AllowExtrapolation extends the smile flat past the outer strikes.
	AllowExtrapolation bool
}

// Section interpolates volatilities over strikes. It observes its quotes and
// rebuilds lazily after any of them changes.
type Section struct {
	marketdata.Observable

	exerciseTime  float64
	strikes       []float64
	quotes        []marketdata.Quote
	atm           marketdata.Quote
	strategy      interpolation.Strategy
	extrapolation bool

	vols   []float64
	interp interpolation.Interpolant
	valid  bool
}

// New validates the strikes and registers with the quotes.
func New(p Params) (*Section, error) {
	if !(p.ExerciseTime > 0) {
		return nil, fmt.Errorf("smile.New: %w: exercise time must be positive, got %g", ErrInvalidSmile, p.ExerciseTime)
	}
	if len(p.Strikes) != len(p.Volatilities) {
		return nil, fmt.Errorf("smile.New: %w: %d strikes and %d volatilities", ErrInvalidSmile, len(p.Strikes), len(p.Volatilities))
	}
	if len(p.Strikes) < p.Interpolation.RequiredPoints() {
		return nil, fmt.Errorf("smile.New: %w: at least %d strikes required", ErrInvalidSmile, p.Interpolation.RequiredPoints())
	}
	for i := 1; i < len(p.Strikes); i++ {
		if !(p.Strikes[i] > p.Strikes[i-1]) {
			return nil, fmt.Errorf("smile.New: %w: strikes not increasing at %d", ErrInvalidSmile, i)
		}
	}
	s := &Section{
		exerciseTime:  p.ExerciseTime,
		strikes:       append([]float64(nil), p.Strikes...),
		quotes:        append([]marketdata.Quote(nil), p.Volatilities...),
		atm:           p.ATMLevel,
		strategy:      p.Interpolation,
		extrapolation: p.AllowExtrapolation,
	}
	for _, q := range s.quotes {
		if q == nil {
			return nil, fmt.Errorf("smile.New: %w: nil volatility quote", ErrInvalidSmile)
		}
		q.RegisterObserver(s)
	}
	if s.atm != nil {
		s.atm.RegisterObserver(s)
	}
	return s, nil
}

// Update invalidates the section and notifies its observers.
func (s *Section) Update() {
	s.valid = false
	s.NotifyObservers()
}

// Recalculate rebuilds the interpolant from the current quotes.
func (s *Section) Recalculate() error {
	if s.valid {
		return nil
	}
	vols := make([]float64, len(s.quotes))
	for i, q := range s.quotes {
		if !q.IsValid() {
			return fmt.Errorf("smile: %w: no volatility at strike %g", ErrInvalidSmile, s.strikes[i])
		}
		if v := q.Value(); v < 0 {
			return fmt.Errorf("smile: %w: negative volatility %g at strike %g", ErrInvalidSmile, v, s.strikes[i])
		}
		vols[i] = q.Value()
	}
	ip, err := s.strategy.Interpolate(s.strikes, vols)
	if err != nil {
		return fmt.Errorf("smile: %w", err)
	}
	s.vols, s.interp, s.valid = vols, ip, true
	return nil
}

func (s *Section) ExerciseTime() float64 { return s.exerciseTime }
func (s *Section) MinStrike() float64    { return s.strikes[0] }
func (s *Section) MaxStrike() float64    { return s.strikes[len(s.strikes)-1] }

// ATMLevel returns the at-the-money level, if one was given.
func (s *Section) ATMLevel() (float64, bool) {
	if s.atm == nil || !s.atm.IsValid() {
		return 0, false
	}
	return s.atm.Value(), true
}

// Volatility returns the implied volatility at strike.
func (s *Section) Volatility(strike float64) (float64, error) {
	if err := s.Recalculate(); err != nil {
		return 0, err
	}
	if !s.extrapolation {
		if err := interpolation.CheckRange(s.interp, strike, false); err != nil {
			return 0, fmt.Errorf("smile.Volatility: %w", err)
		}
	}
	strike = math.Min(math.Max(strike, s.MinStrike()), s.MaxStrike())
	return math.Max(s.interp.Value(strike), 0), nil
}

// Variance returns the total variance vol² t at strike.
func (s *Section) Variance(strike float64) (float64, error) {
	v, err := s.Volatility(strike)
	if err != nil {
		return 0, err
	}
	return v * v * s.exerciseTime, nil
}

// Volatilities returns the quoted volatilities as of the last rebuild.
func (s *Section) Volatilities() []float64 { return append([]float64(nil), s.vols...) }
