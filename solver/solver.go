// Package solver holds bracketed one-dimensional root finders.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotBracketed is returned when f(xMin) and f(xMax) share a sign.
	ErrNotBracketed = errors.New("root not bracketed")
	// ErrMaxEvaluations is returned when the evaluation budget runs out.
	ErrMaxEvaluations = errors.New("maximum number of function evaluations exceeded")
	// ErrInvalidRange is returned for an empty bracket or a guess outside it.
	ErrInvalidRange = errors.New("invalid solver range")
)

// DefaultMaxEvaluations is used when a solver's MaxEvaluations is zero.
const DefaultMaxEvaluations = 100

const eps = 2.220446049250313e-16

// Func is the objective. Errors abort the solve and are returned unchanged.
type Func func(x float64) (float64, error)

// Solver1D finds x in [xMin, xMax] with |x - root| <= accuracy.
type Solver1D interface {
	Solve(f Func, accuracy, guess, xMin, xMax float64) (float64, error)
}

// bracket holds the state shared by the bracketed solvers.
type bracket struct {
	xMin, xMax   float64
	fxMin, fxMax float64
	root         float64
	evaluations  int
	maxEvals     int
}

// setup validates the bracket, evaluates the end points and reports early exits.
func setup(name string, f Func, accuracy, guess, xMin, xMax float64, maxEvals int) (*bracket, float64, bool, error) {
	if maxEvals <= 0 {
		maxEvals = DefaultMaxEvaluations
	}
	if !(xMin < xMax) {
		return nil, 0, false, fmt.Errorf("%s: %w: xMin (%g) >= xMax (%g)", name, ErrInvalidRange, xMin, xMax)
	}
	if guess < xMin || guess > xMax {
		return nil, 0, false, fmt.Errorf("%s: %w: guess (%g) outside [%g, %g]", name, ErrInvalidRange, guess, xMin, xMax)
	}
	b := &bracket{xMin: xMin, xMax: xMax, maxEvals: maxEvals, root: guess}

	var err error
	if b.fxMin, err = f(xMin); err != nil {
		return nil, 0, false, err
	}
	if closeEnough(b.fxMin, 0, 42) {
		return b, xMin, true, nil
	}
	if b.fxMax, err = f(xMax); err != nil {
		return nil, 0, false, err
	}
	if closeEnough(b.fxMax, 0, 42) {
		return b, xMax, true, nil
	}
	b.evaluations = 2
	if !(b.fxMin*b.fxMax < 0) {
		return nil, 0, false, fmt.Errorf("%s: %w: f[%g,%g] -> [%g,%g]", name, ErrNotBracketed, xMin, xMax, b.fxMin, b.fxMax)
	}
	return b, 0, false, nil
}

func accuracyFloor(accuracy float64) float64 {
	return math.Max(accuracy, eps)
}

// closeEnough is a relative comparison with an absolute floor at zero.
func closeEnough(x, y float64, n float64) bool {
	if x == y {
		return true
	}
	diff := math.Abs(x - y)
	tol := n * eps
	if x*y == 0 {
		return diff < tol*tol
	}
	return diff <= tol*math.Abs(x) || diff <= tol*math.Abs(y)
}
