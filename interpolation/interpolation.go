// Package interpolation turns a set of (x, y) points into a continuous
// function with value, derivative and primitive.
package interpolation

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidInput is returned at construction for malformed point sets.
	ErrInvalidInput = errors.New("invalid interpolation input")
	// ErrNotImplemented is returned for schemes and boundary conditions that
	// are recognised but not supported.
	ErrNotImplemented = errors.New("not implemented")
	// ErrKernelInversion is returned when the kernel system cannot be
	// inverted to the requested tolerance.
	ErrKernelInversion = errors.New("kernel matrix inversion failed")
	// ErrOutOfRange is returned by CheckRange outside [XMin, XMax] when
	// extrapolation is not allowed.
	ErrOutOfRange = errors.New("interpolation range exceeded")
)

// Interpolant is a fitted function over a fixed point set. Outside
// [XMin, XMax] every implementation extrapolates its edge segment.
type Interpolant interface {
	XMin() float64
	XMax() float64
	Value(x float64) float64
	// Primitive is the integral from XMin to x.
	Primitive(x float64) float64
	Derivative(x float64) float64
	SecondDerivative(x float64) float64
}

// CheckRange reports ErrOutOfRange for x outside the interpolant's domain
// unless extrapolation is allowed.
func CheckRange(ip Interpolant, x float64, allowExtrapolation bool) error {
	if allowExtrapolation {
		return nil
	}
	if x < ip.XMin() || x > ip.XMax() {
		return fmt.Errorf("%w: x (%g) not in [%g, %g]", ErrOutOfRange, x, ip.XMin(), ip.XMax())
	}
	return nil
}

// points is the common state of every interpolant: the abscissas and
// ordinates it was built from.
type points struct {
	xs, ys []float64
}

func newPoints(name string, xs, ys []float64, required int) (points, error) {
	if len(xs) != len(ys) {
		return points{}, fmt.Errorf("%s: %w: %d x values and %d y values", name, ErrInvalidInput, len(xs), len(ys))
	}
	if len(xs) < required {
		return points{}, fmt.Errorf("%s: %w: at least %d points required, %d provided", name, ErrInvalidInput, required, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return points{}, fmt.Errorf("%s: %w: x values not strictly increasing at %d (%g, %g)", name, ErrInvalidInput, i, xs[i-1], xs[i])
		}
	}
	return points{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}, nil
}

func (p points) XMin() float64 { return p.xs[0] }
func (p points) XMax() float64 { return p.xs[len(p.xs)-1] }

// locate returns the segment index i in [0, n-2] with xs[i] <= x < xs[i+1],
// clamped at both ends.
func (p points) locate(x float64) int {
	n := len(p.xs)
	if x < p.xs[0] {
		return 0
	}
	if x >= p.xs[n-1] {
		return n - 2
	}
	return sort.Search(n, func(i int) bool { return p.xs[i] > x }) - 1
}
