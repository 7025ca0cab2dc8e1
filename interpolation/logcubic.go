package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// quadraturePoints is the Gauss-Legendre order used per sub-interval for
// primitives that have no closed form.
const quadraturePoints = 16

// integral is a Gauss-Legendre estimate of the integral of f over [a, b],
// applied on consecutive sub-intervals of width at most step starting at a;
// a may exceed b.
func integral(f func(float64) float64, a, b, step float64) float64 {
	if a > b {
		return -integral(f, b, a, step)
	}
	if !(step > 0) {
		step = b - a
	}
	var total float64
	for lo := a; lo < b; lo += step {
		hi := math.Min(lo+step, b)
		total += quad.Fixed(f, lo, hi, quadraturePoints, nil, 0)
	}
	return total
}

// logCubic is a cubic in log(y).
type logCubic struct {
	*Cubic
	primConst []float64
}

// NewLogCubic builds exp(cubic(log y)); y must be positive.
func NewLogCubic(xs, ys []float64, p CubicParams) (Interpolant, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("NewLogCubic: %w: %d x values and %d y values", ErrInvalidInput, len(xs), len(ys))
	}
	logs := make([]float64, len(ys))
	for i, y := range ys {
		if !(y > 0) {
			return nil, fmt.Errorf("NewLogCubic: %w: non-positive y (%g) at %d", ErrInvalidInput, y, i)
		}
		logs[i] = math.Log(y)
	}
	c, err := NewCubic(xs, logs, p)
	if err != nil {
		return nil, err
	}
	l := &logCubic{Cubic: c, primConst: make([]float64, len(xs))}
	for i := 1; i < len(xs); i++ {
		l.primConst[i] = l.primConst[i-1] + integral(l.Value, xs[i-1], xs[i], l.step(i-1))
	}
	return l, nil
}

func (l *logCubic) Value(x float64) float64 {
	return math.Exp(l.Cubic.Value(x))
}

func (l *logCubic) Primitive(x float64) float64 {
	j := l.locate(x)
	return l.primConst[j] + integral(l.Value, l.xs[j], x, l.step(j))
}

// step splits segment j in four for the quadrature.
func (l *logCubic) step(j int) float64 {
	return (l.xs[j+1] - l.xs[j]) / 4
}

func (l *logCubic) Derivative(x float64) float64 {
	return l.Value(x) * l.Cubic.Derivative(x)
}

func (l *logCubic) SecondDerivative(x float64) float64 {
	d := l.Cubic.Derivative(x)
	return l.Value(x) * (l.Cubic.SecondDerivative(x) + d*d)
}
