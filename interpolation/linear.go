package interpolation

import (
	"fmt"
	"math"
)

type linear struct {
	points
	s         []float64
	primConst []float64
}

// NewLinear builds a piecewise-linear interpolant.
func NewLinear(xs, ys []float64) (Interpolant, error) {
	p, err := newPoints("NewLinear", xs, ys, 2)
	if err != nil {
		return nil, err
	}
	n := len(p.xs)
	l := &linear{points: p, s: make([]float64, n-1), primConst: make([]float64, n)}
	for i := 0; i < n-1; i++ {
		dx := p.xs[i+1] - p.xs[i]
		l.s[i] = (p.ys[i+1] - p.ys[i]) / dx
		l.primConst[i+1] = l.primConst[i] + dx*(p.ys[i]+0.5*dx*l.s[i])
	}
	return l, nil
}

func (l *linear) Value(x float64) float64 {
	i := l.locate(x)
	return l.ys[i] + (x-l.xs[i])*l.s[i]
}

func (l *linear) Primitive(x float64) float64 {
	i := l.locate(x)
	dx := x - l.xs[i]
	return l.primConst[i] + dx*(l.ys[i]+0.5*dx*l.s[i])
}

func (l *linear) Derivative(x float64) float64 {
	return l.s[l.locate(x)]
}

func (l *linear) SecondDerivative(float64) float64 { return 0 }

// logLinear is linear in log(y); y must be positive.
type logLinear struct {
	points
	logs      []float64
	s         []float64
	primConst []float64
}

// NewLogLinear builds an interpolant that is linear in log(y).
func NewLogLinear(xs, ys []float64) (Interpolant, error) {
	p, err := newPoints("NewLogLinear", xs, ys, 2)
	if err != nil {
		return nil, err
	}
	n := len(p.xs)
	l := &logLinear{points: p, logs: make([]float64, n), s: make([]float64, n-1), primConst: make([]float64, n)}
	for i, y := range p.ys {
		if !(y > 0) {
			return nil, fmt.Errorf("NewLogLinear: %w: non-positive y (%g) at %d", ErrInvalidInput, y, i)
		}
		l.logs[i] = math.Log(y)
	}
	for i := 0; i < n-1; i++ {
		dx := p.xs[i+1] - p.xs[i]
		l.s[i] = (l.logs[i+1] - l.logs[i]) / dx
		l.primConst[i+1] = l.primConst[i] + l.segmentIntegral(i, dx)
	}
	return l, nil
}

// segmentIntegral integrates exp(logs[i] + s*u) for u in [0, dx].
func (l *logLinear) segmentIntegral(i int, dx float64) float64 {
	if math.Abs(l.s[i]*dx) < 1e-10 {
		return l.ys[i] * dx * (1 + 0.5*l.s[i]*dx)
	}
	return l.ys[i] * math.Expm1(l.s[i]*dx) / l.s[i]
}

func (l *logLinear) Value(x float64) float64 {
	i := l.locate(x)
	return math.Exp(l.logs[i] + (x-l.xs[i])*l.s[i])
}

func (l *logLinear) Primitive(x float64) float64 {
	i := l.locate(x)
	return l.primConst[i] + l.segmentIntegral(i, x-l.xs[i])
}

func (l *logLinear) Derivative(x float64) float64 {
	return l.s[l.locate(x)] * l.Value(x)
}

func (l *logLinear) SecondDerivative(x float64) float64 {
	s := l.s[l.locate(x)]
	return s * s * l.Value(x)
}

// backwardFlat takes ys[i+1] on (xs[i], xs[i+1]].
type backwardFlat struct {
	points
	primConst []float64
}

// NewBackwardFlat builds a step function continuous from the left.
func NewBackwardFlat(xs, ys []float64) (Interpolant, error) {
	p, err := newPoints("NewBackwardFlat", xs, ys, 2)
	if err != nil {
		return nil, err
	}
	b := &backwardFlat{points: p, primConst: make([]float64, len(p.xs))}
	for i := 1; i < len(p.xs); i++ {
		b.primConst[i] = b.primConst[i-1] + (p.xs[i]-p.xs[i-1])*p.ys[i]
	}
	return b, nil
}

func (b *backwardFlat) Value(x float64) float64 {
	if x <= b.xs[0] {
		return b.ys[0]
	}
	i := b.locate(x)
	if x == b.xs[i] {
		return b.ys[i]
	}
	return b.ys[i+1]
}

func (b *backwardFlat) Primitive(x float64) float64 {
	i := b.locate(x)
	return b.primConst[i] + (x-b.xs[i])*b.ys[i+1]
}

func (b *backwardFlat) Derivative(float64) float64       { return 0 }
func (b *backwardFlat) SecondDerivative(float64) float64 { return 0 }

// forwardFlat takes ys[i] on [xs[i], xs[i+1]).
type forwardFlat struct {
	points
	primConst []float64
}

// NewForwardFlat builds a step function continuous from the right.
func NewForwardFlat(xs, ys []float64) (Interpolant, error) {
	p, err := newPoints("NewForwardFlat", xs, ys, 2)
	if err != nil {
		return nil, err
	}
	f := &forwardFlat{points: p, primConst: make([]float64, len(p.xs))}
	for i := 1; i < len(p.xs); i++ {
		f.primConst[i] = f.primConst[i-1] + (p.xs[i]-p.xs[i-1])*p.ys[i-1]
	}
	return f, nil
}

func (f *forwardFlat) Value(x float64) float64 {
	if x >= f.XMax() {
		return f.ys[len(f.ys)-1]
	}
	return f.ys[f.locate(x)]
}

func (f *forwardFlat) Primitive(x float64) float64 {
	i := f.locate(x)
	if x >= f.XMax() {
		return f.primConst[len(f.xs)-1] + (x-f.XMax())*f.ys[len(f.ys)-1]
	}
	return f.primConst[i] + (x-f.xs[i])*f.ys[i]
}

func (f *forwardFlat) Derivative(float64) float64       { return 0 }
func (f *forwardFlat) SecondDerivative(float64) float64 { return 0 }
