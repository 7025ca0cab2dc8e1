package interpolation

import (
	"fmt"
	"math"
	"sort"
)

// ConvexMonotoneParams configures the Hagan-West interpolant.
type ConvexMonotoneParams struct {
	// Quadraticity blends the quadratic section (1) with the convex-monotone
	// section (0).
	Quadraticity float64
	// Monotonicity in [0, 1] controls how far the convex-monotone sections
	// may flatten to preserve monotonicity.
	Monotonicity float64
	// ForcePositive bounds the knot values so the function stays
	// non-negative for non-negative data.
	ForcePositive bool
	// ConstantLastPeriod makes the last section flat at the last y.
	ConstantLastPeriod bool
}

// DefaultConvexMonotoneParams are the Hagan-West defaults.
func DefaultConvexMonotoneParams() ConvexMonotoneParams {
	return ConvexMonotoneParams{Quadraticity: 0.3, Monotonicity: 0.7, ForcePositive: true}
}

// section is the function on (xPrev, xNext]; primitive is the integral from
// the first knot.
type section interface {
	value(x float64) float64
	primitive(x float64) float64
	derivative(x float64) float64
	secondDerivative(x float64) float64
}

// ConvexMonotone is the Hagan-West monotone convex interpolant. ys[i] is the
// average of the function over (xs[i-1], xs[i]]; ys[0] is not used.
type ConvexMonotone struct {
	points
	sections      []section
	extrapolation section
}

// NewConvexMonotone builds the interpolant.
func NewConvexMonotone(xs, ys []float64, p ConvexMonotoneParams) (*ConvexMonotone, error) {
	pts, err := newPoints("NewConvexMonotone", xs, ys, 2)
	if err != nil {
		return nil, err
	}
	if p.Quadraticity < 0 || p.Quadraticity > 1 {
		return nil, fmt.Errorf("NewConvexMonotone: %w: quadraticity %g not in [0, 1]", ErrInvalidInput, p.Quadraticity)
	}
	if p.Monotonicity < 0 || p.Monotonicity > 1 {
		return nil, fmt.Errorf("NewConvexMonotone: %w: monotonicity %g not in [0, 1]", ErrInvalidInput, p.Monotonicity)
	}
	cm := &ConvexMonotone{points: pts}
	cm.build(p)
	return cm, nil
}

func (cm *ConvexMonotone) build(p ConvexMonotoneParams) {
	xs, ys := cm.xs, cm.ys
	n := len(xs)
	if n == 2 {
		single := constantSection{v: ys[1], xPrev: xs[0]}
		cm.sections = []section{single}
		cm.extrapolation = single
		return
	}

	// knot values from the neighbouring averages
	f := make([]float64, n)
	for i := 1; i < n-1; i++ {
		dxPrev := xs[i] - xs[i-1]
		dx := xs[i+1] - xs[i]
		f[i] = dxPrev/(dx+dxPrev)*ys[i] + dx/(dx+dxPrev)*ys[i+1]
	}
	f[0] = 1.5*ys[1] - 0.5*f[1]
	f[n-1] = 1.5*ys[n-1] - 0.5*f[n-2]
	if p.ForcePositive {
		f[0] = bound(f[0], 2*ys[1])
		for i := 1; i < n-1; i++ {
			f[i] = bound(f[i], 2*math.Min(ys[i], ys[i+1]))
		}
		f[n-1] = bound(f[n-1], 2*ys[n-1])
	}

	end := n
	if p.ConstantLastPeriod {
		end = n - 1
	}
	cm.sections = make([]section, 0, n-1)
	prim := 0.0
	for i := 1; i < end; i++ {
		cm.sections = append(cm.sections, newSection(xs[i-1], xs[i], f[i-1], f[i], ys[i], prim, p))
		prim += ys[i] * (xs[i] - xs[i-1])
	}

	if p.ConstantLastPeriod {
		last := constantSection{v: ys[n-1], prim: prim, xPrev: xs[n-2]}
		cm.sections = append(cm.sections, last)
		cm.extrapolation = last
		return
	}
	lastValue := cm.sections[len(cm.sections)-1].value(xs[n-1])
	cm.extrapolation = constantSection{v: lastValue, prim: prim, xPrev: xs[n-1]}
}

// bound limits a knot value to [0, upper].
func bound(v, upper float64) float64 {
	return math.Max(0, math.Min(v, upper))
}

func newSection(xPrev, xNext, fPrev, fNext, avg, prim float64, p ConvexMonotoneParams) section {
	gPrev := fPrev - avg
	gNext := fNext - avg
	if math.Abs(gPrev) < 1e-14 && math.Abs(gNext) < 1e-14 {
		return constantGradSection{fPrev: fPrev, prim: prim, xPrev: xPrev, grad: (fNext - fPrev) / (xNext - xPrev)}
	}

	quadraticity := p.Quadraticity
	var quad, cm section
	if p.Quadraticity > 0 {
		quad = newQuadraticSection(xPrev, xNext, fPrev, fNext, avg, prim)
	}
	if p.Quadraticity < 1 {
		b2 := (1 + p.Monotonicity) / 2
		b3 := (1 - p.Monotonicity) / 2
		base := cmBase{xPrev: xPrev, scale: xNext - xPrev, gPrev: gPrev, gNext: gNext, avg: avg, prim: prim}
		switch {
		case (gPrev > 0 && -0.5*gPrev >= gNext && gNext >= -2*gPrev) ||
			(gPrev < 0 && -0.5*gPrev <= gNext && gNext <= -2*gPrev):
			// region where the quadratic is already monotone
			quadraticity = 1
			if quad == nil {
				quad = newQuadraticSection(xPrev, xNext, fPrev, fNext, avg, prim)
			}
		case (gPrev < 0 && gNext > -2*gPrev) || (gPrev > 0 && gNext < -2*gPrev):
			eta := (gNext + 2*gPrev) / (gNext - gPrev)
			if eta < b2 {
				cm = cm2Section{cmBase: base, eta: eta}
			} else {
				cm = newCM4Section(base, b2)
			}
		case (gPrev > 0 && gNext < 0 && gNext > -0.5*gPrev) || (gPrev < 0 && gNext > 0 && gNext < -0.5*gPrev):
			eta := 3 * gNext / (gNext - gPrev)
			if eta > b3 {
				cm = cm3Section{cmBase: base, eta: eta}
			} else {
				cm = newCM4Section(base, b3)
			}
		default:
			eta := gNext / (gPrev + gNext)
			eta = math.Max(b3, math.Min(eta, b2))
			cm = newCM4Section(base, eta)
		}
	}

	switch quadraticity {
	case 1:
		return quad
	case 0:
		return cm
	}
	return comboSection{quad: quad, cm: cm, q: quadraticity}
}

func (cm *ConvexMonotone) sectionAt(x float64) section {
	if x >= cm.XMax() {
		return cm.extrapolation
	}
	// first section whose right knot exceeds x
	i := sort.Search(len(cm.xs)-1, func(k int) bool { return cm.xs[k+1] > x })
	return cm.sections[i]
}

func (cm *ConvexMonotone) Value(x float64) float64 { return cm.sectionAt(x).value(x) }

func (cm *ConvexMonotone) Primitive(x float64) float64 { return cm.sectionAt(x).primitive(x) }

func (cm *ConvexMonotone) Derivative(x float64) float64 { return cm.sectionAt(x).derivative(x) }

func (cm *ConvexMonotone) SecondDerivative(x float64) float64 {
	return cm.sectionAt(x).secondDerivative(x)
}

type constantSection struct {
	v, prim, xPrev float64
}

func (s constantSection) value(float64) float64            { return s.v }
func (s constantSection) primitive(x float64) float64      { return s.prim + (x-s.xPrev)*s.v }
func (s constantSection) derivative(float64) float64       { return 0 }
func (s constantSection) secondDerivative(float64) float64 { return 0 }

type constantGradSection struct {
	fPrev, prim, xPrev, grad float64
}

func (s constantGradSection) value(x float64) float64 { return s.fPrev + (x-s.xPrev)*s.grad }
func (s constantGradSection) primitive(x float64) float64 {
	dx := x - s.xPrev
	return s.prim + dx*(s.fPrev+0.5*dx*s.grad)
}
func (s constantGradSection) derivative(float64) float64       { return s.grad }
func (s constantGradSection) secondDerivative(float64) float64 { return 0 }

// quadraticSection is a*u^2 + b*u + c in the scaled variable u in [0, 1],
// matching fPrev, fNext and the section average.
type quadraticSection struct {
	xPrev, scale, prim float64
	a, b, c            float64
}

func newQuadraticSection(xPrev, xNext, fPrev, fNext, avg, prim float64) quadraticSection {
	return quadraticSection{
		xPrev: xPrev,
		scale: xNext - xPrev,
		prim:  prim,
		a:     3*fPrev + 3*fNext - 6*avg,
		b:     -(4*fPrev + 2*fNext - 6*avg),
		c:     fPrev,
	}
}

func (s quadraticSection) u(x float64) float64 { return (x - s.xPrev) / s.scale }

func (s quadraticSection) value(x float64) float64 {
	u := s.u(x)
	return s.a*u*u + s.b*u + s.c
}

func (s quadraticSection) primitive(x float64) float64 {
	u := s.u(x)
	return s.prim + s.scale*u*(s.a/3*u*u+s.b/2*u+s.c)
}

func (s quadraticSection) derivative(x float64) float64 {
	return (2*s.a*s.u(x) + s.b) / s.scale
}

func (s quadraticSection) secondDerivative(float64) float64 {
	return 2 * s.a / (s.scale * s.scale)
}

// cmBase carries the data shared by the convex-monotone sections. g is the
// function minus the section average.
type cmBase struct {
	xPrev, scale float64
	gPrev, gNext float64
	avg, prim    float64
}

func (b cmBase) u(x float64) float64 { return (x - b.xPrev) / b.scale }

// cm2Section is flat at gPrev up to eta, then quadratic to gNext.
type cm2Section struct {
	cmBase
	eta float64
}

func (s cm2Section) k() float64 { return (s.gNext - s.gPrev) / ((1 - s.eta) * (1 - s.eta)) }

func (s cm2Section) value(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		return s.avg + s.gPrev
	}
	return s.avg + s.gPrev + s.k()*(u-s.eta)*(u-s.eta)
}

func (s cm2Section) primitive(x float64) float64 {
	u := s.u(x)
	p := s.prim + s.scale*(s.avg+s.gPrev)*u
	if u > s.eta {
		p += s.scale * s.k() / 3 * math.Pow(u-s.eta, 3)
	}
	return p
}

func (s cm2Section) derivative(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		return 0
	}
	return 2 * s.k() * (u - s.eta) / s.scale
}

func (s cm2Section) secondDerivative(x float64) float64 {
	if s.u(x) <= s.eta {
		return 0
	}
	return 2 * s.k() / (s.scale * s.scale)
}

// cm3Section is quadratic from gPrev to gNext at eta, then flat.
type cm3Section struct {
	cmBase
	eta float64
}

func (s cm3Section) k() float64 { return (s.gPrev - s.gNext) / (s.eta * s.eta) }

func (s cm3Section) value(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		return s.avg + s.gNext + s.k()*(s.eta-u)*(s.eta-u)
	}
	return s.avg + s.gNext
}

func (s cm3Section) primitive(x float64) float64 {
	u := s.u(x)
	p := s.prim + s.scale*(s.avg+s.gNext)*u
	if u <= s.eta {
		return p - s.scale*s.k()/3*(math.Pow(s.eta-u, 3)-math.Pow(s.eta, 3))
	}
	return p + s.scale*s.k()/3*math.Pow(s.eta, 3)
}

func (s cm3Section) derivative(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		return -2 * s.k() * (s.eta - u) / s.scale
	}
	return 0
}

func (s cm3Section) secondDerivative(x float64) float64 {
	if s.u(x) <= s.eta {
		return 2 * s.k() / (s.scale * s.scale)
	}
	return 0
}

// cm4Section is two quadratics meeting at eta with value avg + A.
type cm4Section struct {
	cmBase
	eta, A float64
}

func newCM4Section(b cmBase, eta float64) cm4Section {
	return cm4Section{
		cmBase: b,
		eta:    eta,
		A:      -0.5 * (eta*b.gPrev + (1-eta)*b.gNext),
	}
}

func (s cm4Section) value(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		// eta > 0 here unless u <= 0
		if s.eta == 0 {
			return s.avg + s.gPrev
		}
		return s.avg + s.A + (s.gPrev-s.A)*(s.eta-u)*(s.eta-u)/(s.eta*s.eta)
	}
	if s.eta == 1 {
		return s.avg + s.gNext
	}
	return s.avg + s.A + (s.gNext-s.A)*(u-s.eta)*(u-s.eta)/((1-s.eta)*(1-s.eta))
}

func (s cm4Section) primitive(x float64) float64 {
	u := s.u(x)
	p := s.prim + s.scale*(s.avg+s.A)*u
	if u <= s.eta {
		if s.eta == 0 {
			return s.prim + s.scale*(s.avg+s.gPrev)*u
		}
		return p - s.scale*(s.gPrev-s.A)/(3*s.eta*s.eta)*(math.Pow(s.eta-u, 3)-math.Pow(s.eta, 3))
	}
	// left piece integrates to (gPrev-A)*eta/3
	p += s.scale * (s.gPrev - s.A) * s.eta / 3
	if s.eta == 1 {
		return p + s.scale*(s.gNext-s.A)*(u-1)
	}
	return p + s.scale*(s.gNext-s.A)/(3*(1-s.eta)*(1-s.eta))*math.Pow(u-s.eta, 3)
}

func (s cm4Section) derivative(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		if s.eta == 0 {
			return 0
		}
		return -2 * (s.gPrev - s.A) * (s.eta - u) / (s.eta * s.eta * s.scale)
	}
	if s.eta == 1 {
		return 0
	}
	return 2 * (s.gNext - s.A) * (u - s.eta) / ((1 - s.eta) * (1 - s.eta) * s.scale)
}

func (s cm4Section) secondDerivative(x float64) float64 {
	u := s.u(x)
	if u <= s.eta {
		if s.eta == 0 {
			return 0
		}
		return 2 * (s.gPrev - s.A) / (s.eta * s.eta * s.scale * s.scale)
	}
	if s.eta == 1 {
		return 0
	}
	return 2 * (s.gNext - s.A) / ((1 - s.eta) * (1 - s.eta) * s.scale * s.scale)
}

// comboSection blends the quadratic and convex-monotone sections.
type comboSection struct {
	quad, cm section
	q        float64
}

func (s comboSection) value(x float64) float64 {
	return s.q*s.quad.value(x) + (1-s.q)*s.cm.value(x)
}

func (s comboSection) primitive(x float64) float64 {
	return s.q*s.quad.primitive(x) + (1-s.q)*s.cm.primitive(x)
}

func (s comboSection) derivative(x float64) float64 {
	return s.q*s.quad.derivative(x) + (1-s.q)*s.cm.derivative(x)
}

func (s comboSection) secondDerivative(x float64) float64 {
	return s.q*s.quad.secondDerivative(x) + (1-s.q)*s.cm.secondDerivative(x)
}
