package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DerivativeApprox selects how first derivatives at the knots are estimated.
type DerivativeApprox int

const (
	// Spline solves the tri-diagonal C2 system.
	Spline DerivativeApprox = iota
	// SplineOM1 and SplineOM2 are the Hagan out-of-market-data splines.
	SplineOM1
	SplineOM2
	FourthOrder
	// Parabolic fits a parabola through each knot and its neighbours.
	Parabolic
	FritschButland
	Akima
	// Kruger uses the harmonic mean of adjacent secants, zero at extrema.
	Kruger
	// Harmonic is the dx-weighted harmonic mean of adjacent secants.
	Harmonic
)

var derivativeApproxNames = []string{
	"spline", "splineom1", "splineom2", "fourthorder", "parabolic",
	"fritschbutland", "akima", "kruger", "harmonic",
}

func (d DerivativeApprox) String() string {
	if int(d) >= 0 && int(d) < len(derivativeApproxNames) {
		return derivativeApproxNames[d]
	}
	return fmt.Sprintf("DerivativeApprox(%d)", int(d))
}

// ParseDerivativeApprox is the inverse of DerivativeApprox.String.
func ParseDerivativeApprox(name string) (DerivativeApprox, error) {
	norm := normalize(name)
	for i, s := range derivativeApproxNames {
		if s == norm {
			return DerivativeApprox(i), nil
		}
	}
	return 0, fmt.Errorf("ParseDerivativeApprox: unknown scheme %q", name)
}

// BoundaryCondition applies to one end of a cubic.
type BoundaryCondition int

const (
	// NotAKnot makes the third derivative continuous at the second (or
	// second to last) knot.
	NotAKnot BoundaryCondition = iota
	// FirstDerivative pins the end derivative to the supplied value.
	FirstDerivative
	// SecondDerivative pins the end second derivative; zero gives the natural spline.
	SecondDerivative
	Periodic
	Lagrange
)

var boundaryNames = []string{"notaknot", "firstderivative", "secondderivative", "periodic", "lagrange"}

func (b BoundaryCondition) String() string {
	if int(b) >= 0 && int(b) < len(boundaryNames) {
		return boundaryNames[b]
	}
	return fmt.Sprintf("BoundaryCondition(%d)", int(b))
}

// ParseBoundaryCondition is the inverse of BoundaryCondition.String.
func ParseBoundaryCondition(name string) (BoundaryCondition, error) {
	norm := normalize(name)
	for i, s := range boundaryNames {
		if s == norm {
			return BoundaryCondition(i), nil
		}
	}
	return 0, fmt.Errorf("ParseBoundaryCondition: unknown condition %q", name)
}

// CubicParams configures a cubic interpolant. The zero value is a
// not-a-knot spline without monotonicity filtering.
type CubicParams struct {
	DerivativeApprox DerivativeApprox
	Monotonic        bool
	LeftCondition    BoundaryCondition
	LeftValue        float64
	RightCondition   BoundaryCondition
	RightValue       float64
}

// Cubic is a piecewise cubic. On segment i, with dx = x - xs[i],
// value = ys[i] + a[i]*dx + b[i]*dx^2 + c[i]*dx^3.
type Cubic struct {
	points
	a, b, c         []float64
	primConst       []float64
	monotonicAdjust []bool
}

// NewCubic builds a cubic interpolant.
func NewCubic(xs, ys []float64, p CubicParams) (*Cubic, error) {
	pts, err := newPoints("NewCubic", xs, ys, 2)
	if err != nil {
		return nil, err
	}
	switch p.DerivativeApprox {
	case SplineOM1, SplineOM2, FourthOrder:
		return nil, fmt.Errorf("NewCubic: %w: %s derivative approximation", ErrNotImplemented, p.DerivativeApprox)
	}
	for _, bc := range []BoundaryCondition{p.LeftCondition, p.RightCondition} {
		if bc == Periodic || bc == Lagrange {
			return nil, fmt.Errorf("NewCubic: %w: %s boundary condition", ErrNotImplemented, bc)
		}
	}

	n := len(pts.xs)
	dx := make([]float64, n-1)
	S := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx[i] = pts.xs[i+1] - pts.xs[i]
		S[i] = (pts.ys[i+1] - pts.ys[i]) / dx[i]
	}

	tmp, err := derivatives(dx, S, p)
	if err != nil {
		return nil, err
	}

	c := &Cubic{points: pts}
	if p.Monotonic {
		c.monotonicAdjust = hyman(dx, S, tmp)
	} else {
		c.monotonicAdjust = make([]bool, n)
	}
	c.setCoefficients(dx, S, tmp)
	return c, nil
}

// derivatives estimates the first derivative at every knot.
func derivatives(dx, S []float64, p CubicParams) ([]float64, error) {
	n := len(dx) + 1
	tmp := make([]float64, n)
	if n == 2 {
		if p.DerivativeApprox == Spline && p.LeftCondition != NotAKnot && p.RightCondition != NotAKnot {
			return splineDerivatives(dx, S, p)
		}
		tmp[0], tmp[1] = S[0], S[0]
		return tmp, nil
	}

	switch p.DerivativeApprox {
	case Spline:
		if n == 3 && p.LeftCondition == NotAKnot && p.RightCondition == NotAKnot {
			// not-a-knot at both ends of three points is the parabola through them
			parabolic(dx, S, tmp)
			return tmp, nil
		}
		return splineDerivatives(dx, S, p)
	case Parabolic:
		parabolic(dx, S, tmp)
	case FritschButland:
		for i := 1; i < n-1; i++ {
			smin := math.Min(S[i-1], S[i])
			smax := math.Max(S[i-1], S[i])
			if smin*smax <= 0 {
				tmp[i] = 0
			} else {
				tmp[i] = 3 * smin * smax / (smax + 2*smin)
			}
		}
		parabolicEnds(dx, S, tmp)
	case Akima:
		akima(S, tmp)
	case Kruger:
		for i := 1; i < n-1; i++ {
			if S[i-1]*S[i] <= 0 {
				tmp[i] = 0
			} else {
				tmp[i] = 2 / (1/S[i-1] + 1/S[i])
			}
		}
		tmp[0] = (3*S[0] - tmp[1]) / 2
		tmp[n-1] = (3*S[n-2] - tmp[n-2]) / 2
	case Harmonic:
		for i := 1; i < n-1; i++ {
			w1 := 2*dx[i] + dx[i-1]
			w2 := dx[i] + 2*dx[i-1]
			if S[i-1]*S[i] <= 0 {
				tmp[i] = 0
			} else {
				tmp[i] = (w1 + w2) / (w1/S[i-1] + w2/S[i])
			}
		}
		parabolicEnds(dx, S, tmp)
		if tmp[0]*S[0] < 0 {
			tmp[0] = 0
		} else if S[0]*S[1] < 0 && math.Abs(tmp[0]) > math.Abs(3*S[0]) {
			tmp[0] = 3 * S[0]
		}
		if tmp[n-1]*S[n-2] < 0 {
			tmp[n-1] = 0
		} else if S[n-2]*S[n-3] < 0 && math.Abs(tmp[n-1]) > math.Abs(3*S[n-2]) {
			tmp[n-1] = 3 * S[n-2]
		}
	default:
		return nil, fmt.Errorf("NewCubic: %w: %s derivative approximation", ErrNotImplemented, p.DerivativeApprox)
	}
	return tmp, nil
}

// splineDerivatives solves the C2 system for the knot derivatives. dl, d
// and du are the sub-, main and super-diagonals.
func splineDerivatives(dx, S []float64, p CubicParams) ([]float64, error) {
	n := len(dx) + 1
	dl := make([]float64, n-1)
	d := make([]float64, n)
	du := make([]float64, n-1)
	rhs := make([]float64, n)
	for i := 1; i < n-1; i++ {
		dl[i-1], d[i], du[i] = dx[i], 2*(dx[i]+dx[i-1]), dx[i-1]
		rhs[i] = 3 * (dx[i]*S[i-1] + dx[i-1]*S[i])
	}

	switch p.LeftCondition {
	case NotAKnot:
		d[0], du[0] = dx[1]*(dx[1]+dx[0]), (dx[0]+dx[1])*(dx[0]+dx[1])
		rhs[0] = S[0]*dx[1]*(2*dx[1]+3*dx[0]) + S[1]*dx[0]*dx[0]
	case FirstDerivative:
		d[0], du[0] = 1, 0
		rhs[0] = p.LeftValue
	case SecondDerivative:
		d[0], du[0] = 2, 1
		rhs[0] = 3*S[0] - p.LeftValue*dx[0]/2
	}

	switch p.RightCondition {
	case NotAKnot:
		dl[n-2], d[n-1] = -(dx[n-2]+dx[n-3])*(dx[n-2]+dx[n-3]), -dx[n-3]*(dx[n-3]+dx[n-2])
		rhs[n-1] = -S[n-3]*dx[n-2]*dx[n-2] - S[n-2]*dx[n-3]*(3*dx[n-2]+2*dx[n-3])
	case FirstDerivative:
		dl[n-2], d[n-1] = 0, 1
		rhs[n-1] = p.RightValue
	case SecondDerivative:
		dl[n-2], d[n-1] = 1, 2
		rhs[n-1] = 3*S[n-2] + p.RightValue*dx[n-2]/2
	}

	var sol mat.VecDense
	if err := mat.NewTridiag(n, dl, d, du).SolveVecTo(&sol, false, mat.NewVecDense(n, rhs)); err != nil {
		return nil, fmt.Errorf("NewCubic: %w: singular spline system: %v", ErrInvalidInput, err)
	}
	tmp := make([]float64, n)
	for i := range tmp {
		tmp[i] = sol.AtVec(i)
	}
	return tmp, nil
}

func parabolic(dx, S, tmp []float64) {
	n := len(tmp)
	for i := 1; i < n-1; i++ {
		tmp[i] = (dx[i-1]*S[i] + dx[i]*S[i-1]) / (dx[i] + dx[i-1])
	}
	parabolicEnds(dx, S, tmp)
}

func parabolicEnds(dx, S, tmp []float64) {
	n := len(tmp)
	tmp[0] = ((2*dx[0]+dx[1])*S[0] - dx[0]*S[1]) / (dx[0] + dx[1])
	tmp[n-1] = ((2*dx[n-2]+dx[n-3])*S[n-2] - dx[n-2]*S[n-3]) / (dx[n-2] + dx[n-3])
}

// akima uses secants extended by two linear extrapolations at each end.
func akima(S, tmp []float64) {
	n := len(tmp)
	m := make([]float64, n+3)
	copy(m[2:], S)
	m[1] = 2*m[2] - m[3]
	m[0] = 2*m[1] - m[2]
	m[n+1] = 2*m[n] - m[n-1]
	m[n+2] = 2*m[n+1] - m[n]
	for i := 0; i < n; i++ {
		// knot i sits between m[i+1] and m[i+2]
		w1 := math.Abs(m[i+3] - m[i+2])
		w2 := math.Abs(m[i+1] - m[i])
		if w1+w2 == 0 {
			tmp[i] = (m[i+1] + m[i+2]) / 2
		} else {
			tmp[i] = (w1*m[i+1] + w2*m[i+2]) / (w1 + w2)
		}
	}
}

func (c *Cubic) setCoefficients(dx, S, tmp []float64) {
	n := len(c.xs)
	c.a = make([]float64, n-1)
	c.b = make([]float64, n-1)
	c.c = make([]float64, n-1)
	c.primConst = make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		c.a[i] = tmp[i]
		c.b[i] = (3*S[i] - tmp[i+1] - 2*tmp[i]) / dx[i]
		c.c[i] = (tmp[i+1] + tmp[i] - 2*S[i]) / (dx[i] * dx[i])
	}
	for i := 1; i < n-1; i++ {
		h := dx[i-1]
		c.primConst[i] = c.primConst[i-1] + h*(c.ys[i-1]+h*(c.a[i-1]/2+h*(c.b[i-1]/3+h*c.c[i-1]/4)))
	}
}

func (c *Cubic) Value(x float64) float64 {
	j := c.locate(x)
	dx := x - c.xs[j]
	return c.ys[j] + dx*(c.a[j]+dx*(c.b[j]+dx*c.c[j]))
}

func (c *Cubic) Primitive(x float64) float64 {
	j := c.locate(x)
	dx := x - c.xs[j]
	return c.primConst[j] + dx*(c.ys[j]+dx*(c.a[j]/2+dx*(c.b[j]/3+dx*c.c[j]/4)))
}

func (c *Cubic) Derivative(x float64) float64 {
	j := c.locate(x)
	dx := x - c.xs[j]
	return c.a[j] + (2*c.b[j]+3*c.c[j]*dx)*dx
}

func (c *Cubic) SecondDerivative(x float64) float64 {
	j := c.locate(x)
	dx := x - c.xs[j]
	return 2*c.b[j] + 6*c.c[j]*dx
}

// Coefficients returns copies of the per-segment a, b and c arrays.
func (c *Cubic) Coefficients() (a, b, cc []float64) {
	return append([]float64(nil), c.a...), append([]float64(nil), c.b...), append([]float64(nil), c.c...)
}

// MonotonicityAdjustments reports, per knot, whether the Hyman filter
// changed the derivative there.
func (c *Cubic) MonotonicityAdjustments() []bool {
	return append([]bool(nil), c.monotonicAdjust...)
}
