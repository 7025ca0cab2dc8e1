package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KernelParams configures Gaussian kernel interpolation.
type KernelParams struct {
	// Sigma is the kernel width; zero means 1.
	Sigma float64
	// Tolerance bounds the residual of the weight solve; zero means 1e-7.
	Tolerance float64
}

const defaultKernelTolerance = 1e-7

// Kernel interpolates with normalised Gaussian radial basis functions:
// value(x) = sum_i alpha_i K(x-x_i) / sum_i K(x-x_i).
type Kernel struct {
	points
	sigma     float64
	alpha     []float64
	primConst []float64
}

// NewKernel solves for the kernel weights. x must be non-decreasing;
// duplicate or nearly coincident abscissas make the system singular and
// fail with ErrKernelInversion.
func NewKernel(xs, ys []float64, p KernelParams) (*Kernel, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("NewKernel: %w: %d x values and %d y values", ErrInvalidInput, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("NewKernel: %w: at least 2 points required, %d provided", ErrInvalidInput, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return nil, fmt.Errorf("NewKernel: %w: x values decreasing at %d (%g, %g)", ErrInvalidInput, i, xs[i-1], xs[i])
		}
	}
	sigma := p.Sigma
	if sigma == 0 {
		sigma = 1
	}
	if sigma < 0 {
		return nil, fmt.Errorf("NewKernel: %w: negative sigma %g", ErrInvalidInput, sigma)
	}
	tol := p.Tolerance
	if tol == 0 {
		tol = defaultKernelTolerance
	}

	k := &Kernel{
		points: points{xs: append([]float64(nil), xs...), ys: append([]float64(nil), ys...)},
		sigma:  sigma,
	}
	n := len(xs)
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		g := k.gamma(xs[i])
		for j := 0; j < n; j++ {
			m.Set(i, j, k.kernel(xs[i]-xs[j])/g)
		}
	}
	y := mat.NewVecDense(n, k.ys)
	alpha := mat.NewVecDense(n, nil)
	if err := alpha.SolveVec(m, y); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("NewKernel: %w: %v", ErrKernelInversion, err)
		}
		// ill-conditioned but solved; the residual check decides
	}

	var residual mat.VecDense
	residual.MulVec(m, alpha)
	for i := 0; i < n; i++ {
		r := math.Abs(residual.AtVec(i) - k.ys[i])
		if !(r < tol) {
			return nil, fmt.Errorf("NewKernel: %w: residual %g at %d exceeds %g", ErrKernelInversion, r, i, tol)
		}
	}
	k.alpha = make([]float64, n)
	for i := range k.alpha {
		k.alpha[i] = alpha.AtVec(i)
	}

	k.primConst = make([]float64, n)
	for i := 1; i < n; i++ {
		k.primConst[i] = k.primConst[i-1] + integral(k.Value, xs[i-1], xs[i], k.sigma/2)
	}
	return k, nil
}

func (k *Kernel) kernel(u float64) float64 {
	return math.Exp(-u*u/(2*k.sigma*k.sigma)) / (k.sigma * math.Sqrt(2*math.Pi))
}

func (k *Kernel) gamma(x float64) float64 {
	var g float64
	for _, xi := range k.xs {
		g += k.kernel(x - xi)
	}
	return g
}

// sums returns N, G and their first two derivatives at x, where
// N = sum alpha_i K(x-x_i) and G = sum K(x-x_i).
func (k *Kernel) sums(x float64) (n, n1, n2, g, g1, g2 float64) {
	s2 := k.sigma * k.sigma
	for i, xi := range k.xs {
		u := x - xi
		kv := k.kernel(u)
		d1 := -u / s2 * kv
		d2 := (u*u/(s2*s2) - 1/s2) * kv
		n += k.alpha[i] * kv
		n1 += k.alpha[i] * d1
		n2 += k.alpha[i] * d2
		g += kv
		g1 += d1
		g2 += d2
	}
	return
}

func (k *Kernel) Value(x float64) float64 {
	var num, den float64
	for i, xi := range k.xs {
		kv := k.kernel(x - xi)
		num += k.alpha[i] * kv
		den += kv
	}
	return num / den
}

func (k *Kernel) Primitive(x float64) float64 {
	j := k.locate(x)
	return k.primConst[j] + integral(k.Value, k.xs[j], x, k.sigma/2)
}

func (k *Kernel) Derivative(x float64) float64 {
	n, n1, _, g, g1, _ := k.sums(x)
	return (n1*g - n*g1) / (g * g)
}

func (k *Kernel) SecondDerivative(x float64) float64 {
	n, n1, n2, g, g1, g2 := k.sums(x)
	return (n2*g-n*g2)/(g*g) - 2*g1*(n1*g-n*g1)/(g*g*g)
}

// Weights returns the solved alpha coefficients.
func (k *Kernel) Weights() []float64 {
	return append([]float64(nil), k.alpha...)
}
