package curve

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// GlobalBootstrap solves all pillars at once: the quote errors of every
// helper are driven to zero by Levenberg-Marquardt, with a BFGS minimisation
// of the squared errors as fallback. It suits interpolations where each
// pillar moves the whole curve.
type GlobalBootstrap struct {
	// MaxIterations bounds the Levenberg-Marquardt steps. Zero means 50.
	MaxIterations int
	// Tolerance is the largest accepted quote error. Zero uses the curve's
	// configured accuracy.
	Tolerance float64
}

const (
	penalty      = 1e10
	jacobianStep = 1e-6
	maxLambda    = 1e12
)

func (b GlobalBootstrap) bootstrap(c *Curve) (int, error) {
	helpers, err := c.initialize()
	if err != nil {
		return 0, err
	}
	n := len(helpers)
	if n == 0 {
		c.interp = nil
		return 0, nil
	}
	maxIter := b.MaxIterations
	if maxIter == 0 {
		maxIter = 50
	}
	tol := b.Tolerance
	if tol == 0 {
		tol = c.cfg.Accuracy
	}

	warm := c.validCurve
	if !warm {
		// start from the sequential guesses of the traits
		for i := 1; i <= n; i++ {
			lo := c.traits.minValueAfter(i, c, false)
			hi := c.traits.maxValueAfter(i, c, false)
			g := c.traits.guess(i, c, false)
			if g >= hi {
				g = hi - (hi-lo)/5
			} else if g <= lo {
				g = lo + (hi-lo)/5
			}
			c.traits.updateGuess(c.data, g, i)
		}
	}

	quotes := make([]float64, n)
	for i, h := range helpers {
		quotes[i] = h.Quote().Value()
	}
	residuals := func(r, x []float64) {
		c.evaluations++
		for i, v := range x {
			c.traits.updateGuess(c.data, v, i+1)
		}
		if err := c.rebuild(c.strategy, n+1); err != nil {
			for i := range r {
				r[i] = penalty
			}
			return
		}
		for i, h := range helpers {
			implied, err := h.ImpliedQuote()
			if err != nil || math.IsNaN(implied) {
				r[i] = penalty
				continue
			}
			r[i] = quotes[i] - implied
		}
	}

	x := append([]float64(nil), c.data[1:]...)
	r := make([]float64, n)
	residuals(r, x)
	iterations, x := levenbergMarquardt(residuals, x, r, tol, maxIter)
	residuals(r, x)
	worst := maxAbs(r)

	if worst > tol {
		c.logger.Warn("least squares did not converge, trying BFGS",
			zap.Int("iterations", iterations), zap.Float64("error", worst))
		x = minimizeSquares(residuals, x, n)
		residuals(r, x)
		worst = maxAbs(r)
	}
	if worst > tol && warm {
		c.logger.Warn("warm start failed, restarting from scratch", zap.Float64("error", worst))
		c.validCurve = false
		c.resetData()
		return b.bootstrap(c)
	}
	if worst > tol {
		k := floats.MaxIdx(absAll(r))
		return iterations, &BootstrapError{
			Pass:       iterations,
			Instrument: k,
			PillarDate: c.dates[k+1],
			Achieved:   worst,
			Target:     tol,
			Err:        fmt.Errorf("global bootstrap: quote error %.3e", worst),
		}
	}
	return iterations, nil
}

// levenbergMarquardt drives f to zero from x. r holds f(x) on entry.
func levenbergMarquardt(f func(r, x []float64), x, r []float64, tol float64, maxIter int) (int, []float64) {
	n := len(x)
	jac := mat.NewDense(n, n, nil)
	trial := make([]float64, n)
	rTrial := make([]float64, n)
	cost := floats.Dot(r, r)
	lambda := 1e-3

	iter := 0
	for ; iter < maxIter; iter++ {
		if maxAbs(r) <= tol {
			return iter, x
		}
		fd.Jacobian(jac, f, x, &fd.JacobianSettings{Formula: fd.Central, Step: jacobianStep})
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), mat.NewVecDense(n, r))

		accepted := false
		for lambda <= maxLambda {
			a := mat.DenseCopyOf(&jtj)
			for k := 0; k < n; k++ {
				d := jtj.At(k, k)
				if d == 0 {
					d = 1
				}
				a.Set(k, k, jtj.At(k, k)+lambda*d)
			}
			var dx mat.VecDense
			if err := dx.SolveVec(a, &jtr); err != nil {
				var cond mat.Condition
				if !errors.As(err, &cond) {
					lambda *= 10
					continue
				}
			}
			for k := range trial {
				trial[k] = x[k] - dx.AtVec(k)
			}
			f(rTrial, trial)
			if c := floats.Dot(rTrial, rTrial); c < cost {
				copy(x, trial)
				copy(r, rTrial)
				cost = c
				lambda = math.Max(lambda/10, 1e-12)
				accepted = true
				break
			}
			lambda *= 10
		}
		if !accepted {
			break
		}
	}
	return iter, x
}

// minimizeSquares minimises the scaled sum of squared residuals with BFGS.
func minimizeSquares(f func(r, x []float64), x []float64, n int) []float64 {
	r := make([]float64, n)
	obj := func(x []float64) float64 {
		f(r, x)
		s := 0.0
		for _, v := range r {
			s += (1e4 * v) * (1e4 * v)
		}
		return s
	}
	p := optimize.Problem{
		Func: obj,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, obj, x, &fd.Settings{Formula: fd.Central, Step: 1e-8})
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{Absolute: 1e-30, Iterations: 20},
	}
	res, err := optimize.Minimize(p, x, settings, &optimize.BFGS{})
	if res == nil || (err != nil && len(res.X) != len(x)) {
		return x
	}
	return res.X
}

func maxAbs(r []float64) float64 {
	m := 0.0
	for _, v := range r {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func absAll(r []float64) []float64 {
	a := make([]float64, len(r))
	for i, v := range r {
		a[i] = math.Abs(v)
	}
	return a
}
