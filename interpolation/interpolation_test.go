package interpolation_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/termstructure/interpolation"
)

var (
	knotXs = []float64{0.0, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0, 7.0, 10.0}
	knotYs = []float64{0.0300, 0.0310, 0.0322, 0.0335, 0.0351, 0.0360, 0.0372, 0.0380, 0.0391}
)

func strategies() map[string]interpolation.Strategy {
	return map[string]interpolation.Strategy{
		"linear":         interpolation.Linear(),
		"loglinear":      interpolation.LogLinear(),
		"backwardflat":   interpolation.BackwardFlat(),
		"forwardflat":    interpolation.ForwardFlat(),
		"natural":        interpolation.NaturalCubic(),
		"monotonic":      interpolation.MonotonicCubic(),
		"notaknot":       interpolation.CubicWith(interpolation.CubicParams{}),
		"parabolic":      interpolation.CubicWith(interpolation.CubicParams{DerivativeApprox: interpolation.Parabolic}),
		"fritschbutland": interpolation.CubicWith(interpolation.CubicParams{DerivativeApprox: interpolation.FritschButland}),
		"akima":          interpolation.CubicWith(interpolation.CubicParams{DerivativeApprox: interpolation.Akima}),
		"kruger":         interpolation.CubicWith(interpolation.CubicParams{DerivativeApprox: interpolation.Kruger}),
		"harmonic":       interpolation.CubicWith(interpolation.CubicParams{DerivativeApprox: interpolation.Harmonic}),
		"logcubic":       interpolation.LogCubicWith(interpolation.CubicParams{LeftCondition: interpolation.SecondDerivative, RightCondition: interpolation.SecondDerivative}),
		"kernel":         interpolation.KernelWith(interpolation.KernelParams{Sigma: 0.5}),
		"convexmonotone": interpolation.ConvexMonotoneWith(interpolation.DefaultConvexMonotoneParams()),
	}
}

func TestQuadraticReproducedByNotAKnotSpline(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	ys := []float64{1, 4, 9, 16}
	c, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{})
	require.NoError(t, err)
	assert.InDelta(t, 6.25, c.Value(2.5), 1e-12)
	assert.InDelta(t, 5.0, c.Derivative(2.5), 1e-12)
	assert.InDelta(t, 2.0, c.SecondDerivative(2.5), 1e-12)
	// integral of x^2 from 1 to 2.5
	assert.InDelta(t, (2.5*2.5*2.5-1)/3, c.Primitive(2.5), 1e-12)

	a, b, cc := c.Coefficients()
	if diff := cmp.Diff([]float64{0, 0, 0}, cc, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("cubic coefficients of a parabola should vanish (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2.0, a[0], 1e-12)
	assert.InDelta(t, 1.0, b[0], 1e-12)
}

func TestNotAKnotReproducesCubic(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2.5, 3, 4.5}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x*x*x - 2*x + 1
	}
	c, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{})
	require.NoError(t, err)
	for _, x := range []float64{0.3, 1.7, 2.9, 4.0} {
		assert.InDelta(t, x*x*x-2*x+1, c.Value(x), 1e-10, "x=%g", x)
	}
}

func TestThreePointNotAKnotIsParabola(t *testing.T) {
	t.Parallel()

	c, err := interpolation.NewCubic([]float64{0, 1, 3}, []float64{0, 1, 9}, interpolation.CubicParams{})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, c.Value(2), 1e-12)
}

func TestKnotReproduction(t *testing.T) {
	t.Parallel()

	for name, s := range strategies() {
		if s.Kind == interpolation.KindConvexMonotone {
			continue
		}
		ip, err := s.Interpolate(knotXs, knotYs)
		require.NoError(t, err, name)
		tol := 1e-13
		if s.Kind == interpolation.KindKernel {
			tol = 1e-7
		}
		for i, x := range knotXs {
			assert.InDelta(t, knotYs[i], ip.Value(x), tol, "%s at x=%g", name, x)
		}
		assert.Equal(t, knotXs[0], ip.XMin(), name)
		assert.Equal(t, knotXs[len(knotXs)-1], ip.XMax(), name)
	}
}

func TestPrimitiveConsistency(t *testing.T) {
	t.Parallel()

	const h = 1e-5
	for name, s := range strategies() {
		ip, err := s.Interpolate(knotXs, knotYs)
		require.NoError(t, err, name)
		assert.Equal(t, 0.0, ip.Primitive(knotXs[0]), name)
		prev := 0.0
		for k := 0; k < 100; k++ {
			x := 0.05 + 0.1*float64(k)
			p := ip.Primitive(x)
			assert.GreaterOrEqual(t, p, prev, "%s primitive decreasing at x=%g", name, x)
			prev = p
			if s.Kind == interpolation.KindBackwardFlat || s.Kind == interpolation.KindForwardFlat || nearKnot(x, 2*h) {
				continue
			}
			d := (ip.Primitive(x+h) - ip.Primitive(x-h)) / (2 * h)
			assert.InDelta(t, ip.Value(x), d, 1e-8, "%s d/dx primitive at x=%g", name, x)
		}
	}
}

func nearKnot(x, eps float64) bool {
	for _, k := range knotXs {
		if math.Abs(x-k) < eps {
			return true
		}
	}
	return false
}

func TestKernelPrimitiveOnWideSegments(t *testing.T) {
	t.Parallel()

	// segments up to six kernel widths long
	k, err := interpolation.NewKernel(knotXs, knotYs, interpolation.KernelParams{Sigma: 0.5})
	require.NoError(t, err)
	const h = 1e-5
	for _, x := range []float64{5.5, 6.3, 7.4, 8.6, 9.75, 9.95} {
		d := (k.Primitive(x+h) - k.Primitive(x-h)) / (2 * h)
		assert.InDelta(t, k.Value(x), d, 1e-9, "x=%g", x)
	}
}

func TestDerivativesConsistent(t *testing.T) {
	t.Parallel()

	const h = 1e-5
	for name, s := range strategies() {
		if s.Kind == interpolation.KindBackwardFlat || s.Kind == interpolation.KindForwardFlat {
			continue
		}
		ip, err := s.Interpolate(knotXs, knotYs)
		require.NoError(t, err, name)
		for _, x := range []float64{0.1, 0.7, 1.5, 4.0, 8.5} {
			d := (ip.Value(x+h) - ip.Value(x-h)) / (2 * h)
			assert.InDelta(t, d, ip.Derivative(x), 1e-7, "%s derivative at x=%g", name, x)
			d2 := (ip.Derivative(x+h) - ip.Derivative(x-h)) / (2 * h)
			assert.InDelta(t, d2, ip.SecondDerivative(x), 1e-5, "%s second derivative at x=%g", name, x)
		}
	}
}

func TestHymanFilterIdempotent(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 3, 4, 5, 6}
	ys := []float64{0, 1, 1.1, 3, 2.5, 2.6, 4}
	raw := []float64{2, -3, 0.5, 4, -1, 0.05, 9}

	once, adjusted, err := interpolation.HymanFilter(xs, ys, raw)
	require.NoError(t, err)
	assert.Contains(t, adjusted, true)

	twice, adjustedAgain, err := interpolation.HymanFilter(xs, ys, once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.NotContains(t, adjustedAgain, true)
	assert.Equal(t, []float64{2, -3, 0.5, 4, -1, 0.05, 9}, raw, "input must not be modified")
}

func TestHymanLeavesMonotoneCubicUnchanged(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 3}
	ys := []float64{0, 1, 2, 3}
	out, adjusted, err := interpolation.HymanFilter(xs, ys, []float64{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1}, out)
	assert.Equal(t, []bool{false, false, false, false}, adjusted)
}

func TestMonotonicCubicPreservesMonotonicity(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := []float64{0, 0.1, 0.2, 5, 5.1, 5.2}

	natural, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{
		LeftCondition: interpolation.SecondDerivative, RightCondition: interpolation.SecondDerivative,
	})
	require.NoError(t, err)
	overshoots := false
	for x := 0.0; x <= 5; x += 0.01 {
		if natural.Derivative(x) < 0 {
			overshoots = true
		}
	}
	require.True(t, overshoots, "data chosen so that the plain spline is not monotone")

	mono, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{
		Monotonic:     true,
		LeftCondition: interpolation.SecondDerivative, RightCondition: interpolation.SecondDerivative,
	})
	require.NoError(t, err)
	for x := 0.0; x <= 5; x += 0.01 {
		assert.GreaterOrEqual(t, mono.Derivative(x), -1e-12, "x=%g", x)
	}
	assert.Contains(t, mono.MonotonicityAdjustments(), true)
}

func TestBoundaryConditions(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 4}
	ys := []float64{1, 3, 2, 5}

	natural, err := interpolation.NaturalCubic().Interpolate(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 0, natural.SecondDerivative(0), 1e-12)
	assert.InDelta(t, 0, natural.SecondDerivative(4), 1e-12)

	clamped, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{
		LeftCondition: interpolation.FirstDerivative, LeftValue: -1,
		RightCondition: interpolation.SecondDerivative, RightValue: 2,
	})
	require.NoError(t, err)
	assert.InDelta(t, -1, clamped.Derivative(0), 1e-12)
	assert.InDelta(t, 2, clamped.SecondDerivative(4), 1e-12)
}

func TestKrugerFlatAtExtremum(t *testing.T) {
	t.Parallel()

	c, err := interpolation.NewCubic([]float64{0, 1, 2, 3}, []float64{1, 2, 1, 2}, interpolation.CubicParams{DerivativeApprox: interpolation.Kruger})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Derivative(1))
	assert.Equal(t, 0.0, c.Derivative(2))
}

func TestLocalSchemesReproduceLine(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 0.5, 2, 3, 7}
	ys := []float64{1, 2, 5, 7, 15}
	for _, d := range []interpolation.DerivativeApprox{
		interpolation.Spline, interpolation.Parabolic, interpolation.FritschButland,
		interpolation.Akima, interpolation.Kruger, interpolation.Harmonic,
	} {
		c, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{DerivativeApprox: d, Monotonic: true})
		require.NoError(t, err, d.String())
		for _, x := range []float64{0.2, 1.1, 2.5, 5.5} {
			assert.InDelta(t, 1+2*x, c.Value(x), 1e-12, "%s at %g", d, x)
		}
	}
}

func TestTwoPointCubicIsLinear(t *testing.T) {
	t.Parallel()

	c, err := interpolation.NewCubic([]float64{1, 3}, []float64{2, 6}, interpolation.CubicParams{})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, c.Value(2), 1e-15)
}

func TestMonotonicSingleSegmentUnchanged(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2}
	ys := []float64{1, 3}
	for _, d := range []interpolation.DerivativeApprox{
		interpolation.Spline, interpolation.Parabolic, interpolation.FritschButland,
		interpolation.Akima, interpolation.Kruger, interpolation.Harmonic,
	} {
		plain, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{DerivativeApprox: d})
		require.NoError(t, err, d.String())
		mono, err := interpolation.NewCubic(xs, ys, interpolation.CubicParams{DerivativeApprox: d, Monotonic: true})
		require.NoError(t, err, d.String())

		pa, pb, pc := plain.Coefficients()
		ma, mb, mc := mono.Coefficients()
		if diff := cmp.Diff([][]float64{pa, pb, pc}, [][]float64{ma, mb, mc}); diff != "" {
			t.Errorf("%s: coefficients changed by monotonic filter (-plain +monotonic):\n%s", d, diff)
		}
		assert.Equal(t, []bool{false, false}, mono.MonotonicityAdjustments(), d.String())
		assert.InDelta(t, 2, mono.Value(1.5), 1e-15, d.String())
	}
}

func TestNaturalSplineSolve(t *testing.T) {
	t.Parallel()

	c, err := interpolation.NewCubic([]float64{0, 1, 2}, []float64{0, 1, 0}, interpolation.CubicParams{
		LeftCondition: interpolation.SecondDerivative, RightCondition: interpolation.SecondDerivative,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, c.Derivative(0), 1e-12)
	assert.InDelta(t, 0, c.Derivative(1), 1e-12)
	assert.InDelta(t, -1.5, c.Derivative(2), 1e-12)
	assert.InDelta(t, -3, c.SecondDerivative(1), 1e-12)
}

func TestNotImplemented(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 3}
	ys := []float64{0, 1, 4, 9}
	cases := []interpolation.CubicParams{
		{LeftCondition: interpolation.Periodic},
		{RightCondition: interpolation.Lagrange},
		{DerivativeApprox: interpolation.FourthOrder},
		{DerivativeApprox: interpolation.SplineOM1},
		{DerivativeApprox: interpolation.SplineOM2},
	}
	for _, p := range cases {
		_, err := interpolation.NewCubic(xs, ys, p)
		assert.ErrorIs(t, err, interpolation.ErrNotImplemented, "%+v", p)
	}
}

func TestInvalidInput(t *testing.T) {
	t.Parallel()

	for name, s := range strategies() {
		_, err := s.Interpolate([]float64{1}, []float64{1})
		assert.ErrorIs(t, err, interpolation.ErrInvalidInput, "%s single point", name)
		_, err = s.Interpolate([]float64{1, 2, 3}, []float64{1, 2})
		assert.ErrorIs(t, err, interpolation.ErrInvalidInput, "%s length mismatch", name)
		if s.Kind == interpolation.KindKernel {
			continue
		}
		_, err = s.Interpolate([]float64{1, 1, 3}, []float64{1, 2, 3})
		assert.ErrorIs(t, err, interpolation.ErrInvalidInput, "%s non-increasing", name)
	}

	_, err := interpolation.NewLogLinear([]float64{0, 1}, []float64{1, 0})
	assert.ErrorIs(t, err, interpolation.ErrInvalidInput)
}

func TestKernelDuplicateAbscissaFails(t *testing.T) {
	t.Parallel()

	_, err := interpolation.NewKernel([]float64{0, 1, 1, 2}, []float64{1, 2, 3, 4}, interpolation.KernelParams{Sigma: 1})
	assert.ErrorIs(t, err, interpolation.ErrKernelInversion)

	_, err = interpolation.NewKernel([]float64{0, 1, 2}, []float64{1, 2, 3}, interpolation.KernelParams{Sigma: 1})
	assert.NoError(t, err)
}

func TestLogLinearExactOnExponential(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 3, 6}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Exp(-0.04 * x)
	}
	ip, err := interpolation.NewLogLinear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.04*2.2), ip.Value(2.2), 1e-15)
	assert.InDelta(t, (1-math.Exp(-0.04*4))/0.04, ip.Primitive(4), 1e-13)
	assert.InDelta(t, -0.04*math.Exp(-0.04*5), ip.Derivative(5), 1e-15)
}

func TestFlatInterpolants(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2}
	ys := []float64{1, 2, 3}
	bf, err := interpolation.NewBackwardFlat(xs, ys)
	require.NoError(t, err)
	ff, err := interpolation.NewForwardFlat(xs, ys)
	require.NoError(t, err)

	assert.Equal(t, 2.0, bf.Value(0.5))
	assert.Equal(t, 2.0, bf.Value(1))
	assert.Equal(t, 3.0, bf.Value(1.5))
	assert.InDelta(t, 3.5, bf.Primitive(1.5), 1e-15)

	assert.Equal(t, 1.0, ff.Value(0.5))
	assert.Equal(t, 2.0, ff.Value(1))
	assert.Equal(t, 3.0, ff.Value(2.5))
	assert.InDelta(t, 1+2+1.5, ff.Primitive(2.5), 1e-15)
}

func TestCheckRange(t *testing.T) {
	t.Parallel()

	ip, err := interpolation.Linear().Interpolate([]float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)
	assert.NoError(t, interpolation.CheckRange(ip, 0.5, false))
	assert.ErrorIs(t, interpolation.CheckRange(ip, 1.5, false), interpolation.ErrOutOfRange)
	assert.NoError(t, interpolation.CheckRange(ip, 1.5, true))
	assert.InDelta(t, 1.5, ip.Value(1.5), 1e-15)
}

func TestParseNames(t *testing.T) {
	t.Parallel()

	k, err := interpolation.ParseKind("Convex-Monotone")
	require.NoError(t, err)
	assert.Equal(t, interpolation.KindConvexMonotone, k)
	_, err = interpolation.ParseKind("bilinear")
	assert.Error(t, err)

	d, err := interpolation.ParseDerivativeApprox("fritsch_butland")
	require.NoError(t, err)
	assert.Equal(t, interpolation.FritschButland, d)

	b, err := interpolation.ParseBoundaryCondition("NotAKnot")
	require.NoError(t, err)
	assert.Equal(t, interpolation.NotAKnot, b)

	assert.True(t, interpolation.NaturalCubic().Global())
	assert.False(t, interpolation.LogLinear().Global())
	assert.Equal(t, "cubic(spline)", interpolation.NaturalCubic().String())
}

func TestConvexMonotone(t *testing.T) {
	t.Parallel()

	p := interpolation.DefaultConvexMonotoneParams()
	cm, err := interpolation.NewConvexMonotone(knotXs, knotYs, p)
	require.NoError(t, err)

	// ys are period averages, so the primitive at each knot is their running sum
	want := 0.0
	for i := 1; i < len(knotXs); i++ {
		want += knotYs[i] * (knotXs[i] - knotXs[i-1])
		assert.InDelta(t, want, cm.Primitive(knotXs[i]), 1e-12, "x=%g", knotXs[i])
	}

	last := cm.Value(cm.XMax())
	assert.Equal(t, last, cm.Value(cm.XMax()+5))
	assert.Equal(t, 0.0, cm.Derivative(cm.XMax()+5))

	// oscillating averages stay non-negative with ForcePositive
	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := []float64{0, 0.01, 0.05, 0.002, 0.04, 0.001}
	osc, err := interpolation.NewConvexMonotone(xs, ys, p)
	require.NoError(t, err)
	for x := 0.0; x <= 5; x += 0.01 {
		assert.GreaterOrEqual(t, osc.Value(x), -1e-15, "x=%g", x)
	}

	flat, err := interpolation.NewConvexMonotone(xs, []float64{0.03, 0.03, 0.03, 0.03, 0.03, 0.03}, p)
	require.NoError(t, err)
	for x := 0.0; x <= 6; x += 0.25 {
		assert.InDelta(t, 0.03, flat.Value(x), 1e-14, "x=%g", x)
	}

	p.ConstantLastPeriod = true
	clp, err := interpolation.NewConvexMonotone(xs, ys, p)
	require.NoError(t, err)
	for _, x := range []float64{4.1, 4.5, 5, 7} {
		assert.Equal(t, ys[5], clp.Value(x), "x=%g", x)
	}

	_, err = interpolation.NewConvexMonotone(xs, ys, interpolation.ConvexMonotoneParams{Quadraticity: 1.5})
	assert.ErrorIs(t, err, interpolation.ErrInvalidInput)
}
