package interpolation

import (
	"fmt"
	"strings"
)

// Kind selects the interpolation family.
type Kind int

const (
	KindLinear Kind = iota
	KindLogLinear
	KindBackwardFlat
	KindForwardFlat
	KindCubic
	KindLogCubic
	KindConvexMonotone
	KindKernel
)

var kindNames = map[Kind]string{
	KindLinear:         "linear",
	KindLogLinear:      "loglinear",
	KindBackwardFlat:   "backwardflat",
	KindForwardFlat:    "forwardflat",
	KindCubic:          "cubic",
	KindLogCubic:       "logcubic",
	KindConvexMonotone: "convexmonotone",
	KindKernel:         "kernel",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names printed by Kind.String, case-insensitively,
// ignoring '-' and '_'.
func ParseKind(name string) (Kind, error) {
	norm := normalize(name)
	for k, s := range kindNames {
		if s == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("ParseKind: unknown interpolation %q", name)
}

// Strategy describes how to build an interpolant. It is a plain value and
// carries no fitted state.
type Strategy struct {
	Kind           Kind
	Cubic          CubicParams
	ConvexMonotone ConvexMonotoneParams
	Kernel         KernelParams
}

// Interpolate fits the strategy to the points.
func (s Strategy) Interpolate(xs, ys []float64) (Interpolant, error) {
	switch s.Kind {
	case KindLinear:
		return NewLinear(xs, ys)
	case KindLogLinear:
		return NewLogLinear(xs, ys)
	case KindBackwardFlat:
		return NewBackwardFlat(xs, ys)
	case KindForwardFlat:
		return NewForwardFlat(xs, ys)
	case KindCubic:
		return fitted(NewCubic(xs, ys, s.Cubic))
	case KindLogCubic:
		return NewLogCubic(xs, ys, s.Cubic)
	case KindConvexMonotone:
		return fitted(NewConvexMonotone(xs, ys, s.ConvexMonotone))
	case KindKernel:
		return fitted(NewKernel(xs, ys, s.Kernel))
	}
	return nil, fmt.Errorf("Interpolate: %w: kind %s", ErrNotImplemented, s.Kind)
}

// fitted keeps a failed constructor from leaking a typed nil into the interface.
func fitted[T Interpolant](ip T, err error) (Interpolant, error) {
	if err != nil {
		return nil, err
	}
	return ip, nil
}

// Global reports whether moving one point can change the interpolant away
// from its neighbouring segments. Bootstraps over global schemes need more
// than one pass.
func (s Strategy) Global() bool {
	switch s.Kind {
	case KindCubic, KindLogCubic, KindConvexMonotone, KindKernel:
		return true
	}
	return false
}

// RequiredPoints is the minimum number of points the strategy accepts.
func (s Strategy) RequiredPoints() int {
	return 2
}

func (s Strategy) String() string {
	if s.Kind == KindCubic || s.Kind == KindLogCubic {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Cubic.DerivativeApprox)
	}
	return s.Kind.String()
}

// Linear interpolation.
func Linear() Strategy { return Strategy{Kind: KindLinear} }

// LogLinear interpolation: linear in log(y).
func LogLinear() Strategy { return Strategy{Kind: KindLogLinear} }

// BackwardFlat takes the value of the right end point on each segment.
func BackwardFlat() Strategy { return Strategy{Kind: KindBackwardFlat} }

// ForwardFlat takes the value of the left end point on each segment.
func ForwardFlat() Strategy { return Strategy{Kind: KindForwardFlat} }

// CubicWith returns a cubic strategy with the given parameters.
func CubicWith(p CubicParams) Strategy { return Strategy{Kind: KindCubic, Cubic: p} }

// LogCubicWith returns a log-cubic strategy with the given parameters.
func LogCubicWith(p CubicParams) Strategy { return Strategy{Kind: KindLogCubic, Cubic: p} }

// NaturalCubic is a spline with zero second derivative at both ends.
func NaturalCubic() Strategy {
	return CubicWith(CubicParams{
		DerivativeApprox: Spline,
		LeftCondition:    SecondDerivative,
		RightCondition:   SecondDerivative,
	})
}

// MonotonicCubic is a natural spline passed through the Hyman filter.
func MonotonicCubic() Strategy {
	s := NaturalCubic()
	s.Cubic.Monotonic = true
	return s
}

// ConvexMonotoneWith returns a Hagan-West strategy.
func ConvexMonotoneWith(p ConvexMonotoneParams) Strategy {
	return Strategy{Kind: KindConvexMonotone, ConvexMonotone: p}
}

// KernelWith returns a Gaussian kernel strategy.
func KernelWith(p KernelParams) Strategy { return Strategy{Kind: KindKernel, Kernel: p} }

func normalize(name string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}
