package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/termstructure/interpolation"
)

type interpolateOptions struct {
	xs, ys, at  []float64
	def         interpDef
	extrapolate bool
}

type pointOutput struct {
	X                float64 `json:"x"`
	Value            float64 `json:"value"`
	Derivative       float64 `json:"derivative"`
	SecondDerivative float64 `json:"second_derivative"`
	Primitive        float64 `json:"primitive"`
}

type interpolateOutput struct {
	Interpolation string        `json:"interpolation"`
	Points        []pointOutput `json:"points"`
	Adjusted      []bool        `json:"monotonicity_adjustments,omitempty"`
}

func (a *app) interpolateCommand() *cobra.Command {
	var opts interpolateOptions
	cmd := &cobra.Command{
		Use:   "interpolate",
		Short: "Fit an interpolation to points and evaluate it",
		Example: `  curvebuild interpolate --x 1,2,3,4 --y 1,4,9,16 --at 2.5 --kind cubic
  curvebuild interpolate --x 0,1,2 --y 0.02,0.025,0.03 --at 0.5,1.5 --kind convexmonotone`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.interpolate(opts)
		},
	}
	f := cmd.Flags()
	f.Float64SliceVar(&opts.xs, "x", nil, "abscissas, increasing")
	f.Float64SliceVar(&opts.ys, "y", nil, "ordinates")
	f.Float64SliceVar(&opts.at, "at", nil, "points to evaluate")
	f.StringVar(&opts.def.Kind, "kind", "linear", "interpolation kind")
	f.StringVar(&opts.def.Derivative, "derivative", "", "cubic derivative approximation")
	f.BoolVar(&opts.def.Monotonic, "monotonic", false, "apply the Hyman filter (cubic)")
	f.StringVar(&opts.def.Left, "left", "", "cubic left boundary condition")
	f.StringVar(&opts.def.Right, "right", "", "cubic right boundary condition")
	f.Float64Var(&opts.def.Sigma, "sigma", 0, "kernel width")
	f.BoolVar(&opts.extrapolate, "extrapolate", false, "allow points outside the data range")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func (a *app) interpolate(opts interpolateOptions) error {
	s, err := opts.def.strategy()
	if err != nil {
		return err
	}
	ip, err := s.Interpolate(opts.xs, opts.ys)
	if err != nil {
		return err
	}
	a.logger.Debug("interpolation fitted", zap.Stringer("interpolation", s), zap.Int("points", len(opts.xs)))

	out := interpolateOutput{Interpolation: s.String()}
	if c, ok := ip.(*interpolation.Cubic); ok && s.Cubic.Monotonic {
		out.Adjusted = c.MonotonicityAdjustments()
	}
	for _, x := range opts.at {
		if err := interpolation.CheckRange(ip, x, opts.extrapolate); err != nil {
			return fmt.Errorf("at %g: %w", x, err)
		}
		out.Points = append(out.Points, pointOutput{
			X:                x,
			Value:            ip.Value(x),
			Derivative:       ip.Derivative(x),
			SecondDerivative: ip.SecondDerivative(x),
			Primitive:        ip.Primitive(x),
		})
	}
	return a.writeJSON("", out)
}
