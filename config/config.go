package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds solver and curve construction parameters.
type Config struct {
	// Accuracy is the root-finding tolerance on each pillar value, and the
	// convergence threshold between global bootstrap passes.
	Accuracy float64

	// MaxEvaluations bounds the objective evaluations of one 1-D solve.
	MaxEvaluations int

	// MaxGlobalPasses bounds bootstrap passes for global interpolations.
	// Zero uses the curve kind's default (discount 50, zero and forward 30).
	MaxGlobalPasses int

	// MaxAttempts is the number of solves tried per pillar; each retry widens
	// the bracket by MinFactor and MaxFactor.
	MaxAttempts int
	MinFactor   float64
	MaxFactor   float64

	// Solver is "brent" or "newtonsafe".
	Solver string

	// AllowNegativeRates widens the admissible bracket below zero rates and
	// lets discount factors increase.
	AllowNegativeRates bool

	// AllowExtrapolation permits queries past the last pillar.
	AllowExtrapolation bool

	// MaxRate bounds the rate bracket of the first pillars.
	MaxRate float64

	// KernelTolerance is the residual bound of the kernel weight solve.
	KernelTolerance float64
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Accuracy:           1e-12,
	MaxEvaluations:     100,
	MaxGlobalPasses:    0,
	MaxAttempts:        1,
	MinFactor:          2.0,
	MaxFactor:          2.0,
	Solver:             "brent",
	AllowNegativeRates: false,
	AllowExtrapolation: false,
	MaxRate:            1.0,
	KernelTolerance:    1e-7,
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks ranges.
func (c Config) Validate() error {
	switch {
	case !(c.Accuracy > 0):
		return fmt.Errorf("%w: accuracy must be positive, got %g", ErrInvalidConfig, c.Accuracy)
	case c.MaxEvaluations <= 0:
		return fmt.Errorf("%w: max_evaluations must be positive, got %d", ErrInvalidConfig, c.MaxEvaluations)
	case c.MaxGlobalPasses < 0:
		return fmt.Errorf("%w: max_global_passes must be non-negative, got %d", ErrInvalidConfig, c.MaxGlobalPasses)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	case c.MinFactor < 1 || c.MaxFactor < 1:
		return fmt.Errorf("%w: bracket factors must be >= 1, got %g and %g", ErrInvalidConfig, c.MinFactor, c.MaxFactor)
	case !(c.MaxRate > 0):
		return fmt.Errorf("%w: max_rate must be positive, got %g", ErrInvalidConfig, c.MaxRate)
	case !(c.KernelTolerance > 0):
		return fmt.Errorf("%w: kernel_tolerance must be positive, got %g", ErrInvalidConfig, c.KernelTolerance)
	}
	switch strings.ToLower(c.Solver) {
	case "brent", "newtonsafe":
	default:
		return fmt.Errorf("%w: unknown solver %q", ErrInvalidConfig, c.Solver)
	}
	return nil
}

// EnvPrefix is the prefix of the environment overrides, e.g.
// TERMSTRUCTURE_ACCURACY=1e-10.
const EnvPrefix = "TERMSTRUCTURE"

// Load reads a YAML (or any viper-supported) file on top of DefaultConfig
// and applies TERMSTRUCTURE_* environment overrides. An empty path reads
// the environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	d := DefaultConfig
	v.SetDefault("accuracy", d.Accuracy)
	v.SetDefault("max_evaluations", d.MaxEvaluations)
	v.SetDefault("max_global_passes", d.MaxGlobalPasses)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("min_factor", d.MinFactor)
	v.SetDefault("max_factor", d.MaxFactor)
	v.SetDefault("solver", d.Solver)
	v.SetDefault("allow_negative_rates", d.AllowNegativeRates)
	v.SetDefault("allow_extrapolation", d.AllowExtrapolation)
	v.SetDefault("max_rate", d.MaxRate)
	v.SetDefault("kernel_tolerance", d.KernelTolerance)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
	}

	c := Config{
		Accuracy:           v.GetFloat64("accuracy"),
		MaxEvaluations:     v.GetInt("max_evaluations"),
		MaxGlobalPasses:    v.GetInt("max_global_passes"),
		MaxAttempts:        v.GetInt("max_attempts"),
		MinFactor:          v.GetFloat64("min_factor"),
		MaxFactor:          v.GetFloat64("max_factor"),
		Solver:             strings.ToLower(v.GetString("solver")),
		AllowNegativeRates: v.GetBool("allow_negative_rates"),
		AllowExtrapolation: v.GetBool("allow_extrapolation"),
		MaxRate:            v.GetFloat64("max_rate"),
		KernelTolerance:    v.GetFloat64("kernel_tolerance"),
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return c, nil
}
