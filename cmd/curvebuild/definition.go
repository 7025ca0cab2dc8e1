package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/curve"
	"github.com/meenmo/termstructure/daycount"
	"github.com/meenmo/termstructure/instruments"
	"github.com/meenmo/termstructure/interpolation"
	"github.com/meenmo/termstructure/marketdata"
)

// curveFile is the YAML layout of a curve definition file.
type curveFile struct {
	AsOf   string     `yaml:"asof"`
	Curves []curveDef `yaml:"curves"`
}

type curveDef struct {
	Name           string          `yaml:"name"`
	Traits         string          `yaml:"traits"`
	Interpolation  interpDef       `yaml:"interpolation"`
	Bootstrap      string          `yaml:"bootstrap"`
	DayCount       string          `yaml:"daycount"`
	Calendar       calendarDef     `yaml:"calendar"`
	SettlementDays int             `yaml:"settlement_days"`
	Instruments    []instrumentDef `yaml:"instruments"`
	Grid           []string        `yaml:"grid"`
}

type calendarDef struct {
	Name     string   `yaml:"name"`
	Holidays []string `yaml:"holidays"`
}

// interpDef is either a bare kind ("loglinear") or a mapping with the
// kind's parameters.
type interpDef struct {
	Kind       string `yaml:"kind"`
	Derivative string `yaml:"derivative"`
	Monotonic  bool   `yaml:"monotonic"`
	Left       string `yaml:"left"`
	Right      string `yaml:"right"`

	Quadraticity       *float64 `yaml:"quadraticity"`
	Monotonicity       *float64 `yaml:"monotonicity"`
	ForcePositive      *bool    `yaml:"force_positive"`
	ConstantLastPeriod bool     `yaml:"constant_last_period"`

	Sigma float64 `yaml:"sigma"`
}

func (d *interpDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Kind = node.Value
		return nil
	}
	type plain interpDef
	return node.Decode((*plain)(d))
}

type instrumentDef struct {
	Type      string      `yaml:"type"`
	Ticker    string      `yaml:"ticker"`
	Quote     interface{} `yaml:"quote"`
	Tenor     string      `yaml:"tenor"`
	Start     string      `yaml:"start"`
	DayCount  string      `yaml:"daycount"`
	PayDelay  int         `yaml:"pay_delay"`
	Frequency int         `yaml:"frequency_months"`
}

func loadCurveFile(path string) (curveFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return curveFile{}, err
	}
	var f curveFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return curveFile{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(f.Curves) == 0 {
		return curveFile{}, fmt.Errorf("%s: no curves defined", path)
	}
	seen := make(map[string]bool, len(f.Curves))
	for i, c := range f.Curves {
		if c.Name == "" {
			return curveFile{}, fmt.Errorf("%s: curve %d has no name", path, i)
		}
		if seen[c.Name] {
			return curveFile{}, fmt.Errorf("%s: duplicate curve %q", path, c.Name)
		}
		seen[c.Name] = true
	}
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (d interpDef) strategy() (interpolation.Strategy, error) {
	if d.Kind == "" {
		return interpolation.Strategy{}, fmt.Errorf("interpolation kind required")
	}
	kind, err := interpolation.ParseKind(d.Kind)
	if err != nil {
		return interpolation.Strategy{}, err
	}
	s := interpolation.Strategy{Kind: kind}
	switch kind {
	case interpolation.KindCubic, interpolation.KindLogCubic:
		p := interpolation.CubicParams{Monotonic: d.Monotonic}
		if d.Derivative != "" {
			if p.DerivativeApprox, err = interpolation.ParseDerivativeApprox(d.Derivative); err != nil {
				return s, err
			}
		}
		if d.Left != "" {
			if p.LeftCondition, err = interpolation.ParseBoundaryCondition(d.Left); err != nil {
				return s, err
			}
		}
		if d.Right != "" {
			if p.RightCondition, err = interpolation.ParseBoundaryCondition(d.Right); err != nil {
				return s, err
			}
		}
		s.Cubic = p
	case interpolation.KindConvexMonotone:
		p := interpolation.DefaultConvexMonotoneParams()
		if d.Quadraticity != nil {
			p.Quadraticity = *d.Quadraticity
		}
		if d.Monotonicity != nil {
			p.Monotonicity = *d.Monotonicity
		}
		if d.ForcePositive != nil {
			p.ForcePositive = *d.ForcePositive
		}
		p.ConstantLastPeriod = d.ConstantLastPeriod
		s.ConvexMonotone = p
	case interpolation.KindKernel:
		s.Kernel = interpolation.KernelParams{Sigma: d.Sigma}
	}
	return s, nil
}

func (d calendarDef) calendar() (*calendar.Calendar, error) {
	if d.Name == "" && len(d.Holidays) == 0 {
		return calendar.Weekends, nil
	}
	cal := calendar.New(strings.ToUpper(d.Name))
	for _, h := range d.Holidays {
		t, err := parseDate(h)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		cal.AddHoliday(t)
	}
	return cal, nil
}

func dayCount(name string, fallback daycount.Convention) (daycount.Convention, error) {
	if name == "" {
		return fallback, nil
	}
	return daycount.Parse(name)
}

// quote resolves the instrument's quote: a ticker in the book, a literal
// value, or a ticker with a literal fallback for when no source priced it.
func (d instrumentDef) quote(book *marketdata.Book) (marketdata.Quote, error) {
	var literal *float64
	if d.Quote != nil {
		v, err := marketdata.ParseQuoteValue(d.Quote)
		if err != nil {
			return nil, fmt.Errorf("quote %v: %w", d.Quote, err)
		}
		literal = &v
	}
	switch {
	case d.Ticker != "":
		q := book.Quote(d.Ticker)
		if !q.IsValid() && literal != nil {
			q.SetValue(*literal)
		}
		return q, nil
	case literal != nil:
		return marketdata.NewSimpleQuote(*literal), nil
	}
	return nil, fmt.Errorf("%s %s: ticker or quote required", d.Type, d.Tenor)
}

func (d instrumentDef) helper(q marketdata.Quote, start time.Time, cal *calendar.Calendar) (curve.RateHelper, error) {
	dc, err := dayCount(d.DayCount, daycount.Act360)
	if err != nil {
		return nil, err
	}
	conv := instruments.Conventions{Calendar: cal, DayCount: dc, PayDelay: d.PayDelay, FrequencyMonths: d.Frequency}
	tenor, err := calendar.ParsePeriod(d.Tenor)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(d.Type) {
	case "deposit", "depo":
		return instruments.NewDeposit(q, start, tenor, conv)
	case "fra":
		from, err := calendar.ParsePeriod(d.Start)
		if err != nil {
			return nil, fmt.Errorf("fra start: %w", err)
		}
		return instruments.NewFRA(q, start, from, tenor, conv)
	case "ois", "swap":
		return instruments.NewOIS(q, start, tenor, conv)
	}
	return nil, fmt.Errorf("unknown instrument type %q", d.Type)
}
