package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/termstructure/calendar"
	"github.com/meenmo/termstructure/config"
	"github.com/meenmo/termstructure/curve"
	"github.com/meenmo/termstructure/daycount"
	"github.com/meenmo/termstructure/marketdata"
	"github.com/meenmo/termstructure/marketdata/pgstore"
	"github.com/meenmo/termstructure/metrics"
)

type buildOptions struct {
	curves      string
	quotes      string
	asof        string
	pgDSN       string
	pgSave      bool
	out         string
	metricsFile string
	parallel    int
}

func (a *app) buildCommand() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bootstrap the curves of a definition file and print their nodes as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.curves, "curves", "", "curve definition file (YAML)")
	f.StringVar(&opts.quotes, "quotes", "", "quote snapshot file (YAML)")
	f.StringVar(&opts.asof, "asof", "", "valuation date, overrides the files")
	f.StringVar(&opts.pgDSN, "pg-dsn", "", "Postgres DSN to read quotes from")
	f.BoolVar(&opts.pgSave, "pg-save", false, "store the file quotes in Postgres before building")
	f.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write bootstrap metrics in Prometheus text format")
	f.IntVar(&opts.parallel, "parallel", 4, "curves bootstrapped concurrently")
	_ = cmd.MarkFlagRequired("curves")
	return cmd
}

type nodeOutput struct {
	Date     string  `json:"date"`
	Time     float64 `json:"time"`
	Value    float64 `json:"value"`
	Discount float64 `json:"discount"`
	ZeroRate float64 `json:"zero_rate"`
}

type gridOutput struct {
	Tenor    string  `json:"tenor"`
	Date     string  `json:"date"`
	Discount float64 `json:"discount"`
	ZeroRate float64 `json:"zero_rate"`
	Forward  float64 `json:"instantaneous_forward"`
}

type curveOutput struct {
	Name          string       `json:"name"`
	Traits        string       `json:"traits"`
	Interpolation string       `json:"interpolation"`
	ReferenceDate string       `json:"reference_date"`
	Nodes         []nodeOutput `json:"nodes"`
	Grid          []gridOutput `json:"grid,omitempty"`
}

type job struct {
	def   curveDef
	curve *curve.Curve
	cal   *calendar.Calendar
}

func (a *app) build(ctx context.Context, opts buildOptions) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	defs, err := loadCurveFile(opts.curves)
	if err != nil {
		return err
	}

	book := marketdata.NewBook()
	asofText := defs.AsOf
	var fileQuotes map[string]float64
	if opts.quotes != "" {
		qf, err := marketdata.LoadQuoteFile(opts.quotes)
		if err != nil {
			return err
		}
		book.Apply(qf.Quotes)
		fileQuotes = qf.Quotes
		if !qf.AsOf.IsZero() {
			asofText = qf.AsOf.Format("2006-01-02")
		}
	}
	if opts.asof != "" {
		asofText = opts.asof
	}
	if asofText == "" {
		return errors.New("no valuation date: set asof in a file or pass --asof")
	}
	asof, err := parseDate(asofText)
	if err != nil {
		return fmt.Errorf("asof: %w", err)
	}

	// register every ticker before the database lookup
	jobs := make([]*job, 0, len(defs.Curves))
	for _, d := range defs.Curves {
		for _, inst := range d.Instruments {
			if inst.Ticker != "" {
				book.Quote(inst.Ticker)
			}
		}
	}
	if opts.pgDSN != "" {
		if err := a.loadFromPostgres(ctx, opts, asof, book, fileQuotes); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewBootstrapRecorder(reg)
	// curves and their quote subscriptions are set up on this goroutine;
	// only the bootstraps run concurrently
	for _, d := range defs.Curves {
		j, err := a.newJob(d, asof, book, cfg, recorder)
		if err != nil {
			return fmt.Errorf("curve %s: %w", d.Name, err)
		}
		jobs = append(jobs, j)
	}

	outputs := make([]curveOutput, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.parallel, 1))
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out, err := j.evaluate()
			if err != nil {
				return fmt.Errorf("curve %s: %w", j.def.Name, err)
			}
			a.logger.Info("curve built",
				zap.String("curve", j.def.Name),
				zap.Int("pillars", len(out.Nodes)-1),
				zap.Duration("elapsed", time.Since(start)))
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.metricsFile != "" {
		if err := writeMetrics(reg, opts.metricsFile); err != nil {
			return err
		}
	}
	return a.writeJSON(opts.out, outputs)
}

func (a *app) loadFromPostgres(ctx context.Context, opts buildOptions, asof time.Time, book *marketdata.Book, fileQuotes map[string]float64) error {
	store, err := pgstore.Open(opts.pgDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.pgSave {
		if err := store.Init(ctx); err != nil {
			return err
		}
		if err := store.Save(ctx, asof, fileQuotes); err != nil {
			return err
		}
		a.logger.Info("quotes stored", zap.Int("count", len(fileQuotes)), zap.Time("asof", asof))
	}
	values, err := store.Quotes(ctx, asof, book.Tickers())
	if err != nil {
		if pgstore.IsUndefinedTable(err) {
			return fmt.Errorf("quote table missing, run with --pg-save once: %w", err)
		}
		return err
	}
	book.Apply(values)
	a.logger.Debug("quotes loaded from postgres", zap.Int("count", len(values)))
	return nil
}

func (a *app) newJob(d curveDef, asof time.Time, book *marketdata.Book, cfg config.Config, rec curve.Recorder) (*job, error) {
	traits, err := curve.ParseTraits(d.Traits)
	if err != nil {
		return nil, err
	}
	strategy, err := d.Interpolation.strategy()
	if err != nil {
		return nil, err
	}
	dc, err := dayCount(d.DayCount, daycount.Act365F)
	if err != nil {
		return nil, err
	}
	cal, err := d.Calendar.calendar()
	if err != nil {
		return nil, err
	}
	var bootstrap curve.Bootstrap
	switch strings.ToLower(d.Bootstrap) {
	case "", "iterative":
		bootstrap = curve.IterativeBootstrap{}
	case "global":
		bootstrap = curve.GlobalBootstrap{}
	default:
		return nil, fmt.Errorf("unknown bootstrap %q", d.Bootstrap)
	}

	ref := cal.AddBusinessDays(cal.AdjustFollowing(asof), d.SettlementDays)
	helpers := make([]curve.RateHelper, 0, len(d.Instruments))
	for _, inst := range d.Instruments {
		q, err := inst.quote(book)
		if err != nil {
			return nil, err
		}
		h, err := inst.helper(q, ref, cal)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", inst.Type, inst.Tenor, err)
		}
		helpers = append(helpers, h)
	}

	c, err := curve.NewPiecewise(curve.PiecewiseParams{
		Name:          d.Name,
		ReferenceDate: ref,
		Helpers:       helpers,
		Traits:        traits,
		Interpolation: strategy,
		DayCounter:    dc,
		Bootstrap:     bootstrap,
		Config:        &cfg,
		Logger:        a.logger,
		Recorder:      rec,
	})
	if err != nil {
		return nil, err
	}
	return &job{def: d, curve: c, cal: cal}, nil
}

func (j *job) evaluate() (curveOutput, error) {
	c := j.curve
	nodes, err := c.Nodes()
	if err != nil {
		return curveOutput{}, err
	}
	out := curveOutput{
		Name:          j.def.Name,
		Traits:        c.Traits().Name(),
		Interpolation: c.Interpolation().String(),
		ReferenceDate: c.ReferenceDate().Format("2006-01-02"),
	}
	for _, n := range nodes {
		d, err := c.Discount(n.Time)
		if err != nil {
			return curveOutput{}, err
		}
		z, err := c.ZeroRate(n.Time)
		if err != nil {
			return curveOutput{}, err
		}
		out.Nodes = append(out.Nodes, nodeOutput{
			Date:     n.Date.Format("2006-01-02"),
			Time:     n.Time,
			Value:    n.Value,
			Discount: d,
			ZeroRate: z,
		})
	}
	for _, tenor := range j.def.Grid {
		p, err := calendar.ParsePeriod(tenor)
		if err != nil {
			return curveOutput{}, fmt.Errorf("grid: %w", err)
		}
		date := j.cal.Advance(c.ReferenceDate(), p)
		t := c.TimeFromReference(date)
		d, err := c.Discount(t)
		if err != nil {
			return curveOutput{}, fmt.Errorf("grid %s: %w", tenor, err)
		}
		z, err := c.ZeroRate(t)
		if err != nil {
			return curveOutput{}, fmt.Errorf("grid %s: %w", tenor, err)
		}
		f, err := c.InstantaneousForward(t)
		if err != nil {
			return curveOutput{}, fmt.Errorf("grid %s: %w", tenor, err)
		}
		out.Grid = append(out.Grid, gridOutput{
			Tenor:    tenor,
			Date:     date.Format("2006-01-02"),
			Discount: d,
			ZeroRate: z,
			Forward:  f,
		})
	}
	return out, nil
}

func writeMetrics(g prometheus.Gatherer, path string) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func (a *app) writeJSON(path string, v interface{}) error {
	w := a.stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
