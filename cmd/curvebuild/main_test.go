package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBuildCurves(t *testing.T) {
	var stdout, stderr bytes.Buffer
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")
	code := run([]string{"build",
		"--curves", "testdata/curves.yaml",
		"--quotes", "testdata/quotes.yaml",
		"--metrics-file", metricsPath,
		"--parallel", "3",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out []curveOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out, 3)

	byName := map[string]curveOutput{}
	for _, c := range out {
		byName[c.Name] = c
	}

	sofr := byName["usd-sofr"]
	assert.Equal(t, "discount", sofr.Traits)
	assert.Equal(t, "loglinear", sofr.Interpolation)
	assert.Equal(t, "2025-01-15", sofr.ReferenceDate)
	require.Len(t, sofr.Nodes, 7)
	assert.Equal(t, 1.0, sofr.Nodes[0].Value)
	for i := 1; i < len(sofr.Nodes); i++ {
		assert.Less(t, sofr.Nodes[i].Discount, sofr.Nodes[i-1].Discount)
		assert.InDelta(t, 0.04, sofr.Nodes[i].ZeroRate, 0.006)
	}
	require.Len(t, sofr.Grid, 4)
	assert.Equal(t, "1Y", sofr.Grid[1].Tenor)
	assert.Equal(t, "2026-01-15", sofr.Grid[1].Date)

	zero := byName["usd-sofr-zero"]
	assert.Equal(t, "zero", zero.Traits)
	require.Len(t, zero.Nodes, 7)
	// both curves reprice the same instruments
	for i := 1; i < len(zero.Nodes); i++ {
		assert.Equal(t, sofr.Nodes[i].Date, zero.Nodes[i].Date)
		assert.InDelta(t, sofr.Nodes[i].Discount, zero.Nodes[i].Discount, 1e-3)
	}

	fra := byName["eur-fra"]
	assert.Equal(t, "forward", fra.Traits)
	assert.Equal(t, "2025-01-17", fra.ReferenceDate)
	require.Len(t, fra.Nodes, 4)
	assert.Empty(t, fra.Grid)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `termstructure_bootstrap_runs_total{curve="eur-fra",result="ok"} 1`)
	assert.Contains(t, string(metrics), `termstructure_bootstrap_runs_total{curve="usd-sofr",result="ok"} 1`)
	assert.Contains(t, stderr.String(), `"msg":"curve built"`)
}

func TestBuildWritesOutputFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "curves.json")
	code := run([]string{"build", "--curves", "testdata/curves.yaml", "--quotes", "testdata/quotes.yaml", "-o", path, "-v"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []curveOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out, 3)
	assert.Contains(t, stderr.String(), `"level":"debug"`)
}

func TestBuildFailsWithoutQuote(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"build", "--curves", "testdata/missing.yaml", "--quotes", "testdata/quotes.yaml"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "usd-short")
	assert.Contains(t, stderr.String(), "invalid quote")
}

func TestBuildRequiresValuationDate(t *testing.T) {
	dir := t.TempDir()
	defs := filepath.Join(dir, "curves.yaml")
	require.NoError(t, os.WriteFile(defs, []byte(`curves:
  - name: c
    traits: discount
    interpolation: linear
    instruments:
      - {type: deposit, quote: 0.03, tenor: 3M}
`), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"build", "--curves", defs}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "valuation date")

	stdout.Reset()
	stderr.Reset()
	require.Equal(t, 0, run([]string{"build", "--curves", defs, "--asof", "2025-03-03"}, &stdout, &stderr), stderr.String())
	var out []curveOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "2025-03-03", out[0].ReferenceDate)
	require.Len(t, out[0].Nodes, 2)
	assert.Equal(t, "2025-06-03", out[0].Nodes[1].Date)
}

func TestInterpolateCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"interpolate", "--x", "1,2,3,4", "--y", "1,4,9,16", "--at", "2.5,3", "--kind", "cubic"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out interpolateOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Points, 2)
	assert.InDelta(t, 6.25, out.Points[0].Value, 1e-12)
	assert.InDelta(t, 5.0, out.Points[0].Derivative, 1e-12)
	assert.InDelta(t, 2.0, out.Points[0].SecondDerivative, 1e-12)
	assert.InDelta(t, (27.0-1.0)/3, out.Points[1].Primitive, 1e-12)
}

func TestInterpolateOutOfRange(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"interpolate", "--x", "0,1,2", "--y", "1,2,4", "--at", "3"}
	assert.Equal(t, 1, run(args, &stdout, &stderr))
	assert.True(t, strings.Contains(stderr.String(), "range"), stderr.String())

	stdout.Reset()
	stderr.Reset()
	require.Equal(t, 0, run(append(args, "--extrapolate"), &stdout, &stderr), stderr.String())
	var out interpolateOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.InDelta(t, 6.0, out.Points[0].Value, 1e-12)
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"frobnicate"}, &stdout, &stderr))
}
