package marketdata

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Book is a named set of quotes. Helpers hold the *SimpleQuote pointers, so
// applying a new snapshot to the book invalidates every curve built on it.
type Book struct {
	quotes map[string]*SimpleQuote
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{quotes: make(map[string]*SimpleQuote)}
}

// Quote returns the quote registered under ticker, creating an invalid one if needed.
func (b *Book) Quote(ticker string) *SimpleQuote {
	q, ok := b.quotes[ticker]
	if !ok {
		q = NewSimpleQuote(math.NaN())
		b.quotes[ticker] = q
	}
	return q
}

// Tickers returns the registered tickers in sorted order.
func (b *Book) Tickers() []string {
	out := make([]string, 0, len(b.quotes))
	for k := range b.quotes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Apply sets every value in the snapshot. Unknown tickers are added.
func (b *Book) Apply(values map[string]float64) {
	for k, v := range values {
		b.Quote(k).SetValue(v)
	}
}

// QuoteFile is the on-disk quote snapshot format.
//
//	asof: 2025-01-02
//	quotes:
//	  USD.DEPO.3M: 4.31%
//	  USD.OIS.5Y: 0.0395
//	  USD.OIS.10Y: 402bp
type QuoteFile struct {
	AsOf   time.Time
	Quotes map[string]float64
}

// LoadQuoteFile reads a YAML quote snapshot.
func LoadQuoteFile(path string) (QuoteFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return QuoteFile{}, fmt.Errorf("LoadQuoteFile: %w", err)
	}
	return ParseQuoteFile(raw)
}

// ParseQuoteFile decodes a YAML quote snapshot. Values may be plain decimals or
// strings with a "%" or "bp" suffix.
func ParseQuoteFile(raw []byte) (QuoteFile, error) {
	var doc struct {
		AsOf   interface{}            `yaml:"asof"`
		Quotes map[string]interface{} `yaml:"quotes"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return QuoteFile{}, fmt.Errorf("ParseQuoteFile: %w", err)
	}
	out := QuoteFile{Quotes: make(map[string]float64, len(doc.Quotes))}
	if doc.AsOf != nil {
		asof, err := cast.ToTimeE(doc.AsOf)
		if err != nil {
			return QuoteFile{}, fmt.Errorf("ParseQuoteFile: asof: %w", err)
		}
		out.AsOf = time.Date(asof.Year(), asof.Month(), asof.Day(), 0, 0, 0, 0, time.UTC)
	}
	for ticker, v := range doc.Quotes {
		f, err := ParseQuoteValue(v)
		if err != nil {
			return QuoteFile{}, fmt.Errorf("ParseQuoteFile: %s: %w", ticker, err)
		}
		out.Quotes[ticker] = f
	}
	return out, nil
}

// ParseQuoteValue converts a loosely typed quote into a decimal rate.
func ParseQuoteValue(v interface{}) (float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasSuffix(s, "%"):
			f, err := cast.ToFloat64E(strings.TrimSpace(strings.TrimSuffix(s, "%")))
			return f / 100.0, err
		case strings.HasSuffix(strings.ToLower(s), "bp"):
			f, err := cast.ToFloat64E(strings.TrimSpace(s[:len(s)-2]))
			return f / 10000.0, err
		}
		return cast.ToFloat64E(s)
	}
	return cast.ToFloat64E(v)
}
