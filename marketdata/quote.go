package marketdata

import (
	"math"
	"time"
)

// Quote is an observable market value.
type Quote interface {
	Value() float64
	IsValid() bool
	RegisterObserver(Observer)
	UnregisterObserver(Observer)
}

// SimpleQuote is a settable quote. NaN means "no value".
type SimpleQuote struct {
	Observable
	value float64
}

// NewSimpleQuote returns a quote holding v.
func NewSimpleQuote(v float64) *SimpleQuote {
	return &SimpleQuote{value: v}
}

func (q *SimpleQuote) Value() float64 { return q.value }

func (q *SimpleQuote) IsValid() bool { return !math.IsNaN(q.value) }

// SetValue stores v and notifies observers when it differs from the current value.
// It returns the change.
func (q *SimpleQuote) SetValue(v float64) float64 {
	diff := v - q.value
	if diff != 0 || math.IsNaN(q.value) != math.IsNaN(v) {
		q.value = v
		q.NotifyObservers()
	}
	return diff
}

// Reset invalidates the quote.
func (q *SimpleQuote) Reset() {
	q.SetValue(math.NaN())
}

// EvaluationDate is the observable "today" that moving curves follow.
type EvaluationDate struct {
	Observable
	date time.Time
}

// NewEvaluationDate returns an evaluation date set to d.
func NewEvaluationDate(d time.Time) *EvaluationDate {
	return &EvaluationDate{date: d}
}

func (e *EvaluationDate) Date() time.Time { return e.date }

// Set moves the evaluation date and notifies observers on change.
func (e *EvaluationDate) Set(d time.Time) {
	if d.Equal(e.date) {
		return
	}
	e.date = d
	e.NotifyObservers()
}
