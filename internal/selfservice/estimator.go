package selfservice

import (
	"context"
	"sync"
	"time"
)

// defaultDebounce is the quiet period after the last input change before a
// quote request goes out.
const defaultDebounce = 500 * time.Millisecond

const estimateFailedMsg = "could not fetch a price estimate, please try again"

// EstimateInput is the pricing-relevant slice of the draft.
type EstimateInput struct {
	TenantID  string
	Start     time.Time
	End       time.Time
	ItemCount int
}

func (in EstimateInput) valid() bool {
	return in.TenantID != "" &&
		in.ItemCount > 0 &&
		!in.Start.IsZero() && !in.End.IsZero() &&
		in.End.After(in.Start)
}

// EstimateFetcher requests one quote for an input snapshot.
type EstimateFetcher func(ctx context.Context, in EstimateInput) (*Estimate, error)

// PriceEstimator debounces input changes and keeps only the newest quote.
// Every input change starts a new request generation and cancels the
// previous in-flight request, so a stale response can never overwrite a
// newer estimate. Invalid input (missing fields or end <= start) suppresses
// the request and clears the shown estimate without an error.
type PriceEstimator struct {
	mu       sync.Mutex
	fetch    EstimateFetcher
	debounce time.Duration
	onChange func()

	input    EstimateInput
	timer    *time.Timer
	gen      uint64
	cancel   context.CancelFunc
	estimate *Estimate
	errMsg   string
}

type EstimatorOption func(*PriceEstimator)

// WithDebounce overrides the quiet period, mainly for tests.
func WithDebounce(d time.Duration) EstimatorOption {
	return func(e *PriceEstimator) { e.debounce = d }
}

// WithOnChange registers a callback fired after every state change, outside
// the estimator's lock.
func WithOnChange(f func()) EstimatorOption {
	return func(e *PriceEstimator) { e.onChange = f }
}

func NewPriceEstimator(fetch EstimateFetcher, opts ...EstimatorOption) *PriceEstimator {
	e := &PriceEstimator{
		fetch:    fetch,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetInput replaces the pricing inputs and restarts the debounce window.
func (e *PriceEstimator) SetInput(in EstimateInput) {
	e.mu.Lock()
	e.input = in
	e.supersedeLocked()

	if !in.valid() {
		e.estimate = nil
		e.errMsg = ""
		e.mu.Unlock()
		e.notify()
		return
	}

	e.timer = time.AfterFunc(e.debounce, e.fire)
	e.mu.Unlock()
	e.notify()
}

// supersedeLocked stops the pending timer and invalidates any in-flight
// request. Callers hold e.mu.
func (e *PriceEstimator) supersedeLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
}

func (e *PriceEstimator) fire() {
	e.mu.Lock()
	in := e.input
	if !in.valid() {
		e.mu.Unlock()
		return
	}
	myGen := e.gen
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	est, err := e.fetch(ctx, in)

	e.mu.Lock()
	if myGen != e.gen {
		// A newer input snapshot took over while we were in flight.
		e.mu.Unlock()
		return
	}
	e.cancel()
	e.cancel = nil
	if err != nil {
		e.estimate = nil
		e.errMsg = estimateFailedMsg
	} else {
		e.estimate = est
		e.errMsg = ""
	}
	e.mu.Unlock()
	e.notify()
}

// Estimate returns the current quote, nil when none is shown.
func (e *PriceEstimator) Estimate() *Estimate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.estimate
}

// ErrMessage returns the inline message of the last failed quote, empty
// when there is none.
func (e *PriceEstimator) ErrMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// Reset clears inputs, estimate, and any pending or in-flight request.
func (e *PriceEstimator) Reset() {
	e.mu.Lock()
	e.input = EstimateInput{}
	e.supersedeLocked()
	e.estimate = nil
	e.errMsg = ""
	e.mu.Unlock()
	e.notify()
}

// Close cancels outstanding work. The estimator must not be used afterwards.
func (e *PriceEstimator) Close() {
	e.mu.Lock()
	e.supersedeLocked()
	e.mu.Unlock()
}

func (e *PriceEstimator) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}
