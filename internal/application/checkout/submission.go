package checkout

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SubmissionState is the state of one order submission workflow.
type SubmissionState int32

const (
	SubmissionIdle SubmissionState = iota
	SubmissionSubmitting
	SubmissionSucceeded
	SubmissionFailed
)

// String returns the state name.
func (s SubmissionState) String() string {
	switch s {
	case SubmissionIdle:
		return "idle"
	case SubmissionSubmitting:
		return "submitting"
	case SubmissionSucceeded:
		return "succeeded"
	case SubmissionFailed:
		return "failed"
	}
	return "unknown"
}

// TransitionFunc observes workflow state changes.
type TransitionFunc func(from, to SubmissionState)

// SubmissionResult is what a successful submission produced.
type SubmissionResult struct {
	Record *trade.OrderRecord
	Draft  *trade.OrderDraft
}

// Submission places an order for a cart: build the draft, call the order
// store, clear the cart on success and leave it untouched on failure.
// A Submit while another is in flight returns ErrSubmissionInProgress.
// Succeeded and Failed fall back to Idle before Submit returns, so a failed
// attempt never blocks the next one.
type Submission struct {
	store        trade.OrderStore
	state        atomic.Int32
	onTransition TransitionFunc
	logger       *zap.Logger
}

// NewSubmission creates an idle Submission.
func NewSubmission(store trade.OrderStore, logger *zap.Logger) *Submission {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submission{store: store, logger: logger}
}

// OnTransition registers an observer for state changes.
func (s *Submission) OnTransition(fn TransitionFunc) {
	s.onTransition = fn
}

// State returns the current state.
func (s *Submission) State() SubmissionState {
	return SubmissionState(s.state.Load())
}

// Submit runs one attempt. Validation failures come back as the domain
// validation error; order store failures come back as *SubmissionError.
func (s *Submission) Submit(ctx context.Context, c *cart.Cart, form trade.CustomerForm) (*SubmissionResult, error) {
	if !s.state.CompareAndSwap(int32(SubmissionIdle), int32(SubmissionSubmitting)) {
		return nil, ErrSubmissionInProgress
	}
	s.notify(SubmissionIdle, SubmissionSubmitting)

	result, err := s.run(ctx, c, form)

	terminal := SubmissionSucceeded
	if err != nil {
		terminal = SubmissionFailed
	}
	s.state.Store(int32(terminal))
	s.notify(SubmissionSubmitting, terminal)

	s.state.Store(int32(SubmissionIdle))
	s.notify(terminal, SubmissionIdle)

	return result, err
}

func (s *Submission) run(ctx context.Context, c *cart.Cart, form trade.CustomerForm) (*SubmissionResult, error) {
	draft, err := trade.BuildOrderPayload(c, form)
	if err != nil {
		return nil, err
	}

	record, err := s.store.CreateOrder(ctx, draft, c.TenantID)
	if err != nil {
		s.logger.Warn("order store rejected submission",
			zap.String("tenant_id", c.TenantID.String()),
			zap.Int("items", len(draft.Items)),
			zap.Error(err),
		)
		return nil, &SubmissionError{Cause: err}
	}
	if record == nil {
		return nil, &SubmissionError{Cause: errors.New("order store returned no record")}
	}

	c.Clear()

	return &SubmissionResult{Record: record, Draft: draft}, nil
}

func (s *Submission) notify(from, to SubmissionState) {
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}
