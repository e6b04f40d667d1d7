package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func filledCart(t *testing.T) (*cart.Cart, *catalog.ProductSnapshot, *catalog.ProductSnapshot) {
	t.Helper()
	products := &fakeCatalog{products: map[uuid.UUID]*catalog.ProductSnapshot{}}
	a := products.add("A", "50", "", true)
	b := products.add("B", "30", "20", true)
	c := cart.New(uuid.New(), "s1")
	c.AddItem(a, 1)
	c.AddItem(b, 2)
	return c, a, b
}

func TestSubmission_Success(t *testing.T) {
	ctx := context.Background()
	c, a, b := filledCart(t)
	store := new(MockOrderStore)
	record := &trade.OrderRecord{ID: uuid.New(), TenantID: c.TenantID, OrderNumber: "ORD-2026-00001"}

	store.On("CreateOrder", ctx, mock.MatchedBy(func(d *trade.OrderDraft) bool {
		return len(d.Items) == 2 &&
			d.Items[0].ProductID == a.ID && d.Items[0].LineTotal.Equal(decimal.NewFromInt(50)) &&
			d.Items[1].ProductID == b.ID && d.Items[1].UnitPrice.Equal(decimal.NewFromInt(20)) &&
			d.Items[1].LineTotal.Equal(decimal.NewFromInt(40)) &&
			d.TotalAmount.Equal(decimal.NewFromInt(90))
	}), c.TenantID).Return(record, nil)

	var transitions []SubmissionState
	sub := NewSubmission(store, nil)
	sub.OnTransition(func(_, to SubmissionState) { transitions = append(transitions, to) })

	result, err := sub.Submit(ctx, c, validCheckoutRequest().ToCustomerForm())
	require.NoError(t, err)

	assert.Equal(t, record, result.Record)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.TotalItems())
	assert.Equal(t, SubmissionIdle, sub.State())
	assert.Equal(t, []SubmissionState{SubmissionSubmitting, SubmissionSucceeded, SubmissionIdle}, transitions)
	store.AssertExpectations(t)
}

func TestSubmission_FailurePreservesCart(t *testing.T) {
	ctx := context.Background()
	c, _, _ := filledCart(t)
	before := c.Lines()
	store := new(MockOrderStore)
	store.On("CreateOrder", ctx, mock.Anything, c.TenantID).Return(nil, errStoreDown)

	var transitions []SubmissionState
	sub := NewSubmission(store, nil)
	sub.OnTransition(func(_, to SubmissionState) { transitions = append(transitions, to) })

	_, err := sub.Submit(ctx, c, validCheckoutRequest().ToCustomerForm())
	require.Error(t, err)

	assert.True(t, IsSubmissionError(err))
	assert.Equal(t, SubmissionFailedMessage, err.Error())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, before, c.Lines())
	assert.Equal(t, []SubmissionState{SubmissionSubmitting, SubmissionFailed, SubmissionIdle}, transitions)

	// A failed attempt does not block the next one, which rebuilds its draft.
	c.AddItem(&catalog.ProductSnapshot{ID: uuid.New(), Name: "C", Price: decimal.NewFromInt(5)}, 1)
	store2 := new(MockOrderStore)
	store2.On("CreateOrder", ctx, mock.MatchedBy(func(d *trade.OrderDraft) bool {
		return len(d.Items) == 3 && d.TotalAmount.Equal(decimal.NewFromInt(95))
	}), c.TenantID).Return(&trade.OrderRecord{ID: uuid.New()}, nil)
	sub.store = store2

	_, err = sub.Submit(ctx, c, validCheckoutRequest().ToCustomerForm())
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestSubmission_ValidationNeverCallsStore(t *testing.T) {
	ctx := context.Background()
	store := new(MockOrderStore)
	sub := NewSubmission(store, nil)

	_, err := sub.Submit(ctx, cart.New(uuid.New(), "s1"), validCheckoutRequest().ToCustomerForm())
	assert.ErrorIs(t, err, trade.ErrEmptyCart)
	assert.False(t, IsSubmissionError(err))

	c, _, _ := filledCart(t)
	form := validCheckoutRequest().ToCustomerForm()
	form.Name = ""
	_, err = sub.Submit(ctx, c, form)
	assert.ErrorIs(t, err, trade.ErrMissingCustomerName)
	assert.Equal(t, 3, c.TotalItems())

	store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, SubmissionIdle, sub.State())
}

func TestSubmission_RejectsReentry(t *testing.T) {
	ctx := context.Background()
	c, _, _ := filledCart(t)
	other, _, _ := filledCart(t)
	store := newBlockingOrderStore()
	sub := NewSubmission(store, nil)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(ctx, c, validCheckoutRequest().ToCustomerForm())
		done <- err
	}()
	<-store.entered
	assert.Equal(t, SubmissionSubmitting, sub.State())

	_, err := sub.Submit(ctx, other, validCheckoutRequest().ToCustomerForm())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Equal(t, 3, other.TotalItems())

	close(store.release)
	require.NoError(t, <-done)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, SubmissionIdle, sub.State())
}

func TestSubmission_NilRecordIsFailure(t *testing.T) {
	ctx := context.Background()
	c, _, _ := filledCart(t)
	store := new(MockOrderStore)
	store.On("CreateOrder", ctx, mock.Anything, c.TenantID).Return(nil, nil)

	_, err := NewSubmission(store, nil).Submit(ctx, c, validCheckoutRequest().ToCustomerForm())
	assert.True(t, IsSubmissionError(err))
	assert.Equal(t, 3, c.TotalItems())
}

func TestSubmissionState_String(t *testing.T) {
	assert.Equal(t, "idle", SubmissionIdle.String())
	assert.Equal(t, "submitting", SubmissionSubmitting.String())
	assert.Equal(t, "succeeded", SubmissionSucceeded.String())
	assert.Equal(t, "failed", SubmissionFailed.String())
	assert.Equal(t, "unknown", SubmissionState(42).String())
}
