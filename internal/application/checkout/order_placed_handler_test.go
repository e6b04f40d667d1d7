package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPlacedHandler(t *testing.T) {
	metrics := &recordingMetrics{}
	h := NewOrderPlacedHandler(metrics, nil)
	assert.Equal(t, []string{trade.EventTypeOrderPlaced}, h.EventTypes())

	draft := &trade.OrderDraft{
		CustomerName:    "Ana Souza",
		CustomerAddress: "Rua A, 10, Recife",
		Items: []trade.OrderDraftItem{
			{ProductID: uuid.New(), Name: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(50)},
			{ProductID: uuid.New(), Name: "B", Quantity: 2, UnitPrice: decimal.NewFromInt(20), LineTotal: decimal.NewFromInt(40)},
		},
		TotalAmount: decimal.NewFromInt(90),
	}
	order, err := trade.NewOrderFromDraft(uuid.New(), "ORD-2026-00001", draft)
	require.NoError(t, err)

	events := order.PendingEvents()
	require.Len(t, events, 1)
	require.NoError(t, h.Handle(context.Background(), events[0]))
	assert.Equal(t, 3, metrics.placed)
}

func TestOrderPlacedHandler_RejectsOtherEvents(t *testing.T) {
	h := NewOrderPlacedHandler(nil, nil)
	p, err := catalog.NewProduct(uuid.New(), "SKU-1", "Widget", decimal.NewFromInt(10))
	require.NoError(t, err)

	err = h.Handle(context.Background(), p.PendingEvents()[0])
	assert.Error(t, err)
}
