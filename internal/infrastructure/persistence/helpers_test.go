package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func testDraft(lines ...trade.OrderDraftItem) *trade.OrderDraft {
	if len(lines) == 0 {
		lines = []trade.OrderDraftItem{
			{ProductID: uuid.New(), Name: "Camiseta", Quantity: 2, UnitPrice: decimal.NewFromInt(30), LineTotal: decimal.NewFromInt(60)},
			{ProductID: uuid.New(), Name: "Boné", Quantity: 1, UnitPrice: decimal.NewFromInt(30), LineTotal: decimal.NewFromInt(30)},
		}
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return &trade.OrderDraft{
		CustomerName:    "Ana",
		CustomerEmail:   "cliente@example.com",
		CustomerAddress: "Rua A, 10, Recife - PE - 50000-000",
		Items:           lines,
		TotalAmount:     total,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) published() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}
