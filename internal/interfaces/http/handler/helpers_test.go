package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/trade"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const testSession = "session-abc"

// withTenant simulates the tenant resolving middleware.
func withTenant(tenantID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, tenantID)
		c.Next()
	}
}

// withSession simulates the cart session middleware.
func withSession(session string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CartSessionKey, session)
		c.Next()
	}
}

func setupTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(mw...)
	return router
}

func performRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %#v", resp.Data)
	return data
}

func decimalField(t *testing.T, data map[string]any, field string) decimal.Decimal {
	t.Helper()
	s, ok := data[field].(string)
	require.True(t, ok, "%s is not a string: %#v", field, data[field])
	return decimal.RequireFromString(s)
}

// MockProductRepository implements catalog.ProductRepository for testing.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockProductRepository) CodeTaken(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

// MockObjectStorage implements catalogapp.ObjectStorageService for testing.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

// MockOrderRepository implements trade.OrderRepository for testing.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*trade.Order, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Order, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status trade.OrderStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockOrderStore implements trade.OrderStore for testing.
type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) CreateOrder(ctx context.Context, draft *trade.OrderDraft, tenantID uuid.UUID) (*trade.OrderRecord, error) {
	args := m.Called(ctx, draft, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.OrderRecord), args.Error(1)
}

// fakeCatalog serves product snapshots from a map.
type fakeCatalog struct {
	products map[uuid.UUID]*catalog.ProductSnapshot
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: make(map[uuid.UUID]*catalog.ProductSnapshot)}
}

func (f *fakeCatalog) LookupProduct(_ context.Context, tenantID, productID uuid.UUID) (*catalog.ProductSnapshot, error) {
	p, ok := f.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) add(name, price string, available bool) *catalog.ProductSnapshot {
	p := &catalog.ProductSnapshot{
		ID:        uuid.New(),
		TenantID:  testTenantID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Available: available,
	}
	f.products[p.ID] = p
	return p
}

func newTestProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(testTenantID, "SKU-001", "Shirt", decimal.NewFromInt(30))
	require.NoError(t, err)
	p.MarkEventsPublished()
	return p
}

func newTestOrder(t *testing.T) *trade.Order {
	t.Helper()
	draft := &trade.OrderDraft{
		CustomerName:    "Ana Souza",
		CustomerEmail:   "ana@example.com",
		CustomerAddress: "Rua A, 10, Recife",
		Items: []trade.OrderDraftItem{
			{ProductID: uuid.New(), Name: "Shirt", Quantity: 2, UnitPrice: decimal.NewFromInt(20), LineTotal: decimal.NewFromInt(40)},
		},
		TotalAmount: decimal.NewFromInt(40),
	}
	order, err := trade.NewOrderFromDraft(testTenantID, "ORD-2026-00001", draft)
	require.NoError(t, err)
	order.MarkEventsPublished()
	return order
}
