//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	checkoutapp "github.com/shopfront/backend/internal/application/checkout"
	storeapp "github.com/shopfront/backend/internal/application/store"
	tradeapp "github.com/shopfront/backend/internal/application/trade"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/orderclient"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/storage"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const baseDomain = "shop.test"

var testJWTConfig = config.JWTConfig{
	Secret:   "integration-secret-key-32-bytes-long!",
	Issuer:   "shopfront-it",
	Audience: "shopfront-admin",
}

// TestApp is the HTTP API wired like the server, backed by the test
// database and an in-process Redis.
type TestApp struct {
	DB     *TestDB
	Engine *gin.Engine
	Redis  *miniredis.Miniredis
	jwt    *auth.JWTService
	t      *testing.T
}

func NewTestApp(t *testing.T) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	tdb := NewTestDB(t)
	log := zap.NewNop()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := event.NewInMemoryEventBus(log)

	productRepo := persistence.NewGormProductRepository(tdb.DB)
	orderRepo := persistence.NewGormOrderRepository(tdb.DB)
	tenantRepo := persistence.NewGormTenantRepository(tdb.DB)
	orderStore := persistence.NewGormOrderStore(tdb.DB,
		persistence.WithEventPublisher(bus),
		persistence.WithStoreLogger(log),
	)

	productService := catalogapp.NewProductService(productRepo, catalogapp.WithLogger(log))
	imageService := catalogapp.NewImageService(productService, storage.NewStaticObjectStorage(""),
		catalogapp.ImageServiceConfig{UploadURLExpiry: 15 * time.Minute, DownloadURLExpiry: time.Hour}, log)
	productService.SetImageURLResolver(imageService)

	resilient := orderclient.NewResilientOrderStore(orderStore, orderclient.Config{
		Timeout:     10 * time.Second,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}, log)
	guard := cache.NewRedisSubmissionGuard(client)
	cartService := checkoutapp.NewCartService(cache.NewRedisCartStore(client), productRepo, 24*time.Hour, log,
		checkoutapp.WithSubmissionGuard(guard),
	)
	checkoutService := checkoutapp.NewCheckoutService(cartService, resilient, guard, log)

	handlers := router.Handlers{
		Storefront: handler.NewStorefrontHandler(productService),
		Cart:       handler.NewCartHandler(cartService),
		Checkout:   handler.NewCheckoutHandler(checkoutService),
		Products:   handler.NewProductHandler(productService, imageService),
		Orders:     handler.NewOrderHandler(tradeapp.NewOrderService(orderRepo, log)),
		Store:      handler.NewStoreHandler(storeapp.NewStoreService(tenantRepo, nil, log)),
		Health:     handler.NewHealthHandler("it"),
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.RegisterHealthRoutes(engine, handlers.Health)

	jwtService := auth.NewJWTService(testJWTConfig)
	router.NewRouter(engine).
		Register(router.StorefrontRoutes(handlers, router.StorefrontMiddleware{
			Tenant: middleware.StorefrontTenant(middleware.StorefrontTenantConfig{
				Finder:        tenantRepo,
				BaseDomain:    baseDomain,
				HeaderEnabled: true,
			}),
			Session: middleware.CartSession(middleware.CartSessionConfig{MaxAge: 24 * time.Hour}),
		})).
		Register(router.AdminRoutes(handlers, middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
			Verifier: jwtService,
		}))).
		Setup()

	return &TestApp{DB: tdb, Engine: engine, Redis: mr, jwt: jwtService, t: t}
}

// AdminToken mints a bearer token scoped to tenantID.
func (a *TestApp) AdminToken(tenantID uuid.UUID) string {
	a.t.Helper()
	token, err := a.jwt.Issue("admin@"+tenantID.String(), tenantID, "admin", time.Hour)
	require.NoError(a.t, err)
	return token
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

// Do sends req to the engine and decodes the envelope.
func (a *TestApp) Do(req request) (*httptest.ResponseRecorder, testutil.Envelope) {
	a.t.Helper()

	var body bytes.Buffer
	if req.body != nil {
		require.NoError(a.t, json.NewEncoder(&body).Encode(req.body))
	}
	httpReq := httptest.NewRequest(req.method, req.path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.headers {
		if k == "Host" {
			httpReq.Host = v
			continue
		}
		httpReq.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, httpReq)

	return w, testutil.DecodeEnvelope(a.t, w)
}

// Storefront sends a storefront request as the given tenant host and session.
func (a *TestApp) Storefront(method, path, host, session string, body any) (*httptest.ResponseRecorder, testutil.Envelope) {
	return a.Do(request{
		method:  method,
		path:    "/api/v1/storefront" + path,
		body:    body,
		headers: map[string]string{"Host": host, middleware.SessionHeader: session},
	})
}

// Admin sends an authenticated back-office request.
func (a *TestApp) Admin(method, path string, tenantID uuid.UUID, body any) (*httptest.ResponseRecorder, testutil.Envelope) {
	return a.Do(request{
		method:  method,
		path:    "/api/v1/admin" + path,
		body:    body,
		headers: map[string]string{"Authorization": "Bearer " + a.AdminToken(tenantID)},
	})
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}
