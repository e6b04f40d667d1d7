//go:build integration

// Package integration runs the storefront against a real PostgreSQL
// started with testcontainers. Run with: go test -tags integration ./tests/...
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/infrastructure/migration"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	sharedContainer    *tcpostgres.PostgresContainer
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestMain terminates the shared container after the package's tests.
func TestMain(m *testing.M) {
	code := m.Run()
	cleanupSharedContainer()
	os.Exit(code)
}

// TestDB is a migrated database with all tables emptied for the test.
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	t     *testing.T
}

// NewTestDB connects to the shared container, migrating it on first use,
// and truncates every table so each test starts empty.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := sharedDSN(t)
	db, sqlDB := connectToDatabase(t, dsn)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, t: t}
	tdb.CleanTables()

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return tdb
}

func sharedDSN(t *testing.T) string {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		return sharedContainerDSN
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shopfront_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	// The migrator owns this connection and closes it with the driver
	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(migrationDB, "", zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
	_ = m.Close()

	sharedContainer = container
	sharedContainerDSN = dsn
	return dsn
}

func cleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedContainer.Terminate(ctx)
	sharedContainer = nil
	sharedContainerDSN = ""
}

// connectToDatabase opens gorm the way the server does, so duplicate keys
// surface as gorm.ErrDuplicatedKey.
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormLogger := logger.Default.LogMode(logger.Silent)
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// CleanTables empties every application table.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	for _, table := range []string{"order_items", "orders", "products", "tenants"} {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		require.NoError(tdb.t, err, "Failed to truncate %s", table)
	}
}

// CreateTenant stores an active tenant with the given code.
func (tdb *TestDB) CreateTenant(code, domain string) *identity.Tenant {
	tdb.t.Helper()

	tenant, err := identity.NewTenant(code, code+" store")
	require.NoError(tdb.t, err)
	if domain != "" {
		require.NoError(tdb.t, tenant.ChangeProfile(identity.StoreProfile{Name: tenant.Name, Domain: domain}))
	}
	require.NoError(tdb.t, persistence.NewGormTenantRepository(tdb.DB).Save(context.Background(), tenant))
	return tenant
}

// CreateProduct stores an active product priced at price.
func (tdb *TestDB) CreateProduct(tenantID uuid.UUID, code, name, price string) *catalog.Product {
	tdb.t.Helper()

	product, err := catalog.NewProduct(tenantID, code, name, decimal.RequireFromString(price))
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormProductRepository(tdb.DB).Save(context.Background(), product))
	return product
}

// CountOrders counts the tenant's stored orders.
func (tdb *TestDB) CountOrders(tenantID uuid.UUID) int64 {
	tdb.t.Helper()

	var count int64
	require.NoError(tdb.t, tdb.DB.Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error)
	return count
}
