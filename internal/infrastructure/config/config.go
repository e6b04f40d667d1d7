package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Checkout   CheckoutConfig   `mapstructure:"checkout"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // in minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // in minutes
}

// RedisConfig holds Redis connection settings.
// With Enabled false, carts and checkout guards are kept in process memory.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for verifying admin bearer tokens.
// Tokens are issued elsewhere; this service only verifies them.
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	Audience    string        `mapstructure:"audience"`
	TenantClaim string        `mapstructure:"tenant_claim"`
	ClockSkew   time.Duration `mapstructure:"clock_skew"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps"` // per client on checkout; 0 disables
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`
}

// StorageConfig holds S3-compatible object storage settings for product images.
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	DownloadURLExpiry time.Duration `mapstructure:"download_url_expiry"`
}

// CheckoutConfig holds cart and order submission settings.
type CheckoutConfig struct {
	OrderTimeout       time.Duration `mapstructure:"order_timeout"`        // bound on one order store call
	SessionTTL         time.Duration `mapstructure:"session_ttl"`          // sliding lifetime of an untouched cart
	SubmissionLockTTL  time.Duration `mapstructure:"submission_lock_ttl"`  // lifetime of a crashed checkout's guard
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"` // consecutive failures before the breaker opens
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
	ProductCacheTTL    time.Duration `mapstructure:"product_cache_ttl"` // 0 disables the product lookup cache
}

// StorefrontConfig holds public storefront settings.
type StorefrontConfig struct {
	BaseDomain    string `mapstructure:"base_domain"` // tenants are served from <code>.<base_domain>
	SessionCookie string `mapstructure:"session_cookie"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`            // Whether to enable OpenTelemetry
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`     // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string        `mapstructure:"service_name"`       // Service name for traces
	Insecure          bool          `mapstructure:"insecure"`           // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	// Database tracing options
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`        // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`         // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"` // Slow query threshold for warnings

	Profiling ProfilingConfig `mapstructure:"profiling"`
}

// ProfilingConfig holds Pyroscope continuous profiling settings.
type ProfilingConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	ServerAddress     string   `mapstructure:"server_address"`   // e.g. "http://pyroscope:4040"
	ApplicationName   string   `mapstructure:"application_name"` // defaults to telemetry.service_name
	BasicAuthUser     string   `mapstructure:"basic_auth_user"`
	BasicAuthPassword string   `mapstructure:"basic_auth_password"`
	ProfileTypes      []string `mapstructure:"profile_types"` // cpu, alloc_space, goroutines, mutex_count, ...

	// Sampling rates handed to the runtime when mutex or block profiles are on
	MutexProfileFraction int  `mapstructure:"mutex_profile_fraction"`
	BlockProfileRate     int  `mapstructure:"block_profile_rate"`
	DisableGCRuns        bool `mapstructure:"disable_gc_runs"`

	// SpanProfiles labels CPU samples with the active span id.
	SpanProfiles bool `mapstructure:"span_profiles"`
}

// Load reads config.toml from the working directory or /app, then
// overlays SHOP_* environment variables (SHOP_DATABASE_PASSWORD sets
// database.password). Keys missing from both take the built-in defaults.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults registers every key with viper. Environment overrides are only
// seen for registered keys, so keys without a meaningful default are
// listed with their zero value.
var defaults = map[string]any{
	"app.name": "shopfront-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "shopfront",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":       "",
	"jwt.issuer":       "",
	"jwt.audience":     "",
	"jwt.tenant_claim": "tenant_id",
	"jwt.clock_skew":   30 * time.Second,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":     15 * time.Second,
	"http.write_timeout":    15 * time.Second,
	"http.idle_timeout":     time.Minute,
	"http.shutdown_timeout": 30 * time.Second,
	"http.max_header_bytes": 1 << 20,
	"http.max_body_size":    int64(1 << 20),
	// no origins: cross-origin requests are refused
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID", "X-Cart-Session"},
	"http.trusted_proxies":    []string{},
	"http.rate_limit_rps":     0.0,
	"http.rate_limit_burst":   5,

	"storage.enabled":             false,
	"storage.endpoint":            "",
	"storage.region":              "us-east-1",
	"storage.bucket":              "",
	"storage.access_key":          "",
	"storage.secret_key":          "",
	"storage.use_ssl":             false,
	"storage.use_path_style":      false,
	"storage.presign_expiration":  15 * time.Minute,
	"storage.download_url_expiry": time.Hour,

	"checkout.order_timeout":        10 * time.Second,
	"checkout.session_ttl":          24 * time.Hour,
	"checkout.submission_lock_ttl":  30 * time.Second,
	"checkout.breaker_max_failures": 5,
	"checkout.breaker_open_timeout": 30 * time.Second,
	"checkout.product_cache_ttl":    time.Duration(0),

	"storefront.base_domain":    "localhost",
	"storefront.session_cookie": "cart_session",
	"storefront.cookie_secure":  false,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "shopfront-backend",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"telemetry.profiling.enabled":                false,
	"telemetry.profiling.server_address":         "http://localhost:4040",
	"telemetry.profiling.application_name":       "",
	"telemetry.profiling.basic_auth_user":        "",
	"telemetry.profiling.basic_auth_password":    "",
	"telemetry.profiling.profile_types":          []string{"cpu", "alloc_space", "inuse_space", "goroutines"},
	"telemetry.profiling.mutex_profile_fraction": 5,
	"telemetry.profiling.block_profile_rate":     5,
	"telemetry.profiling.disable_gc_runs":        false,
	"telemetry.profiling.span_profiles":          false,
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// decode maps the merged settings onto Config. Durations accept strings
// such as "3s" and lists accept comma separated values.
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// validate performs validation on the configuration.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Checkout.OrderTimeout <= 0 || c.Checkout.SubmissionLockTTL <= 0 {
		return fmt.Errorf("checkout.order_timeout and checkout.submission_lock_ttl must be positive")
	}
	if c.Checkout.SessionTTL < 0 {
		return fmt.Errorf("checkout.session_ttl cannot be negative")
	}
	// The guard must outlive the order store call it protects.
	if c.Checkout.SubmissionLockTTL <= c.Checkout.OrderTimeout {
		return fmt.Errorf("checkout.submission_lock_ttl (%s) must exceed checkout.order_timeout (%s)",
			c.Checkout.SubmissionLockTTL, c.Checkout.OrderTimeout)
	}
	if c.Checkout.ProductCacheTTL < 0 {
		return fmt.Errorf("checkout.product_cache_ttl cannot be negative")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Redis.Enabled {
			return fmt.Errorf("redis.enabled must be true in production (carts must be shared across instances)")
		}
		if !c.Storefront.CookieSecure {
			return fmt.Errorf("storefront.cookie_secure must be true in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if p := c.Telemetry.Profiling; p.Enabled {
		if p.ServerAddress == "" {
			return fmt.Errorf("telemetry.profiling.server_address is required when profiling is enabled")
		}
		if p.SpanProfiles && !c.Telemetry.Enabled {
			return fmt.Errorf("telemetry.profiling.span_profiles needs telemetry.enabled")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
