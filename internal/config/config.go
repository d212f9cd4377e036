package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Portal    PortalConfig
	Catalog   CatalogConfig
	Shipping  ShippingConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	Schema          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// SessionConfig covers the signed browser session cookie and the Redis
// records scoped to it
type SessionConfig struct {
	Secret         string
	CookieName     string
	CookieSecure   bool
	TTL            time.Duration
	CartTTL        time.Duration
	IdempotencyTTL time.Duration
}

// PortalConfig points at the upstream member API
type PortalConfig struct {
	BaseURL       string
	APIToken      string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type CatalogConfig struct {
	// PriceBuckets are the low, mid and high thresholds of the price range filter
	PriceBuckets   [3]float64
	CurrencySymbol string
	Locale         string
	Timezone       string
}

type ShippingConfig struct {
	RatesFile string
}

type KafkaConfig struct {
	Brokers     []string
	OrdersTopic string
}

type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	VerifyAttempts    int
	VerifyWindow      time.Duration
}

func Load() *Config {
	// .env.local overrides the environment for local runs
	if err := godotenv.Load(".env.local"); err == nil {
		log.Printf("Loaded overrides from .env.local")
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_COOKIE_NAME", "portal_session")
	viper.SetDefault("SESSION_COOKIE_SECURE", false)
	viper.SetDefault("SESSION_TTL", "720h")
	viper.SetDefault("CART_TTL", "168h")
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("PORTAL_TIMEOUT", "10s")
	viper.SetDefault("PORTAL_RATE_PER_SECOND", 20)
	viper.SetDefault("PORTAL_BURST", 40)
	viper.SetDefault("CATALOG_PRICE_BUCKETS", "10,50,100")
	viper.SetDefault("CATALOG_CURRENCY_SYMBOL", "₱")
	viper.SetDefault("CATALOG_LOCALE", "en-PH")
	viper.SetDefault("CATALOG_TIMEZONE", "Asia/Manila")
	viper.SetDefault("KAFKA_ORDERS_TOPIC", "portal.orders.placed")
	viper.SetDefault("OTEL_SERVICE_NAME", "community-portal")
	viper.SetDefault("OTEL_SERVICE_VERSION", "dev")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
	viper.SetDefault("VERIFY_RATE_LIMIT_ATTEMPTS", 5)
	viper.SetDefault("VERIFY_RATE_LIMIT_WINDOW", "15m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	buckets, err := ParsePriceBuckets(viper.GetString("CATALOG_PRICE_BUCKETS"))
	if err != nil {
		log.Printf("Warning: %v, using defaults", err)
		buckets = [3]float64{10, 50, 100}
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			ReadTimeout:    viper.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:    viper.GetDuration("SERVER_IDLE_TIMEOUT"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_DATABASE"),
			Schema:          viper.GetString("DB_SCHEMA"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			Secret:         viper.GetString("SESSION_SECRET"),
			CookieName:     viper.GetString("SESSION_COOKIE_NAME"),
			CookieSecure:   viper.GetBool("SESSION_COOKIE_SECURE"),
			TTL:            viper.GetDuration("SESSION_TTL"),
			CartTTL:        viper.GetDuration("CART_TTL"),
			IdempotencyTTL: viper.GetDuration("IDEMPOTENCY_TTL"),
		},
		Portal: PortalConfig{
			BaseURL:       viper.GetString("PORTAL_BASE_URL"),
			APIToken:      viper.GetString("PORTAL_API_TOKEN"),
			Timeout:       viper.GetDuration("PORTAL_TIMEOUT"),
			RatePerSecond: viper.GetFloat64("PORTAL_RATE_PER_SECOND"),
			Burst:         viper.GetInt("PORTAL_BURST"),
		},
		Catalog: CatalogConfig{
			PriceBuckets:   buckets,
			CurrencySymbol: viper.GetString("CATALOG_CURRENCY_SYMBOL"),
			Locale:         viper.GetString("CATALOG_LOCALE"),
			Timezone:       viper.GetString("CATALOG_TIMEZONE"),
		},
		Shipping: ShippingConfig{
			RatesFile: viper.GetString("SHIPPING_RATES_FILE"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(viper.GetString("KAFKA_BROKERS")),
			OrdersTopic: viper.GetString("KAFKA_ORDERS_TOPIC"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    viper.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: viper.GetString("OTEL_SERVICE_VERSION"),
			OTLPEndpoint:   viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            viper.GetDuration("RATE_LIMIT_WINDOW"),
			VerifyAttempts:    viper.GetInt("VERIFY_RATE_LIMIT_ATTEMPTS"),
			VerifyWindow:      viper.GetDuration("VERIFY_RATE_LIMIT_WINDOW"),
		},
	}
}

// ParsePriceBuckets parses "low,mid,high". Thresholds must be positive and strictly increasing.
func ParsePriceBuckets(s string) ([3]float64, error) {
	var out [3]float64

	parts := splitList(s)
	if len(parts) != 3 {
		return out, fmt.Errorf("price buckets %q: want 3 thresholds, got %d", s, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return out, fmt.Errorf("price buckets %q: %w", s, err)
		}
		if v <= 0 || (i > 0 && v <= out[i-1]) {
			return out, fmt.Errorf("price buckets %q: thresholds must be positive and increasing", s)
		}
		out[i] = v
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
