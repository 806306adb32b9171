package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config holds client configuration from environment variables
type Config struct {
	// Storefront API
	APIBaseURL  string
	HTTPTimeout time.Duration
	CSRFToken   string

	// Token store
	TokenStoreDriver string // sqlite, mysql or memory
	TokenStorePath   string

	// MySQL credential store (TokenStoreDriver=mysql)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Circuit breaker
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	// Checkout display
	TaxRate decimal.Decimal

	// Logging
	LogLevel  string
	LogFormat string

	// Reference API server
	MockAPIPort string

	// OpenTelemetry
	OTELEnabled               bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPHeaders   string // key1=value1,key2=value2
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELServiceVersion        string
	OTELDeploymentEnvironment string
}

// LoadConfig loads configuration from .env file and environment variables with defaults
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		if _, ok := err.(*os.PathError); !ok {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	}

	return &Config{
		APIBaseURL:  getEnv("STOREFRONT_API_URL", "http://127.0.0.1:8000/api"),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		CSRFToken:   getEnv("CSRF_TOKEN", ""),

		TokenStoreDriver: getEnv("TOKEN_STORE_DRIVER", "sqlite"),
		TokenStorePath:   getEnv("TOKEN_STORE_PATH", defaultTokenStorePath()),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "storefront"),

		BreakerMinRequests:  uint32(getEnvInt("BREAKER_MIN_REQUESTS", 5)),
		BreakerFailureRatio: getEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeout:  getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		TaxRate: getEnvDecimal("TAX_RATE", decimal.RequireFromString("0.13")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MockAPIPort: getEnv("MOCK_API_PORT", "8000"),

		OTELEnabled:               getEnvBool("OTEL_ENABLED", false),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPHeaders:   getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "storefront-go-client"),
		OTELServiceVersion:        getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELDeploymentEnvironment: getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
	}
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// GetDriverAndDSN returns the database/sql driver name and DSN for the token store.
// The memory driver has no DSN.
func (c *Config) GetDriverAndDSN() (string, string) {
	switch c.TokenStoreDriver {
	case "mysql":
		return "mysql", c.GetDSN()
	case "memory":
		return "memory", ""
	default:
		return "sqlite", c.TokenStorePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
}

func defaultTokenStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "storefront-session.db"
	}
	return filepath.Join(home, ".storefront", "session.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		return false
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
