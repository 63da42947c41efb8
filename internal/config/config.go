package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	LogLevel    string // debug | info | warn | error
	StoreDriver string // mysql | memory
	LinePath    string // optional YAML file describing stops, fleet and routes

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret            string // secret used to sign operator JWTs
	AccessTTLMin         int    // access token time-to-live in minutes
	BcryptCost           int    // bcrypt cost for hashing OPERATOR_PASSWORD
	OperatorUsername     string // operator login name
	OperatorPassword     string // plain operator password, hashed at startup
	OperatorPasswordHash string // bcrypt hash; takes precedence over OperatorPassword

	AMQPURL    string // RabbitMQ URL; empty disables reservation events
	Allocation AllocationConfig
}

// AllocationConfig tunes the reservation commit.
type AllocationConfig struct {
	MaxAttempts     int           // attempts before an allocation conflict is reported
	Backoff         time.Duration // first retry delay, doubled per attempt
	MaxBackoff      time.Duration // cap for the retry delay
	LockTimeout     time.Duration // wait for the per-direction allocation lock
	LockPrefix      string        // name prefix of the MySQL named locks
	CatalogCacheTTL time.Duration // in-process route cache lifetime
}

// Load reads configuration values from the environment and returns a
// Config.  A .env file in the working directory is loaded first when
// present; real environment variables win.  Required variables are
// enforced by must() and missing values cause the program to exit.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		StoreDriver: getenv("STORE_DRIVER", StoreMySQL),
		LinePath:    os.Getenv("LINE_CONFIG"),

		JWTSecret:            must("JWT_SECRET"),
		AccessTTLMin:         envInt("ACCESS_TOKEN_TTL_MIN", 15),
		BcryptCost:           envInt("BCRYPT_COST", 10),
		OperatorUsername:     getenv("OPERATOR_USERNAME", "operator"),
		OperatorPassword:     os.Getenv("OPERATOR_PASSWORD"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),

		AMQPURL: amqpURL(),
		Allocation: AllocationConfig{
			MaxAttempts:     envInt("ALLOC_MAX_ATTEMPTS", 5),
			Backoff:         envDur("ALLOC_BACKOFF", 20*time.Millisecond),
			MaxBackoff:      envDur("ALLOC_MAX_BACKOFF", 500*time.Millisecond),
			LockTimeout:     envDur("ALLOC_LOCK_TIMEOUT", 5*time.Second),
			LockPrefix:      getenv("ALLOC_LOCK_PREFIX", "seat-allocation"),
			CatalogCacheTTL: envDur("CATALOG_CACHE_TTL", time.Minute),
		},
	}

	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case StoreMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreMySQL, StoreMemory)
	}
	return cfg
}

// amqpURL returns RABBITMQ_URL or AMQP_URL.  Unlike the other settings
// there is no default: without a broker, events are not published.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
