package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendPostgres  = "postgres"
)

// Config is the process configuration. It is read once at startup and passed
// down to the components that need it.
type Config struct {
	Port        string `env:"PORT" envDefault:"9091"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	FirebaseProjectID          string `env:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	FirebaseWebAPIKey          string `env:"FIREBASE_WEB_API_KEY"`
	StorageBucket              string `env:"FIREBASE_STORAGE_BUCKET"`
	IdentityToolkitURL         string `env:"IDENTITY_TOOLKIT_URL" envDefault:"https://identitytoolkit.googleapis.com"`

	// StoreBackend selects the document store: firestore or memory.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"firestore"`
	// BlobBackend selects the blob store: firestore (Firebase Storage) or memory.
	BlobBackend string `env:"BLOB_BACKEND" envDefault:"firestore"`
	// CacheBackend selects the view cache: memory or redis.
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"1024"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// ProfileStore selects where user profiles live: firestore or postgres.
	ProfileStore string `env:"PROFILE_STORE" envDefault:"firestore"`
	DatabaseURL  string `env:"DATABASE_URL"`

	DefaultCurrency     string `env:"DEFAULT_CURRENCY" envDefault:"🇲🇾 MYR"`
	PlaceholderImageURL string `env:"PLACEHOLDER_IMAGE_URL" envDefault:"https://via.placeholder.com/200x150"`

	AuthRateLimit float64  `env:"AUTH_RATE_LIMIT" envDefault:"1"`
	AuthRateBurst int      `env:"AUTH_RATE_BURST" envDefault:"5"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFirestore, BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.BlobBackend {
	case BackendFirestore, BackendMemory:
	default:
		return fmt.Errorf("invalid BLOB_BACKEND %q", c.BlobBackend)
	}
	switch c.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}
	switch c.ProfileStore {
	case BackendFirestore:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PROFILE_STORE=postgres")
		}
	default:
		return fmt.Errorf("invalid PROFILE_STORE %q", c.ProfileStore)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}
