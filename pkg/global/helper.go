package global

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func GetListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func GetDefaultTimer() (context.Context, context.CancelFunc) {
	return GetDefaultTimerFrom(context.Background())
}

func GetDefaultTimerFrom(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 10*time.Second)
}

// Config is everything the service reads from the environment.
type Config struct {
	Port            string
	Env             string
	StoreBackend    string // "mongo" or "memory"
	StoreTimeout    time.Duration
	MongoURI        string
	MongoDatabase   string
	RedisAddress    string
	RedisPassword   string
	JWTSecret       string
	AMQPURL         string
	OrdersQueue     string
	CatalogBaseURL  string
	CatalogAPIKey   string
	CatalogCacheTTL time.Duration
	CORSOrigins     []string
	OpenAIEndpoint  string
	OpenAIKey       string
	OpenAIModel     string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            GetEnvOrDefault("PORT", "8000"),
		Env:             GetEnvOrDefault("ENV", "development"),
		StoreBackend:    GetEnvOrDefault("STORE_BACKEND", "mongo"),
		StoreTimeout:    GetDurationOrDefault("STORE_TIMEOUT", 10*time.Second),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   GetEnvOrDefault("MONGODB_DATABASE", "bookverse"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   GetEnvOrDefault("REDIS_PASSWORD", ""),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		OrdersQueue:     GetEnvOrDefault("ORDERS_QUEUE", "orders"),
		CatalogBaseURL:  GetEnvOrDefault("CATALOG_BASE_URL", "https://www.googleapis.com/books/v1"),
		CatalogAPIKey:   os.Getenv("CATALOG_API_KEY"),
		CatalogCacheTTL: GetDurationOrDefault("CATALOG_CACHE_TTL", 24*time.Hour),
		CORSOrigins:     GetListOrDefault("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		OpenAIEndpoint:  os.Getenv("AZURE_OPENAI_ENDPOINT"),
		OpenAIKey:       os.Getenv("AZURE_OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is not set in environment variables"))
		}
	case "memory":
	default:
		errs = append(errs, errors.New("STORE_BACKEND must be mongo or memory"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set in environment variables"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
