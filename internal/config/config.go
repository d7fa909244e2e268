package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Store     StoreConfig     `json:"store"`
	Extractor ExtractorConfig `json:"extractor"`
	Cache     CacheConfig     `json:"cache"`
	Security  SecurityConfig  `json:"security"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Tracing   TracingConfig   `json:"tracing"`
	Events    EventsConfig    `json:"events"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string `json:"port"`
	Host string `json:"host"`
}

// StoreConfig selects and configures the offer store backend.
type StoreConfig struct {
	Driver          string `json:"driver"` // "sqlite" or "mongo"
	SQLitePath      string `json:"sqlite_path"`
	MongoURI        string `json:"mongo_uri"`
	MongoDatabase   string `json:"mongo_database"`
	MongoCollection string `json:"mongo_collection"`
}

// ExtractorConfig selects and configures the term extraction strategy.
type ExtractorConfig struct {
	Strategy       string `json:"strategy"` // "regex" or "llm"
	CurrencySymbol string `json:"currency_symbol"`
	OpenAIKey      string `json:"openai_key"`
	OpenAIModel    string `json:"openai_model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// CacheConfig configures the discount result cache.
type CacheConfig struct {
	Enabled       bool   `json:"enabled"`
	Backend       string `json:"backend"` // "memory" or "redis"
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	TTLSeconds    int    `json:"ttl_seconds"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes (default: 10MB)
	MaxRequestBodySize int64 `json:"max_request_body_size"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `json:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `json:"enabled"`
	Rate    int  `json:"rate"`
	Window  int  `json:"window"` // in seconds
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled        bool   `json:"enabled"`
	JaegerEndpoint string `json:"jaeger_endpoint"`
	Environment    string `json:"environment"`
}

// EventsConfig holds event hook configuration.
type EventsConfig struct {
	Enabled bool `json:"enabled"`
}

// LoadConfig loads configuration from environment variables and/or config file.
// Environment variables take precedence over config file values.
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", ""),
		},
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "sqlite"),
			SQLitePath:      getEnv("SQLITE_PATH", "./payment_offers.db"),
			MongoURI:        getEnv("MONGODB_URI", ""),
			MongoDatabase:   getEnv("MONGODB_DATABASE", "offers"),
			MongoCollection: getEnv("MONGODB_COLLECTION", "offers"),
		},
		Extractor: ExtractorConfig{
			Strategy:       getEnv("EXTRACTOR_STRATEGY", "regex"),
			CurrencySymbol: getEnv("EXTRACTOR_CURRENCY_SYMBOL", "₹"),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", ""),
			TimeoutSeconds: getEnvInt("EXTRACTOR_TIMEOUT_SECONDS", 15),
		},
		Cache: CacheConfig{
			Enabled:       getEnvBool("CACHE_ENABLED", true),
			Backend:       getEnv("CACHE_BACKEND", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			TTLSeconds:    getEnvInt("CACHE_TTL_SECONDS", 60),
		},
		Security: SecurityConfig{
			MaxRequestBodySize: getEnvInt64("MAX_REQUEST_BODY_SIZE", 10<<20), // 10MB default
			AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			Rate:    getEnvInt("RATE_LIMIT_RATE", 100),
			Window:  getEnvInt("RATE_LIMIT_WINDOW", 60),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("TRACING_ENABLED", false),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			Environment:    getEnv("ENVIRONMENT", "development"),
		},
		Events: EventsConfig{
			Enabled: getEnvBool("EVENT_HOOKS_ENABLED", false),
		},
	}

	// Load from config file if provided
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		// Environment variables take precedence
		overrideFromEnv(cfg)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a JSON file.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cfg)
}

// overrideFromEnv overrides configuration with environment variables.
func overrideFromEnv(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		cfg.Store.SQLitePath = path
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.Store.MongoURI = uri
	}
	if db := os.Getenv("MONGODB_DATABASE"); db != "" {
		cfg.Store.MongoDatabase = db
	}
	if coll := os.Getenv("MONGODB_COLLECTION"); coll != "" {
		cfg.Store.MongoCollection = coll
	}
	if strategy := os.Getenv("EXTRACTOR_STRATEGY"); strategy != "" {
		cfg.Extractor.Strategy = strategy
	}
	if symbol := os.Getenv("EXTRACTOR_CURRENCY_SYMBOL"); symbol != "" {
		cfg.Extractor.CurrencySymbol = symbol
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Extractor.OpenAIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Extractor.OpenAIModel = model
	}
	if timeout := os.Getenv("EXTRACTOR_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.Extractor.TimeoutSeconds = t
		}
	}
	if enabled := os.Getenv("CACHE_ENABLED"); enabled != "" {
		cfg.Cache.Enabled = enabled == "true" || enabled == "1"
	}
	if backend := os.Getenv("CACHE_BACKEND"); backend != "" {
		cfg.Cache.Backend = backend
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Cache.RedisPassword = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			cfg.Cache.RedisDB = d
		}
	}
	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		if t, err := strconv.Atoi(ttl); err == nil {
			cfg.Cache.TTLSeconds = t
		}
	}
	if maxBodySize := os.Getenv("MAX_REQUEST_BODY_SIZE"); maxBodySize != "" {
		if size, err := strconv.ParseInt(maxBodySize, 10, 64); err == nil {
			cfg.Security.MaxRequestBodySize = size
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Security.AllowedOrigins = origins
	}
	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		cfg.RateLimit.Enabled = enabled == "true" || enabled == "1"
	}
	if rate := os.Getenv("RATE_LIMIT_RATE"); rate != "" {
		if r, err := strconv.Atoi(rate); err == nil {
			cfg.RateLimit.Rate = r
		}
	}
	if window := os.Getenv("RATE_LIMIT_WINDOW"); window != "" {
		if w, err := strconv.Atoi(window); err == nil {
			cfg.RateLimit.Window = w
		}
	}
	if enabled := os.Getenv("TRACING_ENABLED"); enabled != "" {
		cfg.Tracing.Enabled = enabled == "true" || enabled == "1"
	}
	if endpoint := os.Getenv("JAEGER_ENDPOINT"); endpoint != "" {
		cfg.Tracing.JaegerEndpoint = endpoint
	}
	if environment := os.Getenv("ENVIRONMENT"); environment != "" {
		cfg.Tracing.Environment = environment
	}
	if enabled := os.Getenv("EVENT_HOOKS_ENABLED"); enabled != "" {
		cfg.Events.Enabled = enabled == "true" || enabled == "1"
	}
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvInt64 gets an int64 environment variable or returns the default value.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("mongo URI is required")
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}
	switch c.Extractor.Strategy {
	case "regex":
		if c.Extractor.CurrencySymbol == "" {
			return fmt.Errorf("currency symbol is required for regex extraction")
		}
	case "llm":
		if c.Extractor.OpenAIKey == "" {
			return fmt.Errorf("OpenAI API key is required for llm extraction")
		}
		if c.Extractor.TimeoutSeconds <= 0 {
			return fmt.Errorf("extractor timeout must be positive")
		}
	default:
		return fmt.Errorf("unknown extractor strategy: %s", c.Extractor.Strategy)
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory":
		case "redis":
			if c.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required")
			}
		default:
			return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
		}
		if c.Cache.TTLSeconds <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return fmt.Errorf("rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	return nil
}
