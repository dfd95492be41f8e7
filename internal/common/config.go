package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Images   ImagesConfig
	Mirror   MirrorConfig
	Pipeline PipelineConfig
	Usage    UsageConfig
}

// DatabaseConfig holds usage-ledger database configuration.
// An empty DSN selects the embedded SQLite ledger at SQLitePath.
type DatabaseConfig struct {
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// LLMConfig holds completion service configuration
type LLMConfig struct {
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float32
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ImagesConfig holds image search and synthesis configuration
type ImagesConfig struct {
	SearchURL       string
	SearchAPIKey    string
	SearchCount     int
	SearchCacheSize int
	SearchCacheTTL  time.Duration
	PageCandidates  int
	SynthesisModel  string
	SynthesisSize   string
	Timeout         time.Duration
}

// MirrorConfig holds object-storage settings for persisting synthesized images.
// Mirroring is disabled unless Endpoint and Bucket are both set.
type MirrorConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// PipelineConfig holds batch and prompt behaviour
type PipelineConfig struct {
	Concurrency       int
	ItemTimeout       time.Duration
	SecondaryLanguage string
	MaxSourceChars    int
	DebugAnnotations  bool
}

// UsageConfig holds usage-tracking queue configuration
type UsageConfig struct {
	Enabled   bool
	Workers   int
	QueueSize int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("USAGE_SQLITE_PATH", "file:partsynth_usage.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":8081"),
		},
		LLM: LLMConfig{
			Model:             getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:       getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:           getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			RequestsPerSecond: getEnvAsFloat64("OPENAI_RPS", 0),
			Burst:             getEnvAsInt("OPENAI_BURST", 3),
		},
		Images: ImagesConfig{
			SearchURL:       getEnv("IMAGE_SEARCH_URL", ""),
			SearchAPIKey:    getEnv("IMAGE_SEARCH_API_KEY", ""),
			SearchCount:     getEnvAsInt("IMAGE_SEARCH_COUNT", 3),
			SearchCacheSize: getEnvAsInt("IMAGE_SEARCH_CACHE_SIZE", 256),
			SearchCacheTTL:  getEnvAsDuration("IMAGE_SEARCH_CACHE_TTL", 15*time.Minute),
			PageCandidates:  getEnvAsInt("IMAGE_PAGE_CANDIDATES", 3),
			SynthesisModel:  getEnv("IMAGE_SYNTHESIS_MODEL", ""),
			SynthesisSize:   getEnv("IMAGE_SYNTHESIS_SIZE", "1024x1024"),
			Timeout:         getEnvAsDuration("IMAGE_TIMEOUT", 60*time.Second),
		},
		Mirror: MirrorConfig{
			Endpoint:      getEnv("MIRROR_ENDPOINT", ""),
			AccessKey:     getEnv("MIRROR_ACCESS_KEY", ""),
			SecretKey:     getEnv("MIRROR_SECRET_KEY", ""),
			Bucket:        getEnv("MIRROR_BUCKET", ""),
			UseSSL:        getEnvAsBool("MIRROR_USE_SSL", true),
			PublicBaseURL: getEnv("MIRROR_PUBLIC_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			Concurrency:       getEnvAsInt("BATCH_CONCURRENCY", 3),
			ItemTimeout:       getEnvAsDuration("BATCH_ITEM_TIMEOUT", 2*time.Minute),
			SecondaryLanguage: getEnv("SECONDARY_LANGUAGE", "Thai"),
			MaxSourceChars:    getEnvAsInt("MAX_SOURCE_CHARS", 16000),
			DebugAnnotations:  getEnvAsBool("DEBUG_ANNOTATIONS", !strings.EqualFold(getEnv("APP_ENV", ""), "production")),
		},
		Usage: UsageConfig{
			Enabled:   getEnvAsBool("USAGE_TRACKING", true),
			Workers:   getEnvAsInt("USAGE_WORKERS", 1),
			QueueSize: getEnvAsInt("USAGE_QUEUE_SIZE", 256),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
// A missing completion credential is not fatal here: the pipeline degrades to fallback records.
func (c *Config) Validate() error {
	if c.Pipeline.Concurrency <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_CONCURRENCY must be positive", ErrConfiguration)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrConfiguration)
	}
	if (c.Mirror.Endpoint == "") != (c.Mirror.Bucket == "") {
		return NewAppError("CONFIG_ERROR", "MIRROR_ENDPOINT and MIRROR_BUCKET must be set together", ErrConfiguration)
	}
	return nil
}

// MirrorEnabled reports whether synthesized images should be copied to object storage.
func (c *Config) MirrorEnabled() bool {
	return c.Mirror.Endpoint != "" && c.Mirror.Bucket != ""
}
