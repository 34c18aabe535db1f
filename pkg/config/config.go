// Package config loads application configuration from files and environment
// variables via viper.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Ranker configuration
	Ranker RankerConfig `mapstructure:"ranker"`

	// CrossEncoder configuration
	CrossEncoder CrossEncoderConfig `mapstructure:"cross_encoder"`

	// NLP configuration for the LLM-backed provider
	NLP NLPConfig `mapstructure:"nlp"`

	// Embedding configuration for the embedding-backed provider
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Cache configuration for the score cache
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// RankerConfig holds ranking configuration
type RankerConfig struct {
	TopK              int      `mapstructure:"top_k"`
	QueryPrefix       string   `mapstructure:"query_prefix"`
	DocumentPrefix    string   `mapstructure:"document_prefix"`
	MetaFields        []string `mapstructure:"meta_fields"`
	Separator         string   `mapstructure:"separator"`
	ScaleScore        bool     `mapstructure:"scale_score"`
	CalibrationFactor float64  `mapstructure:"calibration_factor"`
	BatchSize         int      `mapstructure:"batch_size"`
}

// CrossEncoderConfig holds scoring backend configuration
type CrossEncoderConfig struct {
	Provider       string `mapstructure:"provider"` // embedeverything, reranker, openai, rustbert, embedding, local, mock
	Model          string `mapstructure:"model"`
	BatchSize      int    `mapstructure:"batch_size"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`

	// BaseURL and APIKey apply to the reranker provider
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// NLPConfig holds configuration for the LLM client
type NLPConfig struct {
	Provider string `mapstructure:"provider"` // openai
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // embedeverything, openai
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// CacheConfig holds score cache configuration
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
	TTL      int    `mapstructure:"ttl"` // in seconds, 0 means no expiry
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Ranker defaults
	viper.SetDefault("ranker.top_k", 10)
	viper.SetDefault("ranker.separator", "\n")
	viper.SetDefault("ranker.scale_score", true)
	viper.SetDefault("ranker.calibration_factor", 1.0)
	viper.SetDefault("ranker.batch_size", 16)

	// Cross-encoder defaults
	viper.SetDefault("cross_encoder.provider", "embedeverything")
	viper.SetDefault("cross_encoder.model", "cross-encoder/ms-marco-MiniLM-L-6-v2")
	viper.SetDefault("cross_encoder.batch_size", 100)
	viper.SetDefault("cross_encoder.max_concurrency", 1)

	// LLM defaults
	viper.SetDefault("nlp.provider", "openai")
	viper.SetDefault("nlp.model", "gpt-4o-mini")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl", 0)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.ordinato/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
	if home != "" {
		viper.SetDefault("cache.path", fmt.Sprintf("%s/.ordinato/cache", home))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.NLP.APIKey == "" {
			config.NLP.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}

	// Reranker API settings
	if apiKey := os.Getenv("RERANKER_API_KEY"); apiKey != "" {
		config.CrossEncoder.APIKey = apiKey
	}
	if baseURL := os.Getenv("RERANKER_BASE_URL"); baseURL != "" {
		config.CrossEncoder.BaseURL = baseURL
	}
	if provider := os.Getenv("CROSS_ENCODER_PROVIDER"); provider != "" {
		config.CrossEncoder.Provider = provider
	}
	if model := os.Getenv("CROSS_ENCODER_MODEL"); model != "" {
		config.CrossEncoder.Model = model
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Cache settings
	if path := os.Getenv("CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
