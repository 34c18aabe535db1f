package ordinato

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/ordinato"
	"github.com/soundprediction/ordinato/pkg/alert"
	"github.com/soundprediction/ordinato/pkg/cache"
	"github.com/soundprediction/ordinato/pkg/config"
	"github.com/soundprediction/ordinato/pkg/crossencoder"
	"github.com/soundprediction/ordinato/pkg/embedder"
	ordinatoLogger "github.com/soundprediction/ordinato/pkg/logger"
	"github.com/soundprediction/ordinato/pkg/nlp"
	"github.com/soundprediction/ordinato/pkg/server"
	"github.com/soundprediction/ordinato/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Ordinato HTTP server",
	Long: `Start the Ordinato HTTP server to provide REST API access to the reranker.

The server provides endpoints for:
- Reranking documents against a query
- Fusing result lists with reciprocal rank fusion
- A Jina-compatible /v1/rerank endpoint
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Cross-encoder flags
	serverCmd.Flags().String("provider", "embedeverything", "Scoring backend (embedeverything, reranker, openai, rustbert, embedding, local, mock)")
	serverCmd.Flags().String("model", "", "Cross-encoder model name or path")
	serverCmd.Flags().Int("batch-size", 0, "Passages scored per request")
	serverCmd.Flags().String("base-url", "", "Base URL for the reranker provider")
	serverCmd.Flags().String("api-key", "", "API key for the reranker provider")

	// NLP flags for the openai provider
	serverCmd.Flags().String("nlp-model", "gpt-4o-mini", "LLM model for the openai provider")
	serverCmd.Flags().String("nlp-api-key", "", "LLM API key")
	serverCmd.Flags().String("nlp-base-url", "", "LLM base URL")

	// Embedding flags for the embedding provider
	serverCmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider (embedeverything, openai)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")

	// Cache flags
	serverCmd.Flags().Bool("cache", false, "Enable the score cache")
	serverCmd.Flags().String("cache-path", "", "Directory for the score cache")

	// Telemetry flags
	serverCmd.Flags().Bool("telemetry", false, "Enable error telemetry")
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (error records)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize the ranker
	fmt.Println("Initializing ranker...")
	ranker, logger, err := initializeRanker(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize ranker: %w", err)
	}
	defer ranker.Close()

	// Load the model before accepting traffic so the readiness probe reflects
	// a ranker that can actually score.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer warmCancel()
	if err := ranker.WarmUp(warmCtx); err != nil {
		return fmt.Errorf("failed to warm up ranker: %w", err)
	}

	// Create and setup server
	srv := server.New(cfg, ranker, logger)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Cross-encoder flags
	if cmd.Flags().Changed("provider") {
		cfg.CrossEncoder.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("model") {
		cfg.CrossEncoder.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.CrossEncoder.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
	if cmd.Flags().Changed("base-url") {
		cfg.CrossEncoder.BaseURL, _ = cmd.Flags().GetString("base-url")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.CrossEncoder.APIKey, _ = cmd.Flags().GetString("api-key")
	}

	// NLP flags
	if cmd.Flags().Changed("nlp-model") {
		cfg.NLP.Model, _ = cmd.Flags().GetString("nlp-model")
	}
	if cmd.Flags().Changed("nlp-api-key") {
		cfg.NLP.APIKey, _ = cmd.Flags().GetString("nlp-api-key")
	}
	if cmd.Flags().Changed("nlp-base-url") {
		cfg.NLP.BaseURL, _ = cmd.Flags().GetString("nlp-base-url")
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}

	// Cache flags
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Enabled, _ = cmd.Flags().GetBool("cache")
	}
	if cmd.Flags().Changed("cache-path") {
		cfg.Cache.Path, _ = cmd.Flags().GetString("cache-path")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry") {
		cfg.Telemetry.Enabled, _ = cmd.Flags().GetBool("telemetry")
	}
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if cfg.CrossEncoder.Provider == "" {
		return fmt.Errorf("cross-encoder provider is required")
	}
	return nil
}

// initializeRanker builds the logger, the scoring backend and the ranker from
// the application configuration.
func initializeRanker(cfg *config.Config) (*ordinato.Ranker, *slog.Logger, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := newCrossEncoderClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []ordinato.RankerOption{ordinato.WithLogger(logger)}
	if cfg.Cache.Enabled {
		scoreCache, err := cache.New(cache.Config{
			Path:     cfg.Cache.Path,
			InMemory: cfg.Cache.InMemory,
			TTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open score cache: %w", err)
		}
		opts = append(opts, ordinato.WithScoreCache(scoreCache))
		fmt.Printf("Score cache enabled at: %s\n", cfg.Cache.Path)
	}

	ranker, err := ordinato.NewRanker(client, rankerConfigFromApp(cfg), opts...)
	if err != nil {
		return nil, nil, err
	}

	fmt.Printf("Ranker initialized with provider: %s\n", cfg.CrossEncoder.Provider)
	return ranker, logger, nil
}

// newLogger creates the application logger, wrapped with parquet error
// telemetry when enabled.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	base := ordinatoLogger.NewLogger(ordinatoLogger.Config{
		Level:  parseLogLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	if !cfg.Telemetry.Enabled {
		return base, nil
	}

	trackingPath := cfg.Telemetry.ParquetPath
	if trackingPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		trackingPath = fmt.Sprintf("%s/.ordinato/telemetry", homeDir)
	}

	// Ensure directory exists
	if err := os.MkdirAll(trackingPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	parquetHandler, err := telemetry.NewParquetHandler(base.Handler(), trackingPath)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		return base, nil
	}

	fmt.Printf("Error tracking enabled at: %s\n", trackingPath)
	return slog.New(parquetHandler), nil
}

// newCrossEncoderClient builds the scoring backend for the configured
// provider.
func newCrossEncoderClient(cfg *config.Config) (crossencoder.Client, error) {
	provider := crossencoder.Provider(cfg.CrossEncoder.Provider)

	ceConfig := crossencoder.DefaultConfig(provider)
	if cfg.CrossEncoder.Model != "" {
		ceConfig.Model = cfg.CrossEncoder.Model
	}
	if cfg.CrossEncoder.BatchSize > 0 {
		ceConfig.BatchSize = cfg.CrossEncoder.BatchSize
	}
	if cfg.CrossEncoder.MaxConcurrency > 0 {
		ceConfig.MaxConcurrency = cfg.CrossEncoder.MaxConcurrency
	}

	clientConfig := crossencoder.ClientConfig{
		Provider: provider,
		Config:   ceConfig,
	}

	switch provider {
	case crossencoder.ProviderReranker:
		if cfg.CrossEncoder.BaseURL == "" {
			return nil, fmt.Errorf("base URL is required for the reranker provider (set RERANKER_BASE_URL)")
		}
		clientConfig.RerankerConfig = &crossencoder.RerankerConfig{
			Config:  ceConfig,
			BaseURL: cfg.CrossEncoder.BaseURL,
			APIKey:  cfg.CrossEncoder.APIKey,
		}

	case crossencoder.ProviderOpenAI:
		llmClient, err := newLLMClient(cfg)
		if err != nil {
			return nil, err
		}
		clientConfig.LLMClient = llmClient

	case crossencoder.ProviderEmbedding:
		embedderClient, err := newEmbedderClient(cfg)
		if err != nil {
			return nil, err
		}
		clientConfig.EmbedderClient = embedderClient
	}

	return crossencoder.NewClient(clientConfig)
}

// newLLMClient builds the language model client used by the openai provider,
// wrapped with retry and, when enabled, circuit breaking.
func newLLMClient(cfg *config.Config) (nlp.Client, error) {
	if cfg.NLP.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required for the openai provider (set OPENAI_API_KEY)")
	}

	switch cfg.NLP.Provider {
	case "openai", "":
		baseClient := nlp.NewOpenAIClient(cfg.NLP.APIKey, nlp.Config{
			Model:   cfg.NLP.Model,
			BaseURL: cfg.NLP.BaseURL,
		})

		// Wrap with retry client for automatic retry on errors
		var client nlp.Client = nlp.NewRetryClient(baseClient, nlp.DefaultRetryConfig())

		if cfg.CircuitBreaker.Enabled {
			var alerter alert.Alerter = &alert.NoOpAlerter{}
			if cfg.Alert.Enabled {
				alerter = alert.NewEmailAlerter(alert.Config{
					Enabled:  true,
					SMTPHost: cfg.Alert.SMTPHost,
					SMTPPort: cfg.Alert.SMTPPort,
					Username: cfg.Alert.Username,
					Password: cfg.Alert.Password,
					From:     cfg.Alert.From,
					To:       cfg.Alert.To,
				})
			}
			client = nlp.NewCircuitBreakerClient(client, nlp.CircuitBreakerConfig{
				MaxRequests:      cfg.CircuitBreaker.MaxRequests,
				Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
				Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
				ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
			}, alerter, "llm-reranker")
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported NLP provider: %s", cfg.NLP.Provider)
	}
}

// newEmbedderClient builds the embedder used by the embedding provider.
func newEmbedderClient(cfg *config.Config) (embedder.Client, error) {
	switch cfg.Embedding.Provider {
	case "embedeverything", "":
		client, err := embedder.NewEmbedEverythingClient(embedder.Config{
			Model: cfg.Embedding.Model,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("embedding API key is required (set OPENAI_API_KEY)")
		}
		return embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedder.Config{
			Model:   cfg.Embedding.Model,
			BaseURL: cfg.Embedding.BaseURL,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// rankerConfigFromApp converts application ranker settings into a
// RankerConfig.
func rankerConfigFromApp(cfg *config.Config) ordinato.RankerConfig {
	rc := ordinato.DefaultRankerConfig()

	if cfg.CrossEncoder.Model != "" {
		rc.Model = cfg.CrossEncoder.Model
	}
	if cfg.Ranker.TopK > 0 {
		rc.TopK = cfg.Ranker.TopK
	}
	rc.QueryPrefix = cfg.Ranker.QueryPrefix
	rc.DocumentPrefix = cfg.Ranker.DocumentPrefix
	rc.MetaFields = cfg.Ranker.MetaFields
	if cfg.Ranker.Separator != "" {
		rc.Separator = cfg.Ranker.Separator
	}
	rc.ScaleScore = cfg.Ranker.ScaleScore
	if cfg.Ranker.CalibrationFactor != 0 {
		rc.CalibrationFactor = ordinato.Float64(cfg.Ranker.CalibrationFactor)
	}
	if cfg.Ranker.BatchSize > 0 {
		rc.BatchSize = cfg.Ranker.BatchSize
	}
	return rc
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
