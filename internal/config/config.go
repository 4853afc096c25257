package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/estudia/study-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingsCfg EmbeddingsConnectorConfig `envPrefix:"EMBEDDINGS_"`
	ChatModelCfg  ChatModelConnectorConfig  `envPrefix:"CHAT_MODEL_"`

	// Retrieval pipeline tuning
	RAGCfg RAGConfig `envPrefix:"RAG_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// EmbeddingsConnectorConfig configures the embedding provider connector.
type EmbeddingsConnectorConfig struct {
	HTTPClientConfig
	EmbeddingsEndpoint string               `env:"ENDPOINT" envDefault:"/embeddings"`
	Model              string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	CacheTTL           time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Retry              pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// ChatModelConnectorConfig configures the chat-completion connector.
type ChatModelConnectorConfig struct {
	HTTPClientConfig
	CompletionsEndpoint string               `env:"ENDPOINT" envDefault:"/chat/completions"`
	Model               string               `env:"MODEL" envDefault:"gpt-4o-mini"`
	Temperature         float64              `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens           int                  `env:"MAX_TOKENS" envDefault:"1000"`
	Retry               pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// RAGConfig carries the retrieval tuning knobs. The thresholds are
// empirically chosen, so they stay configurable rather than hard-coded.
type RAGConfig struct {
	ChunkSize           int     `env:"CHUNK_SIZE" envDefault:"1000"`
	TopK                int     `env:"TOP_K" envDefault:"5"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.7"`
	FuzzyMatchThreshold float64 `env:"FUZZY_MATCH_THRESHOLD" envDefault:"0.35"`
	ContextBudget       int     `env:"CONTEXT_BUDGET" envDefault:"3000"`
	OverviewLimit       int     `env:"OVERVIEW_LIMIT" envDefault:"10"`
	SummarySnippetLen   int     `env:"SUMMARY_SNIPPET_LEN" envDefault:"200"`
	ResolverStrategy    string  `env:"RESOLVER_STRATEGY" envDefault:"full-overview"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`  // 10 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB multipart memory
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}

	if cfg.RAGCfg.ChunkSize < 100 {
		return fmt.Errorf("RAG_CHUNK_SIZE must be at least 100, got %d", cfg.RAGCfg.ChunkSize)
	}

	if cfg.RAGCfg.TopK < 1 || cfg.RAGCfg.TopK > 50 {
		return fmt.Errorf("RAG_TOP_K must be between 1 and 50, got %d", cfg.RAGCfg.TopK)
	}

	if cfg.RAGCfg.SimilarityThreshold < 0 || cfg.RAGCfg.SimilarityThreshold > 1 {
		return fmt.Errorf("RAG_SIMILARITY_THRESHOLD must be in [0,1], got %f", cfg.RAGCfg.SimilarityThreshold)
	}

	if cfg.RAGCfg.FuzzyMatchThreshold < 0 || cfg.RAGCfg.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("RAG_FUZZY_MATCH_THRESHOLD must be in [0,1], got %f", cfg.RAGCfg.FuzzyMatchThreshold)
	}

	switch cfg.RAGCfg.ResolverStrategy {
	case "full-overview", "query-match":
	default:
		return fmt.Errorf("RAG_RESOLVER_STRATEGY must be 'full-overview' or 'query-match', got %q", cfg.RAGCfg.ResolverStrategy)
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
