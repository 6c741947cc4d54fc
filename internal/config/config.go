package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/codelens/internal/configs/env"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	ServerPort      string
	MetricsPort     string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Logging
	LogLevel  string
	LogPretty bool

	// Storage
	StoreBackend string
	MongoURI     string
	MongoDBName  string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisDB                 int
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// Embeddings
	EmbeddingProvider string
	CohereAPIKey      string
	CohereBaseURL     string
	CohereEmbedModel  string
	EmbeddingTimeout  time.Duration

	// Engine
	MaxSnippetBytes     int
	PlagiarismThreshold float64
	MatchFloor          float64
	TopK                int
	SearchWorkers       int
	BatchMaxSnippets    int
	SeedCorpus          bool

	// JWT
	JWTSecret string

	// Rate Limiting
	RateLimitRPS float64
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")
	cfg.ShutdownTimeout = env.GetEnvDuration("SHUTDOWN_TIMEOUT_SECONDS", 30, time.Second)
	cfg.CORSOrigins = env.GetEnvList("CORS_ORIGINS", "http://localhost:3000")

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogPretty = env.GetEnvBool("LOG_PRETTY", false)

	// Storage
	cfg.StoreBackend = env.GetEnv("STORE_BACKEND", BackendMemory)
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "codelens")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "codelens:corpus:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "codelens:corpus:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "codelens:corpus:dlq")
	cfg.StreamRetentionDuration = env.GetEnvDuration("STREAM_RETENTION_HOURS", 24, time.Hour)

	// Embeddings
	cfg.EmbeddingProvider = env.GetEnv("EMBEDDING_PROVIDER", "cohere")
	cfg.CohereAPIKey = env.GetEnv("COHERE_API_KEY", "")
	cfg.CohereBaseURL = env.GetEnv("COHERE_BASE_URL", "https://api.cohere.com")
	cfg.CohereEmbedModel = env.GetEnv("COHERE_EMBED_MODEL", "embed-english-v3.0")
	cfg.EmbeddingTimeout = env.GetEnvDuration("EMBEDDING_TIMEOUT_MS", 4000, time.Millisecond)

	// Engine
	cfg.MaxSnippetBytes = env.GetEnvInt("MAX_SNIPPET_BYTES", 1<<20)
	cfg.PlagiarismThreshold = env.GetEnvFloat("PLAGIARISM_THRESHOLD", 0.7)
	cfg.MatchFloor = env.GetEnvFloat("MATCH_FLOOR", 0.3)
	cfg.TopK = env.GetEnvInt("TOP_K", 10)
	cfg.SearchWorkers = env.GetEnvInt("SEARCH_WORKERS", 0)
	cfg.BatchMaxSnippets = env.GetEnvInt("BATCH_MAX_SNIPPETS", 20)
	cfg.SeedCorpus = env.GetEnvBool("SEED_CORPUS", true)

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	return cfg, nil
}

// EmbeddingsEnabled reports whether enhanced mode can reach a provider.
func (c *Config) EmbeddingsEnabled() bool {
	return c.EmbeddingProvider == "cohere" && c.CohereAPIKey != ""
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_BACKEND=mongo")
		}
		if c.MongoDBName == "" {
			return fmt.Errorf("MONGO_DB_NAME is required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendMongo, c.StoreBackend)
	}
	if c.EmbeddingProvider != "cohere" && c.EmbeddingProvider != "none" {
		return fmt.Errorf("EMBEDDING_PROVIDER must be cohere or none, got %q", c.EmbeddingProvider)
	}
	if c.EmbeddingTimeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT_MS must be greater than 0")
	}
	if c.MaxSnippetBytes <= 0 {
		return fmt.Errorf("MAX_SNIPPET_BYTES must be greater than 0")
	}
	if c.PlagiarismThreshold < 0 || c.PlagiarismThreshold > 1 {
		return fmt.Errorf("PLAGIARISM_THRESHOLD must be within [0, 1]")
	}
	if c.MatchFloor < 0 || c.MatchFloor > 1 {
		return fmt.Errorf("MATCH_FLOOR must be within [0, 1]")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be greater than 0")
	}
	if c.SearchWorkers < 0 {
		return fmt.Errorf("SEARCH_WORKERS must not be negative")
	}
	if c.BatchMaxSnippets <= 0 {
		return fmt.Errorf("BATCH_MAX_SNIPPETS must be greater than 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.RedisHost != "" && c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_HOURS must be greater than 0")
	}
	return nil
}
