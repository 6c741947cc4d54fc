package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/api"
	"github.com/RishiKendai/codelens/internal/config"
	"github.com/RishiKendai/codelens/internal/configs/env"
	"github.com/RishiKendai/codelens/internal/embedding"
	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/codelens/internal/infra/redis"
	"github.com/RishiKendai/codelens/internal/logger"
	"github.com/RishiKendai/codelens/internal/observability"
	"github.com/RishiKendai/codelens/internal/plagiarism"
	"github.com/RishiKendai/codelens/internal/repository"
	"github.com/RishiKendai/codelens/internal/stream"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("store", cfg.StoreBackend).Bool("embeddings", cfg.EmbeddingsEnabled()).Msg("Starting codelens server")

	observability.InitPrometheus()
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", observability.MetricsHandler())
	metricsServer := api.StartServer("metrics", metricsMux, cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corpusStore, reportStore, closeStores := openStores(ctx, cfg)
	defer closeStores()

	var redisClient *redisInfra.Client
	if cfg.RedisHost != "" {
		redisClient, err = redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Redis client")
		}
		defer redisClient.Close()
	}

	var embedder *embedding.Embedder
	if cfg.EmbeddingsEnabled() {
		var cache embedding.Cache = embedding.NewMemoryCache()
		if redisClient != nil {
			cache = embedding.NewTieredCache(cache, embedding.NewRedisCache(redisClient.Client, "codelens:embedding:"))
		}
		provider := embedding.NewCohereClient(cfg.CohereBaseURL, cfg.CohereAPIKey, cfg.CohereEmbedModel)
		embedder = embedding.NewEmbedder(provider, cache, cfg.EmbeddingTimeout, cfg.CohereEmbedModel)
		log.Info().Str("model", cfg.CohereEmbedModel).Dur("timeout", cfg.EmbeddingTimeout).Msg("Embedding provider configured")
	}

	workerPool := plagiarism.NewWorkerPool(ctx, 0)
	defer workerPool.Close()

	svc := engine.New(corpusStore, reportStore, embedder, workerPool, engine.Options{
		MaxSnippetBytes:     cfg.MaxSnippetBytes,
		PlagiarismThreshold: cfg.PlagiarismThreshold,
		TopK:                cfg.TopK,
		MatchFloor:          cfg.MatchFloor,
		SearchWorkers:       cfg.SearchWorkers,
		BatchMaxSnippets:    cfg.BatchMaxSnippets,
	})

	if cfg.SeedCorpus {
		if _, err := svc.SeedCorpus(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed corpus")
		}
	}
	if n, err := corpusStore.Count(ctx); err == nil {
		observability.CorpusSize.Set(float64(n))
	}

	if redisClient != nil {
		startConsumer(ctx, cfg, redisClient, svc)
	}

	srv := api.StartServer("api", api.SetupRoutes(cfg, svc), cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")
	if err := api.ShutdownServer(srv, cfg.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}
	cancel()
	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}
	log.Info().Msg("Shutdown complete")
}

// openStores returns the corpus and report stores for the configured
// backend and a func releasing them.
func openStores(ctx context.Context, cfg *config.Config) (repository.CorpusStore, repository.ReportStore, func()) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn().Msg("Using in-memory stores, history is lost on restart")
		return repository.NewMemoryCorpus(), repository.NewMemoryReports(), func() {}
	}

	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	mongoRepo := repository.NewMongoRepository(mongoClient)
	corpusRepo := repository.NewCorpusRepository(mongoRepo)
	reportsRepo := repository.NewReportsRepository(mongoRepo)

	if err := corpusRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create corpus indexes")
	}
	if err := reportsRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create report indexes")
	}

	return corpusRepo, reportsRepo, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Close(closeCtx)
	}
}

func startConsumer(ctx context.Context, cfg *config.Config, redisClient *redisInfra.Client, svc *engine.Service) {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])

	retryHandler := stream.NewRetryHandler(
		stream.NewRedisDeadLetterQueue(redisClient.Client, cfg.RedisDeadLetterKey),
		3, 500*time.Millisecond, 10*time.Second,
	)
	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		svc,
		retryHandler,
		cfg.StreamRetentionDuration,
	)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Corpus stream consumer stopped")
		}
	}()
	log.Info().Str("consumer_name", consumerName).Str("stream", cfg.RedisStreamKey).Msg("Corpus stream consumer started")
}
