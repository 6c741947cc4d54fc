package api

import (
	"github.com/gin-gonic/gin"

	"github.com/RishiKendai/codelens/internal/config"
	"github.com/RishiKendai/codelens/internal/engine"
)

func SetupRoutes(cfg *config.Config, svc *engine.Service) *gin.Engine {
	router := gin.New()
	// Two files per comparison plus form overhead.
	router.MaxMultipartMemory = 2*int64(cfg.MaxSnippetBytes) + 1<<20

	handler := NewHandler(svc, cfg.MaxSnippetBytes)
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	router.Use(RecoveryMiddleware())
	router.Use(RequestLogger())
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.CORSOrigins))

	api := router.Group("/api")
	api.GET("/health", handler.Health)

	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/analyze", handler.Analyze)
		api.POST("/analyze-enhanced", handler.AnalyzeEnhanced)
		api.POST("/batch-analyze", handler.BatchAnalyze)
		api.POST("/upload", handler.Upload)
		api.GET("/supported-languages", handler.SupportedLanguages)
		api.GET("/statistics", handler.Statistics)

		comparison := api.Group("/comparison")
		comparison.POST("/compare", handler.Compare)
		comparison.POST("/upload", handler.UploadCompare)
		comparison.GET("/report/:id", handler.Report)
		comparison.GET("/history", handler.History)

		corpus := api.Group("/corpus")
		if cfg.JWTSecret != "" {
			// Authenticated clients are limited by subject on top of IP.
			corpus.Use(JWTAuthMiddleware(cfg.JWTSecret), RateLimitMiddleware(rateLimiter))
		}
		corpus.POST("", handler.AddToCorpus)
	}

	return router
}
