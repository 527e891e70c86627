package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	PredictionHandler *handlers.PredictionHandler
	SystemHandler     *handlers.SystemHandler

	CORS    *middleware.CORSConfig
	Logging *middleware.LoggingConfig

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	AppMetrics       *prometheus.AppMetrics
}

// NewRouter constructs the route tree: public probe endpoints, the metrics
// scrape endpoint, and the /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		logCfg := middleware.DefaultLoggingConfig()
		if cfg.Logging != nil {
			logCfg = *cfg.Logging
		}
		r.Use(middleware.RequestLogging(cfg.Logger, logCfg))
	}
	if cfg.AppMetrics != nil {
		r.Use(middleware.Metrics(cfg.AppMetrics))
	}

	if cfg.SystemHandler != nil {
		r.GET("/healthz", cfg.SystemHandler.Liveness)
		r.GET("/readyz", cfg.SystemHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.SystemHandler != nil {
			api.GET("/elements", cfg.SystemHandler.Elements)
		}
		if cfg.PredictionHandler != nil {
			api.POST("/predict", cfg.PredictionHandler.Predict)
			api.POST("/validate", cfg.PredictionHandler.Validate)
			api.GET("/stats", cfg.PredictionHandler.Stats)
			api.POST("/train", cfg.PredictionHandler.Train)
			api.DELETE("/cache", cfg.PredictionHandler.ClearCache)
		}
	}

	return r
}
