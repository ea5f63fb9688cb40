package router

import (
	"net/http"

	"anime-character-catalog/backend/internal/api"
	"anime-character-catalog/backend/pkg/config"
	"anime-character-catalog/backend/pkg/di"
	"anime-character-catalog/backend/pkg/errors"
	"anime-character-catalog/backend/pkg/logger"
	"anime-character-catalog/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "anime_catalog"

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	cfg := container.Config

	// Configure Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		container.Logger.Warn("Ignoring invalid trusted proxies", "error", err.Error())
	}

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Metrics wrap the error handler so they see the status it writes
	httpMetrics := middleware.NewHTTPMetrics(metricsNamespace, container.Metrics)
	engine.Use(httpMetrics.Middleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	engine.Use(limitBody(cfg.Security.MaxBodySize))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.setupOpenAPI()
	r.setupHealthRoutes()

	r.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.Container.Metrics, promhttp.HandlerOpts{})))

	characterHandler := api.NewCharacterHandler(r.Container.CharacterService)

	// The unversioned paths are the primary surface; /api/v1 mirrors them.
	characterHandler.RegisterRoutes(r.Engine.Group("/api/characters"))
	characterHandler.RegisterRoutes(r.Engine.Group("/api/v1/characters"))

	r.Engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(errors.NewNotFoundError(errors.CodeRouteNotFound, "Route not found"))
	})
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
