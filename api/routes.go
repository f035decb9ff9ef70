package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mailboost/mailboost/api/handlers"
	"github.com/mailboost/mailboost/api/middleware"
	"github.com/mailboost/mailboost/internal/tracing"
	"github.com/mailboost/mailboost/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/healthz", handlers.HealthCheck)
	r.GET("/status", handlers.Status(s.Poller, s.SeenAccountStore))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Manual-trigger surface only exists when an API key is configured.
	if apikey == "" {
		return
	}

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILBOOST-API-KEY",
		ValidAPIKey: apikey,
	})

	v1 := r.Group("/v1")
	v1.Use(apiKeyMiddleware)
	{
		v1.POST("/poll", handlers.TriggerPoll(s.Poller))
	}
}
