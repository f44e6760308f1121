package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/infrastructure/config"
	"github.com/gpms/backend/internal/infrastructure/logger"
	"github.com/gpms/backend/internal/interfaces/http/middleware"
)

// EngineOptions configures the middleware chain of NewEngine
type EngineOptions struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	Release bool
}

// NewEngine builds a gin engine with the standard middleware chain:
// tracing, request logging, panic recovery, span tagging and body limit.
func NewEngine(opts EngineOptions, log *zap.Logger) (*gin.Engine, error) {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("invalid trusted proxies: %w", err)
		}
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	engine.Use(middleware.Tracing(opts.Tracing))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if opts.Tracing.Enabled {
		engine.Use(middleware.SpanAttributes())
	}
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	return engine, nil
}
