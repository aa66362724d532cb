// Package router assembles the gin engine of the lifecycle API.
package router

import (
	"time"

	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// DefaultMaxBodyBytes bounds request bodies when EngineConfig leaves it unset
const DefaultMaxBodyBytes = 1 << 20

// EngineConfig controls the global middleware chain
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Metrics        middleware.HTTPMetricsConfig
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []string
}

// NewEngine creates a gin engine carrying the middleware every request goes
// through, authenticated or not. Tracing comes first so the request ID, the
// access log and recovery all run inside the request span.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	base := cfg.Logger
	if base == nil {
		base = zap.NewNop()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanErrorMarker(),
		middleware.RequestID(),
		logger.GinMiddleware(base),
		logger.Recovery(base),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.Secure(),
		middleware.BodyLimit(maxBody),
		middleware.Timeout(cfg.RequestTimeout),
	)
	engine.NoRoute(middleware.NoRoute())
	return engine, nil
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware adds middleware run on every versioned API route, after the
// global chain. Authentication belongs here.
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes with the engine under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
