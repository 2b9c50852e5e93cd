// Package router assembles the gin engine: the middleware chain, the public
// health route and the authenticated /api/v1 group.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tyrefleet/backend/internal/infrastructure/logger"
	"github.com/tyrefleet/backend/internal/interfaces/http/handler"
	"github.com/tyrefleet/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar mounts a set of routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds the engine settings
type Config struct {
	ServiceName    string
	Mode           string
	TracingEnabled bool
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	TrustedProxies []string
	Meter          metric.Meter
}

// Router builds the engine from its parts
type Router struct {
	cfg        Config
	logger     *zap.Logger
	verifier   middleware.TokenVerifier
	system     *handler.SystemHandler
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g. "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithSystemHandler mounts /health outside authentication
func WithSystemHandler(h *handler.SystemHandler) RouterOption {
	return func(r *Router) {
		r.system = h
	}
}

// NewRouter creates a Router. Every registered group sits behind bearer auth.
func NewRouter(cfg Config, verifier middleware.TokenVerifier, log *zap.Logger, opts ...RouterOption) *Router {
	r := &Router{
		cfg:        cfg,
		logger:     log,
		verifier:   verifier,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar mounted by Engine
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Engine builds the gin engine
func (r *Router) Engine() (*gin.Engine, error) {
	if r.cfg.Mode != "" {
		gin.SetMode(r.cfg.Mode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(r.cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		logger.Recovery(r.logger),
		logger.RequestID(),
		middleware.Tracing(r.cfg.ServiceName, r.cfg.TracingEnabled),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(r.logger),
		middleware.HTTPMetrics(r.cfg.Meter, r.logger),
		middleware.Secure(),
		middleware.CORS(r.cfg.CORS),
		middleware.BodyLimit(r.cfg.MaxBodySize),
	)

	if r.system != nil {
		engine.GET("/health", r.system.Health)
		engine.GET("/api/"+r.apiVersion+"/health", r.system.Health)
	}

	api := engine.Group("/api/"+r.apiVersion, middleware.Auth(r.verifier), middleware.SpanAttributes())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return engine, nil
}
