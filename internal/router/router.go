package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	authHandler "github.com/medilab/lab-api/internal/handler/auth"
	catalogHandler "github.com/medilab/lab-api/internal/handler/catalog"
	healthHandler "github.com/medilab/lab-api/internal/handler/health"
	laborderHandler "github.com/medilab/lab-api/internal/handler/laborder"
	listingHandler "github.com/medilab/lab-api/internal/handler/listing"
	prescriptionHandler "github.com/medilab/lab-api/internal/handler/prescription"
	recordHandler "github.com/medilab/lab-api/internal/handler/record"
	"github.com/medilab/lab-api/internal/middleware"
	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/pkg/auth"
	"github.com/medilab/lab-api/pkg/validator"
)

type Handlers struct {
	Auth         *authHandler.Handler
	Catalog      *catalogHandler.Handler
	Health       *healthHandler.Handler
	LabOrder     *laborderHandler.Handler
	Prescription *prescriptionHandler.Handler
	Record       *recordHandler.Handler
	Listing      *listingHandler.Handler
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	CORS           middleware.CORSConfig
	MetricsPrefix  string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New(authMW *middleware.AuthMiddleware, handlers Handlers, cfg Config, logger zerolog.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	validator.RegisterBindingRules()
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     authMW,
		handlers: handlers,
		metrics:  newRouterMetrics(cfg.MetricsPrefix),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		r.metricsMiddleware(),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.CORS(cfg.CORS),
	)
	engine.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.handlers.Health.RegisterRoutes(api)
	api.GET("/health/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	r.handlers.Auth.RegisterRoutes(api)

	// Staff routes
	staff := api.Group("")
	staff.Use(r.auth.Authenticate(), r.auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	{
		catalogGroup := staff.Group("")
		catalogGroup.Use(middleware.CacheControl(300))
		r.handlers.Catalog.RegisterRoutes(catalogGroup)

		r.handlers.LabOrder.RegisterRoutes(staff)
		r.handlers.Prescription.RegisterRoutes(staff)
		r.handlers.Listing.RegisterRoutes(staff)

		r.handlers.Record.RegisterRoutes(staff.Group("/lab-orders"), model.KindLabOrder)
		r.handlers.Record.RegisterRoutes(staff.Group("/prescription-tests"), model.KindPrescriptionTest)
	}

	// Patient-facing routes
	patient := api.Group("")
	patient.Use(r.auth.Authenticate())
	r.handlers.Listing.RegisterPatientRoutes(patient)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
