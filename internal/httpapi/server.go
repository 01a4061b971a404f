package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"bedrock-chatbot/internal/chat"
	"bedrock-chatbot/internal/domain"
)

// ModelLister provides the model catalog endpoint's backend.
type ModelLister interface {
	ListModels(ctx context.Context) (models []domain.ModelInfo, fallback bool, err error)
}

// Server is the HTTP surface over the conversation core. It translates
// requests into registry/session operations and chat errors into status
// codes; it holds no conversation state of its own.
type Server struct {
	registry     *chat.Registry
	models       ModelLister
	region       string
	defaultModel string
	logger       *slog.Logger
	tracer       trace.Tracer

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// Options configures a Server.
type Options struct {
	Region       string
	DefaultModel string
	CORSOrigins  []string
	Logger       *slog.Logger
	Tracer       trace.Tracer
	Meter        metric.Meter
}

// NewServer creates the server and its instruments.
func NewServer(registry *chat.Registry, models ModelLister, opts Options) (*Server, error) {
	if registry == nil {
		return nil, errors.New("httpapi: registry must not be nil")
	}
	if models == nil {
		return nil, errors.New("httpapi: model lister must not be nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		registry:     registry,
		models:       models,
		region:       opts.Region,
		defaultModel: opts.DefaultModel,
		logger:       opts.Logger,
		tracer:       opts.Tracer,
	}

	if opts.Meter != nil {
		var err error
		s.requests, err = opts.Meter.Int64Counter("http.server.requests",
			metric.WithDescription("Completed HTTP requests"))
		if err != nil {
			return nil, err
		}
		s.latency, err = opts.Meter.Float64Histogram("http.server.duration",
			metric.WithDescription("Request duration in milliseconds"),
			metric.WithUnit("ms"))
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Engine builds the gin engine with all routes registered.
func (s *Server) Engine(origins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe())
	_ = engine.SetTrustedProxies(nil)

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/", s.root)
	engine.GET("/health", s.health)
	engine.POST("/chat", s.chat)
	engine.GET("/history/:session_id", s.history)
	engine.GET("/session/:session_id", s.sessionInfo)
	engine.GET("/sessions", s.sessions)
	engine.DELETE("/session/:session_id", s.deleteSession)
	engine.POST("/models/list", s.listModels)

	return engine
}

// observe spans each request and records count and latency per route/status.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := c.Request.Context()
		if s.tracer != nil {
			var span trace.Span
			ctx, span = s.tracer.Start(ctx, c.Request.Method+" "+c.FullPath())
			defer span.End()
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		if s.requests != nil {
			attrs := metric.WithAttributes(
				attribute.String("http.route", c.FullPath()),
				attribute.String("http.method", c.Request.Method),
				attribute.Int("http.status_code", c.Writer.Status()),
			)
			s.requests.Add(ctx, 1, attrs)
			s.latency.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), attrs)
		}
	}
}
