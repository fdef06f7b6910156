// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/campusdesk/go-doubt-backend/internal/ai"
	"github.com/campusdesk/go-doubt-backend/internal/config"
	"github.com/campusdesk/go-doubt-backend/internal/domain"
	"github.com/campusdesk/go-doubt-backend/internal/http/handlers"
	"github.com/campusdesk/go-doubt-backend/internal/http/middleware"
	"github.com/campusdesk/go-doubt-backend/internal/repo"
	"github.com/campusdesk/go-doubt-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// doubtRepoShim adapts the repository free functions to the services.DoubtRepo
// interface expected by the DoubtService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type doubtRepoShim struct{}

// CreateDoubt proxies repo.CreateDoubt.
func (doubtRepoShim) CreateDoubt(ctx context.Context, db *gorm.DB, d *domain.Doubt) (*domain.Doubt, error) {
	return repo.CreateDoubt(ctx, db, d)
}

// GetDoubt proxies repo.GetDoubt.
func (doubtRepoShim) GetDoubt(ctx context.Context, db *gorm.DB, id string) (*domain.Doubt, error) {
	return repo.GetDoubt(ctx, db, id)
}

// CountDoubts proxies repo.CountDoubts (pagination support).
func (doubtRepoShim) CountDoubts(ctx context.Context, db *gorm.DB, courseID string, status domain.Status) (int64, error) {
	return repo.CountDoubts(ctx, db, courseID, status)
}

// ListDoubtsPage proxies repo.ListDoubtsPage (pagination support).
func (doubtRepoShim) ListDoubtsPage(ctx context.Context, db *gorm.DB, courseID string, status domain.Status, offset, limit int) ([]domain.Doubt, error) {
	return repo.ListDoubtsPage(ctx, db, courseID, status, offset, limit)
}

// AdvanceStatus proxies repo.AdvanceStatus.
func (doubtRepoShim) AdvanceStatus(ctx context.Context, db *gorm.DB, id string, expected, next domain.Status, note string, now time.Time) error {
	return repo.AdvanceStatus(ctx, db, id, expected, next, note, now)
}

// SetAIAnswer proxies repo.SetAIAnswer.
func (doubtRepoShim) SetAIAnswer(ctx context.Context, db *gorm.DB, id, answer string) error {
	return repo.SetAIAnswer(ctx, db, id, answer)
}

// IncrementViews proxies repo.IncrementViews.
func (doubtRepoShim) IncrementViews(ctx context.Context, db *gorm.DB, id string) error {
	return repo.IncrementViews(ctx, db, id)
}

// IncrementVotes proxies repo.IncrementVotes.
func (doubtRepoShim) IncrementVotes(ctx context.Context, db *gorm.DB, id string) error {
	return repo.IncrementVotes(ctx, db, id)
}

// replyRepoShim adapts the reply free functions to services.ReplyRepo.
type replyRepoShim struct{}

// AppendReply proxies repo.AppendReply.
func (replyRepoShim) AppendReply(ctx context.Context, db *gorm.DB, doubtID, content string, by domain.Identity, role string, isAI, isAccepted bool) (*domain.Reply, error) {
	return repo.AppendReply(ctx, db, doubtID, content, by, role, isAI, isAccepted)
}

// ListReplies proxies repo.ListReplies.
func (replyRepoShim) ListReplies(ctx context.Context, db *gorm.DB, doubtID string) ([]domain.Reply, error) {
	return repo.ListReplies(ctx, db, doubtID)
}

// CountReplies proxies repo.CountReplies.
func (replyRepoShim) CountReplies(ctx context.Context, db *gorm.DB, doubtID string) (int64, error) {
	return repo.CountReplies(ctx, db, doubtID)
}

// HasProfessorReply proxies repo.HasProfessorReply.
func (replyRepoShim) HasProfessorReply(ctx context.Context, db *gorm.DB, doubtID string) (bool, error) {
	return repo.HasProfessorReply(ctx, db, doubtID)
}

// ResolveWithReply proxies repo.ResolveWithReply.
func (replyRepoShim) ResolveWithReply(ctx context.Context, db *gorm.DB, doubtID string, expected domain.Status, replyID, note string, now time.Time) error {
	return repo.ResolveWithReply(ctx, db, doubtID, expected, replyID, note, now)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, response compression
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, provider ai.Provider, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and gzip responses
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Name", "X-User-Role", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Name", "X-User-Role", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in via SWAGGER_ENABLED)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: repo shims and the AI provider feed the service.
	doubtSvc := services.NewDoubtService(db, doubtRepoShim{}, replyRepoShim{}, provider)
	doubtSvc.AITimeout = cfg.AI.Timeout
	doubtSvc.TitleLocale = language.English

	h := handlers.New(doubtSvc, doubtSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Doubts
		api.POST("/doubts", h.AskDoubt)
		api.GET("/doubts", h.ListDoubts)
		api.GET("/doubts/:id", h.GetDoubt)

		// Student verdict on the AI draft
		api.POST("/doubts/:id/solve", h.MarkSolved)
		api.POST("/doubts/:id/escalate", h.MarkStillConfused)

		// Community signals
		api.POST("/doubts/:id/vote", h.VoteDoubt)

		// Replies
		api.POST("/doubts/:id/replies", h.PostReply)
		api.GET("/doubts/:id/replies", h.ListReplies)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
