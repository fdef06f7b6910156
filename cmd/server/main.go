// Command server runs the campus doubt escalation backend: an HTTP API for
// asking doubts, replying to them, and a background sweeper that walks
// unresolved doubts up the visibility ladder on dwell timers.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campusdesk/go-doubt-backend/internal/ai"
	"github.com/campusdesk/go-doubt-backend/internal/config"
	"github.com/campusdesk/go-doubt-backend/internal/escalation"
	httpapi "github.com/campusdesk/go-doubt-backend/internal/http"
	"github.com/campusdesk/go-doubt-backend/internal/notes"
	"github.com/campusdesk/go-doubt-backend/internal/observability"
	"github.com/campusdesk/go-doubt-backend/internal/repo"
	"github.com/campusdesk/go-doubt-backend/internal/sysutil"

	_ "github.com/campusdesk/go-doubt-backend/docs" // swagger spec, generated
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title       Campus Doubt Escalation API
// @version     1.0
// @description REST API for asking campus doubts, escalating them through the forum ladder, and resolving them with professor replies.
// @BasePath    /api/v1
// @schemes     http
func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	provider := buildProvider(ctx, cfg.AI)

	// Background escalation sweeps.
	sweeper := &escalation.Sweeper{
		DB: db,
		Thresholds: escalation.Thresholds{
			OpenAfter:      cfg.Escalation.OpenAfter,
			SeniorAfter:    cfg.Escalation.SeniorAfter,
			ProfessorAfter: cfg.Escalation.ProfessorAfter,
		},
		Interval: cfg.Escalation.SweepInterval,
		Timeout:  cfg.Escalation.SweepTimeout,
		Log:      log.With().Str("component", "sweeper").Logger(),
	}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("sweeper start failed")
	}
	defer sweeper.Stop()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, provider, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

// buildProvider assembles the first-pass answer chain: Gemini first, course
// notes retrieval as the local fallback. Either piece degrades to disabled
// when unconfigured, so the chain may legitimately answer nothing.
func buildProvider(ctx context.Context, cfg config.AIConfig) ai.Provider {
	chain := ai.Chain{}

	gem, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Warn().Err(err).Msg("gemini init failed; continuing without it")
	} else {
		chain = append(chain, gem)
	}

	if cfg.NotesPath != "" {
		corpus, err := notes.NewCorpusFromMarkdown(cfg.NotesPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.NotesPath).Msg("course notes unavailable")
		} else {
			chain = append(chain, &ai.NotesProvider{Corpus: corpus})
			log.Info().Str("path", cfg.NotesPath).Msg("course notes loaded")
		}
	}

	return chain
}
