package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"memegen/internal/encoder"
	"memegen/internal/http/handlers"
	httpapi "memegen/internal/http/httpapi"
	"memegen/internal/infra"
	"memegen/internal/providers/genai"
	"memegen/internal/session"
	"memegen/internal/workflow"
)

const (
	shutdownGrace = 15 * time.Second
	drainGrace    = 30 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	genLogger := infra.Component(logger, "genai")
	client, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &genLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}

	enc := encoder.New()
	workflowLogger := infra.Component(logger, "workflow")
	sessionLogger := infra.Component(logger, "session")
	sessions := session.NewStore(func() (*workflow.Controller, error) {
		return workflow.NewController(workflow.Options{
			Encoder:   enc,
			Generator: client,
			Logger:    &workflowLogger,
		})
	}, cfg.SessionTTL, &sessionLogger)

	httpLogger := infra.Component(logger, "http")
	app := handlers.NewApp(sessions, &httpLogger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		GenerateLimit:   cfg.RateLimitPerMin,
		GenerateLimitBy: time.Minute,
		TrustProxy:      cfg.TrustProxyHeaders,
		Logger:          httpLogger,
	})
	server := infra.NewHTTPServer(cfg, router)
	server.OnShutdown(sessions.CloseAll)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("model", cfg.GeminiModel).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		return sessions.RunSweeper(gctx, cfg.SessionSweepSchedule)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server")
		}

		drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainGrace)
		defer cancelDrain()
		if err := app.Drain(drainCtx); err != nil {
			logger.Warn().Err(err).Msg("generations still running at shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}
