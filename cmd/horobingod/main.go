package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/horobingo-go/internal/adapters/clock"
	"github.com/randomtoy/horobingo-go/internal/adapters/content"
	httpadapter "github.com/randomtoy/horobingo-go/internal/adapters/http"
	"github.com/randomtoy/horobingo-go/internal/adapters/i18n"
	"github.com/randomtoy/horobingo-go/internal/adapters/llm/openrouter"
	"github.com/randomtoy/horobingo-go/internal/adapters/storage"
	"github.com/randomtoy/horobingo-go/internal/app"
	"github.com/randomtoy/horobingo-go/internal/config"
	"github.com/randomtoy/horobingo-go/internal/domain"
)

func main() {
	if err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		slog.Error("failed to load env files", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Broken lookup tables or content are a build defect; refuse to start.
	pools := content.NewEmbeddedStore(cfg.DefaultLanguage)
	catalogs := i18n.NewCatalogs(cfg.DefaultLanguage)
	for name, validate := range map[string]func() error{
		"tables":   domain.ValidateTables,
		"content":  pools.Validate,
		"catalogs": catalogs.Validate,
	} {
		if err := validate(); err != nil {
			logger.Error("startup validation failed", "check", name, "error", err)
			os.Exit(1)
		}
	}

	llmClient := openrouter.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		cfg.OpenRouterAPIKey,
		cfg.OpenRouterBaseURL,
		cfg.LLMModel,
		cfg.LLMTemperature,
		logger,
	)
	if cfg.OpenRouterAPIKey == "" {
		logger.Warn("OPENROUTER_API_KEY not set, boards come from the fallback pools")
	}

	store := storage.NewFS(cfg.DataDir, logger)
	events := app.NewBroadcaster(logger)

	svc := app.NewGameService(app.Deps{
		Players:         store,
		Boards:          store,
		Preferences:     store,
		Generator:       app.NewBoardGenerator(llmClient, pools, catalogs, cfg.LLMTimeout, logger),
		Localizer:       catalogs,
		Clock:           clock.NewLocal(cfg.Location),
		Publisher:       events,
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := svc.Open(ctx); err != nil {
		logger.Error("failed to open session", "error", err)
		os.Exit(1)
	}
	state := svc.State()
	logger.Info("session opened", "board", state.Key.String(), "level", state.Player.Level)

	rolloverDone := make(chan struct{})
	go func() {
		defer close(rolloverDone)
		svc.WatchRollover(ctx, cfg.RolloverInterval)
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger, svc))

	handler := httpadapter.NewHandler(svc, events, catalogs, logger)
	handler.Register(e)

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	<-rolloverDone
	svc.Close()
}
