package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpapi "contentstudio/internal/http"
	"contentstudio/internal/http/handlers"
	"contentstudio/internal/infra"
	"contentstudio/internal/infra/credentials"
	"contentstudio/internal/infra/geoip"
	"contentstudio/internal/providers/explain"
	"contentstudio/internal/providers/genai"
	"contentstudio/internal/providers/metadata"
	"contentstudio/internal/providers/promptgen"
	"contentstudio/internal/providers/shellcmd"
	"contentstudio/internal/providers/social"
	"contentstudio/internal/usage"
	"contentstudio/internal/videojob"
	"contentstudio/internal/viral"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// DB pool opsional: tanpa DATABASE_URL pakai store in-memory.
	var (
		creds    credentials.Store
		recorder *usage.Recorder
	)
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		creds = credentials.NewSQLStore(runner)
		recorder = usage.NewRecorder(runner, logger)
		if cfg.GeminiAPIKey != "" {
			if err := creds.SetAPIKey(ctx, cfg.GeminiAPIKey); err != nil {
				logger.Warn().Err(err).Msg("failed to seed api key")
			}
		}
	} else {
		creds = credentials.NewMemoryStore(cfg.GeminiAPIKey)
	}

	client, err := genai.NewClient(genai.Options{
		Credentials:        creds,
		BaseURL:            cfg.GeminiBaseURL,
		TextModel:          cfg.TextModel,
		ImageModel:         cfg.ImageModel,
		VideoModel:         cfg.VideoModel,
		Logger:             &logger,
		StatusCheckTimeout: cfg.StatusCheckTimeout,
		GenerateTimeout:    cfg.GenerateTimeout,
		FetchTimeout:       cfg.FetchTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build genai client")
	}

	poller, err := videojob.NewPoller(videojob.Options{
		Client:   client,
		Interval: cfg.VideoPollInterval,
		Logger:   &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video poller")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}

	app := &handlers.App{
		Logger:         logger,
		Credentials:    creds,
		Usage:          recorder,
		Explainer:      explain.NewExplainer(client),
		PromptGen:      promptgen.NewGenerator(client),
		Tagger:         metadata.NewGenerator(client),
		SocialWriter:   social.NewWriter(client),
		ShellGen:       shellcmd.NewGenerator(client),
		Pipelines:      viral.NewManager(viral.NewGeminiRunner(client)),
		Poller:         poller,
		DefaultCountry: "United States",
	}

	router := httpapi.NewRouter(app, cfg, resolver)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	poller.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
