package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"imagefallback/internal/http/handlers"
	httpapi "imagefallback/internal/http/httpapi"
	"imagefallback/internal/imagegen"
	"imagefallback/internal/infra"
	"imagefallback/internal/infra/credentials"
	"imagefallback/internal/metrics"
	imageproviders "imagefallback/internal/providers/image"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg)

	store := credentials.FromConfig(cfg)
	registry, err := imageproviders.NewRegistry(cfg, store, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider registry")
	}
	for _, d := range registry {
		logger.Info().
			Str("provider", d.Name).
			Str("kind", string(d.Mode)).
			Bool("available", d.CredentialKey == "" || store.HasCredential(d.CredentialKey)).
			Msg("image provider registered")
	}

	collector := metrics.NewCollector("imagegen")
	svc := imagegen.NewService(imagegen.ServiceOptions{
		Registry:    registry,
		Credentials: store,
		Logger:      &logger,
		Recorder:    collector,
	})

	app := handlers.NewApp(svc, &logger)
	app.GenerateTimeout = infra.GenerationDeadline(infra.WriteTimeout(cfg))
	logger.Info().Dur("generate_timeout", app.GenerateTimeout).Msg("generation deadline configured")

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:             logger,
		Metrics:            collector,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultLocale:      cfg.DefaultLocale,
		RateLimitPerMin:    cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
