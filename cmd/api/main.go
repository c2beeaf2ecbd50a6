package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"skyreport/internal/adapter/repo"
	"skyreport/internal/billing"
	"skyreport/internal/http/handlers"
	"skyreport/internal/http/httpapi"
	"skyreport/internal/infra"
	"skyreport/internal/infra/geoip"
	"skyreport/internal/renderpdf"
	"skyreport/internal/report"
	"skyreport/internal/storage"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	app := &handlers.App{
		Logger: logger,
		Cfg:    cfg,
		Renderer: renderpdf.New(renderpdf.Options{
			BaseURL: cfg.RenderBaseURL,
			Timeout: cfg.PDFTimeout,
		}),
		ReportOpts: report.DefaultOptions(),
	}

	if cfg.BillingBaseURL != "" {
		app.Billing = billing.New(billing.Options{
			BaseURL: cfg.BillingBaseURL,
			APIKey:  cfg.BillingAPIKey,
		})
	}

	ctx := context.Background()
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		app.Submissions = repo.NewSubmissionRepository(pool)
	}

	if cfg.ArchiveDir != "" {
		archive, err := storage.NewArchiveStore(cfg.ArchiveDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize draft archive")
		}
		app.Archive = archive
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver disabled")
	} else if resolver != nil {
		app.Country = resolver
		if closer, ok := resolver.(*geoip.Resolver); ok {
			defer closer.Close()
		}
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
