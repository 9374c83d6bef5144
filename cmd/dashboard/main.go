package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orders-dashboard/config"
	"orders-dashboard/internal/delivery/http/middleware"
	v1 "orders-dashboard/internal/delivery/http/v1"
	"orders-dashboard/internal/delivery/tui"
	"orders-dashboard/internal/infrastructure/api"
	"orders-dashboard/internal/infrastructure/cache"
	"orders-dashboard/internal/infrastructure/realtime"
	"orders-dashboard/internal/usecase"
	"orders-dashboard/pkg/logger"
	"orders-dashboard/pkg/storage"

	"github.com/NYTimes/gziphandler"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

const serviceName = "orders-dashboard"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The TUI owns the terminal, so logs go to a file in that mode.
	var logOutput io.Writer
	if cfg.Mode == "tui" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file %s: %v", cfg.LogFile, err)
		}
		defer f.Close()
		logOutput = f
	}
	logger.Init(cfg.Env, cfg.LogLevel, logOutput)
	lg := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backend ---
	client := api.NewClient(cfg.APIBaseURL, api.Options{
		Timeout:   cfg.HTTPTimeout,
		RateLimit: rate.Limit(cfg.APIRateLimit),
		Burst:     cfg.APIRateBurst,
	})

	// Recent-change highlight, cleanup every window
	recent := cache.NewRecentTracker(cfg.RecentWindow, cfg.RecentWindow)
	dashboard := usecase.NewDashboard(client, recent)

	// --- Export Storage ---
	store, err := storage.New(ctx, storage.Options{
		Driver:            cfg.ExportDriver,
		LocalDir:          cfg.ExportDir,
		URLPrefix:         cfg.ExportURLPrefix,
		R2AccountID:       cfg.R2AccountID,
		R2AccessKeyID:     cfg.R2AccessKeyID,
		R2AccessKeySecret: cfg.R2AccessKeySecret,
		R2BucketName:      cfg.R2BucketName,
		R2PublicURL:       cfg.R2PublicURL,
		UploadTimeout:     cfg.ExportUploadTimeout,
	})
	if err != nil {
		// Export is optional; everything else still works.
		lg.Error().Err(err).Msg("Failed to initialize export storage")
		store = nil
	}
	exporter := usecase.NewExportUsecase(store)

	// --- Push Channel ---
	manager, err := realtime.NewManager(cfg.SocketURL, realtime.Options{
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid socket URL")
	}
	defer func() {
		if err := manager.Release(); err != nil {
			lg.Warn().Err(err).Msg("Failed to close push connection")
		}
	}()

	conn := manager.Connect(ctx)
	conn.OnNewOrder(dashboard.ApplyNewOrder)
	conn.OnOrderUpdated(dashboard.ApplyOrderUpdated)
	conn.OnStatsUpdated(dashboard.ApplyStats)
	conn.OnLiveViewsUpdated(dashboard.ApplyLiveViews)
	conn.OnConnectivity(dashboard.ApplyConnectivity)
	dashboard.ApplyConnectivity(conn.Connected())

	go func() {
		if err := dashboard.Load(ctx); err != nil {
			lg.Error().Err(err).Msg("Orders unavailable; restart to retry")
		}
	}()
	go dashboard.TrackView(ctx)

	logger.ServiceStart(serviceName, cfg.Mode, cfg.APIBaseURL)
	defer logger.ServiceStop(serviceName)

	switch cfg.Mode {
	case "serve":
		err = serve(ctx, cfg, dashboard, exporter)
	default:
		err = runTUI(ctx, dashboard, exporter)
	}
	if err != nil {
		lg.Error().Err(err).Msg("Exited with error")
		fmt.Fprintln(os.Stderr, err)
	}
}

func runTUI(ctx context.Context, dashboard *usecase.Dashboard, exporter *usecase.ExportUsecase) error {
	program := tea.NewProgram(
		tui.NewModel(dashboard, exporter),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func serve(ctx context.Context, cfg *config.Config, dashboard *usecase.Dashboard, exporter *usecase.ExportUsecase) error {
	lg := logger.Get()

	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, dashboard, exporter)

	// Initialize Rate Limiter with lifecycle management
	// 20 req/s, burst 40, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(ctx, 20, 40, time.Minute, 3*time.Minute)
	defer rateLimiter.Shutdown()

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	lg.Info().Msgf("Local API listening on %s", srv.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	lg.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	lg.Info().Msg("Server exited properly")
	return nil
}
