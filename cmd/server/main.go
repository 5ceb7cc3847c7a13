package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
	"github.com/juju/webbrowser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifeline/internal/apiclient"
	"lifeline/internal/config"
	"lifeline/internal/dashboard"
	"lifeline/internal/database"
	"lifeline/internal/handlers"
	"lifeline/internal/models"
	"lifeline/internal/repository"
	"lifeline/internal/security"
	"lifeline/internal/service"
	"lifeline/internal/templates"
)

var logger = loggo.GetLogger("lifeline.server")

const cleanupInterval = time.Hour

func main() {
	if err := run(); err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := loggo.ConfigureLoggers(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.Debug {
		loggo.GetLogger("lifeline").SetLogLevel(loggo.DEBUG)
	}
	if cfg.UsesDevSessionSecret() {
		logger.Warningf("SESSION_SECRET is not set; using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Infof("database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	tmpl, err := templates.Load()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	backendMetrics := apiclient.NewMetricsCollector()
	reg.MustRegister(
		backendMetrics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := handlers.NewHTTPMetrics(reg)

	// Backend client and sessions
	apiClient := apiclient.New(cfg.APIBaseURL(),
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithMetrics(backendMetrics),
	)
	sessionRepo := repository.NewSessionRepository(db, security.NewTokenBox(cfg.SessionSecret))
	authService := service.NewAuthService(sessionRepo, apiClient, clock.WallClock, cfg.SessionDuration)

	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, clock.WallClock)
	registry := dashboard.NewRegistry(clock.WallClock)

	newBackend := func(s *models.Session, onRevoked apiclient.RevokeFunc) dashboard.Backend {
		return dashboard.FromServices(service.NewServices(apiClient.WithSession(s.Token, onRevoked)))
	}

	// Handlers
	middleware := handlers.NewMiddleware(authService, csrf, limiter)
	authHandler := handlers.NewAuthHandler(authService, tmpl, clock.WallClock, cfg.CallbackRedirectDelay, registry.Drop)
	homeHandler := handlers.NewHomeHandler(authService, registry, newBackend, csrf, tmpl, clock.WallClock, handlers.HomeOptions{
		Location:       time.Local,
		ChatWebhookURL: cfg.ChatWebhookURL,
		UploadMaxSize:  cfg.UploadMaxSize,
	})

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware, authHandler, homeHandler, cfg.UploadMaxSize)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      httpMetrics.Wrap(handlers.Logging(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupLoop(ctx, clock.WallClock, authService, registry, limiter, cfg.DashboardIdleTimeout)

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("server starting on %s", cfg.PublicBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cfg.OpenBrowser {
		openBrowser(cfg.PublicBaseURL)
	}

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// cleanupLoop drops expired sessions, idle dashboards and stale rate limit
// windows once per cleanupInterval until ctx is done
func cleanupLoop(ctx context.Context, clk clock.Clock, auth *service.AuthService, registry *dashboard.Registry, limiter *security.RateLimiter, idle time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clk.After(cleanupInterval):
		}

		n, err := auth.CleanupExpiredSessions(ctx)
		if err != nil {
			logger.Errorf("error cleaning up expired sessions: %v", err)
		} else if n > 0 {
			logger.Infof("removed %d expired sessions", n)
		}
		if n := registry.Sweep(idle); n > 0 {
			logger.Infof("dropped %d idle dashboards", n)
		}
		limiter.Sweep()
	}
}

func openBrowser(raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		logger.Warningf("cannot open browser for %q: %v", raw, err)
		return
	}
	if err := webbrowser.Open(u); err != nil {
		logger.Warningf("cannot open browser: %v", err)
	}
}
