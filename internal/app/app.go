// Package app wires the ordering service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/bistro-kart/db"
	"github.com/xenking/bistro-kart/internal/checkout"
	"github.com/xenking/bistro-kart/internal/domain/menu"
	"github.com/xenking/bistro-kart/internal/domain/order"
	"github.com/xenking/bistro-kart/internal/handler"
	"github.com/xenking/bistro-kart/internal/session"
	"github.com/xenking/bistro-kart/internal/storage/memory"
	"github.com/xenking/bistro-kart/internal/storage/postgres"
	"github.com/xenking/bistro-kart/pkg/health"
	"github.com/xenking/bistro-kart/pkg/httpmiddleware"
)

// service is the assembled HTTP surface with its health state.
type service struct {
	handler http.Handler
	health  *health.Health
	close   func()
}

// newService builds every dependency and the middleware chain. Health probes
// are registered but not started.
func newService(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*service, error) {
	healthSvc := health.New()
	closeFn := func() {}

	var catalog menu.Catalog
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		repo := postgres.NewMenuRepository(pool)
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		healthSvc.AddReadinessCheck("menu", 5*time.Second, health.NonEmptyCheck(repo.Count))
		catalog = repo
		closeFn = pool.Close
		lg.Info("Serving menu from PostgreSQL")
	} else {
		repo, err := memory.NewMenuRepositoryFromJSON(db.Menu)
		if err != nil {
			return nil, errors.Wrap(err, "load embedded menu")
		}
		healthSvc.AddReadinessCheck("menu", time.Second, health.NonEmptyCheck(func(context.Context) (int, error) {
			return repo.Len(), nil
		}))
		catalog = repo
		lg.Info("Serving embedded menu", zap.Int("entries", repo.Len()))
	}

	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	meter := mp.Meter("bistro")
	// The LRU bounds memory on its own, so the session count is reported
	// rather than gating readiness.
	sessions := session.NewStore(session.Config{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	if _, err := meter.Int64ObservableGauge("bistro.sessions.live",
		metric.WithDescription("Visitor sessions currently held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(sessions.Len()))
			return nil
		}),
	); err != nil {
		closeFn()
		return nil, errors.Wrap(err, "create sessions gauge")
	}

	charges, err := cfg.Pricing.Charges()
	if err != nil {
		closeFn()
		return nil, errors.Wrap(err, "pricing")
	}
	checkoutSvc, err := checkout.NewService(checkout.Config{
		Formatter: order.Formatter{
			Currency: cfg.Pricing.Currency,
			Charges:  charges,
		},
		Channel: order.Channel{
			BaseURL: cfg.Channel.BaseURL,
			Phone:   cfg.Channel.Phone,
		},
		RequiredFields: cfg.Checkout.RequiredFields,
	}, meter)
	if err != nil {
		closeFn()
		return nil, errors.Wrap(err, "create checkout service")
	}

	h, err := handler.New(handler.Config{
		ImageBaseURL: cfg.ImageBaseURL,
		CookieSecure: cfg.Session.CookieSecure,
	}, catalog, sessions, checkoutSvc, meter)
	if err != nil {
		closeFn()
		return nil, errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /livez", httpmiddleware.Route("GET /livez", http.HandlerFunc(healthSvc.LiveEndpoint)))
	mux.Handle("GET /readyz", httpmiddleware.Route("GET /readyz", http.HandlerFunc(healthSvc.ReadyEndpoint)))
	h.Register(mux)

	return &service{
		handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.Gzip(),
			httpmiddleware.Instrument("bistro-api", tp, mp),
			httpmiddleware.LogRequests(),
		),
		health: healthSvc,
		close:  closeFn,
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	svc, err := newService(ctx, lg, cfg, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}
	defer svc.close()

	svc.health.Start(ctx, 10*time.Second)
	svc.health.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           svc.handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		svc.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		svc.health.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
