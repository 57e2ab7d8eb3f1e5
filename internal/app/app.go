// Package app wires the service together: config, storage, domain services,
// HTTP surface and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/summit-checkout/internal/domain/auth"
	"github.com/xenking/summit-checkout/internal/domain/community"
	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/domain/order"
	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/domain/tour"
	"github.com/xenking/summit-checkout/internal/handler"
	"github.com/xenking/summit-checkout/internal/monitor"
	"github.com/xenking/summit-checkout/internal/storage/memory"
	"github.com/xenking/summit-checkout/internal/storage/postgres"
	"github.com/xenking/summit-checkout/internal/webhook"
	"github.com/xenking/summit-checkout/internal/webhook/providers"
	"github.com/xenking/summit-checkout/pkg/health"
	"github.com/xenking/summit-checkout/pkg/httpmiddleware"
)

// repositories groups the storage implementations behind the domain
// interfaces so Run does not care which backend is active.
type repositories struct {
	tours    tour.Repository
	coupons  coupon.Repository
	orders   order.Repository
	payments payment.Repository
	apikeys  auth.Repository
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	repos, cleanup, err := buildRepositories(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer cleanup()

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	metrics, err := monitor.New(m.MeterProvider().Meter("summit-checkout"))
	if err != nil {
		return errors.Wrap(err, "create monitor")
	}

	// Domain services.
	engine := coupon.NewEngine(repos.coupons)
	paymentSvc := payment.NewService(repos.payments, engine, metrics)
	orderSvc := order.NewService(repos.tours, engine, paymentSvc, repos.orders)
	communitySrc := community.NewStaticSource(memory.SeedCommunity(time.Now()))

	// HTTP handlers.
	h := handler.NewHandler(repos.tours, engine, orderSvc, communitySrc, metrics)
	adminAuth := handler.APIKeyAuth(repos.apikeys, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes(adminAuth)))

	mux.Handle("/webhooks/mercadopago", webhook.NewHandler(
		providers.MercadoPagoConfig(cfg.Webhooks.MercadoPagoSecret),
		providers.NewMercadoPago(paymentSvc),
		metrics,
	))
	mux.Handle("/webhooks/crypto", webhook.NewHandler(
		providers.CryptoConfig(cfg.Webhooks.CryptoSecret),
		providers.NewCrypto(paymentSvc),
		metrics,
	))
	mux.Handle("/webhooks/github", webhook.NewHandler(
		providers.GitHubConfig(cfg.Webhooks.GitHubSecret),
		providers.NewGitHub(paymentSvc),
		metrics,
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "summit-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildRepositories selects the storage backend: PostgreSQL when a database
// URL is configured, otherwise seeded in-memory stores for local runs.
func buildRepositories(ctx context.Context, lg *zap.Logger, cfg *Config, healthSvc *health.Service) (repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		lg.Info("No database configured, using in-memory storage with seed data")

		couponRepo := memory.NewCouponRepository()
		if err := memory.SeedCoupons(ctx, couponRepo, time.Now()); err != nil {
			return repositories{}, nil, errors.Wrap(err, "seed coupons")
		}

		return repositories{
			tours:    memory.NewTourRepository(memory.SeedTours()...),
			coupons:  couponRepo,
			orders:   memory.NewOrderRepository(),
			payments: memory.NewPaymentRepository(),
			apikeys:  memory.NewAPIKeyRepository(),
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, nil, errors.Wrap(err, "create db pool")
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return repositories{}, nil, errors.Wrap(err, "run migrations")
	}

	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return repositories{
		tours:    postgres.NewTourRepository(pool),
		coupons:  postgres.NewCouponRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		payments: postgres.NewPaymentRepository(pool),
		apikeys:  postgres.NewAPIKeyRepository(pool),
	}, pool.Close, nil
}
