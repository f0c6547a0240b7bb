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

	"github.com/knagata/storefront/fixtures"
	"github.com/knagata/storefront/internal/domain/cart"
	"github.com/knagata/storefront/internal/domain/order"
	"github.com/knagata/storefront/internal/domain/user"
	"github.com/knagata/storefront/internal/handler"
	"github.com/knagata/storefront/internal/storage/memory"
	"github.com/knagata/storefront/pkg/health"
	"github.com/knagata/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Fixture data: products, categories, demo accounts.
	data, err := fixtures.Load(ctx, cfg.FixturesDir)
	if err != nil {
		return errors.Wrap(err, "load fixtures")
	}
	lg.Info("Fixtures loaded",
		zap.Int("products", len(data.Products)),
		zap.Int("categories", len(data.Categories)),
		zap.Int("users", len(data.Users)),
	)

	// In-memory stores.
	catalogStore := memory.NewCatalogStore(data.Products, data.Categories)
	userDir := memory.NewUserDirectory(data.Users)
	sessions := memory.NewSessionRegistry(cfg.Session.TTL)
	sessions.StartSweeper(ctx, cfg.Session.Sweep)
	cartRepo := memory.NewCartRepository()
	orderRepo := memory.NewOrderRepository()

	// Domain services.
	userService := user.NewService(userDir)
	cartService := cart.NewService(cartRepo, catalogStore, cart.Config{
		AddLatency: cfg.Latency.CartAdd,
	})
	orderService := order.NewService(cartRepo, catalogStore, orderRepo)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("catalog", time.Second, func(ctx context.Context) error {
		products, err := catalogStore.List(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		userService,
		sessions,
		catalogStore,
		cartService,
		orderService,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	api := otelhttp.NewHandler(mux, "storefront-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(api,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:         cfg.RateLimit.Max,
				Window:      cfg.RateLimit.Window,
				ExemptPaths: []string{"/livez", "/readyz"},
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
