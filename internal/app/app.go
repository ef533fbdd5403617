package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/shoplist/internal/domain/cart"
	"github.com/xenking/shoplist/internal/domain/catalog"
	"github.com/xenking/shoplist/internal/domain/product"
	"github.com/xenking/shoplist/internal/gateway/dummyjson"
	"github.com/xenking/shoplist/internal/handler"
	"github.com/xenking/shoplist/internal/imagecache"
	"github.com/xenking/shoplist/pkg/health"
	"github.com/xenking/shoplist/pkg/httpmiddleware"
)

const (
	serviceName = "shoplist"
	// initialLoadTimeout bounds the warm-up fetch so an unreachable gateway
	// does not block startup when no gateway timeout is configured.
	initialLoadTimeout = 10 * time.Second
)

// service is the wired application without its listener.
type service struct {
	handler http.Handler
	health  *health.Health
	catalog *catalog.Store
	images  *imagecache.Cache
}

// newService builds every dependency and the HTTP handler chain. Background
// loops stop when ctx is done.
func newService(ctx context.Context, lg *zap.Logger, tel httpmiddleware.Telemetry, cfg *Config) (*service, error) {
	// Catalog gateway.
	gateway, err := dummyjson.New(dummyjson.Options{
		BaseURL:        cfg.Gateway.BaseURL,
		Timeout:        cfg.Gateway.Timeout,
		TracerProvider: tel.TracerProvider(),
		MeterProvider:  tel.MeterProvider(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gateway client")
	}

	// Image prefetch cache.
	images, err := imagecache.New(
		imagecache.NewHTTPLoader(&http.Client{
			Timeout: cfg.Images.FetchTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(tel.TracerProvider()),
				otelhttp.WithMeterProvider(tel.MeterProvider()),
			),
		}),
		imagecache.Options{
			Timeout:       cfg.Images.TTL,
			Concurrency:   cfg.Images.Concurrency,
			Logger:        lg.Named("imagecache"),
			MeterProvider: tel.MeterProvider(),
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create image cache")
	}
	go images.RunSweeper(ctx, cfg.Images.SweepInterval)

	// Stores.
	catalogStore := catalog.NewStore(gateway, cfg.Catalog.PageSize, lg.Named("catalog"))
	catalogStore.OnPage(func(ctx context.Context, products []product.Product) {
		uris := make([]string, 0, len(products))
		for _, p := range products {
			uris = append(uris, p.CoverImage())
		}
		images.PrefetchAllAsync(ctx, uris)
	})
	cartStore := cart.NewStore(lg.Named("cart"))

	// Health check service.
	healthSvc := health.New(lg.Named("health"))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Add(health.Readiness, "catalog-gateway", health.PingCheck(gateway), health.CheckOptions{
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
	})

	// Routes: health probes + view API on one router.
	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	go limiter.Run(ctx)

	router := chi.NewRouter()
	healthSvc.Mount(router)
	handler.New(catalogStore, cartStore, images).Mount(router, limiter.Middleware())
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	return &service{
		handler: httpmiddleware.Wrap(router,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument(serviceName, routeFinder, tel),
			httpmiddleware.Labeler(routeFinder),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Retry-After"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
		),
		health:  healthSvc,
		catalog: catalogStore,
		images:  images,
	}, nil
}

// warmUp loads the first catalog page. Failures are logged only; the view API
// can retry through /api/catalog/load.
func (s *service) warmUp(ctx context.Context, lg *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, initialLoadTimeout)
	defer cancel()
	if err := s.catalog.Load(ctx); err != nil {
		lg.Warn("Initial catalog load failed", zap.Error(err))
	}
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("gateway", cfg.Gateway.BaseURL),
	)

	svc, err := newService(ctx, zctx.From(ctx), m, cfg)
	if err != nil {
		return err
	}
	svc.health.Start(ctx, 30*time.Second)
	svc.warmUp(ctx, lg)
	svc.health.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
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
		svc.images.Wait()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
