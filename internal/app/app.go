// Package app wires the store's components and runs them.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
	"github.com/kunaltyagi18/ecomm-store/internal/events"
	"github.com/kunaltyagi18/ecomm-store/internal/handler"
	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
	"github.com/kunaltyagi18/ecomm-store/internal/storage/rediscache"
	"github.com/kunaltyagi18/ecomm-store/pkg/health"
	"github.com/kunaltyagi18/ecomm-store/pkg/httpmiddleware"
)

const serviceName = "ecomm-store"

// Run creates all dependencies, serves HTTP, relays order events and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.MetricsProvider, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	st, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	hs := health.New(10 * time.Second)
	for _, p := range st.probes {
		hs.Add(p)
	}
	hs.Add(health.Probe{Name: "goroutines", Kind: health.Liveness, Check: health.GoroutineCountCheck(10000)})

	var ledger order.Ledger = st.orders
	if cfg.Redis.Addr != "" {
		rcfg := rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}
		client, err := rediscache.NewClient(ctx, rcfg)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() { _ = client.Close() }()

		ledger = rediscache.NewOrderLedger(st.orders, client, rcfg.TTL)
		hs.Add(health.Probe{
			Name: "redis",
			Kind: health.Readiness,
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
		lg.Info("Order cache enabled", zap.Duration("ttl", rcfg.TTL))
	}

	orderService, err := order.NewService(st.products, st.orders, ledger,
		order.WithMeterProvider(m.MeterProvider()),
		order.WithPlaceTimeout(cfg.Orders.PlaceTimeout),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	userService := user.NewService(st.users, cfg.BcryptCost)

	var pub outbox.Publisher = events.NewLogPublisher(lg.Named("events"))
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer func() {
			if err := kp.Close(); err != nil {
				lg.Warn("Close kafka writer", zap.Error(err))
			}
		}()
		pub = kp
		lg.Info("Publishing order events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	relay, err := outbox.NewRelay(st.outbox, pub, outbox.RelayConfig{
		Interval:      cfg.Outbox.Interval,
		BatchSize:     cfg.Outbox.BatchSize,
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create outbox relay")
	}

	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	h := handler.NewHandler(st.products, orderService, userService)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Orders.PlaceTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHTTPHandler(lg, m, cfg, limiter, hs, h),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return hs.Run(gctx) })
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error {
		hs.SetReady(true)
		<-gctx.Done()

		hs.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()
		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// newHTTPHandler builds the router and the middleware chain around it.
// Middlewares that need the matched route run inside the router.
func newHTTPHandler(
	lg *zap.Logger,
	m httpmiddleware.MetricsProvider,
	cfg *Config,
	limiter *httpmiddleware.RateLimiter,
	hs *health.Health,
	h *handler.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.LogRequests(httpmiddleware.ChiRoute),
		httpmiddleware.Labeler(httpmiddleware.ChiRoute),
	)
	r.Get("/livez", hs.LiveEndpoint)
	r.Get("/readyz", hs.ReadyEndpoint)
	h.Routes(r)

	return httpmiddleware.Wrap(r,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument(serviceName, m),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		limiter.Middleware(),
	)
}
