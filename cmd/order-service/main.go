package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/megamart/orderflow/internal/cart"
	"github.com/megamart/orderflow/internal/catalog"
	"github.com/megamart/orderflow/internal/config"
	"github.com/megamart/orderflow/internal/database"
	"github.com/megamart/orderflow/internal/identity"
	"github.com/megamart/orderflow/internal/location"
	"github.com/megamart/orderflow/internal/metrics"
	"github.com/megamart/orderflow/internal/middleware"
	"github.com/megamart/orderflow/internal/notify"
	"github.com/megamart/orderflow/internal/order/application"
	orderhttp "github.com/megamart/orderflow/internal/order/infrastructure/http"
	orderkafka "github.com/megamart/orderflow/internal/order/infrastructure/kafka"
	orderpg "github.com/megamart/orderflow/internal/order/infrastructure/postgres"
	"github.com/megamart/orderflow/pkg/httpx"
	"github.com/megamart/orderflow/pkg/idempotency"
	"github.com/megamart/orderflow/pkg/logging"
	"github.com/megamart/orderflow/pkg/outbox"
	"github.com/megamart/orderflow/pkg/shutdown"
	"github.com/megamart/orderflow/pkg/tracing"
)

func main() {
	log := logging.New()
	cfg := config.Load()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "order-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	if err := database.Up(cfg.DatabaseURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer func() { _ = writer.Close() }()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Stores
	repo := orderpg.NewRepository(log, pool)
	archive := orderpg.NewArchiveStore(log, pool)
	outboxStore := orderpg.NewOutboxStore(log, pool)

	// Upstream service clients
	carts := cart.NewClient(httpx.New("cart", cfg.CartServiceURL, cfg.UpstreamTimeout, log))
	users := identity.NewDirectory(httpx.New("user-admin", cfg.UserAdminServiceURL, cfg.UpstreamTimeout, log))
	products := catalog.NewClient(httpx.New("product-admin", cfg.ProductAdminServiceURL, cfg.UpstreamTimeout, log))
	notifier := notify.NewClient(log,
		httpx.New("notification", cfg.NotificationServiceURL, cfg.UpstreamTimeout, log),
		idempotency.NewStore(rdb, 24*time.Hour))

	resolver := identity.NewResolver(log, users, carts, identity.NewRedisCache(rdb, cfg.IdentityCacheTTL))
	resolver.OnMigrate(m.CartMigrations.Inc)

	locations := location.NewDirectory(location.NewPGStore(pool), cfg.LocationCacheTTL)

	svc := application.NewService(log, repo, archive, carts, products, notifier, locations,
		application.NewRestockCoordinator(log, products), m)
	handler := orderhttp.NewHandler(log, svc, resolver)

	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "order-service-relay")
	purger := application.NewPurger(log, archive, m, cfg.PurgeInterval)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(limiter.Handler)
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()
	go func() {
		if err := purger.Run(ctx); err != nil {
			log.Error("purger stopped with error", "err", err)
		}
	}()
	go func() {
		log.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "err", err)
		}
	}()
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}
