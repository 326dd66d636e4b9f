package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-saga/internal/config"
	domproduct "github.com/Zhima-Mochi/minishop-saga/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/kafkanotify"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/redisstore"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/sqlitejournal"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-saga/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// seedProducer is satisfied by both the memory and the Postgres ledgers.
type seedProducer interface {
	Put(ctx context.Context, p *domproduct.Product) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	zl, err := zaplogger.New(zaplogger.Options{
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
		Fixed: []observability.Field{
			observability.F("service", cfg.ServiceName),
			observability.F("env", cfg.Env),
		},
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.With(observability.F("component", "main"))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tel := infraobs.NewPrometheus(
		oteltrace.New(cfg.ServiceName),
		zl,
		prometrics.New("", "", prometheus.DefaultRegisterer),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapters := bootstrap.Adapters{}
	checks := map[string]httppresentation.HealthCheck{}
	var closers []func() error

	var catalog seedProducer
	if cfg.DatabaseURL != "" {
		db, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres_unavailable", observability.F("error", err))
			os.Exit(1)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Error("postgres_unavailable", observability.F("error", err))
			os.Exit(1)
		}
		closers = append(closers, sqlDB.Close)
		checks["postgres"] = sqlDB.PingContext
		products := gormstore.NewProductRepository(db)
		adapters.Products, catalog = products, products
		log.Info("stock_ledger_selected", observability.F("backend", "postgres"))
	} else {
		products := memory.NewProductRepository()
		adapters.Products, catalog = products, products
	}
	seedCatalog(ctx, catalog, log)

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, client.Close)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		adapters.Carts = redisstore.NewCartRepository(client)
		adapters.Dedup = redisstore.NewDeduplicator(client, 0)
		log.Info("cart_and_dedup_selected", observability.F("backend", "redis"), observability.F("addr", cfg.RedisAddr))
	}

	if len(cfg.KafkaBrokers) > 0 {
		w := kafkanotify.NewWriter(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		closers = append(closers, w.Close)
		adapters.Sender = kafkanotify.NewSender(w)
		log.Info("notification_sender_selected",
			observability.F("backend", "kafka"),
			observability.F("topic", cfg.KafkaNotificationTopic),
		)
	}

	if cfg.JournalPath != "" {
		j, err := sqlitejournal.Open(cfg.JournalPath)
		if err != nil {
			log.Error("journal_unavailable", observability.F("error", err))
			os.Exit(1)
		}
		closers = append(closers, j.Close)
		adapters.Journal = j
	}

	app := bootstrap.New(cfg, tel, adapters)
	app.Start(ctx)

	if b, ok := app.Gateway.(interface{ State() string }); ok {
		checks["payment_gateway"] = func(context.Context) error {
			if state := b.State(); state != "closed" {
				return fmt.Errorf("circuit breaker %s", state)
			}
			return nil
		}
	}

	handler := httppresentation.NewHandler(httppresentation.Deps{
		Orders:     app.Orders,
		Payments:   app.Payments,
		Shippings:  app.Shippings,
		Promotions: app.Promotions,
		Carts:      app.Carts,
		Checks:     checks,
		Tel:        tel,
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", observability.F("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		log.Info("http_server_stopped")
	}
	if err := app.Stop(shutdownCtx); err != nil {
		log.Warn("event_bus_drain_incomplete", observability.F("error", err))
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.Warn("close_failed", observability.F("error", err))
		}
	}
}

func seedCatalog(ctx context.Context, catalog seedProducer, log observability.Logger) {
	seed := []struct {
		id, name string
		price    int64
		stock    int
		image    string
	}{
		{"p-mug", "Stoneware Mug", 12_000, 100, "https://cdn.minishop.local/p-mug.png"},
		{"p-lamp", "Desk Lamp", 45_000, 20, "https://cdn.minishop.local/p-lamp.png"},
		{"p-tote", "Canvas Tote", 18_000, 50, "https://cdn.minishop.local/p-tote.png"},
	}
	for _, s := range seed {
		p, err := domproduct.New(s.id, s.name, s.price, s.stock, s.image)
		if err != nil {
			log.Warn("seed_product_invalid", observability.F("product_id", s.id), observability.F("error", err))
			continue
		}
		if err := catalog.Put(ctx, p); err != nil {
			log.Warn("seed_product_failed", observability.F("product_id", s.id), observability.F("error", err))
		}
	}
}
