package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcatalog "github.com/asif4762/bookbarn-final-server/internal/application/catalog"
	appcheckout "github.com/asif4762/bookbarn-final-server/internal/application/checkout"
	"github.com/asif4762/bookbarn-final-server/internal/config"
	"github.com/asif4762/bookbarn-final-server/internal/domain/cart"
	"github.com/asif4762/bookbarn-final-server/internal/infrastructure/gateway"
	"github.com/asif4762/bookbarn-final-server/internal/infrastructure/id"
	"github.com/asif4762/bookbarn-final-server/internal/infrastructure/memory"
	"github.com/asif4762/bookbarn-final-server/internal/infrastructure/outbox"
	redisinfra "github.com/asif4762/bookbarn-final-server/internal/infrastructure/redis"
	"github.com/asif4762/bookbarn-final-server/internal/pkg/logging"
	httppresentation "github.com/asif4762/bookbarn-final-server/internal/presentation/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	checkoutRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_requests_total",
			Help: "Total number of checkout use case invocations.",
		},
		[]string{"use_case", "outcome"},
	)
	checkoutDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of checkout use case execution in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"use_case"},
	)
	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	booksSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "books_sold_total",
		Help: "Count of book copies sold through confirmed checkouts.",
	})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Count of low-stock alerts raised after checkouts.",
	})
	prometheus.MustRegister(checkoutRequests, checkoutDurations, httpRequests, httpDurations, booksSold, lowStock)

	catalogRepo := memory.NewCatalogRepository()
	ledger := memory.NewBillingLedger()
	userRepo := memory.NewUserRepository()
	reviewRepo := memory.NewReviewRepository()
	contactRepo := memory.NewContactRepository()

	var carts cart.Repository
	if cfg.CartBackend == "redis" {
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = redisClient.Close() }()
		carts = redisinfra.NewCartRepository(redisClient)
		baseLogger.Info("cart_backend_selected", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
	} else {
		carts = memory.NewCartRepository()
		baseLogger.Info("cart_backend_selected", zap.String("backend", "memory"))
	}

	idGenerator := id.NewUUIDGenerator()

	paymentGateway := gateway.NewClient(gateway.Config{
		APIURL:        cfg.GatewayAPIURL,
		StoreID:       cfg.GatewayStoreID,
		StorePassword: cfg.GatewayStorePass,
		SuccessURL:    cfg.PaymentSuccessURL,
		FailURL:       cfg.PaymentFailURL,
		CancelURL:     cfg.PaymentCancelURL,
		Timeout:       cfg.GatewayTimeout,
	}, baseLogger)

	bus := outbox.NewBus(baseLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	checkoutService := appcheckout.NewService(
		carts,
		catalogRepo,
		ledger,
		paymentGateway,
		idGenerator,
		bus,
		&appcheckout.Metrics{Requests: checkoutRequests, Duration: checkoutDurations},
	)
	catalogService := appcatalog.NewService(catalogRepo, idGenerator)

	stockWatcher := appcatalog.NewWorker(catalogRepo, bus, cfg.LowStockThreshold, baseLogger, booksSold, lowStock)
	stockWatcher.Start()

	handler := httppresentation.NewHandler(
		checkoutService,
		catalogService,
		carts,
		ledger,
		userRepo,
		reviewRepo,
		contactRepo,
		idGenerator,
		&httppresentation.Metrics{Requests: httpRequests, Duration: httpDurations},
		baseLogger,
		cfg.StatusPageURL,
	)

	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", promhttp.Handler())
	serveMux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: serveMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
