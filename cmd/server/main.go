package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Priya8975/life-event-share/internal/api"
	"github.com/Priya8975/life-event-share/internal/audit"
	"github.com/Priya8975/life-event-share/internal/config"
	"github.com/Priya8975/life-event-share/internal/engine"
	"github.com/Priya8975/life-event-share/internal/enrichment"
	"github.com/Priya8975/life-event-share/internal/identity"
	"github.com/Priya8975/life-event-share/internal/metrics"
	"github.com/Priya8975/life-event-share/internal/queue"
	"github.com/Priya8975/life-event-share/internal/service"
	"github.com/Priya8975/life-event-share/internal/store"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
	"github.com/Priya8975/life-event-share/internal/worker"
)

// dataStore is everything the server needs from the configured store driver.
type dataStore interface {
	service.SubscriptionStore
	service.EventStore
	service.PublisherStore
	engine.SubscriptionFinder
	engine.EventWriter
	engine.PublisherMappings
	worker.ExpiredEventDeleter
	api.StatsSource
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisStore.Close()
	redisClient := redisStore.Client()
	logger.Info("connected to Redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	hub := ws.NewHub(logger)

	breaker := engine.NewCircuitBreaker(redisClient, logger)
	httpClient := &http.Client{Timeout: cfg.CollaboratorTimeout}
	registry, err := enrichment.NewDefaultRegistry(
		enrichment.WithCircuitBreaker(enrichment.NewLEVProvider(cfg.LEVAPIURL, cfg.LEVAPIKey, httpClient), breaker),
		enrichment.WithCircuitBreaker(enrichment.NewPrisonerProvider(cfg.PrisonerSearchAPIURL, cfg.PrisonerSearchAPIKey, httpClient), breaker),
	)
	if err != nil {
		return err
	}
	// Enrichment spans go to the global otel TracerProvider. None is installed
	// here, so they are dropped unless a deployment sets one.
	pipeline := enrichment.NewPipeline(registry, cfg.CollaboratorTimeout, logger, enrichment.WithMetrics(m))

	broker, err := queue.Dial(ctx, cfg.AMQPURL, cfg.CollaboratorTimeout, logger)
	if err != nil {
		return err
	}
	defer broker.Close()
	logger.Info("connected to AMQP broker")
	queueAdmin := queue.NewAdmin(broker, cfg.CollaboratorTimeout, logger)
	queuePublisher := queue.NewPublisher(broker, "life-event-share", cfg.CollaboratorTimeout, logger)
	defer queuePublisher.Close()

	auditor, closeAuditor, err := openAuditor(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAuditor()

	router := engine.NewRouter(st, st, logger,
		engine.WithPublisherMappings(st),
		engine.WithPushQueue(redisClient),
		engine.WithBroadcaster(hub),
		engine.WithRouterMetrics(m),
	)

	common := []service.Option{
		service.WithLogger(logger),
		service.WithAuditor(auditor),
		service.WithMetrics(m),
		service.WithBroadcaster(hub),
	}
	acquirers := service.NewAcquirerService(st, queueAdmin,
		identity.NewClient(cfg.IdentityAdminURL, cfg.IdentityAdminToken, cfg.CollaboratorTimeout, logger),
		common...)
	events := service.NewEventService(st, pipeline, cfg.DefaultLookback,
		append(common, service.WithConcurrency(cfg.EnrichmentConcurrency))...)
	publishers := service.NewPublisherService(st, common...)

	deliverer := worker.NewDeliverer(redisClient, pipeline, queuePublisher, logger,
		worker.WithCircuitBreaker(breaker),
		worker.WithRateLimit(engine.NewRateLimiter(redisClient, logger), cfg.PushRateLimit),
		worker.WithBroadcaster(hub),
		worker.WithMetrics(m),
	)
	pool := worker.NewPool(cfg.NumWorkers, deliverer, logger)
	dispatcher := worker.NewDispatcher(redisClient, pool, logger)
	reaper := worker.NewReaper(st, cfg.ExpirySweepInterval, m, hub, logger)
	consumer := queue.NewConsumer(broker, cfg.InboundQueue, queue.NotificationHandler(router.Ingest, logger), logger)

	handler := api.NewRouter(api.Handlers{
		Tokens:     api.NewTokens(cfg.JWTSigningKey, cfg.JWTIssuer),
		AdminToken: cfg.AdminToken,
		Ingester:   router,
		Events:     events,
		Acquirers:  acquirers,
		Publishers: publishers,
		Dashboard:  api.NewDashboardHandler(st, router, breaker, registry.ProviderIDs(), hub, logger),
		WebSocket:  hub.HandleWebSocket,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	pool.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		dispatcher.Start(gctx)
		return nil
	})
	g.Go(func() error {
		reaper.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Port, "store_driver", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	// The dispatcher has returned, so nothing submits to the pool any more.
	pool.Stop()
	return err
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dataStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data will not survive a restart")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to PostgreSQL")

	if err := pg.RunMigrations(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	logger.Info("database migrations applied")
	return pg, pg.Close, nil
}

func openAuditor(cfg *config.Config, logger *slog.Logger) (service.Auditor, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewLogNoticer(logger), func() {}, nil
	}
	k, err := audit.NewKafkaNoticer(cfg.KafkaBrokers, cfg.AuditTopic, logger)
	if err != nil {
		return nil, nil, err
	}
	return k, k.Close, nil
}
