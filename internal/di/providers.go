package di

import (
	"context"
	"fmt"
	"time"

	"FareCast/internal/domain/repository"
	"FareCast/internal/domain/service"
	"FareCast/internal/handler/api"
	internalrepo "FareCast/internal/repository"
	icache "FareCast/internal/service/cache"
	"FareCast/internal/service/ratelimit"
	"FareCast/internal/services/predictor"
	"FareCast/internal/usecase"
	pkgch "FareCast/pkg/clickhouse"
	"FareCast/pkg/config"
	xhttp "FareCast/pkg/http"
	pkgkafka "FareCast/pkg/kafka"
	"FareCast/pkg/kvstore"
	applogger "FareCast/pkg/logger"
	"FareCast/pkg/metrics"
	"FareCast/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideRegistry creates the registry every metric of the process registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideKafkaProducer creates the event producer, or nil when events are disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Events.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithBatching(100, 200*time.Millisecond),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the process logger. With events enabled and an error topic
// configured, aggregated error logs are shipped through the producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Logger.ErrorTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Logger.ErrorTopic,
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideKVStore opens the history backend named by history.backend.
func ProvideKVStore(cfg *config.Config) (kvstore.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		store kvstore.Store
		err   error
	)
	switch cfg.History.Backend {
	case "redis":
		store, err = kvstore.NewRedisStore(ctx,
			kvstore.WithRedisAddr(cfg.Redis.Addr),
			kvstore.WithRedisPassword(cfg.Redis.Password),
			kvstore.WithRedisDB(cfg.Redis.DB),
			kvstore.WithRedisPrefix(cfg.Redis.Prefix),
		)
	case "sqlite":
		store, err = kvstore.NewSQLiteStore(ctx, cfg.History.SQLitePath)
	default:
		store = kvstore.NewMemoryStore()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("history backend %s: %w", cfg.History.Backend, err)
	}
	return store, func() { _ = store.Close() }, nil
}

// ProvideQueryCache shares the redis connection when history lives in redis and
// falls back to an in-process cache otherwise.
func ProvideQueryCache(cfg *config.Config, store kvstore.Store) icache.BytesCache {
	if rs, ok := store.(*kvstore.RedisStore); ok {
		return icache.NewRedisCache(rs.Client(), cfg.Redis.Prefix+":cache:")
	}
	return icache.NewTTLCache()
}

// ProvidePredictionClient creates the HTTP prediction client, rate limited when
// predictor.rate_limit.rps is set.
func ProvidePredictionClient(cfg *config.Config) service.PredictionClient {
	return predictor.New(
		predictor.NewHTTPClient(cfg.Predictor),
		cfg.Predictor.RateLimit.RPS,
		cfg.Predictor.RateLimit.Burst,
	)
}

func ProvideOrchestrator(cfg *config.Config, client service.PredictionClient, m repository.Metrics, l *applogger.Logger) *usecase.ForecastOrchestrator {
	return usecase.NewForecastOrchestrator(client, usecase.NewFallbackSynthesizer(0), m, l, cfg.Predictor.CallTimeout)
}

// ProvideHistoryStore creates the history log and loads what the backend holds.
func ProvideHistoryStore(cfg *config.Config, store kvstore.Store, m repository.Metrics, l *applogger.Logger) *usecase.HistoryStore {
	h := usecase.NewHistoryStore(store, cfg.History.Key, m, l)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Load(ctx)
	return h
}

// ProvideEventPublisher returns the Kafka publisher, or a no-op one when events are disabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic)
}

func ProvideFareService(
	cfg *config.Config,
	client service.PredictionClient,
	orchestrator *usecase.ForecastOrchestrator,
	history *usecase.HistoryStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.FareService {
	return usecase.NewFareService(client, orchestrator, history, events, m, l, usecase.FareServiceConfig{
		CallTimeout: cfg.Predictor.CallTimeout,
		RunTimeout:  cfg.Forecast.RunTimeout,
	})
}

// ProvideClickHouseClient connects to the archive and creates its table, or
// returns nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.Archive.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.Archive.Host),
		pkgch.WithPort(cfg.Archive.Port),
		pkgch.WithDatabase(cfg.Archive.Database),
		pkgch.WithCredentials(cfg.Archive.User, cfg.Archive.Password),
		pkgch.WithHTTP(cfg.Archive.UseHTTP),
		pkgch.WithAsyncInsert(cfg.Archive.AsyncInsert, true),
		pkgch.WithTimeouts(cfg.Archive.DialTimeout, 10*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.ArchiveSchema(cfg.Archive.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideArchiveStore returns nil when the archive is disabled.
func ProvideArchiveStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.ArchiveStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHArchiveStore(ch.DB(), cfg.Archive.Table, l)
}

// ProvideKafkaConsumer creates the archive consumer. It needs both the event
// stream and the archive; otherwise it is nil.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Events.Enabled || !cfg.Archive.Enabled {
		return nil, nil
	}
	c := cfg.Events.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Events.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideArchiveHandler returns nil when there is no archive to write to.
func ProvideArchiveHandler(cfg *config.Config, store repository.ArchiveStore, m repository.Metrics) pkgkafka.MessageHandler {
	if store == nil {
		return nil
	}
	return usecase.NewArchiveHandler(cfg.Events.Topic, store, m)
}

// ProvideHTTPHandler assembles every route group.
func ProvideHTTPHandler(
	cfg *config.Config,
	svc *usecase.FareService,
	archive repository.ArchiveStore,
	cache icache.BytesCache,
	m repository.Metrics,
	l *applogger.Logger,
) xhttp.Handler {
	handlers := xhttp.Handlers{
		api.NewFareEchoHandler(l, svc, ratelimit.New(cfg.Server.PredictRate, cfg.Server.PredictBurst)),
		api.NewSessionHandler(l, svc, m, cfg.Server.AllowOrigins),
	}
	if archive != nil {
		handlers = append(handlers, api.NewArchiveEchoHandler(l, archive, cache, cfg.Archive.QueryCacheTTL))
	}
	return handlers
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger, rec *metrics.Recorder, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.AllowOrigins...),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, rec, reg))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	svc *usecase.FareService,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *server.App {
	return server.New(cfg, l, srv, svc, consumer, kh)
}
