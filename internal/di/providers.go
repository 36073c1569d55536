package di

import (
	"context"
	"fmt"
	"time"

	"tradyxa/internal/domain/repository"
	domsvc "tradyxa/internal/domain/service"
	"tradyxa/internal/handler/api"
	mid "tradyxa/internal/middleware"
	internalrepo "tradyxa/internal/repository"
	icache "tradyxa/internal/service/cache"
	"tradyxa/internal/service/stream"
	"tradyxa/internal/services/mlenrich"
	"tradyxa/internal/services/slippage"
	"tradyxa/internal/services/synthetic"
	"tradyxa/internal/usecase"
	pkgcache "tradyxa/pkg/cache"
	pkgch "tradyxa/pkg/clickhouse"
	"tradyxa/pkg/config"
	pkgkafka "tradyxa/pkg/kafka"
	applogger "tradyxa/pkg/logger"
	"tradyxa/pkg/metrics"
	"tradyxa/pkg/queue"
	"tradyxa/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and initializes schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS tradyxa",
		`CREATE TABLE IF NOT EXISTS tradyxa.ticks_raw (
            ts DateTime64(3), symbol LowCardinality(String), price Float64, volume Float64,
            source LowCardinality(String), event_id String, seq UInt64
        ) ENGINE=MergeTree ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS tradyxa.candles_1s (
            bucket DateTime, symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS tradyxa.candles_1m (
            bucket DateTime, symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS tradyxa.candles_5m (
            bucket DateTime, symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS tradyxa.candles_1m_mv TO tradyxa.candles_1m AS
            SELECT toStartOfMinute(ts) AS bucket, symbol,
                argMin(price, ts) AS open, max(price) AS high, min(price) AS low,
                argMax(price, ts) AS close, sum(volume) AS vol
            FROM tradyxa.ticks_raw GROUP BY bucket, symbol`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS tradyxa.candles_5m_mv TO tradyxa.candles_5m AS
            SELECT toStartOfFiveMinutes(ts) AS bucket, symbol,
                argMin(price, ts) AS open, max(price) AS high, min(price) AS low,
                argMax(price, ts) AS close, sum(volume) AS vol
            FROM tradyxa.ticks_raw GROUP BY bucket, symbol`,
		`CREATE TABLE IF NOT EXISTS tradyxa.verdict_audit (
            ts DateTime, ticker LowCardinality(String), direction LowCardinality(String),
            points Float64, error Float64, confidence Float64,
            data_quality LowCardinality(String), sizing Float64,
            source LowCardinality(String), components String
        ) ENGINE=MergeTree ORDER BY (ticker, ts)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStorage creates ClickHouse storage repository.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".ticks_raw")
}

// ProvideTickPublisher creates Kafka publisher repository.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTicksHandler registers handler for ticks topic.
func ProvideKafkaTicksHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMarketStream creates the trade-print WebSocket stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideTickProcessor creates tick processor use case.
func ProvideTickProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideTickCollector creates tick collector use case.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	metrics repository.Metrics,
) *usecase.TickCollector {
	// Build middleware pipeline between WebSocket and Kafka
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, processor, metrics, pipe)
}

// ProvideFeatureStore creates the candle store backed by ClickHouse.
func ProvideFeatureStore(chClient *pkgch.Client, l *applogger.Logger) repository.FeatureStore {
	store := internalrepo.NewCHFeatureStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideSnapshotStore creates the file-backed snapshot store.
func ProvideSnapshotStore(cfg *config.Config) (repository.SnapshotStore, error) {
	store, err := internalrepo.NewFileSnapshotStore(cfg.Pipeline.DataDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	return store, nil
}

// ProvideVerdictAudit creates the ClickHouse verdict audit sink.
func ProvideVerdictAudit(chClient *pkgch.Client) repository.VerdictAudit {
	return internalrepo.NewClickHouseVerdictAudit(chClient.DB(), "tradyxa.verdict_audit")
}

// ProvideEnrichCache creates the cache shared by the model-service clients:
// layered (memory over redis) when redis is wired, in-process otherwise.
func ProvideEnrichCache(rdb *redis.Client) pkgcache.Service {
	if rdb != nil {
		return pkgcache.NewLayeredCache(pkgcache.NewRedisCacheFromClient(rdb, "tradyxa"))
	}
	return pkgcache.NewMemoryCache()
}

// ProvideRegimeDetector creates the regime client, nil when enrichment is off.
func ProvideRegimeDetector(cfg *config.Config, c pkgcache.Service) domsvc.RegimeDetector {
	if !cfg.Enrich.Enabled || cfg.Enrich.ServiceURL == "" {
		return nil
	}
	d := mlenrich.NewHTTPRegimeDetector(cfg)
	if ttl := cfg.Enrich.CacheTTL.Regime; ttl > 0 {
		d.SetCache(c, ttl)
	}
	return d
}

// ProvideSlippageForecaster creates the slippage client, nil when enrichment is off.
func ProvideSlippageForecaster(cfg *config.Config, c pkgcache.Service) domsvc.SlippageForecaster {
	if !cfg.Enrich.Enabled || cfg.Enrich.ServiceURL == "" {
		return nil
	}
	f := mlenrich.NewHTTPSlippageForecaster(cfg)
	if ttl := cfg.Enrich.CacheTTL.Slippage; ttl > 0 {
		f.SetCache(c, ttl)
	}
	return f
}

// ProvideSyntheticGenerator creates the deterministic bar generator.
func ProvideSyntheticGenerator(cfg *config.Config) *synthetic.Generator {
	gen := synthetic.NewGenerator()
	if days := cfg.Pipeline.Synthetic.Days; days > 0 {
		gen.Bars = 78 * days
	}
	gen.Seed = cfg.Pipeline.Synthetic.Seed
	return gen
}

// ProvideSlippageEstimator creates the deterministic/Monte Carlo estimator.
func ProvideSlippageEstimator() *slippage.Estimator {
	return slippage.NewEstimator()
}

// ProvideVerdictEvents publishes verdict events to Kafka when a topic is set.
func ProvideVerdictEvents(producer *pkgkafka.Producer, cfg *config.Config) repository.VerdictEvents {
	if cfg.Kafka.VerdictTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaVerdictEvents(producer, cfg.Kafka.VerdictTopic)
}

// ProvideSnapshotPipeline assembles the candles -> features -> verdict pipeline.
func ProvideSnapshotPipeline(
	featureStore repository.FeatureStore,
	snaps repository.SnapshotStore,
	audit repository.VerdictAudit,
	regime domsvc.RegimeDetector,
	slipML domsvc.SlippageForecaster,
	gen *synthetic.Generator,
	est *slippage.Estimator,
	events repository.VerdictEvents,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SnapshotPipeline {
	p := usecase.NewSnapshotPipeline(featureStore, snaps, audit, regime, slipML, gen, est, cfg, l)
	if events != nil {
		p.SetVerdictEvents(events)
	}
	return p
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.FeatureStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideRedisClient creates a shared redis client, nil when redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideResponseCache creates the API response cache: redis when available,
// in-process TTL map otherwise.
func ProvideResponseCache(rdb *redis.Client) icache.BytesCache {
	if rdb != nil {
		return icache.NewRedisCacheFromClient(rdb)
	}
	return icache.NewTTLCache()
}

// ProvideRefreshQueue creates the redis-backed refresh job queue, nil when
// redis is disabled. The periodic refresher then falls back to in-process
// fan-out.
func ProvideRefreshQueue(
	cfg *config.Config,
	l *applogger.Logger,
	rdb *redis.Client,
	pipeline *usecase.SnapshotPipeline,
) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 4
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    workers,
		RetryLimit: 2,
		RetryDelay: 30 * time.Second,
	}, rdb, queue.ModeProducerConsumer, queue.WithKeyPrefix("tradyxa:refresh"))
	q.RegisterJob(usecase.NewSnapshotRefreshJob(pipeline))
	return q
}

// ProvideSnapshotsHandler creates the HTTP handler for snapshots and candles.
func ProvideSnapshotsHandler(
	l *applogger.Logger,
	pipeline *usecase.SnapshotPipeline,
	snaps repository.SnapshotStore,
	candles *usecase.CandlesUseCase,
	respCache icache.BytesCache,
) *api.SnapshotsEchoHandler {
	h := api.NewSnapshotsEchoHandler(l, pipeline, snaps, candles)
	h.SetCache(respCache)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	handler *api.SnapshotsEchoHandler,
	pipeline *usecase.SnapshotPipeline,
	refreshQ *queue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient, pipeline, refreshQ)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	return app
}
