package di

import (
	"context"
	"fmt"
	"time"

	"ShotTrace/internal/domain/repository"
	domsvc "ShotTrace/internal/domain/service"
	"ShotTrace/internal/handler/api"
	mid "ShotTrace/internal/middleware"
	internalrepo "ShotTrace/internal/repository"
	"ShotTrace/internal/service/devicefeed"
	apimetrics "ShotTrace/internal/service/metrics"
	"ShotTrace/internal/service/ratelimit"
	"ShotTrace/internal/services/course"
	"ShotTrace/internal/services/location"
	"ShotTrace/internal/services/stability"
	"ShotTrace/internal/services/strokes"
	"ShotTrace/internal/usecase"
	"ShotTrace/pkg/cache"
	pkgch "ShotTrace/pkg/clickhouse"
	"ShotTrace/pkg/config"
	xhttp "ShotTrace/pkg/http"
	pkgkafka "ShotTrace/pkg/kafka"
	applogger "ShotTrace/pkg/logger"
	"ShotTrace/pkg/metrics"
	"ShotTrace/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideKafkaProducer creates the shared producer used for analyses and
// the log collector. It returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Acks:         cfg.Kafka.Acks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		BatchTimeout: cfg.Kafka.Producer.Linger,
		Async:        cfg.Kafka.Producer.Async,
		HashByKey:    true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the root logger. Error logs are aggregated and
// shipped to the collector topic when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil || cfg.Logging.CollectorTopic == "" {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logging.FlushInterval,
		CountThreshold: cfg.Logging.FlushCount,
		Topic:          cfg.Logging.CollectorTopic,
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics registers the domain and API collectors on the default
// registry served at /metrics.
func ProvideMetrics() repository.Metrics {
	apimetrics.Register()
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideClickHouseClient connects to ClickHouse. Both backends need it:
// the kafka backend's consumer writes there too.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRoundStorage creates the round tables if needed.
func ProvideRoundStorage(ch *pkgch.Client, l *applogger.Logger) (repository.RoundStorage, error) {
	store := internalrepo.NewClickHouseRoundStore(ch)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideRoundPublisher returns nil without a producer; only the kafka
// backend publishes.
func ProvideRoundPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRoundPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache uses redis behind a small in-process layer when enabled and
// a memory cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(10000), cache.WithMemoryCleanup(time.Minute))
		return mem, func() { _ = mem.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.KeyPrefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	layered := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(1000), cache.WithLayeredMemoryTTL(time.Minute))
	return layered, func() { _ = layered.Close() }, nil
}

func ProvideRoundCache(svc cache.Service, cfg *config.Config) repository.RoundCache {
	return internalrepo.NewRoundCache(svc, cfg.Analysis.CacheTTL)
}

// ProvideCourse loads the course layout file.
func ProvideCourse(cfg *config.Config) (repository.CourseGeometry, error) {
	c, err := course.LoadLayout(cfg.Course.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("course layout: %w", err)
	}
	return c, nil
}

func ProvideExpectedStrokesModel() *strokes.Model {
	return strokes.NewModel()
}

func ProvideRoundAnalyzer(geo repository.CourseGeometry, model *strokes.Model, cfg *config.Config) *usecase.RoundAnalyzer {
	return usecase.NewRoundAnalyzer(geo, model,
		usecase.WithSmoother(location.NewSmoother(location.WithWindow(cfg.Analysis.SmoothingWindow))),
		usecase.WithFallbackOffset(cfg.Analysis.FallbackOffset),
		usecase.WithStabilityHalfWindow(cfg.Analysis.StabilityHalfWindow),
	)
}

// ProvideStabilityFetcher returns nil when no pose service is configured.
func ProvideStabilityFetcher(cfg *config.Config) domsvc.StabilityFetcher {
	if cfg.Stability.ServiceURL == "" {
		return nil
	}
	return stability.NewClient(cfg)
}

func ProvideRoundProcessor(
	analyzer *usecase.RoundAnalyzer,
	pub repository.Publisher,
	store repository.RoundStorage,
	m repository.Metrics,
	rc repository.RoundCache,
	fetcher domsvc.StabilityFetcher,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.RoundProcessor {
	p := usecase.NewRoundProcessor(analyzer, pub, store, m, cfg.Backend.Type,
		usecase.WithRoundCache(rc),
		usecase.WithStabilityFetcher(fetcher),
		usecase.WithLockTTL(cfg.Analysis.RoundLockTTL),
		usecase.WithFetchHalfWindow(cfg.Analysis.StabilityHalfWindow),
	)
	p.SetLogger(l.With(applogger.String("component", "processor")))
	return p
}

func ProvideRoundQuery(rc repository.RoundCache, store repository.RoundStorage) *usecase.RoundQueryUseCase {
	return usecase.NewRoundQueryUseCase(rc, store)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Burst)
}

func ProvideHTTPHandler(
	l *applogger.Logger,
	processor *usecase.RoundProcessor,
	query *usecase.RoundQueryUseCase,
	model *strokes.Model,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	return api.NewRoundsEchoHandler(l.With(applogger.String("component", "api")), processor, query, model, limiter)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(path, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		xhttp.WithSlowThreshold(cfg.Server.SlowRequest),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	)
}

// ProvideRoundCollector wires the live device feed. It returns nil when
// the feed is disabled.
func ProvideRoundCollector(
	cfg *config.Config,
	processor *usecase.RoundProcessor,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.RoundCollector {
	if !cfg.Device.Enabled {
		return nil
	}
	stream := devicefeed.New(devicefeed.Config{
		URL:            cfg.Device.URL,
		Token:          cfg.Device.Token,
		Devices:        cfg.Device.Devices,
		ReconnectDelay: cfg.Device.ReconnectDelay,
		PingInterval:   cfg.Device.PingInterval,
	})
	if s, ok := stream.(*devicefeed.Client); ok {
		s.SetLogger(l.With(applogger.String("component", "devicefeed")))
	}

	assembler := usecase.NewRoundAssembler(processor, m)
	assembler.SetLogger(l.With(applogger.String("component", "assembler")))

	pipe := mid.NewDevicePipeline(assembler, m,
		mid.WithMaxSampleRate(cfg.Device.MaxSampleRate),
		mid.WithBufferSize(cfg.Device.BufferSize),
	)
	return usecase.NewRoundCollector(stream, assembler, m, pipe, cfg.Device.RoundIdle)
}

// ProvideKafkaConsumer returns nil unless the kafka backend is selected.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != config.BackendKafka {
		return nil, nil
	}
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
	consumer.SetLogger(l.With(applogger.String("component", "consumer")))
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook{}, pkgkafka.JSONHook{}))
	return consumer, nil
}

func ProvideKafkaRoundHandler(cfg *config.Config, store repository.RoundStorage, m repository.Metrics) pkgkafka.MessageHandler {
	return usecase.NewKafkaRoundHandler(cfg.Kafka.Topic, store, m)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	processor *usecase.RoundProcessor,
	collector *usecase.RoundCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *server.App {
	return server.New(cfg, l, httpServer, processor, collector, consumer, kh)
}
