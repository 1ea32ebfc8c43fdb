package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/wms-platform/execution-service/internal/api/handlers"
	"github.com/wms-platform/execution-service/internal/application"
	"github.com/wms-platform/execution-service/internal/domain"
	mongoRepo "github.com/wms-platform/execution-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/execution-service/internal/infrastructure/resilient"
	"github.com/wms-platform/execution-service/internal/infrastructure/speech"
	"github.com/wms-platform/execution-service/internal/infrastructure/temporal"
	"github.com/wms-platform/execution-service/internal/voice"
	"github.com/wms-platform/execution-service/pkg/cloudevents"
	"github.com/wms-platform/execution-service/pkg/kafka"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
	"github.com/wms-platform/execution-service/pkg/middleware"
	"github.com/wms-platform/execution-service/pkg/mongodb"
	"github.com/wms-platform/execution-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/execution-service/pkg/outbox/mongodb"
	"github.com/wms-platform/execution-service/pkg/resilience"
	"github.com/wms-platform/execution-service/pkg/tracing"
)

const serviceName = "execution-service"

type mongoClient interface {
	Database() *mongo.Database
	Close(context.Context) error
	HealthCheck(context.Context) error
}

type kafkaProducer interface {
	outbox.EventPublisher
	Close() error
}

type outboxPublisher interface {
	Start(context.Context) error
	Stop() error
}

type listSource interface {
	domain.ListSource
	EnsureIndexes(context.Context) error
}

type commitSink interface {
	domain.CommitSink
	EnsureIndexes(context.Context) error
}

var newMongoClient = func(ctx context.Context, cfg *mongodb.Config) (mongoClient, error) {
	c, err := mongodb.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var newKafkaProducer = func(cfg *kafka.Config, m *metrics.Metrics, logger *logging.Logger) kafkaProducer {
	return kafka.NewInstrumentedProducer(kafka.NewProducer(cfg), m, logger)
}

var newOutboxRepository = func(db *mongo.Database) outbox.Repository {
	return outboxMongo.NewOutboxRepository(db)
}

var newOutboxPublisher = func(repo outbox.Repository, producer outbox.EventPublisher, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
	return outbox.NewPublisher(repo, producer, logger, m, cfg)
}

var newListSource = func(db *mongo.Database, m *metrics.Metrics) listSource {
	return mongoRepo.NewListRepository(db, m)
}

var newCommitSink = func(db *mongo.Database, eventFactory *cloudevents.EventFactory, m *metrics.Metrics) commitSink {
	return mongoRepo.NewCommitRepository(db, eventFactory, m)
}

var newOutboxNotifier = func(db *mongo.Database, eventFactory *cloudevents.EventFactory) domain.ExecutionNotifier {
	return mongoRepo.NewOutboxNotifier(db, eventFactory)
}

var newTemporalClient = func(cfg TemporalConfig, logger *logging.Logger) (client.Client, error) {
	return client.Dial(client.Options{
		HostPort:  cfg.Host,
		Namespace: cfg.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger.Logger),
	})
}

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	logger.Info("Starting execution-service API")

	config := loadConfig()

	m := newMetrics(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		// continue without tracing
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint, "enabled", tracingConfig.Enabled)
	}

	mongoClient, err := newMongoClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(context.Background())
	db := mongoClient.Database()
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	producer := newKafkaProducer(config.Kafka, m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory("/" + serviceName)

	lists := newListSource(db, m)
	commits := newCommitSink(db, eventFactory, m)
	for name, ensure := range map[string]func(context.Context) error{
		"lists":   lists.EnsureIndexes,
		"results": commits.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.WithError(err).Warn("Failed to ensure indexes", "collection", name)
		}
	}

	publisher := newOutboxPublisher(newOutboxRepository(db), producer, logger, m, &outbox.PublisherConfig{
		PollInterval: time.Second,
		BatchSize:    100,
	})
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		return err
	}
	defer func() {
		if err := publisher.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to stop outbox publisher")
		}
	}()
	logger.Info("Outbox publisher started")

	notifiers := []domain.ExecutionNotifier{newOutboxNotifier(db, eventFactory)}
	if config.Temporal.Host != "" {
		temporalClient, err := newTemporalClient(config.Temporal, logger)
		if err != nil {
			logger.WithError(err).Warn("Temporal unavailable, picking workflows will not be signalled", "host", config.Temporal.Host)
		} else {
			defer temporalClient.Close()
			notifiers = append(notifiers, temporal.NewWorkflowNotifier(temporalClient, logger, m))
			logger.Info("Connected to Temporal", "host", config.Temporal.Host, "namespace", config.Temporal.Namespace)
		}
	}

	lexicon, err := voice.LoadLexicon(config.Voice.Locale)
	if err != nil {
		logger.WithError(err).Error("Failed to load voice lexicon", "locale", config.Voice.Locale)
		return err
	}

	voiceConfig := voice.DefaultConfig()
	voiceConfig.Locale = config.Voice.Locale
	voiceConfig.MinConfidence = config.Voice.MinConfidence

	sink := resilient.NewCommitSink(commits, resilience.DefaultCircuitBreakerConfig("commit-sink"), logger, m)

	executionService := application.NewExecutionService(
		lists,
		sink,
		notifiers,
		voice.NewInterpreter(lexicon, config.Voice.MinConfidence),
		voiceConfig,
		logger,
		m,
	)

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	handlers.NewExecutionHandlers(executionService, speech.DefaultConfig(config.Voice.Locale), logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:        config.ServerAddr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// WriteTimeout would cut voice websockets
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := executionService.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Voice sessions did not stop in time")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Temporal   TemporalConfig
	Voice      VoiceConfig
}

// TemporalConfig locates the Temporal frontend. An empty Host disables signalling.
type TemporalConfig struct {
	Host      string
	Namespace string
}

type VoiceConfig struct {
	Locale        string
	MinConfidence float64
}

func loadConfig() *Config {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", "execution_db")

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	kafkaConfig.ClientID = serviceName

	minConfidence, err := strconv.ParseFloat(getEnv("VOICE_MIN_CONFIDENCE", "0"), 64)
	if err != nil || minConfidence < 0 || minConfidence > 1 {
		minConfidence = 0
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB:    mongoConfig,
		Kafka:      kafkaConfig,
		Temporal: TemporalConfig{
			Host:      os.Getenv("TEMPORAL_HOST"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
		},
		Voice: VoiceConfig{
			Locale:        getEnv("VOICE_LOCALE", voice.DefaultLocale),
			MinConfidence: minConfidence,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
