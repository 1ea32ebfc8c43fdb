package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all execution-service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka / outbox metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec
	OutboxPending        prometheus.Gauge
	OutboxRetries        *prometheus.CounterVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Execution metrics
	ExecutionsActive prometheus.Gauge
	StepsTotal       *prometheus.CounterVec
	RowsCommitted    *prometheus.CounterVec
	ListsCompleted   *prometheus.CounterVec
	WorkflowSignals  *prometheus.CounterVec
	VoiceUtterances  *prometheus.CounterVec
	VoiceRestarts    *prometheus.CounterVec
	CommitDuration   *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance on its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests currently being processed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)
	m.OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "outbox_pending_events",
		Help:        "Unpublished outbox events seen by the last poll",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})
	m.OutboxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_retries_total", Help: "Outbox publish retries"},
		[]string{"service", "event_type"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB operations"},
		[]string{"service", "collection", "operation", "status"},
	)
	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "collection", "operation"},
	)

	m.ExecutionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "executions_active",
		Help:        "List executions currently held in memory",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})
	m.StepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "execution_steps_total", Help: "Operator inputs applied to a step"},
		[]string{"service", "operation", "step", "outcome"},
	)
	m.RowsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "execution_rows_committed_total", Help: "Row results sent to the commit sink"},
		[]string{"service", "operation", "status"},
	)
	m.ListsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "execution_lists_completed_total", Help: "Lists executed to completion"},
		[]string{"service", "operation"},
	)
	m.WorkflowSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "workflow_signals_total", Help: "Temporal signals sent on list completion"},
		[]string{"service", "signal", "status"},
	)
	m.VoiceUtterances = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "voice_utterances_total", Help: "Interpreted voice utterances by command"},
		[]string{"service", "command"},
	)
	m.VoiceRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "voice_restarts_total", Help: "Automatic recognition restarts"},
		[]string{"service", "reason"},
	)
	m.CommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "execution_commit_duration_seconds",
			Help:      "Time spent awaiting the commit sink",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "operation"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.KafkaEventsPublished, m.KafkaPublishDuration, m.OutboxPending, m.OutboxRetries,
		m.MongoDBOperations, m.MongoDBOperationDuration,
		m.ExecutionsActive, m.StepsTotal, m.RowsCommitted, m.ListsCompleted,
		m.WorkflowSignals, m.VoiceUtterances, m.VoiceRestarts, m.CommitDuration,
		m.CircuitBreakerState, m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns the HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() { m.HTTPRequestsInFlight.Inc() }

func (m *Metrics) DecrementHTTPRequestsInFlight() { m.HTTPRequestsInFlight.Dec() }

func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// SetExecutionsActive sets the number of executions held by the service
func (m *Metrics) SetExecutionsActive(count int) {
	m.ExecutionsActive.Set(float64(count))
}

// RecordStep counts one input applied at a step; outcome is "accepted" or an error kind
func (m *Metrics) RecordStep(operation, step, outcome string) {
	m.StepsTotal.WithLabelValues(m.serviceName, operation, step, outcome).Inc()
}

func (m *Metrics) RecordRowCommitted(operation string, success bool, duration time.Duration) {
	m.RowsCommitted.WithLabelValues(m.serviceName, operation, status(success)).Inc()
	m.CommitDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordListCompleted(operation string) {
	m.ListsCompleted.WithLabelValues(m.serviceName, operation).Inc()
}

func (m *Metrics) RecordWorkflowSignal(signal string, success bool) {
	m.WorkflowSignals.WithLabelValues(m.serviceName, signal, status(success)).Inc()
}

func (m *Metrics) RecordVoiceUtterance(command string) {
	if command == "" {
		command = "unrecognized"
	}
	m.VoiceUtterances.WithLabelValues(m.serviceName, command).Inc()
}

func (m *Metrics) RecordVoiceRestart(reason string) {
	m.VoiceRestarts.WithLabelValues(m.serviceName, reason).Inc()
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
