package resilient

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
	"github.com/wms-platform/execution-service/pkg/resilience"
)

// CommitSink guards a commit sink with a circuit breaker. While the breaker is
// open commits fail fast and the operator keeps the validated row.
type CommitSink struct {
	next    domain.CommitSink
	breaker *resilience.CircuitBreaker
}

// NewCommitSink wraps next. cfg may be nil for defaults.
func NewCommitSink(next domain.CommitSink, cfg *resilience.CircuitBreakerConfig, logger *logging.Logger, m *metrics.Metrics) *CommitSink {
	if cfg == nil {
		cfg = resilience.DefaultCircuitBreakerConfig("commit-sink")
	}

	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}
	m.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))

	return &CommitSink{
		next:    next,
		breaker: resilience.NewCircuitBreaker(cfg, logger.Logger),
	}
}

func (s *CommitSink) CommitPick(ctx context.Context, result domain.PickResult) error {
	_, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, s.next.CommitPick(ctx, result)
	})
	return err
}

func (s *CommitSink) CommitInventoryCount(ctx context.Context, result domain.InventoryResult) error {
	_, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, s.next.CommitInventoryCount(ctx, result)
	})
	return err
}

// State reports the breaker state
func (s *CommitSink) State() gobreaker.State {
	return s.breaker.State()
}
