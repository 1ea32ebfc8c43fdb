package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/execution-service/pkg/cloudevents"
	"github.com/wms-platform/execution-service/pkg/logging"
)

type fakeRepo struct {
	events    []*OutboxEvent
	published []string
	retried   map[string]string
}

func (r *fakeRepo) SaveAll(ctx context.Context, events []*OutboxEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *fakeRepo) FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	var out []*OutboxEvent
	for _, e := range r.events {
		if !e.IsPublished() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkPublished(ctx context.Context, eventID string) error {
	now := time.Now()
	for _, e := range r.events {
		if e.ID == eventID {
			e.PublishedAt = &now
		}
	}
	r.published = append(r.published, eventID)
	return nil
}

func (r *fakeRepo) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	if r.retried == nil {
		r.retried = map[string]string{}
	}
	for _, e := range r.events {
		if e.ID == eventID {
			e.RetryCount++
		}
	}
	r.retried[eventID] = errorMsg
	return nil
}

type fakeProducer struct {
	failTypes map[string]bool
	sent      []*cloudevents.WMSCloudEvent
}

func (p *fakeProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	if p.failTypes[event.Type] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, event)
	return nil
}

func newEvent(t *testing.T, eventType string) *OutboxEvent {
	t.Helper()
	ce := cloudevents.NewEventFactory(cloudevents.SourceExecution).CreateEvent(context.Background(), eventType, "list/L1", map[string]any{"listId": "L1"})
	e, err := NewOutboxEventFromCloudEvent("L1", "ExecutionList", "wms.execution.events", ce)
	require.NoError(t, err)
	return e
}

func TestPublisher_ProcessOnce(t *testing.T) {
	ok := newEvent(t, cloudevents.PickRowCommitted)
	bad := newEvent(t, cloudevents.ListCompleted)
	repo := &fakeRepo{events: []*OutboxEvent{ok, bad}}
	producer := &fakeProducer{failTypes: map[string]bool{cloudevents.ListCompleted: true}}

	p := NewPublisher(repo, producer, logging.NewNop(), nil, &PublisherConfig{PollInterval: time.Hour, BatchSize: 10})
	p.ProcessOnce(context.Background())

	require.Len(t, producer.sent, 1)
	assert.Equal(t, cloudevents.PickRowCommitted, producer.sent[0].Type)
	assert.Equal(t, []string{ok.ID}, repo.published)
	assert.Contains(t, repo.retried[bad.ID], "broker unavailable")
	assert.Equal(t, 1, bad.RetryCount)
	assert.Equal(t, map[string]int{"published": 1, "failed": 1}, p.Stats())
}

func TestPublisher_SkipsExhaustedEvents(t *testing.T) {
	e := newEvent(t, cloudevents.PickRowCommitted)
	e.RetryCount = e.MaxRetries
	repo := &fakeRepo{events: []*OutboxEvent{e}}
	producer := &fakeProducer{}

	NewPublisher(repo, producer, logging.NewNop(), nil, nil).ProcessOnce(context.Background())

	assert.Empty(t, producer.sent)
}

func TestPublisher_StartStop(t *testing.T) {
	repo := &fakeRepo{}
	p := NewPublisher(repo, &fakeProducer{}, logging.NewNop(), nil, &PublisherConfig{PollInterval: 5 * time.Millisecond, BatchSize: 10})

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(context.Background()))

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	assert.Error(t, p.Stop())
}
