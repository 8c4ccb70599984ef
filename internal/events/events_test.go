package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/metrics"
)

func TestBoardChannel(t *testing.T) {
	t.Parallel()

	tenantID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	projectID := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	got := events.BoardChannel(tenantID, projectID)
	assert.Equal(t, "board:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee:11111111-2222-3333-4444-555555555555", got)
	assert.NotEqual(t, got, events.BoardChannel(uuid.New(), projectID))
}

func TestLocal_PublishSubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := events.NewLocal()
	pub := events.NewPublisher(broker, nil)

	tenantID, projectID, taskID := uuid.New(), uuid.New(), uuid.New()
	msgs, cleanup, err := broker.Subscribe(ctx, events.BoardChannel(tenantID, projectID))
	require.NoError(t, err)
	defer cleanup()

	other, otherCleanup, err := broker.Subscribe(ctx, events.BoardChannel(uuid.New(), projectID))
	require.NoError(t, err)
	defer otherCleanup()

	pub.PublishBoard(ctx, tenantID, events.BoardEvent{Type: events.TaskMoved, TaskID: taskID, ProjectID: projectID})

	select {
	case raw := <-msgs:
		var ev events.BoardEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, events.TaskMoved, ev.Type)
		assert.Equal(t, taskID, ev.TaskID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case <-other:
		t.Fatal("event leaked to another tenant's board")
	default:
	}
}

func TestLocal_CleanupClosesChannel(t *testing.T) {
	t.Parallel()

	broker := events.NewLocal()
	msgs, cleanup, err := broker.Subscribe(context.Background(), "board:x")
	require.NoError(t, err)

	cleanup()
	cleanup()

	_, ok := <-msgs
	assert.False(t, ok)
	require.NoError(t, broker.Publish(context.Background(), "board:x", []byte("{}")))
}

type failingBroker struct{ events.Broker }

func (failingBroker) Publish(context.Context, string, []byte) error { return errors.New("down") }

func TestPublisher_FailuresAreCounted(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	pub := events.NewPublisher(failingBroker{}, metrics.New(reg))

	assert.NotPanics(t, func() {
		pub.PublishBoard(context.Background(), uuid.New(), events.BoardEvent{Type: events.TaskCreated, ProjectID: uuid.New()})
	})

	families, err := reg.Gather()
	require.NoError(t, err)

	var got float64
	for _, mf := range families {
		if mf.GetName() == "taskhub_event_publish_errors_total" {
			got = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 1.0, got, 0)

	var nilPub *events.Publisher
	assert.NotPanics(t, func() {
		nilPub.PublishBoard(context.Background(), uuid.New(), events.BoardEvent{})
	})
}
