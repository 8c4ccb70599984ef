// Package events carries live board updates from task mutations to
// WebSocket subscribers.
package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/metrics"
)

type Type string

const (
	TaskCreated Type = "task_created"
	TaskUpdated Type = "task_updated"
	TaskMoved   Type = "task_moved" // status change
	TaskDeleted Type = "task_deleted"
)

// BoardEvent represents a real-time board update.
type BoardEvent struct {
	Type      Type      `json:"type"`
	TaskID    uuid.UUID `json:"taskId"`
	ProjectID uuid.UUID `json:"projectId"`
	Data      any       `json:"data,omitempty"`
}

// Broker is a pub/sub transport. The Redis store and Local both satisfy it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// BoardChannel returns the channel name for a project board.
func BoardChannel(tenantID, projectID uuid.UUID) string {
	return "board:" + tenantID.String() + ":" + projectID.String()
}

// Publisher sends board events on a broker. Delivery is best effort:
// failures are logged and counted, never returned.
type Publisher struct {
	broker  Broker
	metrics *metrics.Metrics
}

func NewPublisher(broker Broker, m *metrics.Metrics) *Publisher {
	return &Publisher{broker: broker, metrics: m}
}

// PublishBoard sends ev to the board of its project. A nil Publisher drops it.
func (p *Publisher) PublishBoard(ctx context.Context, tenantID uuid.UUID, ev BoardEvent) {
	if p == nil || p.broker == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("events: marshal board event")
		p.metrics.EventPublishFailed()
		return
	}

	if err := p.broker.Publish(ctx, BoardChannel(tenantID, ev.ProjectID), payload); err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID.String()).
			Str("project_id", ev.ProjectID.String()).
			Msg("events: publish board event")
		p.metrics.EventPublishFailed()
	}
}
