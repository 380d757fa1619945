// Package events publishes inspection lifecycle events to redis streams and MQTT.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	commonredis "github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/redis"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// 事件类型
const (
	TypeInspectionStarted   = "inspection.started"
	TypeInspectionCompleted = "inspection.completed"
	TypeInspectionRejected  = "inspection.rejected"
)

// Event 检查状态变化事件
type Event struct {
	Type         string                  `json:"type"`
	InspectionID string                  `json:"inspection_id"`
	PropertyID   string                  `json:"property_id"`
	Status       domain.InspectionStatus `json:"status"`
	OccurredAt   time.Time               `json:"occurred_at"`
}

// NewStatusEvent builds the event for an inspection that has just changed status.
func NewStatusEvent(insp *domain.Inspection) Event {
	var typ string
	switch insp.Status {
	case domain.StatusInProgress:
		typ = TypeInspectionStarted
	case domain.StatusCompleted:
		typ = TypeInspectionCompleted
	case domain.StatusRejected:
		typ = TypeInspectionRejected
	default:
		typ = "inspection." + strings.ToLower(string(insp.Status))
	}
	return Event{
		Type:         typ,
		InspectionID: insp.InspectionID,
		PropertyID:   insp.PropertyID,
		Status:       insp.Status,
		OccurredAt:   time.Now().UTC(),
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// StreamPublisher 发布到 Redis Streams
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, evt Event) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, evt); err != nil {
		return fmt.Errorf("failed to publish %s to stream: %w", evt.Type, err)
	}
	return nil
}

// MQTTClient is the subset of the common MQTT client used for publishing.
type MQTTClient interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTPublisher 发布到 {prefix}/inspections/{id}/status（retained，订阅者拿到最新状态）
type MQTTPublisher struct {
	client MQTTClient
	prefix string
}

func NewMQTTPublisher(client MQTTClient, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(topicPrefix, "/")}
}

// Topic returns the status topic for an inspection.
func (p *MQTTPublisher) Topic(inspectionID string) string {
	if p.prefix == "" {
		return "inspections/" + inspectionID + "/status"
	}
	return p.prefix + "/inspections/" + inspectionID + "/status"
}

func (p *MQTTPublisher) Publish(_ context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(p.Topic(evt.InspectionID), true, payload)
}

// MultiPublisher fans out to every publisher. Failures are logged and do not stop the others;
// the first error is returned.
type MultiPublisher struct {
	publishers []Publisher
	logger     *zap.Logger
}

func NewMultiPublisher(logger *zap.Logger, publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers, logger: logger}
}

func (m *MultiPublisher) Publish(ctx context.Context, evt Event) error {
	var first error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			m.logger.Warn("Failed to publish inspection event",
				zap.String("type", evt.Type),
				zap.String("inspection_id", evt.InspectionID),
				zap.Error(err),
			)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
