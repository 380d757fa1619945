package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	commonredis "github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/redis"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

type fakeMQTT struct {
	topic    string
	retained bool
	payload  []byte
	err      error
}

func (f *fakeMQTT) Publish(topic string, retained bool, payload []byte) error {
	f.topic, f.retained, f.payload = topic, retained, payload
	return f.err
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}

func TestNewStatusEvent(t *testing.T) {
	evt := NewStatusEvent(&domain.Inspection{InspectionID: "i-1", PropertyID: "p-1", Status: domain.StatusCompleted})
	assert.Equal(t, TypeInspectionCompleted, evt.Type)
	assert.Equal(t, "i-1", evt.InspectionID)
	assert.False(t, evt.OccurredAt.IsZero())
}

func TestStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewStreamPublisher(client, "inspections:events")
	evt := NewStatusEvent(&domain.Inspection{InspectionID: "i-1", Status: domain.StatusInProgress})
	require.NoError(t, p.Publish(context.Background(), evt))

	msgs, err := commonredis.ReadRange(context.Background(), client, "inspections:events")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, TypeInspectionStarted, got.Type)
	assert.Equal(t, domain.StatusInProgress, got.Status)
}

func TestMQTTPublisher_TopicAndRetained(t *testing.T) {
	fake := &fakeMQTT{}
	p := NewMQTTPublisher(fake, "buildstate/")

	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeInspectionCompleted, InspectionID: "i-9"}))
	assert.Equal(t, "buildstate/inspections/i-9/status", fake.topic)
	assert.True(t, fake.retained)
	assert.Contains(t, string(fake.payload), `"inspection_id":"i-9"`)

	assert.Equal(t, "inspections/x/status", NewMQTTPublisher(fake, "").Topic("x"))
}

func TestMultiPublisher_ContinuesAfterFailure(t *testing.T) {
	failing := &failingPublisher{}
	fake := &fakeMQTT{}
	m := NewMultiPublisher(zap.NewNop(), failing, NewMQTTPublisher(fake, "fm"))

	err := m.Publish(context.Background(), Event{Type: TypeInspectionCompleted, InspectionID: "i-1"})
	assert.EqualError(t, err, "broker down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, "fm/inspections/i-1/status", fake.topic)
}
