package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.RabbitMQ.Queue = "timeline_notifications"
	cfg.RabbitMQ.PublishTimeout = 1
	return cfg
}

func TestNotifyPublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(testConfig(), ch)

	p.Notify(context.Background(), domain.Notification{
		Type:    domain.NotificationConflictsChanged,
		TripID:  7,
		Message: "冲突数量发生变化",
		Data:    domain.ConflictsChangedData{Previous: 0, Current: 2},
	})

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "timeline_notifications", ch.key)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)

	var got struct {
		Type   domain.NotificationType     `json:"type"`
		TripID int64                       `json:"tripID"`
		Data   domain.ConflictsChangedData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &got))
	assert.Equal(t, domain.NotificationConflictsChanged, got.Type)
	assert.Equal(t, int64(7), got.TripID)
	assert.Equal(t, 2, got.Data.Current)
}

func TestNotifySwallowsPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisher(testConfig(), ch)

	assert.NotPanics(t, func() {
		p.Notify(context.Background(), domain.Notification{Type: domain.NotificationSnapFailed, TripID: 1})
	})
	assert.Empty(t, ch.msgs)
}
