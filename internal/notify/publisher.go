package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// Channel 是 *amqp.Channel 中用到的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	queue   string
	timeout time.Duration
	ch      Channel
}

func NewPublisher(cfg *config.Config, ch Channel) *Publisher {
	return &Publisher{
		queue:   cfg.RabbitMQ.Queue,
		timeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
		ch:      ch,
	}
}

// DeclareQueue 声明持久化的通知队列，api 和 notify 两个进程都会调用
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 是否持久化
		false, // 是否自动删除
		false, // 是否独占
		false, // 是否不等待
		nil,   // 额外参数
	)
}

// Notify 只记录失败，不向调用方返回错误
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(n)
	if err != nil {
		slog.Error("通知序列化失败", "type", n.Type, "tripID", n.TripID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		slog.Error("无法发布通知", "type", n.Type, "tripID", n.TripID, "error", err)
		return
	}

	slog.Info("已发布通知", "type", n.Type, "tripID", n.TripID, "entryID", n.EntryID)
}
