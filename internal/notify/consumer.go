package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// Sender 是 *mail.Client 中用到的部分
type Sender interface {
	DialAndSend(messages ...*mail.Msg) error
}

type Consumer struct {
	mailer *Mailer
	sender Sender
}

func NewConsumer(mailer *Mailer, sender Sender) *Consumer {
	return &Consumer{
		mailer: mailer,
		sender: sender,
	}
}

// decodeData 把反序列化后的 map 重新转换成具体的数据类型
func decodeData[T any](v any) (T, error) {
	var out T
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// Handle 处理一条消息。格式错误的消息直接丢弃，发送失败的邮件重新入队
func (c *Consumer) Handle(msg amqp.Delivery) {
	n := domain.Notification{}
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		slog.Error("通知反序列化失败", "error", err)
		_ = msg.Nack(false, false)
		return
	}
	slog.Info("收到通知", "type", n.Type, "tripID", n.TripID, "entryID", n.EntryID, "message", n.Message)

	mailMsg, err := c.mailer.Build(n)
	if err != nil {
		slog.Error("无法构建邮件", "type", n.Type, "tripID", n.TripID, "error", err)
		_ = msg.Nack(false, false)
		return
	}
	if mailMsg == nil {
		_ = msg.Ack(false)
		return
	}

	if err := c.sender.DialAndSend(mailMsg); err != nil {
		slog.Error("邮件发送失败", "type", n.Type, "tripID", n.TripID, "error", err)
		_ = msg.Nack(false, true) // 将消息重新入队
		return
	}

	_ = msg.Ack(false)
}

// Run 持续消费直到 ctx 结束或通道关闭
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Warn("消息通道已关闭")
				return
			}
			c.Handle(msg)
		}
	}
}
