package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

type conflictCounter interface {
	SwapConflictCount(ctx context.Context, tripID int64, count int) (int, bool, error)
}

// ConflictMonitor 记住每个行程上次看到的冲突数量，数量变化时只通知一次
type ConflictMonitor struct {
	counts   conflictCounter
	notifier Notifier
}

func NewConflictMonitor(counts conflictCounter, notifier Notifier) *ConflictMonitor {
	return &ConflictMonitor{
		counts:   counts,
		notifier: notifier,
	}
}

// Observe 返回是否发出了通知。没有历史记录时按 0 处理
func (m *ConflictMonitor) Observe(ctx context.Context, trip *domain.Trip, count int) bool {
	prev, _, err := m.counts.SwapConflictCount(ctx, trip.ID, count)
	if err != nil {
		slog.Warn("无法记录冲突数量", "tripID", trip.ID, "error", err)
		return false
	}
	if prev == count {
		return false
	}

	m.notifier.Notify(ctx, domain.Notification{
		Type:      domain.NotificationConflictsChanged,
		TripID:    trip.ID,
		TripName:  trip.Name,
		To:        trip.NotifyEmail,
		Message:   fmt.Sprintf("行程「%s」的时间冲突从 %d 处变为 %d 处", trip.Name, prev, count),
		Data:      domain.ConflictsChangedData{Previous: prev, Current: count},
		CreatedAt: time.Now().UTC(),
	})
	return true
}
