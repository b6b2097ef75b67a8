package timeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/routing"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
)

var (
	ErrInvalidInterval = errors.New("end time is before start time")
	ErrInvalidGesture  = errors.New("gesture must start with a pointer down event")
	ErrNoSnapTarget    = errors.New("transport has no following entry to snap")
)

// Store 是持久层中时间轴用到的部分，由 *repository.Repository 实现
type Store interface {
	GetEntriesByTripID(tripID int64) ([]*domain.Entry, error)
	GetEntryByID(id int64) (*domain.Entry, error)
	UpdateEntryInterval(entry *domain.Entry) error
	UpdateEntryLock(entry *domain.Entry) error
}

type Router interface {
	GetRoute(ctx context.Context, req routing.Request) ([]routing.Route, error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Cache interface {
	LoadView(ctx context.Context, tripID int64, dst any) (bool, error)
	StoreView(ctx context.Context, tripID int64, v any) error
	InvalidateView(ctx context.Context, tripID int64) error
	SwapConflictCount(ctx context.Context, tripID int64, count int) (int, bool, error)
}

type Service struct {
	cfg      *config.Config
	opts     scheduler.Options
	store    Store
	router   Router
	notifier Notifier
	cache    Cache
	monitor  *ConflictMonitor
}

func NewService(cfg *config.Config, store Store, router Router, notifier Notifier, cache Cache) *Service {
	return &Service{
		cfg:      cfg,
		opts:     schedulerOptions(cfg),
		store:    store,
		router:   router,
		notifier: notifier,
		cache:    cache,
		monitor:  NewConflictMonitor(cache, notifier),
	}
}

func schedulerOptions(cfg *config.Config) scheduler.Options {
	tl := cfg.Timeline
	opts := scheduler.Options{
		DefaultTimezone: tl.DefaultTimezone,
		Thresholds: scheduler.Thresholds{
			SnapMinutes:         tl.SnapMinutes,
			MinDurationMinutes:  tl.MinDurationMinutes,
			IgnoreGapMinutes:    tl.IgnoreGapMinutes,
			TransportGapMinutes: tl.TransportGapMinutes,
			AutoSnapMinutes:     tl.AutoSnapMinutes,
			CenteredSnapMinutes: tl.CenteredSnapMinutes,
			RouteRoundMinutes:   tl.RouteRoundMinutes,
		},
	}

	if tl.UndatedReferenceDate != "" {
		ref, err := time.Parse("2006-01-02", tl.UndatedReferenceDate)
		if err != nil {
			slog.Warn("未定日期行程的参考日期无效，使用默认值", "value", tl.UndatedReferenceDate, "error", err)
		} else {
			opts.UndatedReference = ref
		}
	}

	return opts
}

// snapshot 每次都重新读取全部条目，所有计算都基于这一份快照
func (s *Service) snapshot(trip *domain.Trip) (*scheduler.Scheduler, []*domain.Entry, error) {
	entries, err := s.store.GetEntriesByTripID(trip.ID)
	if err != nil {
		return nil, nil, err
	}
	return scheduler.New(trip, entries, s.opts), entries, nil
}

// Invalidate 清除行程的时间轴缓存，失败只记录日志
func (s *Service) Invalidate(ctx context.Context, tripID int64) {
	if err := s.cache.InvalidateView(ctx, tripID); err != nil {
		slog.Warn("无法清除时间轴缓存", "tripID", tripID, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, trip *domain.Trip, typ domain.NotificationType, entryID int64, message string, data any) {
	s.notifier.Notify(ctx, domain.Notification{
		Type:      typ,
		TripID:    trip.ID,
		TripName:  trip.Name,
		EntryID:   entryID,
		To:        trip.NotifyEmail,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
}
