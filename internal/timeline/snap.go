package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/routing"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
)

const defaultTransportMode = "drive"

type SnapResult struct {
	TargetID  int64         `json:"targetID"`
	RouteMode string        `json:"routeMode,omitempty"`
	Commit    *CommitResult `json:"commit"`
}

// Snap 把交通条目之后的下一个条目拉到交通结束的时刻。
// 查到路程时先按实际路程调整交通时长，路线服务不可用时保持原时长。
func (s *Service) Snap(ctx context.Context, trip *domain.Trip, transportID int64) (*SnapResult, error) {
	sch, _, err := s.snapshot(trip)
	if err != nil {
		return nil, err
	}

	t, ok := sch.Entry(transportID)
	if !ok || !t.IsScheduled {
		return nil, scheduler.ErrEntryNotFound
	}
	if !t.IsTransport() {
		return nil, scheduler.ErrNotTransport
	}

	target, err := s.snapTarget(sch, t)
	if err != nil {
		return nil, err
	}
	if target.IsLocked || target.Kind == domain.KindFlight {
		data := domain.SnapData{TransportID: t.ID, TargetID: target.ID, Reason: scheduler.SnapReasonLocked}
		s.notify(ctx, trip, domain.NotificationSnapFailed, t.ID, fmt.Sprintf("「%s」不能移动，无法衔接", target.Option.Name), data)
		if target.IsLocked {
			return nil, scheduler.ErrEntryLocked
		}
		return nil, scheduler.ErrFlightFixed
	}

	var routeMinutes *int
	mode := ""
	if route, ok := s.lookupRoute(ctx, sch, t, target); ok {
		routeMinutes = &route.DurationMin
		mode = route.Mode
	}

	plan, err := sch.PlanSnap(t.ID, target.ID, routeMinutes)
	if err != nil {
		return nil, err
	}
	for _, skipped := range plan.Skipped {
		slog.Info("跳过联动更新", "tripID", trip.ID, "entryID", skipped.EntryID, "anchorID", skipped.AnchorID, "reason", skipped.Reason)
	}

	written, failed := s.write(ctx, trip, sch, plan.All())
	result := &SnapResult{
		TargetID:  target.ID,
		RouteMode: mode,
		Commit:    &CommitResult{Changed: len(written) > 0, Plan: plan, Written: written, Failed: failed},
	}

	if len(failed) == 0 {
		data := domain.SnapData{TransportID: t.ID, TargetID: target.ID, RouteMode: mode}
		s.notify(ctx, trip, domain.NotificationSnapSucceeded, t.ID, fmt.Sprintf("「%s」已衔接到交通之后", target.Option.Name), data)
	}

	return result, nil
}

// snapTarget 优先使用交通条目记录的目的地，否则取时间轴上的下一个单元
func (s *Service) snapTarget(sch *scheduler.Scheduler, t *domain.Entry) (*domain.Entry, error) {
	if t.ToEntryID != nil {
		if target, ok := sch.Entry(*t.ToEntryID); ok && target.IsScheduled {
			return target, nil
		}
	}

	next, ok := sch.NextItem(t.ID)
	if !ok {
		return nil, ErrNoSnapTarget
	}
	target, ok := sch.Entry(next.ID)
	if !ok {
		return nil, ErrNoSnapTarget
	}
	return target, nil
}

// lookupRoute 失败时只记录日志，衔接照常进行
func (s *Service) lookupRoute(ctx context.Context, sch *scheduler.Scheduler, t, target *domain.Entry) (routing.Route, bool) {
	if s.router == nil || t.FromEntryID == nil {
		return routing.Route{}, false
	}
	from, ok := sch.Entry(*t.FromEntryID)
	if !ok || from.Option.Address == "" || target.Option.Address == "" {
		return routing.Route{}, false
	}

	mode := t.Option.TransportMode
	if mode == "" {
		mode = defaultTransportMode
	}

	routes, err := s.router.GetRoute(ctx, routing.Request{
		From:          from.Option.Address,
		To:            target.Option.Address,
		Modes:         []string{mode},
		DepartureTime: t.StartTime,
	})
	if err != nil || len(routes) == 0 {
		slog.Warn("无法查询路线，保持交通原时长", "tripID", t.TripID, "entryID", t.ID, "error", err)
		return routing.Route{}, false
	}
	return routes[0], true
}
