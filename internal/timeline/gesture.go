package timeline

import (
	"context"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
)

type GestureRequest struct {
	EntryID       int64
	DragType      scheduler.DragType
	OnGroup       bool // 按在航班组卡片上
	PixelsPerHour float64
	ViewportWidth float64
	Events        []scheduler.PointerEvent
}

type GestureResult struct {
	Commit *scheduler.CommitEvent `json:"commit,omitempty"`
	Result *CommitResult          `json:"result,omitempty"`
}

func (s *Service) dragConfig(sch *scheduler.Scheduler, req GestureRequest) scheduler.DragConfig {
	tl := s.cfg.Timeline
	return scheduler.DragConfig{
		PixelsPerHour:      req.PixelsPerHour,
		TotalDays:          sch.TotalDays(),
		SnapMinutes:        tl.SnapMinutes,
		MinDurationMinutes: tl.MinDurationMinutes,
		HoldDelay:          time.Duration(tl.TouchHoldDelay) * time.Millisecond,
		TouchSlop:          tl.TouchSlop,
		ReleaseGuard:       time.Duration(tl.ReleaseGuard) * time.Millisecond,
		DetachRatio:        tl.DetachRatio,
		ViewportWidth:      req.ViewportWidth,
	}
}

// ReplayGesture 用录制的指针事件在服务端重放一次拖拽，得到的结果按 Commit 处理。
// 拖出时间轴或没有变化时不写入
func (s *Service) ReplayGesture(ctx context.Context, trip *domain.Trip, req GestureRequest) (*GestureResult, error) {
	if len(req.Events) == 0 || req.Events[0].Type != scheduler.PointerDown {
		return nil, ErrInvalidGesture
	}

	sch, _, err := s.snapshot(trip)
	if err != nil {
		return nil, err
	}

	e, ok := sch.Entry(req.EntryID)
	if !ok {
		return nil, scheduler.ErrEntryNotFound
	}

	pos, ok := sch.Position(e.ID)
	if !ok {
		return nil, scheduler.ErrEntryNotFound
	}

	down := req.Events[0]
	begin := scheduler.BeginRequest{
		EntryID:     e.ID,
		Type:        req.DragType,
		StartGH:     pos.StartGH,
		EndGH:       pos.EndGH,
		Locked:      e.IsLocked,
		FlightGroup: req.OnGroup || e.Kind == domain.KindFlight,
		Pointer:     down.Pointer,
		X:           down.X,
		Y:           down.Y,
		At:          down.At,
	}
	if sch.IsLinked(e.ID) {
		begin.LinkedType = e.LinkedType
	}

	ctrl := scheduler.NewDragController(s.dragConfig(sch, req))
	out, ok, err := ctrl.Replay(begin, req.Events[1:])
	if err != nil {
		if errors.Is(err, scheduler.ErrEntryLocked) {
			s.notify(ctx, trip, domain.NotificationLockedRejected, e.ID, "「"+e.Option.Name+"」已锁定，不能拖动", nil)
		}
		return nil, err
	}
	if !ok {
		return &GestureResult{}, nil
	}

	result := &GestureResult{Commit: &out}
	if out.Zone == scheduler.ZoneDetached || !out.Changed {
		return result, nil
	}

	res, err := s.Commit(ctx, trip, CommitRequest{
		EntryID:  out.EntryID,
		StartGH:  out.StartGH,
		EndGH:    out.EndGH,
		DragType: out.Type,
	})
	if err != nil {
		return nil, err
	}
	result.Result = res

	return result, nil
}
