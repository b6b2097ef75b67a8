package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
)

type CommitRequest struct {
	EntryID  int64
	StartGH  float64
	EndGH    float64
	DragType scheduler.DragType
}

type WriteFailure struct {
	EntryID int64  `json:"entryID"`
	Error   string `json:"error"`
}

type CommitResult struct {
	Changed bool                  `json:"changed"`
	Plan    scheduler.CascadePlan `json:"plan"`
	Written []int64               `json:"written"`
	Failed  []WriteFailure        `json:"failed"`
}

// Commit 处理一次拖拽结束。重新读取快照、重新吸附，没有变化时不写入
func (s *Service) Commit(ctx context.Context, trip *domain.Trip, req CommitRequest) (*CommitResult, error) {
	sch, _, err := s.snapshot(trip)
	if err != nil {
		return nil, err
	}

	e, ok := sch.Entry(req.EntryID)
	if !ok || !e.IsScheduled {
		return nil, scheduler.ErrEntryNotFound
	}
	if err := s.checkDraggable(ctx, trip, sch, e, req.DragType); err != nil {
		return nil, err
	}

	startGH, endGH := s.resnap(sch, e, req)
	start, end, err := sch.CommitInterval(e, startGH, endGH, req.DragType)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, trip, sch, e.ID, start, end)
}

// SetInterval 直接按 UTC 修改条目时间，航班也可以通过这里移动
func (s *Service) SetInterval(ctx context.Context, trip *domain.Trip, entryID int64, start, end time.Time) (*CommitResult, error) {
	if end.Before(start) {
		return nil, ErrInvalidInterval
	}

	sch, _, err := s.snapshot(trip)
	if err != nil {
		return nil, err
	}

	e, ok := sch.Entry(entryID)
	if !ok {
		return nil, scheduler.ErrEntryNotFound
	}
	if e.IsLocked {
		s.notify(ctx, trip, domain.NotificationLockedRejected, e.ID, fmt.Sprintf("「%s」已锁定，不能修改时间", e.Option.Name), nil)
		return nil, scheduler.ErrEntryLocked
	}

	return s.apply(ctx, trip, sch, e.ID, start.UTC(), end.UTC())
}

func (s *Service) checkDraggable(ctx context.Context, trip *domain.Trip, sch *scheduler.Scheduler, e *domain.Entry, dt scheduler.DragType) error {
	if e.IsLocked {
		s.notify(ctx, trip, domain.NotificationLockedRejected, e.ID, fmt.Sprintf("「%s」已锁定，不能拖动", e.Option.Name), nil)
		return scheduler.ErrEntryLocked
	}
	if e.Kind == domain.KindFlight {
		return scheduler.ErrFlightFixed
	}
	if sch.IsLinked(e.ID) {
		switch {
		case e.LinkedType == domain.LinkedCheckin && dt != scheduler.DragResizeTop,
			e.LinkedType == domain.LinkedCheckout && dt != scheduler.DragResizeBottom:
			return scheduler.ErrPinnedEdge
		}
	}
	return nil
}

// resnap 服务端再做一次吸附和最短时长限制，不信任客户端传来的坐标。
// 调整大小时只吸附移动的一端，另一端取条目当前位置，可能不在网格上
func (s *Service) resnap(sch *scheduler.Scheduler, e *domain.Entry, req CommitRequest) (float64, float64) {
	th := sch.Thresholds()
	minDur := float64(th.MinDurationMinutes) / 60
	maxGH := sch.TotalHours()
	snap := func(h float64) float64 {
		return math.Max(0, math.Min(maxGH, scheduler.SnapHours(h, th.SnapMinutes)))
	}

	pos, ok := sch.Position(e.ID)
	switch {
	case ok && req.DragType == scheduler.DragResizeTop:
		start := snap(req.StartGH)
		if pos.EndGH-start < minDur {
			start = pos.EndGH - minDur
		}
		return start, pos.EndGH
	case ok && req.DragType == scheduler.DragResizeBottom:
		end := snap(req.EndGH)
		if end-pos.StartGH < minDur {
			end = pos.StartGH + minDur
		}
		return pos.StartGH, end
	}

	start, end := snap(req.StartGH), snap(req.EndGH)
	if end-start < minDur {
		if req.DragType == scheduler.DragResizeTop || end+minDur > maxGH {
			start = end - minDur
		} else {
			end = start + minDur
		}
	}
	return start, end
}

// apply 计算联动计划并写入。锚点没有变化时直接返回
func (s *Service) apply(ctx context.Context, trip *domain.Trip, sch *scheduler.Scheduler, entryID int64, start, end time.Time) (*CommitResult, error) {
	anchor := domain.IntervalUpdate{EntryID: entryID, StartTime: start, EndTime: end}
	if !sch.Changed(anchor) {
		return &CommitResult{Changed: false, Written: []int64{}, Failed: []WriteFailure{}}, nil
	}

	plan, err := sch.Cascade(entryID, start, end)
	if err != nil {
		return nil, err
	}
	for _, skipped := range plan.Skipped {
		slog.Info("跳过联动更新", "tripID", trip.ID, "entryID", skipped.EntryID, "anchorID", skipped.AnchorID, "reason", skipped.Reason)
	}

	written, failed := s.write(ctx, trip, sch, plan.All())
	return &CommitResult{Changed: true, Plan: plan, Written: written, Failed: failed}, nil
}

// write 并发写入所有更新，互不依赖；单个失败只记录，不影响其它写入
func (s *Service) write(ctx context.Context, trip *domain.Trip, sch *scheduler.Scheduler, updates []domain.IntervalUpdate) ([]int64, []WriteFailure) {
	var (
		mu      sync.Mutex
		written = make([]int64, 0, len(updates))
		failed  = make([]WriteFailure, 0)
	)

	g := errgroup.Group{}
	g.SetLimit(max(s.cfg.Timeline.WriteConcurrency, 1))

	for _, u := range updates {
		if !sch.Changed(u) {
			continue
		}
		e, ok := sch.Entry(u.EntryID)
		if !ok {
			continue
		}

		entry := *e
		entry.StartTime, entry.EndTime = u.StartTime, u.EndTime

		g.Go(func() error {
			err := s.store.UpdateEntryInterval(&entry)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("无法写入条目时间", "tripID", trip.ID, "entryID", entry.ID, "error", err)
				failed = append(failed, WriteFailure{EntryID: entry.ID, Error: err.Error()})
				return nil
			}
			written = append(written, entry.ID)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(written, func(i, j int) bool { return written[i] < written[j] })
	sort.Slice(failed, func(i, j int) bool { return failed[i].EntryID < failed[j].EntryID })

	s.Invalidate(ctx, trip.ID)
	if len(failed) > 0 {
		s.notify(ctx, trip, domain.NotificationWriteFailed, failed[0].EntryID, fmt.Sprintf("%d 个条目的时间没有保存成功", len(failed)), failed)
	}

	return written, failed
}

// SetLocked 切换锁定状态，锁定的条目不会被拖动或联动
func (s *Service) SetLocked(ctx context.Context, trip *domain.Trip, entryID int64, locked bool) (*domain.Entry, error) {
	e, err := s.store.GetEntryByID(entryID)
	if err != nil {
		return nil, err
	}
	if e.TripID != trip.ID {
		return nil, scheduler.ErrEntryNotFound
	}
	if e.IsLocked == locked {
		return e, nil
	}

	e.IsLocked = locked
	if err := s.store.UpdateEntryLock(e); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, trip.ID)

	return e, nil
}
