package timeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/scheduler"
)

type PositionedEntry struct {
	Entry      *domain.Entry        `json:"entry"`
	StartGH    float64              `json:"startGH"`
	EndGH      float64              `json:"endGH"`
	DayIndex   int                  `json:"dayIndex"`
	DisplayTZ  string               `json:"displayTZ"`
	EndTZ      string               `json:"endTZ"`
	StartClock string               `json:"startClock"`
	EndClock   string               `json:"endClock"`
	FlightID   *int64               `json:"flightID,omitempty"` // 属于某个航班组时填写
	Conflict   *scheduler.Conflict  `json:"conflict,omitempty"`
	Marks      []scheduler.Conflict `json:"marks,omitempty"`
}

type GroupView struct {
	FlightID   int64                      `json:"flightID"`
	CheckinID  *int64                     `json:"checkinID,omitempty"`
	CheckoutID *int64                     `json:"checkoutID,omitempty"`
	StartGH    float64                    `json:"startGH"`
	EndGH      float64                    `json:"endGH"`
	Segments   scheduler.SegmentFractions `json:"segments"`
	Conflict   *scheduler.Conflict        `json:"conflict,omitempty"`
	Marks      []scheduler.Conflict       `json:"marks,omitempty"`
}

type View struct {
	TripID      int64                    `json:"tripID"`
	Days        []scheduler.Day          `json:"days"`
	TotalHours  float64                  `json:"totalHours"`
	Entries     []PositionedEntry        `json:"entries"`
	Groups      []GroupView              `json:"groups"`
	Unscheduled []*domain.Entry          `json:"unscheduled"`
	Conflicts   scheduler.ConflictReport `json:"conflicts"`
	Gaps        []scheduler.GapAdvice    `json:"gaps"`
}

// BuildView 优先读取缓存；重新计算时会顺带检查冲突数量是否变化
func (s *Service) BuildView(ctx context.Context, trip *domain.Trip) (*View, error) {
	cached := &View{}
	ok, err := s.cache.LoadView(ctx, trip.ID, cached)
	if err != nil {
		slog.Warn("无法读取时间轴缓存", "tripID", trip.ID, "error", err)
	}
	if ok {
		return cached, nil
	}

	sch, entries, err := s.snapshot(trip)
	if err != nil {
		return nil, err
	}

	view := compose(trip, sch, entries)
	s.monitor.Observe(ctx, trip, view.Conflicts.Count())

	if err := s.cache.StoreView(ctx, trip.ID, view); err != nil {
		slog.Warn("无法写入时间轴缓存", "tripID", trip.ID, "error", err)
	}

	return view, nil
}

func compose(trip *domain.Trip, sch *scheduler.Scheduler, all []*domain.Entry) *View {
	report := sch.DetectConflicts()

	view := &View{
		TripID:      trip.ID,
		Days:        sch.Days(),
		TotalHours:  sch.TotalHours(),
		Entries:     make([]PositionedEntry, 0, len(sch.Entries())),
		Groups:      make([]GroupView, 0, len(sch.Groups())),
		Unscheduled: make([]*domain.Entry, 0),
		Conflicts:   report,
		Gaps:        sch.AdviseGaps(),
	}

	for _, e := range all {
		if !e.IsScheduled {
			view.Unscheduled = append(view.Unscheduled, e)
		}
	}

	memberOf := make(map[int64]int64)
	for flightID, g := range sch.Groups() {
		for _, m := range g.Members() {
			memberOf[m.ID] = flightID
		}
	}

	for _, e := range sch.Entries() {
		iv, ok := sch.ToGlobalHours(e)
		if !ok {
			// 开始日期不在行程范围内的条目不显示
			continue
		}

		res := sch.Resolve(e)
		pe := PositionedEntry{
			Entry:      e,
			StartGH:    iv.StartGH,
			EndGH:      iv.EndGH,
			DayIndex:   sch.FromGlobalHours(iv.StartGH).DayIndex,
			DisplayTZ:  res.DisplayTZ,
			EndTZ:      res.EndTZ,
			StartClock: e.StartTime.In(res.StartLoc).Format("15:04"),
			EndClock:   e.EndTime.In(res.EndLoc).Format("15:04"),
		}
		if flightID, ok := memberOf[e.ID]; ok {
			pe.FlightID = &flightID
		}
		if c, ok := report.ByEntry[e.ID]; ok && !sch.IsLinked(e.ID) {
			pe.Conflict = &c
			pe.Marks = report.Marks[e.ID]
		}
		view.Entries = append(view.Entries, pe)
	}

	for flightID, g := range sch.Groups() {
		iv, ok := sch.GroupBounds(flightID)
		if !ok {
			continue
		}
		gv := GroupView{
			FlightID: flightID,
			StartGH:  iv.StartGH,
			EndGH:    iv.EndGH,
			Segments: g.SegmentFractions(),
		}
		if g.Checkin != nil {
			id := g.Checkin.ID
			gv.CheckinID = &id
		}
		if g.Checkout != nil {
			id := g.Checkout.ID
			gv.CheckoutID = &id
		}
		if c, ok := report.ByEntry[flightID]; ok {
			gv.Conflict = &c
			gv.Marks = report.Marks[flightID]
		}
		view.Groups = append(view.Groups, gv)
	}
	sort.Slice(view.Groups, func(i, j int) bool {
		return view.Groups[i].StartGH < view.Groups[j].StartGH
	})

	return view
}
