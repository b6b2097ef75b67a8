package scheduler

import (
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

type SkipReason string

const (
	SkipLocked  SkipReason = "locked"
	SkipMissing SkipReason = "missing"
)

type SkippedStep struct {
	EntryID  int64      `json:"entryID"`
	AnchorID int64      `json:"anchorID"`
	Reason   SkipReason `json:"reason"`
}

// CascadePlan 是一次提交需要写回的全部区间，Anchor 是用户直接修改的那个条目
type CascadePlan struct {
	Anchor  domain.IntervalUpdate   `json:"anchor"`
	Updates []domain.IntervalUpdate `json:"updates"`
	Skipped []SkippedStep           `json:"skipped"`
}

func (p CascadePlan) All() []domain.IntervalUpdate {
	all := make([]domain.IntervalUpdate, 0, len(p.Updates)+1)
	all = append(all, p.Anchor)
	return append(all, p.Updates...)
}

type cascade struct {
	s       *Scheduler
	plan    CascadePlan
	planned map[int64]domain.IntervalUpdate
	visited map[int64]bool
	queue   []int64
}

// Cascade 在快照上计算锚点条目改到 [newStart, newEnd) 之后所有联动条目的新区间，
// 不执行任何写入。锁定条目和缺失的引用记入 Skipped，不会中断计划。
func (s *Scheduler) Cascade(entryID int64, newStart, newEnd time.Time) (CascadePlan, error) {
	anchor, ok := s.entries[entryID]
	if !ok {
		return CascadePlan{}, ErrEntryNotFound
	}
	if anchor.IsLocked {
		return CascadePlan{}, ErrEntryLocked
	}

	c := &cascade{
		s:       s,
		planned: make(map[int64]domain.IntervalUpdate),
		visited: map[int64]bool{entryID: true},
		queue:   []int64{entryID},
	}
	c.plan.Anchor = domain.IntervalUpdate{EntryID: entryID, StartTime: newStart.UTC(), EndTime: newEnd.UTC()}
	c.plan.Updates = make([]domain.IntervalUpdate, 0)
	c.planned[entryID] = c.plan.Anchor

	for len(c.queue) > 0 {
		id := c.queue[0]
		c.queue = c.queue[1:]
		c.step(id)
	}
	return c.plan, nil
}

func (c *cascade) step(id int64) {
	e := c.s.entries[id]
	cur := c.planned[id]

	if e.Kind == domain.KindFlight {
		for _, linked := range c.s.linkedByFlight[id] {
			if c.visited[linked.ID] {
				continue
			}
			dur := linked.Duration()
			switch linked.LinkedType {
			case domain.LinkedCheckin:
				c.apply(id, linked, cur.StartTime.Add(-dur), cur.StartTime)
			case domain.LinkedCheckout:
				c.apply(id, linked, cur.EndTime, cur.EndTime.Add(dur))
			}
		}
	}

	for _, t := range c.s.transportsFrom[id] {
		if c.visited[t.ID] {
			continue
		}
		tEnd := cur.EndTime.Add(t.Duration())
		if !c.apply(id, t, cur.EndTime, tEnd) {
			continue
		}
		if t.ToEntryID == nil {
			continue
		}

		dest, ok := c.s.entries[*t.ToEntryID]
		if !ok {
			c.skip(t.ID, *t.ToEntryID, SkipMissing)
			continue
		}
		if c.visited[dest.ID] {
			continue
		}
		gap := dest.StartTime.Sub(tEnd)
		if gap < time.Duration(c.s.opts.Thresholds.AutoSnapMinutes)*time.Minute {
			c.apply(t.ID, dest, tEnd, tEnd.Add(dest.Duration()))
		}
	}
}

// apply 记录一次联动更新，返回 true 表示区间确实改变，需要继续向下联动
func (c *cascade) apply(anchorID int64, e *domain.Entry, start, end time.Time) bool {
	if e.IsLocked {
		c.skip(anchorID, e.ID, SkipLocked)
		return false
	}
	c.visited[e.ID] = true

	u := domain.IntervalUpdate{EntryID: e.ID, StartTime: start.UTC(), EndTime: end.UTC()}
	if !c.s.Changed(u) {
		return false
	}
	c.planned[e.ID] = u
	c.plan.Updates = append(c.plan.Updates, u)
	c.queue = append(c.queue, e.ID)
	return true
}

func (c *cascade) skip(anchorID, entryID int64, reason SkipReason) {
	c.plan.Skipped = append(c.plan.Skipped, SkippedStep{EntryID: entryID, AnchorID: anchorID, Reason: reason})
}
