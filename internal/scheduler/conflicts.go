package scheduler

import (
	"math"
	"sort"
)

type ConflictPosition string

const (
	PositionTop    ConflictPosition = "top"
	PositionBottom ConflictPosition = "bottom"
)

type Conflict struct {
	Minutes  int              `json:"minutes"`
	Position ConflictPosition `json:"position"`
}

type ConflictPair struct {
	UpperID int64 `json:"upperID"`
	LowerID int64 `json:"lowerID"`
	Minutes int   `json:"minutes"`
}

// ConflictReport.ByEntry 中同一条目参与多次重叠时，后出现的那一次覆盖前面的。
// Marks 保留每个条目的全部标记，夹在两个重叠条目中间的条目同时有 top 和 bottom
type ConflictReport struct {
	ByEntry map[int64]Conflict   `json:"byEntry"`
	Marks   map[int64][]Conflict `json:"marks"`
	Pairs   []ConflictPair       `json:"pairs"`
}

func (r ConflictReport) Count() int {
	return len(r.Pairs)
}

// Items 返回时间轴上所有可独立定位的单元，航班组作为一个整体出现
func (s *Scheduler) Items() []Item {
	items := make([]Item, 0, len(s.ordered))
	for _, e := range s.ordered {
		if s.linkedIDs[e.ID] {
			continue
		}

		if g, ok := s.groups[e.ID]; ok {
			iv, ok := s.GroupBounds(e.ID)
			if !ok {
				continue
			}
			item := Item{
				ID:       e.ID,
				Kind:     e.Kind,
				Locked:   e.IsLocked,
				StartUTC: e.StartTime,
				EndUTC:   e.EndTime,
				StartGH:  iv.StartGH,
				EndGH:    iv.EndGH,
			}
			if g.Checkin != nil {
				item.StartUTC = g.Checkin.StartTime
			}
			if g.Checkout != nil {
				item.EndUTC = g.Checkout.EndTime
			}
			items = append(items, item)
			continue
		}

		iv, ok := s.ToGlobalHours(e)
		if !ok {
			continue
		}
		items = append(items, Item{
			ID:       e.ID,
			Kind:     e.Kind,
			Locked:   e.IsLocked,
			StartUTC: e.StartTime,
			EndUTC:   e.EndTime,
			StartGH:  iv.StartGH,
			EndGH:    iv.EndGH,
		})
	}

	sortItems(items)
	return items
}

func (s *Scheduler) DetectConflicts() ConflictReport {
	return Detect(s.Items())
}

// Detect 比较按开始时间排序后的相邻单元，重叠分钟数按时间轴坐标计算
func Detect(items []Item) ConflictReport {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sortItems(sorted)

	report := ConflictReport{
		ByEntry: make(map[int64]Conflict),
		Marks:   make(map[int64][]Conflict),
		Pairs:   make([]ConflictPair, 0),
	}
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		if a.EndGH <= b.StartGH {
			continue
		}
		minutes := int(math.Round((a.EndGH - b.StartGH) * 60))
		if minutes < 1 {
			continue
		}
		bottom := Conflict{Minutes: minutes, Position: PositionBottom}
		top := Conflict{Minutes: minutes, Position: PositionTop}
		report.ByEntry[a.ID] = bottom
		report.ByEntry[b.ID] = top
		report.Marks[a.ID] = append(report.Marks[a.ID], bottom)
		report.Marks[b.ID] = append(report.Marks[b.ID], top)
		report.Pairs = append(report.Pairs, ConflictPair{UpperID: a.ID, LowerID: b.ID, Minutes: minutes})
	}
	return report
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartUTC.Equal(items[j].StartUTC) {
			return items[i].StartUTC.Before(items[j].StartUTC)
		}
		return items[i].ID < items[j].ID
	})
}
