package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// ToGlobalHours 把条目映射到时间轴坐标。开始日期不在行程日期范围内时返回 false。
func (s *Scheduler) ToGlobalHours(e *domain.Entry) (GlobalInterval, bool) {
	res := s.Resolve(e)

	startLocal := e.StartTime.In(res.StartLoc)
	di, ok := s.dayByDate[civilDate(startLocal)]
	if !ok {
		return GlobalInterval{}, false
	}
	startGH := float64(di*24) + hourOf(startLocal)

	// 航班在时间轴上的长度等于实际飞行时长，不按到达地当地时间计算
	if res.IsFlight {
		return GlobalInterval{StartGH: startGH, EndGH: startGH + e.Duration().Hours()}, true
	}

	endLocal := e.EndTime.In(res.EndLoc)
	endGH := float64((di+daysBetween(startLocal, endLocal))*24) + hourOf(endLocal)
	if endGH < startGH {
		endGH += 24
	}
	if endGH < startGH {
		endGH = startGH
	}
	return GlobalInterval{StartGH: startGH, EndGH: endGH}, true
}

// GroupBounds 返回整个航班组（值机 + 航班 + 出站）的时间轴区间
func (s *Scheduler) GroupBounds(flightID int64) (GlobalInterval, bool) {
	g, ok := s.groups[flightID]
	if !ok {
		return GlobalInterval{}, false
	}
	iv, ok := s.ToGlobalHours(g.Flight)
	if !ok {
		return GlobalInterval{}, false
	}

	start, end := iv.StartGH, iv.EndGH
	if g.Checkin != nil {
		start -= g.Checkin.Duration().Hours()
	}
	if g.Checkout != nil {
		end += g.Checkout.Duration().Hours()
	}
	if end < start {
		end = math.Floor(start/24)*24 + 24
	}
	return GlobalInterval{StartGH: start, EndGH: end}, true
}

// FromGlobalHours 是 ToGlobalHours 的逆映射，结果限定在行程日期范围内。
// 最后一天的 24:00 保留为 "24:00"，其余情况滚动到下一天的 00:00。
func (s *Scheduler) FromGlobalHours(gh float64) DayTime {
	n := len(s.days)
	if n == 0 {
		return DayTime{Clock: formatClock(0)}
	}

	di := int(math.Floor(gh / 24))
	local := gh - float64(di*24)
	if di < 0 {
		di, local = 0, 0
	}
	if di > n-1 {
		local += float64((di - (n - 1)) * 24)
		di = n - 1
	}

	minutes := int(math.Round(local * 60))
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 1440 {
		minutes = 1440
	}
	if minutes == 1440 && di < n-1 {
		di++
		minutes = 0
	}
	return DayTime{DayIndex: di, Minutes: minutes, Clock: formatClock(minutes)}
}

// CommitToUTC 把某天的 HH:MM（tz 当地时间）转换为 UTC 时刻
func (s *Scheduler) CommitToUTC(dayIndex int, clock, tz string) (time.Time, error) {
	if len(s.days) == 0 {
		return time.Time{}, fmt.Errorf("trip has no days")
	}
	minutes, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if dayIndex < 0 {
		dayIndex = 0
	}
	if dayIndex > len(s.days)-1 {
		dayIndex = len(s.days) - 1
	}
	return s.days[dayIndex].at(s.location(tz), minutes).UTC(), nil
}

// CommitInterval 把拖拽得到的候选区间转换为要写回的 UTC 区间。
// 调整大小时另一端保持原值不变，移动时按落点所在时区换算开始时间。
func (s *Scheduler) CommitInterval(e *domain.Entry, startGH, endGH float64, dt DragType) (time.Time, time.Time, error) {
	if endGH < startGH {
		endGH = startGH
	}
	dur := hoursToDuration(endGH - startGH)

	var start, end time.Time
	switch dt {
	case DragResizeTop:
		end = e.EndTime
		start = end.Add(-dur)
	case DragResizeBottom:
		start = e.StartTime
		end = start.Add(dur)
	default:
		at := s.FromGlobalHours(startGH)
		var err error
		start, err = s.CommitToUTC(at.DayIndex, at.Clock, s.commitZone(e, at))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = start.Add(dur)
	}
	return start.UTC(), end.UTC(), nil
}

func (s *Scheduler) commitZone(e *domain.Entry, at DayTime) string {
	if e.IsFlight() {
		return s.location(e.Option.DepartureTZ).String()
	}
	if name, ok := s.pinnedZone(e, 0); ok {
		return s.location(name).String()
	}
	return s.zoneAtClock(at.DayIndex, at.Minutes, s.Resolve(e).StartLoc.String())
}

// Position 返回条目（或条目所在航班组）的时间轴区间
func (s *Scheduler) Position(id int64) (GlobalInterval, bool) {
	e, ok := s.entries[id]
	if !ok || !e.IsScheduled {
		return GlobalInterval{}, false
	}
	return s.ToGlobalHours(e)
}
