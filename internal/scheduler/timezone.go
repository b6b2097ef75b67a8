package scheduler

import (
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// 交通条目继承时区时最多追溯的层数，防止 from_entry_id 成环
const maxInheritDepth = 8

func (s *Scheduler) loadHome(name string) *time.Location {
	for _, candidate := range []string{name, s.opts.DefaultTimezone} {
		if candidate == "" {
			continue
		}
		loc, err := time.LoadLocation(candidate)
		if err == nil {
			return loc
		}
		slog.Warn("无法加载行程时区", "tz", candidate, "error", err)
	}
	return time.UTC
}

// location 加载 IANA 时区，失败时回退到行程默认时区，不会返回错误
func (s *Scheduler) location(name string) *time.Location {
	if name == "" {
		return s.home
	}
	if loc, ok := s.locations[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("无法加载时区，回退到行程默认时区", "tz", name, "fallback", s.home.String(), "error", err)
		loc = s.home
	}
	s.locations[name] = loc
	return loc
}

// Resolve 决定条目在时间轴上显示和编辑时使用的时区
func (s *Scheduler) Resolve(e *domain.Entry) Resolution {
	if e.IsFlight() {
		loc := s.location(e.Option.DepartureTZ)
		return Resolution{
			DisplayTZ: loc.String(),
			EndTZ:     loc.String(),
			IsFlight:  true,
			StartLoc:  loc,
			EndLoc:    loc,
		}
	}

	if name, ok := s.pinnedZone(e, 0); ok {
		loc := s.location(name)
		return Resolution{DisplayTZ: loc.String(), EndTZ: loc.String(), StartLoc: loc, EndLoc: loc}
	}

	start := s.location(s.ZoneAt(e.StartTime))
	end := s.location(s.ZoneAt(e.EndTime))
	return Resolution{DisplayTZ: start.String(), EndTZ: end.String(), StartLoc: start, EndLoc: end}
}

// pinnedZone 处理不按时刻单独计算时区的条目：
// 值机/出站固定在所属航班的出发/到达时区，交通条目继承起点条目的时区
func (s *Scheduler) pinnedZone(e *domain.Entry, depth int) (string, bool) {
	if e.LinkedFlightID != nil {
		if flight, ok := s.entries[*e.LinkedFlightID]; ok && flight.IsFlight() {
			switch e.LinkedType {
			case domain.LinkedCheckin:
				return flight.Option.DepartureTZ, true
			case domain.LinkedCheckout:
				return flight.Option.ArrivalTZ, true
			}
		}
	}

	if e.IsTransport() && e.FromEntryID != nil && depth < maxInheritDepth {
		ref, ok := s.entries[*e.FromEntryID]
		if !ok || ref.ID == e.ID {
			return "", false
		}
		if ref.IsFlight() {
			// 交通从到达机场出发
			return ref.Option.ArrivalTZ, true
		}
		if name, ok := s.pinnedZone(ref, depth+1); ok {
			return name, true
		}
		return s.ZoneAt(ref.StartTime), true
	}

	return "", false
}

// ZoneAt 返回某个 UTC 时刻在行程中生效的时区名
func (s *Scheduler) ZoneAt(t time.Time) string {
	if len(s.days) == 0 {
		return s.home.String()
	}

	for i := range s.days {
		tz := s.effectiveZone(&s.days[i], t)
		if civilDate(t.In(s.location(tz))) == s.days[i].Date {
			return tz
		}
	}

	first := &s.days[0]
	if civilDate(t.In(s.location(first.Timezone.TZ))) < first.Date {
		return first.Timezone.TZ
	}
	return finalZone(&s.days[len(s.days)-1])
}

// effectiveZone: 航班结束（UTC）之后使用目的地时区，之前使用出发地时区
func (s *Scheduler) effectiveZone(d *Day, t time.Time) string {
	if len(d.Timezone.Boundaries) == 0 {
		return d.Timezone.TZ
	}
	tz := d.Timezone.Boundaries[0].OriginTZ
	for _, b := range d.Timezone.Boundaries {
		if !t.Before(b.FlightEndUTC) {
			tz = b.DestinationTZ
		}
	}
	return tz
}

// zoneAtClock 判断某天当地 HH:MM 落在哪个时区。某个时区的读法换算成 UTC 后，
// 该时刻在当天生效的时区必须正是它自己。向西飞行当天同一个钟点可能两种读法都成立，
// 此时优先 prefer（条目当前的时区），再优先落地之后的时区
func (s *Scheduler) zoneAtClock(dayIndex int, minutes int, prefer string) string {
	d := &s.days[dayIndex]
	if len(d.Timezone.Boundaries) == 0 {
		return d.Timezone.TZ
	}

	zones := []string{d.Timezone.Boundaries[0].OriginTZ}
	landed := zones[0]
	for _, b := range d.Timezone.Boundaries {
		zones = append(zones, b.DestinationTZ)
		if !d.at(s.location(b.DestinationTZ), minutes).Before(b.FlightEndUTC) {
			landed = b.DestinationTZ
		}
	}

	candidates := append([]string{prefer, landed}, zones...)
	for _, tz := range candidates {
		if tz != "" && s.effectiveZone(d, d.at(s.location(tz), minutes)) == tz {
			return tz
		}
	}
	// 飞行途中的钟点没有一致的读法
	return landed
}

func finalZone(d *Day) string {
	if n := len(d.Timezone.Boundaries); n > 0 {
		return d.Timezone.Boundaries[n-1].DestinationTZ
	}
	return d.Timezone.TZ
}
