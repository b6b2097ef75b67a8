package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// Scheduler 持有一次快照（行程 + 全部条目）上计算所需的全部派生状态。
// 快照在构造之后不会被修改，所有计算都是纯函数。
type Scheduler struct {
	opts      Options
	home      *time.Location
	locations map[string]*time.Location

	days      []Day
	dayByDate map[string]int

	entries   map[int64]*domain.Entry
	ordered   []*domain.Entry // 已排期的条目，按开始时间排序
	groups    map[int64]*FlightGroup
	linkedIDs map[int64]bool

	linkedByFlight map[int64][]*domain.Entry // flightID -> 值机 / 出站条目
	transportsFrom map[int64][]*domain.Entry // entryID -> 以它为起点的交通条目
}

func New(trip *domain.Trip, entries []*domain.Entry, opts Options) *Scheduler {
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.UndatedReference.IsZero() {
		opts.UndatedReference = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)
	}

	s := &Scheduler{
		opts:           opts,
		locations:      make(map[string]*time.Location),
		dayByDate:      make(map[string]int),
		entries:        make(map[int64]*domain.Entry, len(entries)),
		ordered:        make([]*domain.Entry, 0, len(entries)),
		linkedByFlight: make(map[int64][]*domain.Entry),
		transportsFrom: make(map[int64][]*domain.Entry),
	}
	s.home = s.loadHome(trip.HomeTimezone)

	all := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		s.entries[e.ID] = e
		all = append(all, e)
	}
	sortByStart(all)

	for _, e := range all {
		if e.IsScheduled {
			s.ordered = append(s.ordered, e)
		}
		if e.LinkedFlightID != nil && e.LinkedType != domain.LinkedNone {
			s.linkedByFlight[*e.LinkedFlightID] = append(s.linkedByFlight[*e.LinkedFlightID], e)
		}
		if e.IsTransport() && e.FromEntryID != nil {
			s.transportsFrom[*e.FromEntryID] = append(s.transportsFrom[*e.FromEntryID], e)
		}
	}

	s.groups, s.linkedIDs = BuildGroups(s.ordered)
	s.buildDays(trip)

	return s
}

func (s *Scheduler) Days() []Day {
	return s.days
}

func (s *Scheduler) TotalDays() int {
	return len(s.days)
}

func (s *Scheduler) TotalHours() float64 {
	return float64(len(s.days) * 24)
}

func (s *Scheduler) Thresholds() Thresholds {
	return s.opts.Thresholds
}

func (s *Scheduler) Home() *time.Location {
	return s.home
}

func (s *Scheduler) Entry(id int64) (*domain.Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Entries 返回已排期的条目（按开始时间排序）
func (s *Scheduler) Entries() []*domain.Entry {
	return s.ordered
}

func (s *Scheduler) Groups() map[int64]*FlightGroup {
	return s.groups
}

func (s *Scheduler) Group(flightID int64) (*FlightGroup, bool) {
	g, ok := s.groups[flightID]
	return g, ok
}

// IsLinked 表示条目已被并入某个航班组，不单独定位和拖拽
func (s *Scheduler) IsLinked(id int64) bool {
	return s.linkedIDs[id]
}

// Changed 判断一次更新是否真的改变了快照中的区间
func (s *Scheduler) Changed(u domain.IntervalUpdate) bool {
	e, ok := s.entries[u.EntryID]
	if !ok {
		return false
	}
	return !e.StartTime.Equal(u.StartTime) || !e.EndTime.Equal(u.EndTime)
}

func (s *Scheduler) buildDays(trip *domain.Trip) {
	var first time.Time
	count := int(trip.DayCount)
	dated := trip.IsDated()

	if dated {
		first = time.Date(trip.StartDate.Year(), trip.StartDate.Month(), trip.StartDate.Day(), 0, 0, 0, 0, time.UTC)
		if trip.EndDate != nil {
			last := time.Date(trip.EndDate.Year(), trip.EndDate.Month(), trip.EndDate.Day(), 0, 0, 0, 0, time.UTC)
			count = int(last.Sub(first).Hours()/24) + 1
		}
	} else {
		ref := s.opts.UndatedReference
		first = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	}
	if count < 1 {
		count = 1
	}

	flights := make([]*domain.Entry, 0)
	for _, e := range s.ordered {
		if e.IsFlight() {
			flights = append(flights, e)
		}
	}

	current := s.home.String()
	next := 0
	s.days = make([]Day, 0, count)

	for i := 0; i < count; i++ {
		date := first.AddDate(0, 0, i)
		d := Day{
			Index: i,
			Date:  date.Format(dateLayout),
			year:  date.Year(),
			month: date.Month(),
			day:   date.Day(),
		}
		if dated {
			d.Label = date.Format("Mon, Jan 2")
		} else {
			d.Label = fmt.Sprintf("Day %d", i+1)
		}

		// 在这一天之前起飞的航班决定当天开始时的时区
		for next < len(flights) && s.departureDate(flights[next]) < d.Date {
			current = s.location(flights[next].Option.ArrivalTZ).String()
			next++
		}
		d.Timezone.TZ = current

		for next < len(flights) && s.departureDate(flights[next]) == d.Date {
			b := s.boundaryOf(flights[next])
			d.Timezone.Boundaries = append(d.Timezone.Boundaries, b)
			current = b.DestinationTZ
			next++
		}

		s.dayByDate[d.Date] = i
		s.days = append(s.days, d)
	}
}

func (s *Scheduler) departureDate(flight *domain.Entry) string {
	return civilDate(flight.StartTime.In(s.location(flight.Option.DepartureTZ)))
}

func (s *Scheduler) boundaryOf(flight *domain.Entry) FlightBoundary {
	origin := s.location(flight.Option.DepartureTZ)
	startHour := hourOf(flight.StartTime.In(origin))
	return FlightBoundary{
		FlightID:        flight.ID,
		OriginTZ:        origin.String(),
		DestinationTZ:   s.location(flight.Option.ArrivalTZ).String(),
		FlightStartHour: startHour,
		FlightEndHour:   startHour + flight.Duration().Hours(),
		FlightEndUTC:    flight.EndTime.UTC(),
	}
}

func sortByStart(entries []*domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].StartTime.Equal(entries[j].StartTime) {
			return entries[i].StartTime.Before(entries[j].StartTime)
		}
		return entries[i].ID < entries[j].ID
	})
}
