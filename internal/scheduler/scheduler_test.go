package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// Dubai、Bangkok、Bogota 都没有夏令时。Bangkok 比 Dubai 快 3 小时，Bogota 比 Dubai 慢 9 小时
const (
	dubai   = "Asia/Dubai"
	bangkok = "Asia/Bangkok"
	bogota  = "America/Bogota"
)

func at(t *testing.T, tz string, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	return time.Date(2024, time.March, day, hour, minute, 0, 0, loc).UTC()
}

func ptr(v int64) *int64 {
	return &v
}

func newTrip(days int) *domain.Trip {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days-1)
	return &domain.Trip{ID: 1, Name: "test", StartDate: &start, EndDate: &end, HomeTimezone: dubai}
}

func leisure(id int64, start, end time.Time) *domain.Entry {
	return &domain.Entry{
		ID:          id,
		TripID:      1,
		StartTime:   start,
		EndTime:     end,
		IsScheduled: true,
		Option:      domain.Option{Name: "museum"},
		Kind:        domain.KindLeisure,
	}
}

func flight(id int64, start, end time.Time, dep, arr string) *domain.Entry {
	return &domain.Entry{
		ID:          id,
		TripID:      1,
		StartTime:   start,
		EndTime:     end,
		IsScheduled: true,
		Option:      domain.Option{Name: "EK 372", Category: domain.CategoryFlight, DepartureTZ: dep, ArrivalTZ: arr},
		Kind:        domain.KindFlight,
	}
}

func linkedTo(id, flightID int64, lt domain.LinkedType, start, end time.Time) *domain.Entry {
	return &domain.Entry{
		ID:             id,
		TripID:         1,
		StartTime:      start,
		EndTime:        end,
		IsScheduled:    true,
		LinkedFlightID: ptr(flightID),
		LinkedType:     lt,
		Option:         domain.Option{Name: string(lt), Category: domain.CategoryAirportProcessing},
		Kind:           domain.KindAirportProcessing,
	}
}

func transport(id int64, start, end time.Time, from, to *int64) *domain.Entry {
	return &domain.Entry{
		ID:          id,
		TripID:      1,
		StartTime:   start,
		EndTime:     end,
		IsScheduled: true,
		FromEntryID: from,
		ToEntryID:   to,
		Option:      domain.Option{Name: "taxi", Category: domain.CategoryTransfer, TransportMode: "drive"},
		Kind:        domain.KindTransfer,
	}
}

// flightDay 构造一次 3 月 1 日 Dubai 10:00 起飞、飞行 4 小时到 Bangkok 的航班组
func flightDay(t *testing.T) []*domain.Entry {
	return []*domain.Entry{
		flight(10, at(t, dubai, 1, 10, 0), at(t, dubai, 1, 14, 0), dubai, bangkok),
		linkedTo(11, 10, domain.LinkedCheckin, at(t, dubai, 1, 8, 0), at(t, dubai, 1, 10, 0)),
		linkedTo(12, 10, domain.LinkedCheckout, at(t, dubai, 1, 14, 0), at(t, dubai, 1, 14, 30)),
	}
}

func TestBuildDaysDated(t *testing.T) {
	s := New(newTrip(3), nil, Options{})

	days := s.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, "Fri, Mar 1", days[0].Label)
	assert.Equal(t, "2024-03-03", days[2].Date)
	for _, d := range days {
		assert.Equal(t, dubai, d.Timezone.TZ)
		assert.Empty(t, d.Timezone.Boundaries)
	}
	assert.Equal(t, 72.0, s.TotalHours())
}

func TestBuildDaysUndated(t *testing.T) {
	trip := &domain.Trip{ID: 2, DayCount: 2, HomeTimezone: dubai}
	s := New(trip, nil, Options{})

	days := s.Days()
	require.Len(t, days, 2)
	assert.Equal(t, "Day 1", days[0].Label)
	assert.Equal(t, "Day 2", days[1].Label)
	assert.Equal(t, "2000-01-03", days[0].Date)
	assert.Equal(t, "2000-01-04", days[1].Date)
}

func TestBuildDaysFlightBoundary(t *testing.T) {
	s := New(newTrip(3), flightDay(t), Options{})

	days := s.Days()
	require.Len(t, days[0].Timezone.Boundaries, 1)
	b := days[0].Timezone.Boundaries[0]
	assert.Equal(t, int64(10), b.FlightID)
	assert.Equal(t, dubai, b.OriginTZ)
	assert.Equal(t, bangkok, b.DestinationTZ)
	assert.InDelta(t, 10.0, b.FlightStartHour, 1e-9)
	assert.InDelta(t, 14.0, b.FlightEndHour, 1e-9)
	assert.True(t, b.FlightEndUTC.Equal(at(t, dubai, 1, 14, 0)))

	assert.Equal(t, dubai, days[0].Timezone.TZ)
	assert.Equal(t, bangkok, days[1].Timezone.TZ)
	assert.Equal(t, bangkok, days[2].Timezone.TZ)
}

func TestResolveAroundFlight(t *testing.T) {
	entries := append(flightDay(t),
		leisure(1, at(t, dubai, 1, 6, 0), at(t, dubai, 1, 7, 0)),
		leisure(2, at(t, bangkok, 1, 19, 0), at(t, bangkok, 1, 20, 0)),
		transport(3, at(t, bangkok, 1, 18, 0), at(t, bangkok, 1, 18, 45), ptr(10), ptr(2)),
	)
	s := New(newTrip(3), entries, Options{})

	tests := []struct {
		id       int64
		display  string
		isFlight bool
	}{
		{id: 1, display: dubai},
		{id: 2, display: bangkok},
		{id: 3, display: bangkok},
		{id: 10, display: dubai, isFlight: true},
		{id: 11, display: dubai},
		{id: 12, display: bangkok},
	}
	for _, tt := range tests {
		e, ok := s.Entry(tt.id)
		require.True(t, ok)
		res := s.Resolve(e)
		assert.Equal(t, tt.display, res.DisplayTZ, "entry %d", tt.id)
		assert.Equal(t, tt.isFlight, res.IsFlight, "entry %d", tt.id)
	}
}

func TestResolveInvalidZoneFallsBackToHome(t *testing.T) {
	f := flight(1, at(t, dubai, 1, 10, 0), at(t, dubai, 1, 12, 0), "Mars/Olympus", bangkok)
	s := New(newTrip(2), []*domain.Entry{f}, Options{})

	res := s.Resolve(f)
	assert.Equal(t, dubai, res.DisplayTZ)

	iv, ok := s.ToGlobalHours(f)
	require.True(t, ok)
	assert.InDelta(t, 10.0, iv.StartGH, 1e-9)
}

func TestInvalidHomeZoneFallsBackToDefault(t *testing.T) {
	trip := newTrip(1)
	trip.HomeTimezone = "Not/AZone"
	s := New(trip, nil, Options{DefaultTimezone: bangkok})
	assert.Equal(t, bangkok, s.Home().String())

	s = New(trip, nil, Options{})
	assert.Equal(t, time.UTC, s.Home())
}

func TestBuildGroups(t *testing.T) {
	entries := append(flightDay(t),
		linkedTo(13, 99, domain.LinkedCheckin, at(t, dubai, 2, 8, 0), at(t, dubai, 2, 9, 0)),
	)
	groups, linked := BuildGroups(entries)

	require.Len(t, groups, 1)
	g := groups[10]
	require.NotNil(t, g)
	assert.Equal(t, int64(11), g.Checkin.ID)
	assert.Equal(t, int64(12), g.Checkout.ID)
	assert.Len(t, g.Members(), 3)

	assert.True(t, linked[11])
	assert.True(t, linked[12])
	// 关联到不存在航班的条目按普通条目处理
	assert.False(t, linked[13])

	fr := g.SegmentFractions()
	assert.InDelta(t, 120.0/390, fr.Checkin, 1e-9)
	assert.InDelta(t, 240.0/390, fr.Flight, 1e-9)
	assert.InDelta(t, 30.0/390, fr.Checkout, 1e-9)
}
