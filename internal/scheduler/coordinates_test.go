package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

func TestToGlobalHours(t *testing.T) {
	entries := append(flightDay(t),
		leisure(1, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 10, 30)),
		leisure(2, at(t, bangkok, 2, 9, 30), at(t, bangkok, 2, 11, 0)),
		leisure(3, at(t, bangkok, 2, 23, 0), at(t, bangkok, 3, 1, 0)),
		leisure(4, at(t, dubai, 10, 9, 0), at(t, dubai, 10, 10, 0)),
	)
	s := New(newTrip(3), entries, Options{})

	tests := []struct {
		id      int64
		startGH float64
		endGH   float64
		ok      bool
	}{
		{id: 1, startGH: 9, endGH: 10.5, ok: true},
		{id: 2, startGH: 33.5, endGH: 35, ok: true},
		{id: 3, startGH: 47, endGH: 49, ok: true},
		{id: 4, ok: false},
		// 航班长度等于实际飞行时长
		{id: 10, startGH: 10, endGH: 14, ok: true},
		{id: 11, startGH: 8, endGH: 10, ok: true},
	}
	for _, tt := range tests {
		e, _ := s.Entry(tt.id)
		iv, ok := s.ToGlobalHours(e)
		require.Equal(t, tt.ok, ok, "entry %d", tt.id)
		if !ok {
			continue
		}
		assert.InDelta(t, tt.startGH, iv.StartGH, 1e-9, "entry %d", tt.id)
		assert.InDelta(t, tt.endGH, iv.EndGH, 1e-9, "entry %d", tt.id)
	}
}

func TestGroupBounds(t *testing.T) {
	s := New(newTrip(3), flightDay(t), Options{})

	iv, ok := s.GroupBounds(10)
	require.True(t, ok)
	assert.InDelta(t, 8.0, iv.StartGH, 1e-9)
	assert.InDelta(t, 14.5, iv.EndGH, 1e-9)

	_, ok = s.GroupBounds(11)
	assert.False(t, ok)
}

func TestFromGlobalHours(t *testing.T) {
	s := New(newTrip(2), nil, Options{})

	tests := []struct {
		gh    float64
		day   int
		clock string
	}{
		{gh: 0, day: 0, clock: "00:00"},
		{gh: 9.25, day: 0, clock: "09:15"},
		{gh: 23.9999, day: 1, clock: "00:00"},
		{gh: 24, day: 1, clock: "00:00"},
		{gh: 33.5, day: 1, clock: "09:30"},
		{gh: 48, day: 1, clock: "24:00"},
		{gh: 60, day: 1, clock: "24:00"},
		{gh: -3, day: 0, clock: "00:00"},
	}
	for _, tt := range tests {
		got := s.FromGlobalHours(tt.gh)
		assert.Equal(t, tt.day, got.DayIndex, "gh %v", tt.gh)
		assert.Equal(t, tt.clock, got.Clock, "gh %v", tt.gh)
	}
}

func TestRoundTrip(t *testing.T) {
	entries := append(flightDay(t),
		leisure(1, at(t, dubai, 1, 6, 7), at(t, dubai, 1, 7, 0)),
		leisure(2, at(t, bangkok, 1, 19, 41), at(t, bangkok, 1, 20, 0)),
		leisure(3, at(t, bangkok, 2, 0, 0), at(t, bangkok, 2, 1, 0)),
		leisure(4, at(t, bangkok, 3, 23, 59), at(t, bangkok, 4, 0, 30)),
	)
	s := New(newTrip(3), entries, Options{})

	for _, e := range s.Entries() {
		res := s.Resolve(e)
		local := e.StartTime.In(res.StartLoc)

		iv, ok := s.ToGlobalHours(e)
		require.True(t, ok, "entry %d", e.ID)
		got := s.FromGlobalHours(iv.StartGH)

		assert.Equal(t, local.Format("2006-01-02"), s.Days()[got.DayIndex].Date, "entry %d", e.ID)
		assert.Equal(t, local.Format("15:04"), got.Clock, "entry %d", e.ID)
	}
}

func TestCommitToUTC(t *testing.T) {
	s := New(newTrip(2), nil, Options{})

	got, err := s.CommitToUTC(1, "09:30", bangkok)
	require.NoError(t, err)
	assert.True(t, got.Equal(at(t, bangkok, 2, 9, 30)))

	got, err = s.CommitToUTC(1, "24:00", dubai)
	require.NoError(t, err)
	assert.True(t, got.Equal(at(t, dubai, 3, 0, 0)))

	// 无效时区回退到行程时区
	got, err = s.CommitToUTC(0, "08:00", "Nowhere/Land")
	require.NoError(t, err)
	assert.True(t, got.Equal(at(t, dubai, 1, 8, 0)))

	for _, clock := range []string{"9:30", "25:00", "12:60", "24:01", "ab:cd"} {
		_, err := s.CommitToUTC(0, clock, dubai)
		assert.ErrorIs(t, err, ErrInvalidClock, clock)
	}
}

func TestCommitInterval(t *testing.T) {
	e := leisure(1, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 10, 0))
	s := New(newTrip(2), []*domain.Entry{e}, Options{})

	start, end, err := s.CommitInterval(e, 10, 11, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, dubai, 1, 10, 0)))
	assert.True(t, end.Equal(at(t, dubai, 1, 11, 0)))

	start, end, err = s.CommitInterval(e, 8.5, 10, DragResizeTop)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, dubai, 1, 8, 30)))
	assert.True(t, end.Equal(e.EndTime))

	start, end, err = s.CommitInterval(e, 9, 10.25, DragResizeBottom)
	require.NoError(t, err)
	assert.True(t, start.Equal(e.StartTime))
	assert.True(t, end.Equal(at(t, dubai, 1, 10, 15)))

	// 跨过当天边界移动到第二天
	start, _, err = s.CommitInterval(e, 33, 34, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, dubai, 2, 9, 0)))
}

func TestCommitIntervalAfterFlightUsesDestinationZone(t *testing.T) {
	entries := append(flightDay(t), leisure(1, at(t, dubai, 1, 6, 0), at(t, dubai, 1, 7, 0)))
	s := New(newTrip(2), entries, Options{})
	e, _ := s.Entry(1)

	// 位置 18:00 在航班结束（当地 14:00）之后，按 Bangkok 时间换算
	start, end, err := s.CommitInterval(e, 18, 19, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, bangkok, 1, 18, 0)))
	assert.True(t, end.Equal(at(t, bangkok, 1, 19, 0)))
}

// westwardDay 构造 3 月 2 日 Dubai 10:00 起飞、飞行 4 小时到 Bogota 的航班（UTC 06:00-10:00）
func westwardDay(t *testing.T) []*domain.Entry {
	return []*domain.Entry{
		flight(20, at(t, dubai, 2, 10, 0), at(t, dubai, 2, 14, 0), dubai, bogota),
	}
}

func TestCommitIntervalAfterWestwardFlight(t *testing.T) {
	entries := append(westwardDay(t), leisure(1, at(t, bogota, 2, 6, 0), at(t, bogota, 2, 7, 0)))
	s := New(newTrip(3), entries, Options{})
	e, _ := s.Entry(1)

	iv, ok := s.ToGlobalHours(e)
	require.True(t, ok)
	assert.InDelta(t, 30.0, iv.StartGH, 1e-9)
	assert.InDelta(t, 31.0, iv.EndGH, 1e-9)

	// 原地提交不应改变时间
	start, end, err := s.CommitInterval(e, iv.StartGH, iv.EndGH, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(e.StartTime), start)
	assert.True(t, end.Equal(e.EndTime), end)

	start, _, err = s.CommitInterval(e, 32, 33, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, bogota, 2, 8, 0)))
}

func TestCommitIntervalBeforeWestwardFlight(t *testing.T) {
	// Dubai 08:00 和落地后的 Bogota 08:00 在时间轴上是同一个钟点
	entries := append(westwardDay(t), leisure(1, at(t, dubai, 2, 8, 0), at(t, dubai, 2, 9, 0)))
	s := New(newTrip(3), entries, Options{})
	e, _ := s.Entry(1)

	iv, ok := s.ToGlobalHours(e)
	require.True(t, ok)
	assert.InDelta(t, 32.0, iv.StartGH, 1e-9)

	start, end, err := s.CommitInterval(e, iv.StartGH, iv.EndGH, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(e.StartTime), start)
	assert.True(t, end.Equal(e.EndTime), end)

	// 从前一天拖来的条目落在落地之后的钟点，只有 Bogota 的读法成立
	other := leisure(2, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 10, 0))
	s = New(newTrip(3), append(westwardDay(t), other), Options{})
	start, _, err = s.CommitInterval(other, 24+18, 24+19, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, bogota, 2, 18, 0)))
}

func TestCommitIntervalResizeKeepsOffGridHeldEdge(t *testing.T) {
	e := leisure(1, at(t, dubai, 1, 9, 7), at(t, dubai, 1, 10, 0))
	s := New(newTrip(1), []*domain.Entry{e}, Options{})

	iv, ok := s.ToGlobalHours(e)
	require.True(t, ok)

	start, end, err := s.CommitInterval(e, iv.StartGH, 10.25, DragResizeBottom)
	require.NoError(t, err)
	assert.True(t, start.Equal(e.StartTime))
	assert.True(t, end.Equal(at(t, dubai, 1, 10, 15)), end)
}
