package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

// applyPlan 返回应用计划之后的新快照，不修改原条目
func applyPlan(entries []*domain.Entry, plan CascadePlan) []*domain.Entry {
	updates := make(map[int64]domain.IntervalUpdate)
	for _, u := range plan.All() {
		updates[u.EntryID] = u
	}
	out := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		cp := *e
		if u, ok := updates[e.ID]; ok {
			cp.StartTime, cp.EndTime = u.StartTime, u.EndTime
		}
		out = append(out, &cp)
	}
	return out
}

func updateFor(plan CascadePlan, id int64) (domain.IntervalUpdate, bool) {
	for _, u := range plan.All() {
		if u.EntryID == id {
			return u, true
		}
	}
	return domain.IntervalUpdate{}, false
}

func TestCascadeFlightMove(t *testing.T) {
	entries := flightDay(t)
	s := New(newTrip(2), entries, Options{})
	f, _ := s.Entry(10)

	start, end, err := s.CommitInterval(f, 11, 15, DragMove)
	require.NoError(t, err)
	assert.True(t, start.Equal(at(t, dubai, 1, 11, 0)))
	assert.Equal(t, 4*time.Hour, end.Sub(start))

	plan, err := s.Cascade(10, start, end)
	require.NoError(t, err)
	require.Len(t, plan.Updates, 2)
	assert.Empty(t, plan.Skipped)

	moved := New(newTrip(2), applyPlan(entries, plan), Options{})
	flight, _ := moved.Entry(10)
	checkin, _ := moved.Entry(11)
	checkout, _ := moved.Entry(12)

	assert.True(t, checkin.EndTime.Equal(flight.StartTime))
	assert.True(t, checkout.StartTime.Equal(flight.EndTime))
	assert.Equal(t, 2*time.Hour, checkin.Duration())
	assert.Equal(t, 30*time.Minute, checkout.Duration())

	iv, ok := moved.ToGlobalHours(checkin)
	require.True(t, ok)
	assert.Equal(t, "09:00", moved.FromGlobalHours(iv.StartGH).Clock)
	assert.Equal(t, "11:00", moved.FromGlobalHours(iv.EndGH).Clock)

	iv, ok = moved.ToGlobalHours(flight)
	require.True(t, ok)
	assert.Equal(t, "11:00", moved.FromGlobalHours(iv.StartGH).Clock)
	assert.Equal(t, "15:00", moved.FromGlobalHours(iv.EndGH).Clock)
}

func TestCascadeChainsThroughCheckout(t *testing.T) {
	entries := append(flightDay(t),
		transport(20, at(t, dubai, 1, 14, 30), at(t, dubai, 1, 15, 0), ptr(12), ptr(21)),
		leisure(21, at(t, dubai, 1, 15, 10), at(t, dubai, 1, 16, 10)),
	)
	s := New(newTrip(2), entries, Options{})

	plan, err := s.Cascade(10, at(t, dubai, 1, 11, 0), at(t, dubai, 1, 15, 0))
	require.NoError(t, err)

	u, ok := updateFor(plan, 20)
	require.True(t, ok)
	assert.True(t, u.StartTime.Equal(at(t, dubai, 1, 15, 30)))
	assert.True(t, u.EndTime.Equal(at(t, dubai, 1, 16, 0)))

	// 间隔变为负数，同样自动吸附
	u, ok = updateFor(plan, 21)
	require.True(t, ok)
	assert.True(t, u.StartTime.Equal(at(t, dubai, 1, 16, 0)))
	assert.True(t, u.EndTime.Equal(at(t, dubai, 1, 17, 0)))
}

func TestCascadeTransportAutoSnap(t *testing.T) {
	tests := []struct {
		name      string
		destStart time.Time
		destEnd   time.Time
		locked    bool
		pulled    bool
		skipped   []SkippedStep
	}{
		{
			name:      "small gap is pulled",
			destStart: at(t, dubai, 1, 12, 20),
			destEnd:   at(t, dubai, 1, 13, 20),
			pulled:    true,
		},
		{
			name:      "wide gap stays",
			destStart: at(t, dubai, 1, 13, 0),
			destEnd:   at(t, dubai, 1, 14, 0),
		},
		{
			name:      "locked target is skipped",
			destStart: at(t, dubai, 1, 12, 20),
			destEnd:   at(t, dubai, 1, 13, 20),
			locked:    true,
			skipped:   []SkippedStep{{EntryID: 3, AnchorID: 2, Reason: SkipLocked}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := leisure(3, tt.destStart, tt.destEnd)
			dest.IsLocked = tt.locked
			entries := []*domain.Entry{
				leisure(1, at(t, dubai, 1, 10, 0), at(t, dubai, 1, 11, 30)),
				transport(2, at(t, dubai, 1, 11, 30), at(t, dubai, 1, 12, 0), ptr(1), ptr(3)),
				dest,
			}
			s := New(newTrip(1), entries, Options{})

			plan, err := s.Cascade(1, at(t, dubai, 1, 10, 10), at(t, dubai, 1, 11, 40))
			require.NoError(t, err)

			u, ok := updateFor(plan, 2)
			require.True(t, ok)
			assert.True(t, u.StartTime.Equal(at(t, dubai, 1, 11, 40)))
			assert.True(t, u.EndTime.Equal(at(t, dubai, 1, 12, 10)))

			u, ok = updateFor(plan, 3)
			assert.Equal(t, tt.pulled, ok)
			if tt.pulled {
				assert.True(t, u.StartTime.Equal(at(t, dubai, 1, 12, 10)))
				assert.Equal(t, time.Hour, u.EndTime.Sub(u.StartTime))
			}
			assert.Equal(t, tt.skipped, plan.Skipped)
		})
	}
}

func TestCascadeSkipsLockedAndMissing(t *testing.T) {
	entries := flightDay(t)
	entries[1].IsLocked = true
	entries = append(entries,
		transport(20, at(t, dubai, 1, 14, 30), at(t, dubai, 1, 15, 0), ptr(12), ptr(99)),
	)
	s := New(newTrip(2), entries, Options{})

	plan, err := s.Cascade(10, at(t, dubai, 1, 11, 0), at(t, dubai, 1, 15, 0))
	require.NoError(t, err)

	_, ok := updateFor(plan, 11)
	assert.False(t, ok)
	_, ok = updateFor(plan, 12)
	assert.True(t, ok)
	_, ok = updateFor(plan, 20)
	assert.True(t, ok)

	assert.Equal(t, []SkippedStep{
		{EntryID: 11, AnchorID: 10, Reason: SkipLocked},
		{EntryID: 99, AnchorID: 20, Reason: SkipMissing},
	}, plan.Skipped)
}

func TestCascadeErrors(t *testing.T) {
	locked := leisure(1, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 10, 0))
	locked.IsLocked = true
	s := New(newTrip(1), []*domain.Entry{locked}, Options{})

	_, err := s.Cascade(1, locked.StartTime, locked.EndTime)
	assert.ErrorIs(t, err, ErrEntryLocked)

	_, err = s.Cascade(42, locked.StartTime, locked.EndTime)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCascadeUnchangedAnchorHasNoUpdates(t *testing.T) {
	entries := []*domain.Entry{
		leisure(1, at(t, dubai, 1, 10, 0), at(t, dubai, 1, 11, 0)),
		transport(2, at(t, dubai, 1, 11, 0), at(t, dubai, 1, 11, 30), ptr(1), nil),
	}
	s := New(newTrip(1), entries, Options{})

	plan, err := s.Cascade(1, entries[0].StartTime, entries[0].EndTime)
	require.NoError(t, err)
	assert.Empty(t, plan.Updates)
	assert.False(t, s.Changed(plan.Anchor))
}
