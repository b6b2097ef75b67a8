package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

func TestDetectOverlap(t *testing.T) {
	entries := []*domain.Entry{
		leisure(1, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 10, 30)),
		leisure(2, at(t, dubai, 1, 10, 0), at(t, dubai, 1, 11, 0)),
	}
	report := New(newTrip(1), entries, Options{}).DetectConflicts()

	assert.Equal(t, map[int64]Conflict{
		1: {Minutes: 30, Position: PositionBottom},
		2: {Minutes: 30, Position: PositionTop},
	}, report.ByEntry)
	require.Len(t, report.Pairs, 1)
	assert.Equal(t, ConflictPair{UpperID: 1, LowerID: 2, Minutes: 30}, report.Pairs[0])
}

func TestDetectOnlyAdjacentPairs(t *testing.T) {
	entries := []*domain.Entry{
		leisure(1, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 13, 0)),
		leisure(2, at(t, dubai, 1, 10, 0), at(t, dubai, 1, 11, 0)),
		leisure(3, at(t, dubai, 1, 12, 0), at(t, dubai, 1, 12, 30)),
	}
	report := New(newTrip(1), entries, Options{}).DetectConflicts()

	assert.Equal(t, 1, report.Count())
	assert.Equal(t, 180, report.ByEntry[1].Minutes)
	_, ok := report.ByEntry[3]
	assert.False(t, ok)
}

func TestDetectLastMarkWins(t *testing.T) {
	entries := []*domain.Entry{
		leisure(1, at(t, dubai, 1, 9, 0), at(t, dubai, 1, 10, 0)),
		leisure(2, at(t, dubai, 1, 9, 30), at(t, dubai, 1, 11, 0)),
		leisure(3, at(t, dubai, 1, 10, 15), at(t, dubai, 1, 12, 0)),
	}
	report := New(newTrip(1), entries, Options{}).DetectConflicts()

	require.Len(t, report.Pairs, 2)
	assert.Equal(t, Conflict{Minutes: 45, Position: PositionBottom}, report.ByEntry[2])
	assert.Equal(t, Conflict{Minutes: 30, Position: PositionBottom}, report.ByEntry[1])
	assert.Equal(t, Conflict{Minutes: 45, Position: PositionTop}, report.ByEntry[3])

	// 中间的条目两侧都重叠，Marks 两个标记都保留
	assert.Equal(t, []Conflict{
		{Minutes: 30, Position: PositionTop},
		{Minutes: 45, Position: PositionBottom},
	}, report.Marks[2])
}

func TestDetectFlightGroupAsOneItem(t *testing.T) {
	entries := append(flightDay(t),
		leisure(1, at(t, dubai, 1, 7, 0), at(t, dubai, 1, 8, 30)),
		&domain.Entry{ID: 2, StartTime: at(t, dubai, 1, 7, 0), EndTime: at(t, dubai, 1, 9, 0), Kind: domain.KindLeisure},
	)
	report := New(newTrip(1), entries, Options{}).DetectConflicts()

	require.Len(t, report.Pairs, 1)
	assert.Equal(t, ConflictPair{UpperID: 1, LowerID: 10, Minutes: 30}, report.Pairs[0])
	// 值机和出站条目不单独参与比较
	_, ok := report.ByEntry[11]
	assert.False(t, ok)
}

func TestDetectSymmetry(t *testing.T) {
	items := []Item{
		{ID: 5, StartUTC: t0, EndUTC: t0, StartGH: 9, EndGH: 10.5},
		{ID: 3, StartUTC: t0.Add(1), EndUTC: t0, StartGH: 10.25, EndGH: 11},
		{ID: 7, StartUTC: t0.Add(2), EndUTC: t0, StartGH: 14, EndGH: 15},
	}
	report := Detect(items)

	for _, p := range report.Pairs {
		upper, lower := report.ByEntry[p.UpperID], report.ByEntry[p.LowerID]
		assert.Equal(t, upper.Minutes, lower.Minutes)
		assert.Equal(t, PositionBottom, upper.Position)
		assert.Equal(t, PositionTop, lower.Position)
		assert.Contains(t, report.Marks[p.UpperID], Conflict{Minutes: p.Minutes, Position: PositionBottom})
		assert.Contains(t, report.Marks[p.LowerID], Conflict{Minutes: p.Minutes, Position: PositionTop})
	}
	assert.Equal(t, 15, report.ByEntry[5].Minutes)
}
