package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/smartsos/internal/sensor"
)

func at(day, hour, min int) time.Time {
	return time.Date(2024, 1, day, hour, min, 0, 0, time.Local)
}

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.Local)
}

// three readings on Jan 1, two on Jan 2
func twoDayLog() []sensor.Reading {
	return []sensor.Reading{
		{Timestamp: at(1, 8, 0), Temperature: 28.1},
		{Timestamp: at(1, 12, 0), Temperature: 28.2},
		{Timestamp: at(1, 23, 59), Temperature: 28.3},
		{Timestamp: at(2, 0, 0), Temperature: 29.1},
		{Timestamp: at(2, 6, 30), Temperature: 29.2},
	}
}

func TestFilterSingleDay(t *testing.T) {
	log := twoDayLog()

	view := Filter(log, d(1), d(1))
	require.Len(t, view, 3)
	assert.Equal(t, []float64{28.1, 28.2, 28.3}, temps(view))

	view = Filter(log, d(2), d(2))
	assert.Equal(t, []float64{29.1, 29.2}, temps(view))
}

func TestFilterWholeRangeKeepsOrder(t *testing.T) {
	log := twoDayLog()
	// out-of-order capture stays in log order
	log[1], log[2] = log[2], log[1]

	view := Filter(log, d(1), d(2))
	assert.Equal(t, temps(log), temps(view))
}

func TestFilterBoundsIgnoreClockTime(t *testing.T) {
	view := Filter(twoDayLog(), at(1, 23, 0), at(1, 1, 0))
	assert.Len(t, view, 3, "bounds are calendar days, not instants")
}

func TestFilterEmptyCases(t *testing.T) {
	log := twoDayLog()

	assert.Empty(t, Filter(log, d(20), d(20)), "future date")
	assert.Empty(t, Filter(log, d(2), d(1)), "start after end")
	assert.Empty(t, Filter(nil, d(1), d(2)), "empty log")
	assert.NotNil(t, Filter(nil, d(1), d(2)))
}

func TestFilterIdempotentAndNonMutating(t *testing.T) {
	log := twoDayLog()
	before := append([]sensor.Reading(nil), log...)

	a := Filter(log, d(1), d(1))
	b := Filter(log, d(1), d(1))
	assert.Equal(t, a, b)
	assert.Equal(t, before, log)

	a[0].Temperature = 99
	assert.Equal(t, 28.1, log[0].Temperature)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	assert.False(t, ok)

	r, ok := Bounds(twoDayLog())
	require.True(t, ok)
	assert.True(t, r.Start.Equal(d(1)))
	assert.True(t, r.End.Equal(d(2)))
}

func TestRangeClampAndShift(t *testing.T) {
	bounds := Range{Start: d(1), End: d(5)}

	r := Range{Start: d(3), End: d(4)}.ShiftStart(-5).ShiftEnd(3).Clamp(bounds)
	assert.True(t, r.Start.Equal(d(1)))
	assert.True(t, r.End.Equal(d(5)))

	r = Range{Start: d(2), End: d(2)}.ShiftStart(1)
	assert.True(t, r.Empty())
	assert.Equal(t, "2024-01-03 → 2024-01-02", r.String())
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	r, ok := Latest(twoDayLog())
	require.True(t, ok)
	assert.Equal(t, 29.2, r.Temperature)
}

func TestNewestFirst(t *testing.T) {
	log := twoDayLog()
	log = append(log, sensor.Reading{Timestamp: at(2, 6, 30), Temperature: 29.3})

	out := NewestFirst(log)
	assert.Equal(t, []float64{29.2, 29.3, 29.1, 28.3, 28.2, 28.1}, temps(out))
	assert.Equal(t, 28.1, log[0].Temperature, "input untouched")
}

func TestDays(t *testing.T) {
	days := Days(twoDayLog())
	require.Len(t, days, 2)
	assert.True(t, days[0].Equal(d(2)))
	assert.True(t, days[1].Equal(d(1)))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.True(t, got.Equal(d(2)))

	_, err = ParseDate("02/01/2024")
	assert.Error(t, err)
}

func temps(rs []sensor.Reading) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Temperature
	}
	return out
}
