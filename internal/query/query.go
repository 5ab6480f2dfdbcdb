// Package query derives read-only views of the reading log: calendar-day
// range filtering, log bounds, the latest reading and the newest-first order
// used by the data table.
package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/luki/smartsos/internal/sensor"
)

// DateLayout is the layout of calendar dates on the command line and in the UI.
const DateLayout = "2006-01-02"

// Date truncates t to midnight of its calendar day in t's own zone.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD date in the local zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// dayKey orders calendar days independent of zone and clock time.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return dayKey(a) == dayKey(b)
}

// Range is an inclusive range of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t's calendar day lies within the range.
func (r Range) Contains(t time.Time) bool {
	k := dayKey(t)
	return k >= dayKey(r.Start) && k <= dayKey(r.End)
}

// Empty reports whether Start is after End.
func (r Range) Empty() bool {
	return dayKey(r.Start) > dayKey(r.End)
}

// Clamp limits both ends of the range to bounds.
func (r Range) Clamp(bounds Range) Range {
	return Range{Start: clampDay(r.Start, bounds), End: clampDay(r.End, bounds)}
}

// ShiftStart moves the start by days calendar days.
func (r Range) ShiftStart(days int) Range {
	r.Start = Date(r.Start).AddDate(0, 0, days)
	return r
}

// ShiftEnd moves the end by days calendar days.
func (r Range) ShiftEnd(days int) Range {
	r.End = Date(r.End).AddDate(0, 0, days)
	return r
}

func (r Range) String() string {
	return r.Start.Format(DateLayout) + " → " + r.End.Format(DateLayout)
}

func clampDay(t time.Time, b Range) time.Time {
	switch {
	case dayKey(t) < dayKey(b.Start):
		return Date(b.Start)
	case dayKey(t) > dayKey(b.End):
		return Date(b.End)
	default:
		return Date(t)
	}
}

// Filter returns the readings whose calendar day lies in [start, end], in log
// order. The result is a new slice; the log is not modified. A start after
// end yields an empty view.
func Filter(log []sensor.Reading, start, end time.Time) []sensor.Reading {
	r := Range{Start: start, End: end}
	view := []sensor.Reading{}
	if r.Empty() {
		return view
	}
	for _, rd := range log {
		if r.Contains(rd.Timestamp) {
			view = append(view, rd)
		}
	}
	return view
}

// FilterRange is Filter over a Range.
func FilterRange(log []sensor.Reading, r Range) []sensor.Reading {
	return Filter(log, r.Start, r.End)
}

// Bounds returns the first and last calendar day present in the log.
func Bounds(log []sensor.Reading) (Range, bool) {
	if len(log) == 0 {
		return Range{}, false
	}
	lo, hi := log[0].Timestamp, log[0].Timestamp
	for _, r := range log[1:] {
		if r.Timestamp.Before(lo) {
			lo = r.Timestamp
		}
		if r.Timestamp.After(hi) {
			hi = r.Timestamp
		}
	}
	return Range{Start: Date(lo), End: Date(hi)}, true
}

// Latest returns the last reading of the view.
func Latest(view []sensor.Reading) (sensor.Reading, bool) {
	if len(view) == 0 {
		return sensor.Reading{}, false
	}
	return view[len(view)-1], true
}

// NewestFirst returns a copy of the view sorted by timestamp descending.
// Readings with equal timestamps keep their relative order.
func NewestFirst(view []sensor.Reading) []sensor.Reading {
	out := append([]sensor.Reading(nil), view...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Days returns the distinct calendar days in the log, newest first.
func Days(log []sensor.Reading) []time.Time {
	seen := make(map[int]bool)
	var days []time.Time
	for _, r := range log {
		k := dayKey(r.Timestamp)
		if !seen[k] {
			seen[k] = true
			days = append(days, Date(r.Timestamp))
		}
	}
	sort.Slice(days, func(i, j int) bool { return dayKey(days[i]) > dayKey(days[j]) })
	return days
}
