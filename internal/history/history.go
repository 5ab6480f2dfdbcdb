// Package history provides ring-buffer trend series for the measured
// quantities, with min/peak/avg and percentile statistics.
package history

import (
	"math"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/luki/smartsos/internal/sensor"
)

// Point is a single data point in a trend series.
type Point struct {
	Value float64
	Time  time.Time
}

// Buffer stores a ring buffer of values for one metric. Min, Peak and the
// percentile sketch cover every value pushed, not just the retained window.
type Buffer struct {
	Points []Point
	Max    int // capacity
	Min    float64
	Peak   float64

	count  int
	sum    float64
	sketch *ddsketch.DDSketch
}

// NewBuffer creates a new history ring buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
	if sk, err := ddsketch.NewDefaultDDSketch(0.01); err == nil {
		b.sketch = sk
	}
	return b
}

// Push adds a new value to the history.
func (b *Buffer) Push(v float64, t time.Time) {
	p := Point{Value: v, Time: t}
	if len(b.Points) >= b.Max {
		copy(b.Points, b.Points[1:])
		b.Points[len(b.Points)-1] = p
	} else {
		b.Points = append(b.Points, p)
	}

	if v < b.Min {
		b.Min = v
	}
	if v > b.Peak {
		b.Peak = v
	}
	b.count++
	b.sum += v
	if b.sketch != nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		b.sketch.Add(v)
	}
}

// Count returns the number of values pushed.
func (b *Buffer) Count() int {
	return b.count
}

// Last returns the most recent value, or 0 if empty.
func (b *Buffer) Last() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return b.Points[len(b.Points)-1].Value
}

// Avg returns the average of every value pushed.
func (b *Buffer) Avg() float64 {
	if b.count == 0 {
		return 0
	}
	return b.sum / float64(b.count)
}

// Quantile returns the approximate q-quantile (0..1) of every value pushed,
// within 1% relative accuracy. ok is false when the buffer is empty.
func (b *Buffer) Quantile(q float64) (float64, bool) {
	if b.sketch == nil || b.count == 0 {
		return 0, false
	}
	v, err := b.sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LastN returns the last n values (for chart rendering).
func (b *Buffer) LastN(n int) []float64 {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	vals := make([]float64, 0, n)
	for _, p := range b.Points[start:] {
		vals = append(vals, p.Value)
	}
	return vals
}

// LastNPoints returns the last n Points (with timestamps).
func (b *Buffer) LastNPoints(n int) []Point {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	out := make([]Point, len(b.Points[start:]))
	copy(out, b.Points[start:])
	return out
}

// Store manages one buffer per metric, keyed by metric key.
type Store struct {
	Data     map[string]*Buffer
	Capacity int
}

// NewStore creates a new store with the given per-metric capacity.
func NewStore(capacity int) *Store {
	return &Store{
		Data:     make(map[string]*Buffer),
		Capacity: capacity,
	}
}

// Record adds a value for the given metric key.
func (s *Store) Record(key string, v float64, t time.Time) {
	b, ok := s.Data[key]
	if !ok {
		b = NewBuffer(s.Capacity)
		s.Data[key] = b
	}
	b.Push(v, t)
}

// RecordReading adds every metric of a reading.
func (s *Store) RecordReading(r sensor.Reading) {
	for _, m := range sensor.Metrics {
		s.Record(m.Key, m.Value(r), r.Timestamp)
	}
}

// Get returns the history buffer for a metric key, or nil.
func (s *Store) Get(key string) *Buffer {
	return s.Data[key]
}

// FromReadings builds a store from a view, oldest first.
func FromReadings(view []sensor.Reading, capacity int) *Store {
	s := NewStore(capacity)
	for _, r := range view {
		s.RecordReading(r)
	}
	return s
}
