package history

import (
	"math"
	"testing"
	"time"

	"github.com/luki/smartsos/internal/sensor"
)

func humidityReadings(base time.Time, values ...float64) []sensor.Reading {
	out := make([]sensor.Reading, len(values))
	for i, v := range values {
		out[i] = sensor.Reading{
			Timestamp:   base.Add(time.Duration(i) * 10 * time.Second),
			Temperature: 30,
			Humidity:    v,
			Airflow:     1.5,
		}
	}
	return out
}

func TestBufferKeepsWindowStatsCoverAll(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	s := NewStore(5)
	for _, r := range humidityReadings(base, 94.5, 71.25, 80, 82, 88, 90, 76.25) {
		s.RecordReading(r)
	}

	h := s.Get(sensor.Humidity.Key)
	if h == nil {
		t.Fatal("missing humidity buffer")
	}

	if len(h.Points) != 5 {
		t.Errorf("expected 5 retained points, got %d", len(h.Points))
	}
	if h.Count() != 7 {
		t.Errorf("Count(): got %d, want 7", h.Count())
	}

	if h.Last() != 76.25 {
		t.Errorf("Last(): got %f, want 76.25", h.Last())
	}

	// 94.5 and 71.25 left the window but still bound the stats
	if h.Min != 71.25 {
		t.Errorf("Min: got %f, want 71.25", h.Min)
	}
	if h.Peak != 94.5 {
		t.Errorf("Peak: got %f, want 94.5", h.Peak)
	}
	if h.Avg() != 83.14285714285714 {
		t.Errorf("Avg(): got %f, want mean of all 7 humidity values", h.Avg())
	}

	vals := h.LastN(3)
	want := []float64{88, 90, 76.25}
	if len(vals) != len(want) {
		t.Fatalf("LastN(3): got %d values, want 3", len(vals))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("LastN(3)[%d]: got %f, want %f", i, vals[i], want[i])
		}
	}

	if air := s.Get(sensor.Airflow.Key); air == nil || air.Avg() != 1.5 {
		t.Error("airflow buffer should hold the constant 1.5 m/s readings")
	}
}

func TestLastNPointsAirflow(t *testing.T) {
	base := time.Date(2024, 6, 1, 14, 0, 0, 0, time.Local)
	s := NewStore(100)

	for i := 0; i < 120; i++ {
		s.RecordReading(sensor.Reading{
			Timestamp:   base.Add(time.Duration(i) * 10 * time.Second),
			Temperature: 30,
			Humidity:    80,
			Airflow:     0.6 + float64(i%10)*0.2,
		})
	}

	h := s.Get(sensor.Airflow.Key)
	if len(h.Points) != 100 {
		t.Fatalf("airflow buffer: got %d points, want capacity 100", len(h.Points))
	}

	pts := h.LastNPoints(5)
	if len(pts) != 5 {
		t.Fatalf("LastNPoints(5): got %d, want 5", len(pts))
	}

	last := pts[len(pts)-1]
	if !last.Time.Equal(base.Add(119 * 10 * time.Second)) {
		t.Errorf("last point time: got %v, want %v", last.Time, base.Add(119*10*time.Second))
	}
	if math.Abs(last.Value-2.4) > 1e-9 {
		t.Errorf("last airflow: got %f, want 2.4", last.Value)
	}
	for _, p := range pts {
		if p.Value < sensor.Airflow.Min-1e-9 || p.Value > sensor.Airflow.Max+1e-9 {
			t.Errorf("airflow %f outside band", p.Value)
		}
	}

	// returned points are a copy
	pts[0].Value = -1
	if h.LastNPoints(5)[0].Value == -1 {
		t.Error("LastNPoints must not alias the buffer")
	}
}

func TestQuantile(t *testing.T) {
	h := NewBuffer(10)
	if _, ok := h.Quantile(0.5); ok {
		t.Error("empty buffer should have no quantile")
	}

	for i := 1; i <= 100; i++ {
		h.Push(float64(i), time.Time{})
	}

	p95, ok := h.Quantile(0.95)
	if !ok {
		t.Fatal("expected a p95")
	}
	if math.Abs(p95-95) > 2 {
		t.Errorf("p95: got %f, want about 95", p95)
	}
}

func TestFromReadings(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	view := []sensor.Reading{
		{Timestamp: base, Temperature: 29, Humidity: 80, Airflow: 1.0},
		{Timestamp: base.Add(10 * time.Second), Temperature: 31, Humidity: 90, Airflow: 2.0},
	}

	s := FromReadings(view, 50)
	for _, m := range sensor.Metrics {
		b := s.Get(m.Key)
		if b == nil {
			t.Fatalf("missing buffer for %s", m.Key)
		}
		if len(b.Points) != 2 {
			t.Errorf("%s: got %d points, want 2", m.Key, len(b.Points))
		}
	}
	if got := s.Get("temperature").Avg(); got != 30 {
		t.Errorf("temperature avg: got %f, want 30", got)
	}
	if s.Get("pressure") != nil {
		t.Error("unknown metric should be nil")
	}
}

func TestQuantileSkipsNonFinite(t *testing.T) {
	h := NewBuffer(10)
	h.Push(80, time.Time{})
	h.Push(math.NaN(), time.Time{})
	h.Push(math.Inf(1), time.Time{})

	p50, ok := h.Quantile(0.5)
	if !ok {
		t.Fatal("expected a median")
	}
	if math.Abs(p50-80) > 1 {
		t.Errorf("p50: got %f, want about 80", p50)
	}
}
