package chart

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/smartsos/internal/history"
	"github.com/luki/smartsos/internal/sensor"
)

func TestSparkline(t *testing.T) {
	values := []float64{28, 28.5, 29, 29.5, 30, 30.5, 31, 31.5, 32}
	result := RenderSparkline(values, 20, 27.5, 32.5, sensor.Temperature)
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	if w := lipgloss.Width(result); w != 20 {
		t.Errorf("sparkline width: got %d, want 20", w)
	}
	t.Logf("Sparkline: %s", result)
}

func TestSparklineNonFinite(t *testing.T) {
	values := []float64{29, math.NaN(), math.Inf(1), math.Inf(-1), 31}
	result := RenderSparkline(values, 8, 27.5, 32.5, sensor.Temperature)
	if w := lipgloss.Width(result); w != 8 {
		t.Errorf("sparkline width: got %d, want 8", w)
	}
}

func TestSparklineEmpty(t *testing.T) {
	result := RenderSparklinePoints(nil, 10, 0, 1, sensor.Airflow)
	if !strings.Contains(result, "╌") {
		t.Error("empty sparkline should render placeholder")
	}
}

func TestSparklineTicks(t *testing.T) {
	// 10s spacing: ticks every 5 minutes
	base := time.Date(2026, 2, 21, 14, 3, 0, 0, time.Local)
	var pts []history.Point
	for i := 0; i < 60; i++ {
		pts = append(pts, history.Point{
			Value: 80 + float64(i%5),
			Time:  base.Add(time.Duration(i) * 10 * time.Second),
		})
	}

	if p := TickPeriod(pts); p != 5*time.Minute {
		t.Errorf("TickPeriod: got %v, want 5m", p)
	}

	result := RenderSparklinePoints(pts, 60, 70, 95, sensor.Humidity)
	if !strings.Contains(result, "│") {
		t.Error("expected tick mark in sparkline")
	}

	timeline := RenderTimeline(pts, 60)
	if !strings.Contains(timeline, "14:05") {
		t.Errorf("expected 14:05 label in timeline, got %q", timeline)
	}
	t.Logf("Sparkline with ticks: %s", result)
}

func TestTickPeriodWithoutTimes(t *testing.T) {
	pts := []history.Point{{Value: 1}, {Value: 2}}
	if p := TickPeriod(pts); p != 0 {
		t.Errorf("TickPeriod without timestamps: got %v, want 0", p)
	}
}

func TestValueColor(t *testing.T) {
	m := sensor.Temperature
	tests := []struct {
		v    float64
		want lipgloss.Color
	}{
		{30.0, "78"},
		{28.1, "75"},
		{31.9, "208"},
		{33.0, "196"},
		{27.0, "196"},
	}
	for _, tt := range tests {
		if got := ValueColor(tt.v, m); got != tt.want {
			t.Errorf("ValueColor(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestRangeScale(t *testing.T) {
	out := RenderRangeScale(30, sensor.Temperature, 24)
	if w := lipgloss.Width(out); w != 24 {
		t.Errorf("scale width: got %d, want 24", w)
	}
	if !strings.Contains(out, "◆") {
		t.Error("expected current value marker")
	}
}

func TestAutoRange(t *testing.T) {
	lo, hi := AutoRange(nil, sensor.Airflow)
	if lo >= sensor.Airflow.Min || hi <= sensor.Airflow.Max {
		t.Errorf("AutoRange should pad the band, got %v..%v", lo, hi)
	}

	b := history.NewBuffer(4)
	b.Push(5, time.Time{})
	_, hi = AutoRange(b, sensor.Airflow)
	if hi < 5 {
		t.Errorf("AutoRange should include the peak, got hi=%v", hi)
	}
}

func TestRenderValue(t *testing.T) {
	out := RenderValue(29.5, sensor.Temperature)
	if !strings.Contains(out, "29.50 °C") {
		t.Errorf("RenderValue: got %q", out)
	}
}
