// Package chart provides sparkline rendering with color-coded metric bands,
// time tick marks, timeline labels, and band scale bars.
package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/smartsos/internal/history"
	"github.com/luki/smartsos/internal/sensor"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// edge is the fraction of a band treated as its low or high end.
const edge = 0.15

// tickPeriods are the candidate spacings between timeline tick marks.
var tickPeriods = []time.Duration{
	time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

// minTickGap is the smallest number of columns between two tick marks.
const minTickGap = 12

// ValueColor returns the color for a value relative to the metric's band.
func ValueColor(v float64, m sensor.Metric) lipgloss.Color {
	span := m.Max - m.Min
	switch {
	case v > m.Max || v < m.Min:
		return lipgloss.Color("196") // red
	case v >= m.Max-span*edge:
		return lipgloss.Color("208") // orange
	case v <= m.Min+span*edge:
		return lipgloss.Color("75") // cool blue
	default:
		return lipgloss.Color("78") // soft green
	}
}

// AutoRange returns a vertical range for a series: the band, widened to
// include everything the buffer has seen.
func AutoRange(b *history.Buffer, m sensor.Metric) (float64, float64) {
	lo, hi := m.Min, m.Max
	if b != nil && b.Count() > 0 {
		lo = math.Min(lo, b.Min)
		hi = math.Max(hi, b.Peak)
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// RenderSparkline renders a sparkline chart with color-coded blocks
// (no timestamp ticks).
func RenderSparkline(values []float64, width int, rangeMin, rangeMax float64, m sensor.Metric) string {
	if width <= 0 {
		return ""
	}
	pts := make([]history.Point, len(values))
	for i, v := range values {
		pts[i] = history.Point{Value: v}
	}
	return RenderSparklinePoints(pts, width, rangeMin, rangeMax, m)
}

// RenderSparklinePoints renders a sparkline with tick marks on the timeline.
// A subtle pipe is drawn where the points cross a tick period boundary.
func RenderSparklinePoints(points []history.Point, width int, rangeMin, rangeMax float64, m sensor.Metric) string {
	if width <= 0 {
		return ""
	}

	if len(points) == 0 {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
		return dim.Render(strings.Repeat("╌", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("╌"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	period := TickPeriod(points)

	for i, p := range points {
		norm := (p.Value - rangeMin) / span
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			norm = 0
		}
		norm = math.Max(0, math.Min(1, norm))

		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}

		if isTick(points, i, period) {
			sb.WriteString(tickStyle.Render("│"))
		} else {
			ch := string(sparkBlocks[idx])
			style := lipgloss.NewStyle().Foreground(ValueColor(p.Value, m))
			if p.Value > m.Max || p.Value < m.Min {
				style = style.Bold(true)
			}
			sb.WriteString(style.Render(ch))
		}
	}

	return sb.String()
}

// TickPeriod picks the shortest tick spacing that keeps tick marks at least
// minTickGap points apart, based on the mean spacing of the points. Zero
// means no ticks.
func TickPeriod(points []history.Point) time.Duration {
	if len(points) < 2 {
		return 0
	}
	first, last := points[0].Time, points[len(points)-1].Time
	if first.IsZero() || last.IsZero() || !last.After(first) {
		return 0
	}
	step := last.Sub(first) / time.Duration(len(points)-1)
	for _, p := range tickPeriods {
		if p >= step*minTickGap {
			return p
		}
	}
	return tickPeriods[len(tickPeriods)-1]
}

func isTick(points []history.Point, i int, period time.Duration) bool {
	if period == 0 || i == 0 {
		return false
	}
	cur, prev := points[i].Time, points[i-1].Time
	if cur.IsZero() || prev.IsZero() {
		return false
	}
	return bucket(cur, period) != bucket(prev, period)
}

// bucket numbers the tick period containing t, in t's local wall clock.
func bucket(t time.Time, period time.Duration) int64 {
	_, offset := t.Zone()
	wall := t.Unix() + int64(offset)
	return wall / int64(period/time.Second)
}

// RenderTimeline renders the time labels under the sparkline at each tick
// position: HH:MM, or MM-DD for daily ticks.
func RenderTimeline(points []history.Point, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	period := TickPeriod(points)
	layout := "15:04"
	if period >= 24*time.Hour {
		layout = "01-02"
	}

	type tick struct {
		pos   int
		label string
	}
	var ticks []tick

	for i, p := range points {
		if isTick(points, i, period) {
			ticks = append(ticks, tick{pos: padLen + i, label: p.Time.Format(layout)})
		}
	}

	lastEnd := -1
	for _, t := range ticks {
		start := t.pos - 2
		if start < 0 {
			start = 0
		}
		end := start + len(t.label)
		if end > width {
			continue
		}
		if start <= lastEnd+1 {
			continue
		}
		for j, ch := range t.label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	return tickStyle.Render(string(line))
}

// RenderRangeScale renders a scale bar showing the current value against the
// metric's band; the band ends are marked.
func RenderRangeScale(current float64, m sensor.Metric, width int) string {
	if width <= 0 {
		return ""
	}

	span := m.Max - m.Min
	rangeMin := m.Min - span*0.1
	rangeMax := m.Max + span*0.1
	full := rangeMax - rangeMin

	pos := func(v float64) int {
		p := int(float64(width-1) * (v - rangeMin) / full)
		if p < 0 {
			return 0
		}
		if p >= width {
			return width - 1
		}
		return p
	}

	lowPos, highPos, curPos := pos(m.Min), pos(m.Max), pos(current)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == curPos:
			style := lipgloss.NewStyle().Foreground(ValueColor(current, m)).Bold(true)
			sb.WriteString(style.Render("◆"))
		case i == lowPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Render("▪"))
		case i == highPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("▪"))
		case i > lowPos && i < highPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("─"))
		default:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Render("·"))
		}
	}

	return sb.String()
}

// RenderValue renders a value with two decimals, its unit, and color coding.
func RenderValue(v float64, m sensor.Metric) string {
	s := fmt.Sprintf("%6.2f %s", v, m.Unit)
	style := lipgloss.NewStyle().Foreground(ValueColor(v, m))
	if v > m.Max || v < m.Min {
		style = style.Bold(true)
	}
	return style.Render(s)
}
