// Package viewer implements the read-only history browser TUI: one calendar
// day of the reading log at a time, with time scrubbing and sparkline windows
// ending at the cursor.
package viewer

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/smartsos/internal/chart"
	"github.com/luki/smartsos/internal/history"
	"github.com/luki/smartsos/internal/query"
	"github.com/luki/smartsos/internal/sensor"
	"github.com/luki/smartsos/internal/store"
)

// skip is how many readings H/L jump.
const skip = 6

// ErrNoData is returned by Run when the backing file holds no readings.
var ErrNoData = errors.New("no readings to browse")

// Run loads the backing file and launches the history viewer TUI.
func Run(st *store.Store) error {
	log, err := st.Load()
	if err != nil {
		return err
	}
	if len(log) == 0 {
		return fmt.Errorf("%w in %s", ErrNoData, st.Path())
	}

	p := tea.NewProgram(
		New(log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorAccent   = lipgloss.Color("214")
)

// ── Model ────────────────────────────────────────────────────────────

// Model browses a loaded reading log day by day.
type Model struct {
	log      []sensor.Reading
	days     []query.Range // single-day ranges, newest first
	dayIdx   int
	readings []sensor.Reading // current day in log order
	hist     *history.Store
	cursor   int
	scroll   int
	width    int
	height   int
}

// New creates a viewer over log, opened on the newest day with the cursor
// on its last reading.
func New(log []sensor.Reading) Model {
	m := Model{log: log}
	for _, d := range query.Days(log) {
		m.days = append(m.days, query.Range{Start: d, End: d})
	}
	m.loadDay()
	return m
}

func (m *Model) loadDay() {
	m.readings = nil
	m.cursor = 0
	m.scroll = 0
	if len(m.days) == 0 {
		m.hist = history.NewStore(0)
		return
	}
	m.readings = query.FilterRange(m.log, m.days[m.dayIdx])
	m.hist = history.FromReadings(m.readings, len(m.readings))
	if len(m.readings) > 0 {
		m.cursor = len(m.readings) - 1
	}
}

// Day returns the calendar day on screen.
func (m Model) Day() query.Range {
	if len(m.days) == 0 {
		return query.Range{}
	}
	return m.days[m.dayIdx]
}

// Cursor returns the reading under the time cursor.
func (m Model) Cursor() (sensor.Reading, bool) {
	if m.cursor < 0 || m.cursor >= len(m.readings) {
		return sensor.Reading{}, false
	}
	return m.readings[m.cursor], true
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		last := len(m.readings) - 1
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < last {
				m.cursor++
			}
		case "shift+left", "H":
			m.cursor = max(0, m.cursor-skip)
		case "shift+right", "L":
			m.cursor = max(0, min(last, m.cursor+skip))
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(0, last)

		case "[":
			if m.dayIdx < len(m.days)-1 {
				m.dayIdx++
				m.loadDay()
			}
		case "]":
			if m.dayIdx > 0 {
				m.dayIdx--
				m.loadDay()
			}

		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string

	sections = append(sections, m.renderTitle(contentWidth))

	if len(m.readings) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render("No data for this day.")
		sections = append(sections, empty)
	} else {
		sections = append(sections, m.renderCursorInfo(contentWidth))
		sections = append(sections, m.renderPanel(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	start := m.scroll
	end := start + visibleLines
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SMART-SOS HISTORY")

	day := "no data"
	if len(m.days) > 0 {
		day = m.days[m.dayIdx].Start.Format(query.DateLayout)
	}
	dayText := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(day)

	nav := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  [ %d/%d ]", m.dayIdx+1, len(m.days)))

	dataInfo := ""
	if len(m.readings) > 0 {
		first := m.readings[0].Timestamp.Format("15:04:05")
		last := m.readings[len(m.readings)-1].Timestamp.Format("15:04:05")
		dataInfo = lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("  %s - %s  (%d readings)", first, last, len(m.readings)))
	}

	right := dayText + nav + dataInfo

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m Model) renderCursorInfo(width int) string {
	r, ok := m.Cursor()
	if !ok {
		return ""
	}

	ts := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(r.Timestamp.Format("15:04:05"))

	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.readings)))

	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + ts + pos + "  " + m.renderScrubber(barWidth))
}

func (m Model) renderScrubber(width int) string {
	n := len(m.readings)
	if n == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if n > 1 {
		pos = m.cursor * (width - 1) / (n - 1)
	}
	if pos >= width {
		pos = width - 1
	}

	var sb strings.Builder
	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i := 0; i < width; i++ {
		if i == pos {
			sb.WriteString(curS.Render("◆"))
			continue
		}
		idx := 0
		if n > 1 {
			idx = i * (n - 1) / (width - 1)
		}
		if idx > 0 && idx < n && m.readings[idx].Timestamp.Hour() != m.readings[idx-1].Timestamp.Hour() {
			sb.WriteString(tickS.Render("│"))
			continue
		}
		sb.WriteString(dimS.Render("─"))
	}

	return sb.String()
}

func (m Model) renderPanel(totalWidth int) string {
	cur, ok := m.Cursor()
	if !ok {
		return ""
	}

	innerWidth := totalWidth - 4
	if innerWidth < 30 {
		innerWidth = 30
	}
	chartWidth := innerWidth - 60
	if chartWidth < 15 {
		chartWidth = 15
	}
	if chartWidth > 140 {
		chartWidth = 140
	}

	labelW := 18
	valW := 12

	var rows []string

	colLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(labelW).Render("metric")
	colVal := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(valW).Align(lipgloss.Right).Render("value")
	colHistPad := strings.Repeat(" ", max(0, chartWidth/2-3))
	colHist := lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(colHistPad + "history")
	rows = append(rows, colLabel+" "+colVal+"  "+colHist)

	rows = append(rows, lipgloss.NewStyle().
		Foreground(lipgloss.Color("237")).
		Render(strings.Repeat("─", innerWidth)))

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	for _, mt := range sensor.Metrics {
		buf := m.hist.Get(mt.Key)
		rangeMin, rangeMax := chart.AutoRange(buf, mt)

		pts := sparkWindow(m.readings, m.cursor, chartWidth, mt)

		label := lipgloss.NewStyle().
			Foreground(colorLabel).
			Bold(true).
			Width(labelW).
			Render(truncate(mt.Title(), labelW))

		val := lipgloss.NewStyle().
			Width(valW).
			Align(lipgloss.Right).
			Render(chart.RenderValue(mt.Value(cur), mt))

		spark := chart.RenderSparklinePoints(pts, chartWidth, rangeMin, rangeMax, mt)

		stats := ""
		if buf != nil {
			stats = dimS.Render(" avg") + valS.Render(fmt.Sprintf("%7.2f", buf.Avg())) +
				dimS.Render(" lo") + valS.Render(fmt.Sprintf("%7.2f", buf.Min)) +
				dimS.Render(" pk") + valS.Render(fmt.Sprintf("%7.2f", buf.Peak))
		}

		rows = append(rows, label+" "+val+" "+frameL+spark+frameR+stats)

		timeline := chart.RenderTimeline(pts, chartWidth)
		if strings.TrimSpace(timeline) != "" {
			pad := strings.Repeat(" ", labelW+valW+2)
			rows = append(rows, pad+" "+timeline)
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(fmt.Sprintf(":skip %d", skip)) +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  [/]") + keyS.Render(":day") +
		dimS.Render("  j/k") + keyS.Render(":scroll")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

// ── Helpers ──────────────────────────────────────────────────────────

// sparkWindow returns up to width points of one metric ending at the cursor.
func sparkWindow(readings []sensor.Reading, cursor, width int, mt sensor.Metric) []history.Point {
	if len(readings) == 0 || cursor < 0 || cursor >= len(readings) || width <= 0 {
		return nil
	}
	from := max(0, cursor-width+1)
	pts := make([]history.Point, 0, cursor-from+1)
	for _, r := range readings[from : cursor+1] {
		pts = append(pts, history.Point{Value: mt.Value(r), Time: r.Timestamp})
	}
	return pts
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}
