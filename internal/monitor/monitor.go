// Package monitor implements the live Smart-SOS dashboard TUI using
// BubbleTea: latest-value tiles, per-metric trend sparklines, a data table,
// date range selection, run/pause and export.
package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/smartsos/internal/chart"
	"github.com/luki/smartsos/internal/export"
	"github.com/luki/smartsos/internal/history"
	"github.com/luki/smartsos/internal/ingest"
	"github.com/luki/smartsos/internal/query"
	"github.com/luki/smartsos/internal/sensor"
	"github.com/luki/smartsos/internal/store"
)

const historySize = 600

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

// ── Model ────────────────────────────────────────────────────────────

// Options wires the monitor to the process-level state.
type Options struct {
	Controller *ingest.Controller
	DataPath   string
	ExportPath string
	Interval   time.Duration
	ChartWidth int // 0 = fit to window
	// LoadErr is the failure from loading the backing file. When set, ingest
	// stays locked so no tick can overwrite the unreadable file.
	LoadErr error
	Logger  *slog.Logger
}

// Model is the BubbleTea model for the live monitor.
type Model struct {
	ctrl       *ingest.Controller
	dataPath   string
	exportPath string
	interval   time.Duration
	chartWidth int
	log        *slog.Logger

	rng    query.Range
	follow bool // range tracks the log bounds until adjusted
	view   []sensor.Reading
	hist   *history.Store

	table     table.Model
	help      help.Model
	showTable bool

	loadErr   error
	err       error
	status    string
	width     int
	height    int
	scroll    int
	lastTick  time.Time
	startTime time.Time
}

// New creates the initial model for the live monitor.
func New(opts Options) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		ctrl:       opts.Controller,
		dataPath:   opts.DataPath,
		exportPath: opts.ExportPath,
		interval:   interval,
		chartWidth: opts.ChartWidth,
		log:        logger,
		follow:     true,
		loadErr:    opts.LoadErr,
		table:      newTable(),
		help:       help.New(),
		startTime:  time.Now(),
	}
	if m.loadErr != nil {
		m.ctrl.SetRunning(false)
	}
	m.refresh()
	return m
}

func newTable() table.Model {
	cols := []table.Column{
		{Title: "timestamp", Width: 19},
		{Title: "temperature", Width: 11},
		{Title: "humidity", Width: 8},
		{Title: "airflow", Width: 7},
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// FilteredView returns the readings inside the selected range.
func (m Model) FilteredView() []sensor.Reading {
	return m.view
}

// Range returns the selected date range.
func (m Model) Range() query.Range {
	return m.rng
}

// refresh recomputes the filtered view and everything derived from it.
func (m *Model) refresh() {
	log := m.ctrl.Log()
	bounds, ok := query.Bounds(log)
	if ok {
		if m.follow {
			m.rng = bounds
		} else {
			m.rng = m.rng.Clamp(bounds)
		}
		m.view = query.FilterRange(log, m.rng)
	} else {
		m.view = nil
	}

	m.hist = history.FromReadings(m.view, historySize)

	newest := query.NewestFirst(m.view)
	rows := make([]table.Row, len(newest))
	for i, r := range newest {
		rows[i] = table.Row{
			r.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2f", r.Temperature),
			fmt.Sprintf("%.2f", r.Humidity),
			fmt.Sprintf("%.2f", r.Airflow),
		}
	}
	m.table.SetRows(rows)
}

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ── Init / Update ────────────────────────────────────────────────────

// Init takes the first reading right away, like a fresh page load.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(time.Now()) }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(5, msg.Height/3))

	case tickMsg:
		m.lastTick = time.Time(msg)
		if m.loadErr == nil {
			if _, ok, err := m.ctrl.Tick(); ok {
				m.err = err
			}
		}
		m.refresh()
		return m, tickCmd(m.interval)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Pause):
		if m.loadErr != nil {
			m.status = "ingest disabled: backing file could not be loaded"
			return m, nil
		}
		if m.ctrl.Toggle() {
			m.status = "simulation running"
		} else {
			m.status = "simulation paused"
		}

	case key.Matches(msg, keys.StartBack):
		m.adjustRange(m.rng.ShiftStart(-1))
	case key.Matches(msg, keys.StartFwd):
		m.adjustRange(m.rng.ShiftStart(1))
	case key.Matches(msg, keys.EndBack):
		m.adjustRange(m.rng.ShiftEnd(-1))
	case key.Matches(msg, keys.EndFwd):
		m.adjustRange(m.rng.ShiftEnd(1))
	case key.Matches(msg, keys.ResetRange):
		m.follow = true
		m.refresh()

	case key.Matches(msg, keys.Table):
		m.showTable = !m.showTable

	case key.Matches(msg, keys.Export):
		m.exportView()

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Up):
		if m.showTable {
			m.table.MoveUp(1)
		} else if m.scroll > 0 {
			m.scroll--
		}
	case key.Matches(msg, keys.Down):
		if m.showTable {
			m.table.MoveDown(1)
		} else {
			m.scroll++
		}
	case msg.String() == "home":
		m.scroll = 0
	}

	return m, nil
}

func (m *Model) adjustRange(r query.Range) {
	if _, ok := query.Bounds(m.ctrl.Log()); !ok {
		return
	}
	m.follow = false
	m.rng = r
	m.refresh()
}

func (m *Model) exportView() {
	f, err := export.WriteFile(m.exportPath, m.view)
	if err != nil {
		m.err = fmt.Errorf("export: %w", err)
		m.log.Error("export failed", "path", m.exportPath, "error", err)
		return
	}
	m.status = fmt.Sprintf("exported %d readings to %s (%s)", len(m.view), m.exportPath, f)
	m.log.Info("exported view", "path", m.exportPath, "format", f.String(), "readings", len(m.view))
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
	colorOk       = lipgloss.Color("78")
	colorCrit     = lipgloss.Color("196")
	colorPaused   = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string

	sections = append(sections, m.renderTitleBar(contentWidth))

	if m.loadErr != nil {
		sections = append(sections, errorBox(contentWidth, "LOAD FAILED: "+m.loadErr.Error()))
	}
	if m.err != nil {
		label := "ERROR"
		var pe *store.PersistenceError
		if errors.As(m.err, &pe) {
			label = "SAVE FAILED"
		}
		sections = append(sections, errorBox(contentWidth, label+": "+m.err.Error()))
	}

	if len(m.view) == 0 {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render(m.emptyText())
		sections = append(sections, waiting)
	} else {
		sections = append(sections, m.renderTiles(contentWidth))
		sections = append(sections, m.renderTrends(contentWidth))
		if m.showTable {
			sections = append(sections, m.renderTable(contentWidth))
		}
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

// emptyText explains an empty view: nothing recorded yet, or a range that
// selects none of the recorded days.
func (m Model) emptyText() string {
	if m.ctrl.Len() == 0 {
		return "No data yet. Press p to run the simulation and start generating readings."
	}
	return fmt.Sprintf("No readings in %s. Press r to show all dates.", m.rng)
}

func errorBox(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(colorCrit).
		Bold(true).
		Width(width).
		Padding(0, 1).
		Render(" " + text)
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SMART-SOS MONITOR")

	dimS := lipgloss.NewStyle().Foreground(colorDim)

	var statusParts []string
	statusParts = append(statusParts, dimS.Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))))
	statusParts = append(statusParts, dimS.Render(fmt.Sprintf("every %s", m.interval)))

	if !m.lastTick.IsZero() {
		statusParts = append(statusParts, dimS.Render(m.lastTick.Format("15:04:05")))
	}

	if m.ctrl.Running() {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(colorOk).Bold(true).Render("RUNNING"))
	} else {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(colorPaused).Bold(true).Render("PAUSED"))
	}

	rec := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("REC") +
		dimS.Render(fmt.Sprintf(" %s (%d)", m.dataPath, m.ctrl.Len()))
	statusParts = append(statusParts, rec)

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

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

func (m Model) renderTiles(totalWidth int) string {
	latest, _ := query.Latest(m.view)

	tileWidth := totalWidth/len(sensor.Metrics) - 2
	if tileWidth < 16 {
		tileWidth = 16
	}
	scaleWidth := tileWidth - 4

	tiles := make([]string, 0, len(sensor.Metrics))
	for _, mt := range sensor.Metrics {
		v := mt.Value(latest)
		title := lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Render(mt.Title())
		value := chart.RenderValue(v, mt)
		scale := chart.RenderRangeScale(v, mt, scaleWidth)
		band := lipgloss.NewStyle().Foreground(colorDim).
			Render(fmt.Sprintf("%.2f – %.2f", mt.Min, mt.Max))

		tile := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(tileWidth).
			Render(lipgloss.JoinVertical(lipgloss.Left, title, value, scale, band))
		tiles = append(tiles, tile)
	}

	asOf := lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1).
		Render("latest reading " + latest.Timestamp.Format("2006-01-02 15:04:05"))

	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, tiles...), asOf)
}

func (m Model) sparkWidth(totalWidth int) int {
	if m.chartWidth > 0 {
		return m.chartWidth
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
	return chartWidth
}

func (m Model) renderTrends(totalWidth int) string {
	chartWidth := m.sparkWidth(totalWidth)

	labelW := 18
	valW := 12

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Foreground(colorAccent).
		Render("Sensor readings over time"))

	var lastPts []history.Point
	for _, mt := range sensor.Metrics {
		hist := m.hist.Get(mt.Key)
		if hist == nil {
			continue
		}

		rangeMin, rangeMax := chart.AutoRange(hist, mt)

		label := lipgloss.NewStyle().
			Foreground(colorLabel).
			Width(labelW).
			Render(truncate(mt.Title(), labelW))

		val := lipgloss.NewStyle().
			Width(valW).
			Align(lipgloss.Right).
			Render(chart.RenderValue(hist.Last(), mt))

		pts := hist.LastNPoints(chartWidth)
		lastPts = pts
		spark := chart.RenderSparklinePoints(pts, chartWidth, rangeMin, rangeMax, mt)

		p95, _ := hist.Quantile(0.95)
		stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%7.2f", hist.Avg())) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%7.2f", hist.Min)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%7.2f", hist.Peak)) +
			dimS.Render(" p95") + valS.Render(fmt.Sprintf("%7.2f", p95))

		rows = append(rows, label+" "+val+" "+frameL+spark+frameR+stats)
	}

	if lastPts != nil {
		timeline := chart.RenderTimeline(lastPts, chartWidth)
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

func (m Model) renderTable(totalWidth int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).
		Render(fmt.Sprintf("Data table (%d readings, newest first)", len(m.view)))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.table.View()))
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)

	rangeText := "no dates"
	if len(m.ctrl.Log()) > 0 {
		rangeText = m.rng.String()
		if m.follow {
			rangeText += " (all)"
		}
	}
	info := dimS.Render("range ") +
		lipgloss.NewStyle().Foreground(colorAccent).Render(rangeText) +
		dimS.Render(fmt.Sprintf("  %d shown", len(m.view)))
	if m.status != "" {
		info += dimS.Render("  · " + m.status)
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, info, m.help.View(keys)))
}

func truncate(s string, w int) string {
	if len([]rune(s)) <= w {
		return s
	}
	r := []rune(s)
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
