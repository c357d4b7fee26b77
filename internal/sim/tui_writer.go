package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"dronefleet-sim/internal/config"
	"dronefleet-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// telemetryMsg carries one drone state update.
type telemetryMsg struct{ telemetry.TelemetryRow }

// eventMsg carries a delivery event log line.
type eventMsg struct{ line string }

const maxEventLines = 1000

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	eventStyles  = map[string]lipgloss.Style{
		"assigned":         okStyle,
		"completed":        okStyle,
		"charging_started": warnStyle,
		"aborted":          warnStyle,
		"returned":         mutedStyle,
		"emergency":        alertStyle,
	}
)

// TUIWriter renders fleet state using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.TelemetryRow) error {
	w.program.Send(telemetryMsg{row})
	return nil
}

// WriteBatch outputs multiple telemetry rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent implements DeliveryEventWriter.
func (w *TUIWriter) WriteEvent(e telemetry.DeliveryEventRow) error {
	style, ok := eventStyles[e.Event]
	if !ok {
		style = mutedStyle
	}
	line := fmt.Sprintf("%s %s drone=%s delivery=%s lat=%.5f lon=%.5f payload=%.1fkg",
		mutedStyle.Render(e.Timestamp.Format(time.RFC3339)),
		style.Render(strings.ToUpper(e.Event)),
		e.DroneID, e.DeliveryID, e.Lat, e.Lon, e.PayloadKg)
	w.program.Send(eventMsg{line: line})
	return nil
}

// WriteEvents outputs multiple delivery events.
func (w *TUIWriter) WriteEvents(rows []telemetry.DeliveryEventRow) error {
	for _, e := range rows {
		_ = w.WriteEvent(e)
	}
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg        *config.SimulationConfig
	table      table.Model
	vp         viewport.Model
	drones     map[string]telemetry.TelemetryRow
	logs       []string
	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Drone", Width: 12},
		{Title: "Model", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Batt", Width: 6},
		{Title: "Maint", Width: 6},
		{Title: "Lat", Width: 10},
		{Title: "Lon", Width: 11},
		{Title: "Alt", Width: 6},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(12))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		drones:     make(map[string]telemetry.TelemetryRow),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown":
				m.vp.LineDown(10)
			case "pgup":
				m.vp.LineUp(10)
			}
		}
		return m, nil
	case telemetryMsg:
		m.drones[msg.DroneID] = msg.TelemetryRow
		m.refreshTable()
	case eventMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxEventLines {
			m.logs = m.logs[len(m.logs)-maxEventLines:]
		}
		m.refreshViewport()
	}
	return m, nil
}

func (m *tuiModel) refreshTable() {
	ids := make([]string, 0, len(m.drones))
	for id := range m.drones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		r := m.drones[id]
		rows = append(rows, table.Row{
			shortID(r.DroneID),
			r.Model,
			r.Status,
			fmt.Sprintf("%.0f%%", r.Battery),
			fmt.Sprintf("%.0f", r.Maintenance),
			fmt.Sprintf("%.5f", r.Lat),
			fmt.Sprintf("%.5f", r.Lon),
			fmt.Sprintf("%.0f", r.Alt),
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - m.table.Height() - 6
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) summary() string {
	total := len(m.drones)
	var battery float64
	counts := make(map[string]int)
	for _, r := range m.drones {
		battery += r.Battery
		counts[r.Status]++
	}
	avg := 0.0
	if total > 0 {
		avg = battery / float64(total)
	}
	parts := []string{
		fmt.Sprintf("drones=%d", total),
		fmt.Sprintf("avg_batt=%.1f%%", avg),
	}
	for _, st := range []string{"in_transit", "charging", "returning", "emergency"} {
		if counts[st] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
		}
	}
	return strings.Join(parts, " ")
}

func (m tuiModel) View() string {
	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 1)))
	header := titleStyle.Render(fmt.Sprintf("dronefleet-sim · %s", m.cfg.Region.Name))
	sections := []string{
		header,
		m.summary(),
		divider,
		m.table.View(),
		divider,
		"Delivery Events:",
		m.vp.View(),
		divider,
		mutedStyle.Render("q quit · w wrap · s autoscroll · j/k scroll"),
	}
	return strings.Join(sections, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
