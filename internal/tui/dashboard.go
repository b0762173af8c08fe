package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const historyLen = 120

var fieldUnits = map[bioreactor.Field]string{
	bioreactor.FieldLevel:        "%",
	bioreactor.FieldTemperature:  "°C",
	bioreactor.FieldDO:           "%sat",
	bioreactor.FieldPH:           "",
	bioreactor.FieldAgitationRPM: "rpm",
	bioreactor.FieldBiomass:      "g/L",
	bioreactor.FieldPressure:     "kPa",
}

// continuous actuator keys: lower, raise
var actuatorKeys = map[string]struct {
	key   string
	delta float64
}{
	"h": {"heater", -0.1}, "H": {"heater", 0.1},
	"a": {"aeration", -0.1}, "A": {"aeration", 0.1},
	"g": {"agitation", -0.1}, "G": {"agitation", 0.1},
	"v": {"vent", -0.1}, "V": {"vent", 0.1},
}

type model struct {
	sim      *sim.Simulator
	interval time.Duration
	paused   bool

	last     sim.Frame
	history  map[bioreactor.Field][]float64
	selected int

	width  int
	height int
}

// NewDashboard builds the dashboard around s, stepping it every interval.
func NewDashboard(s *sim.Simulator, interval time.Duration) tea.Model {
	return newModel(s, interval)
}

func newModel(s *sim.Simulator, interval time.Duration) model {
	return model{
		sim:      s,
		interval: interval,
		last:     sim.Frame{Readout: s.Readout(false), Actuators: s.Actuators(), TimeScale: s.TimeScale()},
		history:  make(map[bioreactor.Field][]float64),
		width:    80,
		height:   24,
	}
}

type tickMsg time.Time

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return m.tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *model) step() {
	m.last = m.sim.Tick(m.interval)
	for _, s := range m.last.Readout.Sensors() {
		f := bioreactor.Field(s.Key)
		h := append(m.history[f], s.Value)
		if len(h) > historyLen {
			h = h[len(h)-historyLen:]
		}
		m.history[f] = h
	}
}

func (m *model) refresh() {
	m.last.Readout = m.sim.Readout(false)
	m.last.Actuators = m.sim.Actuators()
	m.last.TimeScale = m.sim.TimeScale()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	key := msg.String()
	if adj, ok := actuatorKeys[key]; ok {
		_, u := m.sim.Snapshot()
		cur := map[string]float64{
			"heater": u.Heater, "aeration": u.Aeration, "agitation": u.Agitation, "vent": u.Vent,
		}[adj.key]
		m.sim.Apply("cmd/"+adj.key, strconv.FormatFloat(bioreactor.Round(cur+adj.delta, 3), 'f', -1, 64))
		m.refresh()
		return m, nil
	}

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "i":
		m.sim.Apply("cmd/valve_in", toggle(m.last.Actuators.ValveIn))
	case "o":
		m.sim.Apply("cmd/valve_out", toggle(m.last.Actuators.ValveOut))
	case "+", "=":
		ts := m.sim.TimeScale() * 2
		if ts == 0 {
			ts = 1
		}
		m.sim.SetTimeScale(&ts)
	case "-", "_":
		ts := m.sim.TimeScale() / 2
		m.sim.SetTimeScale(&ts)
	case "0":
		ts := 1.0
		m.sim.SetTimeScale(&ts)
	case "r":
		m.sim.Reset(nil)
		m.history = make(map[bioreactor.Field][]float64)
	case "up", "k", "shift+tab":
		m.selected = (m.selected + len(bioreactor.SensorFields) - 1) % len(bioreactor.SensorFields)
	case "down", "j", "tab":
		m.selected = (m.selected + 1) % len(bioreactor.SensorFields)
	}
	m.refresh()
	return m, nil
}

func toggle(v int) string {
	if v == 1 {
		return "off"
	}
	return "on"
}

func (m model) View() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render("bioreactor"), statusText,
		dim.Render(fmt.Sprintf("t=%.1fs  x%.2f", m.last.Readout.T, m.last.TimeScale))))
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 44)) + "\n")

	selected := bioreactor.SensorFields[m.selected]
	for i, s := range m.last.Readout.Sensors() {
		f := bioreactor.Field(s.Key)
		name := fmt.Sprintf("%-14s", s.Key)
		val := fmt.Sprintf("%10s %-4s", strconv.FormatFloat(s.Value, 'f', -1, 64), fieldUnits[f])
		spark := sparkline(m.history[f], 24)
		if i == m.selected {
			b.WriteString("   " + cyan.Render("▸ ") + white.Render(name) + magenta.Render(val) + " " + cyan.Render(spark) + "\n")
		} else {
			b.WriteString("     " + dim.Render(name) + white.Render(val) + " " + dimmer.Render(spark) + "\n")
		}
	}

	b.WriteString("\n")
	a := m.last.Actuators
	b.WriteString("   " + valve("in", a.ValveIn) + "  " + valve("out", a.ValveOut) + "\n")
	for _, r := range a.Readings()[2:] {
		b.WriteString(fmt.Sprintf("   %s %s %s\n", dim.Render(fmt.Sprintf("%-10s", r.Key)), bar(r.Value, 20), white.Render(fmt.Sprintf("%.2f", r.Value))))
	}

	if h := m.history[selected]; len(h) > 1 {
		b.WriteString("\n")
		graph := asciigraph.Plot(h,
			asciigraph.Height(8),
			asciigraph.Width(min(60, max(20, m.width-16))),
			asciigraph.Caption(string(selected)),
		)
		for _, line := range strings.Split(graph, "\n") {
			b.WriteString("   " + line + "\n")
		}
	}

	b.WriteString("\n" + dim.Render("   i/o valves  h/H a/A g/G v/V actuators  ±speed  r reset  space pause  q quit") + "\n")

	return b.String()
}

func valve(name string, open int) string {
	if open == 1 {
		return dim.Render("valve_"+name) + " " + green.Render("open")
	}
	return dim.Render("valve_"+name) + " " + yellow.Render("shut")
}

func bar(v float64, width int) string {
	filled := int(v*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", width-filled))
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	var sb strings.Builder
	for _, v := range data {
		idx := int((v - minVal) / rang * 7)
		idx = min(max(idx, 0), 7)
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// Run starts the dashboard on the alternate screen and blocks until it quits.
func Run(s *sim.Simulator, interval time.Duration) error {
	p := tea.NewProgram(NewDashboard(s, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
