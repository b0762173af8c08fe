package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

func newTestModel() model {
	return newModel(sim.New(bioreactor.New(42), 42, 1.0), 200*time.Millisecond)
}

func press(m model, key string) model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(model)
}

func tickOnce(m model) model {
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		panic("tick must reschedule")
	}
	return next.(model)
}

func TestDashboardTickAdvances(t *testing.T) {
	m := newTestModel()
	for i := 0; i < 5; i++ {
		m = tickOnce(m)
	}

	if m.last.Readout.T != 1.0 {
		t.Errorf("expected t=1.0, got %v", m.last.Readout.T)
	}
	if got := len(m.history[bioreactor.FieldLevel]); got != 5 {
		t.Errorf("expected 5 history points, got %d", got)
	}
}

func TestDashboardPause(t *testing.T) {
	m := press(newTestModel(), " ")
	if !m.paused {
		t.Fatal("expected paused")
	}
	m = tickOnce(m)
	if m.last.Readout.T != 0 {
		t.Errorf("paused dashboard advanced to t=%v", m.last.Readout.T)
	}
}

func TestDashboardActuatorKeys(t *testing.T) {
	m := newTestModel()

	m = press(m, "H")
	m = press(m, "H")
	m = press(m, "i")
	m = press(m, "o")
	m = press(m, "v")

	a := m.last.Actuators
	if a.Heater != 0.2 {
		t.Errorf("expected heater 0.2, got %v", a.Heater)
	}
	if a.ValveIn != 1 || a.ValveOut != 0 {
		t.Errorf("expected valves toggled, got in=%d out=%d", a.ValveIn, a.ValveOut)
	}
	if a.Vent != 0.4 {
		t.Errorf("expected vent 0.4, got %v", a.Vent)
	}

	for i := 0; i < 12; i++ {
		m = press(m, "h")
	}
	if m.last.Actuators.Heater != 0 {
		t.Errorf("expected heater clamped to 0, got %v", m.last.Actuators.Heater)
	}
}

func TestDashboardTimeScaleKeys(t *testing.T) {
	m := press(newTestModel(), "+")
	if m.last.TimeScale != 2 {
		t.Errorf("expected time scale 2, got %v", m.last.TimeScale)
	}
	for i := 0; i < 10; i++ {
		m = press(m, "+")
	}
	if m.last.TimeScale != 50 {
		t.Errorf("expected clamp at 50, got %v", m.last.TimeScale)
	}
	m = press(m, "0")
	if m.last.TimeScale != 1 {
		t.Errorf("expected reset to 1, got %v", m.last.TimeScale)
	}
}

func TestDashboardReset(t *testing.T) {
	m := newTestModel()
	m = tickOnce(m)
	m = press(m, "r")

	if m.last.Readout.T != 0 {
		t.Errorf("expected t=0 after reset, got %v", m.last.Readout.T)
	}
	if len(m.history) != 0 {
		t.Error("expected history cleared")
	}
}

func TestDashboardView(t *testing.T) {
	m := newTestModel()
	m = tickOnce(m)
	m = tickOnce(m)
	m = press(m, "tab")

	view := m.View()
	for _, want := range []string{"bioreactor", "level", "pressure_kpa", "valve_in", "aeration"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.selected != 1 {
		t.Errorf("expected temperature selected, got %d", m.selected)
	}
}

func TestDashboardQuit(t *testing.T) {
	_, cmd := newTestModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestSparkline(t *testing.T) {
	if s := sparkline(nil, 10); s != "" {
		t.Errorf("expected empty, got %q", s)
	}
	s := sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 4)
	if got := len([]rune(s)); got != 4 {
		t.Errorf("expected 4 runes, got %d", got)
	}
	if !strings.HasSuffix(s, "█") {
		t.Errorf("expected max at end, got %q", s)
	}
}
