package sim

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
)

func newTestSimulator(opts ...Option) *Simulator {
	return New(bioreactor.New(42), 42, 1.0, opts...)
}

func TestSimulatorApplyImmediate(t *testing.T) {
	s := newTestSimulator()

	res := s.Apply("bioreactor/cmd/heater", "0.75")
	if res.Target != command.TargetHeater {
		t.Fatalf("expected heater target, got %v", res.Target)
	}

	_, u := s.Snapshot()
	if u.Heater != 0.75 {
		t.Errorf("expected heater 0.75, got %f", u.Heater)
	}
}

func TestSimulatorQueuedCommandsApplyOnTick(t *testing.T) {
	s := newTestSimulator()

	if !s.Enqueue(command.Command{Key: "bioreactor/cmd/valve_in", Value: "on"}) {
		t.Fatal("enqueue rejected")
	}

	_, u := s.Snapshot()
	if u.ValveIn {
		t.Fatal("queued command applied before tick")
	}

	frame := s.Tick(200 * time.Millisecond)
	if frame.Applied != 1 {
		t.Errorf("expected 1 applied command, got %d", frame.Applied)
	}
	if frame.Actuators.ValveIn != 1 {
		t.Errorf("expected valve_in 1 in frame, got %d", frame.Actuators.ValveIn)
	}
}

func TestSimulatorQueueFullDrops(t *testing.T) {
	s := newTestSimulator(WithQueueSize(1))

	if !s.Enqueue(command.Command{Key: "cmd/heater", Value: "1"}) {
		t.Fatal("first enqueue rejected")
	}
	if s.Enqueue(command.Command{Key: "cmd/heater", Value: "0"}) {
		t.Error("expected second enqueue to be dropped")
	}
}

func TestSimulatorTickScalesDt(t *testing.T) {
	s := newTestSimulator()
	ts := 5.0
	s.SetTimeScale(&ts)

	frame := s.Tick(200 * time.Millisecond)
	if frame.Dt != 1.0 {
		t.Errorf("expected dt 1.0, got %f", frame.Dt)
	}
	if frame.Readout.T != 1.0 {
		t.Errorf("expected t 1.0, got %f", frame.Readout.T)
	}
}

func TestSimulatorZeroTimeScaleFreezesClock(t *testing.T) {
	s := newTestSimulator()
	zero := 0.0
	s.SetTimeScale(&zero)

	for i := 0; i < 5; i++ {
		s.Tick(200 * time.Millisecond)
	}
	x, _ := s.Snapshot()
	if x.T != 0 {
		t.Errorf("expected frozen clock, got t=%f", x.T)
	}
}

func TestSimulatorResetFallback(t *testing.T) {
	s := newTestSimulator()
	s.Advance(1.0)

	if got := s.Reset(nil); got != 42 {
		t.Errorf("expected fallback seed 42, got %d", got)
	}
	x, _ := s.Snapshot()
	if x != bioreactor.DefaultState() {
		t.Errorf("expected default state after reset, got %+v", x)
	}

	seed := int64(7)
	if got := s.Reset(&seed); got != 7 {
		t.Errorf("expected seed 7, got %d", got)
	}
}

func TestSimulatorSetTimeScale(t *testing.T) {
	s := newTestSimulator()

	big := 120.0
	if got := s.SetTimeScale(&big); got != command.MaxTimeScale {
		t.Errorf("expected clamp to %v, got %v", command.MaxTimeScale, got)
	}
	if got := s.SetTimeScale(nil); got != command.MaxTimeScale {
		t.Errorf("expected nil to keep %v, got %v", command.MaxTimeScale, got)
	}
}

func TestSimulatorCommandHook(t *testing.T) {
	var seen []command.Target
	s := newTestSimulator(WithCommandHook(func(r command.Result) {
		seen = append(seen, r.Target)
	}))

	s.Apply("cmd/vent", "0.2")
	s.Apply("cmd/unknown", "1")
	s.Reset(nil)

	if len(seen) != 2 {
		t.Fatalf("expected 2 hook calls, got %d: %v", len(seen), seen)
	}
	if seen[0] != command.TargetVent || seen[1] != command.TargetReset {
		t.Errorf("unexpected hook targets: %v", seen)
	}
}

func TestLiveFrameJSON(t *testing.T) {
	s := newTestSimulator()
	s.Tick(200 * time.Millisecond)

	data, err := json.Marshal(s.LiveFrame())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{
		"t", "level", "temperature", "do", "ph", "agitation_rpm", "biomass", "pressure_kpa",
		"valve_in", "valve_out", "heater", "aeration", "agitation", "vent",
		"time_scale", "pressure_ext_kpa", "temperature_ext_c",
	} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q in live frame", key)
		}
	}
	if doc["pressure_ext_kpa"] != 101.3 {
		t.Errorf("expected pressure_ext_kpa 101.3, got %v", doc["pressure_ext_kpa"])
	}
}
