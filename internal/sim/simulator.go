package sim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
)

const defaultQueueSize = 256

// Simulator is the single shared reactor session of the process. It owns
// the engine, the configured seed and the time-scale multiplier.
type Simulator struct {
	mu        sync.Mutex
	engine    *bioreactor.Engine
	seed      int64
	timeScale float64
	queue     chan command.Command
	hooks     []func(command.Result)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithCommandHook registers fn to be called, under the session lock, after
// every applied command.
func WithCommandHook(fn func(command.Result)) Option {
	return func(s *Simulator) { s.hooks = append(s.hooks, fn) }
}

// WithQueueSize sets how many asynchronous commands may wait for the next tick.
func WithQueueSize(n int) Option {
	return func(s *Simulator) { s.queue = make(chan command.Command, n) }
}

// New wraps engine. seed is the fallback for resets without a valid seed.
func New(engine *bioreactor.Engine, seed int64, timeScale float64, opts ...Option) *Simulator {
	s := &Simulator{
		engine:    engine,
		seed:      seed,
		timeScale: command.ClampTimeScale(timeScale),
		queue:     make(chan command.Command, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply executes a command immediately.
func (s *Simulator) Apply(key, value string) command.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(command.Command{Key: key, Value: value})
}

// Enqueue queues a command for the start of the next tick. It never blocks;
// it reports false when the queue is full and the command was dropped.
func (s *Simulator) Enqueue(c command.Command) bool {
	select {
	case s.queue <- c:
		return true
	default:
		slog.Warn("Command queue full, dropping command", "key", c.Key)
		return false
	}
}

// Tick drains queued commands, advances the engine by interval scaled by the
// time-scale and returns the resulting frame.
func (s *Simulator) Tick(interval time.Duration) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.drain()
	dt := interval.Seconds() * s.timeScale

	start := time.Now()
	s.engine.Step(dt)
	elapsed := time.Since(start)

	return Frame{
		Readout:   s.engine.Readout(false),
		Actuators: s.engine.Actuators(),
		TimeScale: s.timeScale,
		Dt:        dt,
		Elapsed:   elapsed,
		Applied:   applied,
	}
}

// Advance drains queued commands and steps the engine by exactly dt seconds,
// ignoring the time-scale.
func (s *Simulator) Advance(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()
	s.engine.Step(dt)
}

// Readout returns the rounded process state.
func (s *Simulator) Readout(includeActuators bool) bioreactor.Readout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Readout(includeActuators)
}

// Actuators returns the rounded actuator commands.
func (s *Simulator) Actuators() bioreactor.Actuators {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Actuators()
}

// Snapshot returns unrounded copies of the state and inputs.
func (s *Simulator) Snapshot() (bioreactor.State, bioreactor.Inputs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State(), *s.engine.Inputs()
}

// LiveFrame returns the document streamed to live clients.
func (s *Simulator) LiveFrame() LiveFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.engine.Params()
	return LiveFrame{
		Readout:         s.engine.Readout(true),
		TimeScale:       s.timeScale,
		PressureExtKPa:  p.PAtm,
		TemperatureExtC: p.TAmb,
	}
}

// Reset starts a fresh session. A nil seed uses the configured one. It
// returns the seed applied.
func (s *Simulator) Reset(seed *int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.seed
	if seed != nil {
		v = *seed
	}
	s.engine.Reset(v)
	s.notify(command.Result{Target: command.TargetReset, Value: float64(v)})
	return v
}

// SetTimeScale clamps and stores a new time-scale. A nil value keeps the
// current one. It returns the value applied.
func (s *Simulator) SetTimeScale(v *float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.timeScale
	if v != nil {
		ts = *v
	}
	s.timeScale = command.ClampTimeScale(ts)
	s.notify(command.Result{Target: command.TargetTimeScale, Value: s.timeScale})
	return s.timeScale
}

// TimeScale returns the current simulation speed multiplier.
func (s *Simulator) TimeScale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeScale
}

// DefaultSeed returns the configured reset seed.
func (s *Simulator) DefaultSeed() int64 {
	return s.seed
}

// Params returns the reactor constants.
func (s *Simulator) Params() bioreactor.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Params()
}

func (s *Simulator) drain() int {
	n := 0
	for {
		select {
		case c := <-s.queue:
			s.apply(c)
			n++
		default:
			return n
		}
	}
}

func (s *Simulator) apply(c command.Command) command.Result {
	res := command.Apply(session{s}, c)
	if res.Target == command.TargetNone {
		slog.Debug("Ignoring unknown command", "key", c.Key)
		return res
	}
	s.notify(res)
	return res
}

func (s *Simulator) notify(res command.Result) {
	for _, fn := range s.hooks {
		fn(res)
	}
}

// session exposes the simulator to command.Apply while the lock is held.
type session struct{ s *Simulator }

func (ss session) Inputs() *bioreactor.Inputs { return ss.s.engine.Inputs() }
func (ss session) Reset(seed int64)           { ss.s.engine.Reset(seed) }
func (ss session) DefaultSeed() int64         { return ss.s.seed }
func (ss session) TimeScale() float64         { return ss.s.timeScale }
func (ss session) SetTimeScale(ts float64)    { ss.s.timeScale = ts }
