package command_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
)

type fakeSession struct {
	engine      *bioreactor.Engine
	defaultSeed int64
	timeScale   float64
	resets      []int64
}

func newFakeSession() *fakeSession {
	return &fakeSession{engine: bioreactor.New(42), defaultSeed: 42, timeScale: 1.0}
}

func (f *fakeSession) Inputs() *bioreactor.Inputs { return f.engine.Inputs() }
func (f *fakeSession) DefaultSeed() int64         { return f.defaultSeed }
func (f *fakeSession) TimeScale() float64         { return f.timeScale }
func (f *fakeSession) SetTimeScale(ts float64)    { f.timeScale = ts }
func (f *fakeSession) Reset(seed int64) {
	f.resets = append(f.resets, seed)
	f.engine.Reset(seed)
}

var _ = Describe("Resolve", func() {
	DescribeTable("maps keys to targets",
		func(key string, want command.Target) {
			Expect(command.Resolve(key)).To(Equal(want))
		},
		Entry("sim reset", "bioreactor/simCmd/reset", command.TargetReset),
		Entry("legacy reset", "bioreactor/cmd/reset", command.TargetReset),
		Entry("time scale", "bioreactor/simCmd/time_scale", command.TargetTimeScale),
		Entry("bare actuator", "heater", command.TargetHeater),
		Entry("valve in", "bioreactor/cmd/valve_in", command.TargetValveIn),
		Entry("valve out", "bioreactor/cmd/valve_out", command.TargetValveOut),
		Entry("aeration", "bioreactor/cmd/aeration", command.TargetAeration),
		Entry("agitation", "bioreactor/cmd/agitation", command.TargetAgitation),
		Entry("vent", "bioreactor/cmd/vent", command.TargetVent),
		Entry("partial segment", "bioreactor/cmd/prevent", command.TargetNone),
		Entry("unknown", "bioreactor/cmd/stirrer", command.TargetNone),
		Entry("empty", "", command.TargetNone),
	)
})

var _ = Describe("Apply", func() {
	var s *fakeSession

	BeforeEach(func() {
		s = newFakeSession()
	})

	Context("valves", func() {
		DescribeTable("parse switch words",
			func(value string, want bool) {
				command.Apply(s, command.Command{Key: "bioreactor/cmd/valve_in", Value: value})
				Expect(s.Inputs().ValveIn).To(Equal(want))
			},
			Entry("1", "1", true),
			Entry("ON", " ON ", true),
			Entry("true", "True", true),
			Entry("yes", "yes", true),
			Entry("0", "0", false),
			Entry("off", "off", false),
			Entry("2", "2", false),
			Entry("garbage", "maybe", false),
		)

		It("closes the outlet", func() {
			res := command.Apply(s, command.Command{Key: "bioreactor/cmd/valve_out", Value: "off"})
			Expect(s.Inputs().ValveOut).To(BeFalse())
			Expect(res).To(Equal(command.Result{Target: command.TargetValveOut, Value: 0}))
		})
	})

	Context("continuous actuators", func() {
		It("clamps values above one", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/heater", Value: "2.5"})
			Expect(s.engine.Actuators().Heater).To(Equal(1.0))
		})

		It("clamps negative values to zero", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/vent", Value: "-3"})
			Expect(s.Inputs().Vent).To(Equal(0.0))
		})

		It("keeps the previous value for garbage", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/heater", Value: "0.4"})
			res := command.Apply(s, command.Command{Key: "bioreactor/cmd/heater", Value: "garbage"})
			Expect(s.Inputs().Heater).To(Equal(0.4))
			Expect(res.Value).To(Equal(0.4))
		})

		It("clamps infinities", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/heater", Value: "inf"})
			Expect(s.Inputs().Heater).To(Equal(1.0))
			command.Apply(s, command.Command{Key: "bioreactor/cmd/heater", Value: "-inf"})
			Expect(s.Inputs().Heater).To(Equal(0.0))
		})

		It("treats hexadecimal floats as garbage", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/vent", Value: "0x1p-2"})
			Expect(s.Inputs().Vent).To(Equal(bioreactor.DefaultInputs().Vent))
		})

		It("treats NaN as garbage", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/aeration", Value: "NaN"})
			Expect(s.Inputs().Aeration).To(Equal(bioreactor.DefaultInputs().Aeration))
		})

		DescribeTable("word forms",
			func(value string, want float64) {
				command.Apply(s, command.Command{Key: "bioreactor/cmd/agitation", Value: value})
				Expect(s.Inputs().Agitation).To(Equal(want))
			},
			Entry("on", "on", 1.0),
			Entry("TRUE", "TRUE", 1.0),
			Entry("yes", "yes", 1.0),
			Entry("off", "off", 0.0),
			Entry("false", "false", 0.0),
			Entry("no", " no", 0.0),
			Entry("fraction", "0.25", 0.25),
		)
	})

	Context("simulation control", func() {
		It("resets with the given seed", func() {
			s.Inputs().Heater = 1
			res := command.Apply(s, command.Command{Key: "bioreactor/simCmd/reset", Value: "7"})
			Expect(s.resets).To(Equal([]int64{7}))
			Expect(res.Value).To(Equal(7.0))
			Expect(*s.Inputs()).To(Equal(bioreactor.DefaultInputs()))
		})

		It("falls back to the configured seed", func() {
			command.Apply(s, command.Command{Key: "bioreactor/cmd/reset", Value: "soon"})
			Expect(s.resets).To(Equal([]int64{42}))
		})

		It("clamps the time scale", func() {
			command.Apply(s, command.Command{Key: "bioreactor/simCmd/time_scale", Value: "100"})
			Expect(s.timeScale).To(Equal(50.0))
		})

		It("keeps the time scale on garbage", func() {
			s.timeScale = 3
			command.Apply(s, command.Command{Key: "bioreactor/simCmd/time_scale", Value: "fast"})
			Expect(s.timeScale).To(Equal(3.0))
		})

		It("allows pausing", func() {
			command.Apply(s, command.Command{Key: "bioreactor/simCmd/time_scale", Value: "-1"})
			Expect(s.timeScale).To(Equal(0.0))
		})
	})

	It("ignores unknown keys", func() {
		before := *s.Inputs()
		res := command.Apply(s, command.Command{Key: "bioreactor/cmd/lights", Value: "on"})
		Expect(res.Target).To(Equal(command.TargetNone))
		Expect(*s.Inputs()).To(Equal(before))
		Expect(s.resets).To(BeEmpty())
	})

	It("never touches the process state", func() {
		before := s.engine.State()
		command.Apply(s, command.Command{Key: "heater", Value: "1"})
		command.Apply(s, command.Command{Key: "valve_in", Value: "1"})
		Expect(s.engine.State()).To(Equal(before))
	})
})

var _ = Describe("ParseTimeScale", func() {
	It("parses and clamps", func() {
		Expect(command.ParseTimeScale(" 2.5 ", 1)).To(Equal(2.5))
		Expect(command.ParseTimeScale("1e9", 1)).To(Equal(command.MaxTimeScale))
		Expect(command.ParseTimeScale("garbage", 4)).To(Equal(4.0))
	})

	It("clamps infinities to the ends of the range", func() {
		Expect(command.ParseTimeScale("inf", 4)).To(Equal(command.MaxTimeScale))
		Expect(command.ParseTimeScale("-Infinity", 4)).To(Equal(0.0))
	})

	It("rejects hexadecimal floats", func() {
		Expect(command.ParseTimeScale("0x1p-2", 4)).To(Equal(4.0))
	})
})
