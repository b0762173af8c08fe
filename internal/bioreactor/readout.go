package bioreactor

import "math"

// Field names a published process variable by its external key.
type Field string

const (
	FieldTime         Field = "t"
	FieldLevel        Field = "level"
	FieldTemperature  Field = "temperature"
	FieldDO           Field = "do"
	FieldPH           Field = "ph"
	FieldAgitationRPM Field = "agitation_rpm"
	FieldBiomass      Field = "biomass"
	FieldPressure     Field = "pressure_kpa"
)

// SensorFields lists the sensor keys in publication order.
var SensorFields = []Field{
	FieldLevel,
	FieldTemperature,
	FieldDO,
	FieldPH,
	FieldAgitationRPM,
	FieldBiomass,
	FieldPressure,
}

// ParseField resolves an external key to a Field.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if f == FieldTime {
		return f, nil
	}
	for _, s := range SensorFields {
		if s == f {
			return f, nil
		}
	}
	return "", ErrUnknownField
}

// Value returns the unrounded value of f.
func (x State) Value(f Field) (float64, bool) {
	switch f {
	case FieldTime:
		return x.T, true
	case FieldLevel:
		return x.Level, true
	case FieldTemperature:
		return x.Temp, true
	case FieldDO:
		return x.OD, true
	case FieldPH:
		return x.PH, true
	case FieldAgitationRPM:
		return x.AgitationRPM, true
	case FieldBiomass:
		return x.X, true
	case FieldPressure:
		return x.PressureKPa, true
	}
	return 0, false
}

// Reading is one published key/value pair.
type Reading struct {
	Key   string
	Value float64
}

// Actuators is the published projection of Inputs.
type Actuators struct {
	ValveIn   int     `json:"valve_in"`
	ValveOut  int     `json:"valve_out"`
	Heater    float64 `json:"heater"`
	Aeration  float64 `json:"aeration"`
	Agitation float64 `json:"agitation"`
	Vent      float64 `json:"vent"`
}

// Readings returns the actuator values in publication order.
func (a Actuators) Readings() []Reading {
	return []Reading{
		{"valve_in", float64(a.ValveIn)},
		{"valve_out", float64(a.ValveOut)},
		{"heater", a.Heater},
		{"aeration", a.Aeration},
		{"agitation", a.Agitation},
		{"vent", a.Vent},
	}
}

// Readout is the published projection of State. When built with actuators
// the embedded Actuators are flattened into the same JSON object.
type Readout struct {
	T            float64 `json:"t"`
	Level        float64 `json:"level"`
	Temperature  float64 `json:"temperature"`
	DO           float64 `json:"do"`
	PH           float64 `json:"ph"`
	AgitationRPM float64 `json:"agitation_rpm"`
	Biomass      float64 `json:"biomass"`
	PressureKPa  float64 `json:"pressure_kpa"`

	*Actuators
}

// Sensors returns the sensor values in publication order. The clock is not
// a sensor.
func (r Readout) Sensors() []Reading {
	return []Reading{
		{string(FieldLevel), r.Level},
		{string(FieldTemperature), r.Temperature},
		{string(FieldDO), r.DO},
		{string(FieldPH), r.PH},
		{string(FieldAgitationRPM), r.AgitationRPM},
		{string(FieldBiomass), r.Biomass},
		{string(FieldPressure), r.PressureKPa},
	}
}

// SensorMap returns the sensor values keyed by name, the aggregate payload
// published on the combined state topic.
func (r Readout) SensorMap() map[string]float64 {
	m := make(map[string]float64, len(SensorFields))
	for _, s := range r.Sensors() {
		m[s.Key] = s.Value
	}
	return m
}

// Actuators returns the current Inputs rounded for publication.
func (e *Engine) Actuators() Actuators {
	return actuatorsOf(e.u)
}

// Readout returns the current State rounded for publication, optionally
// merged with the actuators.
func (e *Engine) Readout(includeActuators bool) Readout {
	r := readoutOf(e.x)
	if includeActuators {
		a := e.Actuators()
		r.Actuators = &a
	}
	return r
}

func readoutOf(x State) Readout {
	return Readout{
		T:            Round(x.T, 2),
		Level:        Round(x.Level, 1),
		Temperature:  Round(x.Temp, 2),
		DO:           Round(x.OD, 1),
		PH:           Round(x.PH, 2),
		AgitationRPM: Round(x.AgitationRPM, 0),
		Biomass:      Round(x.X, 3),
		PressureKPa:  Round(x.PressureKPa, 1),
	}
}

func actuatorsOf(u Inputs) Actuators {
	return Actuators{
		ValveIn:   boolInt(u.ValveIn),
		ValveOut:  boolInt(u.ValveOut),
		Heater:    Round(u.Heater, 3),
		Aeration:  Round(u.Aeration, 3),
		Agitation: Round(u.Agitation, 3),
		Vent:      Round(u.Vent, 3),
	}
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
