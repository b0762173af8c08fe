package bioreactor

// State is the set of physical process variables at the current simulation time.
type State struct {
	T            float64 // simulation clock [s]
	Level        float64 // tank fill [%]
	Temp         float64 // broth temperature [°C]
	OD           float64 // dissolved oxygen [% saturation]
	PH           float64
	AgitationRPM float64 // agitator speed [rpm]
	X            float64 // biomass concentration [g/L]
	PressureKPa  float64 // headspace pressure [kPa]
}

// DefaultState returns the state a fresh or reset engine starts from.
func DefaultState() State {
	return State{
		T:            0.0,
		Level:        50.0,
		Temp:         30.0,
		OD:           60.0,
		PH:           6.8,
		AgitationRPM: 200.0,
		X:            0.5,
		PressureKPa:  101.3,
	}
}

// Inputs holds the actuator commands currently in effect.
// ValveIn and ValveOut are on/off; the rest are fractions in [0,1].
type Inputs struct {
	ValveIn   bool
	ValveOut  bool
	Heater    float64
	Aeration  float64
	Agitation float64
	Vent      float64
}

// DefaultInputs returns the actuator settings of a fresh or reset engine.
func DefaultInputs() Inputs {
	return Inputs{
		ValveIn:   false,
		ValveOut:  true,
		Heater:    0.0,
		Aeration:  0.3,
		Agitation: 0.5,
		Vent:      0.5,
	}
}

// Params are the physical constants of one reactor. They never change after
// the engine is built; Reset keeps them.
type Params struct {
	Area    float64 // tank cross-section [m²]
	QinMax  float64 // inlet flow with the valve open [m³/s]
	QoutMax float64 // outlet flow with the valve open [m³/s]

	Cp    float64 // effective heat capacity
	KLoss float64 // heat loss coefficient [1/s]
	PHeat float64 // heater power at full duty [kW]
	TAmb  float64 // ambient temperature [°C]
	ODSat float64 // dissolved oxygen at saturation [%]
	KLa0  float64 // base oxygen transfer coefficient [1/s]
	PAtm  float64 // atmospheric pressure [kPa]
	KPIn  float64 // pressure gain from aeration [kPa/s]
	KPOut float64 // vent relief gain [1/s]
	KPGen float64 // pressure gain from biomass off-gas [kPa/s per g/L]
	PMin  float64 // lower pressure bound [kPa]
	PMax  float64 // upper pressure bound [kPa]
}

// DefaultParams returns the illustrative reactor constants.
func DefaultParams() Params {
	return Params{
		Area:    0.05,
		QinMax:  0.001,
		QoutMax: 0.001,
		Cp:      1.5,
		KLoss:   0.05,
		PHeat:   5.0,
		TAmb:    25.0,
		ODSat:   100.0,
		KLa0:    0.2,
		PAtm:    101.3,
		KPIn:    2.0,
		KPOut:   5.0,
		KPGen:   0.2,
		PMin:    95.0,
		PMax:    200.0,
	}
}

// Model constants that are not part of Params.
const (
	LevelScale = 10.0 // converts the volume balance to percent of useful height

	PHSetpoint   = 6.8
	PHRelaxation = 0.02
	PHNoise      = 0.01

	O2Uptake = 0.03 // oxygen uptake per unit biomass

	GrowthRate = 0.08 // mu [1/s]
	XMax       = 5.0  // carrying capacity [g/L]

	RPMBase  = 100.0
	RPMRange = 600.0

	TempSensorNoise = 0.02
	ODSensorNoise   = 0.1
)

// Bounds of the clamped process variables.
const (
	LevelMin = 0.0
	LevelMax = 100.0
	ODMin    = 0.0
	ODMax    = 150.0
	PHMin    = 5.5
	PHMax    = 8.5
)
