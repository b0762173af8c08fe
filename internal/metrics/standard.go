package metrics

import (
	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

// Standard returns the metrics recorded for every batch run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewMean(bioreactor.FieldTemperature),
		NewMean(bioreactor.FieldDO),
		NewMean(bioreactor.FieldPressure),
		NewRange(bioreactor.FieldLevel),
		NewRange(bioreactor.FieldPH),
		NewClampTime(bioreactor.FieldLevel, bioreactor.LevelMin, bioreactor.LevelMax),
		NewClampTime(bioreactor.FieldDO, bioreactor.ODMin, bioreactor.ODMax),
		NewActuatorEffort(),
	}
}
