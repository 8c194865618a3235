package memory

import (
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
)

// ErrNotFound is returned when the requested entity does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	riskFile    *riskFileRepository
	cascade     *cascadeRepository
	calculation *calculationRepository
	run         *runRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		riskFile:    newRiskFileRepository(),
		cascade:     newCascadeRepository(),
		calculation: newCalculationRepository(),
		run:         newRunRepository(),
	}
}

func (m *Memory) RiskFile() interfaces.RiskFileRepository {
	return m.riskFile
}

func (m *Memory) Cascade() interfaces.CascadeRepository {
	return m.cascade
}

func (m *Memory) Calculation() interfaces.CalculationRepository {
	return m.calculation
}

func (m *Memory) Run() interfaces.RunRepository {
	return m.run
}

func (m *Memory) Close() error {
	return nil
}
