package interfaces

import (
	"context"

	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// CalculationRepository stores the calculations of the latest aggregation run
type CalculationRepository interface {
	// ReplaceAll replaces every stored calculation with the ones of the given run
	ReplaceAll(ctx context.Context, runID types.RunID, calcs []*model.RiskCalculation) error

	// Get retrieves the calculation of a risk file
	Get(ctx context.Context, id types.RiskFileID) (*model.RiskCalculation, error)

	// List retrieves all calculations ordered by risk file ID
	List(ctx context.Context) ([]*model.RiskCalculation, error)
}

// RunRepository stores the metadata of aggregation runs
type RunRepository interface {
	Put(ctx context.Context, run *model.Run) error
	Get(ctx context.Context, id types.RunID) (*model.Run, error)

	// Latest returns the run started last
	Latest(ctx context.Context) (*model.Run, error)
}
