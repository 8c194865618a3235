package interfaces

import (
	"context"

	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// RiskFileRepository stores the hazards of the catalogue
type RiskFileRepository interface {
	// Put creates or replaces a risk file. CreatedAt of an existing risk file is kept.
	Put(ctx context.Context, file *model.RiskFile) (*model.RiskFile, error)

	// Get retrieves a risk file by ID
	Get(ctx context.Context, id types.RiskFileID) (*model.RiskFile, error)

	// List retrieves all risk files ordered by ID
	List(ctx context.Context) ([]*model.RiskFile, error)

	// Delete deletes a risk file by ID
	Delete(ctx context.Context, id types.RiskFileID) error
}
