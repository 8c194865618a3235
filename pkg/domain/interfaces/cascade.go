package interfaces

import (
	"context"

	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// CascadeRepository stores cascades between risk files with their expert analyses
type CascadeRepository interface {
	// Put creates or replaces a cascade. CreatedAt of an existing cascade is kept.
	Put(ctx context.Context, c *model.Cascade) (*model.Cascade, error)

	// Get retrieves a cascade by ID
	Get(ctx context.Context, id types.CascadeID) (*model.Cascade, error)

	// List retrieves all cascades ordered by ID
	List(ctx context.Context) ([]*model.Cascade, error)

	// ListByEffect retrieves the cascades into one risk file ordered by ID
	ListByEffect(ctx context.Context, effectID types.RiskFileID) ([]*model.Cascade, error)

	// Delete deletes a cascade by ID
	Delete(ctx context.Context, id types.CascadeID) error
}
