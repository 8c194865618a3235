package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/service/cascade"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

type CatalogueUseCase struct {
	repo interfaces.Repository
}

// Snapshot reads the stored catalogue. Risk files and cascades are ordered by
// ID, which makes repeated runs over an unchanged catalogue identical.
func (uc *CatalogueUseCase) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	files, err := uc.repo.RiskFile().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risk files")
	}
	cascades, err := uc.repo.Cascade().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cascades")
	}
	return &model.Snapshot{RiskFiles: files, Cascades: cascades}, nil
}

// ImportResult summarizes an import
type ImportResult struct {
	RiskFiles        int
	Cascades         int
	DeletedRiskFiles int
	DeletedCascades  int
}

// Import stores the risk files and cascades of a snapshot. The snapshot must
// be a consistent catalogue on its own. With prune, stored risk files and
// cascades missing from the snapshot are deleted.
func (uc *CatalogueUseCase) Import(ctx context.Context, snapshot *model.Snapshot, prune bool) (*ImportResult, error) {
	if _, err := cascade.Cycles(snapshot); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshot, err.Error())
	}

	result := &ImportResult{}
	files := make(map[types.RiskFileID]bool, len(snapshot.RiskFiles))
	for _, f := range snapshot.RiskFiles {
		if _, err := uc.repo.RiskFile().Put(ctx, f); err != nil {
			return nil, goerr.Wrap(err, "failed to put risk file", goerr.V(RiskIDKey, f.ID))
		}
		files[f.ID] = true
		result.RiskFiles++
	}

	cascades := make(map[types.CascadeID]bool, len(snapshot.Cascades))
	for _, c := range snapshot.Cascades {
		if _, err := uc.repo.Cascade().Put(ctx, c); err != nil {
			return nil, goerr.Wrap(err, "failed to put cascade", goerr.V("cascade_id", c.ID))
		}
		cascades[c.ID] = true
		result.Cascades++
	}

	if prune {
		stored, err := uc.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range stored.Cascades {
			if cascades[c.ID] {
				continue
			}
			if err := uc.repo.Cascade().Delete(ctx, c.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
				return nil, goerr.Wrap(err, "failed to delete cascade", goerr.V("cascade_id", c.ID))
			}
			result.DeletedCascades++
		}
		for _, f := range stored.RiskFiles {
			if files[f.ID] {
				continue
			}
			if err := uc.repo.RiskFile().Delete(ctx, f.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
				return nil, goerr.Wrap(err, "failed to delete risk file", goerr.V(RiskIDKey, f.ID))
			}
			result.DeletedRiskFiles++
		}
	}

	logging.From(ctx).Info("Catalogue imported",
		"risk_files", result.RiskFiles,
		"cascades", result.Cascades,
		"deleted_risk_files", result.DeletedRiskFiles,
		"deleted_cascades", result.DeletedCascades,
	)
	return result, nil
}

// Severity of a validation issue
type Severity string

const (
	// SeverityError blocks aggregation
	SeverityError Severity = "error"
	// SeverityWarning is aggregated with a documented fallback, e.g. a broken cycle
	SeverityWarning Severity = "warning"
	// SeverityInfo is a raw value that was defaulted or clamped
	SeverityInfo Severity = "info"
)

// ValidationIssue represents a single issue found in the catalogue
type ValidationIssue struct {
	Severity  Severity
	RiskID    types.RiskFileID
	CascadeID types.CascadeID
	Field     string
	Message   string
}

// ValidationResult holds the results of catalogue validation
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// HasErrors returns true if an issue blocks aggregation
func (r *ValidationResult) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// Validate checks the stored catalogue without modifying anything
func (uc *CatalogueUseCase) Validate(ctx context.Context) (*ValidationResult, error) {
	snapshot, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ValidateSnapshot(snapshot), nil
}

// ValidateSnapshot reports what would block or alter the aggregation of a
// catalogue: invalid references and duplicated cascades, cycles, and raw
// values that are defaulted or clamped.
func ValidateSnapshot(snapshot *model.Snapshot) *ValidationResult {
	result := &ValidationResult{}

	for _, f := range snapshot.RiskFiles {
		if f == nil {
			continue
		}
		if err := f.Validate(); err != nil {
			result.AddIssue(ValidationIssue{Severity: SeverityError, RiskID: f.ID, Message: err.Error()})
		}
	}
	for _, c := range snapshot.Cascades {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			result.AddIssue(ValidationIssue{Severity: SeverityError, CascadeID: c.ID, Message: err.Error()})
		}
	}

	cycles, err := cascade.Cycles(snapshot)
	if err != nil {
		issue := ValidationIssue{Severity: SeverityError, Message: err.Error()}
		var ge *goerr.Error
		if errors.As(err, &ge) {
			values := ge.Values()
			if v, ok := values[cascade.CascadeIDKey].(types.CascadeID); ok {
				issue.CascadeID = v
			}
			if v, ok := values[cascade.RiskIDKey].(types.RiskFileID); ok {
				issue.RiskID = v
			}
		}
		result.AddIssue(issue)
		return result
	}
	for _, cycle := range cycles {
		result.AddIssue(ValidationIssue{
			Severity: SeverityWarning,
			RiskID:   cycle[0],
			Message:  fmt.Sprintf("risk files depend on each other: %v", cycle),
		})
	}

	aggregated, err := cascade.Aggregate(snapshot)
	if err != nil {
		result.AddIssue(ValidationIssue{Severity: SeverityError, Message: err.Error()})
		return result
	}
	for _, d := range aggregated.Diagnostics {
		msg := string(d.Reason)
		if d.Raw != "" {
			msg = fmt.Sprintf("%s: %q", d.Reason, d.Raw)
		}
		result.AddIssue(ValidationIssue{
			Severity:  SeverityInfo,
			RiskID:    d.RiskID,
			CascadeID: d.CascadeID,
			Field:     d.Field,
			Message:   msg,
		})
	}

	return result
}
