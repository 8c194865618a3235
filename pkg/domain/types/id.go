package types

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// RiskFileID identifies a risk file (hazard) in the catalogue
type RiskFileID string

// Validate checks if the RiskFileID can be used as a document key
func (id RiskFileID) Validate() error {
	return validateKey("risk file ID", string(id))
}

// String returns the string representation of RiskFileID
func (id RiskFileID) String() string {
	return string(id)
}

// CascadeID identifies a cascade between two risk files
type CascadeID string

// Validate checks if the CascadeID can be used as a document key
func (id CascadeID) Validate() error {
	return validateKey("cascade ID", string(id))
}

// String returns the string representation of CascadeID
func (id CascadeID) String() string {
	return string(id)
}

// RunID identifies one aggregation run
type RunID string

// NewRunID generates a new time-ordered run ID
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// Validate checks if the RunID is a valid UUID
func (id RunID) Validate() error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(err, "invalid run ID", goerr.V("id", string(id)))
	}
	return nil
}

// String returns the string representation of RunID
func (id RunID) String() string {
	return string(id)
}

func validateKey(kind, v string) error {
	if v == "" {
		return goerr.New(kind + " cannot be empty")
	}
	if strings.Contains(v, "/") {
		return goerr.New(kind+" must not contain '/'", goerr.V("id", v))
	}
	return nil
}
