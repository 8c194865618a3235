package cascade

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors of the aggregation. All of them abort the whole run: the
// catalogue is inconsistent and reports must not show partially-wrong numbers.
var (
	// ErrInvalidGraphReference is returned when a cascade refers to a risk file
	// that is not part of the snapshot
	ErrInvalidGraphReference = goerr.New("cascade refers to unknown risk file")
	// ErrInvalidCascade is returned for self cascades, duplicated cascades and
	// cascades of an unknown kind
	ErrInvalidCascade = goerr.New("invalid cascade")
	// ErrDuplicateRiskFile is returned when two risk files share an ID
	ErrDuplicateRiskFile = goerr.New("duplicate risk file")
	// ErrInvalidRiskFile is returned when a risk file cannot be identified
	ErrInvalidRiskFile = goerr.New("invalid risk file")
)

// Context keys for error values
const (
	RiskIDKey    = "risk_id"
	CascadeIDKey = "cascade_id"
	CauseIDKey   = "cause_id"
	EffectIDKey  = "effect_id"
)
