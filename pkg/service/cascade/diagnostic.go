package cascade

import "github.com/secmon-lab/bnra/pkg/domain/types"

// Reason explains why a raw value was not taken as entered
type Reason string

const (
	ReasonUnparseable     Reason = "unparseable"
	ReasonNegative        Reason = "negative value clamped to 0"
	ReasonAboveOne        Reason = "probability clamped to 1"
	ReasonEmergingDirect  Reason = "direct probability ignored for emerging risk"
	ReasonKindMismatch    Reason = "cascade kind does not match risk type of cause"
	ReasonUnknownAnalysis Reason = "cascade has no analysis"
	ReasonAmbiguousComma  Reason = "comma read as decimal separator, may be a thousands separator"
)

// Diagnostic reports a raw input that was defaulted or clamped. Diagnostics are
// never errors, incomplete expert input is expected during validation.
type Diagnostic struct {
	RiskID    types.RiskFileID
	CascadeID types.CascadeID
	Field     string
	Raw       string
	Reason    Reason
}
