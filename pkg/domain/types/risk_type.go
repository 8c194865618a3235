package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// RiskType classifies a risk file
type RiskType string

const (
	RiskTypeStandard  RiskType = "Standard"
	RiskTypeMalicious RiskType = "Malicious Man-made"
	RiskTypeEmerging  RiskType = "Emerging"
)

// Validate checks if the RiskType is a known type
func (t RiskType) Validate() error {
	switch t {
	case RiskTypeStandard, RiskTypeMalicious, RiskTypeEmerging:
		return nil
	}
	return goerr.New("unknown risk type", goerr.V("risk_type", string(t)))
}

// String returns the string representation of RiskType
func (t RiskType) String() string {
	return string(t)
}

// IsEmerging reports whether the risk is an emerging risk. Emerging risks have no
// direct probability and act on other risks as catalysts.
func (t RiskType) IsEmerging() bool {
	return t == RiskTypeEmerging
}

// ParseRiskType accepts both the short form ("Emerging") and the stored label
// ("Emerging Risk").
func ParseRiskType(v string) (RiskType, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	s = strings.TrimSuffix(s, " risk")
	switch s {
	case "standard":
		return RiskTypeStandard, nil
	case "malicious man-made", "malicious man made", "malicious":
		return RiskTypeMalicious, nil
	case "emerging":
		return RiskTypeEmerging, nil
	}
	return "", goerr.New("unknown risk type", goerr.V("risk_type", v))
}
