package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// CascadeKind tells how a cascade influences its effect risk
type CascadeKind string

const (
	// CascadeCausal transfers both probability and impact to the effect risk
	CascadeCausal CascadeKind = "causal"
	// CascadeCatalysing transfers probability only. Its cause is an emerging risk.
	CascadeCatalysing CascadeKind = "catalysing"
)

// Validate checks if the CascadeKind is a known kind
func (k CascadeKind) Validate() error {
	switch k {
	case CascadeCausal, CascadeCatalysing:
		return nil
	}
	return goerr.New("unknown cascade kind", goerr.V("kind", string(k)))
}

func (k CascadeKind) String() string {
	return string(k)
}

// TransfersImpact reports whether impact flows along cascades of this kind
func (k CascadeKind) TransfersImpact() bool {
	return k == CascadeCausal
}

// ParseCascadeKind parses a cascade kind. An empty value yields an empty kind,
// which callers resolve from the cause risk type.
func ParseCascadeKind(v string) (CascadeKind, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return "", nil
	case "causal", "cause":
		return CascadeCausal, nil
	case "catalysing", "catalyzing", "catalyst":
		return CascadeCatalysing, nil
	}
	return "", goerr.New("unknown cascade kind", goerr.V("kind", v))
}
