package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DamageIndicator is one of the ten damage indicators an impact is estimated for
type DamageIndicator int

const (
	IndicatorHa DamageIndicator = iota
	IndicatorHb
	IndicatorHc
	IndicatorSa
	IndicatorSb
	IndicatorSc
	IndicatorSd
	IndicatorEa
	IndicatorFa
	IndicatorFb
)

// IndicatorCount is the number of damage indicators
const IndicatorCount = 10

// Indicators lists all damage indicators in canonical order
var Indicators = [IndicatorCount]DamageIndicator{
	IndicatorHa, IndicatorHb, IndicatorHc,
	IndicatorSa, IndicatorSb, IndicatorSc, IndicatorSd,
	IndicatorEa,
	IndicatorFa, IndicatorFb,
}

var indicatorCodes = [IndicatorCount]string{"Ha", "Hb", "Hc", "Sa", "Sb", "Sc", "Sd", "Ea", "Fa", "Fb"}

var indicatorNames = [IndicatorCount]string{
	"Fatalities",
	"Injured and sick people",
	"People in need of assistance",
	"Supply shortfalls and unmet human needs",
	"Diminished integrity of the Belgian territory",
	"Damage to the reputation of Belgium",
	"Loss of confidence in or functioning of the state",
	"Damaged ecosystems",
	"Financial asset damages",
	"Reduction of economic performance",
}

// Validate checks if the DamageIndicator is one of the known indicators
func (k DamageIndicator) Validate() error {
	if k < IndicatorHa || k > IndicatorFb {
		return goerr.New("unknown damage indicator", goerr.V("indicator", int(k)))
	}
	return nil
}

// Code returns the two-letter code of the indicator, e.g. "Ha"
func (k DamageIndicator) Code() string {
	if k.Validate() != nil {
		return "??"
	}
	return indicatorCodes[k]
}

// Name returns the human readable name of the indicator
func (k DamageIndicator) Name() string {
	if k.Validate() != nil {
		return "Unknown"
	}
	return indicatorNames[k]
}

// String returns the two-letter code of the indicator
func (k DamageIndicator) String() string {
	return k.Code()
}

// Category returns the damage category the indicator belongs to
func (k DamageIndicator) Category() DamageCategory {
	switch k {
	case IndicatorHa, IndicatorHb, IndicatorHc:
		return CategoryHuman
	case IndicatorSa, IndicatorSb, IndicatorSc, IndicatorSd:
		return CategorySocietal
	case IndicatorEa:
		return CategoryEnvironmental
	default:
		return CategoryFinancial
	}
}

// ParseIndicator parses an indicator code. Matching is case-insensitive so that
// stored field names such as "di_quanti_ha_c" can be mapped back.
func ParseIndicator(code string) (DamageIndicator, error) {
	code = strings.TrimSpace(code)
	for _, k := range Indicators {
		if strings.EqualFold(code, indicatorCodes[k]) {
			return k, nil
		}
	}
	return 0, goerr.New("unknown damage indicator", goerr.V("indicator", code))
}

// DamageCategory groups damage indicators
type DamageCategory int

const (
	CategoryHuman DamageCategory = iota
	CategorySocietal
	CategoryEnvironmental
	CategoryFinancial
)

// CategoryCount is the number of damage categories
const CategoryCount = 4

// Categories lists all damage categories
var Categories = [CategoryCount]DamageCategory{CategoryHuman, CategorySocietal, CategoryEnvironmental, CategoryFinancial}

var categoryCodes = [CategoryCount]string{"H", "S", "E", "F"}
var categoryNames = [CategoryCount]string{"Human Impact", "Societal Impact", "Environmental Impact", "Financial Impact"}

// Code returns the single-letter code of the category
func (c DamageCategory) Code() string {
	if c < CategoryHuman || c > CategoryFinancial {
		return "?"
	}
	return categoryCodes[c]
}

// Name returns the human readable name of the category
func (c DamageCategory) Name() string {
	if c < CategoryHuman || c > CategoryFinancial {
		return "Unknown"
	}
	return categoryNames[c]
}

func (c DamageCategory) String() string {
	return c.Code()
}

// Indicators returns the indicators that belong to the category
func (c DamageCategory) Indicators() []DamageIndicator {
	var result []DamageIndicator
	for _, k := range Indicators {
		if k.Category() == c {
			result = append(result, k)
		}
	}
	return result
}
