package types

// Prefixes of the calculated fields. They are part of the public contract of a
// risk calculation, reporting views key off these names.
const (
	PrefixDirectProbability   = "dp"
	PrefixIndirectProbability = "ip"
	PrefixTotalProbability    = "tp"
	PrefixRelativeProbability = "rp"
	PrefixDirectImpact        = "di"
	PrefixIndirectImpact      = "ii"
	PrefixTotalImpact         = "ti"

	// FieldRisk is the name of the scalar risk score
	FieldRisk = "r"
)

// ScenarioField returns e.g. "dp_c"
func ScenarioField(prefix string, s Scenario) string {
	return prefix + "_" + s.Code()
}

// ImpactField returns e.g. "di_Ha_c"
func ImpactField(prefix string, k DamageIndicator, s Scenario) string {
	return prefix + "_" + k.Code() + "_" + s.Code()
}

// IndicatorField returns e.g. "di_Ha"
func IndicatorField(prefix string, k DamageIndicator) string {
	return prefix + "_" + k.Code()
}

// CategoryField returns e.g. "di_H"
func CategoryField(prefix string, c DamageCategory) string {
	return prefix + "_" + c.Code()
}

// MatrixField returns the name of a conditional probability entry, e.g. "c2m"
func MatrixField(cause, effect Scenario) string {
	return cause.Code() + "2" + effect.Code()
}
