package model

import "github.com/secmon-lab/bnra/pkg/domain/types"

// ScenarioValues holds one number per scenario
type ScenarioValues [types.ScenarioCount]float64

// Sum returns the sum over all scenarios
func (v ScenarioValues) Sum() float64 {
	return v[types.ScenarioConsiderable] + v[types.ScenarioMajor] + v[types.ScenarioExtreme]
}

// Add returns the element-wise sum
func (v ScenarioValues) Add(o ScenarioValues) ScenarioValues {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

// Normalize returns the values divided by their sum, or all zero when the sum is zero
func (v ScenarioValues) Normalize() ScenarioValues {
	var out ScenarioValues
	total := v.Sum()
	if total == 0 {
		return out
	}
	for i := range v {
		out[i] = v[i] / total
	}
	return out
}

// ImpactValues holds one number per damage indicator
type ImpactValues [types.IndicatorCount]float64

// Sum returns the sum over all indicators
func (v ImpactValues) Sum() float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

// ImpactMatrix holds impacts indexed [scenario][indicator]
type ImpactMatrix [types.ScenarioCount]ImpactValues

// Add returns the element-wise sum
func (m ImpactMatrix) Add(o ImpactMatrix) ImpactMatrix {
	for s := range m {
		for k := range m[s] {
			m[s][k] += o[s][k]
		}
	}
	return m
}

// Indicator returns the impact of one indicator summed over scenarios
func (m ImpactMatrix) Indicator(k types.DamageIndicator) float64 {
	var total float64
	for _, s := range types.Scenarios {
		total += m[s][k]
	}
	return total
}

// Scenario returns the impact of one scenario summed over indicators
func (m ImpactMatrix) Scenario(s types.Scenario) float64 {
	return m[s].Sum()
}

// Scenarios returns the per-scenario totals
func (m ImpactMatrix) Scenarios() ScenarioValues {
	var out ScenarioValues
	for _, s := range types.Scenarios {
		out[s] = m.Scenario(s)
	}
	return out
}

// Category returns the impact of all indicators of a category summed over scenarios
func (m ImpactMatrix) Category(c types.DamageCategory) float64 {
	var total float64
	for _, k := range c.Indicators() {
		total += m.Indicator(k)
	}
	return total
}

// Total returns the sum over all scenarios and indicators
func (m ImpactMatrix) Total() float64 {
	return m.Scenarios().Sum()
}

// ConditionalMatrix holds P(effect scenario | cause scenario) indexed
// [cause scenario][effect scenario]. Entries are in [0,1].
type ConditionalMatrix [types.ScenarioCount][types.ScenarioCount]float64

// At returns the probability that the cause at scenario cause materializes the
// effect at scenario effect
func (m ConditionalMatrix) At(cause, effect types.Scenario) float64 {
	return m[cause][effect]
}

// Fields returns the entries keyed by "c2c" ... "e2e"
func (m ConditionalMatrix) Fields() map[string]float64 {
	fields := make(map[string]float64, types.ScenarioCount*types.ScenarioCount)
	for _, from := range types.Scenarios {
		for _, to := range types.Scenarios {
			fields[types.MatrixField(from, to)] = m[from][to]
		}
	}
	return fields
}
