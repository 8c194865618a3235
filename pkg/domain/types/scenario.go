package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Scenario is an intensity scenario at which probability and impact are estimated.
// Scenarios are ordered by increasing severity.
type Scenario int

const (
	ScenarioConsiderable Scenario = iota
	ScenarioMajor
	ScenarioExtreme
)

// ScenarioCount is the number of intensity scenarios
const ScenarioCount = 3

// Scenarios lists all scenarios in severity order
var Scenarios = [ScenarioCount]Scenario{ScenarioConsiderable, ScenarioMajor, ScenarioExtreme}

var scenarioCodes = [ScenarioCount]string{"c", "m", "e"}
var scenarioNames = [ScenarioCount]string{"Considerable", "Major", "Extreme"}

// Validate checks if the Scenario is one of the known scenarios
func (s Scenario) Validate() error {
	if s < ScenarioConsiderable || s > ScenarioExtreme {
		return goerr.New("unknown scenario", goerr.V("scenario", int(s)))
	}
	return nil
}

// Code returns the single-letter code of the scenario (c, m or e)
func (s Scenario) Code() string {
	if s.Validate() != nil {
		return "?"
	}
	return scenarioCodes[s]
}

// Name returns the human readable name of the scenario
func (s Scenario) Name() string {
	if s.Validate() != nil {
		return "Unknown"
	}
	return scenarioNames[s]
}

// String returns the single-letter code of the scenario
func (s Scenario) String() string {
	return s.Code()
}

// ParseScenario parses a scenario code or name
func ParseScenario(v string) (Scenario, error) {
	v = strings.TrimSpace(v)
	for _, s := range Scenarios {
		if v == scenarioCodes[s] || strings.EqualFold(v, scenarioNames[s]) {
			return s, nil
		}
	}
	return 0, goerr.New("unknown scenario", goerr.V("scenario", v))
}
