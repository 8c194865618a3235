package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrNoCalculation is returned when a risk file has not been aggregated yet
	ErrNoCalculation = goerr.New("no calculation for risk file")

	// ErrUnknownRankingField is returned for a ranking field that is not a calculated field
	ErrUnknownRankingField = goerr.New("unknown ranking field")

	// ErrAggregationRunning is returned when an aggregation is requested while one is running
	ErrAggregationRunning = goerr.New("aggregation is already running")

	// ErrInvalidSnapshot is returned when a catalogue cannot be imported
	ErrInvalidSnapshot = goerr.New("invalid catalogue snapshot")
)

// Context keys for error values
const (
	RiskIDKey = "risk_id"
	FieldKey  = "field"
	RunIDKey  = "run_id"
)
