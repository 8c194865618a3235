package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	RiskFile() RiskFileRepository
	Cascade() CascadeRepository
	Calculation() CalculationRepository
	Run() RunRepository

	Close() error
}
