package model

// Snapshot is the immutable input of one aggregation run. The order of both
// slices is significant: it is the stable order used to break ties and cycles.
type Snapshot struct {
	RiskFiles []*RiskFile
	Cascades  []*Cascade
}
