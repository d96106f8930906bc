package model

// Position is a point-in-time snapshot of the leveraged position.
// The planner consumes it read-only; the position book owns the mutable state.
type Position struct {
	Supply             float64
	Debt               float64
	TargetSupply       float64
	WalletBalance      float64
	ReinvestableBuffer float64
	StagnationCount    int
	OperationIndex     int
}

// Remaining returns the supply still missing to reach the target.
func (p Position) Remaining() float64 {
	return p.TargetSupply - p.Supply
}
