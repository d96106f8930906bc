package model

// AdaptiveParams holds the per-operation parameters selected from the
// stagnation state before the relaxation loop runs.
type AdaptiveParams struct {
	RepaymentRatio float64
	BorrowMargin   float64
	Repayment      float64
	Fee            float64
}

// RelaxFlags records which relaxation steps fired while searching for a
// feasible plan.
type RelaxFlags struct {
	ReducedReinvestment bool
	ReducedMargin       bool
	ReducedRepayment    bool
}

// Any reports whether any relaxation step fired.
func (f RelaxFlags) Any() bool {
	return f.ReducedReinvestment || f.ReducedMargin || f.ReducedRepayment
}

// Plan is the planner's output for one operation. Feasible=false is a
// first-class outcome consumed by the driver's fallback cascade, never an
// error.
type Plan struct {
	NewBorrow      float64
	Reinvestment   float64
	Feasible       bool
	Attempts       int
	Flags          RelaxFlags
	BorrowFloor    float64
	BorrowCeiling  float64
	RepaymentRatio float64
	Repayment      float64
	Fee            float64
}
