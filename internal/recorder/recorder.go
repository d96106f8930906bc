package recorder

import "LoopSentinel/internal/model"

// OperationRecord holds everything computed for one completed operation.
type OperationRecord struct {
	RunID          string
	Index          int
	Repayment      float64
	RepaymentRatio float64
	Fee            float64
	BorrowFloor    float64
	BorrowCeiling  float64
	NewBorrow      float64
	Reinvestment   float64
	Profit         float64
	Attempts       int
	Flags          model.RelaxFlags
	Fallback       bool
	Replans        int

	// Position after the operation was applied.
	Supply          float64
	Debt            float64
	WalletBalance   float64
	Buffer          float64
	StagnationCount int
	TotalStagnant   int
	ProjectedHealth float64
	Health          float64
	FreeCollateral  float64
	TotalProfit     float64
	TotalFees       float64
	TotalRepayment  float64
}

// RunRecord holds the inputs and final statistics of a completed run.
type RunRecord struct {
	RunID         string
	Scenario      string
	InitialSupply float64
	InitialDebt   float64
	TargetSupply  float64
	WalletBalance float64
	Stats         model.RunStats
}

// Recorder persists operation history for analysis.
type Recorder interface {
	RecordOperation(rec *OperationRecord) error
	RecordRun(rec *RunRecord) error
	Close() error
}
