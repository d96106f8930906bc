package model

import "time"

// RunStats summarizes a completed simulation run.
type RunStats struct {
	FinalSupply     float64 `json:"final_supply"`
	TargetSupply    float64 `json:"target_supply"`
	GoalReached     bool    `json:"goal_reached"`
	HitOperationCap bool    `json:"hit_operation_cap"`

	GrossProfit float64 `json:"gross_profit"`
	TotalFees   float64 `json:"total_fees"`
	NetProfit   float64 `json:"net_profit"`
	FinalDebt   float64 `json:"final_debt"`
	FinalHealth float64 `json:"final_health"`

	Operations         int     `json:"operations"`
	StagnantOperations int     `json:"stagnant_operations"`
	StagnantPercent    float64 `json:"stagnant_percent"`
	PositiveProfitOps  int     `json:"positive_profit_ops"`
	PositivePercent    float64 `json:"positive_percent"`
	MinOperationProfit float64 `json:"min_operation_profit"`

	MaxRelaxAttempts   int `json:"max_relax_attempts"`
	TotalRelaxAttempts int `json:"total_relax_attempts"`

	FinishedAt time.Time `json:"finished_at"`
}
