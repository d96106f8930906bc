package driver

import (
	"log"
	"math"

	"github.com/google/uuid"

	"LoopSentinel/internal/calculator"
	"LoopSentinel/internal/config"
	"LoopSentinel/internal/model"
	"LoopSentinel/internal/planner"
	"LoopSentinel/internal/position"
	"LoopSentinel/internal/recorder"
)

// Driver runs the outer operation loop: plan, apply the fallback cascade when
// planning degrades, commit the operation, and stop when the supply target is
// reached or the operation cap is hit.
type Driver struct {
	strategy config.Strategy
	planner  *planner.Planner
	recorder recorder.Recorder
}

// New creates a Driver. A nil recorder disables history recording.
func New(strategy config.Strategy, rec recorder.Recorder) *Driver {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Driver{
		strategy: strategy,
		planner:  planner.New(strategy),
		recorder: rec,
	}
}

// Run drives the book until the target is reached or the operation cap is
// hit, and returns the final statistics. Planning failure never aborts the
// run; it degrades to a minimal-effect operation instead.
func (d *Driver) Run(scenarioName string, book *position.Book) model.RunStats {
	runID := uuid.NewString()
	start := book.Snapshot()

	for !book.GoalReached() && book.Snapshot().OperationIndex < d.strategy.MaxOperations {
		d.step(runID, book)
	}

	hitCap := !book.GoalReached()
	stats := book.Stats(hitCap)
	if hitCap {
		log.Printf("[WARN] run %s did not converge within %d operations (supply %.4f of %.4f)",
			runID, d.strategy.MaxOperations, stats.FinalSupply, stats.TargetSupply)
	} else {
		log.Printf("[INFO] run %s reached target in %d operations", runID, stats.Operations)
	}

	if err := d.recorder.RecordRun(&recorder.RunRecord{
		RunID:         runID,
		Scenario:      scenarioName,
		InitialSupply: start.Supply,
		InitialDebt:   start.Debt,
		TargetSupply:  start.TargetSupply,
		WalletBalance: start.WalletBalance,
		Stats:         stats,
	}); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	return stats
}

// step executes exactly one operation against the book.
func (d *Driver) step(runID string, book *position.Book) {
	book.ApplyIdleCapital()
	pos := book.Snapshot()

	plan := d.planner.Plan(pos)
	attempts := plan.Attempts
	fallback := false

	if !plan.Feasible {
		// Degenerate fallback: minimum viable borrow sized off the supply,
		// positive profit by construction.
		plan = d.minimalPlan(pos, plan, pos.Supply*0.01)
		fallback = true
		log.Printf("[WARN] planning infeasible after %d attempts, applying fallback borrow %.6f",
			attempts, plan.NewBorrow)
	}

	profit := realizedProfit(plan)
	health := calculator.ProjectedHealth(pos.Supply, plan.Reinvestment, pos.Debt,
		plan.Repayment, plan.NewBorrow, d.strategy.HealthFactor)

	// Re-plan cascade: a committed operation must show positive profit and a
	// healthy projection, so give the planner a few more chances before the
	// last resort.
	replans := 0
	for replans < 5 && !d.acceptable(profit, health) {
		book.ApplyIdleCapital()
		pos = book.Snapshot()

		next := d.planner.Plan(pos)
		attempts += next.Attempts
		if next.Feasible {
			plan = next
			fallback = false
		} else {
			plan = d.minimalPlan(pos, next, pos.Supply*0.01)
			fallback = true
		}
		profit = realizedProfit(plan)
		health = calculator.ProjectedHealth(pos.Supply, plan.Reinvestment, pos.Debt,
			plan.Repayment, plan.NewBorrow, d.strategy.HealthFactor)
		replans++
	}

	// Last resort: force a minimal borrow sized off the debt. Profit stays
	// positive by construction; health degrades to a computed value that is
	// reported, not hidden.
	if !d.acceptable(profit, health) {
		plan = d.minimalPlan(pos, plan, pos.Debt*0.05)
		fallback = true
		profit = realizedProfit(plan)
		health = calculator.ProjectedHealth(pos.Supply, plan.Reinvestment, pos.Debt,
			plan.Repayment, plan.NewBorrow, d.strategy.HealthFactor)
		log.Printf("[WARN] replan cascade exhausted, forcing minimal borrow %.6f (projected health %.4f)",
			plan.NewBorrow, health)
	}

	plan.Attempts = attempts
	book.ApplyPlan(plan, profit)

	after := book.Snapshot()
	if err := d.recorder.RecordOperation(&recorder.OperationRecord{
		RunID:           runID,
		Index:           after.OperationIndex,
		Repayment:       plan.Repayment,
		RepaymentRatio:  plan.RepaymentRatio,
		Fee:             plan.Fee,
		BorrowFloor:     plan.BorrowFloor,
		BorrowCeiling:   plan.BorrowCeiling,
		NewBorrow:       plan.NewBorrow,
		Reinvestment:    plan.Reinvestment,
		Profit:          profit,
		Attempts:        attempts,
		Flags:           plan.Flags,
		Fallback:        fallback,
		Replans:         replans,
		Supply:          after.Supply,
		Debt:            after.Debt,
		WalletBalance:   after.WalletBalance,
		Buffer:          after.ReinvestableBuffer,
		StagnationCount: after.StagnationCount,
		TotalStagnant:   book.TotalStagnant(),
		ProjectedHealth: health,
		Health:          book.Health(),
		FreeCollateral:  book.FreeCollateral(),
		TotalProfit:     book.TotalProfit(),
		TotalFees:       book.TotalFees(),
		TotalRepayment:  book.TotalRepayment(),
	}); err != nil {
		log.Printf("[ERROR] record operation: %v", err)
	}
}

// minimalPlan builds a degenerate plan whose borrow just clears the profit
// floor: max(10x the minimum profit plus repayment and fee, the given base).
func (d *Driver) minimalPlan(pos model.Position, prev model.Plan, base float64) model.Plan {
	borrow := math.Max(10*d.strategy.MinProfit+prev.Repayment+prev.Fee, base)
	reinvestment := d.planner.Reinvestment(pos, borrow, prev.Repayment, prev.Fee)
	return model.Plan{
		NewBorrow:      borrow,
		Reinvestment:   reinvestment,
		Feasible:       false,
		Attempts:       prev.Attempts,
		Flags:          prev.Flags,
		BorrowFloor:    prev.BorrowFloor,
		BorrowCeiling:  prev.BorrowCeiling,
		RepaymentRatio: prev.RepaymentRatio,
		Repayment:      prev.Repayment,
		Fee:            prev.Fee,
	}
}

func (d *Driver) acceptable(profit, health float64) bool {
	return profit > d.strategy.MinProfit && health > d.strategy.MinHealthRatio
}

func realizedProfit(plan model.Plan) float64 {
	return plan.NewBorrow - plan.Reinvestment - plan.Repayment - plan.Fee
}
