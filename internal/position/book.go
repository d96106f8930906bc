package position

import (
	"fmt"
	"log"
	"math"
	"time"

	"LoopSentinel/internal/calculator"
	"LoopSentinel/internal/config"
	"LoopSentinel/internal/model"
)

// Book owns the mutable state of a leveraged position across a simulation
// run. It is mutated exactly once per operation by ApplyPlan and discarded
// when the run ends.
type Book struct {
	strategy config.Strategy

	supply        float64
	debt          float64
	targetSupply  float64
	walletBalance float64

	// profit from prior operations not yet folded into supply
	reinvestableBuffer float64

	supplyBefore    float64
	stagnationCount int
	operationIndex  int

	totalRepayment     float64
	totalProfit        float64
	totalFees          float64
	totalStagnant      int
	positiveProfitOps  int
	minProfit          float64
	maxRelaxAttempts   int
	totalRelaxAttempts int
}

// New validates the run inputs and creates a position book. Construction is
// the only hard validation barrier: later numeric degeneracies are handled by
// the planner's fallback cascade, never by failing.
func New(strategy config.Strategy, initialSupply, initialDebt, targetSupply, walletBalance float64) (*Book, error) {
	if initialSupply <= 0 {
		return nil, fmt.Errorf("initial supply must be positive, got %v", initialSupply)
	}
	if initialDebt < 0 {
		return nil, fmt.Errorf("initial debt must be non-negative, got %v", initialDebt)
	}
	if targetSupply <= initialSupply {
		return nil, fmt.Errorf("target supply must exceed initial supply (%v), got %v", initialSupply, targetSupply)
	}
	if walletBalance < 0 {
		return nil, fmt.Errorf("wallet balance must be non-negative, got %v", walletBalance)
	}

	// Advisory only: risky inputs are allowed but flagged.
	if initialDebt > initialSupply*strategy.BorrowSupplyLimit {
		log.Printf("[WARN] initial debt %.2f exceeds %.0f%% of initial supply %.2f, operations will be riskier",
			initialDebt, strategy.BorrowSupplyLimit*100, initialSupply)
	}
	if strategy.GrowthLimit > 0 && targetSupply > initialSupply*strategy.GrowthLimit {
		log.Printf("[WARN] target supply %.2f is %.1fx the initial supply, expect a long run",
			targetSupply, targetSupply/initialSupply)
	}

	return &Book{
		strategy:      strategy,
		supply:        initialSupply,
		debt:          initialDebt,
		targetSupply:  targetSupply,
		walletBalance: walletBalance,
		supplyBefore:  initialSupply,
		minProfit:     math.Inf(1),
	}, nil
}

// Snapshot returns a read-only copy of the current position for planning.
func (b *Book) Snapshot() model.Position {
	return model.Position{
		Supply:             b.supply,
		Debt:               b.debt,
		TargetSupply:       b.targetSupply,
		WalletBalance:      b.walletBalance,
		ReinvestableBuffer: b.reinvestableBuffer,
		StagnationCount:    b.stagnationCount,
		OperationIndex:     b.operationIndex,
	}
}

// ApplyIdleCapital tops up supply toward the target before planning: first
// from the reinvestable buffer, then from the wallet. Wallet draw is capped
// at the configured fraction of current supply per operation and never pushes
// supply past the target.
func (b *Book) ApplyIdleCapital() {
	if b.reinvestableBuffer > 0 {
		used := math.Min(b.reinvestableBuffer, b.targetSupply-b.supply)
		if used > 0 {
			b.supply += used
			b.reinvestableBuffer -= used
		}
	}

	if b.supply < b.targetSupply && b.walletBalance > 0 {
		gap := b.targetSupply - b.supply
		draw := math.Min(b.strategy.WalletUsageLimit*b.supply, gap)
		draw = math.Min(draw, b.walletBalance)
		b.supply += draw
		b.walletBalance -= draw
	}
}

// ApplyPlan commits one operation to the book: debt is reduced by the
// repayment and increased by the new borrow, the reinvestment is folded into
// supply, and the realized profit lands in the reinvestable buffer. The
// stagnation counter is recomputed against the supply captured before this
// operation.
func (b *Book) ApplyPlan(plan model.Plan, profit float64) {
	b.operationIndex++
	b.totalRepayment += plan.Repayment
	b.debt -= plan.Repayment
	b.debt += plan.NewBorrow
	b.supply += plan.Reinvestment
	b.totalProfit += profit
	b.reinvestableBuffer += profit
	b.totalFees += plan.Fee

	progress := b.supply - b.supplyBefore
	if progress < b.strategy.ProgressEpsilon {
		b.stagnationCount++
		b.totalStagnant++
	} else {
		b.stagnationCount = 0
	}
	b.supplyBefore = b.supply

	if profit > 0 {
		b.positiveProfitOps++
	}
	if profit < b.minProfit {
		b.minProfit = profit
	}
	if plan.Attempts > b.maxRelaxAttempts {
		b.maxRelaxAttempts = plan.Attempts
	}
	b.totalRelaxAttempts += plan.Attempts
}

// Running totals, exposed for per-operation reporting.
func (b *Book) TotalProfit() float64    { return b.totalProfit }
func (b *Book) TotalFees() float64      { return b.totalFees }
func (b *Book) TotalRepayment() float64 { return b.totalRepayment }
func (b *Book) TotalStagnant() int      { return b.totalStagnant }

// GoalReached reports whether the supply target has been met.
func (b *Book) GoalReached() bool {
	return b.supply >= b.targetSupply
}

// Health returns the current position health.
func (b *Book) Health() float64 {
	return calculator.Health(b.supply, b.debt, b.strategy.HealthFactor)
}

// FreeCollateral returns the withdrawable share of net collateral.
func (b *Book) FreeCollateral() float64 {
	return calculator.FreeCollateral(b.supply, b.debt, b.strategy.FreeCollateral)
}

// Stats produces the final run statistics.
func (b *Book) Stats(hitOperationCap bool) model.RunStats {
	stats := model.RunStats{
		FinalSupply:        b.supply,
		TargetSupply:       b.targetSupply,
		GoalReached:        b.GoalReached(),
		HitOperationCap:    hitOperationCap,
		GrossProfit:        b.totalProfit,
		TotalFees:          b.totalFees,
		NetProfit:          b.totalProfit - b.totalFees,
		FinalDebt:          b.debt,
		FinalHealth:        b.Health(),
		Operations:         b.operationIndex,
		StagnantOperations: b.totalStagnant,
		PositiveProfitOps:  b.positiveProfitOps,
		MinOperationProfit: b.minProfit,
		MaxRelaxAttempts:   b.maxRelaxAttempts,
		TotalRelaxAttempts: b.totalRelaxAttempts,
		FinishedAt:         time.Now(),
	}
	if b.operationIndex > 0 {
		stats.StagnantPercent = float64(b.totalStagnant) / float64(b.operationIndex) * 100
		stats.PositivePercent = float64(b.positiveProfitOps) / float64(b.operationIndex) * 100
	}
	return stats
}
