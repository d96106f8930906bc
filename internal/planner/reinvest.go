package planner

import "LoopSentinel/internal/model"

// Reinvestment returns the share of an operation's gross profit folded back
// into supply for a candidate borrow. Stagnation takes priority over the
// distance-based tiers: a stalled position distributes profit instead of
// compounding it.
func (p *Planner) Reinvestment(pos model.Position, newBorrow, repayment, fee float64) float64 {
	gross := newBorrow - repayment - fee
	if gross <= 0 {
		return 0
	}

	if pos.StagnationCount > 5 {
		return gross * p.strategy.ReinvestStagnant
	}
	if pos.StagnationCount > 2 {
		return gross * p.strategy.ReinvestSluggish
	}

	remaining := pos.Remaining()
	switch {
	case remaining > pos.Supply*0.5:
		return gross * p.strategy.ReinvestFar
	case remaining > pos.Supply*0.2:
		return gross * p.strategy.ReinvestMid
	default:
		return gross * p.strategy.ReinvestNear
	}
}
