package planner

import "LoopSentinel/internal/model"

// adaptiveParams selects the repayment ratio and borrow margin for the
// operation from the stagnation state. Repeated stalls shift the strategy
// toward smaller debt paydown and a more aggressive margin.
func (p *Planner) adaptiveParams(pos model.Position) model.AdaptiveParams {
	var ratio, margin float64
	switch {
	case pos.StagnationCount > 5:
		ratio = p.strategy.RepaymentCautious
		margin = p.strategy.MarginAggressive
	case pos.StagnationCount > 2:
		ratio = p.strategy.RepaymentModerate
		margin = p.strategy.MarginNormal
	default:
		ratio = p.strategy.RepaymentNormal
		margin = p.strategy.MarginNormal
	}

	repayment := pos.Debt * ratio
	return model.AdaptiveParams{
		RepaymentRatio: ratio,
		BorrowMargin:   margin,
		Repayment:      repayment,
		Fee:            repayment * p.strategy.PlatformFeeRate,
	}
}
