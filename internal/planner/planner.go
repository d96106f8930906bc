package planner

import (
	"math"

	"LoopSentinel/internal/calculator"
	"LoopSentinel/internal/config"
	"LoopSentinel/internal/model"
)

// Planner derives a feasible (borrow, reinvestment) pair for one operation.
// It is a pure function of the position snapshot and the strategy constants:
// repeated calls on the same snapshot return identical plans.
type Planner struct {
	strategy config.Strategy
}

// New creates a Planner with the given strategy constants.
func New(strategy config.Strategy) *Planner {
	return &Planner{strategy: strategy}
}

// Plan computes an operation plan via the bounded relaxation loop. When the
// straightforward parameters are infeasible, it loosens reinvestment first,
// then borrow margin, then repayment ratio, preserving debt-paydown
// discipline and risk margin as long as possible. Infeasibility after all
// relaxations is a regular outcome, not an error.
func (p *Planner) Plan(pos model.Position) model.Plan {
	params := p.adaptiveParams(pos)
	ratio := params.RepaymentRatio
	margin := params.BorrowMargin
	repayment := params.Repayment
	fee := params.Fee

	var flags model.RelaxFlags
	multiplier := 1.0

	attempts := 0
	for attempts < p.strategy.MaxRelaxAttempts {
		attempts++

		ceiling := calculator.BorrowCeiling(pos.Supply, pos.Debt, margin,
			p.strategy.HealthFactor, p.strategy.MinHealthRatio)

		candidate := p.Reinvestment(pos, ceiling, repayment, fee) * multiplier
		floor := p.strategy.MinProfit + candidate + repayment + fee

		if floor <= ceiling {
			newBorrow := math.Max(floor, ceiling*0.8)
			reinvestment := p.Reinvestment(pos, newBorrow, repayment, fee) * multiplier
			profit := newBorrow - reinvestment - repayment - fee

			if profit > p.strategy.MinProfit {
				return model.Plan{
					NewBorrow:      newBorrow,
					Reinvestment:   reinvestment,
					Feasible:       true,
					Attempts:       attempts,
					Flags:          flags,
					BorrowFloor:    floor,
					BorrowCeiling:  ceiling,
					RepaymentRatio: ratio,
					Repayment:      repayment,
					Fee:            fee,
				}
			}
		}

		// Infeasible this attempt: relax in strict priority order.
		switch {
		case candidate > 0:
			multiplier *= 0.95
			flags.ReducedReinvestment = true
			if candidate < 1e-9 {
				multiplier = 0
			}
		case margin > p.strategy.MarginFloor:
			margin = math.Max(p.strategy.MarginFloor, margin-0.01)
			flags.ReducedMargin = true
		case ratio > p.strategy.RepaymentFloor:
			ratio = math.Max(p.strategy.RepaymentFloor, ratio-0.005)
			flags.ReducedRepayment = true
			repayment = pos.Debt * ratio
			fee = repayment * p.strategy.PlatformFeeRate
		default:
			// Last resort: raise the margin just enough to admit the floor,
			// capped at the aggressive margin.
			needed := (pos.Debt + p.strategy.MinProfit + repayment + fee) / pos.Supply
			if needed <= p.strategy.MarginAggressive {
				margin = math.Min(p.strategy.MarginAggressive, needed+1e-6)
			} else {
				return p.infeasible(pos, attempts, flags, margin, ratio, repayment, fee)
			}
		}
	}

	return p.infeasible(pos, attempts, flags, margin, ratio, repayment, fee)
}

func (p *Planner) infeasible(pos model.Position, attempts int, flags model.RelaxFlags,
	margin, ratio, repayment, fee float64) model.Plan {
	return model.Plan{
		Feasible: false,
		Attempts: attempts,
		Flags:    flags,
		// Floor/ceiling at the moment planning gave up, for diagnostics.
		BorrowFloor: p.strategy.MinProfit + repayment + fee,
		BorrowCeiling: calculator.BorrowCeiling(pos.Supply, pos.Debt, margin,
			p.strategy.HealthFactor, p.strategy.MinHealthRatio),
		RepaymentRatio: ratio,
		Repayment:      repayment,
		Fee:            fee,
	}
}
