package calculator

import "math"

// Health returns the position health ratio: risk-adjusted collateral over
// debt. A non-positive debt means the position cannot be liquidated, reported
// as infinite health rather than a division fault.
func Health(supply, debt, healthFactor float64) float64 {
	if debt <= 0 {
		return math.Inf(1)
	}
	return supply * healthFactor / debt
}

// ProjectedHealth returns the health ratio the position would have after
// applying a candidate operation: reinvestment added to supply, repayment
// removed from debt, new borrow added to debt.
func ProjectedHealth(supply, reinvestment, debt, repayment, newBorrow, healthFactor float64) float64 {
	denom := debt - repayment + newBorrow
	if denom <= 0 {
		return math.Inf(1)
	}
	return (supply + reinvestment) * healthFactor / denom
}
