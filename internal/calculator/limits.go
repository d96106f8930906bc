package calculator

// BorrowCeiling returns the maximum safe new borrow for the current position:
// the lower of the margin cap (supply*margin - debt) and the health cap
// (supply*healthFactor/minHealth - debt). A non-positive ceiling would stall
// planning, so it is floored to 1% of supply.
func BorrowCeiling(supply, debt, margin, healthFactor, minHealth float64) float64 {
	marginCap := supply*margin - debt
	healthCap := supply*healthFactor/minHealth - debt

	ceiling := marginCap
	if healthCap < ceiling {
		ceiling = healthCap
	}
	if ceiling <= 0 {
		ceiling = supply * 0.01
	}
	return ceiling
}

// FreeCollateral returns the portion of net collateral (supply minus debt)
// that is withdrawable, for reporting.
func FreeCollateral(supply, debt, factor float64) float64 {
	return (supply - debt) * factor
}
