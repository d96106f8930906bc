package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LoopSentinel/internal/config"
	"LoopSentinel/internal/model"
)

func newTestPlanner() *Planner {
	return New(config.DefaultStrategy())
}

func TestAdaptiveParams_StagnationTiers(t *testing.T) {
	p := newTestPlanner()

	tests := []struct {
		name       string
		stagnation int
		wantRatio  float64
		wantMargin float64
	}{
		{"fresh position", 0, 0.11, 0.69},
		{"two stalls keeps normal", 2, 0.11, 0.69},
		{"three stalls moderates repayment", 3, 0.07, 0.69},
		{"five stalls still moderate", 5, 0.07, 0.69},
		{"six stalls goes cautious and aggressive", 6, 0.035, 0.73},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := model.Position{Supply: 1000, Debt: 500, TargetSupply: 1500, StagnationCount: tt.stagnation}
			params := p.adaptiveParams(pos)
			assert.InDelta(t, tt.wantRatio, params.RepaymentRatio, 1e-12)
			assert.InDelta(t, tt.wantMargin, params.BorrowMargin, 1e-12)
			assert.InDelta(t, 500*tt.wantRatio, params.Repayment, 1e-12)
			assert.InDelta(t, params.Repayment*0.0025, params.Fee, 1e-12)
		})
	}
}

func TestReinvestment_DistanceTiers(t *testing.T) {
	p := newTestPlanner()

	tests := []struct {
		name     string
		pos      model.Position
		wantFrac float64
	}{
		{"far from target", model.Position{Supply: 1000, TargetSupply: 1600}, 0.60},
		{"mid distance", model.Position{Supply: 1000, TargetSupply: 1300}, 0.40},
		{"near target", model.Position{Supply: 1000, TargetSupply: 1100}, 0.20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Reinvestment(tt.pos, 100, 10, 0.025)
			gross := 100 - 10 - 0.025
			assert.InDelta(t, gross*tt.wantFrac, got, 1e-12)
		})
	}
}

func TestReinvestment_StagnationOverridesDistance(t *testing.T) {
	p := newTestPlanner()
	gross := 100 - 10 - 0.025

	// Far from target, but stalled: the stagnation fraction wins.
	pos := model.Position{Supply: 1000, TargetSupply: 1600, StagnationCount: 3}
	assert.InDelta(t, gross*0.10, p.Reinvestment(pos, 100, 10, 0.025), 1e-12)

	pos.StagnationCount = 6
	assert.InDelta(t, gross*0.05, p.Reinvestment(pos, 100, 10, 0.025), 1e-12)
}

func TestReinvestment_ZeroOnNonPositiveGross(t *testing.T) {
	p := newTestPlanner()
	pos := model.Position{Supply: 1000, TargetSupply: 1500}
	assert.Zero(t, p.Reinvestment(pos, 10, 10, 0))
	assert.Zero(t, p.Reinvestment(pos, 5, 10, 1))
}

func TestPlan_FeasibleFirstAttempt(t *testing.T) {
	p := newTestPlanner()
	pos := model.Position{Supply: 1200, Debt: 600, TargetSupply: 1500}

	plan := p.Plan(pos)
	require.True(t, plan.Feasible)
	assert.Equal(t, 1, plan.Attempts)
	assert.False(t, plan.Flags.Any())

	// Margin cap 1200*0.69-600 = 228 binds; borrow = 80% of the ceiling.
	assert.InDelta(t, 228, plan.BorrowCeiling, 1e-9)
	assert.InDelta(t, 182.4, plan.NewBorrow, 1e-9)
	assert.InDelta(t, 66, plan.Repayment, 1e-9)
	assert.InDelta(t, plan.Repayment*0.0025, plan.Fee, 1e-12)

	assert.GreaterOrEqual(t, plan.NewBorrow, plan.BorrowFloor)
	assert.LessOrEqual(t, plan.NewBorrow, plan.BorrowCeiling)

	profit := plan.NewBorrow - plan.Reinvestment - plan.Repayment - plan.Fee
	assert.Greater(t, profit, 1e-6)
}

func TestPlan_ZeroDebtHasNoRepayment(t *testing.T) {
	p := newTestPlanner()
	pos := model.Position{Supply: 1000, Debt: 0, TargetSupply: 1500}

	plan := p.Plan(pos)
	require.True(t, plan.Feasible)
	assert.Equal(t, 1, plan.Attempts)
	assert.Zero(t, plan.Repayment)
	assert.Zero(t, plan.Fee)
	assert.Greater(t, plan.NewBorrow, 0.0)
	assert.Greater(t, plan.Reinvestment, 0.0)
	assert.Greater(t, plan.NewBorrow-plan.Reinvestment, 1e-6)
}

func TestPlan_Deterministic(t *testing.T) {
	p := newTestPlanner()
	pos := model.Position{Supply: 870.5, Debt: 412.3, TargetSupply: 2000, WalletBalance: 55, StagnationCount: 1}

	first := p.Plan(pos)
	second := p.Plan(pos)
	assert.Equal(t, first, second)
}

func TestPlan_InfeasibleDeepUnderwater(t *testing.T) {
	p := newTestPlanner()
	// Debt at twice the supply: no margin can admit a profitable borrow.
	pos := model.Position{Supply: 100, Debt: 200, TargetSupply: 500}

	plan := p.Plan(pos)
	require.False(t, plan.Feasible)
	assert.LessOrEqual(t, plan.Attempts, 50)
	assert.Greater(t, plan.Attempts, 1)

	// The ceiling never admits the floor, so reinvestment was never reduced;
	// margin and repayment were relaxed all the way down before giving up.
	assert.False(t, plan.Flags.ReducedReinvestment)
	assert.True(t, plan.Flags.ReducedMargin)
	assert.True(t, plan.Flags.ReducedRepayment)
}

func TestPlan_BoundedByMaxAttempts(t *testing.T) {
	strategy := config.DefaultStrategy()
	strategy.MaxRelaxAttempts = 3
	p := New(strategy)

	plan := p.Plan(model.Position{Supply: 100, Debt: 200, TargetSupply: 500})
	require.False(t, plan.Feasible)
	assert.LessOrEqual(t, plan.Attempts, 3)
}
