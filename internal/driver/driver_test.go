package driver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LoopSentinel/internal/config"
	"LoopSentinel/internal/model"
	"LoopSentinel/internal/position"
	"LoopSentinel/internal/recorder"
)

// captureRecorder keeps every record in memory for assertions.
type captureRecorder struct {
	ops  []*recorder.OperationRecord
	runs []*recorder.RunRecord
}

func (c *captureRecorder) RecordOperation(rec *recorder.OperationRecord) error {
	c.ops = append(c.ops, rec)
	return nil
}

func (c *captureRecorder) RecordRun(rec *recorder.RunRecord) error {
	c.runs = append(c.runs, rec)
	return nil
}

func (c *captureRecorder) Close() error { return nil }

func runScenario(t *testing.T, name string, supply, debt, target, wallet float64) (model.RunStats, *captureRecorder) {
	t.Helper()
	strategy := config.DefaultStrategy()
	book, err := position.New(strategy, supply, debt, target, wallet)
	require.NoError(t, err)

	cap := &captureRecorder{}
	stats := New(strategy, cap).Run(name, book)
	return stats, cap
}

func assertConverged(t *testing.T, stats model.RunStats) {
	t.Helper()
	assert.True(t, stats.GoalReached)
	assert.False(t, stats.HitOperationCap)
	assert.GreaterOrEqual(t, stats.FinalSupply, stats.TargetSupply)
	assert.Greater(t, stats.MinOperationProfit, 0.0)
	assert.InDelta(t, 100.0, stats.PositivePercent, 1e-9)
	assert.Positive(t, stats.Operations)
}

// assertHealthPerOperation checks the health contract op by op: every
// operation committed from a feasible plan projects health above the minimum
// ratio; fallback operations degrade to a computed, recorded value.
func assertHealthPerOperation(t *testing.T, ops []*recorder.OperationRecord) {
	t.Helper()
	for _, op := range ops {
		if !op.Fallback {
			assert.Greater(t, op.ProjectedHealth, 1.01,
				"feasible operation %d must clear the health floor", op.Index)
		}
		assert.Greater(t, op.ProjectedHealth, 0.0)
	}
}

func TestRun_MediumScenario(t *testing.T) {
	stats, cap := runScenario(t, "medium", 1000, 600, 1500, 200)
	assertConverged(t, stats)
	assert.Greater(t, stats.FinalHealth, 1.01)
	assert.Greater(t, stats.NetProfit, 0.0)
	assertHealthPerOperation(t, cap.ops)

	// Every operation was recorded in order under a single run id.
	require.Len(t, cap.runs, 1)
	require.Len(t, cap.ops, stats.Operations)
	runID := cap.runs[0].RunID
	require.NotEmpty(t, runID)
	for i, op := range cap.ops {
		assert.Equal(t, runID, op.RunID)
		assert.Equal(t, i+1, op.Index)
		assert.Greater(t, op.Profit, 0.0)
	}

	run := cap.runs[0]
	assert.Equal(t, "medium", run.Scenario)
	assert.Equal(t, 1000.0, run.InitialSupply)
	assert.Equal(t, 600.0, run.InitialDebt)
	assert.Equal(t, 1500.0, run.TargetSupply)
	assert.Equal(t, 200.0, run.WalletBalance)
}

func TestRun_AggressiveGrowthStarvedWallet(t *testing.T) {
	// 4x growth on a small position with almost no idle capital. A target
	// this far past the health cap cannot end above the health floor: every
	// operation books positive profit, so debt grows at least as fast as
	// supply, and reaching 2000 forces final debt past 2000*0.74/1.01. The
	// run must still converge with positive profit throughout, the floor
	// enforced on every feasible operation, and the degraded tail reported.
	stats, cap := runScenario(t, "aggressive", 500, 300, 2000, 50)
	assertConverged(t, stats)
	assertHealthPerOperation(t, cap.ops)

	hadFallback := false
	for _, op := range cap.ops {
		if op.Fallback {
			hadFallback = true
			break
		}
	}
	assert.True(t, hadFallback)
	assert.Greater(t, stats.FinalHealth, 0.74)
	assert.Less(t, stats.FinalHealth, 1.01)
}

func TestRun_ZeroInitialDebt(t *testing.T) {
	stats, cap := runScenario(t, "no-debt", 1000, 0, 1500, 0)
	assertConverged(t, stats)
	assert.Greater(t, stats.FinalHealth, 1.01)
	assertHealthPerOperation(t, cap.ops)
}

func TestRun_RandomizedSweep(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		supply := 100 + rng.Float64()*1900
		debt := supply * (0.4 + rng.Float64()*0.3)
		target := supply * (1.2 + rng.Float64()*1.8)
		wallet := 10 + rng.Float64()*490

		t.Run(fmt.Sprintf("combo-%d", i+1), func(t *testing.T) {
			stats, cap := runScenario(t, fmt.Sprintf("sweep-%d", i+1), supply, debt, target, wallet)
			assertConverged(t, stats)
			assertHealthPerOperation(t, cap.ops)
			// High-growth draws end in the degraded band; the floor still
			// holds per feasible operation above.
			assert.Greater(t, stats.FinalHealth, 0.74)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	first, _ := runScenario(t, "repeat", 870.5, 412.3, 1800, 55)
	second, _ := runScenario(t, "repeat", 870.5, 412.3, 1800, 55)

	assert.Equal(t, first.Operations, second.Operations)
	assert.Equal(t, first.FinalSupply, second.FinalSupply)
	assert.Equal(t, first.FinalDebt, second.FinalDebt)
	assert.Equal(t, first.TotalRelaxAttempts, second.TotalRelaxAttempts)
	assert.Equal(t, first.StagnantOperations, second.StagnantOperations)
}

func TestRun_OperationCapStopsRun(t *testing.T) {
	strategy := config.DefaultStrategy()
	strategy.MaxOperations = 3
	book, err := position.New(strategy, 1000, 600, 5000, 0)
	require.NoError(t, err)

	stats := New(strategy, nil).Run("capped", book)
	assert.False(t, stats.GoalReached)
	assert.True(t, stats.HitOperationCap)
	assert.Equal(t, 3, stats.Operations)
}

func TestMinimalPlan_ProfitPositiveByConstruction(t *testing.T) {
	strategy := config.DefaultStrategy()
	d := New(strategy, nil)
	pos := model.Position{Supply: 100, Debt: 200, TargetSupply: 500}
	prev := model.Plan{Repayment: 6, Fee: 0.015}

	plan := d.minimalPlan(pos, prev, pos.Supply*0.01)
	profit := realizedProfit(plan)
	assert.Greater(t, profit, strategy.MinProfit)
	assert.GreaterOrEqual(t, plan.NewBorrow, 10*strategy.MinProfit+prev.Repayment+prev.Fee)
}
