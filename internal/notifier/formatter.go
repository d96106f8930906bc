package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"LoopSentinel/internal/model"
	"LoopSentinel/internal/scenario"
)

// FormatRunReport formats a completed run's statistics into a Telegram message.
func FormatRunReport(name string, stats model.RunStats) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>LoopSentinel run</b> | %s | %s\n\n",
		name, time.Now().Format("2006-01-02 15:04")))

	status := "✅ target reached"
	if !stats.GoalReached {
		status = "❌ target not reached"
		if stats.HitOperationCap {
			status = "❌ operation cap hit before target"
		}
	}
	b.WriteString(fmt.Sprintf("Status: %s\n", status))
	b.WriteString(fmt.Sprintf("Supply: %.4f / %.4f\n\n", stats.FinalSupply, stats.TargetSupply))

	b.WriteString("💰 <b>Financials:</b>\n")
	b.WriteString(fmt.Sprintf("  Gross profit: %.6f\n", stats.GrossProfit))
	b.WriteString(fmt.Sprintf("  Fees: %.6f\n", stats.TotalFees))
	b.WriteString(fmt.Sprintf("  Net profit: %.6f\n", stats.NetProfit))
	b.WriteString(fmt.Sprintf("  Final health: %s\n\n", formatHealth(stats.FinalHealth)))

	b.WriteString("🔁 <b>Operations:</b>\n")
	b.WriteString(fmt.Sprintf("  Total: %d (stagnant %d, %.1f%%)\n",
		stats.Operations, stats.StagnantOperations, stats.StagnantPercent))
	b.WriteString(fmt.Sprintf("  Positive profit: %d (%.1f%%)\n",
		stats.PositiveProfitOps, stats.PositivePercent))
	b.WriteString(fmt.Sprintf("  Min profit per op: %.8f\n", stats.MinOperationProfit))
	b.WriteString(fmt.Sprintf("  Relax attempts: max %d, total %d\n",
		stats.MaxRelaxAttempts, stats.TotalRelaxAttempts))

	return b.String()
}

// FormatScenarioList formats the configured scenarios for display.
func FormatScenarioList(scenarios []scenario.Scenario) string {
	var b strings.Builder
	b.WriteString("🗂 <b>Scenarios</b>\n\n")
	for _, s := range scenarios {
		b.WriteString(fmt.Sprintf("• %s: supply %.0f, debt %.0f, target %.0f, wallet %.0f\n",
			s.Name, s.InitialSupply, s.InitialDebt, s.TargetSupply, s.WalletBalance))
	}
	return b.String()
}

func formatHealth(h float64) string {
	if math.IsInf(h, 1) {
		return "∞ (no debt)"
	}
	return fmt.Sprintf("%.2f", h)
}
