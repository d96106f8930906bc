package recorder

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const rule = "================================================================================"

// TranscriptRecorder appends a human-readable account of every operation to a
// text file. The format is free-form and not meant for machine parsing.
type TranscriptRecorder struct {
	f  *os.File
	mu sync.Mutex
}

// NewTranscriptRecorder opens (or creates) the transcript file for appending.
func NewTranscriptRecorder(path string) (*TranscriptRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create transcript dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	log.Printf("[INFO] transcript recorder opened: %s", path)
	return &TranscriptRecorder{f: f}, nil
}

func (t *TranscriptRecorder) RecordOperation(rec *OperationRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	if rec.Fallback {
		fmt.Fprintf(&b, "OPERATION %03d - FALLBACK APPLIED\n", rec.Index)
	} else {
		fmt.Fprintf(&b, "OPERATION %03d\n", rec.Index)
	}
	fmt.Fprintf(&b, "%s\n", rule)

	fmt.Fprintf(&b, "[PARAMETERS]\n")
	fmt.Fprintf(&b, "   Repayment: %12.6f (%.2f%% of debt)\n", rec.Repayment, rec.RepaymentRatio*100)
	fmt.Fprintf(&b, "   Platform Fee: %9.6f\n", rec.Fee)
	fmt.Fprintf(&b, "   Total Fees Paid: %6.6f\n", rec.TotalFees)
	fmt.Fprintf(&b, "   Total Repaid: %9.6f\n", rec.TotalRepayment)

	fmt.Fprintf(&b, "\n[LIMITS]\n")
	fmt.Fprintf(&b, "   New Borrow: %12.6f\n", rec.NewBorrow)
	fmt.Fprintf(&b, "   Borrow Floor: %10.6f\n", rec.BorrowFloor)
	fmt.Fprintf(&b, "   Borrow Ceiling: %8.6f\n", rec.BorrowCeiling)

	fmt.Fprintf(&b, "\n[RESCHEDULING]\n")
	fmt.Fprintf(&b, "   Attempts: %d\n", rec.Attempts)
	fmt.Fprintf(&b, "   Flags: reinvestment=%v margin=%v repayment=%v\n",
		rec.Flags.ReducedReinvestment, rec.Flags.ReducedMargin, rec.Flags.ReducedRepayment)
	if rec.Replans > 0 {
		fmt.Fprintf(&b, "   Replans: %d\n", rec.Replans)
	}

	fmt.Fprintf(&b, "\n[RESULTS]\n")
	fmt.Fprintf(&b, "   Total Supply: %12.6f\n", rec.Supply)
	fmt.Fprintf(&b, "   Free Collateral: %9.6f\n", rec.FreeCollateral)
	fmt.Fprintf(&b, "   Total Debt: %14.6f\n", rec.Debt)
	fmt.Fprintf(&b, "   Operation Profit: %8.6f\n", rec.Profit)
	fmt.Fprintf(&b, "   Reinvestment: %12.6f\n", rec.Reinvestment)
	fmt.Fprintf(&b, "   Total Profit: %12.6f\n", rec.TotalProfit)

	fmt.Fprintf(&b, "\n[STATUS]\n")
	fmt.Fprintf(&b, "   Reinvestable Buffer: %6.6f\n", rec.Buffer)
	fmt.Fprintf(&b, "   Stagnant Streak: %d\n", rec.StagnationCount)
	fmt.Fprintf(&b, "   Total Stagnant: %d\n", rec.TotalStagnant)
	fmt.Fprintf(&b, "   Position Health: %.2f\n", rec.Health)
	fmt.Fprintf(&b, "   Wallet Balance: %10.6f\n", rec.WalletBalance)
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := t.f.WriteString(b.String())
	return err
}

func (t *TranscriptRecorder) RecordRun(rec *RunRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := rec.Stats
	status := "GOAL REACHED"
	if !st.GoalReached {
		status = "GOAL NOT REACHED"
		if st.HitOperationCap {
			status = "GOAL NOT REACHED (operation cap hit)"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "[FINAL RESULT] run %s (%s)\n", rec.RunID, rec.Scenario)
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "   Final Supply: %12.6f\n", st.FinalSupply)
	fmt.Fprintf(&b, "   Target Supply: %11.6f\n", st.TargetSupply)
	fmt.Fprintf(&b, "   Status: %s\n", status)
	fmt.Fprintf(&b, "   Gross Profit: %12.6f\n", st.GrossProfit)
	fmt.Fprintf(&b, "   Total Fees: %14.6f\n", st.TotalFees)
	fmt.Fprintf(&b, "   Net Profit: %14.6f\n", st.NetProfit)
	fmt.Fprintf(&b, "   Final Health: %12.2f\n", st.FinalHealth)
	fmt.Fprintf(&b, "   Operations: %d (stagnant %d, %.1f%%)\n",
		st.Operations, st.StagnantOperations, st.StagnantPercent)
	fmt.Fprintf(&b, "   Positive Profit Ops: %d (%.1f%%)\n",
		st.PositiveProfitOps, st.PositivePercent)
	fmt.Fprintf(&b, "   Min Operation Profit: %.8f\n", st.MinOperationProfit)
	fmt.Fprintf(&b, "   Max/Total Relax Attempts: %d/%d\n",
		st.MaxRelaxAttempts, st.TotalRelaxAttempts)
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := t.f.WriteString(b.String())
	return err
}

func (t *TranscriptRecorder) Close() error {
	log.Println("[INFO] closing transcript recorder")
	return t.f.Close()
}
