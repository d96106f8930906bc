package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists operation history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so analysis tooling can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			run_id           TEXT NOT NULL,
			op_index         INTEGER NOT NULL,
			repayment        REAL,
			repayment_ratio  REAL,
			fee              REAL,
			borrow_floor     REAL,
			borrow_ceiling   REAL,
			new_borrow       REAL,
			reinvestment     REAL,
			profit           REAL,
			attempts         INTEGER,
			reduced_reinvest INTEGER,
			reduced_margin   INTEGER,
			reduced_repay    INTEGER,
			fallback         INTEGER,
			replans          INTEGER,
			supply           REAL,
			debt             REAL,
			wallet_balance   REAL,
			buffer           REAL,
			stagnation_count INTEGER,
			projected_health REAL,
			health           REAL,
			free_collateral  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_run ON operations(run_id)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp            INTEGER NOT NULL,
			run_id               TEXT NOT NULL,
			scenario             TEXT,
			initial_supply       REAL,
			initial_debt         REAL,
			target_supply        REAL,
			wallet_balance       REAL,
			final_supply         REAL,
			final_debt           REAL,
			goal_reached         INTEGER,
			hit_operation_cap    INTEGER,
			gross_profit         REAL,
			total_fees           REAL,
			net_profit           REAL,
			final_health         REAL,
			operations           INTEGER,
			stagnant_operations  INTEGER,
			positive_profit_ops  INTEGER,
			min_operation_profit REAL,
			max_relax_attempts   INTEGER,
			total_relax_attempts INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_run ON runs(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordOperation(rec *OperationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO operations
		(timestamp, run_id, op_index, repayment, repayment_ratio, fee,
		 borrow_floor, borrow_ceiling, new_borrow, reinvestment, profit,
		 attempts, reduced_reinvest, reduced_margin, reduced_repay, fallback, replans,
		 supply, debt, wallet_balance, buffer, stagnation_count,
		 projected_health, health, free_collateral)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.Index,
		rec.Repayment, rec.RepaymentRatio, rec.Fee,
		rec.BorrowFloor, rec.BorrowCeiling, rec.NewBorrow, rec.Reinvestment, rec.Profit,
		rec.Attempts, boolInt(rec.Flags.ReducedReinvestment), boolInt(rec.Flags.ReducedMargin),
		boolInt(rec.Flags.ReducedRepayment), boolInt(rec.Fallback), rec.Replans,
		rec.Supply, rec.Debt, rec.WalletBalance, rec.Buffer, rec.StagnationCount,
		rec.ProjectedHealth, rec.Health, rec.FreeCollateral,
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := rec.Stats
	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, run_id, scenario,
		 initial_supply, initial_debt, target_supply, wallet_balance,
		 final_supply, final_debt, goal_reached, hit_operation_cap,
		 gross_profit, total_fees, net_profit, final_health,
		 operations, stagnant_operations, positive_profit_ops,
		 min_operation_profit, max_relax_attempts, total_relax_attempts)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.Scenario,
		rec.InitialSupply, rec.InitialDebt, rec.TargetSupply, rec.WalletBalance,
		st.FinalSupply, st.FinalDebt, boolInt(st.GoalReached), boolInt(st.HitOperationCap),
		st.GrossProfit, st.TotalFees, st.NetProfit, st.FinalHealth,
		st.Operations, st.StagnantOperations, st.PositiveProfitOps,
		st.MinOperationProfit, st.MaxRelaxAttempts, st.TotalRelaxAttempts,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
