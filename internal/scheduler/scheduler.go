package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"LoopSentinel/internal/config"
	"LoopSentinel/internal/driver"
	"LoopSentinel/internal/model"
	"LoopSentinel/internal/notifier"
	"LoopSentinel/internal/position"
	"LoopSentinel/internal/recorder"
	"LoopSentinel/internal/scenario"
)

// Scheduler runs the configured scenarios on a cron schedule and serves
// Telegram commands in daemon mode.
type Scheduler struct {
	cron      *cron.Cron
	strategy  config.Strategy
	scenarios []scenario.Scenario
	recorder  recorder.Recorder
	notifier  *notifier.Notifier
	ctx       context.Context

	mu        sync.Mutex
	lastStats map[string]model.RunStats
}

// New creates a Scheduler.
func New(ctx context.Context, strategy config.Strategy, scenarios []scenario.Scenario,
	rec recorder.Recorder, tn *notifier.Notifier) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		strategy:  strategy,
		scenarios: scenarios,
		recorder:  rec,
		notifier:  tn,
		ctx:       ctx,
		lastStats: make(map[string]model.RunStats),
	}
}

// Register schedules the recurring sweep.
func (s *Scheduler) Register(runCron string) error {
	if _, err := s.cron.AddFunc(runCron, s.runAll); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the sweep immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.runAll()
}

func (s *Scheduler) runAll() {
	log.Printf("[INFO] running %d scenario(s)", len(s.scenarios))
	for _, sc := range s.scenarios {
		stats, err := s.runOne(sc)
		if err != nil {
			log.Printf("[ERROR] scenario %s: %v", sc.Name, err)
			s.trySend(fmt.Sprintf("❌ scenario %s failed: %v", sc.Name, err))
			continue
		}
		s.mu.Lock()
		s.lastStats[sc.Name] = stats
		s.mu.Unlock()
		s.trySend(notifier.FormatRunReport(sc.Name, stats))
	}
}

func (s *Scheduler) runOne(sc scenario.Scenario) (model.RunStats, error) {
	book, err := position.New(s.strategy, sc.InitialSupply, sc.InitialDebt,
		sc.TargetSupply, sc.WalletBalance)
	if err != nil {
		return model.RunStats{}, err
	}
	d := driver.New(s.strategy, s.recorder)
	return d.Run(sc.Name, book), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		go s.runAll()
		return "🔁 sweep started"
	case "/last":
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.lastStats) == 0 {
			return "no completed runs yet"
		}
		var out string
		for name, stats := range s.lastStats {
			out += notifier.FormatRunReport(name, stats) + "\n"
		}
		return out
	case "/scenarios":
		return notifier.FormatScenarioList(s.scenarios)
	default:
		return "commands:\n• /run\n• /last\n• /scenarios"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.notifier.SendWithRetry(s.ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
