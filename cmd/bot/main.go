package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"LoopSentinel/internal/config"
	"LoopSentinel/internal/driver"
	"LoopSentinel/internal/notifier"
	"LoopSentinel/internal/position"
	"LoopSentinel/internal/recorder"
	"LoopSentinel/internal/scenario"
	"LoopSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] LoopSentinel starting...")

	// .env is optional; real env vars win either way.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	scenarios, err := loadScenarios(cfg)
	if err != nil {
		log.Fatalf("[FATAL] load scenarios: %v", err)
	}
	log.Printf("[INFO] %d scenario(s) loaded", len(scenarios))

	rec, cleanup := buildRecorder(cfg)
	defer cleanup()

	if !cfg.Daemon {
		runOnce(cfg, scenarios, rec)
		return
	}
	runDaemon(cfg, scenarios, rec)
}

// loadScenarios picks the scenario file when configured, then the single
// scenario from the config, and falls back to the built-in scenarios when
// neither is set.
func loadScenarios(cfg *config.Config) ([]scenario.Scenario, error) {
	if cfg.Scenario.File != "" {
		return scenario.LoadFile(cfg.Scenario.File)
	}
	if cfg.Scenario.InitialSupply == 0 {
		log.Println("[INFO] no scenario configured, using built-in scenarios")
		return scenario.Defaults(), nil
	}
	s := scenario.Scenario{
		Name:          "default",
		InitialSupply: cfg.Scenario.InitialSupply,
		InitialDebt:   cfg.Scenario.InitialDebt,
		TargetSupply:  cfg.Scenario.TargetSupply,
		WalletBalance: cfg.Scenario.WalletBalance,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []scenario.Scenario{s}, nil
}

// buildRecorder composes the configured history sinks: transcript always,
// sqlite when a path is set.
func buildRecorder(cfg *config.Config) (recorder.Recorder, func()) {
	var sinks []recorder.Recorder

	if tr, err := recorder.NewTranscriptRecorder(cfg.Output.TranscriptPath); err != nil {
		log.Printf("[WARN] init transcript recorder failed: %v", err)
	} else {
		sinks = append(sinks, tr)
	}

	if cfg.Output.SQLitePath != "" {
		if sr, err := recorder.NewSQLiteRecorder(cfg.Output.SQLitePath); err != nil {
			log.Printf("[WARN] init sqlite recorder failed: %v", err)
		} else {
			sinks = append(sinks, sr)
		}
	}

	if len(sinks) == 0 {
		return recorder.NewNoopRecorder(), func() {}
	}
	multi := recorder.NewMultiRecorder(sinks...)
	return multi, func() {
		if err := multi.Close(); err != nil {
			log.Printf("[ERROR] close recorder: %v", err)
		}
	}
}

func runOnce(cfg *config.Config, scenarios []scenario.Scenario, rec recorder.Recorder) {
	d := driver.New(cfg.Strategy, rec)
	failed := false
	for _, sc := range scenarios {
		book, err := position.New(cfg.Strategy, sc.InitialSupply, sc.InitialDebt,
			sc.TargetSupply, sc.WalletBalance)
		if err != nil {
			log.Fatalf("[FATAL] scenario %s: %v", sc.Name, err)
		}
		stats := d.Run(sc.Name, book)
		fmt.Printf("scenario %s: supply %.4f/%.4f, %d ops, net profit %.6f, health %.2f\n",
			sc.Name, stats.FinalSupply, stats.TargetSupply, stats.Operations,
			stats.NetProfit, stats.FinalHealth)
		if !stats.GoalReached {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func runDaemon(cfg *config.Config, scenarios []scenario.Scenario, rec recorder.Recorder) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tn := notifier.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	sched := scheduler.New(ctx, cfg.Strategy, scenarios, rec, tn)
	if err := sched.Register(cfg.Schedule.RunCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing sweep now")
		go sched.RunNow()
	}

	log.Println("[INFO] LoopSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] LoopSentinel stopped")
}
