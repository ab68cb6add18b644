// Command spin-bot runs the multi-account spin daemon: it loads
// configuration, seeds the database, starts the orchestrator and the
// status API, then waits for an interrupt signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/auth"
	"spinbot.dev/spin-api-go/internal/config"
	"spinbot.dev/spin-api-go/internal/database"
	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/executor"
	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/orchestrator"
	"spinbot.dev/spin-api-go/internal/schedule"
	"spinbot.dev/spin-api-go/internal/server"
	"spinbot.dev/spin-api-go/internal/state"
)

func main() {
	settingsPath := flag.String("config", "Settings.ini", "path to Settings.ini")
	flag.Parse()

	// .env is optional; environment variables already set win.
	_ = godotenv.Load()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		log.Printf("Warning: failed to load %s: %v, using defaults", *settingsPath, err)
		settings = config.NewDefaultSettings()
	}
	if base := os.Getenv("SPIN_API_BASE_URL"); base != "" {
		settings.APIBaseURL = base
	}

	logger := logging.NewLogger("main").SetMinLevel(logging.ParseLevel(settings.LogLevel))
	if settings.LogFilePath != "" {
		logFile, err := os.OpenFile(settings.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.Error("failed to open log file "+settings.LogFilePath, err)
			os.Exit(1)
		}
		defer logFile.Close()
		logger.AddOutput(logFile)
	}

	overrides, err := config.LoadSchedules(settings.SchedulesPath)
	if err != nil {
		logger.Error("failed to load schedule overrides", err)
		os.Exit(1)
	}

	result, err := config.LoadAccounts(settings.AccountsPath)
	if err != nil {
		logger.Error("failed to load accounts", err)
		os.Exit(1)
	}
	for _, reason := range result.Skipped {
		logger.Warn("skipped account entry: " + reason)
	}
	if len(result.Configs) == 0 {
		logger.Error("no usable accounts configured", nil)
		os.Exit(1)
	}

	db, err := database.Open(settings.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", err)
		os.Exit(1)
	}

	store := state.NewStore()
	var suspended []string
	for _, cfg := range result.Configs {
		if err := store.AddAccount(cfg); err != nil {
			logger.Error("failed to register account "+cfg.ID, err)
			os.Exit(1)
		}
		row, err := db.UpsertAccount(cfg.ID, cfg.AchievementGroup)
		if err != nil {
			logger.Error("failed to seed account row for "+cfg.ID, err)
			os.Exit(1)
		}
		// Counters survive restarts through the database.
		store.Update(cfg.ID, func(a *state.Account) {
			a.SpinCount = row.SpinCount
			a.AchievementsClaimed = row.AchievementsClaimed
			a.Balance = row.Balance
		})
		if row.IsSuspended {
			suspended = append(suspended, cfg.ID)
		}
	}
	logger.Info("loaded accounts: " + quantify(len(result.Configs)))

	bus := events.NewEventBus(256)
	defer bus.Stop()
	recorder := database.NewRecorder(db, bus, logger)
	defer recorder.Detach()

	client := api.NewClient(settings.APIBaseURL, settings.RequestTimeout)
	writer := config.NewAccountWriter(settings.AccountsPath)
	authMgr := auth.NewManager(client, store, writer, bus, logger)
	if overrides.RefreshTime != "" {
		clock, err := schedule.ParseClock(overrides.RefreshTime)
		if err != nil {
			logger.Error("invalid refreshTime override", err)
			os.Exit(1)
		}
		authMgr.SetRefreshTime(clock)
	}

	exec := executor.New(client, store, authMgr, bus, logger,
		time.Duration(settings.ClaimDelayMinMs)*time.Millisecond,
		time.Duration(settings.ClaimDelayMaxMs)*time.Millisecond)

	opts := orchestrator.Options{
		TickInterval:  settings.TickInterval,
		Cooldown:      time.Duration(settings.CooldownSeconds) * time.Second,
		FundsInterval: settings.FundsInterval,
	}
	if overrides.FundsIntervalMinutes > 0 {
		opts.FundsInterval = time.Duration(overrides.FundsIntervalMinutes) * time.Minute
	}
	if overrides.ClaimTime != "" {
		clock, err := schedule.ParseClock(overrides.ClaimTime)
		if err != nil {
			logger.Error("invalid claimTime override", err)
			os.Exit(1)
		}
		opts.ClaimTime = &clock
	}

	orch := orchestrator.New(store, exec, authMgr, bus, logger, opts)
	for _, id := range suspended {
		logger.AccountWarn(id, "account previously suspended, loop not started")
		if err := orch.StopAccount(id); err != nil {
			logger.AccountError(id, "failed to stop suspended account", err)
		}
	}

	srv := server.New(settings.ListenAddr, store, orch, logger)
	srv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orch.Run(ctx)
		close(done)
	}()

	flusher := newCounterFlusher(db, store, logger, settings.ActivityRetention)
	stopFlush := flusher.Start(settings.FlushInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown signal received")

	cancel()
	<-done
	stopFlush()
	flusher.Flush()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("status API shutdown failed", err)
	}
	logger.Info("shutdown complete")
}

func quantify(n int) string {
	if n == 1 {
		return "1 account"
	}
	return fmt.Sprintf("%d accounts", n)
}
