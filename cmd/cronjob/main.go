package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	_ "github.com/lib/pq"

	"chama-backend/internal/config"
	"chama-backend/internal/jobs"
	"chama-backend/internal/logger"
	"chama-backend/internal/notify"
	"chama-backend/internal/repository/postgres"
	"chama-backend/internal/scheduler"
	"chama-backend/internal/service"
)

// oneShotJobs maps -run-once names to runner methods.
func oneShotJobs(r *jobs.JobRunner) map[string]func() {
	return map[string]func(){
		"goal-progress":       r.UpdateGoalProgress,
		"approval-reminders":  r.SendPendingApprovalReminders,
		"guarantor-reminders": r.SendGuarantorReminders,
		"all":                 r.RunAllDailyJobs,
	}
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run one job and exit: goal-progress, approval-reminders, guarantor-reminders or all")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting chama cron runner", "log_level", cfg.Log.Level, "run_once", *runOnce)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Database unreachable", "host", cfg.Database.Host, "port", cfg.Database.Port, "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)
	dispatcher, closeNotify, err := notify.FromConfig(ctx, cfg.Notifications)
	if err != nil {
		log.Fatalf("Failed to initialize notification channels: %v", err)
	}
	defer closeNotify()

	runner := jobs.NewJobRunner(jobs.Deps{
		Transactions:  store.TransactionRepository,
		Goals:         store.GoalRepository,
		Notifications: service.NewNotificationService(store.NotificationRepository, store.GroupRepository, dispatcher),
	}, cfg)

	if *runOnce != "" {
		available := oneShotJobs(runner)
		job, ok := available[*runOnce]
		if !ok {
			names := make([]string, 0, len(available))
			for name := range available {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(os.Stderr, "unknown job %q, available: %v\n", *runOnce, names)
			os.Exit(2)
		}
		job()
		logger.Info("Job finished", "job", *runOnce)
		return
	}

	s := scheduler.NewScheduler(runner)
	s.Start()
	logger.Info("Scheduler running")

	<-ctx.Done()
	logger.Info("Stopping scheduler")
	s.Stop()
}
