package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/installment-engine/internal/app"
	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()
	appLogger = appLogger.WithComponent("scheduler")

	a, err := app.Open(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to start", "error", err)
	}
	defer a.Close()

	// Jobs run on the business calendar
	c := cron.New(
		cron.WithParser(config.CronParser()),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if err := setupCronJobs(c, cfg, a); err != nil {
		appLogger.Fatalw("Failed to schedule jobs", "error", err)
	}

	// Start the scheduler
	c.Start()
	appLogger.Infow("Scheduler started",
		"sweep_cron", cfg.Scheduler.SweepCron,
		"reminder_cron", cfg.Scheduler.ReminderCron,
		"timezone", cfg.Scheduler.Timezone,
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	appLogger.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, a *app.App) error {
	// Reclassify open installments against the business date
	if _, err := c.AddFunc(cfg.Scheduler.SweepCron, func() {
		if _, err := a.Service.Sweep(context.Background()); err != nil {
			a.Log.WithError(err).Error("Status sweep failed")
		}
	}); err != nil {
		return err
	}

	// Deliver reminders that have come due
	if _, err := c.AddFunc(cfg.Scheduler.ReminderCron, func() {
		if _, err := a.Service.ProcessReminders(context.Background()); err != nil {
			a.Log.WithError(err).Error("Reminder run failed")
		}
	}); err != nil {
		return err
	}

	return nil
}
