package bot

import (
	"context"
	"fmt"
	"time"

	gocron "github.com/go-co-op/gocron/v2"
)

const uptimeInterval = 10 * time.Second

func (b *Bot) startScheduler() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	b.scheduler = scheduler

	if _, err := scheduler.NewJob(
		gocron.DurationJob(b.config.MaintenanceInterval),
		gocron.NewTask(b.maintain),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return fmt.Errorf("failed to create maintenance job: %w", err)
	}

	lastTick := time.Now()
	if _, err := scheduler.NewJob(
		gocron.DurationJob(uptimeInterval),
		gocron.NewTask(func() {
			now := time.Now()
			b.metrics.AddUptime(float64(now.Sub(lastTick).Milliseconds()))
			lastTick = now
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to create uptime job: %w", err)
	}

	if b.backup != nil {
		if _, err := scheduler.NewJob(
			gocron.DurationJob(b.config.BackupInterval),
			gocron.NewTask(b.runBackup),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return fmt.Errorf("failed to create backup job: %w", err)
		}
		b.logger.Info("Periodic session backup enabled", "dir", b.config.BackupDir, "interval", b.config.BackupInterval)
	}

	scheduler.Start()
	return nil
}

func (b *Bot) runBackup() {
	if _, err := b.backup.PerformBackup(context.Background()); err != nil {
		b.logger.Error("periodic session backup failed", "error", err)
	}
}

// maintain refreshes the session gauge and reclaims badger value log space.
func (b *Bot) maintain() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	total, err := b.sessions.Count(ctx)
	if err != nil {
		b.logger.Warn("cannot count sessions", "error", err)
	} else {
		b.metrics.SetSessions(total)
	}

	if b.db == nil {
		return
	}
	if err := b.db.Vacuum(); err != nil {
		b.logger.Warn("session database vacuum failed", "error", err)
		return
	}
	b.logger.Debug("session database vacuumed", "path", b.db.DbPath(), "sessions", total)
}
