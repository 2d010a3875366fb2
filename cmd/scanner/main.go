package main

import (
	"context"
	"datahub/config"
	"datahub/internal/repo"
	"datahub/internal/service"
	"datahub/internal/storage"
	"datahub/utils"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const scanLockKey = "scanner:inactivity"

// main runs one full inactivity and retention scan, guarded by a Redis lock
// so overlapping schedules do not double-notify or double-delete.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitMinio()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock := repo.NewRedisLock(repo.Redis, scanLockKey, time.Hour)
	if err := lock.Lock(ctx); err != nil {
		if errors.Is(err, repo.ErrLockBusy) {
			logrus.Info("scanner: another run holds the lock, exiting")
			return
		}
		logrus.Fatalf("scanner: lock failed: %v", err)
	}
	defer func() {
		if err := lock.Unlock(context.Background()); err != nil {
			logrus.Warnf("scanner: unlock failed: %v", err)
		}
	}()

	notifier := utils.NewEmailNotifier(config.AppConfig.PortalURL)
	submissions := service.NewSubmissionService(repo.Db, nil, config.AppConfig.BucketName)
	scanner := service.NewScanner(
		repo.Db,
		storage.Default,
		notifier,
		submissions,
		config.AppConfig.InactivityReminderDays,
		config.AppConfig.InactivityFinalDays,
		config.AppConfig.CompletedRetentionDays,
	)

	logrus.Info("scanner: run started")
	if err := scanner.Run(ctx); err != nil {
		logrus.Fatalf("scanner: run failed: %v", err)
	}
	logrus.Info("scanner: run finished")
}
