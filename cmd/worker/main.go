package main

import (
	"context"
	"datahub/config"
	"datahub/internal/repo"
	"datahub/internal/storage"
	"datahub/internal/worker"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitMinio()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Info("submission worker started")
	if err := worker.RunSubmissionWorker(ctx); err != nil {
		logrus.Fatalf("submission worker stopped: %v", err)
	}
}
