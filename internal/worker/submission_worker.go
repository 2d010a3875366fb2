package worker

import (
	"context"
	"datahub/config"
	"datahub/internal/mq"
	"datahub/internal/service"
	"datahub/internal/task"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type dlqMessage struct {
	Kind         service.TaskKind `json:"kind"`
	SubmissionID uint64           `json:"submission_id"`
	Attempt      int              `json:"attempt"`
	Error        string           `json:"error"`
	FailedAt     time.Time        `json:"failed_at"`
}

// RunSubmissionWorker consumes submission follow-up tasks from RabbitMQ.
func RunSubmissionWorker(ctx context.Context) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(
		mq.QueueTasks,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	burst := config.AppConfig.WorkerBurst
	if burst <= 0 {
		burst = 1
	}
	rateLimit := config.AppConfig.WorkerRate
	var limiter *rate.Limiter
	if rateLimit <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	} else {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("submission worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleTaskMessage(ctx, client, limiter, d)
			}(delivery)
		}
	}
}

func handleTaskMessage(ctx context.Context, client *mq.Client, limiter *rate.Limiter, delivery amqp.Delivery) {
	var msg service.TaskMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		logrus.Warnf("submission worker: invalid message: %v", err)
		_ = delivery.Ack(false)
		return
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			_ = delivery.Nack(false, true)
			return
		}
	}

	if err := processTask(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = delivery.Nack(false, true)
			return
		}
		if shouldRetry(err) {
			if err := scheduleRetry(ctx, client, msg, err); err != nil {
				logrus.Warnf("submission worker: retry schedule failed: %v", err)
				_ = delivery.Nack(false, true)
				return
			}
		} else {
			if err := deadLetter(ctx, client, msg, err); err != nil {
				logrus.Warnf("submission worker: dead-letter failed: %v", err)
				_ = delivery.Nack(false, true)
				return
			}
		}
	}

	_ = delivery.Ack(false)
}

func processTask(ctx context.Context, msg service.TaskMessage) error {
	switch msg.Kind {
	case service.TaskComplete:
		return task.ProcessCompletion(ctx, msg.SubmissionID)
	case service.TaskBulkDelete:
		return task.ProcessBulkDelete(ctx, msg.SubmissionID, msg.NodeType, msg.NodeIDs)
	default:
		logrus.Warnf("submission worker: unknown task kind %q", msg.Kind)
		return nil
	}
}

func shouldRetry(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	return true
}

func scheduleRetry(ctx context.Context, client *mq.Client, msg service.TaskMessage, procErr error) error {
	maxRetry := config.AppConfig.WorkerRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return deadLetter(ctx, client, msg, procErr)
	}

	delay := pickRetryDelay(nextAttempt, config.AppConfig.WorkerRetryDelays)
	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	logrus.Infof("submission worker: task %s for submission %d retry %d in %s: %v",
		msg.Kind, msg.SubmissionID, nextAttempt, delay, procErr)
	return client.PublishRetry(ctx, body, delay)
}

func deadLetter(ctx context.Context, client *mq.Client, msg service.TaskMessage, procErr error) error {
	dlq := dlqMessage{
		Kind:         msg.Kind,
		SubmissionID: msg.SubmissionID,
		Attempt:      msg.Attempt,
		Error:        procErr.Error(),
		FailedAt:     time.Now(),
	}
	body, err := json.Marshal(dlq)
	if err != nil {
		return err
	}
	return client.PublishDLQ(ctx, body)
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
