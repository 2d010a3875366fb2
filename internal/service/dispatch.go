package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher sends a message with a routing key on the task exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Deduper claims a dedupe key so each (key, queue) pair dispatches once.
type Deduper interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisDeduper implements Deduper on Redis SET NX.
type RedisDeduper struct {
	rdb *redis.Client
}

// NewRedisDeduper builds a Redis-backed deduper.
func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

// Acquire claims a dedupe key; false means it was already claimed.
func (d *RedisDeduper) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.rdb.SetNX(ctx, "dispatch:"+key, 1, ttl).Result()
}

// Release frees a dedupe key after a failed dispatch.
func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, "dispatch:"+key).Err()
}

// TaskKind tags asynchronous follow-up messages on the submission queue.
type TaskKind string

const (
	TaskComplete   TaskKind = "complete"
	TaskBulkDelete TaskKind = "bulk_delete"
)

// TaskMessage is the tagged payload for the submission worker.
type TaskMessage struct {
	Kind         TaskKind `json:"kind"`
	SubmissionID uint64   `json:"submission_id"`
	NodeType     string   `json:"node_type,omitempty"`
	NodeIDs      []string `json:"node_ids,omitempty"`
	Attempt      int      `json:"attempt"`
}

// Dispatcher emits queue messages for asynchronous follow-up work, at most
// once per (dedupe key, routing key) pair.
type Dispatcher struct {
	publisher Publisher
	dedupe    Deduper
	ttl       time.Duration
}

// NewDispatcher wires the dispatcher to its queue and dedupe store.
func NewDispatcher(publisher Publisher, dedupe Deduper, ttl time.Duration) *Dispatcher {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Dispatcher{
		publisher: publisher,
		dedupe:    dedupe,
		ttl:       ttl,
	}
}

// Dispatch sends one message unless the same dedupe key already dispatched
// on this routing key. A failed send releases the key so callers can retry.
func (d *Dispatcher) Dispatch(ctx context.Context, routingKey, dedupeKey string, body []byte) error {
	fullKey := routingKey + ":" + dedupeKey
	claimed, err := d.dedupe.Acquire(ctx, fullKey, d.ttl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailure, err)
	}
	if !claimed {
		return nil
	}
	if err := d.publisher.Publish(ctx, routingKey, body); err != nil {
		_ = d.dedupe.Release(ctx, fullKey)
		return fmt.Errorf("%w: %v", ErrDispatchFailure, err)
	}
	return nil
}

// DispatchCompletion triggers the post-complete side effects for a
// submission (notification, manifest generation).
func (d *Dispatcher) DispatchCompletion(ctx context.Context, submissionID uint64) error {
	body, err := json.Marshal(TaskMessage{
		Kind:         TaskComplete,
		SubmissionID: submissionID,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailure, err)
	}
	return d.Dispatch(ctx, "submission", fmt.Sprintf("complete-%d", submissionID), body)
}

// DispatchBulkDelete triggers asynchronous deletion of metadata records.
func (d *Dispatcher) DispatchBulkDelete(ctx context.Context, submissionID uint64, nodeType string, nodeIDs []string) error {
	body, err := json.Marshal(TaskMessage{
		Kind:         TaskBulkDelete,
		SubmissionID: submissionID,
		NodeType:     nodeType,
		NodeIDs:      nodeIDs,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailure, err)
	}
	return d.Dispatch(ctx, "submission", fmt.Sprintf("delete-%d", submissionID), body)
}
