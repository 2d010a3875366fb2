package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	mu       sync.Mutex
	messages []TaskMessage
	failNext bool
}

func (p *memPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return errors.New("broker down")
	}
	var msg TaskMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return err
	}
	p.messages = append(p.messages, msg)
	return nil
}

type memDeduper struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{claims: map[string]bool{}}
}

func (d *memDeduper) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claims[key] {
		return false, nil
	}
	d.claims[key] = true
	return true, nil
}

func (d *memDeduper) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, key)
	return nil
}

func TestDispatchCompletionExactlyOnce(t *testing.T) {
	publisher := &memPublisher{}
	dispatcher := NewDispatcher(publisher, newMemDeduper(), time.Hour)
	ctx := context.Background()

	require.NoError(t, dispatcher.DispatchCompletion(ctx, 42))
	// Duplicate completion triggers are silently absorbed.
	require.NoError(t, dispatcher.DispatchCompletion(ctx, 42))
	require.NoError(t, dispatcher.DispatchCompletion(ctx, 43))

	require.Len(t, publisher.messages, 2)
	assert.Equal(t, TaskComplete, publisher.messages[0].Kind)
	assert.Equal(t, uint64(42), publisher.messages[0].SubmissionID)
	assert.Equal(t, uint64(43), publisher.messages[1].SubmissionID)
}

func TestDispatchFailureReleasesDedupeKey(t *testing.T) {
	publisher := &memPublisher{failNext: true}
	dispatcher := NewDispatcher(publisher, newMemDeduper(), time.Hour)
	ctx := context.Background()

	err := dispatcher.DispatchCompletion(ctx, 7)
	require.ErrorIs(t, err, ErrDispatchFailure)

	// The failed claim was released, so a retry goes through.
	require.NoError(t, dispatcher.DispatchCompletion(ctx, 7))
	require.Len(t, publisher.messages, 1)
}

func TestDispatchBulkDeletePayload(t *testing.T) {
	publisher := &memPublisher{}
	dispatcher := NewDispatcher(publisher, newMemDeduper(), time.Hour)

	require.NoError(t, dispatcher.DispatchBulkDelete(context.Background(), 9, "participant", []string{"p1", "p2"}))
	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, TaskBulkDelete, msg.Kind)
	assert.Equal(t, "participant", msg.NodeType)
	assert.Equal(t, []string{"p1", "p2"}, msg.NodeIDs)
}
