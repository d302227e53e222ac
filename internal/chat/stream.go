// Package chat defines the message-stream collaborator the engine consumes.
// The concrete transport (Telegram, replayed archives) lives outside the
// core; redelivered or overlapping ranges are fine because reconciliation
// dedups by signal key.
package chat

import (
	"context"
	"time"
)

// Message is one chat message in arrival order. Arrival order is not
// guaranteed chronological.
type Message struct {
	ID        int64
	Timestamp time.Time
	Text      string
}

// Stream yields recent messages from the monitored group.
type Stream interface {
	// Recent returns up to limit messages, newest first.
	Recent(ctx context.Context, limit int) ([]Message, error)
}

// Watcher delivers live messages as they arrive. Watch blocks until ctx is
// done; implementations push every message, signal or not.
type Watcher interface {
	Watch(ctx context.Context, out chan<- Message) error
}

// ReplayStream serves a fixed message slice, for tests and offline replays.
type ReplayStream struct {
	Messages []Message
}

func (r *ReplayStream) Recent(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit >= len(r.Messages) {
		return r.Messages, nil
	}
	return r.Messages[:limit], nil
}

// Watch replays the fixed slice in order, then blocks until ctx is done.
func (r *ReplayStream) Watch(ctx context.Context, out chan<- Message) error {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		select {
		case out <- r.Messages[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}
