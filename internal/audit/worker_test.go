package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (s *recordingSink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broker down")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() {}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWorkerDrainsInboxToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewPublisher(NewInMemoryStore())
	sink := &recordingSink{}
	worker := NewWorker(sink, pub.Inbox(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionExperienceCreated, ClaimID: 1}))
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionAttestationSigned, ClaimID: 1}))

	require.Eventually(t, func() bool { return sink.len() == 2 },
		time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerSurvivesSinkFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewInMemoryStore()
	pub := NewPublisher(store)
	sink := &recordingSink{fail: true}
	worker := NewWorker(sink, pub.Inbox(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	go func() { _ = worker.Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionExperienceCreated, ClaimID: 1}))

	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionEmployerChosen, ClaimID: 1}))

	// The failed publish is dropped from fan-out but the trail in the store
	// is complete.
	require.Eventually(t, func() bool { return sink.len() == 1 },
		time.Second, 10*time.Millisecond)
	events, err := store.ListByClaim(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
