package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "vouch/pkg/domain"
)

// Store is an append-only event log.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByClaim(ctx context.Context, claimID id.ClaimID) ([]Event, error)
}

// Publisher captures domain events. Persistence goes through the store
// synchronously so services can rely on the trail; external fan-out (Kafka)
// happens asynchronously through the inbox channel and the Worker, so a slow
// broker never blocks a commit.
type Publisher struct {
	store Store
	inbox chan Event
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{
		store: store,
		inbox: make(chan Event, 256),
	}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, base); err != nil {
		return err
	}
	select {
	case p.inbox <- base:
	default:
		// Fan-out is best effort; the store already has the event.
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, claimID id.ClaimID) ([]Event, error) {
	return p.store.ListByClaim(ctx, claimID)
}

// Inbox exposes the fan-out channel for the Worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
