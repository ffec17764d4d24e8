package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherEmitFillsIdentityFields(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionExperienceCreated, ClaimID: 1}))

	events, err := store.ListByClaim(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionExperienceCreated, events[0].Action)
}

func TestPublisherFansOutToInbox(t *testing.T) {
	ctx := context.Background()
	pub := NewPublisher(NewInMemoryStore())

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionAttestationSigned, ClaimID: 2}))

	select {
	case event := <-pub.Inbox():
		assert.Equal(t, ActionAttestationSigned, event.Action)
	default:
		t.Fatal("expected an event on the inbox")
	}
}

func TestPublisherFullInboxDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	// Nobody drains the inbox; emits past its capacity must still succeed
	// and still reach the store.
	const n = 300
	for i := 0; i < n; i++ {
		require.NoError(t, pub.Emit(ctx, Event{Action: ActionExperienceCreated, ClaimID: 3}))
	}
	events, err := store.ListByClaim(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, events, n)
}

func TestListByClaimFiltersOtherClaims(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionExperienceCreated, ClaimID: 1}))
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionExperienceCreated, ClaimID: 2}))
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionEmployerChosen, ClaimID: 1}))

	events, err := pub.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionExperienceCreated, events[0].Action)
	assert.Equal(t, ActionEmployerChosen, events[1].Action)
}
