package service

import (
	"context"
	"testing"
	"time"

	"empdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketService(t *testing.T, env *testEnv) *TicketService {
	t.Helper()
	return NewTicketService(env.store, env.queue, env.registry, env.remote, env.isOnline, "u-1", testLogger())
}

func TestCreateTicketOffline(t *testing.T) {
	env := newTestEnv(t)
	svc := newTicketService(t, env)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketInput{Title: "VPN broken", Description: "cannot connect since morning"})
	require.NoError(t, err)

	assert.Equal(t, models.TicketOpen, ticket.Status)
	assert.False(t, ticket.Synced)
	assert.Equal(t, 1, env.depth(t))
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	svc := newTicketService(t, env)

	_, err := svc.Create(context.Background(), TicketInput{Description: "no title"})
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.Equal(t, 0, env.depth(t))
}

func TestTwoOfflineTicketsDrainInOrder(t *testing.T) {
	env := newTestEnv(t)
	svc := newTicketService(t, env)
	ctx := context.Background()

	t1, err := svc.Create(ctx, TicketInput{Title: "first"})
	require.NoError(t, err)
	t2, err := svc.Create(ctx, TicketInput{Title: "second"})
	require.NoError(t, err)

	require.NoError(t, env.queue.Drain(ctx))

	require.Len(t, env.remote.tickets, 2)
	assert.Equal(t, t1.TicketID, env.remote.tickets[0].TicketID)
	assert.Equal(t, t2.TicketID, env.remote.tickets[1].TicketID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	for _, ticket := range list {
		assert.True(t, ticket.Synced)
	}
	assert.Equal(t, 0, env.depth(t))
}

func TestReplyAppendsMessageAndReenqueues(t *testing.T) {
	env := newTestEnv(t)
	env.online = true
	svc := newTicketService(t, env)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketInput{Title: "printer jam"})
	require.NoError(t, err)
	require.Equal(t, 0, env.depth(t))

	env.online = false
	updated, err := svc.Reply(ctx, ticket.TicketID, "still jammed after restart")
	require.NoError(t, err)

	require.Len(t, updated.Messages, 1)
	assert.Equal(t, "still jammed after restart", updated.Messages[0].Body)
	assert.False(t, updated.Synced, "reply clears the synced flag")
	assert.Equal(t, 1, env.depth(t))

	require.NoError(t, env.queue.Drain(ctx))
	require.Len(t, env.remote.tickets, 2)
	assert.Len(t, env.remote.tickets[1].Messages, 1, "delivered copy carries the full message list")
}

func TestReplyValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newTicketService(t, env)
	ctx := context.Background()

	_, err := svc.Reply(ctx, "missing", "hello")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	ticket, err := svc.Create(ctx, TicketInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, ticket.TicketID, "")
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestTicketListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := newTicketService(t, env)
	ctx := context.Background()

	first, err := svc.Create(ctx, TicketInput{Title: "first"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Create(ctx, TicketInput{Title: "second"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.TicketID, list[0].TicketID)
	assert.Equal(t, first.TicketID, list[1].TicketID)
}

func TestQueuedTicketPayloadImmutable(t *testing.T) {
	env := newTestEnv(t)
	svc := newTicketService(t, env)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketInput{Title: "original title"})
	require.NoError(t, err)

	// Mutate the stored record after enqueue; the queued copy must not move.
	stored, err := svc.tickets.Get(ctx, ticket.TicketID)
	require.NoError(t, err)
	stored.Title = "renamed locally"
	require.NoError(t, svc.tickets.Put(ctx, stored))

	actions, err := env.store.PendingActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Contains(t, string(actions[0].Payload), "original title")
	assert.NotContains(t, string(actions[0].Payload), "renamed locally")
}
