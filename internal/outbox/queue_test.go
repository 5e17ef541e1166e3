package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"empdesk/internal/models"
	"empdesk/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) (*Queue, *Registry, *store.Store) {
	t.Helper()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	s, err := store.Open(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	registry := NewRegistry()
	q := NewQueue(s, registry, nil, 5*time.Second, &logger)
	return q, registry, s
}

// recordingHandler collects delivered payload IDs in call order.
type recordingHandler struct {
	mu    sync.Mutex
	ids   []string
	calls int
	fail  int // fail the first N calls
}

func (h *recordingHandler) handle(_ context.Context, payload json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.fail {
		return errors.New("remote unreachable")
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return err
	}
	h.ids = append(h.ids, body.ID)
	return nil
}

func TestQueue_EnqueueRejectsUnknownKind(t *testing.T) {
	q, _, _ := setupQueue(t)

	_, err := q.Enqueue(context.Background(), models.ActionKind("payslip"), map[string]string{"id": "x"})
	assert.Error(t, err)
}

func TestQueue_DrainEmptyIsNoOp(t *testing.T) {
	q, registry, _ := setupQueue(t)

	h := &recordingHandler{}
	registry.Register(models.ActionPunch, h.handle)

	require.NoError(t, q.Drain(context.Background()))
	assert.Zero(t, h.calls)
}

func TestQueue_DrainDeliversInOrder(t *testing.T) {
	q, registry, _ := setupQueue(t)
	ctx := context.Background()

	h := &recordingHandler{}
	registry.Register(models.ActionTicket, h.handle)

	_, err := q.Enqueue(ctx, models.ActionTicket, map[string]string{"id": "T1"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, models.ActionTicket, map[string]string{"id": "T2"})
	require.NoError(t, err)

	require.NoError(t, q.Drain(ctx))

	assert.Equal(t, []string{"T1", "T2"}, h.ids)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestQueue_RetryAfterFailure(t *testing.T) {
	q, registry, s := setupQueue(t)
	ctx := context.Background()

	h := &recordingHandler{fail: 1}
	registry.Register(models.ActionPunch, h.handle)

	_, err := q.Enqueue(ctx, models.ActionPunch, map[string]string{"id": "P1"})
	require.NoError(t, err)

	// First drain fails; the action stays with attempts=1.
	require.NoError(t, q.Drain(ctx))
	actions, err := s.PendingActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, 1, actions[0].Attempts)

	// Second drain succeeds and empties the queue.
	require.NoError(t, q.Drain(ctx))
	actions, err = s.PendingActions(ctx)
	require.NoError(t, err)
	assert.Empty(t, actions)
	assert.Equal(t, []string{"P1"}, h.ids)
}

func TestQueue_FailingKindDoesNotBlockOthers(t *testing.T) {
	q, registry, _ := setupQueue(t)
	ctx := context.Background()

	registry.Register(models.ActionLeave, func(context.Context, json.RawMessage) error {
		return errors.New("always down")
	})
	mood := &recordingHandler{}
	registry.Register(models.ActionMood, mood.handle)

	_, err := q.Enqueue(ctx, models.ActionLeave, map[string]string{"id": "L1"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, models.ActionMood, map[string]string{"id": "M1"})
	require.NoError(t, err)

	require.NoError(t, q.Drain(ctx))

	assert.Equal(t, []string{"M1"}, mood.ids)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestQueue_MissingHandlerDefersAction(t *testing.T) {
	q, registry, _ := setupQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, models.ActionTicket, map[string]string{"id": "T1"})
	require.NoError(t, err)

	require.NoError(t, q.Drain(ctx))

	stalled, err := q.Stalled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stalled)

	// Once a handler shows up the deferred action is delivered.
	h := &recordingHandler{}
	registry.Register(models.ActionTicket, h.handle)
	require.NoError(t, q.Drain(ctx))
	assert.Equal(t, []string{"T1"}, h.ids)
}

func TestQueue_ConcurrentDrainNoDuplicates(t *testing.T) {
	q, registry, _ := setupQueue(t)
	ctx := context.Background()

	var mu sync.Mutex
	delivered := map[string]int{}
	release := make(chan struct{})
	registry.Register(models.ActionPunch, func(_ context.Context, payload json.RawMessage) error {
		<-release
		var body struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return err
		}
		mu.Lock()
		delivered[body.ID]++
		mu.Unlock()
		return nil
	})

	_, err := q.Enqueue(ctx, models.ActionPunch, map[string]string{"id": "P1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Drain(ctx)
		}()
	}
	// Give the winning drain time to reach the handler, then release.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, delivered["P1"])
}

func TestRegistry_Overwrite(t *testing.T) {
	registry := NewRegistry()

	registry.Register(models.ActionMood, func(context.Context, json.RawMessage) error { return errors.New("old") })
	registry.Register(models.ActionMood, func(context.Context, json.RawMessage) error { return nil })

	h, ok := registry.Lookup(models.ActionMood)
	require.True(t, ok)
	assert.NoError(t, h(context.Background(), nil))

	_, ok = registry.Lookup(models.ActionLeave)
	assert.False(t, ok)
}
