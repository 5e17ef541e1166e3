package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"empdesk/internal/domain"
	"empdesk/internal/events"
	"empdesk/internal/metrics"
	"empdesk/internal/models"
	"empdesk/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Queue is the durable outbox of not-yet-confirmed mutations. Enqueue is
// durable before it returns; Drain delivers queued actions sequentially in
// insertion order and never drops one, only defers it.
type Queue struct {
	store         *store.Store
	registry      *Registry
	bus           domain.EventPublisher
	logger        *zerolog.Logger
	actionTimeout time.Duration
	draining      atomic.Bool
}

func NewQueue(s *store.Store, registry *Registry, bus domain.EventPublisher, actionTimeout time.Duration, logger *zerolog.Logger) *Queue {
	if actionTimeout <= 0 {
		actionTimeout = 20 * time.Second
	}
	return &Queue{
		store:         s,
		registry:      registry,
		bus:           bus,
		logger:        logger,
		actionTimeout: actionTimeout,
	}
}

// Enqueue appends a pending action carrying a value copy of the payload.
// Later mutation of the original record does not change the queued copy.
func (q *Queue) Enqueue(ctx context.Context, kind models.ActionKind, payload any) (*models.PendingAction, error) {
	if !models.ValidActionKind(kind) {
		return nil, fmt.Errorf("unknown action kind: %s", kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	action := &models.PendingAction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   raw,
		CreatedAt: time.Now(),
	}

	if err := q.store.AppendAction(ctx, action); err != nil {
		return nil, fmt.Errorf("persist pending action: %w", err)
	}

	metrics.IncEnqueued(string(kind))
	q.refreshDepth(ctx)
	q.logger.Debug().Str("action", action.String()).Msg("Action enqueued")

	return action, nil
}

// Drain attempts delivery of every queued action, oldest first. Overlapping
// invocations no-op: a single in-flight guard keeps per-kind ordering
// without per-action locks. Failure of one action never aborts the rest;
// it is recorded as an attempts increment and retried on the next drain.
func (q *Queue) Drain(ctx context.Context) error {
	if !q.draining.CompareAndSwap(false, true) {
		q.logger.Debug().Msg("Drain already running, skipping")
		return nil
	}
	defer q.draining.Store(false)

	actions, err := q.store.PendingActions(ctx)
	if err != nil {
		return fmt.Errorf("load pending actions: %w", err)
	}
	if len(actions) == 0 {
		return nil
	}

	q.logger.Info().Int("queued", len(actions)).Msg("Draining pending actions")

	stalled := 0
	for i := range actions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		action := &actions[i]
		handler, ok := q.registry.Lookup(action.Kind)
		if !ok {
			// Configuration gap, not a transient failure: leave the
			// action queued for a later registration.
			stalled++
			q.logger.Warn().Str("action", action.String()).Msg("No handler registered, action deferred")
			q.publish(events.EventActionStalled, action)
			continue
		}

		q.deliver(ctx, action, handler)
	}

	metrics.SetStalledActions(stalled)
	q.refreshDepth(ctx)
	return nil
}

func (q *Queue) deliver(ctx context.Context, action *models.PendingAction, handler Handler) {
	actionCtx, cancel := context.WithTimeout(ctx, q.actionTimeout)
	err := handler(actionCtx, action.Payload)
	cancel()

	if err != nil {
		if incErr := q.store.IncrementActionAttempts(ctx, action.ID); incErr != nil {
			q.logger.Error().Err(incErr).Str("action", action.String()).Msg("Failed to record delivery attempt")
		}
		metrics.IncDeliveryFailed(string(action.Kind))
		q.logger.Warn().Err(err).Str("action", action.String()).Msg("Delivery failed, action stays queued")
		return
	}

	if err := q.store.DeleteAction(ctx, action.ID); err != nil {
		// The action will be redelivered on the next drain; the remote
		// side tolerates duplicates (at-least-once).
		q.logger.Error().Err(err).Str("action", action.String()).Msg("Failed to remove delivered action")
		return
	}

	metrics.IncDelivered(string(action.Kind))
	q.publish(events.EventActionSynced, action)
	q.logger.Debug().Str("action", action.String()).Msg("Action delivered")
}

func (q *Queue) publish(eventType string, action *models.PendingAction) {
	if q.bus == nil {
		return
	}
	_ = q.bus.PublishJSON(eventType, events.SyncEventPayload{
		ActionID: action.ID,
		Kind:     string(action.Kind),
		Attempts: action.Attempts,
	})
}

// Depth returns the number of queued actions.
func (q *Queue) Depth(ctx context.Context) (int, error) {
	return q.store.CountActions(ctx)
}

// Stalled returns the number of queued actions whose kind has no handler.
func (q *Queue) Stalled(ctx context.Context) (int, error) {
	actions, err := q.store.PendingActions(ctx)
	if err != nil {
		return 0, err
	}
	stalled := 0
	for i := range actions {
		if _, ok := q.registry.Lookup(actions[i].Kind); !ok {
			stalled++
		}
	}
	return stalled, nil
}

func (q *Queue) refreshDepth(ctx context.Context) {
	if depth, err := q.store.CountActions(ctx); err == nil {
		metrics.SetQueueDepth(depth)
	}
}
