package store

import (
	"context"
	"fmt"
	"time"

	"empdesk/internal/models"
)

// AppendAction persists a pending action at the tail of the queue. The
// assigned sequence number fixes drain order.
func (s *Store) AppendAction(ctx context.Context, action *models.PendingAction) error {
	query := `INSERT INTO pending_actions (id, kind, payload, created_at, attempts)
              VALUES (?, ?, ?, ?, ?)`
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx, query,
		action.ID,
		string(action.Kind),
		string(action.Payload),
		action.CreatedAt,
		action.Attempts,
	)
	if err != nil {
		return fmt.Errorf("failed to append pending action: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pending action seq: %w", err)
	}
	action.Seq = seq

	return nil
}

// PendingActions returns the whole queue in insertion order.
func (s *Store) PendingActions(ctx context.Context) ([]models.PendingAction, error) {
	query := `SELECT seq, id, kind, payload, created_at, attempts
              FROM pending_actions ORDER BY seq ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}
	defer rows.Close()

	var actions []models.PendingAction
	for rows.Next() {
		var a models.PendingAction
		var kind, payload string
		if err := rows.Scan(&a.Seq, &a.ID, &kind, &payload, &a.CreatedAt, &a.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan pending action: %w", err)
		}
		a.Kind = models.ActionKind(kind)
		a.Payload = []byte(payload)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending actions: %w", err)
	}
	return actions, nil
}

// DeleteAction removes a confirmed action from the queue.
func (s *Store) DeleteAction(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pending action: %w", err)
	}
	return nil
}

// IncrementActionAttempts records one more failed delivery for the action.
func (s *Store) IncrementActionAttempts(ctx context.Context, id string) error {
	query := `UPDATE pending_actions SET attempts = attempts + 1 WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to increment pending action attempts: %w", err)
	}
	return nil
}

// CountActions returns the queue depth.
func (s *Store) CountActions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_actions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending actions: %w", err)
	}
	return count, nil
}

// HasActionForPayloadID reports whether any queued action of the kind
// carries a payload referencing the given record ID. Used by the services'
// repair path for records stuck unsynced without an action.
func (s *Store) HasActionForPayloadID(ctx context.Context, kind models.ActionKind, field, id string) (bool, error) {
	query := `SELECT COUNT(*) FROM pending_actions
              WHERE kind = ? AND json_extract(payload, '$.' || ?) = ?`
	var count int
	err := s.db.QueryRowContext(ctx, query, string(kind), field, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to probe pending actions: %w", err)
	}
	return count > 0, nil
}
