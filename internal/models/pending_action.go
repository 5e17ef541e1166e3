package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind tags a pending action with the domain it belongs to. The set
// is closed; the handler registry dispatches on it.
type ActionKind string

const (
	ActionPunch  ActionKind = "punch"
	ActionLeave  ActionKind = "leave"
	ActionMood   ActionKind = "mood"
	ActionTicket ActionKind = "ticket"
)

// ValidActionKind reports whether k is one of the known kinds.
func ValidActionKind(k ActionKind) bool {
	switch k {
	case ActionPunch, ActionLeave, ActionMood, ActionTicket:
		return true
	}
	return false
}

// PendingAction is a queued, not-yet-confirmed mutation. Payload is a
// value copy of the domain record taken at enqueue time; mutating the
// original record later does not change an action already queued.
// Attempts counts failed deliveries. Seq is assigned by the store and
// fixes drain order.
type PendingAction struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	Kind      ActionKind      `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Attempts  int             `json:"attempts"`
}

func (a *PendingAction) String() string {
	return fmt.Sprintf("%s[%s] attempts=%d", a.Kind, a.ID, a.Attempts)
}
