package outbox

import (
	"context"
	"encoding/json"
	"sync"

	"empdesk/internal/models"
)

// Handler delivers one pending action's payload to the remote system and,
// on success, marks the corresponding local record synced. A handler that
// returns an error must leave the local store untouched.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Registry maps action kinds to their delivery handlers. Domain services
// register exactly one handler per kind at process start; re-registering
// overwrites.
type Registry struct {
	mu       sync.RWMutex
	handlers map[models.ActionKind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.ActionKind]Handler)}
}

func (r *Registry) Register(kind models.ActionKind, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

func (r *Registry) Lookup(kind models.ActionKind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}
