// Package command provides the named-command registry that extensions
// register their entry points with.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry errors.
var (
	// ErrCommandExists indicates a command ID is already registered.
	ErrCommandExists = errors.New("command: already registered")

	// ErrCommandNotFound indicates no command is registered under an ID.
	ErrCommandNotFound = errors.New("command: not found")

	// ErrInvalidCommand indicates an empty ID or a nil handler.
	ErrInvalidCommand = errors.New("command: invalid command")

	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("command: handler panic")
)

// Handler runs a command. Args are passed through from the caller verbatim.
type Handler func(ctx context.Context, args ...any) (any, error)

// Registry maps command IDs to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a command.
func (r *Registry) Register(id string, h Handler) error {
	if id == "" || h == nil {
		return ErrInvalidCommand
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[id]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, id)
	}
	r.handlers[id] = h
	return nil
}

// Unregister removes a command and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.handlers[id]
	delete(r.handlers, id)
	return exists
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[id]
	return exists
}

// IDs returns the registered command IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Execute runs the command registered under id. A panicking handler is
// reported as ErrPanic.
func (r *Registry) Execute(ctx context.Context, id string, args ...any) (result any, err error) {
	r.mu.RLock()
	h, ok := r.handlers[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, id)
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("%w: %s: %v", ErrPanic, id, p)
		}
	}()

	return h(ctx, args...)
}
