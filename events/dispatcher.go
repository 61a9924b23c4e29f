// Package events holds the lifecycle hook dispatch table used by the record store.
//
// Handlers are registered per (entity, phase) and run in registration order.
// A before-phase handler may mutate the record or return an error to abort the
// write; an after-phase handler runs inside the same write and its error rolls
// the write back.
package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Entity names a record type known to the store.
type Entity string

// Phase is a point in a record's lifecycle.
type Phase int

const (
	BeforeSave Phase = iota
	AfterSave
	BeforeDelete
	AfterDelete
	BeforeRename
	AfterRename
)

func (p Phase) String() string {
	switch p {
	case BeforeSave:
		return "before_save"
	case AfterSave:
		return "after_save"
	case BeforeDelete:
		return "before_delete"
	case AfterDelete:
		return "after_delete"
	case BeforeRename:
		return "before_rename"
	case AfterRename:
		return "after_rename"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Event is passed to every handler. Record is a pointer to the record being
// written; Before is a pointer to the stored version (nil for inserts).
type Event struct {
	Entity Entity
	Phase  Phase
	Record any
	Before any
	OldKey string
	NewKey string
	Merge  bool
}

// IsNew reports whether the event is for a record that did not exist before.
func (e *Event) IsNew() bool {
	return e.Before == nil
}

// Handler reacts to a lifecycle event.
type Handler func(ctx context.Context, evt *Event) error

type registration struct {
	name    string
	handler Handler
}

type tableKey struct {
	entity Entity
	phase  Phase
}

// Dispatcher maps (entity, phase) to an ordered list of handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[tableKey][]registration
	log      *zap.Logger
	observe  func(entity Entity, phase Phase, name string, err error)
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[tableKey][]registration),
		log:      log,
	}
}

// Observe installs a callback invoked after each handler run (used for metrics).
func (d *Dispatcher) Observe(fn func(entity Entity, phase Phase, name string, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observe = fn
}

// Register appends a handler for the given entity and phase.
func (d *Dispatcher) Register(entity Entity, phase Phase, name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := tableKey{entity, phase}
	d.handlers[k] = append(d.handlers[k], registration{name: name, handler: h})
}

// Handlers returns the names registered for an entity and phase, in order.
func (d *Dispatcher) Handlers(entity Entity, phase Phase) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	regs := d.handlers[tableKey{entity, phase}]
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.name
	}
	return names
}

// Dispatch runs the handlers for evt.Entity/evt.Phase and stops at the first error.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *Event) error {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	regs := append([]registration(nil), d.handlers[tableKey{evt.Entity, evt.Phase}]...)
	observe := d.observe
	d.mu.RUnlock()

	for _, r := range regs {
		err := r.handler(ctx, evt)
		if observe != nil {
			observe(evt.Entity, evt.Phase, r.name, err)
		}
		if err != nil {
			d.log.Debug("hook rejected write",
				zap.String("entity", string(evt.Entity)),
				zap.String("phase", evt.Phase.String()),
				zap.String("hook", r.name),
				zap.Error(err))
			return err
		}
	}
	return nil
}

// On registers a typed handler. rec is the record being written; before is the
// stored version or nil.
func On[T any](d *Dispatcher, entity Entity, phase Phase, name string, fn func(ctx context.Context, rec *T, before *T) error) {
	d.Register(entity, phase, name, func(ctx context.Context, evt *Event) error {
		rec, ok := evt.Record.(*T)
		if !ok {
			return fmt.Errorf("hook %s: unexpected record type %T", name, evt.Record)
		}
		var before *T
		if evt.Before != nil {
			before, _ = evt.Before.(*T)
		}
		return fn(ctx, rec, before)
	})
}

// OnRename registers a typed rename handler.
func OnRename(d *Dispatcher, entity Entity, phase Phase, name string, fn func(ctx context.Context, oldKey, newKey string, merge bool) error) {
	d.Register(entity, phase, name, func(ctx context.Context, evt *Event) error {
		return fn(ctx, evt.OldKey, evt.NewKey, evt.Merge)
	})
}
