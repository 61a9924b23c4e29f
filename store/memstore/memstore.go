// Package memstore is an in-process Record Store. It backs the service tests
// and the demo mode of the server.
package memstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

type row[T store.Record] struct {
	seq int64
	rec T
}

// Repo stores records of one type in memory. Returned records are copies.
type Repo[T store.Record] struct {
	mu     sync.RWMutex
	schema store.Schema
	rows   map[string]*row[T]
	seq    int64
	hooks  *events.Dispatcher
}

var _ store.Repository[store.Record] = (*Repo[store.Record])(nil)

// New creates an empty repository. hooks may be nil.
func New[T store.Record](schema store.Schema, hooks *events.Dispatcher) *Repo[T] {
	return &Repo[T]{
		schema: schema,
		rows:   make(map[string]*row[T]),
		hooks:  hooks,
	}
}

func (r *Repo[T]) op(name string) string {
	return fmt.Sprintf("%s.%s", r.schema.Entity, name)
}

// sorted returns a snapshot ordered by insertion.
func (r *Repo[T]) sorted() []*row[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*row[T], 0, len(r.rows))
	for _, rw := range r.rows {
		out = append(out, rw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *Repo[T]) Query(ctx context.Context, q store.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var matched []T
	for _, rw := range r.sorted() {
		if matchesSet(reflect.ValueOf(rw.rec), q.Filters) {
			matched = append(matched, rw.rec)
		}
	}

	order := q.OrderBy
	if len(order) == 0 {
		order = r.schema.DefaultOrder
	}
	if len(order) > 0 {
		order = append(append([]store.Order(nil), order...), r.schema.TieBreak...)
		sort.SliceStable(matched, func(i, j int) bool {
			return less(reflect.ValueOf(matched[i]), reflect.ValueOf(matched[j]), order)
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []T{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, rec := range matched {
		c, err := clone(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repo[T]) Count(ctx context.Context, filters store.PredicateSet) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, rw := range r.sorted() {
		if matchesSet(reflect.ValueOf(rw.rec), filters) {
			n++
		}
	}
	return n, nil
}

func (r *Repo[T]) First(ctx context.Context, q store.Query) (T, bool, error) {
	q.Limit = 1
	rows, err := r.Query(ctx, q)
	if err != nil || len(rows) == 0 {
		var zero T
		return zero, false, err
	}
	return rows[0], true, nil
}

func (r *Repo[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.RLock()
	rw, ok := r.rows[key]
	r.mu.RUnlock()
	if !ok {
		return zero, apperrors.NotFound(r.op("get"), fmt.Sprintf("%s %s not found", r.schema.Entity, key))
	}
	return clone(rw.rec)
}

// previous returns a copy of the stored record, or nil.
func (r *Repo[T]) previous(key string) (*T, error) {
	if key == "" {
		return nil, nil
	}
	r.mu.RLock()
	rw, ok := r.rows[key]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	c, err := clone(rw.rec)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo[T]) dispatch(ctx context.Context, evt *events.Event) error {
	if r.hooks == nil {
		return nil
	}
	evt.Entity = r.schema.Entity
	return r.hooks.Dispatch(ctx, evt)
}

func (r *Repo[T]) Save(ctx context.Context, rec *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	before, err := r.previous((*rec).RecordKey())
	if err != nil {
		return err
	}

	evt := &events.Event{Phase: events.BeforeSave, Record: rec}
	if before != nil {
		evt.Before = before
	}
	if err := r.dispatch(ctx, evt); err != nil {
		return err
	}

	key := (*rec).RecordKey()
	if key == "" {
		return apperrors.Validation(r.op("save"), fmt.Sprintf("%s has no key", r.schema.Entity), nil)
	}
	// A before hook may have assigned the key.
	if before == nil {
		if before, err = r.previous(key); err != nil {
			return err
		}
		if before != nil {
			evt.Before = before
		}
	}

	touch(reflect.ValueOf(rec), before == nil, time.Now())
	stored, err := clone(*rec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	existing, exists := r.rows[key]
	if v, ok := any(rec).(store.Versioned); ok {
		expected := v.RecordVersion()
		if exists {
			if cur := any(&existing.rec).(store.Versioned).RecordVersion(); cur != expected {
				r.mu.Unlock()
				return apperrors.Conflict(r.op("save"), fmt.Sprintf("%s %s was modified by another request", r.schema.Entity, key))
			}
		}
		v.SetRecordVersion(expected + 1)
		any(&stored).(store.Versioned).SetRecordVersion(expected + 1)
	}
	if exists {
		r.rows[key] = &row[T]{seq: existing.seq, rec: stored}
	} else {
		r.seq++
		r.rows[key] = &row[T]{seq: r.seq, rec: stored}
	}
	r.mu.Unlock()

	evt.Phase = events.AfterSave
	if err := r.dispatch(ctx, evt); err != nil {
		r.restore(key, existing, exists)
		if v, ok := any(rec).(store.Versioned); ok {
			v.SetRecordVersion(v.RecordVersion() - 1)
		}
		return err
	}
	return nil
}

// restore puts back the row that was stored before a failed write.
func (r *Repo[T]) restore(key string, prev *row[T], existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existed {
		r.rows[key] = prev
		return
	}
	delete(r.rows, key)
}

func (r *Repo[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	before, err := r.previous(key)
	if err != nil {
		return err
	}
	if before == nil {
		return apperrors.NotFound(r.op("delete"), fmt.Sprintf("%s %s not found", r.schema.Entity, key))
	}
	evt := &events.Event{Phase: events.BeforeDelete, Record: before, Before: before, OldKey: key}
	if err := r.dispatch(ctx, evt); err != nil {
		return err
	}

	r.mu.Lock()
	prev, existed := r.rows[key]
	delete(r.rows, key)
	r.mu.Unlock()

	evt.Phase = events.AfterDelete
	if err := r.dispatch(ctx, evt); err != nil {
		if existed {
			r.restore(key, prev, true)
		}
		return err
	}
	return nil
}

func (r *Repo[T]) Rename(ctx context.Context, oldKey, newKey string, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	op := r.op("rename")
	if oldKey == newKey {
		return nil
	}
	before, err := r.previous(oldKey)
	if err != nil {
		return err
	}
	if before == nil {
		return apperrors.NotFound(op, fmt.Sprintf("%s %s not found", r.schema.Entity, oldKey))
	}
	target, err := r.previous(newKey)
	if err != nil {
		return err
	}
	switch {
	case merge && target == nil:
		return apperrors.NotFound(op, fmt.Sprintf("%s %s does not exist, cannot merge into it", r.schema.Entity, newKey))
	case !merge && target != nil:
		return apperrors.Validation(op, fmt.Sprintf("%s %s already exists", r.schema.Entity, newKey), nil)
	}
	if _, ok := any(before).(store.Renamable); !ok && !merge {
		return apperrors.Validation(op, fmt.Sprintf("%s records cannot be renamed", r.schema.Entity), nil)
	}

	evt := &events.Event{Phase: events.BeforeRename, Record: before, Before: before, OldKey: oldKey, NewKey: newKey, Merge: merge}
	if err := r.dispatch(ctx, evt); err != nil {
		return err
	}

	r.mu.Lock()
	prevOld := r.rows[oldKey]
	prevNew, newExisted := r.rows[newKey]
	delete(r.rows, oldKey)
	if !merge {
		moved, err := clone(prevOld.rec)
		if err != nil {
			r.rows[oldKey] = prevOld
			r.mu.Unlock()
			return err
		}
		any(&moved).(store.Renamable).SetRecordKey(newKey)
		r.rows[newKey] = &row[T]{seq: prevOld.seq, rec: moved}
	}
	r.mu.Unlock()

	evt.Phase = events.AfterRename
	if err := r.dispatch(ctx, evt); err != nil {
		r.mu.Lock()
		r.rows[oldKey] = prevOld
		if newExisted {
			r.rows[newKey] = prevNew
		} else {
			delete(r.rows, newKey)
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// touch fills created_at on insert and updated_at on every write, as the
// database does through column defaults.
func touch(v reflect.Value, isNew bool, now time.Time) {
	if f, ok := field(v, "created_at"); ok && isNew && f.CanSet() && f.Type() == timeType && f.Interface().(time.Time).IsZero() {
		f.Set(reflect.ValueOf(now))
	}
	if f, ok := field(v, "updated_at"); ok && f.CanSet() && f.Type() == timeType {
		f.Set(reflect.ValueOf(now))
	}
}

// clone deep-copies a record so callers never share memory with the store.
func clone[T any](v T) (T, error) {
	var out T
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return out, fmt.Errorf("memstore: copy %T: %w", v, err)
	}
	if err := gob.NewDecoder(&buf).Decode(&out); err != nil {
		return out, fmt.Errorf("memstore: copy %T: %w", v, err)
	}
	return out, nil
}
