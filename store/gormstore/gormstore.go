// Package gormstore implements the Record Store on PostgreSQL through GORM.
//
// Every write runs in a transaction that is carried on the context, so hooks
// that write other records through their own repositories join it and an
// after-phase hook error rolls the whole write back.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

type txKey struct{}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn returns the transaction on ctx, or db bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

// Repo is a GORM-backed repository for one record type.
type Repo[T store.Record] struct {
	db     *gorm.DB
	schema store.Schema
	hooks  *events.Dispatcher
}

// New creates a repository. hooks may be nil.
func New[T store.Record](db *gorm.DB, schema store.Schema, hooks *events.Dispatcher) *Repo[T] {
	return &Repo[T]{db: db, schema: schema, hooks: hooks}
}

func (r *Repo[T]) op(name string) string {
	return fmt.Sprintf("%s.%s", r.schema.Entity, name)
}

func (r *Repo[T]) keyColumn() string {
	return fmt.Sprintf(`"%s"."%s"`, r.schema.Table, r.schema.Key)
}

// withChildren preloads every child table of the schema.
func (r *Repo[T]) withChildren(db *gorm.DB) *gorm.DB {
	for _, c := range r.schema.Children {
		if c.Association != "" {
			db = db.Preload(c.Association)
		}
	}
	return db
}

func (r *Repo[T]) Query(ctx context.Context, q store.Query) ([]T, error) {
	filters, err := Filters(r.schema, q.Filters)
	if err != nil {
		return nil, err
	}
	db := Conn(ctx, r.db).Model(new(T)).Scopes(filters, Ordering(r.schema, q.OrderBy))
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var rows []T
	if err := r.withChildren(db).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", r.op("query"), err)
	}
	return rows, nil
}

func (r *Repo[T]) Count(ctx context.Context, set store.PredicateSet) (int, error) {
	filters, err := Filters(r.schema, set)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := Conn(ctx, r.db).Model(new(T)).Scopes(filters).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%s: %w", r.op("count"), err)
	}
	return int(n), nil
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
	rec, found, err := r.load(Conn(ctx, r.db), key)
	if err != nil {
		return rec, err
	}
	if !found {
		return rec, apperrors.NotFound(r.op("get"), fmt.Sprintf("%s %s not found", r.schema.Entity, key))
	}
	return rec, nil
}

func (r *Repo[T]) load(db *gorm.DB, key string) (T, bool, error) {
	var rec T
	if key == "" {
		return rec, false, nil
	}
	err := r.withChildren(db.Model(new(T))).Where(r.keyColumn()+" = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("%s: %w", r.op("get"), err)
	}
	return rec, true, nil
}

// transaction runs fn inside the transaction on ctx, or a new one.
func (r *Repo[T]) transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx, tx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx), tx)
	})
}

func (r *Repo[T]) dispatch(ctx context.Context, evt *events.Event) error {
	if r.hooks == nil {
		return nil
	}
	evt.Entity = r.schema.Entity
	return r.hooks.Dispatch(ctx, evt)
}

func (r *Repo[T]) Save(ctx context.Context, rec *T) error {
	return r.transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		evt := &events.Event{Phase: events.BeforeSave, Record: rec}
		if prev, found, err := r.load(tx, (*rec).RecordKey()); err != nil {
			return err
		} else if found {
			evt.Before = &prev
		}
		if err := r.dispatch(ctx, evt); err != nil {
			return err
		}

		key := (*rec).RecordKey()
		if key == "" {
			return apperrors.Validation(r.op("save"), fmt.Sprintf("%s has no key", r.schema.Entity), nil)
		}
		if evt.Before == nil {
			if prev, found, err := r.load(tx, key); err != nil {
				return err
			} else if found {
				evt.Before = &prev
			}
		}

		if evt.Before == nil {
			if v, ok := any(rec).(store.Versioned); ok {
				v.SetRecordVersion(v.RecordVersion() + 1)
			}
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("%s: %w", r.op("save"), err)
			}
		} else if err := r.update(tx, key, rec); err != nil {
			return err
		}

		evt.Phase = events.AfterSave
		return r.dispatch(ctx, evt)
	})
}

// update writes the parent row, with a version check when the record is
// versioned, then replaces every child table.
func (r *Repo[T]) update(tx *gorm.DB, key string, rec *T) error {
	if v, ok := any(rec).(store.Versioned); ok {
		expected := v.RecordVersion()
		v.SetRecordVersion(expected + 1)
		res := tx.Model(rec).
			Where(fmt.Sprintf(`"%s"."version" = ?`, r.schema.Table), expected).
			Select("*").Omit(clause.Associations).
			Updates(rec)
		if res.Error != nil {
			v.SetRecordVersion(expected)
			return fmt.Errorf("%s: %w", r.op("save"), res.Error)
		}
		if res.RowsAffected == 0 {
			v.SetRecordVersion(expected)
			return apperrors.Conflict(r.op("save"), fmt.Sprintf("%s %s was modified by another request", r.schema.Entity, key))
		}
	} else if err := tx.Omit(clause.Associations).Save(rec).Error; err != nil {
		return fmt.Errorf("%s: %w", r.op("save"), err)
	}

	val := reflect.ValueOf(rec).Elem()
	for name, c := range r.schema.Children {
		if c.Association == "" {
			continue
		}
		rows := val.FieldByName(c.Association)
		if !rows.IsValid() {
			return fmt.Errorf("%s: child %s has no field %s", r.op("save"), name, c.Association)
		}
		assoc := tx.Model(rec).Association(c.Association).Unscoped()
		var err error
		if rows.Len() == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(rows.Addr().Interface())
		}
		if err != nil {
			return fmt.Errorf("%s: replace %s: %w", r.op("save"), name, err)
		}
	}
	return nil
}

func (r *Repo[T]) Delete(ctx context.Context, key string) error {
	return r.transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		prev, found, err := r.load(tx, key)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound(r.op("delete"), fmt.Sprintf("%s %s not found", r.schema.Entity, key))
		}
		evt := &events.Event{Phase: events.BeforeDelete, Record: &prev, Before: &prev, OldKey: key}
		if err := r.dispatch(ctx, evt); err != nil {
			return err
		}
		if err := tx.Select(clause.Associations).Delete(&prev).Error; err != nil {
			return fmt.Errorf("%s: %w", r.op("delete"), err)
		}
		evt.Phase = events.AfterDelete
		return r.dispatch(ctx, evt)
	})
}

// Rename rewrites the key column. Child rows follow through ON UPDATE CASCADE
// foreign keys. A merge deletes the old record instead.
func (r *Repo[T]) Rename(ctx context.Context, oldKey, newKey string, merge bool) error {
	if oldKey == newKey {
		return nil
	}
	op := r.op("rename")
	return r.transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		prev, found, err := r.load(tx, oldKey)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound(op, fmt.Sprintf("%s %s not found", r.schema.Entity, oldKey))
		}
		_, exists, err := r.load(tx, newKey)
		if err != nil {
			return err
		}
		switch {
		case merge && !exists:
			return apperrors.NotFound(op, fmt.Sprintf("%s %s does not exist, cannot merge into it", r.schema.Entity, newKey))
		case !merge && exists:
			return apperrors.Validation(op, fmt.Sprintf("%s %s already exists", r.schema.Entity, newKey), nil)
		}

		evt := &events.Event{Phase: events.BeforeRename, Record: &prev, Before: &prev, OldKey: oldKey, NewKey: newKey, Merge: merge}
		if err := r.dispatch(ctx, evt); err != nil {
			return err
		}

		if merge {
			err = tx.Select(clause.Associations).Delete(&prev).Error
		} else {
			err = tx.Model(new(T)).Where(r.keyColumn()+" = ?", oldKey).Update(r.schema.Key, newKey).Error
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		evt.Phase = events.AfterRename
		return r.dispatch(ctx, evt)
	})
}

var _ store.Repository[store.Record] = (*Repo[store.Record])(nil)
