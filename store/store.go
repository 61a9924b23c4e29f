// Package store defines the record store contract the webshop runs on: typed
// repositories with filtered queries, single-record writes and lifecycle hooks.
package store

import (
	"context"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
)

// Record is anything a repository can persist. The key is unique per type.
type Record interface {
	RecordKey() string
}

// Renamable records can change their key.
type Renamable interface {
	Record
	SetRecordKey(key string)
}

// Versioned records take part in optimistic concurrency checks.
type Versioned interface {
	RecordVersion() int
	SetRecordVersion(v int)
}

// Child describes a child table hanging off a record (line items, multiselect
// values, cross listings).
type Child struct {
	// Table is the child table name.
	Table string
	// ParentColumn holds the parent's key in the child table.
	ParentColumn string
	// Association is the struct field that holds the rows on the parent.
	Association string
}

// Schema describes how a record type is stored.
type Schema struct {
	Entity       events.Entity
	Table        string
	Key          string
	Children     map[string]Child
	DefaultOrder []Order
	// TieBreak is appended to every ordered read so equal sort keys come back
	// in insertion order.
	TieBreak []Order
}

// Order is one ORDER BY term.
type Order struct {
	Field string
	Desc  bool
}

// Query is a filtered, ordered and optionally bounded read.
type Query struct {
	Filters PredicateSet
	OrderBy []Order
	// Limit of zero means unbounded.
	Limit  int
	Offset int
}

// Repository is the per-type record store contract.
type Repository[T Record] interface {
	Query(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, filters PredicateSet) (int, error)
	// First returns the first match for q, or ok=false.
	First(ctx context.Context, q Query) (rec T, ok bool, err error)
	// Get returns apperrors.ErrNotFound (wrapped) when the key is unknown.
	Get(ctx context.Context, key string) (T, error)
	// Save inserts or updates rec, running the registered hooks. Hooks may
	// mutate rec; the caller sees those changes.
	Save(ctx context.Context, rec *T) error
	Delete(ctx context.Context, key string) error
	// Rename moves a record to a new key. With merge the new key must exist
	// and the old record is folded into it.
	Rename(ctx context.Context, oldKey, newKey string, merge bool) error
}
