package category_cache

import (
	"sync"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

const TTL = 5 * time.Minute

// ── Item group tree snapshot ─────────────────────────────────────────────────
// Holds every item group with its nested-set bounds. Descendant and ancestor
// lookups read from it instead of querying per request.

type treeEntry struct {
	groups    []models.ItemGroup
	byName    map[string]int
	fetchedAt time.Time
}

type Tree struct {
	mu    sync.RWMutex
	ttl   time.Duration
	entry *treeEntry
	now   func() time.Time
}

// New creates an empty tree cache; ttl <= 0 uses TTL.
func New(ttl time.Duration) *Tree {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Tree{ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot while it is fresh.
func (t *Tree) Get() ([]models.ItemGroup, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.entry != nil && t.now().Sub(t.entry.fetchedAt) < t.ttl {
		return t.entry.groups, true
	}
	return nil, false
}

// Lookup returns one group from a fresh snapshot.
func (t *Tree) Lookup(name string) (models.ItemGroup, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.entry == nil || t.now().Sub(t.entry.fetchedAt) >= t.ttl {
		return models.ItemGroup{}, false
	}
	i, ok := t.entry.byName[name]
	if !ok {
		return models.ItemGroup{}, false
	}
	return t.entry.groups[i], true
}

func (t *Tree) Set(groups []models.ItemGroup) {
	byName := make(map[string]int, len(groups))
	for i, g := range groups {
		byName[g.Name] = i
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entry = &treeEntry{groups: groups, byName: byName, fetchedAt: t.now()}
}

// ── Invalidate (call on any item group create/update/delete) ─────────────────

func (t *Tree) Invalidate() {
	t.mu.Lock()
	t.entry = nil
	t.mu.Unlock()
}
