// Package memory implements items.Store in process memory. It backs tests and
// local runs and offers a write hook for fault injection.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iho/checkledger/internal/adapter/repository/items"
)

// WriteHook is called for each write of a batch, in order, after conditions
// pass and before anything is applied. A non-nil error aborts the batch.
type WriteHook func(index int, w items.Write) error

// Option configures a Store.
type Option func(*Store)

// WithWriteHook installs a hook that can fail commits mid-batch.
func WithWriteHook(hook WriteHook) Option {
	return func(s *Store) {
		s.hook = hook
	}
}

// Store is an in-memory items.Store. A single mutex serializes commits.
type Store struct {
	mu    sync.RWMutex
	items map[items.Key]*items.Item
	// sort keys per partition, kept sorted
	primary map[string][]string
	gsi1    map[string][]string
	// GSI1 key to primary key
	gsi1Refs map[items.Key]items.Key
	hook     WriteHook
	commits  int
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		items:    make(map[items.Key]*items.Item),
		primary:  make(map[string][]string),
		gsi1:     make(map[string][]string),
		gsi1Refs: make(map[items.Key]items.Key),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetWriteHook replaces the write hook. Passing nil removes it.
func (s *Store) SetWriteHook(hook WriteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Get returns a copy of the item at key.
func (s *Store) Get(ctx context.Context, key items.Key) (*items.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok {
		return nil, items.ErrItemNotFound
	}
	return item.Clone(), nil
}

// Commit applies writes atomically.
func (s *Store) Commit(ctx context.Context, writes []items.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := items.ValidateBatch(writes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[items.Key]*items.Item, len(writes))
	for _, w := range writes {
		current[w.Key] = s.items[w.Key]
	}

	if err := items.CheckConditions(writes, current); err != nil {
		return err
	}

	// Stage every result first so a failing hook or write leaves no trace.
	staged := make([]*items.Item, len(writes))
	for i, w := range writes {
		if s.hook != nil {
			if err := s.hook(i, w); err != nil {
				return err
			}
		}
		next, err := w.Apply(current[w.Key])
		if err != nil {
			return err
		}
		staged[i] = next
	}

	for i, w := range writes {
		s.replace(w.Key, current[w.Key], staged[i])
	}
	s.commits++

	return nil
}

// Query reads one partition of an index.
func (s *Store) Query(ctx context.Context, q items.Query) (*items.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := q.Range()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.primary
	if q.Index == items.IndexGSI1 {
		index = s.gsi1
	}
	sortKeys := index[q.Partition]

	limit := q.FetchLimit()
	matched := make([]*items.Item, 0)
	visit := func(sk string) bool {
		if !r.Contains(sk) {
			return true
		}
		matched = append(matched, s.lookup(q, sk).Clone())
		return limit == 0 || len(matched) < limit
	}

	if q.Descending {
		for i := len(sortKeys) - 1; i >= 0; i-- {
			if !visit(sortKeys[i]) {
				break
			}
		}
	} else {
		for _, sk := range sortKeys {
			if !visit(sk) {
				break
			}
		}
	}

	return items.NewPage(q, matched), nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Commits returns the number of successful commits.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Snapshot returns copies of all items keyed by primary key.
func (s *Store) Snapshot() map[items.Key]*items.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[items.Key]*items.Item, len(s.items))
	for k, v := range s.items {
		out[k] = v.Clone()
	}
	return out
}

func (s *Store) lookup(q items.Query, sk string) *items.Item {
	if q.Index == items.IndexPrimary {
		return s.items[items.Key{PK: q.Partition, SK: sk}]
	}
	return s.items[s.gsi1Refs[items.Key{PK: q.Partition, SK: sk}]]
}

func (s *Store) replace(key items.Key, old, next *items.Item) {
	if old != nil {
		delete(s.items, key)
		s.primary[key.PK] = removeSorted(s.primary[key.PK], key.SK)
		if old.GSI1PK != "" {
			s.gsi1[old.GSI1PK] = removeSorted(s.gsi1[old.GSI1PK], old.GSI1SK)
			delete(s.gsi1Refs, items.Key{PK: old.GSI1PK, SK: old.GSI1SK})
		}
	}

	if next == nil {
		return
	}

	s.items[key] = next
	s.primary[key.PK] = insertSorted(s.primary[key.PK], key.SK)
	if next.GSI1PK != "" {
		s.gsi1[next.GSI1PK] = insertSorted(s.gsi1[next.GSI1PK], next.GSI1SK)
		s.gsi1Refs[items.Key{PK: next.GSI1PK, SK: next.GSI1SK}] = key
	}
}

func insertSorted(keys []string, key string) []string {
	i := sort.SearchStrings(keys, key)
	if i < len(keys) && keys[i] == key {
		return keys
	}
	keys = append(keys, "")
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}

func removeSorted(keys []string, key string) []string {
	i := sort.SearchStrings(keys, key)
	if i < len(keys) && keys[i] == key {
		return append(keys[:i], keys[i+1:]...)
	}
	return keys
}
