// Package mirror holds the client-side mirror of the remote file store.
package mirror

import (
	"sync"

	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
)

// Store is a flat, identifier-keyed collection of items, partitioned
// conceptually by (namespace, parent). Items with the same namespace and
// path collide to the same id, which de-duplicates refetches.
type Store struct {
	mu    sync.RWMutex
	items map[string]model.Item
}

// NewStore creates an empty mirror store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]model.Item),
	}
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Upsert inserts or supersedes a single item.
func (s *Store) Upsert(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Remove drops an item by id. Removing an unknown id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// ReplacePartition atomically swaps the partition (namespace, parentID)
// for the given items. Every existing item whose namespace and parent
// match exactly is removed first; items of other partitions are left
// alone. parentID "" denotes the namespace root. Two racing replacements
// of the same partition end last-write-wins with no duplicates.
func (s *Store) ReplacePartition(ns model.Namespace, parentID string, items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.items {
		if item.Namespace == ns && item.ParentID == parentID {
			delete(s.items, id)
		}
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
}

// Partition returns the items currently attributed to (namespace, parentID).
func (s *Store) Partition(ns model.Namespace, parentID string) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Item
	for _, item := range s.items {
		if item.Namespace == ns && item.ParentID == parentID {
			out = append(out, item)
		}
	}
	return out
}

// Snapshot returns a copy of every item in the store.
func (s *Store) Snapshot() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out
}

// Len returns the number of items in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
