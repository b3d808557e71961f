// Package recent maintains the most-recently-touched index across all
// namespaces.
package recent

import (
	"context"
	"sync"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/logging"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/protocol"
	"github.com/Arcelliteserver/arcellite-sub000/internal/remote"
)

// Tracker keeps a secondary, independently refreshed index of recently
// accessed items.
type Tracker struct {
	client *remote.Client
	limit  int

	mu      sync.RWMutex
	entries []model.RecentEntry
}

// NewTracker creates a tracker capped to limit entries.
func NewTracker(client *remote.Client, limit int) *Tracker {
	return &Tracker{
		client: client,
		limit:  limit,
	}
}

// TrackPath registers an access with the recency endpoint. Fire and
// forget: never blocks and never fails visibly.
func (t *Tracker) TrackPath(ns model.Namespace, path, name string, isFolder bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := t.client.TrackRecent(ctx, protocol.TrackRecentRequest{
			Namespace: string(ns),
			Path:      path,
			Name:      name,
			IsFolder:  isFolder,
		})
		if err != nil {
			logging.Debug("recent tracking failed", logging.Err(err))
		}
	}()
}

// Track registers an access for a mirror item. Items whose identifiers do
// not decode (recent or device entries) are skipped.
func (t *Tracker) Track(item model.Item) {
	ns, path, ok := codec.Decode(item.ID)
	if !ok {
		return
	}
	t.TrackPath(model.Namespace(ns), path, item.Name, item.IsFolder)
}

// Reload fetches the most recent entries, replacing the whole local list.
// Same replace-not-merge discipline as mirror partitions.
func (t *Tracker) Reload(ctx context.Context) error {
	resp, err := t.client.Recent(ctx, t.limit)
	if err != nil {
		return err
	}

	entries := make([]model.RecentEntry, 0, len(resp.Items))
	for _, it := range resp.Items {
		entries = append(entries, model.RecentEntry{
			ID:         it.ID,
			Name:       it.Name,
			Namespace:  model.Namespace(it.Namespace),
			Path:       it.Path,
			IsFolder:   it.IsFolder,
			Kind:       model.KindOf(it.Name),
			AccessedAt: it.AccessedAt,
		})
	}

	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
	return nil
}

// Remove drops an entry by id, used for optimistic delete.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if e.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// RemoveByPath drops an entry matching (namespace, path).
func (t *Tracker) RemoveByPath(ns model.Namespace, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if e.Namespace == ns && e.Path == path {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Entries returns a copy of the current list, most recent first.
func (t *Tracker) Entries() []model.RecentEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.RecentEntry, len(t.entries))
	copy(out, t.entries)
	return out
}
