// Package sync reconciles the local mirror against server truth.
package sync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/events"
	"github.com/Arcelliteserver/arcellite-sub000/internal/logging"
	"github.com/Arcelliteserver/arcellite-sub000/internal/metrics"
	"github.com/Arcelliteserver/arcellite-sub000/internal/mirror"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/protocol"
	"github.com/Arcelliteserver/arcellite-sub000/internal/remote"
	"github.com/Arcelliteserver/arcellite-sub000/internal/retry"
)

// Coordinator fetches partitions with bounded retry and merges the results
// into the mirror store. Overlapping refreshes of the same partition are
// not serialized; the store resolves them last-write-wins.
type Coordinator struct {
	client *remote.Client
	store  *mirror.Store
	bus    *events.Broadcaster
	cfg    retry.Config

	busy atomic.Int32
}

// NewCoordinator creates a coordinator over the given client and store.
func NewCoordinator(client *remote.Client, store *mirror.Store, bus *events.Broadcaster, baseDelay time.Duration) *Coordinator {
	return &Coordinator{
		client: client,
		store:  store,
		bus:    bus,
		cfg:    retry.ListingConfig(baseDelay),
	}
}

// Busy reports whether at least one refresh is in flight.
func (c *Coordinator) Busy() bool {
	return c.busy.Load() > 0
}

// Refresh lists (namespace, path) with bounded linear retry and atomically
// replaces the matching partition in the mirror store. When every attempt
// fails the store is left untouched: stale-but-available data beats an
// empty view. The error return exists for logging only; listing failures
// are never surfaced to the user.
func (c *Coordinator) Refresh(ctx context.Context, ns model.Namespace, path string) error {
	if c.busy.Add(1) == 1 && c.bus != nil {
		c.bus.Publish(events.Event{Type: events.EventBusy})
	}
	defer func() {
		if c.busy.Add(-1) == 0 && c.bus != nil {
			c.bus.Publish(events.Event{Type: events.EventIdle})
		}
	}()

	start := time.Now()

	listing, err := retry.DoWithResult(ctx, c.cfg, func() (*protocol.ListResponse, error) {
		metrics.RecordListingAttempt()
		resp, err := c.client.List(ctx, string(ns), path)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		return resp, nil
	})
	if err != nil {
		metrics.RecordListingRefresh(string(ns), "failure", time.Since(start))
		logging.Debug("listing refresh failed, keeping stale partition",
			logging.String("namespace", string(ns)),
			logging.String("path", path),
			logging.Err(err))
		return err
	}

	parentID := ""
	if path != "" {
		parentID = codec.Encode(string(ns), path)
	}

	items := make([]model.Item, 0, len(listing.Folders)+len(listing.Files))
	for _, f := range listing.Folders {
		childPath := codec.Join(path, f.Name)
		items = append(items, model.Item{
			ID:         codec.Encode(string(ns), childPath),
			Name:       f.Name,
			IsFolder:   true,
			Namespace:  ns,
			ParentID:   parentID,
			ModifiedAt: time.UnixMilli(f.MTimeMs),
			Kind:       model.KindFolder,
			ItemCount:  f.ItemCount,
		})
	}
	for _, f := range listing.Files {
		childPath := codec.Join(path, f.Name)
		items = append(items, model.Item{
			ID:         codec.Encode(string(ns), childPath),
			Name:       f.Name,
			IsFolder:   false,
			Namespace:  ns,
			ParentID:   parentID,
			ModifiedAt: time.UnixMilli(f.MTimeMs),
			SizeBytes:  f.SizeBytes,
			Kind:       model.KindOf(f.Name),
			URL:        c.client.FileURL(string(ns), childPath),
		})
	}

	c.store.ReplacePartition(ns, parentID, items)
	metrics.RecordPartitionReplacement()
	metrics.RecordListingRefresh(string(ns), "success", time.Since(start))

	logging.Debug("partition refreshed",
		logging.String("namespace", string(ns)),
		logging.String("path", path),
		logging.Int("items", len(items)))
	return nil
}
