// Package mutate implements create, rename, move and delete against the
// remote store. Every operation follows the same two-phase pattern: apply
// an optimistic local patch for responsiveness, then reconcile the
// affected partition with a full refresh.
package mutate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/logging"
	"github.com/Arcelliteserver/arcellite-sub000/internal/metrics"
	"github.com/Arcelliteserver/arcellite-sub000/internal/mirror"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/recent"
	"github.com/Arcelliteserver/arcellite-sub000/internal/remote"
	"github.com/Arcelliteserver/arcellite-sub000/internal/sync"
)

// ErrEmptyName is returned before any network call when a folder or file
// name validates as empty.
var ErrEmptyName = errors.New("name must not be empty")

// ErrUnmanaged is returned for items whose identifiers fall outside the
// managed id space and cannot be resolved to a path.
var ErrUnmanaged = errors.New("item has no managed identifier")

// Pipeline runs mutations and their reconciliation.
type Pipeline struct {
	client *remote.Client
	store  *mirror.Store
	recent *recent.Tracker
	coord  *sync.Coordinator
}

// NewPipeline creates a mutation pipeline.
func NewPipeline(client *remote.Client, store *mirror.Store, tracker *recent.Tracker, coord *sync.Coordinator) *Pipeline {
	return &Pipeline{
		client: client,
		store:  store,
		recent: tracker,
		coord:  coord,
	}
}

// CreateFolder creates currentPath/name in the given namespace. On failure
// the server message is returned so the creation dialog can stay open for
// correction; nothing is patched locally.
func (p *Pipeline) CreateFolder(ctx context.Context, ns model.Namespace, currentPath, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	target := codec.Join(currentPath, name)
	if err := p.client.Mkdir(ctx, string(ns), target); err != nil {
		metrics.RecordMutation("mkdir", "failure")
		return err
	}
	metrics.RecordMutation("mkdir", "success")

	parentID := ""
	if currentPath != "" {
		parentID = codec.Encode(string(ns), currentPath)
	}
	p.store.Upsert(model.Item{
		ID:         codec.Encode(string(ns), target),
		Name:       name,
		IsFolder:   true,
		Namespace:  ns,
		ParentID:   parentID,
		ModifiedAt: time.Now(),
		Kind:       model.KindFolder,
	})

	p.reconcile(ctx, ns, currentPath)
	return nil
}

// Rename gives an item a new name in place, preserving its parent
// directory. Submitting the unchanged name performs no remote call.
func (p *Pipeline) Rename(ctx context.Context, item model.Item, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	if newName == item.Name {
		return nil
	}

	ns, sourcePath, ok := codec.Decode(item.ID)
	if !ok {
		return ErrUnmanaged
	}

	parent := codec.Dir(sourcePath)
	targetPath := codec.Join(parent, newName)

	if err := p.client.Move(ctx, ns, sourcePath, targetPath); err != nil {
		metrics.RecordMutation("rename", "failure")
		return err
	}
	metrics.RecordMutation("rename", "success")

	p.store.Remove(item.ID)
	renamed := item
	renamed.ID = codec.Encode(ns, targetPath)
	renamed.Name = newName
	renamed.Kind = model.KindOf(newName)
	if item.IsFolder {
		renamed.Kind = model.KindFolder
	}
	p.store.Upsert(renamed)

	p.reconcile(ctx, model.Namespace(ns), parent)
	p.reloadRecent(ctx)
	return nil
}

// Move relocates an item under targetFolderPath, or to the namespace root
// when targetFolderPath is empty.
func (p *Pipeline) Move(ctx context.Context, item model.Item, targetFolderPath string) error {
	ns, sourcePath, ok := codec.Decode(item.ID)
	if !ok {
		return ErrUnmanaged
	}

	targetPath := codec.Join(targetFolderPath, item.Name)
	if targetPath == sourcePath {
		return nil
	}

	if err := p.client.Move(ctx, ns, sourcePath, targetPath); err != nil {
		metrics.RecordMutation("move", "failure")
		return err
	}
	metrics.RecordMutation("move", "success")

	p.store.Remove(item.ID)

	p.reconcile(ctx, model.Namespace(ns), codec.Dir(sourcePath))
	p.reconcile(ctx, model.Namespace(ns), targetFolderPath)
	p.reloadRecent(ctx)
	return nil
}

// Delete soft-deletes an item by moving it to the trash. The item is
// removed from the mirror and the recent index immediately; the removal is
// not rolled back if the trash call fails, the next refresh converges.
// Items from flattened views carry only a bare name, so the path is
// reconstructed from the current folder when the id does not decode.
func (p *Pipeline) Delete(ctx context.Context, item model.Item, currentNS model.Namespace, currentPath string) error {
	ns, path, ok := codec.Decode(item.ID)
	if !ok {
		ns = string(currentNS)
		path = codec.Join(currentPath, item.Name)
	}

	p.store.Remove(item.ID)
	p.recent.Remove(item.ID)
	p.recent.RemoveByPath(model.Namespace(ns), path)

	if err := p.client.MoveToTrash(ctx, ns, path); err != nil {
		metrics.RecordMutation("trash", "failure")
		return err
	}
	metrics.RecordMutation("trash", "success")

	p.reconcile(ctx, model.Namespace(ns), codec.Dir(path))
	return nil
}

// reconcile refreshes one partition, tolerating failure: stale data is
// preferred over an empty view and refresh errors are never surfaced.
func (p *Pipeline) reconcile(ctx context.Context, ns model.Namespace, path string) {
	if err := p.coord.Refresh(ctx, ns, path); err != nil {
		logging.Debug("post-mutation refresh failed",
			logging.String("namespace", string(ns)),
			logging.String("path", path),
			logging.Err(err))
	}
}

func (p *Pipeline) reloadRecent(ctx context.Context) {
	if err := p.recent.Reload(ctx); err != nil {
		logging.Debug("recent reload failed", logging.Err(err))
	}
}
