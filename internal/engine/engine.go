// Package engine wires the sync engine together: remote client, mirror
// store, coordinator, mutation pipeline, upload orchestrator and the
// recent-access tracker, owned explicitly rather than as ambient globals
// so tests can construct isolated instances.
package engine

import (
	"context"
	"sync"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/config"
	"github.com/Arcelliteserver/arcellite-sub000/internal/events"
	"github.com/Arcelliteserver/arcellite-sub000/internal/mirror"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/mutate"
	"github.com/Arcelliteserver/arcellite-sub000/internal/recent"
	"github.com/Arcelliteserver/arcellite-sub000/internal/remote"
	enginesync "github.com/Arcelliteserver/arcellite-sub000/internal/sync"
	"github.com/Arcelliteserver/arcellite-sub000/internal/upload"
	"github.com/Arcelliteserver/arcellite-sub000/internal/view"
)

// Engine is the application-side controller of the file view, minus
// rendering.
type Engine struct {
	Client      *remote.Client
	Store       *mirror.Store
	Recent      *recent.Tracker
	Coordinator *enginesync.Coordinator
	Mutations   *mutate.Pipeline
	Uploads     *upload.Orchestrator
	Bus         *events.Broadcaster

	mu  sync.RWMutex
	nav view.Nav
}

// New builds an engine from configuration. prompt resolves the
// folder-vs-root upload decision; pass nil to always use the root.
func New(cfg *config.Config, prompt upload.PromptFunc) *Engine {
	bus := events.NewBroadcaster()
	client := remote.New(remote.Config{
		BaseURL:   cfg.ServerURL,
		Timeout:   cfg.RequestTimeout,
		AuthToken: cfg.AuthToken,
	})
	store := mirror.NewStore()
	tracker := recent.NewTracker(client, cfg.RecentLimit)
	coord := enginesync.NewCoordinator(client, store, bus, cfg.ListingRetryBaseDelay)

	return &Engine{
		Client:      client,
		Store:       store,
		Recent:      tracker,
		Coordinator: coord,
		Mutations:   mutate.NewPipeline(client, store, tracker, coord),
		Uploads: upload.NewOrchestrator(upload.Config{
			Client:       client,
			Coordinator:  coord,
			Recent:       tracker,
			Bus:          bus,
			Prompt:       prompt,
			AutoRename:   cfg.AutoRenameImages,
			DismissDelay: cfg.UploadDismissDelay,
		}),
		Bus: bus,
		nav: view.Nav{Tab: view.Tab(model.NamespaceGeneral)},
	}
}

// Nav returns the current navigation state.
func (e *Engine) Nav() view.Nav {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nav
}

// SwitchTab activates a tab at its root and refreshes it when it maps to
// a namespace.
func (e *Engine) SwitchTab(ctx context.Context, tab view.Tab) {
	e.mu.Lock()
	e.nav = view.Nav{Tab: tab}
	e.mu.Unlock()

	if ns, ok := tab.Namespace(); ok {
		e.refresh(ctx, ns, "")
	}
}

// EnterFolder descends into a folder by id.
func (e *Engine) EnterFolder(ctx context.Context, folderID string) {
	ns, path, ok := codec.Decode(folderID)
	if !ok {
		return
	}

	e.mu.Lock()
	e.nav = view.Nav{Tab: view.Tab(ns), FolderID: folderID}
	e.mu.Unlock()

	e.refresh(ctx, model.Namespace(ns), path)
}

// Up ascends to the parent folder.
func (e *Engine) Up(ctx context.Context) {
	e.mu.Lock()
	nav := e.nav
	e.mu.Unlock()

	ns, path, ok := codec.Decode(nav.FolderID)
	if !ok {
		return
	}

	parent := codec.Dir(path)
	folderID := ""
	if parent != "" {
		folderID = codec.Encode(ns, parent)
	}

	e.mu.Lock()
	e.nav = view.Nav{Tab: nav.Tab, FolderID: folderID}
	e.mu.Unlock()

	e.refresh(ctx, model.Namespace(ns), parent)
}

// View computes the folder and file lists for the current navigation
// state.
func (e *Engine) View(search string, key view.SortKey) (folders, files []model.Item) {
	return view.Compute(e.Store.Snapshot(), e.Nav(), search, key)
}

func (e *Engine) refresh(ctx context.Context, ns model.Namespace, path string) {
	// Listing refresh failures keep the stale partition and are never
	// surfaced; Refresh logs them at debug level.
	_ = e.Coordinator.Refresh(ctx, ns, path)
}
