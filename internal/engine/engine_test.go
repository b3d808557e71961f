package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/config"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/protocol"
	"github.com/Arcelliteserver/arcellite-sub000/internal/view"
)

// listingByPath serves a canned listing per "namespace|path".
func listingByPath(listings map[string]protocol.ListResponse) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/list" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		key := r.URL.Query().Get("namespace") + "|" + r.URL.Query().Get("path")
		json.NewEncoder(w).Encode(listings[key])
	})
}

func testEngine(t *testing.T, handler http.Handler) (*Engine, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	eng := New(&config.Config{
		ServerURL:             ts.URL,
		RequestTimeout:        5 * time.Second,
		ListingRetryBaseDelay: time.Millisecond,
		RecentLimit:           50,
	}, nil)
	return eng, ts
}

func TestNavigationFlow(t *testing.T) {
	eng, ts := testEngine(t, listingByPath(map[string]protocol.ListResponse{
		"general|": {
			Folders: []protocol.FolderEntry{{Name: "docs"}},
			Files:   []protocol.FileEntry{{Name: "root.txt", SizeBytes: 1}},
		},
		"general|docs": {
			Files: []protocol.FileEntry{{Name: "nested.txt", SizeBytes: 2}},
		},
	}))
	defer ts.Close()

	ctx := context.Background()
	eng.SwitchTab(ctx, view.Tab(model.NamespaceGeneral))

	folders, files := eng.View("", view.SortByName)
	if len(folders) != 1 || folders[0].Name != "docs" {
		t.Fatalf("folders = %+v", folders)
	}
	if len(files) != 1 || files[0].Name != "root.txt" {
		t.Fatalf("files = %+v", files)
	}

	eng.EnterFolder(ctx, folders[0].ID)
	if got := eng.Nav().CurrentPath(); got != "docs" {
		t.Fatalf("CurrentPath = %q", got)
	}

	_, files = eng.View("", view.SortByName)
	if len(files) != 1 || files[0].Name != "nested.txt" {
		t.Fatalf("files in docs = %+v", files)
	}

	eng.Up(ctx)
	if got := eng.Nav().CurrentPath(); got != "" {
		t.Fatalf("CurrentPath after Up = %q", got)
	}
	folders, files = eng.View("", view.SortByName)
	if len(folders) != 1 || len(files) != 1 {
		t.Fatalf("root view after Up: %d folders, %d files", len(folders), len(files))
	}
}

func TestEnterFolderIgnoresForeignIDs(t *testing.T) {
	eng, ts := testEngine(t, listingByPath(nil))
	defer ts.Close()

	before := eng.Nav()
	eng.EnterFolder(context.Background(), "recent-9")
	if eng.Nav() != before {
		t.Error("navigation state changed for a foreign id")
	}
}

func TestSwitchTab_VirtualTabNoRefresh(t *testing.T) {
	calls := 0
	eng, ts := testEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(protocol.ListResponse{})
	}))
	defer ts.Close()

	eng.SwitchTab(context.Background(), view.TabOverview)
	if calls != 0 {
		t.Errorf("virtual tab triggered %d listing calls", calls)
	}
	if eng.Nav().Tab != view.TabOverview {
		t.Errorf("Tab = %q", eng.Nav().Tab)
	}
}

func TestIsolatedEngines(t *testing.T) {
	eng1, ts1 := testEngine(t, listingByPath(map[string]protocol.ListResponse{
		"general|": {Files: []protocol.FileEntry{{Name: "a.txt"}}},
	}))
	defer ts1.Close()
	eng2, ts2 := testEngine(t, listingByPath(nil))
	defer ts2.Close()

	eng1.SwitchTab(context.Background(), view.Tab(model.NamespaceGeneral))

	if _, ok := eng1.Store.Get(codec.Encode("general", "a.txt")); !ok {
		t.Fatal("engine 1 missing its item")
	}
	if eng2.Store.Len() != 0 {
		t.Error("state leaked across engine instances")
	}
}
