package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/events"
	"github.com/Arcelliteserver/arcellite-sub000/internal/mirror"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/protocol"
	"github.com/Arcelliteserver/arcellite-sub000/internal/recent"
	"github.com/Arcelliteserver/arcellite-sub000/internal/remote"
	"github.com/Arcelliteserver/arcellite-sub000/internal/sync"
)

// uploadRecord is one received upload, as seen by the fake server.
type uploadRecord struct {
	Namespace string
	Path      string
	FileName  string
}

type fakeServer struct {
	mu      gosync.Mutex
	uploads []uploadRecord
	lists   []string // "namespace|path" per listing call

	failFile string // uploads of this file name fail
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/upload":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec := uploadRecord{
			Namespace: r.FormValue("namespace"),
			Path:      r.FormValue("path"),
		}
		if fh := r.MultipartForm.File["file"]; len(fh) > 0 {
			rec.FileName = fh[0].Filename
			file, _ := fh[0].Open()
			io.Copy(io.Discard, file)
			file.Close()
		}

		f.mu.Lock()
		f.uploads = append(f.uploads, rec)
		fail := f.failFile != "" && rec.FileName == f.failFile
		f.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "quota exceeded"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(protocol.UploadResponse{Namespace: rec.Namespace, Path: rec.Path})
	case "/api/v1/list":
		f.mu.Lock()
		f.lists = append(f.lists, r.URL.Query().Get("namespace")+"|"+r.URL.Query().Get("path"))
		f.mu.Unlock()
		json.NewEncoder(w).Encode(protocol.ListResponse{})
	case "/api/v1/recent":
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(protocol.RecentResponse{})
	case "/api/v1/classify-rename":
		json.NewEncoder(w).Encode(protocol.RenameSuggestion{Renamed: false})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testOrchestrator(f *fakeServer, prompt PromptFunc) (*Orchestrator, *events.Broadcaster, *httptest.Server) {
	ts := httptest.NewServer(f)
	client := remote.New(remote.Config{BaseURL: ts.URL})
	store := mirror.NewStore()
	bus := events.NewBroadcaster()
	coord := sync.NewCoordinator(client, store, nil, time.Millisecond)
	orch := NewOrchestrator(Config{
		Client:       client,
		Coordinator:  coord,
		Recent:       recent.NewTracker(client, 50),
		Bus:          bus,
		Prompt:       prompt,
		DismissDelay: time.Millisecond,
	})
	return orch, bus, ts
}

func file(name string, size int) File {
	return File{Name: name, Size: int64(size), Content: bytes.NewReader(make([]byte, size))}
}

func TestRun_ProgressMonotonic(t *testing.T) {
	f := &fakeServer{}
	orch, bus, ts := testOrchestrator(f, nil)
	defer ts.Close()

	var mu gosync.Mutex
	var seen []int
	sub := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			if ev.Type == events.EventProgress {
				mu.Lock()
				seen = append(seen, ev.Progress)
				mu.Unlock()
			}
		}
	}()

	result := orch.Run(context.Background(), []File{file("report.txt", 64 * 1024)}, model.NamespaceGeneral, "")
	bus.Unsubscribe(sub)
	<-done

	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("result = %d ok / %d failed", result.Succeeded, result.Failed)
	}

	task := result.Batch.Tasks()[0]
	if task.Status != model.UploadDone || task.Progress != 100 {
		t.Errorf("task = %+v, want done at 100", task)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress went backwards: %v", seen)
		}
	}
}

func TestRun_BatchRefreshDedup(t *testing.T) {
	f := &fakeServer{}
	orch, _, ts := testOrchestrator(f, nil)
	defer ts.Close()

	files := []File{
		file("a.txt", 8), file("b.txt", 8), file("c.txt", 8),
		file("one.mp3", 8), file("two.mp3", 8),
	}
	result := orch.Run(context.Background(), files, model.NamespaceGeneral, "")
	if result.Failed != 0 {
		t.Fatalf("failed = %d", result.Failed)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, l := range f.lists {
		counts[l]++
	}
	if len(counts) != 2 || counts["general|"] != 1 || counts["audio|"] != 1 {
		t.Errorf("refreshes = %v, want exactly one per touched destination", f.lists)
	}
}

func TestRun_AmbiguousPromptScenario(t *testing.T) {
	// Browsing "media" inside folder "trip", uploading a .jpg and an
	// .mp3: only the .jpg follows the prompt's answer; the .mp3 goes to
	// the audio root unconditionally.
	f := &fakeServer{}
	var prompts atomic.Int32
	orch, _, ts := testOrchestrator(f, func(d *Decision) {
		prompts.Add(1)
		d.UseCurrentFolder()
	})
	defer ts.Close()

	files := []File{file("photo.jpg", 8), file("song.mp3", 8)}
	result := orch.Run(context.Background(), files, model.NamespaceMedia, "trip")
	if result.Failed != 0 {
		t.Fatalf("failed = %d", result.Failed)
	}
	if prompts.Load() != 1 {
		t.Fatalf("prompt asked %d times, want 1", prompts.Load())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(f.uploads))
	}
	jpg, mp3 := f.uploads[0], f.uploads[1]
	if jpg.Namespace != "media" || jpg.Path != "trip" {
		t.Errorf("jpg went to %s/%s, want media/trip", jpg.Namespace, jpg.Path)
	}
	if mp3.Namespace != "audio" || mp3.Path != "" {
		t.Errorf("mp3 went to %s/%s, want audio root", mp3.Namespace, mp3.Path)
	}
}

func TestRun_NoPromptAtRoot(t *testing.T) {
	f := &fakeServer{}
	var prompts atomic.Int32
	orch, _, ts := testOrchestrator(f, func(d *Decision) {
		prompts.Add(1)
		d.UseRoot()
	})
	defer ts.Close()

	orch.Run(context.Background(), []File{file("a.txt", 8)}, model.NamespaceGeneral, "")
	if prompts.Load() != 0 {
		t.Errorf("prompt asked %d times at the namespace root, want 0", prompts.Load())
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	f := &fakeServer{failFile: "bad.txt"}
	orch, _, ts := testOrchestrator(f, nil)
	defer ts.Close()

	files := []File{file("bad.txt", 8), file("good.txt", 8)}
	result := orch.Run(context.Background(), files, model.NamespaceGeneral, "")

	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("result = %d ok / %d failed, want 1/1", result.Succeeded, result.Failed)
	}
	if result.AutoDismiss {
		t.Error("AutoDismiss set despite a failure")
	}

	tasks := result.Batch.Tasks()
	if tasks[0].Status != model.UploadError || tasks[0].Error != "quota exceeded" {
		t.Errorf("failed task = %+v, want server message", tasks[0])
	}
	if tasks[1].Status != model.UploadDone {
		t.Errorf("second task = %+v, want done despite earlier failure", tasks[1])
	}
}

func TestRun_SwitchesToForeignNamespace(t *testing.T) {
	f := &fakeServer{}
	orch, bus, ts := testOrchestrator(f, nil)
	defer ts.Close()

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	result := orch.Run(context.Background(), []File{file("photo.jpg", 8)}, model.NamespaceGeneral, "")
	if result.SwitchTo != model.NamespaceMedia {
		t.Fatalf("SwitchTo = %q, want media", result.SwitchTo)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-sub:
			if ev.Type == events.EventNavigate {
				if ev.Namespace != "media" {
					t.Errorf("navigate namespace = %q", ev.Namespace)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for navigate event")
		}
	}
}

func TestRun_MixedNamespacesNoSwitch(t *testing.T) {
	f := &fakeServer{}
	orch, _, ts := testOrchestrator(f, nil)
	defer ts.Close()

	files := []File{file("photo.jpg", 8), file("song.mp3", 8)}
	result := orch.Run(context.Background(), files, model.NamespaceGeneral, "")
	if result.SwitchTo != "" {
		t.Errorf("SwitchTo = %q, want none for a mixed batch", result.SwitchTo)
	}
}

// gatedReader blocks every Read until released, then serves its payload.
type gatedReader struct {
	release chan struct{}
	data    *bytes.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	<-g.release
	return g.data.Read(p)
}

func TestRun_LateProgressAfterEarlyRejection(t *testing.T) {
	// The server refuses the upload without reading the request body, so
	// the transfer goroutine is still blocked in the content reader when
	// Run finishes the batch. Its late progress report must be dropped,
	// not sent on a completed batch's event channel.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "quota exceeded"})
	}))
	defer ts.Close()

	client := remote.New(remote.Config{BaseURL: ts.URL})
	coord := sync.NewCoordinator(client, mirror.NewStore(), nil, time.Millisecond)
	orch := NewOrchestrator(Config{
		Client:      client,
		Coordinator: coord,
		Recent:      recent.NewTracker(client, 50),
		Bus:         events.NewBroadcaster(),
	})

	release := make(chan struct{})
	content := &gatedReader{release: release, data: bytes.NewReader(make([]byte, 4096))}
	files := []File{{Name: "slow.bin", Size: 4096, Content: content}}
	result := orch.Run(context.Background(), files, model.NamespaceGeneral, "")

	if result.Failed != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed)
	}
	if status := result.Batch.Tasks()[0].Status; status != model.UploadError {
		t.Fatalf("task status = %q, want error", status)
	}

	// Unblock the parked reader. Its progress callback now fires against
	// the finished batch and must be a no-op rather than a panic.
	close(release)
	time.Sleep(50 * time.Millisecond)
}

func TestOrchestrator_DismissDelay(t *testing.T) {
	orch := NewOrchestrator(Config{DismissDelay: 42 * time.Millisecond})
	if orch.DismissDelay() != 42*time.Millisecond {
		t.Errorf("DismissDelay = %v", orch.DismissDelay())
	}
}

func TestDecision_FirstResolutionWins(t *testing.T) {
	d := newDecision()
	d.UseCurrentFolder()
	d.UseRoot()
	if !d.wait(context.Background()) {
		t.Error("second resolution overrode the first")
	}
}
