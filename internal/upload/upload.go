// Package upload drives the multi-file upload pipeline: per-file namespace
// routing, a single folder-vs-root decision, sequential transfer with
// streamed progress, and deduplicated refreshes of every namespace touched.
package upload

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/events"
	"github.com/Arcelliteserver/arcellite-sub000/internal/logging"
	"github.com/Arcelliteserver/arcellite-sub000/internal/metrics"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/recent"
	"github.com/Arcelliteserver/arcellite-sub000/internal/remote"
	enginesync "github.com/Arcelliteserver/arcellite-sub000/internal/sync"
)

// File is one file submitted for upload.
type File struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Decision is a pending folder-vs-root choice handed to the caller when a
// batch is ambiguous. Exactly one of UseCurrentFolder or UseRoot resolves
// it; resolving twice is a no-op.
type Decision struct {
	once sync.Once
	ch   chan bool
}

func newDecision() *Decision {
	return &Decision{ch: make(chan bool, 1)}
}

// UseCurrentFolder places matching files into the folder being browsed.
func (d *Decision) UseCurrentFolder() {
	d.once.Do(func() { d.ch <- true })
}

// UseRoot places matching files at the namespace root.
func (d *Decision) UseRoot() {
	d.once.Do(func() { d.ch <- false })
}

func (d *Decision) wait(ctx context.Context) bool {
	select {
	case v := <-d.ch:
		return v
	case <-ctx.Done():
		return false
	}
}

// PromptFunc receives a pending decision to resolve. It may resolve
// immediately or hand the decision to a UI and return.
type PromptFunc func(d *Decision)

// Scoreboard counts tasks by state.
type Scoreboard struct {
	Pending   int
	Uploading int
	Done      int
	Failed    int
}

// Batch tracks the upload tasks of one submission.
type Batch struct {
	ID string

	mu    sync.RWMutex
	tasks []*model.UploadTask
	index map[string]*model.UploadTask
}

func newBatch(files []File) *Batch {
	b := &Batch{
		ID:    uuid.New().String(),
		index: make(map[string]*model.UploadTask, len(files)),
	}
	for _, f := range files {
		task := &model.UploadTask{
			ID:       uuid.New().String(),
			FileName: f.Name,
			FileSize: f.Size,
			Status:   model.UploadPending,
		}
		b.tasks = append(b.tasks, task)
		b.index[task.ID] = task
	}
	return b
}

// Tasks returns a copy of the batch's tasks in submission order.
func (b *Batch) Tasks() []model.UploadTask {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.UploadTask, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, *t)
	}
	return out
}

// Scoreboard returns the current per-state counts.
func (b *Batch) Scoreboard() Scoreboard {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var s Scoreboard
	for _, t := range b.tasks {
		switch t.Status {
		case model.UploadPending:
			s.Pending++
		case model.UploadUploading:
			s.Uploading++
		case model.UploadDone:
			s.Done++
		case model.UploadError:
			s.Failed++
		}
	}
	return s
}

// taskEvent advances one task's state machine.
type taskEvent struct {
	taskID   string
	progress int                // -1 when not a progress event
	status   model.UploadStatus // "" when not a status change
	errMsg   string
}

// taskSink feeds task events to the batch consumer. Progress callbacks
// run on transfer goroutines that can outlive their Upload call when the
// server rejects a request without draining the body, so the channel is
// only ever closed under the same lock that gates every send: late events
// are dropped instead of hitting a closed channel.
type taskSink struct {
	mu     sync.Mutex
	ch     chan taskEvent
	closed bool
}

func newTaskSink(buf int) *taskSink {
	return &taskSink{ch: make(chan taskEvent, buf)}
}

func (s *taskSink) send(ev taskEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- ev
}

func (s *taskSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// apply advances the task, keeping progress monotonic.
func (b *Batch) apply(ev taskEvent) (model.UploadTask, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, ok := b.index[ev.taskID]
	if !ok || task.Status.Terminal() {
		return model.UploadTask{}, false
	}
	if ev.status != "" {
		task.Status = ev.status
		if ev.status == model.UploadDone {
			task.Progress = 100
		}
		if ev.status == model.UploadError {
			task.Error = ev.errMsg
		}
	}
	if ev.progress >= 0 && ev.progress > task.Progress {
		task.Progress = ev.progress
	}
	return *task, true
}

// Result summarizes a finished batch.
type Result struct {
	Batch     *Batch
	Succeeded int
	Failed    int
	// AutoDismiss is set when every file succeeded; the progress panel
	// may close itself after the configured delay.
	AutoDismiss bool
	// SwitchTo is non-empty when the whole batch landed in a single
	// namespace different from the one being browsed.
	SwitchTo model.Namespace
}

// Orchestrator runs upload batches.
type Orchestrator struct {
	client       *remote.Client
	coord        *enginesync.Coordinator
	recent       *recent.Tracker
	bus          *events.Broadcaster
	prompt       PromptFunc
	autoRename   bool
	dismissDelay time.Duration
}

// Config holds orchestrator configuration.
type Config struct {
	Client       *remote.Client
	Coordinator  *enginesync.Coordinator
	Recent       *recent.Tracker
	Bus          *events.Broadcaster
	Prompt       PromptFunc
	AutoRename   bool
	DismissDelay time.Duration
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		client:       cfg.Client,
		coord:        cfg.Coordinator,
		recent:       cfg.Recent,
		bus:          cfg.Bus,
		prompt:       cfg.Prompt,
		autoRename:   cfg.AutoRename,
		dismissDelay: cfg.DismissDelay,
	}
}

// destination is one (namespace, path) pair touched by a batch.
type destination struct {
	ns   model.Namespace
	path string
}

// Run uploads a batch of files while the user browses (browseNS,
// browsePath). Files are classified into a destination namespace by
// extension, uploaded one at a time, and every distinct destination is
// refreshed exactly once at the end. Run blocks until the batch is done;
// submit concurrent batches from separate goroutines.
func (o *Orchestrator) Run(ctx context.Context, files []File, browseNS model.Namespace, browsePath string) *Result {
	batch := newBatch(files)
	if len(files) == 0 {
		return &Result{Batch: batch, AutoDismiss: true}
	}

	// One yes/no prompt, asked only when the first file targets the
	// namespace being browsed and the user is inside a non-root folder.
	// The answer applies only to files whose namespace matches the
	// browsed one; everything else goes to its namespace root.
	useCurrentFolder := false
	if model.NamespaceFor(files[0].Name) == browseNS && browsePath != "" && o.prompt != nil {
		decision := newDecision()
		o.prompt(decision)
		useCurrentFolder = decision.wait(ctx)
	}

	// Task events feed a single consumer that advances the scoreboard
	// and republishes progress for subscribers.
	taskEvents := newTaskSink(64)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for ev := range taskEvents.ch {
			task, ok := batch.apply(ev)
			if !ok {
				continue
			}
			if o.bus != nil {
				o.bus.Publish(events.Event{
					Type:     events.EventProgress,
					BatchID:  batch.ID,
					TaskID:   task.ID,
					Progress: task.Progress,
					Message:  string(task.Status),
				})
			}
		}
	}()

	touched := make(map[destination]struct{})
	namespaces := make(map[model.Namespace]struct{})

	for i, f := range files {
		task := batch.tasks[i]
		destNS := model.NamespaceFor(f.Name)
		destPath := ""
		if destNS == browseNS && useCurrentFolder {
			destPath = browsePath
		}
		namespaces[destNS] = struct{}{}

		taskEvents.send(taskEvent{taskID: task.ID, progress: 0, status: model.UploadUploading})

		_, err := o.client.Upload(ctx, string(destNS), destPath, f.Name, f.Content, f.Size, func(pct int) {
			taskEvents.send(taskEvent{taskID: task.ID, progress: pct})
		})
		if err != nil {
			msg := "network error during upload"
			if ae, ok := remote.AsAPIError(err); ok && ae.Message != "" {
				msg = ae.Message
			}
			taskEvents.send(taskEvent{taskID: task.ID, progress: -1, status: model.UploadError, errMsg: msg})
			metrics.RecordUpload("failure", 0)
			logging.Warn("upload failed",
				logging.String("file", f.Name),
				logging.String("namespace", string(destNS)),
				logging.Err(err))
			touched[destination{destNS, destPath}] = struct{}{}
			continue
		}

		taskEvents.send(taskEvent{taskID: task.ID, progress: -1, status: model.UploadDone})
		metrics.RecordUpload("success", f.Size)
		touched[destination{destNS, destPath}] = struct{}{}

		filePath := codec.Join(destPath, f.Name)
		o.recent.TrackPath(destNS, filePath, f.Name, false)

		if o.autoRename && model.KindOf(f.Name) == model.KindImage {
			o.renameUploadedImage(ctx, destNS, destPath, filePath, touched)
		}
	}

	taskEvents.close()
	<-consumerDone

	// Refresh each distinct destination exactly once, regardless of
	// individual outcomes.
	for dest := range touched {
		if err := o.coord.Refresh(ctx, dest.ns, dest.path); err != nil {
			logging.Debug("post-upload refresh failed",
				logging.String("namespace", string(dest.ns)),
				logging.Err(err))
		}
	}

	score := batch.Scoreboard()
	result := &Result{
		Batch:       batch,
		Succeeded:   score.Done,
		Failed:      score.Failed,
		AutoDismiss: score.Failed == 0,
	}

	if len(namespaces) == 1 {
		for ns := range namespaces {
			if ns != browseNS {
				result.SwitchTo = ns
				if o.bus != nil {
					o.bus.Publish(events.Event{
						Type:      events.EventNavigate,
						Namespace: string(ns),
					})
				}
			}
		}
	}

	return result
}

// renameUploadedImage asks the server to classify and rename a fresh
// image upload. Failure is informational only and never rolls back the
// upload itself.
func (o *Orchestrator) renameUploadedImage(ctx context.Context, ns model.Namespace, destPath, filePath string, touched map[destination]struct{}) {
	suggestion, err := o.client.AutoRename(ctx, string(ns), filePath)
	if err != nil {
		if o.bus != nil {
			o.bus.Toast("info", "auto-rename failed: "+err.Error())
		}
		return
	}
	if suggestion.Renamed {
		touched[destination{ns, destPath}] = struct{}{}
	}
}

// DismissDelay returns how long a fully successful progress panel stays
// visible before auto-dismissing.
func (o *Orchestrator) DismissDelay() time.Duration {
	return o.dismissDelay
}
