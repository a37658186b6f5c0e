package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type jobKind string

type jobStatus string

const (
	jobKindLoad     jobKind = "load"
	jobKindRelay    jobKind = "relay"
	jobKindGenerate jobKind = "generate"
	jobKindValidate jobKind = "validate"
	jobKindExport   jobKind = "export"
	jobKindJournal  jobKind = "journal"
	jobKindPrefs    jobKind = "prefs"
)

// serialKinds are writes that must all land in the order they were started.
// They are never superseded; each waits for the previous one of its kind.
var serialKinds = map[jobKind]bool{
	jobKindExport:  true,
	jobKindJournal: true,
	jobKindPrefs:   true,
}

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
	jobStatusCanceled  jobStatus = "canceled"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus runs blocking work off the update loop. Starting a job cancels the
// previous job of the same kind, so only the newest generation or load keeps
// its connection open. Serial kinds queue instead.
type jobBus struct {
	counter int64
	logger  *zap.Logger

	mu      sync.Mutex
	running map[jobKind]runningJob
	tails   map[jobKind]chan struct{}
	queued  map[jobKind]int
}

type runningJob struct {
	id     string
	cancel context.CancelFunc
}

func newJobBus(logger *zap.Logger) *jobBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jobBus{
		logger:  logger,
		running: map[jobKind]runningJob{},
		tails:   map[jobKind]chan struct{}{},
		queued:  map[jobKind]int{},
	}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	startCmd, runCmd := b.launch(kind, runner)
	return tea.Sequence(startCmd, runCmd)
}

// launch registers the job and returns the start signal and the runner.
func (b *jobBus) launch(kind jobKind, runner jobRunner) (tea.Cmd, tea.Cmd) {
	id := b.nextID(kind)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}
	if serialKinds[kind] {
		return startCmd, b.queue(kind, id, started, runner)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	if prev, ok := b.running[kind]; ok {
		prev.cancel()
	}
	b.running[kind] = runningJob{id: id, cancel: cancel}
	b.mu.Unlock()

	runCmd := func() tea.Msg {
		defer b.release(kind, id, cancel)
		payload, err := runner(ctx)
		return b.finish(kind, id, started, payload, err)
	}
	return startCmd, runCmd
}

// queue chains a serial job behind the previous one of its kind.
func (b *jobBus) queue(kind jobKind, id string, started time.Time, runner jobRunner) tea.Cmd {
	done := make(chan struct{})
	b.mu.Lock()
	prev := b.tails[kind]
	b.tails[kind] = done
	b.queued[kind]++
	b.mu.Unlock()

	return func() tea.Msg {
		defer b.dequeue(kind, done)
		if prev != nil {
			<-prev
		}
		payload, err := runner(context.Background())
		return b.finish(kind, id, started, payload, err)
	}
}

func (b *jobBus) dequeue(kind jobKind, done chan struct{}) {
	close(done)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queued[kind]--
	if b.queued[kind] <= 0 {
		delete(b.queued, kind)
	}
	if b.tails[kind] == done {
		delete(b.tails, kind)
	}
}

func (b *jobBus) finish(kind jobKind, id string, started time.Time, payload tea.Msg, err error) jobResultEnvelope {
	snapshot := jobSnapshot{
		ID:          id,
		Kind:        kind,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
	switch {
	case err == nil:
		snapshot.Status = jobStatusSucceeded
	case errors.Is(err, context.Canceled):
		snapshot.Status = jobStatusCanceled
		snapshot.Err = err.Error()
	default:
		snapshot.Status = jobStatusFailed
		snapshot.Err = err.Error()
	}
	snapshot.Duration = snapshot.CompletedAt.Sub(started)
	b.logger.Debug("job finished",
		zap.String("job", id),
		zap.String("status", string(snapshot.Status)),
		zap.Duration("duration", snapshot.Duration),
		zap.Error(err),
	)
	return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
}

// Cancel stops the running job of kind, if any. Serial jobs are not affected.
func (b *jobBus) Cancel(kind jobKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job, ok := b.running[kind]; ok {
		job.cancel()
		delete(b.running, kind)
	}
}

func (b *jobBus) release(kind jobKind, id string, cancel context.CancelFunc) {
	cancel()
	b.mu.Lock()
	defer b.mu.Unlock()
	if job, ok := b.running[kind]; ok && job.id == id {
		delete(b.running, kind)
	}
}

func (b *jobBus) Running(kind jobKind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.running[kind]
	return ok || b.queued[kind] > 0
}
