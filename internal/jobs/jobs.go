// Package jobs tracks generation jobs and enforces that only one runs at a
// time. A second request while one is active is rejected, never queued.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/ganitha/internal/generator"
	"github.com/p-n-ai/ganitha/internal/question"
)

// ErrConflict is returned by Begin while another job holds the slot.
var ErrConflict = errors.New("generation already in progress")

// keepJobs is how many finished jobs Lookup can still find.
const keepJobs = 20

// State is a job's lifecycle state.
type State string

const (
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
)

// Job is a snapshot of one generation job.
type Job struct {
	ID          string        `json:"task_id"`
	Kind        string        `json:"kind"`
	State       State         `json:"state"`
	CurrentType question.Type `json:"current_type,omitempty"`
	Generated   int           `json:"questions_generated"`
	Total       int           `json:"total_requested"`
	APICalls    int           `json:"api_calls"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at,omitzero"`
	ResultID    string        `json:"result_id,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Status is the progress snapshot served to pollers.
type Status struct {
	IsGenerating       bool          `json:"is_generating"`
	TaskID             string        `json:"task_id,omitempty"`
	CurrentType        question.Type `json:"current_type,omitempty"`
	QuestionsGenerated int           `json:"questions_generated"`
	TotalRequested     int           `json:"total_requested"`
	APICalls           int           `json:"api_calls"`
	ElapsedSeconds     float64       `json:"elapsed_seconds"`
	Error              string        `json:"error,omitempty"`
}

// Manager owns the single generation slot and a short job history.
type Manager struct {
	mu      sync.Mutex
	active  *Job
	last    *Job
	jobs    map[string]*Job
	order   []string
	subs    map[chan Status]struct{}
	now     func() time.Time
	newID   func() string
	pending sync.WaitGroup
}

// NewManager creates an idle manager.
func NewManager() *Manager {
	return &Manager{
		jobs:  make(map[string]*Job),
		subs:  make(map[chan Status]struct{}),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Handle is the holder's grip on the slot acquired by Begin.
type Handle struct {
	m  *Manager
	id string
}

// ID returns the job id.
func (h *Handle) ID() string { return h.id }

// Begin acquires the slot for a job of the given kind. It fails immediately
// with ErrConflict when a job is already running.
func (m *Manager) Begin(kind string, total int) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrConflict
	}

	job := &Job{
		ID:        m.newID(),
		Kind:      kind,
		State:     Running,
		Total:     total,
		StartedAt: m.now(),
	}
	m.active = job
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	for len(m.order) > keepJobs {
		delete(m.jobs, m.order[0])
		m.order = m.order[1:]
	}

	slog.Info("generation job started", "task_id", job.ID, "kind", kind, "total", total)
	m.broadcastLocked()
	return &Handle{m: m, id: job.ID}, nil
}

// Progress records a progress update from the generator.
func (h *Handle) Progress(p generator.Progress) {
	m := h.m
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[h.id]
	if !ok || job.State != Running {
		return
	}
	job.CurrentType = p.Type
	job.Generated = p.Generated
	job.APICalls = p.APICalls
	if p.Requested > job.Total {
		job.Total = p.Requested
	}
	m.broadcastLocked()
}

// Finish releases the slot. resultID names what the job produced, if anything.
func (h *Handle) Finish(resultID string, err error) {
	m := h.m
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[h.id]
	if !ok || job.State != Running {
		return
	}
	job.FinishedAt = m.now()
	job.ResultID = resultID
	job.State = Completed
	if err != nil {
		job.State = Failed
		job.Error = err.Error()
	}
	if m.active == job {
		m.active = nil
	}
	m.last = job

	slog.Info("generation job finished",
		"task_id", job.ID,
		"state", job.State,
		"generated", job.Generated,
		"duration", job.FinishedAt.Sub(job.StartedAt),
	)
	m.broadcastLocked()
}

// errPanicked fails a job whose function panicked.
var errPanicked = errors.New("internal error")

// Run calls fn on the caller's goroutine and finishes the job with its
// result. If fn panics, the job fails and the slot is released before the
// panic continues up the stack.
func (h *Handle) Run(fn func() (string, error)) (string, error) {
	finished := false
	defer func() {
		if finished {
			return
		}
		r := recover()
		h.Finish("", errPanicked)
		if r != nil {
			slog.Error("generation job panicked", "task_id", h.id, "panic", r)
			panic(r)
		}
	}()
	id, err := fn()
	finished = true
	h.Finish(id, err)
	return id, err
}

// Go runs fn in the background and finishes the job with its result. fn's
// context is detached from ctx's cancellation so the job outlives the
// request that started it.
func (m *Manager) Go(ctx context.Context, h *Handle, fn func(ctx context.Context) (string, error)) {
	detached := context.WithoutCancel(ctx)
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		// Run has already logged the panic and failed the job.
		defer func() { _ = recover() }()
		h.Run(func() (string, error) { return fn(detached) })
	}()
}

// Wait blocks until every job started with Go has finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Status returns the active job's progress, or the idle state with the last
// job's error.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	if job := m.active; job != nil {
		return Status{
			IsGenerating:       true,
			TaskID:             job.ID,
			CurrentType:        job.CurrentType,
			QuestionsGenerated: job.Generated,
			TotalRequested:     job.Total,
			APICalls:           job.APICalls,
			ElapsedSeconds:     roundSeconds(m.now().Sub(job.StartedAt)),
		}
	}
	if job := m.last; job != nil {
		return Status{
			TaskID:             job.ID,
			QuestionsGenerated: job.Generated,
			TotalRequested:     job.Total,
			APICalls:           job.APICalls,
			ElapsedSeconds:     roundSeconds(job.FinishedAt.Sub(job.StartedAt)),
			Error:              job.Error,
		}
	}
	return Status{}
}

// Lookup returns a recent job by id.
func (m *Manager) Lookup(id string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Subscribe returns a channel that receives a status snapshot on every
// change, starting with the current one. Slow receivers miss updates.
func (m *Manager) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	ch <- m.statusLocked()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) broadcastLocked() {
	if len(m.subs) == 0 {
		return
	}
	s := m.statusLocked()
	for ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond).Milliseconds()) / 1000
}
