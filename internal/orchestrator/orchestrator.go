package orchestrator

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/app-builder/internal/failure"
	"github.com/example/app-builder/internal/generation"
	"github.com/example/app-builder/internal/models"
)

// Event names published on the hub.
const (
	EventStatus   = "job_status"
	EventProgress = "progress"
)

const defaultRetention = time.Hour

var ErrNotFound = errors.New("job not found")

// Generator is the part of generation.Generator the orchestrator drives.
// Prepare runs synchronously in Submit; Run runs in the job goroutine.
type Generator interface {
	Prepare(description, credential string, opts models.Options) (models.GenerationRequest, error)
	Run(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

type entry struct {
	job    *models.Job
	cancel context.CancelFunc
}

// Orchestrator runs generations in the background as jobs that can be polled,
// streamed and cancelled.
type Orchestrator struct {
	gen       Generator
	logger    *zap.Logger
	retention time.Duration

	jobsMu sync.RWMutex
	jobs   map[string]*entry

	hub *Hub
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRetention sets how long finished jobs are kept.
func WithRetention(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.retention = d
		}
	}
}

func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:       gen,
		logger:    zap.NewNop(),
		retention: defaultRetention,
		jobs:      map[string]*entry{},
		hub:       NewHub(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit validates the input and starts a job. Validation failures are
// returned directly and no job is created.
func (o *Orchestrator) Submit(description, credential string, opts models.Options) (models.Job, error) {
	req, err := o.gen.Prepare(description, credential, opts)
	if err != nil {
		return models.Job{}, err
	}

	now := time.Now()
	id := uuid.NewString()
	job := &models.Job{ID: id, Status: models.StatusPending, Model: req.ModelName, CreatedAt: now, UpdatedAt: now}
	ctx, cancel := context.WithCancel(generation.WithRequestID(context.Background(), id))

	o.jobsMu.Lock()
	o.pruneLocked(now)
	o.jobs[id] = &entry{job: job, cancel: cancel}
	snapshot := *job
	o.jobsMu.Unlock()

	o.hub.Publish(id, Event{Event: EventStatus, JobID: id, Payload: snapshot})
	go o.run(ctx, id, req)
	return snapshot, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, req models.GenerationRequest) {
	o.update(id, func(j *models.Job) { j.Status = models.StatusRunning })

	ctx = generation.WithProgress(ctx, func(p generation.Progress) {
		o.update(id, func(j *models.Job) { j.Attempt = p.Attempt })
		o.hub.Publish(id, Event{Event: EventProgress, JobID: id, Payload: p})
	})
	res, err := o.gen.Run(ctx, req)

	o.update(id, func(j *models.Job) {
		if err == nil {
			j.Status = models.StatusSuccess
			j.Code = res.Code
			j.Model = res.Model
			j.Attempt = res.Attempts - 1
			return
		}
		ce := failure.Classify(err)
		j.Status = models.StatusFailed
		if ce.Kind == failure.Cancelled {
			j.Status = models.StatusCancelled
		}
		j.Error = &models.JobError{Kind: string(ce.Kind), Message: ce.Message, Retryable: ce.Retryable}
	})

	o.jobsMu.Lock()
	if e, ok := o.jobs[id]; ok {
		e.cancel()
		e.cancel = nil
	}
	o.jobsMu.Unlock()
	o.hub.Close(id)
}

// update applies fn to the job and publishes the new state.
func (o *Orchestrator) update(id string, fn func(*models.Job)) {
	o.jobsMu.Lock()
	e, ok := o.jobs[id]
	if !ok {
		o.jobsMu.Unlock()
		return
	}
	before := e.job.Status
	fn(e.job)
	e.job.UpdatedAt = time.Now()
	snapshot := *e.job
	o.jobsMu.Unlock()

	if snapshot.Status != before {
		o.logger.Info("job status",
			zap.String("job_id", id),
			zap.String("status", string(snapshot.Status)),
			zap.Int("attempt", snapshot.Attempt),
		)
		o.hub.Publish(id, Event{Event: EventStatus, JobID: id, Payload: snapshot})
	}
}

func (o *Orchestrator) GetJob(id string) (models.Job, bool) {
	o.jobsMu.RLock()
	defer o.jobsMu.RUnlock()
	e, ok := o.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *e.job, true
}

// ListJobs returns every retained job, newest first.
func (o *Orchestrator) ListJobs() []models.Job {
	o.jobsMu.RLock()
	out := make([]models.Job, 0, len(o.jobs))
	for _, e := range o.jobs {
		out = append(out, *e.job)
	}
	o.jobsMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (o *Orchestrator) Cancel(id string) error {
	o.jobsMu.RLock()
	e, ok := o.jobs[id]
	var cancel context.CancelFunc
	if ok {
		cancel = e.cancel
	}
	o.jobsMu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// CancelAll stops every running job, e.g. on shutdown.
func (o *Orchestrator) CancelAll() {
	o.jobsMu.RLock()
	defer o.jobsMu.RUnlock()
	for _, e := range o.jobs {
		if e.cancel != nil {
			e.cancel()
		}
	}
}

// Subscribe returns a channel carrying JSON-encoded Event payloads for a job.
// The channel closes when the job finishes; the caller must still call the
// returned unsubscribe func when done.
func (o *Orchestrator) Subscribe(id string) (<-chan []byte, func()) {
	return o.hub.Subscribe(id)
}

func (o *Orchestrator) pruneLocked(now time.Time) {
	for id, e := range o.jobs {
		if e.job.Status.Done() && now.Sub(e.job.UpdatedAt) > o.retention {
			delete(o.jobs, id)
		}
	}
}
