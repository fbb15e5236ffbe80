package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job states.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobDone      = "done"
	JobError     = "error"
	JobCancelled = "cancelled"
)

// Job tracks one asynchronous scan submitted over the API.
type Job struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Status     string       `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Result     *report.Scan `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// JobRequest asks for one scan.
type JobRequest struct {
	Type  string `json:"type"`
	Input string `json:"input"`
}

// Scanner runs a scan to completion or until ctx ends.
type Scanner interface {
	Submit(ctx context.Context, kind scan.Kind, text string) (*scan.Result, error)
}

// JobManager runs scans in the background and fans out status changes.
// Every running scan is cancelled by Shutdown.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[chan Job]struct{}
	maxJobs     int // Maximum number of jobs to keep in memory

	scanner Scanner
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewJobManager(scanner Scanner, logger *zap.Logger) *JobManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &JobManager{
		jobs:        make(map[string]*Job),
		subscribers: make(map[chan Job]struct{}),
		maxJobs:     1000,
		scanner:     scanner,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
	go m.cleanupLoop()
	return m
}

// StartJob validates the request and queues the scan. The scan outlives
// the request that started it.
func (m *JobManager) StartJob(_ context.Context, req JobRequest) (*Job, error) {
	kind, err := scan.ParseKind(req.Type)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Input) == "" {
		return nil, sharedErrors.ErrEmptyInput
	}
	if m.ctx.Err() != nil {
		return nil, errors.New("job manager is shut down")
	}

	job := m.createJob(string(kind))
	m.wg.Add(1)
	go m.run(job.ID, kind, req.Input)
	return job, nil
}

func (m *JobManager) createJob(jobType string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobPending,
		CreatedAt: time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	m.broadcast(*job)
	copy := *job
	return &copy
}

func (m *JobManager) run(id string, kind scan.Kind, input string) {
	defer m.wg.Done()

	m.updateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = JobRunning
		j.StartedAt = &now
	})

	res, err := m.scanner.Submit(m.ctx, kind, input)

	m.updateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		switch {
		case err == nil:
			j.Status = JobDone
			view := report.ScanOf(res)
			j.Result = &view
		case errors.Is(err, context.Canceled):
			j.Status = JobCancelled
		default:
			j.Status = JobError
			j.Error = err.Error()
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("scan job failed", zap.String("job_id", id), zap.Error(err))
	}
}

func (m *JobManager) updateJob(id string, update func(*Job)) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	update(job)
	m.broadcast(*job)
	return job
}

func (m *JobManager) GetJob(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job, ok := m.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, errors.New("job not found")
}

// ListJobs returns up to limit jobs, newest first.
func (m *JobManager) ListJobs(_ context.Context, limit int) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *JobManager) Subscribe() (chan Job, func()) {
	ch := make(chan Job, 10)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

// broadcast must be called with m.mu held. Slow subscribers miss updates.
func (m *JobManager) broadcast(job Job) {
	for ch := range m.subscribers {
		select {
		case ch <- job:
		default:
			m.logger.Debug("dropped job update for slow subscriber", zap.String("job_id", job.ID))
		}
	}
}

// Shutdown cancels running scans and waits for their goroutines.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cleanupLoop removes the oldest finished jobs once maxJobs is exceeded.
func (m *JobManager) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.prune()
		}
	}
}

func (m *JobManager) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) <= m.maxJobs {
		return
	}

	type jobWithTime struct {
		id   string
		time time.Time
	}
	var finished []jobWithTime
	for id, job := range m.jobs {
		if job.FinishedAt != nil {
			finished = append(finished, jobWithTime{id: id, time: *job.FinishedAt})
		}
	}

	sort.Slice(finished, func(i, j int) bool {
		return finished[i].time.Before(finished[j].time)
	})

	toRemove := len(m.jobs) - m.maxJobs
	if toRemove > len(finished) {
		toRemove = len(finished)
	}
	for i := 0; i < toRemove; i++ {
		delete(m.jobs, finished[i].id)
	}
}

// SetMaxJobs configures the maximum number of jobs to retain in memory
func (m *JobManager) SetMaxJobs(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > 0 {
		m.maxJobs = max
	}
}
