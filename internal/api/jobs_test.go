package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"go.uber.org/zap/zaptest"
)

// instantScanner classifies immediately.
type instantScanner struct {
	c *classifier.Classifier
}

func (s instantScanner) Submit(_ context.Context, kind scan.Kind, text string) (*scan.Result, error) {
	return s.c.Classify(kind, text)
}

// blockingScanner waits until its context ends.
type blockingScanner struct {
	started chan struct{}
}

func (s blockingScanner) Submit(ctx context.Context, _ scan.Kind, _ string) (*scan.Result, error) {
	close(s.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func newInstantManager(t *testing.T) *JobManager {
	t.Helper()
	jm := NewJobManager(instantScanner{c: classifier.New(classifier.DefaultRules())}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = jm.Shutdown(context.Background()) })
	return jm
}

func waitForStatus(t *testing.T, jm *JobManager, id, status string) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jm.GetJob(context.Background(), id)
		if err == nil && job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, status)
	return nil
}

func TestNewJobManager(t *testing.T) {
	jm := newInstantManager(t)
	if jm.maxJobs != 1000 {
		t.Errorf("expected maxJobs 1000, got %d", jm.maxJobs)
	}
	if jm.jobs == nil || jm.subscribers == nil {
		t.Error("expected maps to be initialized")
	}
}

func TestJobManager_StartJobValidates(t *testing.T) {
	jm := newInstantManager(t)

	if _, err := jm.StartJob(context.Background(), JobRequest{Type: "dns", Input: "x"}); !errors.Is(err, sharedErrors.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := jm.StartJob(context.Background(), JobRequest{Type: "email", Input: "   "}); !errors.Is(err, sharedErrors.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if jobs, _ := jm.ListJobs(context.Background(), 0); len(jobs) != 0 {
		t.Errorf("rejected requests must not create jobs, got %d", len(jobs))
	}
}

func TestJobLifecycle(t *testing.T) {
	jm := newInstantManager(t)
	updates, unsubscribe := jm.Subscribe()
	defer unsubscribe()

	job, err := jm.StartJob(context.Background(), JobRequest{Type: "URL", Input: "http://tinyurl.com/abc"})
	if err != nil {
		t.Fatalf("StartJob returned error: %v", err)
	}
	if job.Status != JobPending || job.Type != "url" {
		t.Fatalf("unexpected new job %+v", job)
	}

	final := waitForStatus(t, jm, job.ID, JobDone)
	if final.Result == nil || final.Result.RiskLevel != "High" || final.Result.Status != "Risky" {
		t.Fatalf("unexpected result %+v", final.Result)
	}
	if final.StartedAt == nil || final.FinishedAt == nil {
		t.Fatal("expected start and finish times")
	}

	seen := map[string]bool{}
	timeout := time.After(time.Second)
	for len(seen) < 3 {
		select {
		case u := <-updates:
			seen[u.Status] = true
		case <-timeout:
			t.Fatalf("expected pending, running and done updates, saw %v", seen)
		}
	}
}

func TestJobManager_ShutdownCancelsRunningScans(t *testing.T) {
	started := make(chan struct{})
	jm := NewJobManager(blockingScanner{started: started}, zaptest.NewLogger(t))

	job, err := jm.StartJob(context.Background(), JobRequest{Type: "port", Input: "10.0.0.1"})
	if err != nil {
		t.Fatalf("StartJob returned error: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := jm.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	got, _ := jm.GetJob(context.Background(), job.ID)
	if got.Status != JobCancelled || got.Result != nil {
		t.Fatalf("expected cancelled job without result, got %+v", got)
	}

	if _, err := jm.StartJob(context.Background(), JobRequest{Type: "port", Input: "10.0.0.1"}); err == nil {
		t.Fatal("expected StartJob to fail after shutdown")
	}
}

func TestJobManager_GetJobReturnsCopy(t *testing.T) {
	jm := newInstantManager(t)
	created := jm.createJob("email")

	first, err := jm.GetJob(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	first.Status = "tampered"

	second, _ := jm.GetJob(context.Background(), created.ID)
	if second.Status != JobPending {
		t.Errorf("GetJob should return a copy, got status %s", second.Status)
	}

	if _, err := jm.GetJob(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := newInstantManager(t)

	first := jm.createJob("email")
	time.Sleep(2 * time.Millisecond)
	jm.createJob("url")
	time.Sleep(2 * time.Millisecond)
	last := jm.createJob("port")

	jobs, _ := jm.ListJobs(context.Background(), 10)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != last.ID || jobs[2].ID != first.ID {
		t.Errorf("expected newest first, got %s ... %s", jobs[0].Type, jobs[2].Type)
	}

	jobs, _ = jm.ListJobs(context.Background(), 2)
	if len(jobs) != 2 {
		t.Errorf("expected limit to return 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_Subscribe(t *testing.T) {
	jm := newInstantManager(t)

	ch, unsubscribe := jm.Subscribe()
	jm.createJob("email")

	select {
	case job := <-ch:
		if job.Type != "email" {
			t.Errorf("expected type 'email', got %s", job.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for job notification")
	}

	unsubscribe()
	unsubscribe()
	jm.createJob("url")

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestJobManager_Prune(t *testing.T) {
	jm := newInstantManager(t)
	jm.SetMaxJobs(2)

	for i := 0; i < 4; i++ {
		job := jm.createJob("email")
		finished := time.Now().Add(time.Duration(i) * time.Second)
		jm.updateJob(job.ID, func(j *Job) {
			j.Status = JobDone
			j.FinishedAt = &finished
		})
	}
	pending := jm.createJob("url")

	jm.prune()

	jobs, _ := jm.ListJobs(context.Background(), 0)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after prune, got %d", len(jobs))
	}
	if _, err := jm.GetJob(context.Background(), pending.ID); err != nil {
		t.Error("unfinished jobs must survive pruning")
	}
}

func TestJobManager_ConcurrentAccess(t *testing.T) {
	jm := newInstantManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := jm.StartJob(context.Background(), JobRequest{Type: "email", Input: "urgent prize"}); err != nil {
					t.Errorf("StartJob returned error: %v", err)
				}
				_, _ = jm.ListJobs(context.Background(), 5)
			}
		}()
	}
	wg.Wait()

	jobs, _ := jm.ListJobs(context.Background(), 0)
	if len(jobs) != 100 {
		t.Errorf("expected 100 jobs, got %d", len(jobs))
	}
}
