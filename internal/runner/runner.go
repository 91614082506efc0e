// Package runner executes simulated AI automation jobs. It replaces ad-hoc
// deferred callbacks with an explicit queue keyed by task id, so in-flight
// work can be cancelled when its task or loan goes away.
package runner

import (
	"context"
	"sync"
	"time"
)

// Job is one unit of simulated automation. Start runs after StartDelay and
// must make the task's in_progress state observable; Finish runs after the
// completion delay and applies the completed state plus any follow-on side
// effects. The runner guarantees Start happens-before Finish.
type Job struct {
	TaskID string
	// ExtraDelay staggers completion when several jobs are scheduled in one
	// batch.
	ExtraDelay time.Duration
	Start      func()
	Finish     func()
}

type pending struct {
	cancel context.CancelFunc
}

type Runner struct {
	StartDelay    time.Duration
	CompleteDelay time.Duration

	mu   sync.Mutex
	jobs map[string]*pending
	wg   sync.WaitGroup
}

func New(startDelay, completeDelay time.Duration) *Runner {
	return &Runner{
		StartDelay:    startDelay,
		CompleteDelay: completeDelay,
		jobs:          map[string]*pending{},
	}
}

// Schedule queues a job. A job already pending for the same task id is
// cancelled and replaced.
func (r *Runner) Schedule(job Job) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &pending{cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.jobs[job.TaskID]; ok {
		prev.cancel()
	}
	r.jobs[job.TaskID] = p
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.remove(job.TaskID, p)

		if !sleep(ctx, r.StartDelay) {
			return
		}
		if job.Start != nil {
			job.Start()
		}
		if !sleep(ctx, r.CompleteDelay+job.ExtraDelay) {
			return
		}
		if job.Finish != nil {
			job.Finish()
		}
	}()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *Runner) remove(taskID string, p *pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Only clear the slot if it still belongs to this job; a reschedule may
	// have replaced it.
	if r.jobs[taskID] == p {
		delete(r.jobs, taskID)
	}
	p.cancel()
}

// Cancel drops a pending job for the task id, if any.
func (r *Runner) Cancel(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.jobs[taskID]
	if !ok {
		return false
	}
	p.cancel()
	delete(r.jobs, taskID)
	return true
}

// CancelAll drops every pending job.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.jobs {
		p.cancel()
		delete(r.jobs, id)
	}
}

// Wait blocks until all scheduled jobs have finished or been cancelled.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Pending reports the number of jobs not yet finished or cancelled.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
