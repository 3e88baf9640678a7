package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the last-run summary shown by the HTTP API.
type Status struct {
	LastRunAt string  `json:"last_run_at"`
	LastOkAt  string  `json:"last_ok_at"`
	LastError string  `json:"last_error"`
	Last      *Result `json:"last,omitempty"`
	Running   bool    `json:"running"`
}

// Runner serializes passes inside one process and tracks their status.
// The file lock in RunOnce covers other processes.
type Runner struct {
	deps Deps
	// OnFinished runs after every pass. Optional.
	OnFinished func(Result, error)

	run sync.Mutex
	mu  sync.RWMutex
	st  Status
}

func NewRunner(deps Deps) *Runner {
	return &Runner{deps: deps}
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.run.TryLock() {
		return Result{}, ErrRunInProgress
	}
	defer r.run.Unlock()

	r.update(func(st *Status) {
		st.Running = true
		st.LastRunAt = time.Now().Format(time.RFC3339)
	})

	res, err := RunOnce(ctx, r.deps)

	r.update(func(st *Status) {
		st.Running = false
		st.Last = &res
		if err != nil {
			st.LastError = err.Error()
			return
		}
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	})

	if r.OnFinished != nil {
		r.OnFinished(res, err)
	}
	return res, err
}

// Task adapts Run for the scheduler. An overlapping tick is not an error.
func (r *Runner) Task(ctx context.Context) error {
	_, err := r.Run(ctx)
	if errors.Is(err, ErrRunInProgress) {
		return nil
	}
	return err
}

func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := r.st
	if st.Last != nil {
		last := *st.Last
		st.Last = &last
	}
	return st
}

func (r *Runner) update(fn func(*Status)) {
	r.mu.Lock()
	fn(&r.st)
	r.mu.Unlock()
}
