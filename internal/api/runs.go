package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"remote-job-scraper/internal/runner"
)

var (
	ErrRunActive    = errors.New("a run is already in progress")
	ErrRunNotFound  = errors.New("run not found")
	ErrRunNotActive = errors.New("run is not in progress")
	ErrRunPanicked  = errors.New("run panicked")
)

type RunState string

const (
	StateRunning  RunState = "running"
	StateStopping RunState = "stopping"
	StateFinished RunState = "finished"
	StateStopped  RunState = "stopped"
	StateFailed   RunState = "failed"
)

// Runner is the part of *runner.Runner the API drives.
type Runner interface {
	Validate(req runner.Request) error
	Run(ctx context.Context, req runner.Request) (runner.Report, error)
	SourceNames() []string
}

// Alerter is told about runs that end in an error.
type Alerter interface {
	NotifyError(ctx context.Context, err error) error
}

type RunStatus struct {
	ID        uuid.UUID              `json:"id"`
	State     RunState               `json:"state"`
	Keywords  []string               `json:"keywords"`
	StartedAt time.Time              `json:"started_at"`
	Progress  []runner.KeywordReport `json:"progress"`
	Report    *runner.Report         `json:"report,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type run struct {
	status RunStatus
	cancel context.CancelFunc
}

// RunManager allows one run at a time, since runs share the single browser
// session, and remembers the status of past runs.
type RunManager struct {
	mu     sync.Mutex
	runner  Runner
	alerter Alerter
	runs    map[uuid.UUID]*run
	active *run
	base   context.Context
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewRunManager runs every request under base; cancelling base stops the
// active run. alerter may be nil.
func NewRunManager(base context.Context, r Runner, alerter Alerter, logger *slog.Logger) *RunManager {
	return &RunManager{
		runner:  r,
		alerter: alerter,
		runs:   make(map[uuid.UUID]*run),
		base:   base,
		logger: logger.With("component", "runs"),
	}
}

// Start validates req and launches it in the background.
func (m *RunManager) Start(req runner.Request) (RunStatus, error) {
	if err := m.runner.Validate(req); err != nil {
		return RunStatus{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return RunStatus{}, ErrRunActive
	}

	ctx, cancel := context.WithCancel(m.base)
	r := &run{
		status: RunStatus{
			ID:        uuid.New(),
			State:     StateRunning,
			Keywords:  req.Keywords,
			StartedAt: time.Now(),
			Progress:  []runner.KeywordReport{},
		},
		cancel: cancel,
	}
	m.runs[r.status.ID] = r
	m.active = r

	req.ID = r.status.ID
	req.Progress = func(kr runner.KeywordReport) {
		m.mu.Lock()
		r.status.Progress = append(r.status.Progress, kr)
		m.mu.Unlock()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		report, err := m.execute(ctx, req)
		m.finish(r, report, err)
		if err != nil {
			m.alert(req.ID, err)
		}
	}()

	m.logger.Info("run accepted", "run_id", r.status.ID.String(), "keywords", req.Keywords)
	return r.snapshot(), nil
}

// execute turns a panicking run into a failed one so the active slot is
// always released.
func (m *RunManager) execute(ctx context.Context, req runner.Request) (report runner.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			m.logger.Error("run panicked", "run_id", req.ID.String(), "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrRunPanicked, p)
		}
	}()
	return m.runner.Run(ctx, req)
}

func (m *RunManager) alert(id uuid.UUID, runErr error) {
	if m.alerter == nil {
		return
	}
	err := m.alerter.NotifyError(context.WithoutCancel(m.base), fmt.Errorf("run %s: %w", id, runErr))
	if err != nil {
		m.logger.Warn("error alert failed", "run_id", id.String(), "err", err)
	}
}

func (m *RunManager) finish(r *run, report runner.Report, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case err != nil:
		r.status.State = StateFailed
		r.status.Error = err.Error()
	case report.Interrupted:
		r.status.State = StateStopped
	default:
		r.status.State = StateFinished
	}
	if err == nil {
		r.status.Report = &report
	}
	if m.active == r {
		m.active = nil
	}
}

func (m *RunManager) Get(id uuid.UUID) (RunStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return RunStatus{}, ErrRunNotFound
	}
	return r.snapshot(), nil
}

// Stop asks the run to stop at its next checkpoint.
func (m *RunManager) Stop(id uuid.UUID) (RunStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return RunStatus{}, ErrRunNotFound
	}
	if r.status.State != StateRunning {
		return r.snapshot(), ErrRunNotActive
	}
	r.status.State = StateStopping
	r.cancel()
	m.logger.Info("stop requested", "run_id", id.String())
	return r.snapshot(), nil
}

// Wait blocks until no run is executing.
func (m *RunManager) Wait() {
	m.wg.Wait()
}

func (r *run) snapshot() RunStatus {
	s := r.status
	s.Progress = append([]runner.KeywordReport(nil), r.status.Progress...)
	return s
}
