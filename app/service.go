// Package app wires configuration, solving and the output sinks into a
// single run pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kilianp07/rotation/config"
	"github.com/kilianp07/rotation/core/logger"
	coremetrics "github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/model"
	coremon "github.com/kilianp07/rotation/core/monitoring"
	"github.com/kilianp07/rotation/core/schedule"
	"github.com/kilianp07/rotation/core/solver"
	infralogger "github.com/kilianp07/rotation/infra/logger"
	"github.com/kilianp07/rotation/infra/monitoring"
	"github.com/kilianp07/rotation/infra/mqtt"
	"github.com/kilianp07/rotation/infra/store"
	"github.com/kilianp07/rotation/internal/eventbus"

	// Registered backends and sinks.
	_ "github.com/kilianp07/rotation/infra/metrics"
	_ "github.com/kilianp07/rotation/infra/solver/bnb"
	_ "github.com/kilianp07/rotation/infra/solver/remote"
)

// Pipeline stages reported to the monitor.
const (
	StageBuild   = "build"
	StageSolve   = "solve"
	StageExtract = "extract"
	StageStore   = "store"
	StagePublish = "publish"
)

type schedulePublisher interface {
	PublishSchedule(ctx context.Context, runID string, s *schedule.Schedule) error
	Close() error
}

// Result is the outcome of one successful run.
type Result struct {
	RunID    string
	Backend  string
	Plan     *schedule.Plan
	Schedule *schedule.Schedule
	Attempts int
	Duration time.Duration
}

// Service builds and solves the configured rotation.
type Service struct {
	cfg   *config.Config
	log   logger.Logger
	sink  coremetrics.MetricsSink
	store store.RunStore
	pub   schedulePublisher
	now   func() time.Time
}

// New creates a Service from the configuration. The MQTT publisher is only
// connected when a broker is configured.
func New(cfg *config.Config) (*Service, error) {
	log := infralogger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}
	svc := &Service{cfg: cfg, log: log, sink: sink, store: st, now: time.Now}
	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	return svc, nil
}

// Store returns the run store.
func (s *Service) Store() store.RunStore { return s.store }

// Build resolves the calendar and the population then builds the model.
func (s *Service) Build() (*schedule.Plan, error) {
	days, err := s.cfg.Calendar.Resolve()
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	children, err := s.cfg.Population.Resolve()
	if err != nil {
		return nil, fmt.Errorf("population: %w", err)
	}
	plan, err := schedule.Build(schedule.Input{
		Days:     days,
		Children: children,
		Pairs:    model.Pairs(children),
	}, s.cfg.Schedule)
	if err != nil {
		return nil, err
	}
	st := plan.Stats()
	s.log.Infof("model built: %d days, %d children, %d pairs, %d vars, %d constraints",
		len(days), len(children), len(plan.Pairs), st.Vars, st.Constraints)
	return plan, nil
}

// Run executes one build, solve and publish cycle. Only solver.ErrUnreachable
// is retried. Failures are recorded in the run store before being returned.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	backend := s.cfg.Solver.Backend.Type
	runID := store.NewRunID()
	started := s.now()

	plan, err := s.Build()
	if err != nil {
		coremon.CaptureStage(err, StageBuild, backend)
		return nil, err
	}
	stats := plan.Stats()
	rec := store.RunRecord{
		ID:          runID,
		Time:        started,
		Backend:     backend,
		Vars:        stats.Vars,
		Constraints: stats.Constraints,
	}

	sol, attempts, err := s.solve(ctx, plan.Model)
	rec.Attempts = attempts
	rec.DurationMS = s.now().Sub(started).Milliseconds()
	if err != nil {
		rec.Status = solver.Classify(err)
		rec.Error = err.Error()
		s.recordSolve(rec)
		_ = s.append(ctx, rec)
		coremon.CaptureStage(err, StageSolve, backend)
		return nil, fmt.Errorf("solve: %w", err)
	}

	sched, err := schedule.Extract(plan, sol)
	if err != nil {
		rec.Status = milp.StatusError
		rec.Error = err.Error()
		s.recordSolve(rec)
		_ = s.append(ctx, rec)
		coremon.CaptureStage(err, StageExtract, backend)
		return nil, fmt.Errorf("extract: %w", err)
	}
	rec.Status = sched.Status
	rec.Objective = sched.Objective
	rec.WeeklyInteraction = sched.WeeklyInteraction
	rec.GenderBalance = sched.GenderBalance
	rec.MinAttendance = sched.MinAttendance
	rec.Days = dayRecords(sched)
	s.log.Infof("run %s: status=%s objective=%.3f attempts=%d", runID, sched.Status, sched.Objective, attempts)

	s.recordSolve(rec)
	s.recordAttendance(runID, sched)
	if err := s.append(ctx, rec); err != nil {
		coremon.CaptureStage(err, StageStore, backend)
	}
	if s.pub != nil {
		if err := s.pub.PublishSchedule(ctx, runID, sched); err != nil {
			s.log.Errorf("publish run %s: %v", runID, err)
			coremon.CaptureStage(err, StagePublish, backend)
		}
	}
	return &Result{
		RunID:    runID,
		Backend:  backend,
		Plan:     plan,
		Schedule: sched,
		Attempts: attempts,
		Duration: time.Duration(rec.DurationMS) * time.Millisecond,
	}, nil
}

func (s *Service) solve(ctx context.Context, m *milp.Model) (milp.Solution, int, error) {
	bus := eventbus.New[solver.Progress](64)
	wait := bus.Consume(ctx, s.onProgress)
	defer wait()
	defer bus.Close()

	slv, err := solver.NewBackendWithProgress(s.cfg.Solver.Backend, bus)
	if err != nil {
		return milp.Solution{}, 0, err
	}
	opts := s.cfg.Solver.Options()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Duration(s.cfg.Solver.BackoffMS) * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.cfg.Solver.MaxRetries)), ctx)
	var sol milp.Solution
	attempts := 0
	err = backoff.Retry(func() error {
		attempts++
		var err error
		sol, err = slv.Solve(ctx, m, opts)
		if err == nil {
			return nil
		}
		if !errors.Is(err, solver.ErrUnreachable) {
			return backoff.Permanent(err)
		}
		s.log.Warnf("solve attempt %d: %v", attempts, err)
		return err
	}, policy)
	return sol, attempts, err
}

func (s *Service) onProgress(p solver.Progress) {
	s.log.Debugw("incumbent", map[string]any{
		"backend":   p.Backend,
		"incumbent": p.Incumbent,
		"bound":     p.Bound,
		"nodes":     p.Nodes,
		"gap":       p.Gap(),
	})
	if r, ok := s.sink.(coremetrics.ProgressRecorder); ok {
		if err := r.RecordProgress(p); err != nil {
			s.log.Warnf("record progress: %v", err)
		}
	}
}

func (s *Service) recordSolve(rec store.RunRecord) {
	err := s.sink.RecordSolve(coremetrics.SolveEvent{
		RunID:       rec.ID,
		Backend:     rec.Backend,
		Status:      rec.Status,
		Objective:   rec.Objective,
		Vars:        rec.Vars,
		Constraints: rec.Constraints,
		Attempts:    rec.Attempts,
		Duration:    time.Duration(rec.DurationMS) * time.Millisecond,
		Time:        rec.Time,
	})
	if err != nil {
		s.log.Warnf("record solve: %v", err)
	}
}

func (s *Service) recordAttendance(runID string, sched *schedule.Schedule) {
	r, ok := s.sink.(coremetrics.AttendanceRecorder)
	if !ok {
		return
	}
	ev := coremetrics.AttendanceEvent{RunID: runID, Time: s.now(), Days: make([]coremetrics.DayAttendance, len(sched.Days))}
	for i, d := range sched.Days {
		ev.Days[i] = coremetrics.DayAttendance{Date: d.Date, Week: string(d.Week), Total: d.Total, GroupA: d.GroupA}
	}
	if err := r.RecordAttendance(ev); err != nil {
		s.log.Warnf("record attendance: %v", err)
	}
}

func (s *Service) append(ctx context.Context, rec store.RunRecord) error {
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("store run %s: %v", rec.ID, err)
		return err
	}
	return nil
}

func dayRecords(sched *schedule.Schedule) []store.DayRecord {
	out := make([]store.DayRecord, len(sched.Days))
	for i, d := range sched.Days {
		out[i] = store.DayRecord{
			Date:     d.Date.Format(model.DateLayout),
			Week:     string(d.Week),
			Total:    d.Total,
			GroupA:   d.GroupA,
			Children: d.Children,
		}
	}
	return out
}

// Close releases the store and the broker connection and flushes the monitor.
func (s *Service) Close() error {
	var errs []error
	if s.pub != nil {
		errs = append(errs, s.pub.Close())
	}
	errs = append(errs, s.store.Close())
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
