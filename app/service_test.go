package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rotation/config"
	coremetrics "github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/schedule"
	"github.com/kilianp07/rotation/core/solver"
	"github.com/kilianp07/rotation/infra/solver/bnb"
	"github.com/kilianp07/rotation/infra/store"
)

type recordingSink struct {
	mu         sync.Mutex
	solves     []coremetrics.SolveEvent
	attendance []coremetrics.AttendanceEvent
	progress   int
}

func (r *recordingSink) RecordSolve(ev coremetrics.SolveEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solves = append(r.solves, ev)
	return nil
}

func (r *recordingSink) RecordAttendance(ev coremetrics.AttendanceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attendance = append(r.attendance, ev)
	return nil
}

func (r *recordingSink) RecordProgress(solver.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress++
	return nil
}

type fakePublisher struct {
	runs   []string
	err    error
	closed bool
}

func (f *fakePublisher) PublishSchedule(_ context.Context, runID string, _ *schedule.Schedule) error {
	f.runs = append(f.runs, runID)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

var flaky struct {
	mu    sync.Mutex
	fails int
}

func init() {
	_ = solver.RegisterBackend("app-flaky", func(map[string]any) (solver.Solver, error) {
		inner := bnb.New(bnb.Config{})
		return solver.Func(func(ctx context.Context, m *milp.Model, opts solver.Options) (milp.Solution, error) {
			flaky.mu.Lock()
			defer flaky.mu.Unlock()
			if flaky.fails > 0 {
				flaky.fails--
				return milp.Solution{}, solver.ErrUnreachable
			}
			return inner.Solve(ctx, m, opts)
		}), nil
	})
	_ = solver.RegisterBackend("app-broken", func(map[string]any) (solver.Solver, error) {
		return solver.Func(func(context.Context, *milp.Model, solver.Options) (milp.Solution, error) {
			return milp.Solution{}, errors.New("license expired")
		}), nil
	})
}

func testConfig(t *testing.T, capacity int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Calendar.Range = "2020-09-07..2020-09-09"
	cfg.Population.Size = 4
	cfg.Schedule.DailyCapacity = capacity
	cfg.Solver.BackoffMS = 1
	cfg.Store = store.Config{Type: "jsonl", Path: filepath.Join(t.TempDir(), "runs.jsonl")}
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) (*Service, *recordingSink, *fakePublisher) {
	t.Helper()
	svc, err := New(cfg)
	require.NoError(t, err)
	sink := &recordingSink{}
	pub := &fakePublisher{}
	svc.sink = sink
	svc.pub = pub
	t.Cleanup(func() { _ = svc.Close() })
	return svc, sink, pub
}

func TestBuild(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig(t, 3))
	plan, err := svc.Build()
	require.NoError(t, err)
	st := plan.Stats()
	assert.Equal(t, 12, st.VarsByFamily[schedule.VarAssign])
	assert.Equal(t, 18, st.VarsByFamily[schedule.VarPairDay])
	assert.Equal(t, 6, st.VarsByFamily[schedule.VarWeekly])
	assert.Equal(t, 3, st.ConstraintsByFamily[schedule.FamilyCapacity])
}

func TestBuildRejectsBadCalendar(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Calendar.Range = "2020-09-12..2020-09-13"
	svc, _, _ := newTestService(t, cfg)
	_, err := svc.Build()
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, 3)
	svc, sink, pub := newTestService(t, cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, milp.StatusOptimal, res.Schedule.Status)
	assert.InDelta(t, 10, res.Schedule.Objective, 1e-6)
	assert.Equal(t, 1, res.Attempts)
	assert.Len(t, res.Schedule.Days, 3)

	require.Len(t, sink.solves, 1)
	assert.Equal(t, "bnb", sink.solves[0].Backend)
	assert.Equal(t, res.RunID, sink.solves[0].RunID)
	require.Len(t, sink.attendance, 1)
	assert.Len(t, sink.attendance[0].Days, 3)
	assert.Positive(t, sink.progress)
	assert.Equal(t, []string{res.RunID}, pub.runs)

	runs, err := svc.Store().Query(context.Background(), store.RunQuery{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, milp.StatusOptimal, runs[0].Status)
	assert.Len(t, runs[0].Days, 3)
	assert.Equal(t, "2020-09-07", runs[0].Days[0].Date)
}

func TestRunInfeasibleIsStored(t *testing.T) {
	svc, sink, pub := newTestService(t, testConfig(t, 2))

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, solver.ErrInfeasible)
	assert.Empty(t, pub.runs)
	require.Len(t, sink.solves, 1)
	assert.Equal(t, milp.StatusInfeasible, sink.solves[0].Status)

	runs, err := svc.Store().Query(context.Background(), store.RunQuery{Status: milp.StatusInfeasible})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].Error)
}

func TestRunRetriesUnreachable(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Solver.Backend.Type = "app-flaky"
	cfg.Solver.MaxRetries = 3
	svc, _, _ := newTestService(t, cfg)

	flaky.mu.Lock()
	flaky.fails = 2
	flaky.mu.Unlock()
	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
}

func TestRunGivesUpAfterRetries(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Solver.Backend.Type = "app-flaky"
	cfg.Solver.MaxRetries = 1
	svc, sink, _ := newTestService(t, cfg)

	flaky.mu.Lock()
	flaky.fails = 5
	flaky.mu.Unlock()
	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, solver.ErrUnreachable)
	require.Len(t, sink.solves, 1)
	assert.Equal(t, 2, sink.solves[0].Attempts)
}

func TestRunDoesNotRetryOtherErrors(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Solver.Backend.Type = "app-broken"
	cfg.Solver.MaxRetries = 3
	svc, sink, _ := newTestService(t, cfg)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, sink.solves, 1)
	assert.Equal(t, 1, sink.solves[0].Attempts)
	assert.Equal(t, milp.StatusError, sink.solves[0].Status)
}

func TestRunPublishFailureKeepsResult(t *testing.T) {
	svc, _, pub := newTestService(t, testConfig(t, 3))
	pub.err = errors.New("broker down")
	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res.Schedule)
}

func TestRunUnknownBackend(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Solver.Backend.Type = "missing"
	svc, _, _ := newTestService(t, cfg)
	_, err := svc.Run(context.Background())
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	svc, err := New(testConfig(t, 3))
	require.NoError(t, err)
	pub := &fakePublisher{}
	svc.pub = pub
	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}
