package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/solver"
)

func TestPromSinkRecordsSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordSolve(coremetrics.SolveEvent{Backend: "bnb", Status: milp.StatusOptimal, Objective: 10, Duration: time.Second}))
	require.NoError(t, s.RecordSolve(coremetrics.SolveEvent{Backend: "bnb", Status: milp.StatusInfeasible, Objective: 99}))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.solves.WithLabelValues("bnb", "optimal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.solves.WithLabelValues("bnb", "infeasible")))
	assert.Equal(t, 10.0, testutil.ToFloat64(s.objective.WithLabelValues("bnb")))
}

func TestPromSinkAttendanceReplacesDays(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	d1 := time.Date(2020, 9, 7, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	require.NoError(t, s.RecordAttendance(coremetrics.AttendanceEvent{Days: []coremetrics.DayAttendance{
		{Date: d1, Total: 15, GroupA: 7},
		{Date: d2, Total: 14, GroupA: 8},
	}}))
	assert.Equal(t, 2, testutil.CollectAndCount(s.attendance))
	assert.Equal(t, 15.0, testutil.ToFloat64(s.attendance.WithLabelValues("2020-09-07")))
	assert.Equal(t, 8.0, testutil.ToFloat64(s.groupA.WithLabelValues("2020-09-08")))

	require.NoError(t, s.RecordAttendance(coremetrics.AttendanceEvent{Days: []coremetrics.DayAttendance{{Date: d2, Total: 3}}}))
	assert.Equal(t, 1, testutil.CollectAndCount(s.attendance))
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordProgress(solver.Progress{Backend: "bnb", Incumbent: 4}))
	assert.Equal(t, 4.0, testutil.ToFloat64(b.incumbent.WithLabelValues("bnb")))
}

func TestRegisterWrongType(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := Register(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: "rotation_x", Help: "x"}))
	require.NoError(t, err)
	_, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: "rotation_x", Help: "x"}))
	assert.Error(t, err)
}
