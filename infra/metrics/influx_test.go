package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/milp"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(b)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkRecordSolve(t *testing.T) {
	srv, bodies := captureServer(t)
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Date(2020, 9, 18, 17, 0, 0, 0, time.UTC)
	ev := coremetrics.SolveEvent{
		RunID:       "r1",
		Backend:     "bnb",
		Status:      milp.StatusOptimal,
		Objective:   10,
		Vars:        38,
		Constraints: 47,
		Attempts:    1,
		Duration:    1500 * time.Millisecond,
		Time:        now,
	}
	require.NoError(t, sink.RecordSolve(ev))

	p := write.NewPointWithMeasurement("solve_run").
		AddTag("run_id", "r1").
		AddTag("backend", "bnb").
		AddTag("status", "optimal").
		AddField("objective", 10.0).
		AddField("vars", 38).
		AddField("constraints", 47).
		AddField("attempts", 1).
		AddField("duration_ms", 1500.0).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, bodies())
}

func TestInfluxSinkRecordAttendance(t *testing.T) {
	srv, bodies := captureServer(t)
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	day := time.Date(2020, 9, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordAttendance(coremetrics.AttendanceEvent{
		RunID: "r1",
		Days: []coremetrics.DayAttendance{
			{Date: day, Week: "2020-W37", Total: 15, GroupA: 7},
			{Date: day.AddDate(0, 0, 1), Week: "2020-W37", Total: 14, GroupA: 7},
		},
	}))
	got := bodies()
	require.Len(t, got, 2)
	p := write.NewPointWithMeasurement("day_attendance").
		AddTag("run_id", "r1").
		AddTag("date", "2020-09-07").
		AddTag("week", "2020-W37").
		AddField("total", 15).
		AddField("group_a", 7).
		SetTime(day)
	assert.Equal(t, line(p), got[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "tok", Org: "org", Bucket: "bucket"})
	_, ok := sink.(coremetrics.NopSink)
	assert.True(t, ok, "expected NopSink on failing health check, got %T", sink)
	assert.True(t, called, "health endpoint not called")
}

func TestBuiltinSinks(t *testing.T) {
	s, err := coremetrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, s)
}
