package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/solver"
	"github.com/kilianp07/rotation/infra/solver/bnb"
	"github.com/kilianp07/rotation/infra/solver/remote"
)

func knapsack(t *testing.T) *milp.Model {
	t.Helper()
	m := milp.NewModel("knapsack")
	a, _ := m.AddVar("a", milp.Binary)
	b, _ := m.AddVar("b", milp.Binary)
	require.NoError(t, m.AddConstraint(milp.Constraint{
		Name: "weight", Expr: milp.Expr{}.Plus(2, a).Plus(3, b), Sense: milp.LessEq, RHS: 4,
	}))
	require.NoError(t, m.SetObjective(milp.Maximize, milp.Expr{}.Plus(3, a).Plus(4, b)))
	return m
}

func newServer(t *testing.T, s solver.Solver) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv, err := NewWithRegistry(Config{}, s, reg, reg)
	require.NoError(t, err)
	return srv, reg
}

func TestRemoteRoundTrip(t *testing.T) {
	srv, _ := newServer(t, bnb.New(bnb.Config{}))
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	c, err := remote.New(remote.Config{URL: ts.URL}, nil, nil)
	require.NoError(t, err)
	sol, err := c.Solve(context.Background(), knapsack(t), solver.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, milp.StatusOptimal, sol.Status)
	assert.InDelta(t, 4, sol.Objective, 1e-6)
	assert.Equal(t, 1.0, sol.Values["b"])
}

func TestSolveReportsInfeasible(t *testing.T) {
	infeasible := solver.Func(func(context.Context, *milp.Model, solver.Options) (milp.Solution, error) {
		return milp.Solution{}, solver.ErrInfeasible
	})
	srv, _ := newServer(t, infeasible)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, err := json.Marshal(remote.Request{Model: knapsack(t)})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+remote.SolvePath, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out remote.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, milp.StatusInfeasible, out.Status)
	assert.Empty(t, out.Values)
}

func TestSolveRejectsBadModels(t *testing.T) {
	srv, _ := newServer(t, bnb.New(bnb.Config{}))
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	for name, body := range map[string]string{
		"garbage":  "{",
		"no model": `{"options":{}}`,
		"bad ref":  `{"model":{"name":"m","vars":[{"name":"a","domain":"binary"}],"constraints":[{"name":"c","expr":[{"var":3,"coef":1}],"sense":"<=","rhs":1}],"objective":{"sense":"maximize","expr":[]}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+remote.SolvePath, "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newServer(t, bnb.New(bnb.Config{}))
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bad, err := http.Post(ts.URL+remote.SolvePath, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	bad.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rotation_solve_requests_total{status="bad_request"} 1`)
}

func TestStartStopsOnCancel(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, err := NewWithRegistry(Config{Address: "127.0.0.1:0"}, bnb.New(bnb.Config{}), reg, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestAddrReportsBoundPort(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, err := NewWithRegistry(Config{Address: "127.0.0.1:0"}, bnb.New(bnb.Config{}), reg, reg)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "127.0.0.1:0" }, 2*time.Second, 5*time.Millisecond)
	assert.Regexp(t, `^127\.0\.0\.1:\d+$`, srv.Addr())

	cancel()
	require.NoError(t, <-done)
}
