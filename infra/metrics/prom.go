package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/model"
	"github.com/kilianp07/rotation/core/solver"
)

// PromSink exposes solve results as Prometheus metrics.
type PromSink struct {
	solves     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	objective  *prometheus.GaugeVec
	attendance *prometheus.GaugeVec
	groupA     *prometheus.GaugeVec
	incumbent  *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.solves, err = Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rotation_solves_total",
		Help: "Solves by backend and final status",
	}, []string{"backend", "status"})); err != nil {
		return nil, err
	}
	if s.duration, err = Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rotation_solve_duration_seconds",
		Help:    "Wall time of a solve including retries",
		Buckets: []float64{0.01, 0.1, 1, 10, 60, 300, 1500},
	}, []string{"backend"})); err != nil {
		return nil, err
	}
	if s.objective, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rotation_objective",
		Help: "Objective value of the last solved schedule",
	}, []string{"backend"})); err != nil {
		return nil, err
	}
	if s.attendance, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rotation_day_attendance",
		Help: "Children attending each day of the last schedule",
	}, []string{"date"})); err != nil {
		return nil, err
	}
	if s.groupA, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rotation_day_group_a",
		Help: "Group A children attending each day of the last schedule",
	}, []string{"date"})); err != nil {
		return nil, err
	}
	if s.incumbent, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rotation_incumbent",
		Help: "Best objective found so far by the running search",
	}, []string{"backend"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordSolve updates the solve counter, duration and objective.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Backend, string(ev.Status)).Inc()
	s.duration.WithLabelValues(ev.Backend).Observe(ev.Duration.Seconds())
	if ev.Status.HasValues() {
		s.objective.WithLabelValues(ev.Backend).Set(ev.Objective)
	}
	return nil
}

// RecordAttendance replaces the per-day gauges with the given schedule.
func (s *PromSink) RecordAttendance(ev coremetrics.AttendanceEvent) error {
	s.attendance.Reset()
	s.groupA.Reset()
	for _, d := range ev.Days {
		date := d.Date.Format(model.DateLayout)
		s.attendance.WithLabelValues(date).Set(float64(d.Total))
		s.groupA.WithLabelValues(date).Set(float64(d.GroupA))
	}
	return nil
}

// RecordProgress sets the incumbent gauge.
func (s *PromSink) RecordProgress(p solver.Progress) error {
	s.incumbent.WithLabelValues(p.Backend).Set(p.Incumbent)
	return nil
}
