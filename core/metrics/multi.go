package metrics

import (
	"errors"

	"github.com/kilianp07/rotation/core/solver"
)

// MultiSink fans events out to several sinks. Every sink receives the event
// even when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the event to all sinks.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordSolve(ev))
	}
	return errors.Join(errs...)
}

// RecordAttendance forwards attendance to sinks supporting it.
func (m *MultiSink) RecordAttendance(ev AttendanceEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AttendanceRecorder); ok {
			errs = append(errs, r.RecordAttendance(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordProgress forwards progress to sinks supporting it.
func (m *MultiSink) RecordProgress(p solver.Progress) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ProgressRecorder); ok {
			errs = append(errs, r.RecordProgress(p))
		}
	}
	return errors.Join(errs...)
}
