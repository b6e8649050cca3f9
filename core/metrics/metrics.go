package metrics

import (
	"time"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/solver"
)

// SolveEvent summarizes one solve.
type SolveEvent struct {
	RunID       string
	Backend     string
	Status      milp.Status
	Objective   float64
	Vars        int
	Constraints int
	Attempts    int
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records solve events.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// DayAttendance is the attendance of one school day.
type DayAttendance struct {
	Date   time.Time
	Week   string
	Total  int
	GroupA int
}

// AttendanceEvent carries the attendance of a solved schedule.
type AttendanceEvent struct {
	RunID string
	Days  []DayAttendance
	Time  time.Time
}

// AttendanceRecorder records schedule attendance.
type AttendanceRecorder interface {
	RecordAttendance(ev AttendanceEvent) error
}

// ProgressRecorder records search progress.
type ProgressRecorder interface {
	RecordProgress(p solver.Progress) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error           { return nil }
func (NopSink) RecordAttendance(AttendanceEvent) error { return nil }
func (NopSink) RecordProgress(solver.Progress) error   { return nil }
