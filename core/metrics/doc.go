// Package metrics defines the events recorded after each solve: a SolveEvent
// summarizing the run, the per-day attendance of the extracted schedule and
// the incumbent progress reported by the engine. Sinks are built from
// configuration through NewMetricsSink and combined with NewMultiSink.
package metrics
