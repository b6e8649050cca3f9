// Package infra contains technical adapters: solver backends, metrics
// exporters, the run store and the schedule publisher. These packages depend
// only on the interfaces defined in the core packages.
package infra
