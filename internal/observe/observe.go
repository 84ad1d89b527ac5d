// Package observe carries the metrics surface the pipeline reports into.
// Recorders are pluggable so tests run with the no-op implementation while
// deployments pick expvar or Prometheus.
package observe

import "time"

// MetricsRecorder receives pipeline-level measurements.
type MetricsRecorder interface {
	// ObserveSimulation records one solver run with its method (fba, pfba,
	// fit), terminal status and wall time.
	ObserveSimulation(method, status string, elapsed time.Duration)
	// ObserveAdapter records one condition adapter pass and how many
	// resolution issues it produced.
	ObserveAdapter(adapter string, issues int)
	// IncDeltaSave counts delta log writes by outcome (saved, error).
	IncDeltaSave(outcome string)
}

// Noop discards all measurements.
type Noop struct{}

var _ MetricsRecorder = Noop{}

func (Noop) ObserveSimulation(string, string, time.Duration) {}
func (Noop) ObserveAdapter(string, int)                      {}
func (Noop) IncDeltaSave(string)                             {}
