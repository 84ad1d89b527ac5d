package observe

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// ExpvarRecorder publishes aggregate counters and timing totals via expvar,
// for deployments that prefer process-local metrics without an external
// scrape target.
type ExpvarRecorder struct {
	name string

	mu          sync.Mutex
	durationsMS map[string]float64
	simulations map[string]map[string]int64
	issues      map[string]int64
	deltaSaves  map[string]int64
}

// ExpvarSnapshot is the read-only view published under the expvar name.
type ExpvarSnapshot struct {
	SimulationDurationsMS map[string]float64          `json:"simulation_durations_ms_total"`
	Simulations           map[string]map[string]int64 `json:"simulations_total"`
	AdapterIssues         map[string]int64            `json:"adapter_issues_total"`
	DeltaSaves            map[string]int64            `json:"delta_saves_total"`
	RecordedAt            time.Time                   `json:"recorded_at"`
}

// NewExpvarRecorder constructs an expvar-backed recorder published under
// name. An empty name gets a unique generated identifier.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("fluxcore_metrics_%d", id)
	}
	rec := &ExpvarRecorder{
		name:        name,
		durationsMS: make(map[string]float64),
		simulations: make(map[string]map[string]int64),
		issues:      make(map[string]int64),
		deltaSaves:  make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

var _ MetricsRecorder = (*ExpvarRecorder)(nil)

// Name returns the expvar export name.
func (r *ExpvarRecorder) Name() string { return r.name }

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarSnapshot{
		SimulationDurationsMS: make(map[string]float64, len(r.durationsMS)),
		Simulations:           make(map[string]map[string]int64, len(r.simulations)),
		AdapterIssues:         make(map[string]int64, len(r.issues)),
		DeltaSaves:            make(map[string]int64, len(r.deltaSaves)),
		RecordedAt:            time.Now().UTC(),
	}
	for k, v := range r.durationsMS {
		snap.SimulationDurationsMS[k] = v
	}
	for method, statuses := range r.simulations {
		cpy := make(map[string]int64, len(statuses))
		for status, n := range statuses {
			cpy[status] = n
		}
		snap.Simulations[method] = cpy
	}
	for k, v := range r.issues {
		snap.AdapterIssues[k] = v
	}
	for k, v := range r.deltaSaves {
		snap.DeltaSaves[k] = v
	}
	return snap
}

// ObserveSimulation records one solver run.
func (r *ExpvarRecorder) ObserveSimulation(method, status string, elapsed time.Duration) {
	if method == "" {
		return
	}
	r.mu.Lock()
	r.durationsMS[method] += float64(elapsed) / float64(time.Millisecond)
	if _, ok := r.simulations[method]; !ok {
		r.simulations[method] = make(map[string]int64, 2)
	}
	r.simulations[method][status]++
	r.mu.Unlock()
}

// ObserveAdapter records one adapter pass.
func (r *ExpvarRecorder) ObserveAdapter(adapter string, issues int) {
	r.mu.Lock()
	r.issues[adapter] += int64(issues)
	r.mu.Unlock()
}

// IncDeltaSave counts one delta log write.
func (r *ExpvarRecorder) IncDeltaSave(outcome string) {
	r.mu.Lock()
	r.deltaSaves[outcome]++
	r.mu.Unlock()
}
