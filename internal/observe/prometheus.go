package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports pipeline metrics through a Prometheus
// registerer for scrape-based deployments.
type PrometheusRecorder struct {
	simulationSeconds *prometheus.HistogramVec
	simulations       *prometheus.CounterVec
	adapterIssues     *prometheus.CounterVec
	deltaSaves        *prometheus.CounterVec
}

// NewPrometheusRecorder registers the pipeline collectors on reg (nil uses
// the default registerer).
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		simulationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fluxcore",
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of solver runs by method.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"method"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxcore",
			Name:      "simulations_total",
			Help:      "Solver runs by method and terminal status.",
		}, []string{"method", "status"}),
		adapterIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxcore",
			Name:      "adapter_issues_total",
			Help:      "Resolution issues produced by condition adapters.",
		}, []string{"adapter"}),
		deltaSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxcore",
			Name:      "delta_saves_total",
			Help:      "Delta log writes by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{r.simulationSeconds, r.simulations, r.adapterIssues, r.deltaSaves} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var _ MetricsRecorder = (*PrometheusRecorder)(nil)

// ObserveSimulation records one solver run.
func (r *PrometheusRecorder) ObserveSimulation(method, status string, elapsed time.Duration) {
	r.simulationSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
	r.simulations.WithLabelValues(method, status).Inc()
}

// ObserveAdapter records one adapter pass.
func (r *PrometheusRecorder) ObserveAdapter(adapter string, issues int) {
	r.adapterIssues.WithLabelValues(adapter).Add(float64(issues))
}

// IncDeltaSave counts one delta log write.
func (r *PrometheusRecorder) IncDeltaSave(outcome string) {
	r.deltaSaves.WithLabelValues(outcome).Inc()
}
