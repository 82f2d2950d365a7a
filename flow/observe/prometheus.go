package observe

import (
	"fmt"
	"time"

	"github.com/lguimbarda/reportflow/flow/link"
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records link activity as Prometheus collectors.
type Prometheus struct {
	Dispatched *prometheus.CounterVec
	Delivered  *prometheus.CounterVec
	Superseded *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportflow",
			Subsystem: "link",
			Name:      "dispatched_total",
			Help:      "Stage tasks handed to an executor.",
		}, []string{"link"}),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportflow",
			Subsystem: "link",
			Name:      "delivered_total",
			Help:      "Stage results handed downstream.",
		}, []string{"link", "outcome"}),
		Superseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportflow",
			Subsystem: "link",
			Name:      "superseded_total",
			Help:      "Stale stage results discarded by a latest-wins link.",
		}, []string{"link"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reportflow",
			Subsystem: "link",
			Name:      "duration_seconds",
			Help:      "Time from accepting an input to resolving its stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"link", "outcome"}),
	}
	for _, c := range []prometheus.Collector{p.Dispatched, p.Delivered, p.Superseded, p.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register link metrics: %w", err)
		}
	}
	return p, nil
}

// Hooks returns the hooks that feed the collectors.
func (p *Prometheus) Hooks() link.Hooks {
	return link.Hooks{
		OnDispatch: func(name string, _ uint64) {
			p.Dispatched.WithLabelValues(name).Inc()
		},
		OnDeliver: func(name string, _ uint64, failed bool, elapsed time.Duration) {
			p.Delivered.WithLabelValues(name, outcome(failed)).Inc()
			p.Duration.WithLabelValues(name, outcome(failed)).Observe(elapsed.Seconds())
		},
		OnSupersede: func(name string, _ uint64, elapsed time.Duration) {
			p.Superseded.WithLabelValues(name).Inc()
			p.Duration.WithLabelValues(name, "superseded").Observe(elapsed.Seconds())
		},
	}
}
