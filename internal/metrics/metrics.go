// Package metrics records service operation outcomes and table sizes.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder observes the outcome of one service operation.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	SetRows(table string, n int)
}

type noop struct{}

func (noop) Observe(context.Context, string, bool, time.Duration) {}
func (noop) SetRows(string, int)                                  {}

// Noop discards everything.
func Noop() Recorder { return noop{} }

// Prometheus keeps operation counters, durations and row gauges in its own
// registry so several services can coexist in one process.
type Prometheus struct {
	reg        *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.GaugeVec
}

// NewPrometheus registers the collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Prometheus{
		reg: reg,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "awardbook_operations_total",
				Help: "Service operations by outcome",
			},
			[]string{"operation", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "awardbook_operation_duration_seconds",
				Help:    "Service operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		rows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "awardbook_table_rows",
				Help: "Rows currently held per table",
			},
			[]string{"table"},
		),
	}
}

func (p *Prometheus) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	p.operations.WithLabelValues(operation, status).Inc()
	p.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *Prometheus) SetRows(table string, n int) {
	p.rows.WithLabelValues(table).Set(float64(n))
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (p *Prometheus) Registry() *prometheus.Registry { return p.reg }

// WriteTextfile dumps the current values in the node-exporter textfile
// format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.reg)
}
