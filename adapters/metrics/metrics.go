// Package metrics provides Prometheus metrics collection for cloudmeter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cloudmeter/cloudmeter/ports"
)

// Collector holds all Prometheus metrics for cloudmeter.
type Collector struct {
	// Report engine metrics
	ReportsTotal      *prometheus.CounterVec
	ReportDuration    *prometheus.HistogramVec
	ReportErrors      *prometheus.CounterVec
	EventsSelected    prometheus.Counter
	InstancesExamined prometheus.Counter

	// Ingestion metrics
	EventsRecorded *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector with all metrics registered on the
// default registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on the given registerer.
func NewWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "reports_total",
				Help:      "Total number of reports computed",
			},
			[]string{"kind"},
		),
		ReportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cloudmeter",
				Name:      "report_duration_seconds",
				Help:      "Report computation duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		ReportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "report_errors_total",
				Help:      "Total number of failed report computations",
			},
			[]string{"kind"},
		),
		EventsSelected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "events_selected_total",
				Help:      "Total number of events selected as window-relevant",
			},
		),
		InstancesExamined: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "instances_examined_total",
				Help:      "Total number of instances examined during report computation",
			},
		),
		EventsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "events_recorded_total",
				Help:      "Total number of power-state events recorded",
			},
			[]string{"type"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cloudmeter",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed config reloads",
			},
		),
	}
}

// AddInstancesExamined implements ports.EngineMetrics.
func (c *Collector) AddInstancesExamined(n int) {
	c.InstancesExamined.Add(float64(n))
}

// AddEventsSelected implements ports.EngineMetrics.
func (c *Collector) AddEventsSelected(n int) {
	c.EventsSelected.Add(float64(n))
}

// Ensure interface compliance.
var _ ports.EngineMetrics = (*Collector)(nil)
