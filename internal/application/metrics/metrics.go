package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application module. Counters are
// labelled by document type so the dashboard can break intake down per desk.
type Metrics struct {
	Submitted          *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	TransitionRejected *prometheus.CounterVec
	Deleted            *prometheus.CounterVec
	RefRetries         prometheus.Counter

	CreateDuration     prometheus.Histogram
	TransitionDuration prometheus.Histogram
	ListDuration       prometheus.Histogram
}

// New creates a Metrics instance with all application module metrics
// registered on the default registry.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barangaylink_applications_submitted_total",
			Help: "Total applications submitted, by document type",
		}, []string{"document_type"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barangaylink_status_transitions_total",
			Help: "Total successful status transitions, by document type and target status",
		}, []string{"document_type", "to_status"}),
		TransitionRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barangaylink_status_transitions_rejected_total",
			Help: "Transitions refused by the status graph, by document type",
		}, []string{"document_type"}),
		Deleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "barangaylink_applications_deleted_total",
			Help: "Total applications deleted, by document type",
		}, []string{"document_type"}),
		RefRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "barangaylink_reference_retries_total",
			Help: "Reference number regenerations after a uniqueness conflict",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "barangaylink_application_create_duration_seconds",
			Help:    "Duration of application submissions including file staging",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "barangaylink_status_transition_duration_seconds",
			Help:    "Duration of status transition operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "barangaylink_application_list_duration_seconds",
			Help:    "Duration of listing queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSubmitted records a successful submission.
func (m *Metrics) IncrementSubmitted(documentType string) {
	m.Submitted.WithLabelValues(documentType).Inc()
}

// IncrementTransition records a successful status transition.
func (m *Metrics) IncrementTransition(documentType, toStatus string) {
	m.Transitions.WithLabelValues(documentType, toStatus).Inc()
}

// IncrementTransitionRejected records a transition refused by the status graph.
func (m *Metrics) IncrementTransitionRejected(documentType string) {
	m.TransitionRejected.WithLabelValues(documentType).Inc()
}

// IncrementDeleted records an application deletion.
func (m *Metrics) IncrementDeleted(documentType string) {
	m.Deleted.WithLabelValues(documentType).Inc()
}

// ObserveCreate records the duration of a submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

// ObserveTransition records the duration of a transition.
func (m *Metrics) ObserveTransition(start time.Time) {
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}

// ObserveList records the duration of a listing query.
func (m *Metrics) ObserveList(start time.Time) {
	m.ListDuration.Observe(time.Since(start).Seconds())
}
