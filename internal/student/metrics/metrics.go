package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the student module.
// Tracks registrations, duplicate email rejections and operation durations.
type Metrics struct {
	StudentsCreated   prometheus.Counter
	DuplicateEmails   prometheus.Counter
	EmailUpdates      *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
}

// New creates the student metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StudentsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_students_created_total",
			Help: "Total number of students registered",
		}),
		DuplicateEmails: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_student_duplicate_email_total",
			Help: "Registrations rejected because the email was already taken",
		}),
		EmailUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_student_email_updates_total",
			Help: "Email update attempts by outcome (updated, not_found)",
		}, []string{"outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_student_operation_duration_seconds",
			Help:    "Duration of student service operations",
			Buckets: latencyBuckets,
		}, []string{"operation"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_student_cache_lookups_total",
			Help: "Student cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// IncrementStudentsCreated records a successful registration.
func (m *Metrics) IncrementStudentsCreated() {
	m.StudentsCreated.Inc()
}

// IncrementDuplicateEmail records a registration rejected for a taken email.
func (m *Metrics) IncrementDuplicateEmail() {
	m.DuplicateEmails.Inc()
}

// IncrementEmailUpdate records an update attempt with its outcome.
func (m *Metrics) IncrementEmailUpdate(outcome string) {
	m.EmailUpdates.WithLabelValues(outcome).Inc()
}

// ObserveOperation records the duration of a service operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementCacheLookup records a cache hit, miss or error.
func (m *Metrics) IncrementCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
