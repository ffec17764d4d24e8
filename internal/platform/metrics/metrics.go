package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ExperiencesCreated   prometheus.Counter
	EmployersChosen      prometheus.Counter
	EmployersRegistered  prometheus.Counter
	AttestationsSigned   prometheus.Counter
	AttestationsRejected prometheus.Counter
	CollaboratorFailures prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ExperiencesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_experiences_created_total",
			Help: "Total number of experience claims created",
		}),
		EmployersChosen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_employers_chosen_total",
			Help: "Total number of claims bound to an employer via the address path",
		}),
		EmployersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_employers_registered_total",
			Help: "Total number of email-identified employers promoted to a registered address",
		}),
		AttestationsSigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_attestations_signed_total",
			Help: "Total number of claims signed by their employer",
		}),
		AttestationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_attestations_rejected_total",
			Help: "Total number of claims rejected by their employer",
		}),
		CollaboratorFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_collaborator_failures_total",
			Help: "Total number of attestation-signer calls that failed or returned a zero credential id",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
