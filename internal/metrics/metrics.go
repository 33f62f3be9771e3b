// Package metrics provides Prometheus counters for session activity. Counters
// live on a private registry so the CLI can dump them without serving HTTP.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Operation labels for auth attempts.
const (
	OpLogin  = "login"
	OpSignup = "signup"
	OpRenew  = "renew"
)

// Result labels for auth attempts.
const (
	ResultOK           = "ok"
	ResultRejected     = "rejected"
	ResultInvalidToken = "invalid_token"
	ResultError        = "error"
)

// Trigger labels for renewals.
const (
	TriggerStartup   = "startup"
	TriggerManual    = "manual"
	TriggerHint      = "hint"
	TriggerKeepalive = "keepalive"
)

// Recorder records session metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry     *prometheus.Registry
	authAttempts *prometheus.CounterVec
	renewals     *prometheus.CounterVec
	revocations  prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filebrowser_auth_attempts_total",
				Help: "Total number of login, signup and renew attempts",
			},
			[]string{"op", "result"},
		),
		renewals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filebrowser_renewals_total",
				Help: "Total number of credential renewals started, by trigger",
			},
			[]string{"trigger"},
		),
		revocations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filebrowser_session_revocations_total",
				Help: "Total number of session revocations",
			},
		),
	}

	r.registry.MustRegister(r.authAttempts, r.renewals, r.revocations)

	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}

	return r.registry
}

// RecordAuthAttempt counts one auth endpoint call and its outcome.
func (r *Recorder) RecordAuthAttempt(op, result string) {
	if r == nil {
		return
	}

	r.authAttempts.WithLabelValues(op, result).Inc()
}

// RecordRenewal counts one renewal started by trigger.
func (r *Recorder) RecordRenewal(trigger string) {
	if r == nil {
		return
	}

	r.renewals.WithLabelValues(trigger).Inc()
}

// RecordRevocation counts one session revocation.
func (r *Recorder) RecordRevocation() {
	if r == nil {
		return
	}

	r.revocations.Inc()
}

// WriteText writes every collected metric family to w in the Prometheus text
// exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}

	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gathering: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: writing %s: %w", mf.GetName(), err)
		}
	}

	return nil
}
