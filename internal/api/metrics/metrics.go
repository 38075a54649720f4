// Package metrics defines and registers the custom Prometheus metrics of the
// auth service. It is the single source of truth for metric names, labels,
// and help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authd"

// ── Flow metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success" or the failure kind (e.g. "validation", "duplicate")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - role: "admin" or "user" for successes, "unknown" for failures
//   - result: "success" or the failure kind (e.g. "invalid_credential")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// LogoutsTotal counts logout requests.
// Label:
//   - token: "present" when a cookie was sent, "absent" otherwise
var LogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout requests.",
	},
	[]string{"token"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// TokenVerificationsTotal counts session checks on protected routes.
// Label:
//   - result: "accepted", "malformed", "expired", "revoked" or "internal"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of session token verifications, by result.",
	},
	[]string{"result"},
)

// RevocationEntries tracks the live size of the in-memory revocation registry.
var RevocationEntries = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revocation_entries",
		Help:      "Number of revoked tokens currently held by the in-memory registry.",
	},
)

// RevocationsSweptTotal counts registry entries reclaimed by the periodic sweep.
var RevocationsSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revocations_swept_total",
		Help:      "Total number of expired revocation entries removed by the sweeper.",
	},
)
