// Package metrics defines and registers the custom Prometheus metrics of the
// identity API. It is the single source of truth for metric names, labels
// and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Authentication ────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "forbidden" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRenewalsTotal counts access-token renewals.
// Labels:
//   - result: "success", "forbidden" or "error"
//   - rotated: "true" when the refresh token was rotated
var TokenRenewalsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_renewals_total",
		Help:      "Total number of refresh-token renewals, by result.",
	},
	[]string{"result", "rotated"},
)

// SessionsRevokedTotal counts removed refresh tokens.
// Label:
//   - reason: "logout", "logout_all", "logout_by_token", "reject", "rotation", "reuse"
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of refresh tokens removed from user records.",
	},
	[]string{"reason"},
)

// RefreshTokenReuseTotal counts presentations of refresh tokens that had
// already been revoked for the same user.
var RefreshTokenReuseTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_token_reuse_total",
		Help:      "Total number of revoked refresh tokens presented again.",
	},
)

// ── Authorization ─────────────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts admission decisions.
// Labels:
//   - resource: the guarded resource (e.g. "roles")
//   - decision: "permit" or "deny"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions, by resource and outcome.",
	},
	[]string{"resource", "decision"},
)

// AuthorizationDuration measures role and permission resolution time.
var AuthorizationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "authorization_duration_seconds",
		Help:      "Duration of role and permission resolution for one decision.",
		Buckets:   prometheus.DefBuckets,
	},
)
