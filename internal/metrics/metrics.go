// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login result labels.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// ChallengesIssued counts successfully issued challenge envelopes.
	ChallengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stellarauth",
		Name:      "challenges_issued_total",
		Help:      "Number of challenge envelopes issued.",
	})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarauth",
		Name:      "logins_total",
		Help:      "Number of login attempts by result.",
	}, []string{"result"})

	// ChallengesThrottled counts challenge requests dropped by the
	// per-identity rate limiter.
	ChallengesThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stellarauth",
		Name:      "challenges_throttled_total",
		Help:      "Number of challenge requests rejected by rate limiting.",
	})
)

// RegisterOutstandingNonces exposes a gauge backed by the given
// length function, typically MemoryNonceStore.Len.
func RegisterOutstandingNonces(lenFn func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "stellarauth",
		Name:      "outstanding_nonces",
		Help:      "Number of issued, not yet consumed nonces.",
	}, func() float64 { return float64(lenFn()) })
}
