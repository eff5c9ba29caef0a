package login

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// outcome label values
const (
	outcomeSuccess     = "success"
	outcomeFailure     = "failure"
	outcomeUnavailable = "unavailable"
	outcomeInvalid     = "invalid"
	outcomeBusy        = "busy"
)

var (
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_login_attempts_total",
			Help: "Login submissions by form and outcome",
		},
		[]string{"form", "outcome"},
	)

	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_login_gateway_duration_seconds",
			Help:    "Time spent waiting for the auth gateway",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"form"},
	)
)
