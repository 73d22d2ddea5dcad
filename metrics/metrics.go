// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civic_chat_requests_total",
		Help: "Chat requests accepted for streaming.",
	})
	ChatStreamFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civic_chat_stream_failures_total",
		Help: "Chat streams aborted by a provider error.",
	})
	SurveySubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civic_survey_submissions_total",
		Help: "Survey responses stored.",
	})
	OAuthLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civic_oauth_logins_total",
		Help: "Completed OAuth logins by provider.",
	}, []string{"provider"})
)
