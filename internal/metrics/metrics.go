// Package metrics holds the prometheus collectors shared by the moderation service and handlers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var MessagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_messages_processed_total",
	Help: "Number of inbound community messages evaluated by the rule engine",
})

var Violations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_violations_total",
	Help: "Number of rule violations detected, by reason",
}, []string{"reason"})

var WarningsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_warnings_issued_total",
	Help: "Number of warnings added to the ledger, by source",
}, []string{"source"})

var MutesGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_mutes_granted_total",
	Help: "Number of mutes granted, by source",
}, []string{"source"})

var MutesLifted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_mutes_lifted_total",
	Help: "Number of mutes lifted, by cause",
}, []string{"cause"})

var CollaboratorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_collaborator_failures_total",
	Help: "Number of failed chat platform calls, by operation",
}, []string{"op"})

var ActiveTimedMutes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "automod_active_timed_mutes",
	Help: "Number of timed mute records currently tracked by the scheduler",
})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
