package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissionsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_submissions_total",
	Help: "Submissions forwarded to the review chat.",
})

var decisionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_decisions_total",
	Help: "Reviewer decisions applied, by decision.",
}, []string{"decision"})

var purgedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_ledger_purged_total",
	Help: "Stale ledger entries removed by the janitor.",
})
