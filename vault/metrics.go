package vault

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memvault",
			Name:      "ledger_reads_total",
			Help:      "Ledger read calls by contract operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	writesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memvault",
			Name:      "ledger_writes_total",
			Help:      "Append submissions by outcome.",
		},
		[]string{"outcome"},
	)
)
