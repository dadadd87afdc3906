package decision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "memvault",
		Name:      "decisions_total",
		Help:      "Memory-worthiness classifications by outcome.",
	},
	[]string{"outcome"},
)
