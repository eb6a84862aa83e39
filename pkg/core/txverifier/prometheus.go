package txverifier

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Verdict labels.
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultAborted  = "aborted"
)

// Metrics for monitoring service.
var (
	//scriptVerdicts prometheus metric.
	scriptVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of script group runs by verdict",
			Name:      "script_verdicts_total",
			Namespace: "rsaidentity",
		},
		[]string{"result"},
	)
	//verifiedTxs prometheus metric.
	verifiedTxs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of verified transactions",
			Name:      "verified_transactions_total",
			Namespace: "rsaidentity",
		},
	)
)

func init() {
	prometheus.MustRegister(
		scriptVerdicts,
		verifiedTxs,
	)
}

func updateVerdictMetric(result string) {
	scriptVerdicts.WithLabelValues(result).Inc()
}
