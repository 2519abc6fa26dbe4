package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(creditsDeductedTotal, noCreditCompletionsTotal, ledgerTxFallbackTotal, publishFailuresTotal)
}

var (
	creditsDeductedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_deducted_total",
			Help: "Credits deducted for completed transformations.",
		},
	)

	noCreditCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "no_credit_completions_total",
			Help: "Jobs completed for users with an exhausted balance.",
		},
	)

	ledgerTxFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_tx_fallback_total",
			Help: "Ledger transactions that fell back to the non-transactional done-write.",
		},
	)

	publishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "result_publish_failures_total",
			Help: "Failed uploads of generated images to object storage.",
		},
	)
)

func IncCreditDeducted()    { creditsDeductedTotal.Inc() }
func IncNoCreditCompleted() { noCreditCompletionsTotal.Inc() }
func IncLedgerFallback()    { ledgerTxFallbackTotal.Inc() }
func IncPublishFailure()    { publishFailuresTotal.Inc() }
