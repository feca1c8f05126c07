package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	settlements      *prometheus.CounterVec
	settledCash      prometheus.Counter
	settledCredits   prometheus.Counter
	unknownMethod    *prometheus.CounterVec
	unpaidAnomalies  prometheus.Counter
	milestones       prometheus.Counter
	codesIssued      prometheus.Counter
	reconcilePending prometheus.Counter
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide payout and referral metrics, registering them on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "weavemart_settlements_total",
				Help: "Payout settlement attempts by outcome.",
			}, []string{"outcome"}),
			settledCash: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "weavemart_settled_cash_total",
				Help: "Cash amount recorded in payment history.",
			}),
			settledCredits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "weavemart_settled_credits_total",
				Help: "Credits recorded in payment history.",
			}),
			unknownMethod: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "weavemart_unknown_payment_method_total",
				Help: "Revenue splits that hit an unrecognized payment method.",
			}, []string{"method"}),
			unpaidAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "weavemart_unpaid_units_anomalies_total",
				Help: "Designs observed with last_payout_sold above total_sold.",
			}),
			milestones: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "weavemart_referral_milestones_total",
				Help: "Referral milestones credited.",
			}),
			codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "weavemart_referral_codes_issued_total",
				Help: "Referral codes assigned to users.",
			}),
			reconcilePending: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "weavemart_reconcile_pending_total",
				Help: "Design watermarks a reconcile pass could not advance.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.settlements,
			ledgerRegistry.settledCash,
			ledgerRegistry.settledCredits,
			ledgerRegistry.unknownMethod,
			ledgerRegistry.unpaidAnomalies,
			ledgerRegistry.milestones,
			ledgerRegistry.codesIssued,
			ledgerRegistry.reconcilePending,
		)
	})
	return ledgerRegistry
}

func (m *LedgerMetrics) ObserveSettlement(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *LedgerMetrics) AddSettled(cash float64, credits int64) {
	if m == nil {
		return
	}
	if cash > 0 {
		m.settledCash.Add(cash)
	}
	if credits > 0 {
		m.settledCredits.Add(float64(credits))
	}
}

func (m *LedgerMetrics) IncUnknownMethod(method string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "empty"
	}
	m.unknownMethod.WithLabelValues(method).Inc()
}

func (m *LedgerMetrics) IncUnpaidAnomaly() {
	if m == nil {
		return
	}
	m.unpaidAnomalies.Inc()
}

func (m *LedgerMetrics) IncMilestone() {
	if m == nil {
		return
	}
	m.milestones.Inc()
}

func (m *LedgerMetrics) IncCodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *LedgerMetrics) AddReconcilePending(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconcilePending.Add(float64(n))
}
