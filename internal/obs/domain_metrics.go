package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts register activity.
type CheckoutMetrics struct {
	Scans        *prometheus.CounterVec
	Unscans      *prometheus.CounterVec
	SessionsOpen prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout collectors on reg.
func NewCheckoutMetrics(namespace string, reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &CheckoutMetrics{
		Scans: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_scans_total",
			Help:      "Scanned units by item and whether a pricing rule applied.",
		}, []string{"item", "pricing"})),
		Unscans: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_unscans_total",
			Help:      "Unscan attempts by outcome.",
		}, []string{"result"})),
		SessionsOpen: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_open",
			Help:      "Checkout sessions currently held in memory.",
		})),
	}
}

// ObserveScan records one scanned unit.
func (m *CheckoutMetrics) ObserveScan(item string, discounted bool) {
	if m == nil {
		return
	}
	pricing := "base"
	if discounted {
		pricing = "discounted"
	}
	m.Scans.WithLabelValues(item, pricing).Inc()
}

// ObserveUnscan records an unscan outcome ("ok" or "not_found").
func (m *CheckoutMetrics) ObserveUnscan(result string) {
	if m == nil {
		return
	}
	m.Unscans.WithLabelValues(result).Inc()
}

// SetSessionsOpen updates the open session gauge.
func (m *CheckoutMetrics) SetSessionsOpen(n int) {
	if m == nil {
		return
	}
	m.SessionsOpen.Set(float64(n))
}
