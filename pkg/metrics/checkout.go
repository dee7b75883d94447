package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts order placement outcomes.
type CheckoutMetrics struct {
	placed        *prometheus.CounterVec
	verifyFailure prometheus.Counter
}

// NewCheckoutMetrics registers the checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created, labelled by payment method.",
	}, []string{"payment_method"})
	verifyFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_verification_failures_total",
		Help: "Payment assertions rejected by signature verification.",
	})
	reg.MustRegister(placed, verifyFailure)
	return &CheckoutMetrics{placed: placed, verifyFailure: verifyFailure}
}

// IncPlaced increments the placed-order counter for the payment method.
func (c *CheckoutMetrics) IncPlaced(method string) {
	if c == nil || c.placed == nil {
		return
	}
	c.placed.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncVerifyFailure increments the verification-failure counter.
func (c *CheckoutMetrics) IncVerifyFailure() {
	if c == nil || c.verifyFailure == nil {
		return
	}
	c.verifyFailure.Inc()
}
