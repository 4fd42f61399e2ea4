package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts provider webhook deliveries by outcome.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_received",
		Help: "Provider webhook events received, labeled by event type and outcome.",
	}, []string{"event", "outcome"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_signature_rejections",
		Help: "Webhook deliveries rejected due to signature failures.",
	}, []string{"reason"})
	reg.MustRegister(received, rejected)
	return &WebhookMetrics{received: received, rejected: rejected}
}

// IncReceived records a processed delivery with its outcome
// (applied, duplicate, unknown, ignored, error).
func (m *WebhookMetrics) IncReceived(event, outcome string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// IncRejected records a signature rejection (missing, mismatch, unconfigured).
func (m *WebhookMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
