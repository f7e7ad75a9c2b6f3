package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	wizardStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_started_total",
		Help: "Wound update wizards started",
	}, []string{"role"})
	wizardCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_completed_total",
		Help: "Wound update wizards that submitted a tracking record",
	}, []string{"role"})
	wizardAbandoned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_abandoned_total",
		Help: "Wound update wizards discarded before submission",
	}, []string{"role", "reason"})
	uploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_image_rejected_total",
		Help: "Photo uploads rejected, by reason",
	}, []string{"reason"})
	imageLinkFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wizard_image_link_failed_total",
		Help: "Best-effort wound image associations that failed",
	})
	submitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wizard_submit_duration_ms",
		Help:    "Conduct submit duration in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
	})
)

func init() {
	registry.MustRegister(wizardStarted, wizardCompleted, wizardAbandoned, uploadsRejected, imageLinkFailed, submitDuration)
}

// IncWizardStarted increments the started counter for a role.
func IncWizardStarted(role string) {
	wizardStarted.WithLabelValues(role).Inc()
}

// IncWizardCompleted increments the completed counter for a role.
func IncWizardCompleted(role string) {
	wizardCompleted.WithLabelValues(role).Inc()
}

// IncWizardAbandoned records a discarded draft. reason is "left" or "expired".
func IncWizardAbandoned(role, reason string) {
	wizardAbandoned.WithLabelValues(role, reason).Inc()
}

// IncImageRejected records a photo rejected before or by the backend.
func IncImageRejected(reason string) {
	uploadsRejected.WithLabelValues(reason).Inc()
}

// IncImageLinkFailed records a failed wound image association.
func IncImageLinkFailed() {
	imageLinkFailed.Inc()
}

// ObserveSubmitDurationMs records a conduct submit duration in milliseconds.
func ObserveSubmitDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	submitDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
