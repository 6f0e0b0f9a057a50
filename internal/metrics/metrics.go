package metrics

import (
	"fmt"
	"log/slog"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"

	"github.com/farellandr/donatrack/config"
)

var (
	OrdersCreated  = vm.GetOrCreateCounter(`donation_orders_total{result="created"}`)
	OrdersRejected = vm.GetOrCreateCounter(`donation_orders_total{result="rejected"}`)
	OrdersFailed   = vm.GetOrCreateCounter(`donation_orders_total{result="gateway_error"}`)

	VerificationsRecorded = vm.GetOrCreateCounter(`donation_verifications_total{result="recorded"}`)
	VerificationsFailed   = vm.GetOrCreateCounter(`donation_verifications_total{result="signature_failed"}`)
	VerificationsErrored  = vm.GetOrCreateCounter(`donation_verifications_total{result="error"}`)

	EventsPublished     = vm.GetOrCreateCounter(`donation_events_published_total{result="published"}`)
	EventsPublishFailed = vm.GetOrCreateCounter(`donation_events_published_total{result="failed"}`)

	OrderDuration = vm.GetOrCreateHistogram(`donation_order_duration_milliseconds`)
)

// Webhook counts a webhook delivery by event name and outcome.
func Webhook(event, result string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`donation_webhooks_total{event=%q,result=%q}`, event, result)).Inc()
}

func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}

// Setup starts pushing to cfg.URL when one is configured.
func Setup(cfg config.Metrics, logger *slog.Logger) {
	if cfg.URL == "" {
		return
	}

	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	if err := vm.InitPush(cfg.URL, interval, cfg.CommonLabels, true); err != nil {
		logger.Error("Error initializing metrics push", "error", err)
	}
}

// Handler serves every registered metric in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		vm.WritePrometheus(c.Writer, true)
	}
}
