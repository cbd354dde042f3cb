package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	WAIncomingMessages *prometheus.CounterVec
	WAOutgoingActions  *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	DecisionRequests   *prometheus.CounterVec
	DecisionLatency    *prometheus.HistogramVec
	DecisionFallbacks  prometheus.Counter
	KnowledgeRequests  *prometheus.CounterVec
	KnowledgeLatency   *prometheus.HistogramVec
	Escalations        *prometheus.CounterVec
	IdleReminders      prometheus.Counter
	SessionConflicts   prometheus.Counter
	Errors             *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			WAIncomingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wa_incoming_messages_total",
				Help:      "Total incoming WhatsApp messages processed.",
			}, []string{"type"}),
			WAOutgoingActions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wa_outgoing_actions_total",
				Help:      "Total outbound actions delivered by kind.",
			}, []string{"kind"}),
			Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loan_decisions_total",
				Help:      "Total loan decisions by source and outcome.",
			}, []string{"source", "outcome"}),
			DecisionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decision_service_requests_total",
				Help:      "Total remote decision service requests by status.",
			}, []string{"status"}),
			DecisionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decision_service_duration_seconds",
				Help:      "Latency distribution for remote decision service calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			DecisionFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decision_fallbacks_total",
				Help:      "Total decisions served by the local policy after a remote failure.",
			}),
			KnowledgeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "knowledge_requests_total",
				Help:      "Total knowledge service requests by outcome.",
			}, []string{"status"}),
			KnowledgeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "knowledge_request_duration_seconds",
				Help:      "Latency distribution for knowledge service calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "support_escalations_total",
				Help:      "Total support escalations by target queue.",
			}, []string{"queue"}),
			IdleReminders: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idle_reminders_total",
				Help:      "Total inactivity reminders sent.",
			}),
			SessionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_version_conflicts_total",
				Help:      "Total optimistic-version conflicts on session writes.",
			}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.WAIncomingMessages,
			metricsInstance.WAOutgoingActions,
			metricsInstance.Decisions,
			metricsInstance.DecisionRequests,
			metricsInstance.DecisionLatency,
			metricsInstance.DecisionFallbacks,
			metricsInstance.KnowledgeRequests,
			metricsInstance.KnowledgeLatency,
			metricsInstance.Escalations,
			metricsInstance.IdleReminders,
			metricsInstance.SessionConflicts,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
