package decision

import (
	"context"
	"log/slog"

	"loanbot/internal/metrics"
)

// Source produces a decision for a completed application. Implementations
// never block indefinitely; the passed context bounds any remote call.
type Source interface {
	Decide(ctx context.Context, app Application) (Result, error)
}

// LocalSource evaluates applications with the guardrail policy only.
type LocalSource struct {
	Guardrails Guardrails
}

// Decide implements Source.
func (s LocalSource) Decide(_ context.Context, app Application) (Result, error) {
	return Evaluate(app, s.Guardrails), nil
}

// RemoteSource prefers the external underwriting service and falls back to the
// local policy when the service fails or times out. The fallback is tagged on
// the result so it is observable downstream, never silent.
type RemoteSource struct {
	client     *Client
	guardrails Guardrails
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewRemoteSource wires a remote-with-fallback decision source.
func NewRemoteSource(client *Client, g Guardrails, logger *slog.Logger, metricRegistry *metrics.Metrics) *RemoteSource {
	return &RemoteSource{
		client:     client,
		guardrails: g,
		logger:     logger.With("component", "decision_source"),
		metrics:    metricRegistry,
	}
}

// Decide implements Source.
func (s *RemoteSource) Decide(ctx context.Context, app Application) (Result, error) {
	res, err := s.client.Decide(ctx, app)
	if err == nil {
		return res, nil
	}

	s.logger.Warn("decision service unavailable, using local policy",
		"error", err, "reference_id", app.ReferenceID)
	if s.metrics != nil {
		s.metrics.DecisionFallbacks.Inc()
	}
	res = Evaluate(app, s.guardrails)
	res.FallbackUsed = true
	return res, nil
}

// NewSource selects the configured decision source: remote-with-fallback when
// a service URL is configured, plain local policy otherwise.
func NewSource(client *Client, remoteConfigured bool, g Guardrails, logger *slog.Logger, metricRegistry *metrics.Metrics) Source {
	if remoteConfigured {
		return NewRemoteSource(client, g, logger, metricRegistry)
	}
	return LocalSource{Guardrails: g}
}
