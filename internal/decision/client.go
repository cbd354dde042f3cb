package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"loanbot/internal/metrics"
)

// Client calls the external underwriting microservice.
type Client struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	http    *http.Client
	metrics *metrics.Metrics
}

// ClientConfig holds decision service connection settings.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a decision service client. BaseURL must be non-empty;
// callers that have no remote service configured use the local policy instead.
func NewClient(cfg ClientConfig, logger *slog.Logger, metricRegistry *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		logger:  logger.With("component", "decision_client"),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		metrics: metricRegistry,
	}
}

// Decide submits the application and decodes the service's decision.
func (c *Client) Decide(ctx context.Context, app Application) (Result, error) {
	start := time.Now()
	res, err := c.decide(ctx, app)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.DecisionRequests.WithLabelValues(status).Inc()
		c.metrics.DecisionLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
	return res, err
}

func (c *Client) decide(ctx context.Context, app Application) (Result, error) {
	body, err := json.Marshal(app)
	if err != nil {
		return Result{}, fmt.Errorf("marshal application: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/decisions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build decision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("decision request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read decision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("decision service status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var res Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return Result{}, fmt.Errorf("decode decision response: %w", err)
	}
	if res.ReferenceID == "" {
		res.ReferenceID = app.ReferenceID
	}
	res.Source = SourceRemote
	if !res.Approved && res.Reason == "" {
		return Result{}, fmt.Errorf("decision service denied without reason")
	}
	return res, nil
}
