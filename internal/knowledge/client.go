package knowledge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"loanbot/internal/cache"
	"loanbot/internal/metrics"
	"loanbot/internal/repo"
)

const answerCacheTTL = 5 * time.Minute

// ErrNotConfigured indicates no remote answer service is set up; callers fall
// back to the local knowledge base score.
var ErrNotConfigured = errors.New("knowledge service not configured")

// errQuotaExceeded marks a key-level rejection that should park the key.
var errQuotaExceeded = errors.New("knowledge key quota exceeded")

// Client calls the external knowledge/answer service with API keys rotated
// from the repository. Keys that hit quota are parked on a cooldown.
type Client struct {
	repo     repo.Repository
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cache    *cache.Redis
	baseURL  string
	http     *http.Client
	cooldown time.Duration
}

// ClientConfig holds knowledge service settings.
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Cooldown time.Duration
}

// Answer is the remote service's response.
type Answer struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// NewClient creates a knowledge service client.
func NewClient(cfg ClientConfig, repository repo.Repository, redisCache *cache.Redis, logger *slog.Logger, metricRegistry *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	return &Client{
		repo:     repository,
		logger:   logger.With("component", "knowledge"),
		metrics:  metricRegistry,
		cache:    redisCache,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		cooldown: cooldown,
	}
}

// Configured reports whether a remote endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Ask sends the question plus composed context and returns the service's
// answer with its externally computed confidence. Identical questions are
// served from cache for a short window.
func (c *Client) Ask(ctx context.Context, question, contextText string) (Answer, error) {
	if !c.Configured() {
		return Answer{}, ErrNotConfigured
	}

	cacheKey := "kb:answer:" + hashQuestion(question, contextText)
	if c.cache != nil {
		var cached Answer
		if found, err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	start := time.Now()
	ans, err := c.ask(ctx, question, contextText)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.KnowledgeRequests.WithLabelValues(status).Inc()
		c.metrics.KnowledgeLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return Answer{}, err
	}

	if c.cache != nil {
		if cacheErr := c.cache.SetJSON(ctx, cacheKey, ans, answerCacheTTL); cacheErr != nil {
			c.logger.Warn("failed caching answer", "error", cacheErr)
		}
	}
	return ans, nil
}

func (c *Client) ask(ctx context.Context, question, contextText string) (Answer, error) {
	keys, err := c.repo.ListActiveKnowledgeKeys(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("list knowledge keys: %w", err)
	}

	now := time.Now()
	var lastErr error
	attempted := false
	for _, key := range keys {
		if key.CooldownUntil != nil && key.CooldownUntil.After(now) {
			continue
		}
		attempted = true

		ans, err := c.post(ctx, key.Value, question, contextText)
		if err == nil {
			return ans, nil
		}
		lastErr = err
		if errors.Is(err, errQuotaExceeded) {
			until := now.Add(c.cooldown)
			if cdErr := c.repo.SetKeyCooldown(ctx, key.ID, until); cdErr != nil {
				c.logger.Warn("failed parking knowledge key", "error", cdErr)
			}
			continue
		}
		// Non-quota failures are service-wide; trying more keys only adds latency.
		break
	}

	if !attempted {
		return Answer{}, fmt.Errorf("no knowledge keys available")
	}
	return Answer{}, fmt.Errorf("knowledge request: %w", lastErr)
}

func (c *Client) post(ctx context.Context, apiKey, question, contextText string) (Answer, error) {
	body, err := json.Marshal(map[string]string{
		"question": question,
		"context":  contextText,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("marshal question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(body))
	if err != nil {
		return Answer{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("post answer: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Answer{}, fmt.Errorf("read answer: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Answer{}, errQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("answer service status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var ans Answer
	if err := json.Unmarshal(payload, &ans); err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}
	if ans.Confidence < 0 || ans.Confidence > 1 {
		return Answer{}, fmt.Errorf("answer confidence %v out of range", ans.Confidence)
	}
	return ans, nil
}

func hashQuestion(question, contextText string) string {
	sum := sha256.Sum256([]byte(question + "\x00" + contextText))
	return hex.EncodeToString(sum[:8])
}
