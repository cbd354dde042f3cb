package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"loanbot/internal/decision"
)

// Config holds every runtime setting, loaded once at startup from the environment.
type Config struct {
	AppEnv           string
	LogLevel         string
	LogFormat        string
	HTTPListenAddr   string
	PublicBasePath   string
	MetricsNamespace string

	DatabaseURL string
	DBSchema    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	WhatsAppStorePath string
	WhatsAppLogLevel  string

	DecisionBaseURL            string
	DecisionAPIKey             string
	DecisionTimeout            time.Duration
	DecisionWebhookUsernameMD5 string
	DecisionWebhookPasswordMD5 string

	KnowledgeBaseURL  string
	KnowledgeAPIKeys  []string
	KnowledgeTimeout  time.Duration
	KnowledgeCooldown time.Duration
	KnowledgePath     string

	ConfidenceThreshold float64
	InactivityThreshold time.Duration
	IdleSweepInterval   time.Duration
	RetrySoftCap        int
	HandoffQueue        string
	SessionTTL          time.Duration

	Guardrails decision.Guardrails
}

// Load reads configuration from the environment. Missing or invalid guardrail
// values are a startup error, never discovered per event.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBasePath:   getEnv("PUBLIC_BASE_PATH", ""),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "loanbot"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBSchema:    getEnv("DATABASE_SCHEMA", "public"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		WhatsAppStorePath: getEnv("WHATSAPP_STORE_PATH", "data/wa.db"),
		WhatsAppLogLevel:  getEnv("WHATSAPP_LOG_LEVEL", "WARN"),

		DecisionBaseURL:            os.Getenv("DECISION_BASE_URL"),
		DecisionAPIKey:             os.Getenv("DECISION_API_KEY"),
		DecisionWebhookUsernameMD5: os.Getenv("DECISION_WEBHOOK_USERNAME_MD5"),
		DecisionWebhookPasswordMD5: os.Getenv("DECISION_WEBHOOK_PASSWORD_MD5"),

		KnowledgeBaseURL: os.Getenv("KNOWLEDGE_BASE_URL"),
		KnowledgeAPIKeys: splitList(os.Getenv("KNOWLEDGE_API_KEYS")),
		KnowledgePath:    getEnv("KNOWLEDGE_PATH", ""),

		HandoffQueue: getEnv("HUMAN_HANDOFF_QUEUE", "loanbot-support"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisTLS, err = getBool("REDIS_TLS", false); err != nil {
		return nil, err
	}
	if cfg.DecisionTimeout, err = getDuration("DECISION_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.KnowledgeTimeout, err = getDuration("KNOWLEDGE_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.KnowledgeCooldown, err = getDuration("KNOWLEDGE_COOLDOWN", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ConfidenceThreshold, err = getFloat("CONFIDENCE_THRESHOLD", 0.55); err != nil {
		return nil, err
	}
	if cfg.InactivityThreshold, err = getDuration("INACTIVITY_THRESHOLD", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IdleSweepInterval, err = getDuration("IDLE_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RetrySoftCap, err = getInt("RETRY_SOFT_CAP", 3); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be in (0, 1], got %v", cfg.ConfidenceThreshold)
	}

	if cfg.Guardrails, err = loadGuardrails(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadGuardrails reads underwriting thresholds. Defaults follow the first
// deployment of this product family; every value can be overridden per
// jurisdiction.
func loadGuardrails() (decision.Guardrails, error) {
	var g decision.Guardrails
	var err error
	if g.MinAge, err = getInt("GUARDRAIL_MIN_AGE", 21); err != nil {
		return g, err
	}
	if g.MinIncome, err = getFloat("GUARDRAIL_MIN_INCOME", 15000); err != nil {
		return g, err
	}
	if g.DTICeiling, err = getFloat("GUARDRAIL_DTI_CEILING", 6); err != nil {
		return g, err
	}
	if g.OfferMultiplier, err = getFloat("GUARDRAIL_OFFER_MULTIPLIER", 5); err != nil {
		return g, err
	}
	if g.APRLow, err = getFloat("GUARDRAIL_APR_LOW", 12.99); err != nil {
		return g, err
	}
	if g.APRHigh, err = getFloat("GUARDRAIL_APR_HIGH", 18.49); err != nil {
		return g, err
	}
	if g.APRIncomeThreshold, err = getFloat("GUARDRAIL_APR_INCOME_THRESHOLD", 50000); err != nil {
		return g, err
	}
	if g.MaxTermMonths, err = getInt("GUARDRAIL_MAX_TERM_MONTHS", 60); err != nil {
		return g, err
	}
	if err := g.Validate(); err != nil {
		return g, fmt.Errorf("guardrail config: %w", err)
	}
	return g, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
