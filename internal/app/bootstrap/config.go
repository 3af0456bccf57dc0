package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the intake service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	SessionJWTSecret string
	FormTokenSecret  string
	CSRFHashKey      string
	AnonymousHashKey string

	HoneypotField     string
	MinFormElapsed    time.Duration
	MaxFormTokenAge   time.Duration
	GateAppliesOnEdit bool

	SubmissionLimit  int
	SubmissionWindow time.Duration
	BurstPerMinute   int
	Burst            int

	TrustedProxies []string

	RequireTitle         bool
	RequireContent       bool
	RequireCategory      bool
	RequireFeaturedImage bool
	MinContentLength     int

	MaxUploadBytes    int64
	AllowedImageTypes []string

	DefaultStatus string
	ElevatedRoles []string

	FlashTTL time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Intake struct {
		HoneypotField        string   `yaml:"honeypot_field"`
		MinFormSeconds       int      `yaml:"min_form_seconds"`
		MaxFormTokenHours    int      `yaml:"max_form_token_hours"`
		GateAppliesOnEdit    *bool    `yaml:"gate_applies_on_edit"`
		SubmissionLimit      int      `yaml:"submission_limit"`
		SubmissionWindowSecs int      `yaml:"submission_window_seconds"`
		TrustedProxies       []string `yaml:"trusted_proxies"`
		DefaultStatus        string   `yaml:"default_status"`
		ElevatedRoles        []string `yaml:"elevated_roles"`
	} `yaml:"intake"`
	Validation struct {
		RequireTitle         *bool    `yaml:"require_title"`
		RequireContent       *bool    `yaml:"require_content"`
		RequireCategory      *bool    `yaml:"require_category"`
		RequireFeaturedImage *bool    `yaml:"require_featured_image"`
		MinContentLength     int      `yaml:"min_content_length"`
		MaxUploadMB          int      `yaml:"max_upload_mb"`
		AllowedImageTypes    []string `yaml:"allowed_image_types"`
	} `yaml:"validation"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "listing-intake-service",
		HTTPPort:             8080,
		HoneypotField:        "website_url_2",
		MinFormElapsed:       3 * time.Second,
		MaxFormTokenAge:      24 * time.Hour,
		GateAppliesOnEdit:    false,
		SubmissionLimit:      5,
		SubmissionWindow:     time.Hour,
		BurstPerMinute:       12,
		Burst:                6,
		RequireTitle:         true,
		RequireContent:       true,
		RequireCategory:      false,
		RequireFeaturedImage: false,
		MinContentLength:     0,
		MaxUploadBytes:       5 << 20,
		AllowedImageTypes:    []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		DefaultStatus:        "pending_review",
		ElevatedRoles:        []string{"admin", "editor"},
		FlashTTL:             15 * time.Minute,
		MaxDBConns:           20,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Intake.HoneypotField != "" {
			cfg.HoneypotField = f.Intake.HoneypotField
		}
		if f.Intake.MinFormSeconds > 0 {
			cfg.MinFormElapsed = time.Duration(f.Intake.MinFormSeconds) * time.Second
		}
		if f.Intake.MaxFormTokenHours > 0 {
			cfg.MaxFormTokenAge = time.Duration(f.Intake.MaxFormTokenHours) * time.Hour
		}
		if f.Intake.GateAppliesOnEdit != nil {
			cfg.GateAppliesOnEdit = *f.Intake.GateAppliesOnEdit
		}
		if f.Intake.SubmissionLimit > 0 {
			cfg.SubmissionLimit = f.Intake.SubmissionLimit
		}
		if f.Intake.SubmissionWindowSecs > 0 {
			cfg.SubmissionWindow = time.Duration(f.Intake.SubmissionWindowSecs) * time.Second
		}
		if len(f.Intake.TrustedProxies) > 0 {
			cfg.TrustedProxies = f.Intake.TrustedProxies
		}
		if f.Intake.DefaultStatus != "" {
			cfg.DefaultStatus = f.Intake.DefaultStatus
		}
		if len(f.Intake.ElevatedRoles) > 0 {
			cfg.ElevatedRoles = f.Intake.ElevatedRoles
		}
		if f.Validation.RequireTitle != nil {
			cfg.RequireTitle = *f.Validation.RequireTitle
		}
		if f.Validation.RequireContent != nil {
			cfg.RequireContent = *f.Validation.RequireContent
		}
		if f.Validation.RequireCategory != nil {
			cfg.RequireCategory = *f.Validation.RequireCategory
		}
		if f.Validation.RequireFeaturedImage != nil {
			cfg.RequireFeaturedImage = *f.Validation.RequireFeaturedImage
		}
		if f.Validation.MinContentLength > 0 {
			cfg.MinContentLength = f.Validation.MinContentLength
		}
		if f.Validation.MaxUploadMB > 0 {
			cfg.MaxUploadBytes = int64(f.Validation.MaxUploadMB) << 20
		}
		if len(f.Validation.AllowedImageTypes) > 0 {
			cfg.AllowedImageTypes = f.Validation.AllowedImageTypes
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.SessionJWTSecret = envOrDefault("SESSION_JWT_SECRET", cfg.SessionJWTSecret)
	cfg.FormTokenSecret = envOrDefault("FORM_TOKEN_SECRET", cfg.FormTokenSecret)
	cfg.CSRFHashKey = envOrDefault("CSRF_HASH_KEY", cfg.CSRFHashKey)
	cfg.AnonymousHashKey = envOrDefault("ANON_HASH_KEY", cfg.AnonymousHashKey)
	cfg.HoneypotField = envOrDefault("HONEYPOT_FIELD", cfg.HoneypotField)
	cfg.GateAppliesOnEdit = envBool("GATE_APPLIES_ON_EDIT", cfg.GateAppliesOnEdit)
	cfg.TrustedProxies = envCSV("TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.ElevatedRoles = envCSV("ELEVATED_ROLES", cfg.ElevatedRoles)
	cfg.AllowedImageTypes = envCSV("ALLOWED_IMAGE_TYPES", cfg.AllowedImageTypes)
	cfg.DefaultStatus = strings.ToLower(strings.TrimSpace(envOrDefault("DEFAULT_STATUS", cfg.DefaultStatus)))

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.SubmissionLimit = envInt("SUBMISSION_LIMIT", cfg.SubmissionLimit)
	cfg.BurstPerMinute = envInt("BURST_PER_MINUTE", cfg.BurstPerMinute)
	cfg.Burst = envInt("BURST", cfg.Burst)
	cfg.MinContentLength = envInt("MIN_CONTENT_LENGTH", cfg.MinContentLength)
	cfg.MaxUploadBytes = int64(envInt("MAX_UPLOAD_MB", int(cfg.MaxUploadBytes>>20))) << 20
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.MinFormElapsed = time.Duration(envInt("MIN_FORM_SECONDS", int(cfg.MinFormElapsed.Seconds()))) * time.Second
	cfg.MaxFormTokenAge = time.Duration(envInt("MAX_FORM_TOKEN_HOURS", int(cfg.MaxFormTokenAge.Hours()))) * time.Hour
	cfg.SubmissionWindow = time.Duration(envInt("SUBMISSION_WINDOW_SECONDS", int(cfg.SubmissionWindow.Seconds()))) * time.Second
	cfg.FlashTTL = time.Duration(envInt("FLASH_TTL_SECONDS", int(cfg.FlashTTL.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.FormTokenSecret == "" {
		return Config{}, fmt.Errorf("missing FORM_TOKEN_SECRET")
	}
	if cfg.SessionJWTSecret == "" {
		return Config{}, fmt.Errorf("missing SESSION_JWT_SECRET")
	}
	if cfg.CSRFHashKey == "" {
		return Config{}, fmt.Errorf("missing CSRF_HASH_KEY")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
