package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	AuditDir        string
	MaxClarify      int
	APIToken        string
}

func Load() Config {
	return Config{
		Port:            envInt("COLDCALL_PORT", 8810),
		NatsURL:         envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("COLDCALL_MODEL", "claude-sonnet-4-20250514"),
		AuditDir:        envStr("COLDCALL_AUDIT_DIR", ""),
		MaxClarify:      envInt("COLDCALL_MAX_CLARIFY", 0),
		APIToken:        envStr("COLDCALL_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
