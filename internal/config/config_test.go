package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.MongoURL != "mongodb://localhost:27017" {
		t.Errorf("MongoURL = %q", cfg.MongoURL)
	}
	if cfg.MongoDatabase != "support_chat" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
	if cfg.DefaultLLM != "openai" {
		t.Errorf("DefaultLLM = %q", cfg.DefaultLLM)
	}
	if cfg.LLMMaxTokens != 4096 {
		t.Errorf("LLMMaxTokens = %d", cfg.LLMMaxTokens)
	}
	if cfg.RateLimitRequests != 60 {
		t.Errorf("RateLimitRequests = %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v", cfg.RateLimitWindow)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.TracingEnabled {
		t.Error("TracingEnabled should default to false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DB", "chat_test")
	t.Setenv("DEFAULT_LLM", "anthropic")
	t.Setenv("LLM_MAX_TOKENS", "1024")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.MongoDatabase != "chat_test" {
		t.Errorf("MongoDatabase = %q, want chat_test", cfg.MongoDatabase)
	}
	if cfg.DefaultLLM != "anthropic" {
		t.Errorf("DefaultLLM = %q, want anthropic", cfg.DefaultLLM)
	}
	if cfg.LLMMaxTokens != 1024 {
		t.Errorf("LLMMaxTokens = %d, want 1024", cfg.LLMMaxTokens)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v, want 30s", cfg.RateLimitWindow)
	}
	if !cfg.TracingEnabled {
		t.Error("TracingEnabled = false, want true")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-duration")
	t.Setenv("TRACING_ENABLED", "not-a-bool")

	cfg := Load()

	if cfg.LLMMaxTokens != 4096 {
		t.Errorf("LLMMaxTokens = %d, want default 4096", cfg.LLMMaxTokens)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want default 1m", cfg.RateLimitWindow)
	}
	if cfg.TracingEnabled {
		t.Error("TracingEnabled should fall back to false")
	}
}
