package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Uploads.MaxFileSizeMB != 3 || cfg.Uploads.MaxTotalSizeMB != 15 {
		t.Fatalf("upload caps defaults wrong: %d/%d", cfg.Uploads.MaxFileSizeMB, cfg.Uploads.MaxTotalSizeMB)
	}
	if cfg.Uploads.MaxFileBytes() != 3*1024*1024 {
		t.Fatalf("MaxFileBytes = %d", cfg.Uploads.MaxFileBytes())
	}
	if cfg.Mail.TimeoutSeconds != 10 {
		t.Fatalf("mail timeout default = %d", cfg.Mail.TimeoutSeconds)
	}
	if cfg.Feedback.IDFormat != "GKE-%d" {
		t.Fatalf("id format default = %q", cfg.Feedback.IDFormat)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("sslmode default = %q", cfg.Database.SSLMode)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = " " }, "telegram.token"},
		{"negative poll timeout", func(c *Config) { c.Telegram.LongPollTimeoutSeconds = -1 }, "longpoll"},
		{"file cap above total", func(c *Config) {
			c.Uploads.MaxFileSizeMB = 20
			c.Uploads.MaxTotalSizeMB = 15
		}, "exceeds"},
		{"id format without verb", func(c *Config) { c.Feedback.IDFormat = "GKE" }, "id_format"},
		{"negative rate limit", func(c *Config) { c.RateLimit.IntervalMS = -5 }, "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Normalize(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
