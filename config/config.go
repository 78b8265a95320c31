package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds bot transport settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"TELEGRAM_TOKEN"`
	// LongPollTimeoutSeconds defines the long polling timeout; 0 -> default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DATABASE_HOST"`
	Port           string `yaml:"port" envconfig:"DATABASE_PORT"`
	User           string `yaml:"user" envconfig:"DATABASE_USER"`
	Password       string `yaml:"password" envconfig:"DATABASE_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DATABASE_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DATABASE_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DATABASE_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format  string `yaml:"format" envconfig:"LOG_FORMAT"`
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig throttles per-user inbound updates; zero disables.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// UploadsConfig bounds user file intake during the feedback flow.
type UploadsConfig struct {
	Dir            string `yaml:"dir" envconfig:"UPLOADS_DIR"`
	MaxFileSizeMB  int64  `yaml:"max_file_size_mb" envconfig:"MAX_FILE_SIZE_MB"`
	MaxTotalSizeMB int64  `yaml:"max_total_size_mb" envconfig:"MAX_TOTAL_SIZE_MB"`
}

// MailConfig configures the SMTP notify sink.
type MailConfig struct {
	Host           string   `yaml:"host" envconfig:"EMAIL_HOST"`
	Port           int      `yaml:"port" envconfig:"EMAIL_PORT"`
	User           string   `yaml:"user" envconfig:"EMAIL_HOST_USER"`
	Password       string   `yaml:"password" envconfig:"EMAIL_HOST_PASSWORD"`
	UseSSL         bool     `yaml:"use_ssl" envconfig:"EMAIL_USE_SSL"`
	From           string   `yaml:"from" envconfig:"DEFAULT_FROM_EMAIL"`
	To             []string `yaml:"to" envconfig:"MAIL_FEEDBACK_TO"`
	TimeoutSeconds int      `yaml:"timeout_seconds" envconfig:"EMAIL_TIMEOUT_SECONDS"`
}

// FeedbackConfig carries presentation settings for submitted requests.
type FeedbackConfig struct {
	// IDFormat renders the public reference number from the record id.
	IDFormat string `yaml:"id_format" envconfig:"FEEDBACK_ID_FORMAT"`
	Timezone string `yaml:"timezone" envconfig:"FEEDBACK_TIMEZONE"`
}

// Config aggregates the full application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Mail      MailConfig      `yaml:"mail"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
}

// Load reads configuration from a YAML file and environment variables.
// A missing file is tolerated so env-only deployments keep working.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}

	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "files/user_uploads"
	}
	if cfg.Uploads.MaxFileSizeMB <= 0 {
		cfg.Uploads.MaxFileSizeMB = 3
	}
	if cfg.Uploads.MaxTotalSizeMB <= 0 {
		cfg.Uploads.MaxTotalSizeMB = 15
	}
	if cfg.Uploads.MaxFileSizeMB > cfg.Uploads.MaxTotalSizeMB {
		return fmt.Errorf("uploads.max_file_size_mb exceeds uploads.max_total_size_mb")
	}

	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 465
	}
	if cfg.Mail.TimeoutSeconds <= 0 {
		cfg.Mail.TimeoutSeconds = 10
	}
	for i, addr := range cfg.Mail.To {
		cfg.Mail.To[i] = strings.TrimSpace(addr)
	}

	if cfg.Feedback.IDFormat == "" {
		cfg.Feedback.IDFormat = "GKE-%d"
	}
	if !strings.Contains(cfg.Feedback.IDFormat, "%d") {
		return fmt.Errorf("feedback.id_format must contain a %%d verb")
	}
	if cfg.Feedback.Timezone == "" {
		cfg.Feedback.Timezone = "Europe/Moscow"
	}

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	return nil
}

// MaxFileBytes converts the per-file cap to bytes.
func (u UploadsConfig) MaxFileBytes() int64 { return u.MaxFileSizeMB * 1024 * 1024 }

// MaxTotalBytes converts the aggregate cap to bytes.
func (u UploadsConfig) MaxTotalBytes() int64 { return u.MaxTotalSizeMB * 1024 * 1024 }
