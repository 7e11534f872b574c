package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"waterhealth-cloud/internal/notify"
	"waterhealth-cloud/internal/reports/render"
)

// Config is the service configuration. Values come from the YAML file named by
// CONFIG_FILE, then environment variables override what they set.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Log           LogConfig           `yaml:"log"`
	Recalculation RecalculationConfig `yaml:"recalculation"`
	Email         notify.SMTPConfig   `yaml:"email"`
	SMS           SMSConfig           `yaml:"sms"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Redis         RedisConfig         `yaml:"redis"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Reports       ReportsConfig       `yaml:"reports"`
	Branding      render.Branding     `yaml:"branding"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures Postgres. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// AuthConfig configures bearer-token auth. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RecalculationConfig configures the periodic run.
type RecalculationConfig struct {
	Schedule    string        `yaml:"schedule"`
	Concurrency int           `yaml:"concurrency"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
	SendPending bool          `yaml:"send_pending"`
}

// SMSConfig configures Twilio and the operator number for pending alerts.
type SMSConfig struct {
	notify.TwilioConfig `yaml:",inline"`
	OperatorNumber      string `yaml:"operator_number"`
}

// KafkaConfig configures the alert event publisher. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig configures the distributed job lock. An empty address uses a local lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AlertsConfig configures the alert webhook.
type AlertsConfig struct {
	WebhookURL     string        `yaml:"webhook_url"`
	NotifyTemplate string        `yaml:"notify_template"`
	Cooldown       time.Duration `yaml:"cooldown"`
	DedupeWindow   time.Duration `yaml:"dedupe_window"`
}

// ReportsConfig configures report building.
type ReportsConfig struct {
	IDPrefix        string `yaml:"id_prefix"`
	AllowUnassessed bool   `yaml:"allow_unassessed"`
	// SMSTemplate overrides the text/template used for SMS and txt exports.
	SMSTemplate string `yaml:"sms_template"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP:          HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Database:      DatabaseConfig{MaxOpenConns: 10},
		Log:           LogConfig{Level: "info", Format: "json"},
		Recalculation: RecalculationConfig{Schedule: "@hourly", Concurrency: 4, LockTTL: 15 * time.Minute},
		Email:         notify.SMTPConfig{Host: "smtp.gmail.com", Port: 587},
		SMS:           SMSConfig{TwilioConfig: notify.TwilioConfig{RatePerSec: 1}},
		Kafka:         KafkaConfig{Topic: "waterhealth.alerts"},
		Reports:       ReportsConfig{IDPrefix: "JR"},
		Branding:      render.DefaultBranding(),
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.Branding = cfg.Branding.WithDefaults()
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Addr = getenvDefault("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ShutdownTimeout = getenvDuration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)

	cfg.Database.URL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.Database.URL))
	cfg.Database.MaxOpenConns = getenvIntDefault("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.AutoMigrate = getenvBool("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Auth.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.Auth.JWTSecret))

	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenvDefault("LOG_FORMAT", cfg.Log.Format)

	cfg.Recalculation.Schedule = getenvDefault("RECALC_SCHEDULE", cfg.Recalculation.Schedule)
	cfg.Recalculation.Concurrency = getenvIntDefault("RECALC_CONCURRENCY", cfg.Recalculation.Concurrency)
	cfg.Recalculation.LockTTL = getenvDuration("RECALC_LOCK_TTL", cfg.Recalculation.LockTTL)
	cfg.Recalculation.SendPending = getenvBool("RECALC_SEND_PENDING", cfg.Recalculation.SendPending)

	cfg.Email.Host = getenvDefault("SMTP_HOST", cfg.Email.Host)
	cfg.Email.Port = getenvIntDefault("SMTP_PORT", cfg.Email.Port)
	cfg.Email.Username = getenvDefault("SMTP_USER", cfg.Email.Username)
	cfg.Email.Password = getenvDefault("SMTP_PASSWORD", cfg.Email.Password)
	cfg.Email.From = getenvDefault("SMTP_FROM", cfg.Email.From)

	cfg.SMS.AccountSID = getenvDefault("TWILIO_ACCOUNT_SID", cfg.SMS.AccountSID)
	cfg.SMS.AuthToken = getenvDefault("TWILIO_AUTH_TOKEN", cfg.SMS.AuthToken)
	cfg.SMS.From = getenvDefault("TWILIO_FROM_NUMBER", cfg.SMS.From)
	cfg.SMS.RatePerSec = getenvFloatDefault("TWILIO_RATE_PER_SEC", cfg.SMS.RatePerSec)
	cfg.SMS.OperatorNumber = getenvDefault("TWILIO_TO_NUMBER", cfg.SMS.OperatorNumber)

	if brokers := splitCSV(os.Getenv("KAFKA_BROKERS")); len(brokers) > 0 {
		cfg.Kafka.Brokers = brokers
	}
	cfg.Kafka.Topic = getenvDefault("KAFKA_ALERT_TOPIC", cfg.Kafka.Topic)

	cfg.Redis.Addr = getenvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvIntDefault("REDIS_DB", cfg.Redis.DB)

	cfg.Alerts.WebhookURL = getenvDefault("ALERT_WEBHOOK_URL", cfg.Alerts.WebhookURL)
	cfg.Alerts.NotifyTemplate = getenvDefault("ALERT_NOTIFY_TEMPLATE", cfg.Alerts.NotifyTemplate)
	cfg.Alerts.Cooldown = getenvDuration("ALERT_NOTIFY_COOLDOWN", cfg.Alerts.Cooldown)
	cfg.Alerts.DedupeWindow = getenvDuration("ALERT_NOTIFY_DEDUP_WINDOW", cfg.Alerts.DedupeWindow)

	cfg.Reports.IDPrefix = getenvDefault("REPORT_ID_PREFIX", cfg.Reports.IDPrefix)
	cfg.Reports.AllowUnassessed = getenvBool("REPORT_ALLOW_UNASSESSED", cfg.Reports.AllowUnassessed)
	cfg.Reports.SMSTemplate = getenvDefault("REPORT_SMS_TEMPLATE", cfg.Reports.SMSTemplate)

	cfg.Branding.Name = getenvDefault("BRAND_NAME", cfg.Branding.Name)
	cfg.Branding.HelplineNumber = getenvDefault("BRAND_HELPLINE", cfg.Branding.HelplineNumber)
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.Recalculation.Concurrency <= 0 {
		errs = append(errs, errors.New("recalculation.concurrency must be positive"))
	}
	if c.Recalculation.LockTTL <= 0 {
		errs = append(errs, errors.New("recalculation.lock_ttl must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Email.Port < 0 || c.Email.Port > 65535 {
		errs = append(errs, fmt.Errorf("email.port %d out of range", c.Email.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
