package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "@hourly", cfg.Recalculation.Schedule)
	assert.Equal(t, 4, cfg.Recalculation.Concurrency)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.Host)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.Equal(t, "JR", cfg.Reports.IDPrefix)
	assert.Equal(t, "JalRaksha", cfg.Branding.Name)
	assert.Equal(t, "108", cfg.Branding.EmergencyNumber)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9000"
recalculation:
  schedule: "*/30 * * * *"
  concurrency: 8
  send_pending: true
sms:
  account_sid: AC123
  from: "+15550001111"
  operator_number: "+919800000000"
kafka:
  brokers: ["kafka-1:9092"]
branding:
  name: "Neer Suraksha"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RECALC_CONCURRENCY", "2")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("REPORT_SMS_TEMPLATE", "{{.Area}}: {{.Level}}")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "*/30 * * * *", cfg.Recalculation.Schedule)
	assert.Equal(t, 2, cfg.Recalculation.Concurrency)
	assert.True(t, cfg.Recalculation.SendPending)
	assert.Equal(t, 15*time.Minute, cfg.Recalculation.LockTTL)
	assert.Equal(t, "AC123", cfg.SMS.AccountSID)
	assert.Equal(t, "secret", cfg.SMS.AuthToken)
	assert.Equal(t, "+919800000000", cfg.SMS.OperatorNumber)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "waterhealth.alerts", cfg.Kafka.Topic)
	assert.Equal(t, "Neer Suraksha", cfg.Branding.Name)
	assert.Equal(t, "1800-180-5678", cfg.Branding.HelplineNumber)
	assert.Equal(t, "{{.Area}}: {{.Level}}", cfg.Reports.SMSTemplate)
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Recalculation.Concurrency = 0
	cfg.Kafka.Brokers = []string{"k:9092"}
	cfg.Kafka.Topic = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
	assert.Contains(t, err.Error(), "kafka.topic")
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")
	assert.Equal(t, 3, getenvIntDefault("X_INT", 3))
	assert.Equal(t, time.Second, getenvDuration("X_DUR", time.Second))
	assert.True(t, getenvBool("X_BOOL", true))
	assert.Nil(t, splitCSV(""))
}
