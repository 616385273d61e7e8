package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv 空值等同于未设置
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CONFIG_FILE", "HTTP_ADDR", "DB_ENABLED", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"DB_SSLMODE", "DB_MAX_CONNS", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LOG_LEVEL", "LOG_FORMAT",
		"EVENTS_ENABLED", "EVENT_STREAM", "EVENT_CONSUMER_GROUP", "EVENT_CONSUMER_NAME",
		"MQTT_ENABLED", "MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_TOPIC_PREFIX",
		"WEBHOOK_TIMEOUT_SECONDS", "IMPORT_PREVIEW_TTL_MINUTES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "pristine_crm", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "crm:events", cfg.Events.Stream)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.PreviewTTL())
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout())
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_TOPIC_PREFIX", "acme/alerts")
	t.Setenv("WEBHOOK_TIMEOUT_SECONDS", "3")
	t.Setenv("IMPORT_PREVIEW_TTL_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.False(t, cfg.Events.Enabled)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "acme/alerts", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 3*time.Second, cfg.WebhookTimeout())
	assert.Equal(t, 5*time.Minute, cfg.PreviewTTL())
}

func TestLoad_YAMLOverlayEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7070"
database:
  host: yaml-db
  database: crm_yaml
log:
  level: debug
mqtt:
  enabled: true
  broker: tcp://broker:1883
import:
  preview_ttl_minutes: 45
`), 0o600))
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_HOST", "env-db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, "crm_yaml", cfg.Database.Database)
	assert.Equal(t, 5432, cfg.Database.Port) // 未出现在文件中的字段保持默认
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, 45*time.Minute, cfg.PreviewTTL())
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [unclosed"), 0o600))
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
