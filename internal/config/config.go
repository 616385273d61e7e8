package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	commoncfg "github.com/Pristinepartners/pristine-crm-sub000/common/config"
)

// Config pristine-crm 配置
// 优先级：环境变量 > CONFIG_FILE 指定的 YAML > 默认值
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DBEnabled bool                     `yaml:"db_enabled"`
	Database  commoncfg.DatabaseConfig `yaml:"database"`
	Redis     commoncfg.RedisConfig    `yaml:"redis"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Events  EventsConfig         `yaml:"events"`
	MQTT    commoncfg.MQTTConfig `yaml:"mqtt"`
	Webhook struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		Retries        int `yaml:"retries"`
	} `yaml:"webhook"`
	Import struct {
		PreviewTTLMinutes int `yaml:"preview_ttl_minutes"`
	} `yaml:"import"`
}

// EventsConfig 领域事件流与 automation consumer
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Stream        string `yaml:"stream"`
	ConsumerGroup string `yaml:"consumer_group"`
	ConsumerName  string `yaml:"consumer_name"`
}

// WebhookTimeout automation webhook 超时
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}

// PreviewTTL 导入预览在 Redis 中的保留时间
func (c *Config) PreviewTTL() time.Duration {
	return time.Duration(c.Import.PreviewTTLMinutes) * time.Minute
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.DBEnabled = true
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "pristine_crm",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Events = EventsConfig{
		Enabled:       true,
		Stream:        "crm:events",
		ConsumerGroup: "crm-automations",
		ConsumerName:  hostnameOr("crm-automations-1"),
	}
	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:      "tcp://localhost:1883",
		ClientID:    "pristine-crm",
		QoS:         1,
		TopicPrefix: "crm/notify",
	}
	cfg.Webhook.TimeoutSeconds = 10
	cfg.Webhook.Retries = 2
	cfg.Import.PreviewTTLMinutes = 30
	return cfg
}

// Load 读取配置；CONFIG_FILE 存在但无法解析时返回错误
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.DBEnabled = parseBool(getEnv("DB_ENABLED", ""), cfg.DBEnabled)
	cfg.Database.LoadFromEnv("DB")
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Events.Enabled = parseBool(getEnv("EVENTS_ENABLED", ""), cfg.Events.Enabled)
	cfg.Events.Stream = getEnv("EVENT_STREAM", cfg.Events.Stream)
	cfg.Events.ConsumerGroup = getEnv("EVENT_CONSUMER_GROUP", cfg.Events.ConsumerGroup)
	cfg.Events.ConsumerName = getEnv("EVENT_CONSUMER_NAME", cfg.Events.ConsumerName)

	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Webhook.TimeoutSeconds = parseInt(getEnv("WEBHOOK_TIMEOUT_SECONDS", ""), cfg.Webhook.TimeoutSeconds)
	cfg.Import.PreviewTTLMinutes = parseInt(getEnv("IMPORT_PREVIEW_TTL_MINUTES", ""), cfg.Import.PreviewTTLMinutes)

	if cfg.Import.PreviewTTLMinutes <= 0 {
		return nil, fmt.Errorf("import preview ttl must be positive, got %d", cfg.Import.PreviewTTLMinutes)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	return s == "true" || s == "1"
}

func hostnameOr(def string) string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return def
}
