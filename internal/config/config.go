package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the receiver configuration, loaded from an optional
// config file plus RECEIVER_* environment variables.
type Config struct {
	ListenHost  string        `mapstructure:"listen_host"`
	ListenPort  int           `mapstructure:"listen_port"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	BindRetries int           `mapstructure:"bind_retries"`
	AuthCode    string        `mapstructure:"auth_code"`

	StoreBackend string `mapstructure:"store_backend"` // postgres | jsonlines
	PostgresDSN  string `mapstructure:"postgres_dsn"`
	ReadingsPath string `mapstructure:"readings_path"`

	NatsURL   string `mapstructure:"nats_url"`
	RedisAddr string `mapstructure:"redis_addr"`

	// Devices seeds the in-memory registry when running without a
	// database; the postgres backend ignores it.
	Devices []DeviceSeed `mapstructure:"devices"`
}

type DeviceSeed struct {
	DeviceID string `mapstructure:"device_id"`
	Name     string `mapstructure:"name"`
	IMEI     string `mapstructure:"imei"`
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// Load reads receiver.yaml from the working directory when present;
// environment variables override file values either way.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("listen_port", 8082)
	v.SetDefault("idle_timeout", 60*time.Second)
	v.SetDefault("bind_retries", 3)
	v.SetDefault("auth_code", "SUCCESS")
	v.SetDefault("store_backend", "jsonlines")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("readings_path", "readings.jsonl")
	v.SetDefault("nats_url", "")
	v.SetDefault("redis_addr", "")

	v.SetConfigName("receiver")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/pet-receiver")

	v.SetEnvPrefix("receiver")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.StoreBackend != "postgres" && cfg.StoreBackend != "jsonlines" {
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return &cfg, nil
}
