package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/config"
)

type SyncConfig struct {
	BaseURL string `yaml:"base_url"`
}

type CacheConfig struct {
	ProgressTTLSeconds int `yaml:"progress_ttl_seconds"`
}

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	Server config.ServerConfig `yaml:"server"`
	Sync   SyncConfig          `yaml:"sync"`
	Cache  CacheConfig         `yaml:"cache"`
}

// ProgressTTL returns the progress cache TTL, defaulting to 30s.
func (c *Config) ProgressTTL() time.Duration {
	if c.Cache.ProgressTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Cache.ProgressTTLSeconds) * time.Second
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	if url := os.Getenv("SYNC_BASE_URL"); url != "" {
		cfg.Sync.BaseURL = url
	}

	return &cfg
}
