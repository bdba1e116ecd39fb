package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/ipgongchang/fanout/pkg/logger"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Logger       logger.Config      `yaml:"logger"`
	Distribution DistributionConfig `yaml:"distribution"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Auth         AuthConfig         `yaml:"auth"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type DistributionConfig struct {
	// Timezone is the canonical zone scheduled timestamps are stored in.
	Timezone       string `yaml:"timezone"`
	PublishBaseURL string `yaml:"publish_base_url"`
}

type SchedulerConfig struct {
	ScanInterval string `yaml:"scan_interval"`
	Disabled     bool   `yaml:"disabled"`
}

type AuthConfig struct {
	AdminTOTPSecret string `yaml:"admin_totp_secret"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	return cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5336
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Distribution.Timezone == "" {
		cfg.Distribution.Timezone = "Asia/Shanghai"
	}
	if cfg.Distribution.PublishBaseURL == "" {
		cfg.Distribution.PublishBaseURL = "https://publish.ipgongchang.xin"
	}
	if cfg.Scheduler.ScanInterval == "" {
		cfg.Scheduler.ScanInterval = "30s"
	}
}
