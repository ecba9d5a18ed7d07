package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type WebConfig struct {
	Address string `yaml:"address"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

type RateConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// DatabaseConfig describes one MySQL target. Every target gets its own
// connection, statement set and identifier cache.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DSN renders the go-sql-driver connection string for this target.
func (c DatabaseConfig) DSN() string {
	cred := c.User
	if c.Password != "" {
		cred += ":" + c.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s", cred, c.Host, c.Port, c.Database)
}

// TargetName is the name the target's write callback registers under.
func (c DatabaseConfig) TargetName() string {
	return fmt.Sprintf("mysql/%s:%d/%s", c.Host, c.Port, c.Database)
}

type MetricSinkConfig struct {
	WebConfig WebConfig        `yaml:"web"`
	LogConfig LogConfig        `yaml:"logs"`
	Rate      RateConfig       `yaml:"rate"`
	Databases []DatabaseConfig `yaml:"databases"`
}

var DefaultMetricSinkConfig = MetricSinkConfig{
	WebConfig: WebConfig{
		Address: "0.0.0.0:9103",
	},
	LogConfig: LogConfig{
		LogLevel: "info",
	},
}

func LoadConfig(cfgFilePath string) (*MetricSinkConfig, error) {
	cfg := DefaultMetricSinkConfig
	file, err := os.Open(cfgFilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf("no databases configured")
	}
	for i := range cfg.Databases {
		db := &cfg.Databases[i]
		if db.Host == "" || db.User == "" || db.Database == "" {
			return nil, fmt.Errorf("database %d: host, user and database are required", i)
		}
		if db.Port == 0 {
			db.Port = 3306
		}
	}

	return &cfg, nil
}
