package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NATSConfig holds the connection settings for the snapshot bus.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig holds the connection settings for the ClickHouse store.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SMTPConfig holds the settings for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// AlerterRule defines a single error-rate threshold for one counter.
type AlerterRule struct {
	StorageName  string  `yaml:"storage_name"`
	MaxErrorRate float64 `yaml:"max_error_rate"`
}

// AlerterConfig holds the configuration for the error-rate alerter.
type AlerterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval string        `yaml:"check_interval"`
	Rules         []AlerterRule `yaml:"rules"`
}

// AgentConfig holds the configuration for the in-process monitoring agent.
type AgentConfig struct {
	Application      string `yaml:"application"`
	ListenAddr       string `yaml:"listen_addr"`
	StorageRootPath  string `yaml:"storage_root_path"`
	SnapshotInterval string `yaml:"snapshot_interval"`
	// ObsoleteStatsDays is kept as a raw string: an empty value means
	// "use the default", anything else is validated where the retention
	// policy is consulted.
	ObsoleteStatsDays string     `yaml:"obsolete_stats_days"`
	SystemStats       bool       `yaml:"system_stats"`
	NATS              NATSConfig `yaml:"nats"`
}

// CollectorConfig holds the configuration for the snapshot collector.
type CollectorConfig struct {
	NATS       NATSConfig       `yaml:"nats"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// APIConfig holds the configuration for the HTTP query API.
type APIConfig struct {
	ListenAddr string           `yaml:"listen_addr"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Collector CollectorConfig `yaml:"collector"`
	API       APIConfig       `yaml:"api"`
	Alerter   AlerterConfig   `yaml:"alerter"`
	SMTP      SMTPConfig      `yaml:"smtp"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}

// StorageDirectory resolves the snapshot directory for one application.
func (c *Config) StorageDirectory(application string) string {
	return filepath.Join(c.Agent.StorageRootPath, application)
}
