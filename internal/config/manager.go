package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Default returns the configuration used when no config file is given.
// Keywords and tuning match the tracked meditation keyword set.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Keywords: []string{
				"meditation",
				"mindfulness",
				"breathwork",
				"guided meditation",
				"yoga nidra",
			},
			Timeframe:    "today 5-y",
			Geo:          "",
			MaxAttempts:  6,
			BackoffMs:    600,
			PauseMs:      500,
			TopPeaks:     3,
			TopQueries:   10,
			TopCountries: 5,
		},
		Trends: TrendsConfig{
			HL:               "en-US",
			TZ:               360,
			ConnectTimeoutMs: 15000,
			ReadTimeoutMs:    45000,
		},
		Storage: StorageConfig{
			DataDir:     "data/streamlit",
			RunTrack:    ".last_run_date",
			ArchivePath: "snapshots.db",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.setupViper(configPath); err != nil {
		return nil, fmt.Errorf("failed to setup viper: %w", err)
	}

	if err := m.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := Default()
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := m.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.viper == nil {
		return fmt.Errorf("config not loaded")
	}

	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	config := Default()
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := m.validateConfig(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) setupViper(configPath string) error {
	m.viper.SetConfigFile(configPath)

	m.viper.SetEnvPrefix("TRENDPULSE")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	return nil
}

func (m *manager) validateConfig(config *Config) error {
	if len(config.Pipeline.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}

	if config.Pipeline.Timeframe == "" {
		return fmt.Errorf("timeframe cannot be empty")
	}

	if config.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}

	if config.Storage.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	return nil
}
