package config

type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Trends   TrendsConfig   `mapstructure:"trends"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type PipelineConfig struct {
	Keywords     []string `mapstructure:"keywords"`
	Timeframe    string   `mapstructure:"timeframe"`
	Geo          string   `mapstructure:"geo"`
	MaxAttempts  int      `mapstructure:"max_attempts"`
	BackoffMs    int      `mapstructure:"backoff_ms"`
	PauseMs      int      `mapstructure:"pause_ms"`
	TopPeaks     int      `mapstructure:"top_peaks"`
	TopQueries   int      `mapstructure:"top_queries"`
	TopCountries int      `mapstructure:"top_countries"`
}

type TrendsConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	APIKey           string `mapstructure:"api_key"`
	HL               string `mapstructure:"hl"`
	TZ               int    `mapstructure:"tz"`
	ConnectTimeoutMs int    `mapstructure:"connect_timeout_ms"`
	ReadTimeoutMs    int    `mapstructure:"read_timeout_ms"`
}

type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	RunTrack    string `mapstructure:"run_track"`
	ArchivePath string `mapstructure:"archive_path"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}
