// Package config loads the application configuration from YAML files
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns the host:port listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// MarketConfig holds market-data aggregation settings. TTLs are in seconds.
type MarketConfig struct {
	NewsTTL     int `mapstructure:"news_ttl"     yaml:"news_ttl"`
	CalendarTTL int `mapstructure:"calendar_ttl" yaml:"calendar_ttl"`
	CandlesTTL  int `mapstructure:"candles_ttl"  yaml:"candles_ttl"`
	NewsLimit   int `mapstructure:"news_limit"   yaml:"news_limit"`
}

// JournalConfig holds trade-journal storage settings.
type JournalConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tradescope/config.yaml (home directory)
//  3. /etc/tradescope/config.yaml (system)
//
// Environment variables override config file values.
// Format: TRADESCOPE_<SECTION>_<KEY>, e.g., TRADESCOPE_API_PORT
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tradescope"))
	v.AddConfigPath("/etc/tradescope")

	v.SetEnvPrefix("TRADESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults plus env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("market.news_ttl", 600)
	v.SetDefault("market.calendar_ttl", 600)
	v.SetDefault("market.candles_ttl", 30)
	v.SetDefault("market.news_limit", 20)

	v.SetDefault("journal.db_path", filepath.Join(homeDir(), ".tradescope", "journal.db"))

	v.SetDefault("logging.level", "info")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
