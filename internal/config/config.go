package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds display preferences. None of these participate in any
// balance computation.
type UIConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
	DecimalPlaces  int    `mapstructure:"decimal_places"`
	Timezone       string `mapstructure:"timezone"`
}

// Load reads configuration from file and env. Env var overrides use prefix KAKEIBO_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "kakeibo", "kakeibo.db"))
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.decimal_places", 2)
	v.SetDefault("ui.timezone", "Local")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("KAKEIBO_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "kakeibo"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("KAKEIBO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("KAKEIBO_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "kakeibo", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.decimal_places", cfg.UI.DecimalPlaces)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
