package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the configuration file at path and overlays STRATUM_*
// environment variables on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	fileExt := filepath.Ext(filename)

	v.SetConfigName(strings.TrimSuffix(filename, fileExt))
	v.SetConfigType(strings.TrimPrefix(fileExt, "."))
	v.AddConfigPath(dir)

	v.SetEnvPrefix("STRATUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

func applyDefaults(config *Config) {
	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.Output.Format == "" {
		config.Output.Format = "text"
	}
}
