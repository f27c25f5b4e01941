// Package config loads service configuration from YAML with environment
// variable overrides, via viper.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CatalogConfig holds engine-facing catalog settings.
type CatalogConfig struct {
	// PageLimit bounds one eligible-catalog page per assembly run.
	PageLimit int `mapstructure:"page_limit"`
}

// Load reads config.yaml from the working directory, applying defaults
// and environment overrides (BOXENGINE_SERVER_PORT etc). A missing file
// is fine; defaults apply.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("boxengine")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	viper.SetDefault("database.path", "boxes.db")

	viper.SetDefault("catalog.page_limit", 200)
}
