// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Content struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"content"`
	Download struct {
		Workers      int `mapstructure:"workers"`
		PollInterval int `mapstructure:"poll_interval"` // seconds
	} `mapstructure:"download"`
	Sync struct {
		Endpoint string `mapstructure:"endpoint"`
		Interval int    `mapstructure:"interval"` // minutes
	} `mapstructure:"sync"`
	Manifest struct {
		Endpoint string `mapstructure:"endpoint"`
		Interval int    `mapstructure:"interval"` // minutes
	} `mapstructure:"manifest"`
	Cache struct {
		SweepInterval int `mapstructure:"sweep_interval"` // minutes
		AssetTTLDays  int `mapstructure:"asset_ttl_days"`
	} `mapstructure:"cache"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "PORAKHELA_" prefix.
	// e.g., PORAKHELA_DATABASE_PATH will override the `database.path` key.
	viper.SetEnvPrefix("PORAKHELA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("database.path", "./porakhela.db")
	viper.SetDefault("content.path", "./content")
	viper.SetDefault("download.workers", 2)
	viper.SetDefault("download.poll_interval", 5)
	viper.SetDefault("sync.endpoint", "")
	viper.SetDefault("sync.interval", 15)
	viper.SetDefault("manifest.endpoint", "")
	viper.SetDefault("manifest.interval", 360)
	viper.SetDefault("cache.sweep_interval", 60)
	viper.SetDefault("cache.asset_ttl_days", 30)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
