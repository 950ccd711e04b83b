// Package config provides the credentials configuration for the travel
// tools. Each tool receives the config at construction and fails there when
// its credential is missing, never at call time.
package config

import (
	"os"

	"github.com/effective-security/x/configloader"
)

// Config specifies the API keys for the upstream travel providers.
type Config struct {
	// WeatherAPIKey authenticates against the weather provider,
	// used by both the current-conditions and the forecast tools.
	WeatherAPIKey string `json:"weather_api_key" yaml:"weather_api_key"`
	// SerpAPIKey authenticates against the hotel search aggregator.
	SerpAPIKey string `json:"serp_api_key" yaml:"serp_api_key"`
	// CurrencyAPIKey authenticates against the currency rate provider.
	CurrencyAPIKey string `json:"currency_api_key" yaml:"currency_api_key"`
}

// Load config from file.
// Values may reference environment variables, e.g. ${WEATHER_API_KEY},
// which are expanded on load.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the credentials directly from the process environment.
func FromEnv() *Config {
	return &Config{
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		SerpAPIKey:     os.Getenv("SERP_API_KEY"),
		CurrencyAPIKey: os.Getenv("CURRENCY_API_KEY"),
	}
}
