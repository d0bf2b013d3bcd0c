package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the service settings. Values come from an optional YAML
// file, overridden by environment variables (optionally loaded from a
// .env file).
type Config struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Registry struct {
		BaseURL     string        `yaml:"baseUrl"`
		HTTPTimeout time.Duration `yaml:"httpTimeout"`
		RetryMax    int           `yaml:"retryMax"`
		Sequential  bool          `yaml:"sequential"`
	} `yaml:"registry"`
}

// LoadConfig reads the configuration. A missing file is fine; a missing
// registry base URL is not.
func LoadConfig(path string) (Config, error) {
	// .env is a development convenience, absence is not an error.
	_ = godotenv.Load()

	var config Config
	config.Server.Listen = ":8080"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &config); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("SDMX_LISTEN"); v != "" {
		config.Server.Listen = v
	}
	if v := os.Getenv("SDMX_REGISTRY_URL"); v != "" {
		config.Registry.BaseURL = v
	}
	if v := os.Getenv("SDMX_REGISTRY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SDMX_REGISTRY_TIMEOUT: %w", err)
		}
		config.Registry.HTTPTimeout = d
	}
	if v := os.Getenv("SDMX_REGISTRY_RETRY_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SDMX_REGISTRY_RETRY_MAX: %w", err)
		}
		config.Registry.RetryMax = n
	}

	if config.Registry.BaseURL == "" {
		return Config{}, fmt.Errorf("registry base URL is required (config registry.baseUrl or SDMX_REGISTRY_URL)")
	}
	return config, nil
}
