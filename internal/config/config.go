package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" or "1h" decode
// directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// NtfyConfig holds the ntfy failure-notification configuration. Empty
// server URL disables notifications.
type NtfyConfig struct {
	ServerURL string `yaml:"server_url"`
	Topic     string `yaml:"topic"`
}

// CacheConfig holds the Redis render-cache configuration. Empty address
// disables the cache.
type CacheConfig struct {
	Addr string   `yaml:"addr"`
	TTL  Duration `yaml:"ttl"`
}

// Config holds the application configuration.
type Config struct {
	PlantUMLServer  string      `yaml:"plantuml_server"`
	Port            int         `yaml:"port"`
	MetricsPort     int         `yaml:"metrics_port"`
	FetchTimeout    Duration    `yaml:"fetch_timeout"`
	ShutdownTimeout Duration    `yaml:"shutdown_timeout"`
	LogLevel        string      `yaml:"log_level"`
	LogFormat       string      `yaml:"log_format"`
	Cache           CacheConfig `yaml:"cache"`
	Ntfy            NtfyConfig  `yaml:"ntfy"`
}

// Load loads the configuration from a YAML file and environment variables.
// Environment variables win over the file; both are optional.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		PlantUMLServer:  "http://127.0.0.1:8000/plantuml/",
		Port:            8765,
		MetricsPort:     9090,
		FetchTimeout:    Duration(30 * time.Second),
		ShutdownTimeout: Duration(30 * time.Second),
		Cache:           CacheConfig{TTL: Duration(time.Hour)},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, we can proceed with env vars and defaults
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	}

	// Override with environment variables
	if server, exists := os.LookupEnv("PLANTUML_SERVER"); exists {
		config.PlantUMLServer = server
	}
	if port, exists := os.LookupEnv("PORT"); exists {
		if val, err := strconv.Atoi(port); err == nil {
			config.Port = val
		}
	}
	if metricsPort, exists := os.LookupEnv("METRICS_PORT"); exists {
		if val, err := strconv.Atoi(metricsPort); err == nil {
			config.MetricsPort = val
		}
	}
	if fetchTimeout, exists := os.LookupEnv("FETCH_TIMEOUT"); exists {
		if val, err := time.ParseDuration(fetchTimeout); err == nil {
			config.FetchTimeout = Duration(val)
		}
	}
	if logLevel, exists := os.LookupEnv("LOG_LEVEL"); exists {
		config.LogLevel = logLevel
	}
	if logFormat, exists := os.LookupEnv("LOG_FORMAT"); exists {
		config.LogFormat = logFormat
	}
	if redisAddr, exists := os.LookupEnv("REDIS_ADDR"); exists {
		config.Cache.Addr = redisAddr
	}
	if cacheTTL, exists := os.LookupEnv("CACHE_TTL"); exists {
		if val, err := time.ParseDuration(cacheTTL); err == nil {
			config.Cache.TTL = Duration(val)
		}
	}
	if ntfyServerURL, exists := os.LookupEnv("NTFY_SERVER_URL"); exists {
		config.Ntfy.ServerURL = ntfyServerURL
	}
	if ntfyTopic, exists := os.LookupEnv("NTFY_TOPIC"); exists {
		config.Ntfy.Topic = ntfyTopic
	}

	// Validate required fields
	if _, err := url.Parse(config.PlantUMLServer); err != nil {
		return nil, fmt.Errorf("invalid PLANTUML_SERVER url %q: %w", config.PlantUMLServer, err)
	}

	return config, nil
}
