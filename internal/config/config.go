// Package config loads the console configuration from YAML with
// environment overrides.
package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "POSTDESK_CONFIG"
	apiBaseURLEnv  = "POSTDESK_API_URL"
	channelAddrEnv = "POSTDESK_EVENT_ADDR"
)

// Config holds high-level settings required across the console.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Channel   ChannelConfig   `yaml:"channel"`
	Selection SelectionConfig `yaml:"selection"`
	History   HistoryConfig   `yaml:"history"`
}

// APIConfig describes the backend REST endpoint.
type APIConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
	// ScrapeInterval is the minimum spacing between scrape requests.
	ScrapeInterval time.Duration `yaml:"scrapeInterval"`
}

// ChannelConfig describes the event channel endpoint and its
// reconnection policy.
type ChannelConfig struct {
	Addr              string        `yaml:"addr"`
	ReconnectAttempts int           `yaml:"reconnectAttempts"`
	ReconnectDelay    time.Duration `yaml:"reconnectDelay"`
}

// SelectionConfig bounds how many articles one generation may consume.
type SelectionConfig struct {
	MaxArticles int `yaml:"maxArticles"`
	MinArticles int `yaml:"minArticles"`
}

// HistoryConfig locates the local session history database.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiBaseURLEnv); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(channelAddrEnv); v != "" {
		c.Channel.Addr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.API.BaseURL != "" {
		base.API.BaseURL = override.API.BaseURL
	}
	if override.API.Timeout != 0 {
		base.API.Timeout = override.API.Timeout
	}
	if override.API.ScrapeInterval != 0 {
		base.API.ScrapeInterval = override.API.ScrapeInterval
	}

	if override.Channel.Addr != "" {
		base.Channel.Addr = override.Channel.Addr
	}
	if override.Channel.ReconnectAttempts != 0 {
		base.Channel.ReconnectAttempts = override.Channel.ReconnectAttempts
	}
	if override.Channel.ReconnectDelay != 0 {
		base.Channel.ReconnectDelay = override.Channel.ReconnectDelay
	}

	if override.Selection.MaxArticles != 0 {
		base.Selection.MaxArticles = override.Selection.MaxArticles
	}
	if override.Selection.MinArticles != 0 {
		base.Selection.MinArticles = override.Selection.MinArticles
	}

	if override.History.Path != "" {
		base.History.Path = override.History.Path
	}

	return base
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			// Scraping can legitimately take minutes.
			Timeout:        3 * time.Minute,
			ScrapeInterval: 2 * time.Second,
		},
		Channel: ChannelConfig{
			Addr:              "localhost:5001",
			ReconnectAttempts: 5,
			ReconnectDelay:    time.Second,
		},
		Selection: SelectionConfig{
			MaxArticles: 5,
			MinArticles: 2,
		},
		History: HistoryConfig{Path: ""},
	}
}
