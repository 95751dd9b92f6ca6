package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "LINK_ANALYZER_CONFIG"

	dbHostEnv     = "DB_HOST"
	dbPortEnv     = "DB_PORT"
	dbUserEnv     = "DB_USER"
	dbPasswordEnv = "DB_PASSWORD"
	dbNameEnv     = "DB_NAME"

	ollamaHostEnv  = "OLLAMA_HOST"
	ollamaModelEnv = "OLLAMA_MODEL"

	maxRetriesEnv      = "MAX_RETRIES"
	scrapingTimeoutEnv = "SCRAPING_TIMEOUT"

	sendConfirmationsEnv = "SEND_CONFIRMATIONS"
	sendResultsEnv       = "SEND_RESULTS"
	sendErrorsEnv        = "SEND_ERRORS"

	bridgeListenEnv = "BRIDGE_LISTEN_ADDR"
	bridgeSendEnv   = "BRIDGE_SEND_URL"
	loggingLevelEnv = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Ollama        OllamaConfig       `yaml:"ollama"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Social        SocialConfig       `yaml:"social"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Bridge        BridgeConfig       `yaml:"bridge"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// OllamaConfig defines how to contact the local inference endpoint.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// ScraperConfig tunes the browser-based extractor.
type ScraperConfig struct {
	TimeoutMs int `yaml:"timeoutMs"`
}

// Timeout returns the default navigation timeout for unrecognized platforms.
func (s ScraperConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// SocialConfig lists the mirror front-ends tried by the social scraper,
// in failover order. Empty means the built-in list.
type SocialConfig struct {
	Mirrors []string `yaml:"mirrors"`
}

// PipelineConfig tunes retry behavior of the scrape orchestrator.
type PipelineConfig struct {
	MaxRetries int `yaml:"maxRetries"`
}

// BridgeConfig wires the HTTP boundary to the external chat bridge.
type BridgeConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	SendURL    string `yaml:"sendUrl"`
}

// NotificationConfig gates outbound chat notifications.
type NotificationConfig struct {
	SendConfirmations bool `yaml:"sendConfirmations"`
	SendResults       bool `yaml:"sendResults"`
	SendErrors        bool `yaml:"sendErrors"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
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

// Validate reports the startup-fatal configuration gaps.
func (c Config) Validate() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, dbHostEnv)
	}
	if c.Database.User == "" {
		missing = append(missing, dbUserEnv)
	}
	if c.Database.Password == "" {
		missing = append(missing, dbPasswordEnv)
	}
	if c.Database.Name == "" {
		missing = append(missing, dbNameEnv)
	}
	if c.Ollama.Model == "" {
		missing = append(missing, ollamaModelEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %v", missing)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dbHostEnv); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv(dbPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv(dbUserEnv); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv(dbPasswordEnv); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(dbNameEnv); v != "" {
		c.Database.Name = v
	}

	if v := os.Getenv(ollamaHostEnv); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv(ollamaModelEnv); v != "" {
		c.Ollama.Model = v
	}

	if v := os.Getenv(maxRetriesEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.MaxRetries = n
		}
	}
	if v := os.Getenv(scrapingTimeoutEnv); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Scraper.TimeoutMs = ms
		}
	}

	if v := os.Getenv(sendConfirmationsEnv); v != "" {
		c.Notifications.SendConfirmations = v == "true"
	}
	if v := os.Getenv(sendResultsEnv); v != "" {
		c.Notifications.SendResults = v == "true"
	}
	if v := os.Getenv(sendErrorsEnv); v != "" {
		c.Notifications.SendErrors = v == "true"
	}

	if v := os.Getenv(bridgeListenEnv); v != "" {
		c.Bridge.ListenAddr = v
	}
	if v := os.Getenv(bridgeSendEnv); v != "" {
		c.Bridge.SendURL = v
	}
	if v := os.Getenv(loggingLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Host != "" {
		base.Database.Host = override.Database.Host
	}
	if override.Database.Port != 0 {
		base.Database.Port = override.Database.Port
	}
	if override.Database.User != "" {
		base.Database.User = override.Database.User
	}
	if override.Database.Password != "" {
		base.Database.Password = override.Database.Password
	}
	if override.Database.Name != "" {
		base.Database.Name = override.Database.Name
	}

	if override.Ollama.Host != "" {
		base.Ollama.Host = override.Ollama.Host
	}
	if override.Ollama.Model != "" {
		base.Ollama.Model = override.Ollama.Model
	}

	if override.Scraper.TimeoutMs != 0 {
		base.Scraper.TimeoutMs = override.Scraper.TimeoutMs
	}
	if len(override.Social.Mirrors) > 0 {
		base.Social.Mirrors = override.Social.Mirrors
	}
	if override.Pipeline.MaxRetries != 0 {
		base.Pipeline.MaxRetries = override.Pipeline.MaxRetries
	}

	if override.Bridge.ListenAddr != "" {
		base.Bridge.ListenAddr = override.Bridge.ListenAddr
	}
	if override.Bridge.SendURL != "" {
		base.Bridge.SendURL = override.Bridge.SendURL
	}

	if override.Notifications.SendConfirmations {
		base.Notifications.SendConfirmations = true
	}
	if override.Notifications.SendResults {
		base.Notifications.SendResults = true
	}
	if override.Notifications.SendErrors {
		base.Notifications.SendErrors = true
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Host: "", Port: 5432},
		Ollama:   OllamaConfig{Host: "http://localhost:11434"},
		Scraper:  ScraperConfig{TimeoutMs: 30000},
		Pipeline: PipelineConfig{MaxRetries: 2},
		Bridge:   BridgeConfig{ListenAddr: ":8790"},
		Logging:  LoggingConfig{Level: "info"},
	}
}
