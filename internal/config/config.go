package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"StockDashboard/internal/model"
	"StockDashboard/internal/registry"
)

// Data providers selectable with data_source.provider.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		SessionIdleMinutes  int    `yaml:"session_idle_minutes"`
	} `yaml:"server"`
	DataSource struct {
		Provider            string `yaml:"provider"`
		BaseURL             string `yaml:"base_url"`
		APIKey              string `yaml:"api_key"`
		FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
		CacheTTLSeconds     int    `yaml:"cache_ttl_seconds"`
		MaxConcurrency      int    `yaml:"max_concurrency"`
	} `yaml:"data_source"`
	Dashboard struct {
		Companies []string `yaml:"companies"`
		Period    string   `yaml:"period"`
		Window    int      `yaml:"window"`
	} `yaml:"dashboard"`
	Companies []registry.Entry `yaml:"companies"`
	Schedule  struct {
		CacheSweepCron   string `yaml:"cache_sweep_cron"`
		WarmCron         string `yaml:"warm_cron"`
		SessionSweepCron string `yaml:"session_sweep_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if err := envInt("FETCH_TIMEOUT_SECONDS", &cfg.DataSource.FetchTimeoutSeconds); err != nil {
		return nil, err
	}
	if err := envInt("CACHE_TTL_SECONDS", &cfg.DataSource.CacheTTLSeconds); err != nil {
		return nil, err
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_WARM"); v != "" {
		cfg.Schedule.WarmCron = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 60
	}
	if cfg.Server.SessionIdleMinutes == 0 {
		cfg.Server.SessionIdleMinutes = 30
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderYahoo
	}
	if cfg.DataSource.FetchTimeoutSeconds == 0 {
		cfg.DataSource.FetchTimeoutSeconds = 10
	}
	if cfg.DataSource.MaxConcurrency == 0 {
		cfg.DataSource.MaxConcurrency = 4
	}
	if cfg.Dashboard.Companies == nil {
		cfg.Dashboard.Companies = []string{"Apple", "Google", "Microsoft"}
	}
	if cfg.Dashboard.Period == "" {
		cfg.Dashboard.Period = string(model.DefaultPeriod)
	}
	if cfg.Dashboard.Window == 0 {
		cfg.Dashboard.Window = model.DefaultWindow
	}
	if cfg.Schedule.CacheSweepCron == "" {
		cfg.Schedule.CacheSweepCron = "0 */5 * * * *"
	}
	if cfg.Schedule.SessionSweepCron == "" {
		cfg.Schedule.SessionSweepCron = "0 */10 * * * *"
	}

	return cfg, nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("data_source.fetch_timeout_seconds must not be negative")
	}
	if c.DataSource.CacheTTLSeconds < 0 {
		return fmt.Errorf("data_source.cache_ttl_seconds must not be negative")
	}
	if c.DataSource.MaxConcurrency < 1 {
		return fmt.Errorf("data_source.max_concurrency must be positive")
	}
	if _, err := c.DefaultSelection().Normalize(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// FetchTimeout returns the per-fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.FetchTimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched data is reused. Zero disables the cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.DataSource.CacheTTLSeconds) * time.Second
}

// SessionIdle returns how long an unused viewer session is kept.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}

// DefaultSelection is shown to a viewer who has not submitted the form.
func (c *Config) DefaultSelection() model.Selection {
	return model.Selection{
		Companies: append([]string(nil), c.Dashboard.Companies...),
		Period:    model.Period(c.Dashboard.Period),
		Window:    c.Dashboard.Window,
	}
}
