package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Target  TargetConfig  `yaml:"target" mapstructure:"target"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// TargetConfig identifies the results page being scraped.
type TargetConfig struct {
	// URL is the past-results page. If URLTemplate is set it takes
	// precedence; "{start}" and "{end}" are replaced with the requested
	// range bounds as YYYY-MM-DD.
	URL         string `yaml:"url" mapstructure:"url"`
	URLTemplate string `yaml:"url_template" mapstructure:"url_template"`
	// LocatorFile points at the YAML field-locator set. Empty means the
	// built-in defaults for the OLG results page.
	LocatorFile string `yaml:"locator_file" mapstructure:"locator_file"`
}

// BrowserConfig configures the headless Chrome session.
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" mapstructure:"headless"`
	ExecPath       string        `yaml:"exec_path" mapstructure:"exec_path"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// FetchConfig controls retry, pacing, and the pagination safety bound.
type FetchConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	MaxPages       int           `yaml:"max_pages" mapstructure:"max_pages"`
	// RequestsPerSecond paces render requests against the source site.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// PerDate issues one render request per Tuesday/Friday draw date
	// instead of paginating a single range request. Use with a URL
	// template that filters to a single date.
	PerDate bool `yaml:"per_date" mapstructure:"per_date"`
}

// OutputConfig controls the output writers.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // json, csv, or both
	Dir    string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the run/draw archive backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only results API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LOTTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("target.url", "https://www.olg.ca/en/lottery/play-lotto-max-encore/past-results.html")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.request_timeout", 30*time.Second)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.initial_backoff", 2*time.Second)
	v.SetDefault("fetch.max_backoff", 30*time.Second)
	v.SetDefault("fetch.max_pages", 50)
	v.SetDefault("fetch.requests_per_second", 0.5)
	v.SetDefault("fetch.per_date", false)
	v.SetDefault("output.format", "both")
	v.SetDefault("output.dir", "./data")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lotto.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "json", "csv", "both":
	default:
		return eris.Errorf("config: invalid output format %q (valid: json, csv, both)", c.Output.Format)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: invalid store driver %q (valid: sqlite, postgres)", c.Store.Driver)
	}
	if c.Fetch.MaxAttempts < 1 {
		return eris.New("config: fetch.max_attempts must be at least 1")
	}
	if c.Fetch.MaxPages < 1 {
		return eris.New("config: fetch.max_pages must be at least 1")
	}
	if c.Target.URL == "" && c.Target.URLTemplate == "" {
		return eris.New("config: target.url or target.url_template is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
