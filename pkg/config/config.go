package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAPIAddr          = "127.0.0.1:8080"
	defaultCheckInterval    = 60 * time.Minute
	defaultFirstCheckDelay  = 30 * time.Second
	defaultSaleThreshold    = 0.01
	defaultConcurrency      = 4
	defaultFetchTimeout     = 20 * time.Second
	defaultFetchRandomDelay = 1 * time.Second
	defaultFolder           = "geral"
	defaultTimezone         = "America/Sao_Paulo"
)

type Config struct {
	DBPath           string        `mapstructure:"db-path"`
	APIAddr          string        `mapstructure:"api-addr"`
	CheckInterval    time.Duration `mapstructure:"check-interval"`
	FirstCheckDelay  time.Duration `mapstructure:"first-check-delay"`
	SaleThreshold    float64       `mapstructure:"sale-threshold"`
	Concurrency      int           `mapstructure:"concurrency"`
	FetchTimeout     time.Duration `mapstructure:"fetch-timeout"`
	FetchRandomDelay time.Duration `mapstructure:"fetch-random-delay"`
	UserAgent        string        `mapstructure:"user-agent"`
	DefaultFolder    string        `mapstructure:"default-folder"`
	Timezone         string        `mapstructure:"timezone"`
	Logging          LoggingConfig `mapstructure:"logging"`
	ConfigPath       string        `mapstructure:"-"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configPath (or ~/.config/salewatch/config.yml when empty) and
// SALEWATCH_* environment variables on top of the defaults. A missing config
// file is not an error.
func Load(configPath string) (Config, error) {
	var cfg Config

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SALEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "salewatch", "salewatch.db"))
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("check-interval", defaultCheckInterval)
	v.SetDefault("first-check-delay", defaultFirstCheckDelay)
	v.SetDefault("sale-threshold", defaultSaleThreshold)
	v.SetDefault("concurrency", defaultConcurrency)
	v.SetDefault("fetch-timeout", defaultFetchTimeout)
	v.SetDefault("fetch-random-delay", defaultFetchRandomDelay)
	v.SetDefault("user-agent", "")
	v.SetDefault("default-folder", defaultFolder)
	v.SetDefault("timezone", defaultTimezone)
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "salewatch", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}
	if strings.HasPrefix(cfg.Logging.File, "~/") {
		cfg.Logging.File = filepath.Join(home, cfg.Logging.File[2:])
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SaleThreshold <= 0 || c.SaleThreshold >= 1 {
		return fmt.Errorf("invalid sale-threshold %v: must be between 0 and 1", c.SaleThreshold)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency %d: must be at least 1", c.Concurrency)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("invalid check-interval %v", c.CheckInterval)
	}
	if c.FirstCheckDelay < 0 {
		return fmt.Errorf("invalid first-check-delay %v", c.FirstCheckDelay)
	}
	if strings.TrimSpace(c.DefaultFolder) == "" {
		return errors.New("default-folder must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db-path must not be empty")
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
