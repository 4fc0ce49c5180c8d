// Package config defines the data structures related to configuration and
// includes functions for loading, normalizing and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"github.com/iwvelando/tender-optimizer/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for tender-optimizer.
type Configuration struct {
	Input     InputConfig     `yaml:"input,omitempty" mapstructure:"input"`
	Optimizer OptimizerConfig `yaml:"optimizer,omitempty" mapstructure:"optimizer"`
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
	Cache     CacheConfig     `yaml:"cache,omitempty" mapstructure:"cache"`
	Store     StoreConfig     `yaml:"store,omitempty" mapstructure:"store"`
	Events    EventsConfig    `yaml:"events,omitempty" mapstructure:"events"`
}

// InputConfig points at the shipment dataset.
type InputConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"` // .csv or .json
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// CacheConfig controls solution memoization.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled,omitempty" mapstructure:"enabled"`
	Backend    string        `yaml:"backend,omitempty" mapstructure:"backend"` // memory, redis
	MaxEntries int           `yaml:"maxEntries,omitempty" mapstructure:"maxEntries"`
	RedisURL   string        `yaml:"redisURL,omitempty" mapstructure:"redisURL"`
	TTL        time.Duration `yaml:"ttl,omitempty" mapstructure:"ttl"`
}

// StoreConfig selects where run history is kept.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty" mapstructure:"backend"` // memory, postgres
	DSN     string `yaml:"dsn,omitempty" mapstructure:"dsn"`
	Table   string `yaml:"table,omitempty" mapstructure:"table"`
}

// EventsConfig controls run-completed notifications over AMQP.
type EventsConfig struct {
	Enabled        bool          `yaml:"enabled,omitempty" mapstructure:"enabled"`
	URL            string        `yaml:"url,omitempty" mapstructure:"url"`
	Exchange       string        `yaml:"exchange,omitempty" mapstructure:"exchange"`
	RoutingKey     string        `yaml:"routingKey,omitempty" mapstructure:"routingKey"`
	PublishTimeout time.Duration `yaml:"publishTimeout,omitempty" mapstructure:"publishTimeout"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Any key may be overridden from the environment, e.g.
// TENDER_OPTIMIZER_COSTWEIGHT=0.5.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is supplied.
func Default() *Configuration {
	conf := &Configuration{
		Optimizer: OptimizerConfig{
			CostWeight:        constants.DefaultCostWeight,
			PerformanceWeight: constants.DefaultPerformanceWeight,
		},
	}
	conf.Normalize()
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Env overrides only apply to keys viper knows about.
	v.SetDefault("input.file", "")
	v.SetDefault("optimizer.costWeight", constants.DefaultCostWeight)
	v.SetDefault("optimizer.performanceWeight", constants.DefaultPerformanceWeight)
	v.SetDefault("optimizer.backend", constants.DefaultBackend)
	v.SetDefault("optimizer.strategy", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", constants.CacheBackendMemory)
	v.SetDefault("cache.maxEntries", constants.DefaultCacheEntries)
	v.SetDefault("cache.redisURL", "")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("store.backend", constants.StoreBackendMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", constants.DefaultRunsTable)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.url", "")
	v.SetDefault("events.exchange", "")
	v.SetDefault("events.routingKey", constants.DefaultEventRoutingKey)
	v.SetDefault("events.publishTimeout", 5*time.Second)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Normalize()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Normalize applies defaults and canonical spellings to every section.
func (c *Configuration) Normalize() {
	c.Input.File = strings.TrimSpace(c.Input.File)
	c.Optimizer.Normalize()

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = constants.CacheBackendMemory
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = constants.DefaultCacheEntries
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = constants.StoreBackendMemory
	}
	if c.Store.Table == "" {
		c.Store.Table = constants.DefaultRunsTable
	}

	if c.Events.RoutingKey == "" {
		c.Events.RoutingKey = constants.DefaultEventRoutingKey
	}
}

// Validate returns the first unsupported setting found.
func (c *Configuration) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format %q is not supported", c.Logging.Format)
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case constants.CacheBackendMemory:
	case constants.CacheBackendRedis:
		if c.Cache.Enabled && c.Cache.RedisURL == "" {
			return fmt.Errorf("redis cache requires cache.redisURL")
		}
	default:
		return fmt.Errorf("cache backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl %s must not be negative", c.Cache.TTL)
	}

	switch c.Store.Backend {
	case constants.StoreBackendMemory:
	case constants.StoreBackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("postgres store requires store.dsn")
		}
	default:
		return fmt.Errorf("store backend %q is not supported", c.Store.Backend)
	}

	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events require events.url when enabled")
	}
	return nil
}

// Warnings reports settings that are valid but probably unintended.
func (c *Configuration) Warnings() []string {
	var warnings []string
	w := c.Optimizer.Weights()
	switch {
	case w.Cost == 0 && w.Performance == 0:
		warnings = append(warnings, "both weights are zero; cost and performance will be weighted evenly")
	case w.Performance == 0:
		warnings = append(warnings, "performance weight is zero; carrier performance only breaks ties")
	case w.Cost == 0:
		warnings = append(warnings, "cost weight is zero; rates only break ties")
	}
	if !c.Cache.Enabled && c.Cache.RedisURL != "" {
		warnings = append(warnings, "cache.redisURL is set but caching is disabled")
	}
	if c.Store.Backend == constants.StoreBackendMemory && c.Store.DSN != "" {
		warnings = append(warnings, "store.dsn is set but the memory store is selected; run history is lost on exit")
	}
	return warnings
}
