// Package config loads combitest settings from a YAML file, COMBITEST_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/combitest/combinatorial/domain"
)

const (
	configBaseName = "combitest"
	envPrefix      = "COMBITEST"

	LogFileKey       = "log.file"
	LogLevelKey      = "log.level"
	LogVerboseKey    = "log.verbose"
	LogMaxSizeKey    = "log.max_size"
	LogMaxBackupsKey = "log.max_backups"
	LogMaxAgeKey     = "log.max_age"
	LogCompressKey   = "log.compress"

	DataDirKey      = "data.dir"
	CacheBackendKey = "cache.backend"

	RunParallelKey = "run.parallel"
	RunTimeoutKey  = "run.timeout"

	ServeGRPCAddrKey = "serve.grpc_addr"
	ServeHTTPAddrKey = "serve.http_addr"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheBadger = "badger"
	CacheMemory = "memory"
)

// Config is the effective configuration.
type Config struct {
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
	Data  DataConfig  `mapstructure:"data" yaml:"data"`
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
	Run   RunConfig   `mapstructure:"run" yaml:"run"`
	Serve ServeConfig `mapstructure:"serve" yaml:"serve"`
}

// LogConfig configures the log file and console logging.
type LogConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	Level      string `mapstructure:"level" yaml:"level"`
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DataConfig locates persistent state.
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// CacheConfig selects where test results are cached.
type CacheConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// RunConfig configures local test execution.
type RunConfig struct {
	Parallel int           `mapstructure:"parallel" yaml:"parallel"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// MarshalYAML writes the timeout as a duration string, the way it is read.
func (c RunConfig) MarshalYAML() (any, error) {
	return struct {
		Parallel int    `yaml:"parallel"`
		Timeout  string `yaml:"timeout"`
	}{c.Parallel, c.Timeout.String()}, nil
}

// ServeConfig configures the executor service.
type ServeConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr" yaml:"grpc_addr"`
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(LogFileKey, filepath.Join(".combitest", "combitest.log"))
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogVerboseKey, false)
	v.SetDefault(LogMaxSizeKey, 10)
	v.SetDefault(LogMaxBackupsKey, 3)
	v.SetDefault(LogMaxAgeKey, 28)
	v.SetDefault(LogCompressKey, true)

	v.SetDefault(DataDirKey, ".combitest")
	v.SetDefault(CacheBackendKey, CacheSQLite)

	v.SetDefault(RunParallelKey, 1)
	v.SetDefault(RunTimeoutKey, 10*time.Minute)

	v.SetDefault(ServeGRPCAddrKey, ":50051")
	v.SetDefault(ServeHTTPAddrKey, ":8080")
	return v
}

// Load reads file, or combitest.yaml in the working directory when file is
// empty. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheSQLite, CacheBadger, CacheMemory:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Run.Parallel < 1 {
		return fmt.Errorf("%w: run.parallel must be at least 1", domain.ErrInvalidConfig)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("%w: run.timeout must not be negative", domain.ErrInvalidConfig)
	}
	if c.Cache.Backend != CacheMemory && c.Data.Dir == "" {
		return fmt.Errorf("%w: data.dir is required for the %s cache", domain.ErrInvalidConfig, c.Cache.Backend)
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", domain.ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// SlogLevel returns the configured level, debug when verbose.
func (c LogConfig) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, _ := parseLevel(c.Level)
	return level
}

// DatabasePath is the SQLite database holding sessions and cached results.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.Dir, "combitest.db")
}

// BadgerDir is the directory of the Badger result cache.
func (c *Config) BadgerDir() string {
	return filepath.Join(c.Data.Dir, "badger")
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-file":  LogFileKey,
	"log-level": LogLevelKey,
	"verbose":   LogVerboseKey,
	"data-dir":  DataDirKey,
	"cache":     CacheBackendKey,
	"parallel":  RunParallelKey,
	"timeout":   RunTimeoutKey,
	"grpc-addr": ServeGRPCAddrKey,
	"http-addr": ServeHTTPAddrKey,
}

// BindFlags wires the known flags of flags to their configuration keys, so
// a flag set on the command line overrides file and environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

func parseLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return slog.Level(n), true
	}
	return slog.LevelInfo, false
}
