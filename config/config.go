// Package config loads the cellard node configuration from flags, CELLARD_*
// environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the node reads.
const EnvPrefix = "CELLARD"

// Flag names. Each one is also read from CELLARD_<NAME> with dashes replaced
// by underscores.
const (
	FlagHome                = "home"
	FlagConfig              = "config"
	FlagDBBackend           = "db-backend"
	FlagLogLevel            = "log-level"
	FlagLogFormat           = "log-format"
	FlagAuthority           = "authority"
	FlagMinimumHealthFactor = "minimum-health-factor"
	FlagBlockTime           = "block-time"
	FlagMetricsAddr         = "metrics-addr"
)

const (
	LogFormatPlain = "plain"
	LogFormatJSON  = "json"
)

// Config is the node configuration.
type Config struct {
	Home      string `mapstructure:"home"`
	DBBackend string `mapstructure:"db-backend"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
	// Authority may trust adaptors and positions and update params.
	Authority string `mapstructure:"authority"`
	// MinimumHealthFactor is the lowest fraxlend health factor a strategist
	// batch may leave behind.
	MinimumHealthFactor string        `mapstructure:"minimum-health-factor"`
	BlockTime           time.Duration `mapstructure:"block-time"`
	// MetricsAddr serves prometheus metrics when set.
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// DefaultHome is the default node home directory.
func DefaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".cellard"
	}
	return filepath.Join(dir, ".cellard")
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Home:                DefaultHome(),
		DBBackend:           string(dbm.MemDBBackend),
		LogLevel:            "info",
		LogFormat:           LogFormatPlain,
		Authority:           "gov",
		MinimumHealthFactor: "1.05",
		BlockTime:           6 * time.Second,
	}
}

// Validate checks the configuration for obvious errors.
func (c Config) Validate() error {
	switch dbm.BackendType(c.DBBackend) {
	case dbm.MemDBBackend, dbm.GoLevelDBBackend, dbm.PebbleDBBackend:
	default:
		return fmt.Errorf("unsupported db backend %q", c.DBBackend)
	}
	if dbm.BackendType(c.DBBackend) != dbm.MemDBBackend && strings.TrimSpace(c.Home) == "" {
		return errors.New("home cannot be empty for a persistent db backend")
	}
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.LogFormat != LogFormatPlain && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("log format must be %s or %s, got %q", LogFormatPlain, LogFormatJSON, c.LogFormat)
	}
	if strings.TrimSpace(c.Authority) == "" {
		return errors.New("authority cannot be empty")
	}
	if _, err := c.HealthFactor(); err != nil {
		return err
	}
	if c.BlockTime <= 0 {
		return fmt.Errorf("block time must be positive, got %s", c.BlockTime)
	}
	return nil
}

// HealthFactor parses MinimumHealthFactor.
func (c Config) HealthFactor() (sdkmath.LegacyDec, error) {
	hf, err := sdkmath.LegacyNewDecFromStr(c.MinimumHealthFactor)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("invalid minimum health factor %q: %w", c.MinimumHealthFactor, err)
	}
	if hf.LT(sdkmath.LegacyOneDec()) {
		return sdkmath.LegacyDec{}, fmt.Errorf("minimum health factor must be at least 1, got %s", hf)
	}
	return hf, nil
}

// Logger builds the node logger writing to w.
func (c Config) Logger(w io.Writer) (log.Logger, error) {
	filter, err := log.ParseLogLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := []log.Option{log.FilterOption(filter)}
	if c.LogFormat == LogFormatJSON {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(w, opts...), nil
}

// OpenDB opens the state database named name under the home data directory.
func (c Config) OpenDB(name string) (dbm.DB, error) {
	backend := dbm.BackendType(c.DBBackend)
	if backend == dbm.MemDBBackend {
		return dbm.NewMemDB(), nil
	}
	return dbm.NewDB(name, backend, filepath.Join(c.Home, "data"))
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagHome, d.Home, "node home directory")
	fs.String(FlagConfig, "", "config file (toml, yaml or json); defaults to <home>/config/cellard.toml when present")
	fs.String(FlagDBBackend, d.DBBackend, "state database backend (memdb, goleveldb, pebbledb)")
	fs.String(FlagLogLevel, d.LogLevel, "log level, optionally per module (e.g. x/cellar:debug,*:info)")
	fs.String(FlagLogFormat, d.LogFormat, "log format (plain or json)")
	fs.String(FlagAuthority, d.Authority, "registry and params authority")
	fs.String(FlagMinimumHealthFactor, d.MinimumHealthFactor, "minimum fraxlend health factor after a rebalance")
	fs.Duration(FlagBlockTime, d.BlockTime, "block time used by the simulator")
	fs.String(FlagMetricsAddr, d.MetricsAddr, "address to serve prometheus metrics on")
}

// Load reads the configuration. Flags set on the command line win over
// CELLARD_* variables, which win over the config file and the flag defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := v.GetString(FlagConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("cellard")
		v.AddConfigPath(filepath.Join(v.GetString(FlagHome), "config"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}
