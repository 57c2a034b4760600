// Package config loads diamondctl configuration from a file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-diamond-framework/audit"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

var ErrInvalidAddress = errors.New("invalid address")

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn or error. Defaults to info.
}

// Config wraps the entire diamondctl configuration.
//
// WARNING: Audit.DSN may carry database credentials and should not be logged.
type Config struct {
	Owner   string       `mapstructure:"owner" yaml:"owner"`     // The diamond owner.
	Address string       `mapstructure:"address" yaml:"address"` // Optional diamond address. Derived from the owner when empty.
	Log     LogConfig    `mapstructure:"log" yaml:"log"`
	Audit   audit.Config `mapstructure:"audit" yaml:"audit"` // Optional. Records are only logged when no driver is set.
}

// OwnerAddress parses Owner.
func (c *Config) OwnerAddress() (common.Address, error) {
	return parseAddress("owner", c.Owner)
}

// DiamondAddress parses Address, returning the zero address when it is unset.
func (c *Config) DiamondAddress() (common.Address, error) {
	if c.Address == "" {
		return common.Address{}, nil
	}

	return parseAddress("address", c.Address)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	return logger.ParseLevel(c.Log.Level)
}

// AuditEnabled reports whether change records should be persisted.
func (c *Config) AuditEnabled() bool {
	return c.Audit.Driver != ""
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s %q: %w", field, s, ErrInvalidAddress)
	}

	return common.HexToAddress(s), nil
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

var (
	// envBindings maps config keys to the environment variables that can provide them. The first
	// name is preferred; later names are shorter aliases.
	envBindings = map[string][]string{
		"owner":                {"DIAMOND_OWNER"},
		"address":              {"DIAMOND_ADDRESS"},
		"log.level":            {"DIAMOND_LOG_LEVEL", "LOG_LEVEL"},
		"audit.driver":         {"DIAMOND_AUDIT_DRIVER", "AUDIT_DRIVER"},
		"audit.dsn":            {"DIAMOND_AUDIT_DSN", "AUDIT_DSN"},
		"audit.retry_attempts": {"DIAMOND_AUDIT_RETRY_ATTEMPTS"},
		"audit.retry_delay":    {"DIAMOND_AUDIT_RETRY_DELAY"},
		"audit.timeout":        {"DIAMOND_AUDIT_TIMEOUT"},
	}
)

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
