package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-diamond-framework/audit"
)

var (
	// fileCfg is the config that is loaded from the testdata/config.yml file.
	fileCfg = &Config{
		Owner:   "0x00000000000000000000000000000000000000a1",
		Address: "0x00000000000000000000000000000000000000d1",
		Log:     LogConfig{Level: "debug"},
		Audit: audit.Config{
			Driver:        "ramsql",
			DSN:           "diamondctl",
			RetryAttempts: 5,
			RetryDelay:    time.Second,
			Timeout:       30 * time.Second,
		},
	}

	// envVars is the environment variables that used to set the config.
	envVars = map[string]string{
		"DIAMOND_OWNER":                "0x00000000000000000000000000000000000000b2",
		"DIAMOND_ADDRESS":              "0x00000000000000000000000000000000000000e2",
		"DIAMOND_LOG_LEVEL":            "warn",
		"DIAMOND_AUDIT_DRIVER":         "postgres",
		"DIAMOND_AUDIT_DSN":            "postgres://localhost/diamond",
		"DIAMOND_AUDIT_RETRY_ATTEMPTS": "2",
		"DIAMOND_AUDIT_RETRY_DELAY":    "10ms",
		"DIAMOND_AUDIT_TIMEOUT":        "1m",
	}

	// envCfg is the config that is loaded from the environment variables.
	envCfg = &Config{
		Owner:   "0x00000000000000000000000000000000000000b2",
		Address: "0x00000000000000000000000000000000000000e2",
		Log:     LogConfig{Level: "warn"},
		Audit: audit.Config{
			Driver:        "postgres",
			DSN:           "postgres://localhost/diamond",
			RetryAttempts: 2,
			RetryDelay:    10 * time.Millisecond,
			Timeout:       time.Minute,
		},
	}
)

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func Test_Load(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	tests := []struct {
		name     string
		givePath string
		giveEnv  map[string]string
		want     *Config
	}{
		{
			name:     "file only",
			givePath: "testdata/config.yml",
			want:     fileCfg,
		},
		{
			name:     "env overrides file",
			givePath: "testdata/config.yml",
			giveEnv:  envVars,
			want:     envCfg,
		},
		{
			name:     "missing file falls back to env",
			givePath: "testdata/missing.yml",
			giveEnv:  envVars,
			want:     envCfg,
		},
		{
			name:     "legacy env names",
			givePath: "testdata/missing.yml",
			giveEnv:  map[string]string{"LOG_LEVEL": "error", "AUDIT_DRIVER": "ramsql", "AUDIT_DSN": "x"},
			want:     &Config{Log: LogConfig{Level: "error"}, Audit: audit.Config{Driver: "ramsql", DSN: "x"}},
		},
	}

	for _, tt := range tests { //nolint:paralleltest // uses t.Setenv
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.giveEnv)

			got, err := Load(tt.givePath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_LoadEnv(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	setEnv(t, envVars)

	got, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, envCfg, got)
}

func TestConfig_Accessors(t *testing.T) {
	t.Parallel()

	owner, err := fileCfg.OwnerAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xa1"), owner)

	addr, err := fileCfg.DiamondAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xd1"), addr)

	lvl, err := fileCfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)
	assert.True(t, fileCfg.AuditEnabled())

	empty := &Config{Owner: "nobody"}
	_, err = empty.OwnerAddress()
	require.ErrorIs(t, err, ErrInvalidAddress)
	addr, err = empty.DiamondAddress()
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)
	assert.False(t, empty.AuditEnabled())
}
