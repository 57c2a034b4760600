package flags

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMust(t *testing.T) {
	t.Parallel()

	err := errors.New("ignored")
	assert.Equal(t, "x", MustString("x", err))
	assert.True(t, MustBool(true, err))
	assert.Equal(t, []string{"a"}, MustStringSlice([]string{"a"}, err))
}

func TestConfigAndOutput(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	Config(cmd)
	Output(cmd, "")

	c := cmd.Flags().Lookup("config")
	require.NotNil(t, c)
	assert.Equal(t, "c", c.Shorthand)
	assert.Equal(t, "diamond.yaml", c.DefValue)

	o := cmd.Flags().Lookup("out")
	require.NotNil(t, o)
	assert.Equal(t, "o", o.Shorthand)

	require.NoError(t, cmd.ParseFlags([]string{"-c", "other.yaml", "--out", "snap.toml"}))
	assert.Equal(t, "other.yaml", MustString(cmd.Flags().GetString("config")))
	assert.Equal(t, "snap.toml", MustString(cmd.Flags().GetString("out")))
}
