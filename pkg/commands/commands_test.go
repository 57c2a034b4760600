package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	lggr := logger.Nop()
	cmds := New(lggr)

	require.NotNil(t, cmds)
	assert.Equal(t, lggr, cmds.lggr)
}

func TestCommands_All(t *testing.T) {
	t.Parallel()

	all, err := New(logger.Nop()).All()
	require.NoError(t, err)

	uses := make([]string, len(all))
	for i, c := range all {
		uses[i] = c.Name()
	}
	assert.Equal(t, []string{"selector", "interface-id", "schema", "cut"}, uses)
}

func TestCommands_NilLogger(t *testing.T) {
	t.Parallel()

	_, err := New(nil).All()
	require.ErrorContains(t, err, "missing required fields: Logger")
}
