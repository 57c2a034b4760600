package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTx_CommitPublishes(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Store(regionA, key2, []byte("old"))

	tx := s.Begin()
	tx.Store(regionA, key1, []byte("v1"))
	tx.Delete(regionA, key2)
	assert.True(t, tx.Dirty())

	got, ok := tx.Load(regionA, key1)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)
	_, ok = tx.Load(regionA, key2)
	assert.False(t, ok, "deletes are visible inside the tx")

	_, ok = s.Load(regionA, key1)
	assert.False(t, ok, "nothing reaches the store before commit")

	require.NoError(t, tx.Commit())
	got, ok = s.Load(regionA, key1)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)
	_, ok = s.Load(regionA, key2)
	assert.False(t, ok)

	require.ErrorIs(t, tx.Commit(), ErrTxClosed)
}

func TestTx_DiscardLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Store(regionA, key1, []byte("v1"))
	before := s.Dump()

	tx := s.Begin()
	tx.Store(regionA, key1, []byte("v2"))
	tx.Store(regionB, key2, []byte("new"))
	tx.Discard()
	tx.Discard()

	assert.Equal(t, before, s.Dump())
	assert.PanicsWithValue(t, ErrTxClosed, func() {
		tx.Store(regionA, key1, []byte("late"))
	})
}

func TestTx_Nested(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		commitChild bool
		want        map[string]string
	}{
		{
			name:        "child committed",
			commitChild: true,
			want:        map[string]string{"k1": "outer", "k2": "inner"},
		},
		{
			name:        "child discarded",
			commitChild: false,
			want:        map[string]string{"k1": "outer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore()
			outer := s.Begin()
			outer.Store(regionA, key1, []byte("outer"))

			inner := outer.Begin()
			got, ok := inner.Load(regionA, key1)
			require.True(t, ok, "child reads through to its parent")
			assert.Equal(t, []byte("outer"), got)
			inner.Store(regionA, key2, []byte("inner"))

			require.ErrorIs(t, outer.Commit(), ErrTxHasOpenChild)

			if tt.commitChild {
				require.NoError(t, inner.Commit())
			} else {
				inner.Discard()
			}
			_, ok = s.Load(regionA, key2)
			assert.False(t, ok, "child commit lands in the parent only")

			require.NoError(t, outer.Commit())

			r := Open(s, regionA)
			gotAll := map[string]string{}
			for name, k := range map[string]common.Hash{"k1": key1, "k2": key2} {
				if v, ok := r.Get(k); ok {
					gotAll[name] = string(v)
				}
			}
			assert.Equal(t, tt.want, gotAll)
		})
	}
}
