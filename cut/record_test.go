package cut

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

func testRequest() Request {
	return Request{
		Cuts: []FacetCut{{FacetAddress: facetM1, Action: Add, FunctionSelectors: []selector.Selector{opA}}},
	}
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	req := testRequest()
	r := NewRecord(diamondAddr, facetM2, req)

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.False(t, r.Timestamp.IsZero())
	assert.Equal(t, diamondAddr, r.Diamond)
	assert.Equal(t, facetM2, r.Caller)
	assert.Equal(t, req, r.Request())

	req.Cuts[0].FunctionSelectors[0] = opB
	assert.Equal(t, opA, r.Cuts[0].FunctionSelectors[0], "record does not alias the request")

	assert.NotEqual(t, r.ID, NewRecord(diamondAddr, facetM2, req).ID)
}

func TestMemorySink(t *testing.T) {
	t.Parallel()

	s := NewMemorySink()
	r1 := NewRecord(diamondAddr, facetM2, testRequest())
	r2 := NewRecord(diamondAddr, facetM2, testRequest())
	require.NoError(t, s.Publish(r1))
	require.NoError(t, s.Publish(r2))

	got := s.Records()
	assert.Equal(t, []Record{r1, r2}, got)

	got[0] = Record{}
	assert.Equal(t, r1, s.Records()[0])
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	r := NewRecord(diamondAddr, facetM2, testRequest())
	require.NoError(t, NewLogSink(lggr).Publish(r))

	entries := logs.FilterMessage("Diamond cut").All()
	require.Len(t, entries, 1)
	assert.Equal(t, r.ID, entries[0].ContextMap()["id"])
	assert.Equal(t, diamondAddr.Hex(), entries[0].ContextMap()["diamond"])
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	errA := errors.New("sink a down")
	mem := NewMemorySink()
	m := MultiSink{
		SinkFunc(func(Record) error { return errA }),
		mem,
	}

	err := m.Publish(NewRecord(diamondAddr, facetM2, testRequest()))
	require.ErrorIs(t, err, errA)
	assert.Len(t, mem.Records(), 1, "later sinks still receive the record")

	require.NoError(t, MultiSink{mem}.Publish(NewRecord(diamondAddr, facetM2, testRequest())))
}
