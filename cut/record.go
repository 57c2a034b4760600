package cut

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

// Record is the change record emitted for every committed cut request.
type Record struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Diamond   common.Address `json:"diamond"`
	Caller    common.Address `json:"caller"`
	Cuts      []FacetCut     `json:"cuts"`
	Init      Init           `json:"init"`
}

// NewRecord builds a record for req. The request is deep-copied so later changes by the caller
// do not reach the record.
func NewRecord(diamond, caller common.Address, req Request) Record {
	c := req.Clone()

	return Record{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Diamond:   diamond,
		Caller:    caller,
		Cuts:      c.Cuts,
		Init:      c.Init,
	}
}

// Request returns a copy of the recorded request.
func (r Record) Request() Request {
	return Request{Cuts: r.Cuts, Init: r.Init}.Clone()
}

// Sink receives change records. Publish is called after the cut has been committed, so a
// failing sink cannot undo it.
type Sink interface {
	Publish(r Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r Record) error

func (f SinkFunc) Publish(r Record) error { return f(r) }

// MemorySink keeps records in memory.
// This is thread-safe and can be used in a multi-threaded environment.
type MemorySink struct {
	mu      sync.RWMutex
	records []Record
}

var _ Sink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish appends r.
func (s *MemorySink) Publish(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)

	return nil
}

// Records returns the published records in order.
func (s *MemorySink) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Create a copy to avoid data races after returning
	out := make([]Record, len(s.records))
	copy(out, s.records)

	return out
}

// LogSink writes each record to a logger.
type LogSink struct {
	lggr logger.Logger
}

var _ Sink = (*LogSink)(nil)

func NewLogSink(lggr logger.Logger) *LogSink {
	return &LogSink{lggr: lggr}
}

func (s *LogSink) Publish(r Record) error {
	s.lggr.Infow("Diamond cut",
		"id", r.ID,
		"diamond", r.Diamond.Hex(),
		"caller", r.Caller.Hex(),
		"cuts", r.Request().Summary(),
	)

	return nil
}

// MultiSink publishes to every sink, even when an earlier one fails, and joins the errors.
type MultiSink []Sink

func (m MultiSink) Publish(r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
