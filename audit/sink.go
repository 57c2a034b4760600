// Package audit persists diamond cut change records to a SQL database.
package audit

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	_ "github.com/proullon/ramsql/driver"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

const (
	// DriverPostgres is the lib/pq driver.
	DriverPostgres = "postgres"
	// DriverRAMSQL is the in-process ramsql driver, for tests and dry runs.
	DriverRAMSQL = "ramsql"

	schemaCutRecords = `
		CREATE TABLE diamond_cut_records (
			id         varchar(255) not null,
			diamond    varchar(255) not null,
			caller     varchar(255) not null,
			created_at bigint not null,
			seq        bigint not null,
			body       text not null,

			PRIMARY KEY(id)
		);`

	probeCutRecords  = `SELECT id FROM diamond_cut_records WHERE id = $1`
	insertCutRecord  = `INSERT INTO diamond_cut_records (id, diamond, caller, created_at, seq, body) VALUES ($1, $2, $3, $4, $5, $6)`
	selectCutRecords = `SELECT created_at, seq, body FROM diamond_cut_records WHERE diamond = $1`
)

var ErrUnsupportedDriver = errors.New("unsupported audit driver")

// Config configures a SQLSink.
type Config struct {
	Driver        string        `mapstructure:"driver" yaml:"driver"`
	DSN           string        `mapstructure:"dsn" yaml:"dsn"`
	RetryAttempts uint          `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 200 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}

	return c
}

// SQLSink is a cut.Sink writing one row per change record. Rows carry the order they were
// published in, which breaks ties between records stamped with the same time.
type SQLSink struct {
	db   *sql.DB
	cfg  Config
	lggr logger.Logger
	seq  atomic.Int64
}

var _ cut.Sink = (*SQLSink)(nil)

// Open connects to the database named by cfg.
func Open(cfg Config, lggr logger.Logger) (*SQLSink, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverRAMSQL:
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Driver, ErrUnsupportedDriver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	return New(db, cfg, lggr), nil
}

// New wraps an open database.
func New(db *sql.DB, cfg Config, lggr logger.Logger) *SQLSink {
	return &SQLSink{db: db, cfg: cfg.withDefaults(), lggr: lggr.Named("audit")}
}

// Close closes the database.
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// Migrate creates the records table unless it already exists.
func (s *SQLSink) Migrate(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, probeCutRecords, "")
	if err == nil {
		return rows.Close()
	}
	if _, err := s.db.ExecContext(ctx, schemaCutRecords); err != nil {
		return fmt.Errorf("failed to create cut records schema: %w", err)
	}

	return nil
}

// Publish implements cut.Sink.
func (s *SQLSink) Publish(r cut.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	return s.PublishContext(ctx, r)
}

// PublishContext inserts r, retrying transient failures.
func (s *SQLSink) PublishContext(ctx context.Context, r cut.Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}

	seq := s.seq.Add(1)

	return retry.Do(
		func() error {
			_, err := s.db.ExecContext(ctx, insertCutRecord,
				r.ID, r.Diamond.Hex(), r.Caller.Hex(), r.Timestamp.UnixNano(), seq, string(body))

			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.RetryAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.lggr.Warnw("Retrying cut record insert", "record", r.ID, "attempt", n+1, "err", err)
		}),
	)
}

// Records returns every record stored for diamond in the order the cuts took effect.
func (s *SQLSink) Records(ctx context.Context, diamond common.Address) ([]cut.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectCutRecords, diamond.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to query cut records: %w", err)
	}
	defer rows.Close()

	type row struct {
		createdAt int64
		seq       int64
		record    cut.Record
	}
	var out []row
	for rows.Next() {
		var (
			createdAt int64
			seq       int64
			body      string
		)
		if err := rows.Scan(&createdAt, &seq, &body); err != nil {
			return nil, fmt.Errorf("failed to scan cut record: %w", err)
		}
		var r cut.Record
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("failed to decode cut record: %w", err)
		}
		out = append(out, row{createdAt: createdAt, seq: seq, record: r})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b row) int {
		if c := cmp.Compare(a.createdAt, b.createdAt); c != 0 {
			return c
		}

		return cmp.Compare(a.seq, b.seq)
	})

	records := make([]cut.Record, len(out))
	for i, r := range out {
		records[i] = r.record
	}

	return records, nil
}
