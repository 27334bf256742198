package journal

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingDriver stores every Exec so tests can look at what the journal wrote.
type recordingDriver struct {
	mu    sync.Mutex
	execs []recordedExec
	fail  error
}

type recordedExec struct {
	query string
	args  []driver.Value
}

func (d *recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{d}, nil }

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{c.d, query}, nil
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

type recordingStmt struct {
	d     *recordingDriver
	query string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }
func (s *recordingStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.d.fail != nil {
		return nil, s.d.fail
	}
	s.d.execs = append(s.d.execs, recordedExec{s.query, args})
	return driver.RowsAffected(1), nil
}
func (s *recordingStmt) Query([]driver.Value) (driver.Rows, error) { return nil, io.EOF }

var (
	recorder     = &recordingDriver{}
	registerOnce sync.Once
)

func openRecorder(t *testing.T) *sql.DB {
	t.Helper()
	registerOnce.Do(func() { sql.Register("zts-recorder", recorder) })
	recorder.mu.Lock()
	recorder.execs = nil
	recorder.fail = nil
	recorder.mu.Unlock()
	db, err := sql.Open("zts-recorder", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertStatement(t *testing.T) {
	tests := []struct {
		kind     string
		expected string
	}{
		{"postgres", "INSERT INTO zts_deliveries (channel, stream, outcome, records, info, error, sent_at) VALUES ($1, $2, $3, $4, $5, $6, $7)"},
		{"PostgreSQL", "INSERT INTO zts_deliveries (channel, stream, outcome, records, info, error, sent_at) VALUES ($1, $2, $3, $4, $5, $6, $7)"},
		{"mysql", "INSERT INTO zts_deliveries (channel, stream, outcome, records, info, error, sent_at) VALUES (?, ?, ?, ?, ?, ?, ?)"},
		{"mssql", "INSERT INTO zts_deliveries (channel, stream, outcome, records, info, error, sent_at) VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7)"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			d, err := lookupDialect(tt.kind)
			require.NoError(t, err)
			require.Equal(t, tt.expected, insertStatement(d, DEFAULT_TABLE))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, "", "dsn", "")
	require.EqualError(t, err, "journal type is required")

	_, err = New(ctx, "oracle", "dsn", "")
	require.EqualError(t, err, `unsupported journal type "oracle"`)

	_, err = New(ctx, "postgres", "dsn", "deliveries; DROP TABLE x")
	require.ErrorContains(t, err, "invalid journal table name")
}

func TestRecord(t *testing.T) {
	db := openRecorder(t)
	d, _ := lookupDialect("postgres")
	j := newSQLJournal(db, d, "audit.deliveries")

	sentAt := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	err := j.Record(context.Background(), Entry{
		Channel: "web01-errors",
		Stream:  "nginx",
		Outcome: "delivered",
		Records: 1,
		Info:    "processed: 1; failed: 0; total: 1",
		SentAt:  sentAt,
	})
	require.NoError(t, err)

	require.Len(t, recorder.execs, 1)
	exec := recorder.execs[0]
	require.Contains(t, exec.query, "INSERT INTO audit.deliveries")
	require.Equal(t, []driver.Value{
		"web01-errors", "nginx", "delivered", int64(1), "processed: 1; failed: 0; total: 1", "", sentAt,
	}, exec.args)
}

func TestRecord_Failure(t *testing.T) {
	db := openRecorder(t)
	recorder.fail = errors.New("disk on fire")
	d, _ := lookupDialect("mysql")
	j := newSQLJournal(db, d, DEFAULT_TABLE)

	err := j.Record(context.Background(), Entry{Channel: "c"})
	require.ErrorContains(t, err, "disk on fire")
}
