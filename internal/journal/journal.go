// Package journal keeps an audit trail of notification deliveries in a SQL database.
//
// The table is not created automatically. Expected columns:
//
//	channel  VARCHAR(255)
//	stream   VARCHAR(255)
//	outcome  VARCHAR(32)
//	records  INTEGER
//	info     TEXT
//	error    TEXT
//	sent_at  TIMESTAMP
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"szuro.net/zts/internal/logger"
)

const DEFAULT_TABLE = "zts_deliveries"

var columns = []string{"channel", "stream", "outcome", "records", "info", "error", "sent_at"}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var journalErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "zts_journal_errors_total",
	Help: "Total number of delivery journal write errors",
})

// Entry describes one delivery attempt.
type Entry struct {
	Channel string
	Stream  string
	Outcome string
	Records int
	Info    string
	Error   string
	SentAt  time.Time
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

type dialect struct {
	driver      string
	placeholder func(n int) string
}

var dialects = map[string]dialect{
	"postgres":  {"postgres", func(n int) string { return fmt.Sprintf("$%d", n) }},
	"mysql":     {"mysql", func(int) string { return "?" }},
	"sqlserver": {"sqlserver", func(n int) string { return fmt.Sprintf("@p%d", n) }},
}

func lookupDialect(kind string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "postgres", "postgresql":
		return dialects["postgres"], nil
	case "mysql", "mariadb":
		return dialects["mysql"], nil
	case "sqlserver", "mssql":
		return dialects["sqlserver"], nil
	case "":
		return dialect{}, errors.New("journal type is required")
	default:
		return dialect{}, fmt.Errorf("unsupported journal type %q", kind)
	}
}

func insertStatement(d dialect, table string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

type SQLJournal struct {
	db     *sql.DB
	insert string
}

// New opens the database and checks it is reachable.
func New(ctx context.Context, kind, dsn, table string) (*SQLJournal, error) {
	d, err := lookupDialect(kind)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DEFAULT_TABLE
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid journal table name %q", table)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", d.driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s journal: %w", d.driver, err)
	}

	return newSQLJournal(db, d, table), nil
}

func newSQLJournal(db *sql.DB, d dialect, table string) *SQLJournal {
	return &SQLJournal{db: db, insert: insertStatement(d, table)}
}

func (j *SQLJournal) Record(ctx context.Context, e Entry) error {
	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, j.insert,
		e.Channel, e.Stream, e.Outcome, e.Records, e.Info, e.Error, e.SentAt.UTC())
	if err != nil {
		journalErrors.Inc()
		logger.Error("Failed to write delivery journal",
			slog.String("channel", e.Channel),
			slog.Any("error", err))
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

func (j *SQLJournal) Close() error {
	return j.db.Close()
}
