package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/record"
)

const schema = `CREATE TABLE IF NOT EXISTS domains (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hostname VARCHAR(255) NOT NULL,
	expires DATE,
	registered BOOLEAN NOT NULL
)`

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps records in a single SQLite table. Statements run in
// autocommit mode, so each write is durable on return.
type SQLiteStore struct {
	db  *sqlx.DB
	log *logger.Logger
}

type domainRow struct {
	Hostname   string  `db:"hostname"`
	Expires    sqlDate `db:"expires"`
	Registered bool    `db:"registered"`
}

func (r domainRow) toRecord() record.Record {
	return record.Record{
		Hostname:   r.Hostname,
		Registered: r.Registered,
		ExpiresOn:  r.Expires.ptr(),
	}
}

// Open opens (creating if needed) the database file at path and makes sure
// the domains table exists.
func Open(ctx context.Context, path string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer, and ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db, log)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an existing handle without touching the schema.
func NewSQLiteStore(db *sqlx.DB, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, log: log}
}

// EnsureSchema creates the domains table when it is missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create domains table: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List returns all records, earliest expiration first.
func (s *SQLiteStore) List(ctx context.Context) ([]record.Record, error) {
	var rows []domainRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT hostname, expires, registered
		   FROM domains
		  ORDER BY expires ASC, hostname ASC`)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}

	out := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out, nil
}

// Find looks up a single hostname.
func (s *SQLiteStore) Find(ctx context.Context, hostname string) (*record.Record, error) {
	var row domainRow
	err := s.db.GetContext(ctx, &row,
		`SELECT hostname, expires, registered FROM domains WHERE hostname = ? LIMIT 1`, hostname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", hostname, err)
	}
	rec := row.toRecord()
	return &rec, nil
}

// Insert adds a new record. The existence check and the insert share one
// transaction.
func (s *SQLiteStore) Insert(ctx context.Context, rec record.Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert %s: %w", rec.Hostname, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM domains WHERE hostname = ?`, rec.Hostname); err != nil {
		return fmt.Errorf("check %s: %w", rec.Hostname, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", record.ErrDuplicateHostname, rec.Hostname)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO domains (hostname, expires, registered) VALUES (?, ?, ?)`,
		rec.Hostname, newSQLDate(rec.ExpiresOn), rec.Registered,
	); err != nil {
		return fmt.Errorf("insert %s: %w", rec.Hostname, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert %s: %w", rec.Hostname, err)
	}
	s.log.Debugf("Inserted %s (registered=%t, expires=%s)", rec.Hostname, rec.Registered, rec.ExpiresString())
	return nil
}

// Update overwrites the registration state with a single statement.
func (s *SQLiteStore) Update(ctx context.Context, hostname string, registered bool, expiresOn *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE domains
		    SET registered = ?,
		        expires = ?
		  WHERE hostname = ?`,
		registered, newSQLDate(expiresOn), hostname)
	if err != nil {
		return fmt.Errorf("update %s: %w", hostname, err)
	}
	return requireAffected(res, hostname)
}

// Delete removes a hostname from monitoring.
func (s *SQLiteStore) Delete(ctx context.Context, hostname string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM domains WHERE hostname = ?`, hostname)
	if err != nil {
		return fmt.Errorf("delete %s: %w", hostname, err)
	}
	return requireAffected(res, hostname)
}

func requireAffected(res sql.Result, hostname string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", hostname, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", record.ErrNotFound, hostname)
	}
	return nil
}
