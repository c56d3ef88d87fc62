// Package state persists the tracked domains and their last known
// registration state.
package state

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/mallocator/domain-expiry/pkg/record"
)

// Store is the durable record set keyed by hostname. Every write is committed
// before the call returns.
type Store interface {
	// List returns all records ordered by expiration then hostname, ascending.
	// Records without an expiration date sort first.
	List(ctx context.Context) ([]record.Record, error)

	// Find returns nil, nil when the hostname is not tracked.
	Find(ctx context.Context, hostname string) (*record.Record, error)

	// Insert fails with record.ErrDuplicateHostname if the hostname is tracked.
	Insert(ctx context.Context, rec record.Record) error

	// Update overwrites registered and expiresOn in one step, or fails with
	// record.ErrNotFound.
	Update(ctx context.Context, hostname string, registered bool, expiresOn *time.Time) error

	// Delete fails with record.ErrNotFound if the hostname is not tracked.
	Delete(ctx context.Context, hostname string) error
}

// sqlDate maps a nullable DATE column. The driver may hand back either a
// time.Time or the stored YYYY-MM-DD text.
type sqlDate struct {
	Time  time.Time
	Valid bool
}

func newSQLDate(t *time.Time) sqlDate {
	if t == nil {
		return sqlDate{}
	}
	return sqlDate{Time: record.Date(*t), Valid: true}
}

// Scan implements sql.Scanner
func (d *sqlDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = sqlDate{}
		return nil
	case time.Time:
		*d = sqlDate{Time: record.Date(v), Valid: true}
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
}

func (d *sqlDate) parse(s string) error {
	if len(s) > len(record.DateLayout) {
		s = s[:len(record.DateLayout)]
	}
	t, err := time.Parse(record.DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	*d = sqlDate{Time: t, Valid: true}
	return nil
}

// Value implements driver.Valuer
func (d sqlDate) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time.Format(record.DateLayout), nil
}

func (d sqlDate) ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
