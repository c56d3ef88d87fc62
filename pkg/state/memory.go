package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mallocator/domain-expiry/pkg/record"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store with the same ordering and error
// behaviour as SQLiteStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]record.Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]record.Record)}
}

func cloneRecord(r record.Record) record.Record {
	if r.ExpiresOn != nil {
		t := *r.ExpiresOn
		r.ExpiresOn = &t
	}
	return r
}

// List returns all records ordered like SQLite: NULL expirations first.
func (m *MemoryStore) List(ctx context.Context) ([]record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]record.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ExpiresOn, out[j].ExpiresOn
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].Hostname < out[j].Hostname
	})
	return out, nil
}

// Find returns a copy of the stored record.
func (m *MemoryStore) Find(ctx context.Context, hostname string) (*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[hostname]
	if !ok {
		return nil, nil
	}
	c := cloneRecord(r)
	return &c, nil
}

// Insert adds a new record.
func (m *MemoryStore) Insert(ctx context.Context, rec record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.Hostname]; ok {
		return fmt.Errorf("%w: %s", record.ErrDuplicateHostname, rec.Hostname)
	}
	m.records[rec.Hostname] = cloneRecord(rec)
	return nil
}

// Update overwrites the registration state.
func (m *MemoryStore) Update(ctx context.Context, hostname string, registered bool, expiresOn *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[hostname]; !ok {
		return fmt.Errorf("%w: %s", record.ErrNotFound, hostname)
	}
	rec := record.Record{Hostname: hostname, Registered: registered}
	if expiresOn != nil {
		d := record.Date(*expiresOn)
		rec.ExpiresOn = &d
	}
	m.records[hostname] = rec
	return nil
}

// Delete removes a record.
func (m *MemoryStore) Delete(ctx context.Context, hostname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[hostname]; !ok {
		return fmt.Errorf("%w: %s", record.ErrNotFound, hostname)
	}
	delete(m.records, hostname)
	return nil
}
