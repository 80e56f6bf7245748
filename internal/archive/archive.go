// Package archive keeps named copies of ledger snapshots so an operator can
// roll the ledger back without holding the backup payload themselves.
package archive

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"classroll/internal/ledger"
)

// ErrNotFound is returned for unknown snapshot ids.
var ErrNotFound = errors.New("snapshot not found")

// Entry describes a stored snapshot.
type Entry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	BackupDate string    `json:"backup_date"`
	Students   int       `json:"students"`
	Records    int       `json:"records"`
}

// Store is implemented by the memory and redis backends.
type Store interface {
	Save(ctx context.Context, snap ledger.Snapshot) (Entry, error)
	Get(ctx context.Context, id string) (ledger.Snapshot, error)
	List(ctx context.Context, limit int) ([]Entry, error)
}

func newEntry(snap ledger.Snapshot) Entry {
	return Entry{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		BackupDate: snap.BackupDate,
		Students:   len(snap.Students),
		Records:    len(snap.Records),
	}
}

// Memory is an in-process Store for dev and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	snaps   map[string]ledger.Snapshot
}

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
		snaps:   make(map[string]ledger.Snapshot),
	}
}

// Save stores snap under a new id.
func (m *Memory) Save(_ context.Context, snap ledger.Snapshot) (Entry, error) {
	e := newEntry(snap)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	m.snaps[e.ID] = snap
	return e, nil
}

// Get returns the snapshot stored under id or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (ledger.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[id]
	if !ok {
		return ledger.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// List returns entries newest first.
func (m *Memory) List(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
