package backend

import (
	"context"

	"financepro/internal/core"
)

// Store is the persistence port for the ledger. Save always writes the whole
// snapshot; there are no partial writes and no merging, last write wins. The
// sync endpoint URL is persisted independently of the snapshot.
type Store interface {
	// Load returns the persisted snapshot. Implementations recover from a
	// missing or unparseable store by returning the empty snapshot; an error
	// means the store itself is unusable.
	Load(ctx context.Context) (core.Snapshot, error)

	// Save overwrites the persisted snapshot with s.
	Save(ctx context.Context, s core.Snapshot) error

	// SyncURL returns the configured sync endpoint, empty when unset.
	SyncURL(ctx context.Context) (string, error)

	// SetSyncURL stores the sync endpoint.
	SetSyncURL(ctx context.Context, url string) error

	Close() error
}

// Type selects a persistence backend.
type Type string

const (
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case FileBackend, SQLiteBackend:
		return true
	}
	return false
}

// Config holds backend construction parameters.
type Config struct {
	Type Type

	// File backend
	DataDir string

	// SQLite backend
	SQLiteDBPath string
}
