package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"financepro/internal/core"
	applog "financepro/internal/log"
)

const (
	ledgerFileName  = "ledger.json"
	syncURLFileName = "sync_url"
)

// FileStore persists the ledger as a single pretty-printed JSON blob plus a
// sibling file holding the sync endpoint URL. Writes go through a temp file
// and rename so a crash never leaves a half-written blob behind.
type FileStore struct {
	dir    string
	logger *applog.Logger
}

func NewFileStore(dir string, logger *applog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

// Load reads the persisted snapshot. A missing or unparseable blob is logged
// and treated as no data, never as a failure.
func (f *FileStore) Load(ctx context.Context) (core.Snapshot, error) {
	path := filepath.Join(f.dir, ledgerFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.WarnContext(ctx, "Ledger file unreadable, starting empty",
				applog.FieldError, err, "path", path)
		}
		return core.EmptySnapshot(), nil
	}

	snap, err := core.DecodeSnapshot(data)
	if err != nil {
		f.logger.WarnContext(ctx, "Ledger file unparseable, starting empty",
			applog.FieldError, err, "path", path)
		return core.EmptySnapshot(), nil
	}
	return snap, nil
}

// Save overwrites the persisted snapshot.
func (f *FileStore) Save(ctx context.Context, s core.Snapshot) error {
	data, err := core.EncodeSnapshotIndented(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.writeAtomic(ledgerFileName, data); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	f.logger.DebugContext(ctx, "Snapshot persisted",
		applog.FieldOperation, applog.OpSave, "bytes", len(data))
	return nil
}

func (f *FileStore) SyncURL(_ context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, syncURLFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read sync url: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileStore) SetSyncURL(_ context.Context, url string) error {
	if err := f.writeAtomic(syncURLFileName, []byte(url+"\n")); err != nil {
		return fmt.Errorf("write sync url: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) writeAtomic(name string, data []byte) error {
	path := filepath.Join(f.dir, name)
	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
