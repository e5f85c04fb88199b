package backend

import (
	"fmt"

	applog "financepro/internal/log"
	"financepro/internal/storage"
)

// Open creates the persistence backend selected by cfg.
func Open(cfg Config, logger *applog.Logger) (Store, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	switch cfg.Type {
	case FileBackend:
		dir := cfg.DataDir
		if dir == "" {
			dir = "data"
		}
		store, err := storage.NewFileStore(dir, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		logger.Info("Initialized file backend", applog.FieldBackend, cfg.Type.String(), "dir", dir)
		return store, nil

	case SQLiteBackend:
		if cfg.SQLiteDBPath == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", applog.FieldBackend, cfg.Type.String(), "db_path", cfg.SQLiteDBPath)
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
