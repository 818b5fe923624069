package core

import (
	"fmt"
	"io"
	"shobergarden/internal/config"
	"shobergarden/internal/infra/persistence/memory"
	"shobergarden/internal/infra/persistence/postgres"
	"shobergarden/internal/infra/persistence/sqlite"
)

// OpenPersistentStore selects a backend from cfg. A nil engine selects
// NewDefaultRulesEngine.
func OpenPersistentStore(cfg config.Config, engine *RulesEngine) (PersistentStore, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return memory.NewStore(engine), nil
	case "", config.StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.NewStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}

// CloseStore releases a store's connections when it holds any.
func CloseStore(store PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
