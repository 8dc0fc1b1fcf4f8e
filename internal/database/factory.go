package database

import (
	"fmt"
	"path/filepath"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/config"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/database/migrations"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// NewStoreFromConfig creates a Store implementation based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig) (vcs.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "bridgevcs.db"))
	case "memory":
		store, err := NewSQLiteStore(":memory:")
		if err != nil {
			return nil, err
		}
		// A fresh in-memory database has no schema yet.
		if err := migrations.Up(store.DB()); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
