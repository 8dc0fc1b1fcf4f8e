package vault

import (
	"database/sql"
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/config"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// NewVaultFromConfig creates a Vault implementation based on the vault
// config type. db is only used by the database-backed vault and may be nil
// for the other types.
func NewVaultFromConfig(cfg config.VaultConfig, db *sql.DB) (vcs.Vault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(), nil
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database vault requires a database connection")
		}
		return NewDatabaseVault(db)
	case "s3":
		v, err := NewS3Vault(cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
