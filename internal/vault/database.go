package vault

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// DatabaseVault stores content blobs in a SQLite table alongside the
// metadata rows, so a single database file holds a complete repository.
// The blob table is owned by the vault and created on first use; it is not
// part of the migrated schema.
type DatabaseVault struct {
	db *sql.DB
}

// NewDatabaseVault creates a vault backed by the given database connection.
func NewDatabaseVault(db *sql.DB) (*DatabaseVault, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vault_blobs (
			checksum TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("creating blob table: %w", err)
	}
	return &DatabaseVault{db: db}, nil
}

// PutContent stores content identified by its checksum. Re-storing a known
// checksum is a no-op.
func (v *DatabaseVault) PutContent(checksum string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	_, err = v.db.Exec(
		"INSERT OR IGNORE INTO vault_blobs (checksum, data) VALUES (?, ?)", checksum, data)
	if err != nil {
		return fmt.Errorf("storing blob %s: %w", checksum, err)
	}
	return nil
}

// GetContent retrieves content by checksum.
func (v *DatabaseVault) GetContent(checksum string, w io.Writer) error {
	var data []byte
	err := v.db.QueryRow("SELECT data FROM vault_blobs WHERE checksum = ?", checksum).Scan(&data)
	if err == sql.ErrNoRows {
		return fmt.Errorf("content not found: %s", checksum)
	}
	if err != nil {
		return fmt.Errorf("loading blob %s: %w", checksum, err)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// ValidateSetup verifies the blob table is reachable.
func (v *DatabaseVault) ValidateSetup() error {
	var count int
	if err := v.db.QueryRow("SELECT COUNT(*) FROM vault_blobs").Scan(&count); err != nil {
		return fmt.Errorf("blob table not reachable: %w", err)
	}
	return nil
}

var _ vcs.Vault = (*DatabaseVault)(nil)
