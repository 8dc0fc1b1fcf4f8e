package database

import (
	"database/sql"
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/database/migrations"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the vcs.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite-backed store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a properly configured
// connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Foreign keys default to OFF in SQLite for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// nullable maps "" to NULL for bind parameters of optional columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

// Branch operations

func (s *SQLiteStore) CreateBranch(b *model.Branch) error {
	_, err := s.db.Exec(`
		INSERT INTO branches (id, project_id, kind, owner_user_id, head_commit_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.ProjectID, string(b.Kind), nullable(b.OwnerUserID), nullable(b.HeadCommitID), b.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating branch: %w", err)
	}
	return nil
}

const branchColumns = "id, project_id, kind, owner_user_id, head_commit_id, created_at"

func scanBranch(row interface{ Scan(...any) error }) (*model.Branch, error) {
	var b model.Branch
	var kind string
	var owner, head sql.NullString
	if err := row.Scan(&b.ID, &b.ProjectID, &kind, &owner, &head, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Kind = model.BranchKind(kind)
	b.OwnerUserID = fromNull(owner)
	b.HeadCommitID = fromNull(head)
	return &b, nil
}

func (s *SQLiteStore) findBranch(query string, args ...any) (*model.Branch, error) {
	b, err := scanBranch(s.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding branch: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) FindBranchByID(id string) (*model.Branch, error) {
	return s.findBranch("SELECT "+branchColumns+" FROM branches WHERE id = ?", id)
}

func (s *SQLiteStore) FindMainBranch(projectID string) (*model.Branch, error) {
	return s.findBranch("SELECT "+branchColumns+" FROM branches WHERE project_id = ? AND kind = 'main'", projectID)
}

func (s *SQLiteStore) FindDraftBranch(projectID, userID string) (*model.Branch, error) {
	return s.findBranch(
		"SELECT "+branchColumns+" FROM branches WHERE project_id = ? AND kind = 'draft' AND owner_user_id = ?",
		projectID, userID)
}

func (s *SQLiteStore) ListBranches(projectID string) ([]*model.Branch, error) {
	rows, err := s.db.Query(
		"SELECT "+branchColumns+" FROM branches WHERE project_id = ? ORDER BY created_at", projectID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []*model.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// Working tree operations

const workingFileColumns = "id, branch_id, project_id, name, doc_type, folder_id, content_hash, updated_at"

func scanWorkingFile(row interface{ Scan(...any) error }) (*model.WorkingFile, error) {
	var wf model.WorkingFile
	var docType string
	var folder sql.NullString
	if err := row.Scan(&wf.ID, &wf.BranchID, &wf.ProjectID, &wf.Name, &docType, &folder, &wf.ContentHash, &wf.UpdatedAt); err != nil {
		return nil, err
	}
	wf.DocType = model.DocType(docType)
	wf.FolderID = fromNull(folder)
	return &wf, nil
}

func (s *SQLiteStore) findWorkingFile(query string, args ...any) (*model.WorkingFile, error) {
	wf, err := scanWorkingFile(s.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding working file: %w", err)
	}
	return wf, nil
}

func (s *SQLiteStore) FindWorkingFile(branchID, fileID string) (*model.WorkingFile, error) {
	return s.findWorkingFile(
		"SELECT "+workingFileColumns+" FROM working_files WHERE branch_id = ? AND id = ?", branchID, fileID)
}

func (s *SQLiteStore) FindWorkingFileByPlacement(branchID, name string, docType model.DocType, folderID string) (*model.WorkingFile, error) {
	return s.findWorkingFile(
		"SELECT "+workingFileColumns+" FROM working_files WHERE branch_id = ? AND name = ? AND doc_type = ? AND folder_id IS ?",
		branchID, name, string(docType), nullable(folderID))
}

func (s *SQLiteStore) FindFileIdentity(projectID, name string, docType model.DocType, folderID string) (string, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT wf.id
		FROM working_files wf
		JOIN branches b ON b.id = wf.branch_id
		WHERE wf.project_id = ? AND wf.name = ? AND wf.doc_type = ? AND wf.folder_id IS ?
		ORDER BY CASE b.kind WHEN 'main' THEN 0 ELSE 1 END, b.created_at
		LIMIT 1`,
		projectID, name, string(docType), nullable(folderID)).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Never tracked
		}
		return "", fmt.Errorf("finding file identity: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) FindFileBranch(projectID, fileID string) (string, error) {
	var branchID string
	err := s.db.QueryRow(`
		SELECT b.id
		FROM working_files wf
		JOIN branches b ON b.id = wf.branch_id
		WHERE wf.project_id = ? AND wf.id = ?
		ORDER BY CASE b.kind WHEN 'main' THEN 0 ELSE 1 END, b.created_at
		LIMIT 1`,
		projectID, fileID).Scan(&branchID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Not tracked on any branch
		}
		return "", fmt.Errorf("finding file branch: %w", err)
	}
	return branchID, nil
}

func (s *SQLiteStore) FindFileHistoryBranch(projectID, fileID string) (string, error) {
	var branchID string
	err := s.db.QueryRow(`
		SELECT c.branch_id
		FROM file_snapshots fs
		JOIN commits c ON c.id = fs.commit_id
		WHERE c.project_id = ? AND fs.file_id = ?
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT 1`,
		projectID, fileID).Scan(&branchID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Never committed
		}
		return "", fmt.Errorf("finding file history branch: %w", err)
	}
	return branchID, nil
}

func (s *SQLiteStore) UpsertWorkingFile(wf *model.WorkingFile) error {
	_, err := s.db.Exec(`
		INSERT INTO working_files (id, branch_id, project_id, name, doc_type, folder_id, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (branch_id, id) DO UPDATE SET
			name = excluded.name,
			doc_type = excluded.doc_type,
			folder_id = excluded.folder_id,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		wf.ID, wf.BranchID, wf.ProjectID, wf.Name, string(wf.DocType), nullable(wf.FolderID), wf.ContentHash, wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting working file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListWorkingFiles(branchID string) ([]*model.WorkingFile, error) {
	rows, err := s.db.Query(
		"SELECT "+workingFileColumns+" FROM working_files WHERE branch_id = ? ORDER BY name", branchID)
	if err != nil {
		return nil, fmt.Errorf("listing working files: %w", err)
	}
	defer rows.Close()

	var files []*model.WorkingFile
	for rows.Next() {
		wf, err := scanWorkingFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning working file: %w", err)
		}
		files = append(files, wf)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) DeleteWorkingFile(branchID, fileID string) error {
	if _, err := s.db.Exec("DELETE FROM working_files WHERE branch_id = ? AND id = ?", branchID, fileID); err != nil {
		return fmt.Errorf("deleting working file: %w", err)
	}
	return nil
}

// Content operations

func (s *SQLiteStore) CreateContent(c *model.Content) error {
	// OR IGNORE: the dedup lookup is advisory; a concurrent insert of the
	// same hash is not an error.
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO contents (hash, encrypted_hash, size, created_at)
		VALUES (?, ?, ?, ?)`,
		c.Hash, nullable(c.EncryptedHash), c.Size, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating content: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindContentByHash(hash string) (*model.Content, error) {
	var c model.Content
	var enc sql.NullString
	err := s.db.QueryRow(
		"SELECT hash, encrypted_hash, size, created_at FROM contents WHERE hash = ?", hash).
		Scan(&c.Hash, &enc, &c.Size, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding content: %w", err)
	}
	c.EncryptedHash = fromNull(enc)
	return &c, nil
}

// DB exposes the underlying connection for components that share the
// database file, such as the database-backed vault.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the database file path (or ":memory:" for in-memory stores).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements the vcs.Store interface.
var _ vcs.Store = (*SQLiteStore)(nil)
