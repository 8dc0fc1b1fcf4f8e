package database

import (
	"database/sql"
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// autoSources mirrors model.CommitSource.IsAuto for SQL predicates.
const autoSources = "('system', 'sync_push', 'sync_pull')"

// CreateCommit atomically records a commit:
//  1. Inserts the commit row with its parent pointer.
//  2. Inserts one snapshot row per file in the set.
//  3. Advances the branch head with a conditional update against the head
//     the caller observed. Zero affected rows means another commit advanced
//     the head first; the transaction rolls back and the caller sees
//     vcs.ErrConflict.
func (s *SQLiteStore) CreateCommit(commit *model.Commit, snapshots []*model.FileSnapshot, expectedHeadID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO commits (id, project_id, branch_id, parent_commit_id, author_user_id, message, set_digest, source, is_remote, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		commit.ID, commit.ProjectID, commit.BranchID, nullable(commit.ParentCommitID),
		commit.AuthorUserID, commit.Message, commit.SetDigest, string(commit.Source),
		commit.IsRemote, commit.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting commit: %w", err)
	}

	for _, snap := range snapshots {
		_, err = tx.Exec(`
			INSERT INTO file_snapshots (id, commit_id, file_id, name, doc_type, folder_id, content_hash, change_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, snap.CommitID, snap.FileID, snap.Name, string(snap.DocType),
			nullable(snap.FolderID), nullable(snap.ContentHash), string(snap.ChangeType))
		if err != nil {
			return fmt.Errorf("inserting snapshot for %s: %w", snap.FileID, err)
		}
	}

	res, err := tx.Exec(
		"UPDATE branches SET head_commit_id = ? WHERE id = ? AND head_commit_id IS ?",
		commit.ID, commit.BranchID, nullable(expectedHeadID))
	if err != nil {
		return fmt.Errorf("advancing branch head: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking head advance: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("branch %s head moved since read: %w", commit.BranchID, vcs.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const commitColumns = "id, project_id, branch_id, parent_commit_id, author_user_id, message, set_digest, source, is_remote, created_at"

func scanCommit(row interface{ Scan(...any) error }) (*model.Commit, error) {
	var c model.Commit
	var parent sql.NullString
	var source string
	if err := row.Scan(&c.ID, &c.ProjectID, &c.BranchID, &parent, &c.AuthorUserID,
		&c.Message, &c.SetDigest, &source, &c.IsRemote, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ParentCommitID = fromNull(parent)
	c.Source = model.CommitSource(source)
	return &c, nil
}

func (s *SQLiteStore) FindCommitByID(id string) (*model.Commit, error) {
	c, err := scanCommit(s.db.QueryRow("SELECT "+commitColumns+" FROM commits WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding commit: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) scanCommits(query string, args ...any) ([]*model.Commit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying commits: %w", err)
	}
	defer rows.Close()

	var commits []*model.Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

func (s *SQLiteStore) ListCommitsByBranch(branchID string) ([]*model.Commit, error) {
	return s.scanCommits(
		"SELECT "+commitColumns+" FROM commits WHERE branch_id = ? ORDER BY created_at DESC, id DESC", branchID)
}

func (s *SQLiteStore) ListFileCommits(branchID, fileID string, limit int) ([]*model.Commit, error) {
	query := `
		SELECT ` + prefixedCommitColumns("c") + `
		FROM commits c
		JOIN file_snapshots fs ON fs.commit_id = c.id
		WHERE c.branch_id = ? AND fs.file_id = ? AND fs.change_type != 'unchanged'
		ORDER BY c.created_at DESC, c.id DESC`
	if limit > 0 {
		return s.scanCommits(query+" LIMIT ?", branchID, fileID, limit)
	}
	return s.scanCommits(query, branchID, fileID)
}

func (s *SQLiteStore) CountVersionedFileCommits(branchID, fileID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM commits c
		JOIN file_snapshots fs ON fs.commit_id = c.id
		WHERE c.branch_id = ? AND fs.file_id = ? AND fs.change_type != 'unchanged'
		  AND c.source NOT IN `+autoSources,
		branchID, fileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting versioned commits: %w", err)
	}
	return count, nil
}

func prefixedCommitColumns(alias string) string {
	return alias + ".id, " + alias + ".project_id, " + alias + ".branch_id, " + alias + ".parent_commit_id, " +
		alias + ".author_user_id, " + alias + ".message, " + alias + ".set_digest, " + alias + ".source, " +
		alias + ".is_remote, " + alias + ".created_at"
}

// Snapshot operations

const snapshotColumns = "id, commit_id, file_id, name, doc_type, folder_id, content_hash, change_type"

func scanSnapshot(row interface{ Scan(...any) error }) (*model.FileSnapshot, error) {
	var snap model.FileSnapshot
	var docType, changeType string
	var folder, content sql.NullString
	if err := row.Scan(&snap.ID, &snap.CommitID, &snap.FileID, &snap.Name,
		&docType, &folder, &content, &changeType); err != nil {
		return nil, err
	}
	snap.DocType = model.DocType(docType)
	snap.FolderID = fromNull(folder)
	snap.ContentHash = fromNull(content)
	snap.ChangeType = model.ChangeType(changeType)
	return &snap, nil
}

func (s *SQLiteStore) FindSnapshots(commitID string) ([]*model.FileSnapshot, error) {
	rows, err := s.db.Query(
		"SELECT "+snapshotColumns+" FROM file_snapshots WHERE commit_id = ? ORDER BY name", commitID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*model.FileSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (s *SQLiteStore) FindSnapshotForFile(commitID, fileID string) (*model.FileSnapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(
		"SELECT "+snapshotColumns+" FROM file_snapshots WHERE commit_id = ? AND file_id = ?", commitID, fileID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding snapshot: %w", err)
	}
	return snap, nil
}
