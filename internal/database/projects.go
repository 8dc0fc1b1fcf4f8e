package database

import (
	"database/sql"
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// Version cache operations

func (s *SQLiteStore) ListFileVersions(projectID, fileID string) ([]*model.FileVersion, error) {
	rows, err := s.db.Query(`
		SELECT project_id, file_id, commit_id, version_number, created_at
		FROM file_versions
		WHERE project_id = ? AND file_id = ?
		ORDER BY version_number`, projectID, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying file versions: %w", err)
	}
	defer rows.Close()

	var versions []*model.FileVersion
	for rows.Next() {
		var v model.FileVersion
		if err := rows.Scan(&v.ProjectID, &v.FileID, &v.CommitID, &v.VersionNumber, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning file version: %w", err)
		}
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) CountFileVersions(projectID, fileID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM file_versions WHERE project_id = ? AND file_id = ?",
		projectID, fileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting file versions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) HasFileVersion(projectID, fileID, commitID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM file_versions WHERE project_id = ? AND file_id = ? AND commit_id = ?",
		projectID, fileID, commitID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking file version: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) ReplaceFileVersions(projectID, fileID string, versions []*model.FileVersion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec("DELETE FROM file_versions WHERE project_id = ? AND file_id = ?", projectID, fileID)
	if err != nil {
		return fmt.Errorf("clearing file versions: %w", err)
	}
	for _, v := range versions {
		_, err = tx.Exec(`
			INSERT INTO file_versions (project_id, file_id, commit_id, version_number, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			v.ProjectID, v.FileID, v.CommitID, v.VersionNumber, v.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting file version %d: %w", v.VersionNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Live project file and folder operations

const projectFileColumns = "id, project_id, folder_id, name, doc_type, content_hash, updated_at"

func scanProjectFile(row interface{ Scan(...any) error }) (*model.ProjectFile, error) {
	var f model.ProjectFile
	var folder sql.NullString
	var docType string
	if err := row.Scan(&f.ID, &f.ProjectID, &folder, &f.Name, &docType, &f.ContentHash, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.FolderID = fromNull(folder)
	f.DocType = model.DocType(docType)
	return &f, nil
}

func (s *SQLiteStore) ListProjectFiles(projectID string) ([]*model.ProjectFile, error) {
	rows, err := s.db.Query(
		"SELECT "+projectFileColumns+" FROM project_files WHERE project_id = ? ORDER BY name", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying project files: %w", err)
	}
	defer rows.Close()

	var files []*model.ProjectFile
	for rows.Next() {
		f, err := scanProjectFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) FindProjectFileByID(id string) (*model.ProjectFile, error) {
	f, err := scanProjectFile(s.db.QueryRow(
		"SELECT "+projectFileColumns+" FROM project_files WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding project file: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) UpsertProjectFile(f *model.ProjectFile) error {
	_, err := s.db.Exec(`
		INSERT INTO project_files (id, project_id, folder_id, name, doc_type, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			folder_id = excluded.folder_id,
			name = excluded.name,
			doc_type = excluded.doc_type,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		f.ID, f.ProjectID, nullable(f.FolderID), f.Name, string(f.DocType), f.ContentHash, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting project file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteProjectFile(id string) error {
	_, err := s.db.Exec("DELETE FROM project_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateProjectFolder(f *model.ProjectFolder) error {
	_, err := s.db.Exec(
		"INSERT INTO project_folders (id, project_id, parent_id, name) VALUES (?, ?, ?, ?)",
		f.ID, f.ProjectID, nullable(f.ParentID), f.Name)
	if err != nil {
		return fmt.Errorf("creating project folder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListProjectFolders(projectID string) ([]*model.ProjectFolder, error) {
	rows, err := s.db.Query(
		"SELECT id, project_id, parent_id, name FROM project_folders WHERE project_id = ? ORDER BY name", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying project folders: %w", err)
	}
	defer rows.Close()

	var folders []*model.ProjectFolder
	for rows.Next() {
		var f model.ProjectFolder
		var parent sql.NullString
		if err := rows.Scan(&f.ID, &f.ProjectID, &parent, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning project folder: %w", err)
		}
		f.ParentID = fromNull(parent)
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

// DeleteProject removes every row of the project in dependency order inside
// one transaction. Branch head pointers are cleared first so commit rows can
// go, and folders are deleted in the caller-supplied children-first order.
func (s *SQLiteStore) DeleteProject(projectID string, folderIDsInDeleteOrder []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		desc  string
		query string
	}{
		{"clearing branch heads", "UPDATE branches SET head_commit_id = NULL WHERE project_id = ?"},
		{"deleting file versions", "DELETE FROM file_versions WHERE project_id = ?"},
		{"deleting snapshots", "DELETE FROM file_snapshots WHERE commit_id IN (SELECT id FROM commits WHERE project_id = ?)"},
		{"deleting commits", "DELETE FROM commits WHERE project_id = ?"},
		{"deleting working files", "DELETE FROM working_files WHERE project_id = ?"},
		{"deleting branches", "DELETE FROM branches WHERE project_id = ?"},
		{"deleting project files", "DELETE FROM project_files WHERE project_id = ?"},
	}
	for _, step := range steps {
		if _, err := tx.Exec(step.query, projectID); err != nil {
			return fmt.Errorf("%s: %w", step.desc, err)
		}
	}
	for _, folderID := range folderIDsInDeleteOrder {
		if _, err := tx.Exec("DELETE FROM project_folders WHERE id = ?", folderID); err != nil {
			return fmt.Errorf("deleting folder %s: %w", folderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
