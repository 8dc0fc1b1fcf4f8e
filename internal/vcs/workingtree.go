package vcs

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// UpsertFile writes one editor save into the branch's working tree.
// fileID may be empty: the tracked file is then resolved by its placement
// key (branch, name, docType, folder), which is how editor saves find or
// create the file without knowing the VCS-internal id. Writes are
// last-write-wins; concurrency is handled at commit time, not here.
func (s *Service) UpsertFile(branchID, fileID, name string, docType model.DocType, folderID string, content []byte) (*model.WorkingFile, error) {
	branch, err := s.store.FindBranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("finding branch: %w", err)
	}
	if branch == nil {
		return nil, fmt.Errorf("branch %s: %w", branchID, ErrNotFound)
	}

	contentRef, err := s.contents.Put(content)
	if err != nil {
		return nil, fmt.Errorf("storing content: %w", err)
	}

	var wf *model.WorkingFile
	if fileID != "" {
		wf, err = s.store.FindWorkingFile(branchID, fileID)
	} else {
		wf, err = s.store.FindWorkingFileByPlacement(branchID, name, docType, folderID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving working file: %w", err)
	}

	if wf == nil {
		id := fileID
		if id == "" {
			id, err = s.fileIdentity(branch.ProjectID, name, docType, folderID)
			if err != nil {
				return nil, err
			}
		}
		wf = &model.WorkingFile{
			ID:        id,
			BranchID:  branchID,
			ProjectID: branch.ProjectID,
		}
	}

	wf.Name = name
	wf.DocType = docType
	wf.FolderID = folderID
	wf.ContentHash = contentRef
	wf.UpdatedAt = s.clock.Now()

	if err := s.store.UpsertWorkingFile(wf); err != nil {
		return nil, fmt.Errorf("writing working file: %w", err)
	}

	s.logger.Debug("working file updated", "branch", branchID, "file", wf.ID, "name", name)
	return wf, nil
}

// fileIdentity assigns the logical identity for a placement key: the one
// already used by any branch of the project when there is one, a fresh UUID
// otherwise. Sharing identities across branches is what lets draft and main
// snapshots of the same file diff under one key.
func (s *Service) fileIdentity(projectID, name string, docType model.DocType, folderID string) (string, error) {
	id, err := s.store.FindFileIdentity(projectID, name, docType, folderID)
	if err != nil {
		return "", fmt.Errorf("resolving file identity: %w", err)
	}
	if id == "" {
		id = s.idgen.New()
	}
	return id, nil
}

// RemoveFile untracks a file from the branch's working tree. The next commit
// will record it as deleted.
func (s *Service) RemoveFile(branchID, fileID string) error {
	wf, err := s.store.FindWorkingFile(branchID, fileID)
	if err != nil {
		return fmt.Errorf("finding working file: %w", err)
	}
	if wf == nil {
		return fmt.Errorf("working file %s on branch %s: %w", fileID, branchID, ErrNotFound)
	}
	if err := s.store.DeleteWorkingFile(branchID, fileID); err != nil {
		return fmt.Errorf("deleting working file: %w", err)
	}
	return nil
}

// ListFiles returns the branch's tracked files.
func (s *Service) ListFiles(branchID string) ([]*model.WorkingFile, error) {
	files, err := s.store.ListWorkingFiles(branchID)
	if err != nil {
		return nil, fmt.Errorf("listing working files: %w", err)
	}
	return files, nil
}

// SeedFromLive copies the project's current live editor documents into the
// branch's working tree, so the next commit snapshots editor state. Live
// files that already track a working file (same placement key) overwrite it;
// tracked files absent from the live set are untracked and will be recorded
// as deleted by the next commit.
func (s *Service) SeedFromLive(projectID, branchID string) (int, error) {
	live, err := s.store.ListProjectFiles(projectID)
	if err != nil {
		return 0, fmt.Errorf("listing live files: %w", err)
	}

	tracked, err := s.store.ListWorkingFiles(branchID)
	if err != nil {
		return 0, fmt.Errorf("listing working files: %w", err)
	}

	matched := make(map[string]bool, len(tracked))
	count := 0
	for _, f := range live {
		wf, err := s.store.FindWorkingFileByPlacement(branchID, f.Name, f.DocType, f.FolderID)
		if err != nil {
			return count, fmt.Errorf("resolving working file: %w", err)
		}
		if wf == nil {
			id, err := s.fileIdentity(projectID, f.Name, f.DocType, f.FolderID)
			if err != nil {
				return count, err
			}
			wf = &model.WorkingFile{
				ID:        id,
				BranchID:  branchID,
				ProjectID: projectID,
				Name:      f.Name,
				DocType:   f.DocType,
				FolderID:  f.FolderID,
			}
		}
		matched[wf.ID] = true

		wf.ContentHash = f.ContentHash
		wf.UpdatedAt = s.clock.Now()
		if err := s.store.UpsertWorkingFile(wf); err != nil {
			return count, fmt.Errorf("writing working file: %w", err)
		}
		count++
	}

	for _, wf := range tracked {
		if matched[wf.ID] {
			continue
		}
		if err := s.store.DeleteWorkingFile(branchID, wf.ID); err != nil {
			return count, fmt.Errorf("untracking working file: %w", err)
		}
	}

	s.logger.Debug("working tree seeded", "project", projectID, "branch", branchID, "files", count)
	return count, nil
}
