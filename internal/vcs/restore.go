package vcs

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// RestoreResult describes an applied restore.
type RestoreResult struct {
	RestoredFiles int
	Commit        *model.Commit
}

// RestoreCommit writes a commit's snapshot content back into the project's
// live documents and records the result as a fresh commit on main with
// source=restore. Preview is CommitSnapshots; this applies it. The restored
// state then diffs empty against the restored commit for every file it
// carried.
func (s *Service) RestoreCommit(projectID, commitID, authorUserID string) (*RestoreResult, error) {
	commit, err := s.store.FindCommitByID(commitID)
	if err != nil {
		return nil, fmt.Errorf("finding commit: %w", err)
	}
	if commit == nil {
		return nil, fmt.Errorf("commit %s: %w", commitID, ErrNotFound)
	}
	if commit.ProjectID != projectID {
		return nil, fmt.Errorf("commit %s does not belong to project %s: %w", commitID, projectID, ErrInvalidState)
	}

	main, err := s.store.FindMainBranch(projectID)
	if err != nil {
		return nil, fmt.Errorf("finding main branch: %w", err)
	}
	if main == nil {
		return nil, fmt.Errorf("version control is not initialized for project %s: %w", projectID, ErrInvalidState)
	}

	snapshots, err := s.store.FindSnapshots(commitID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}

	live, err := s.store.ListProjectFiles(projectID)
	if err != nil {
		return nil, fmt.Errorf("listing live files: %w", err)
	}
	liveByPlacement := make(map[string]*model.ProjectFile, len(live))
	for _, f := range live {
		liveByPlacement[placementKey(f.Name, f.DocType, f.FolderID)] = f
	}

	restored := 0
	wanted := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		if snap.ContentHash == "" {
			continue // deleted in the restored commit
		}
		key := placementKey(snap.Name, snap.DocType, snap.FolderID)
		wanted[key] = true

		f := liveByPlacement[key]
		if f == nil {
			f = &model.ProjectFile{
				ID:        s.idgen.New(),
				ProjectID: projectID,
				FolderID:  snap.FolderID,
				Name:      snap.Name,
				DocType:   snap.DocType,
			}
		} else if f.ContentHash == snap.ContentHash {
			continue // already at the restored version
		}

		f.ContentHash = snap.ContentHash
		f.UpdatedAt = s.clock.Now()
		if err := s.store.UpsertProjectFile(f); err != nil {
			return nil, fmt.Errorf("writing live file: %w", err)
		}
		restored++
	}

	// Live documents with no counterpart in the restored commit go away.
	for key, f := range liveByPlacement {
		if wanted[key] {
			continue
		}
		if err := s.store.DeleteProjectFile(f.ID); err != nil {
			return nil, fmt.Errorf("removing live file: %w", err)
		}
	}

	// Materialize the restored state as a commit on main.
	if _, err := s.SeedFromLive(projectID, main.ID); err != nil {
		return nil, fmt.Errorf("seeding main from restored state: %w", err)
	}

	message := fmt.Sprintf("Restore state of commit %s", commitID)
	restoreCommit, err := s.Commit(main.ID, authorUserID, message, CommitOptions{Source: model.SourceRestore})
	if err != nil {
		return nil, fmt.Errorf("committing restored state: %w", err)
	}

	s.logger.Info("commit restored",
		"project", projectID, "from", commitID, "commit", restoreCommit.ID, "files", restored)
	return &RestoreResult{RestoredFiles: restored, Commit: restoreCommit}, nil
}
