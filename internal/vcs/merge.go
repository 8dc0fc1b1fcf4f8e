package vcs

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// MergeResult describes the outcome of a draft-to-main merge.
type MergeResult struct {
	MergeCommitID string
	FilesChanged  int
}

// MergeToMain folds the draft branch's current head state into the
// project's main branch as one system commit. The draft's own history is
// never rewritten: each merge re-diffs against the draft's current head, so
// once draft and main converge a repeated merge produces a commit with zero
// changed files rather than an error.
func (s *Service) MergeToMain(draftBranchID, projectID, authorUserID string) (*MergeResult, error) {
	main, err := s.store.FindMainBranch(projectID)
	if err != nil {
		return nil, fmt.Errorf("finding main branch: %w", err)
	}
	if main == nil {
		return nil, fmt.Errorf("version control is not initialized for project %s: %w", projectID, ErrInvalidState)
	}

	draft, err := s.store.FindBranchByID(draftBranchID)
	if err != nil {
		return nil, fmt.Errorf("finding draft branch: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("draft branch %s: %w", draftBranchID, ErrNotFound)
	}
	if draft.Kind != model.BranchDraft || draft.ProjectID != projectID {
		return nil, fmt.Errorf("branch %s is not a draft of project %s: %w", draftBranchID, projectID, ErrInvalidState)
	}

	mainSet, err := s.headSnapshotSet(main)
	if err != nil {
		return nil, fmt.Errorf("loading main head: %w", err)
	}
	draftSet, err := s.headSnapshotSet(draft)
	if err != nil {
		return nil, fmt.Errorf("loading draft head: %w", err)
	}

	diff := DiffSnapshots(mainSet, draftSet)

	// Apply the draft's changes to main's working tree, then let the commit
	// engine materialize them as a single commit on main.
	for fileID, snap := range diff.Added {
		if err := s.applyToMainTree(main, fileID, snap); err != nil {
			return nil, err
		}
	}
	for fileID, snap := range diff.Modified {
		if err := s.applyToMainTree(main, fileID, snap); err != nil {
			return nil, err
		}
	}
	for fileID := range diff.Removed {
		wf, err := s.store.FindWorkingFile(main.ID, fileID)
		if err != nil {
			return nil, fmt.Errorf("finding working file: %w", err)
		}
		if wf != nil {
			if err := s.store.DeleteWorkingFile(main.ID, fileID); err != nil {
				return nil, fmt.Errorf("removing merged-away file: %w", err)
			}
		}
	}

	message := fmt.Sprintf("Merge draft of %s into main", authorUserID)
	commit, err := s.Commit(main.ID, authorUserID, message, CommitOptions{Source: model.SourceSystem})
	if err != nil {
		return nil, fmt.Errorf("creating merge commit: %w", err)
	}

	result := &MergeResult{
		MergeCommitID: commit.ID,
		FilesChanged:  diff.ChangedCount(),
	}

	s.logger.Info("draft merged",
		"project", projectID, "draft", draftBranchID, "commit", commit.ID, "changed", result.FilesChanged)
	return result, nil
}

// applyToMainTree writes one draft-side snapshot into main's working tree
// under the same logical identity, created on main if absent. If main tracks
// a different identity at the same placement, that row is replaced so the
// tree converges on the draft's identity.
func (s *Service) applyToMainTree(main *model.Branch, fileID string, snap *model.FileSnapshot) error {
	wf, err := s.store.FindWorkingFile(main.ID, fileID)
	if err != nil {
		return fmt.Errorf("finding working file: %w", err)
	}
	if wf == nil {
		placed, err := s.store.FindWorkingFileByPlacement(main.ID, snap.Name, snap.DocType, snap.FolderID)
		if err != nil {
			return fmt.Errorf("resolving placement on main: %w", err)
		}
		if placed != nil {
			if err := s.store.DeleteWorkingFile(main.ID, placed.ID); err != nil {
				return fmt.Errorf("replacing diverged identity: %w", err)
			}
		}
		wf = &model.WorkingFile{
			ID:        fileID,
			BranchID:  main.ID,
			ProjectID: main.ProjectID,
		}
	}

	wf.Name = snap.Name
	wf.DocType = snap.DocType
	wf.FolderID = snap.FolderID
	wf.ContentHash = snap.ContentHash
	wf.UpdatedAt = s.clock.Now()

	if err := s.store.UpsertWorkingFile(wf); err != nil {
		return fmt.Errorf("writing to main working tree: %w", err)
	}
	return nil
}

// headSnapshotSet loads the snapshot set of a branch's head commit, or an
// empty set for a branch with no commits yet.
func (s *Service) headSnapshotSet(branch *model.Branch) (SnapshotSet, error) {
	if branch.HeadCommitID == "" {
		return SnapshotSet{}, nil
	}
	rows, err := s.store.FindSnapshots(branch.HeadCommitID)
	if err != nil {
		return nil, err
	}
	set := NewSnapshotSet(rows)
	// Carried-forward deletions have no content hash and are not part of
	// the head state; keeping them would diff a deleted file as modified.
	for fileID, snap := range set {
		if snap.ContentHash == "" {
			delete(set, fileID)
		}
	}
	return set, nil
}
