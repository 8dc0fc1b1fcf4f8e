package vcs

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// CommitOptions qualify how a commit was triggered.
type CommitOptions struct {
	Source   model.CommitSource // defaults to SourceManual
	IsRemote bool
}

// Commit snapshots the branch's working tree as a new immutable commit and
// advances the branch head.
//
// Every file present in either the parent snapshot set or the working tree
// gets a snapshot row, including unchanged ones: full-snapshot semantics
// keep restore O(1) and diffing deterministic without walking history.
// An all-unchanged (or empty) commit is valid checkpoint semantics, not an
// error. The head advance is a compare-and-swap against the head observed
// here; a concurrent commit surfaces as ErrConflict and the caller retries
// with a fresh read.
func (s *Service) Commit(branchID, authorUserID, message string, opts CommitOptions) (*model.Commit, error) {
	branch, err := s.store.FindBranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("finding branch: %w", err)
	}
	if branch == nil {
		return nil, fmt.Errorf("branch %s: %w", branchID, ErrNotFound)
	}

	parent := SnapshotSet{}
	if branch.HeadCommitID != "" {
		rows, err := s.store.FindSnapshots(branch.HeadCommitID)
		if err != nil {
			return nil, fmt.Errorf("loading parent snapshots: %w", err)
		}
		parent = NewSnapshotSet(rows)
	}

	working, err := s.store.ListWorkingFiles(branchID)
	if err != nil {
		return nil, fmt.Errorf("loading working tree: %w", err)
	}

	source := opts.Source
	if source == "" {
		source = model.SourceManual
	}

	commit := &model.Commit{
		ID:             s.idgen.New(),
		ProjectID:      branch.ProjectID,
		BranchID:       branchID,
		ParentCommitID: branch.HeadCommitID,
		AuthorUserID:   authorUserID,
		Message:        message,
		Source:         source,
		IsRemote:       opts.IsRemote,
		CreatedAt:      s.clock.Now(),
	}

	snapshots := s.buildSnapshots(commit.ID, parent, working)
	commit.SetDigest = snapshotSetDigest(snapshots)

	if err := s.store.CreateCommit(commit, snapshots, branch.HeadCommitID); err != nil {
		return nil, fmt.Errorf("persisting commit: %w", err)
	}

	s.logger.Info("commit created",
		"branch", branchID, "commit", commit.ID, "source", string(source), "files", len(snapshots))
	return commit, nil
}

// buildSnapshots produces one snapshot row per file in the union of the
// parent set and the working tree, classified against the parent by content
// hash.
func (s *Service) buildSnapshots(commitID string, parent SnapshotSet, working []*model.WorkingFile) []*model.FileSnapshot {
	var snapshots []*model.FileSnapshot

	inWorking := make(map[string]bool, len(working))
	for _, wf := range working {
		inWorking[wf.ID] = true

		change := model.ChangeAdded
		if old, ok := parent[wf.ID]; ok {
			if old.ContentHash == wf.ContentHash {
				change = model.ChangeUnchanged
			} else {
				change = model.ChangeModified
			}
		}

		snapshots = append(snapshots, &model.FileSnapshot{
			ID:          s.idgen.New(),
			CommitID:    commitID,
			FileID:      wf.ID,
			Name:        wf.Name,
			DocType:     wf.DocType,
			FolderID:    wf.FolderID,
			ContentHash: wf.ContentHash,
			ChangeType:  change,
		})
	}

	for fileID, old := range parent {
		if inWorking[fileID] {
			continue
		}
		// In the parent, gone from the tree: carried forward as deleted so
		// the identity is never silently dropped from the snapshot set.
		snapshots = append(snapshots, &model.FileSnapshot{
			ID:         s.idgen.New(),
			CommitID:   commitID,
			FileID:     fileID,
			Name:       old.Name,
			DocType:    old.DocType,
			FolderID:   old.FolderID,
			ChangeType: model.ChangeDeleted,
		})
	}

	return snapshots
}

// snapshotSetDigest computes a digest over the ordered snapshot set.
// Ordering by file identity makes the digest deterministic regardless of
// row insertion order.
func snapshotSetDigest(snapshots []*model.FileSnapshot) string {
	ordered := append([]*model.FileSnapshot(nil), snapshots...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].FileID < ordered[j].FileID })

	h := xxh3.New()
	for _, snap := range ordered {
		h.WriteString(snap.FileID)
		h.WriteString("\x00")
		h.WriteString(snap.ContentHash)
		h.WriteString("\x00")
		h.WriteString(string(snap.ChangeType))
		h.WriteString("\x1e")
	}
	return fmt.Sprintf("%032x", h.Sum128().Bytes())
}

// CommitSnapshots returns a commit's full snapshot set. Read-only: used by
// the restore flow for both preview and apply.
func (s *Service) CommitSnapshots(commitID string) ([]*model.FileSnapshot, error) {
	commit, err := s.store.FindCommitByID(commitID)
	if err != nil {
		return nil, fmt.Errorf("finding commit: %w", err)
	}
	if commit == nil {
		return nil, fmt.Errorf("commit %s: %w", commitID, ErrNotFound)
	}
	snapshots, err := s.store.FindSnapshots(commitID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	return snapshots, nil
}

// Log returns a branch's commits, newest first.
func (s *Service) Log(branchID string) ([]*model.Commit, error) {
	branch, err := s.store.FindBranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("finding branch: %w", err)
	}
	if branch == nil {
		return nil, fmt.Errorf("branch %s: %w", branchID, ErrNotFound)
	}
	commits, err := s.store.ListCommitsByBranch(branchID)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	return commits, nil
}
