package vcs

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// SnapshotSet is a commit's snapshot set keyed by working-tree file identity.
type SnapshotSet map[string]*model.FileSnapshot

// NewSnapshotSet builds a SnapshotSet from snapshot rows.
func NewSnapshotSet(snapshots []*model.FileSnapshot) SnapshotSet {
	set := make(SnapshotSet, len(snapshots))
	for _, snap := range snapshots {
		set[snap.FileID] = snap
	}
	return set
}

// SnapshotDiff is the classified difference between two snapshot sets,
// keyed by file identity. Entries in Removed come from the base set; all
// other entries come from the target set.
type SnapshotDiff struct {
	Added     map[string]*model.FileSnapshot
	Modified  map[string]*model.FileSnapshot
	Removed   map[string]*model.FileSnapshot
	Unchanged map[string]*model.FileSnapshot
}

// ChangedCount returns the number of non-unchanged entries.
func (d *SnapshotDiff) ChangedCount() int {
	return len(d.Added) + len(d.Modified) + len(d.Removed)
}

// ChangeFor returns the classification of one file in the diff.
func (d *SnapshotDiff) ChangeFor(fileID string) model.ChangeType {
	switch {
	case d.Added[fileID] != nil:
		return model.ChangeAdded
	case d.Modified[fileID] != nil:
		return model.ChangeModified
	case d.Removed[fileID] != nil:
		return model.ChangeDeleted
	default:
		return model.ChangeUnchanged
	}
}

// DiffSnapshots classifies target against base. Comparison is by content
// hash, not byte equality, so re-serialized but identical XML stays
// unchanged. Pure function: no storage access beyond the two input sets.
func DiffSnapshots(base, target SnapshotSet) *SnapshotDiff {
	d := &SnapshotDiff{
		Added:     make(map[string]*model.FileSnapshot),
		Modified:  make(map[string]*model.FileSnapshot),
		Removed:   make(map[string]*model.FileSnapshot),
		Unchanged: make(map[string]*model.FileSnapshot),
	}

	for fileID, snap := range target {
		old, ok := base[fileID]
		switch {
		case !ok:
			d.Added[fileID] = snap
		case old.ContentHash != snap.ContentHash:
			d.Modified[fileID] = snap
		default:
			d.Unchanged[fileID] = snap
		}
	}

	for fileID, snap := range base {
		if _, ok := target[fileID]; !ok {
			d.Removed[fileID] = snap
		}
	}

	return d
}

// UncommittedOptions controls UncommittedIDs.
type UncommittedOptions struct {
	// BaselineCommitID is the commit to diff the live file set against.
	// Empty means the project has never been committed.
	BaselineCommitID string

	// TreatNoBaselineAsAll makes every live file count as uncommitted when
	// there is no baseline, instead of reporting no changes.
	TreatNoBaselineAsAll bool
}

// UncommittedChanges identifies the live files and containing folders with
// changes relative to a baseline commit.
type UncommittedChanges struct {
	FileIDs   []string
	FolderIDs []string
}

// UncommittedIDs compares the project's live editable file set against the
// snapshot set of the baseline commit. Read-only and safe to call
// concurrently with commits: both sides are point-in-time reads and
// staleness is resolved by the caller re-polling.
func (s *Service) UncommittedIDs(projectID string, opts UncommittedOptions) (*UncommittedChanges, error) {
	live, err := s.store.ListProjectFiles(projectID)
	if err != nil {
		return nil, fmt.Errorf("listing live files: %w", err)
	}

	if opts.BaselineCommitID == "" {
		if !opts.TreatNoBaselineAsAll {
			return &UncommittedChanges{}, nil
		}
		return s.collectChanges(projectID, live), nil
	}

	snapshots, err := s.store.FindSnapshots(opts.BaselineCommitID)
	if err != nil {
		return nil, fmt.Errorf("loading baseline snapshots: %w", err)
	}

	// Snapshots are keyed by working-tree identity, live files by their own
	// row id. Both sides are matched on the placement key instead.
	baseline := make(map[string]*model.FileSnapshot, len(snapshots))
	for _, snap := range snapshots {
		if snap.ContentHash == "" {
			continue // deleted in baseline
		}
		baseline[placementKey(snap.Name, snap.DocType, snap.FolderID)] = snap
	}

	var changed []*model.ProjectFile
	for _, f := range live {
		snap, ok := baseline[placementKey(f.Name, f.DocType, f.FolderID)]
		if !ok || snap.ContentHash != f.ContentHash {
			changed = append(changed, f)
		}
	}

	return s.collectChanges(projectID, changed), nil
}

func placementKey(name string, docType model.DocType, folderID string) string {
	return name + "\x00" + string(docType) + "\x00" + folderID
}

// collectChanges assembles the result set: the changed file ids plus every
// folder on the path from a changed file up to the project root. Ancestors
// are walked with an explicit worklist and a seen set, so a corrupted
// parent chain cannot loop.
func (s *Service) collectChanges(projectID string, files []*model.ProjectFile) *UncommittedChanges {
	out := &UncommittedChanges{}
	if len(files) == 0 {
		return out
	}

	folders, err := s.store.ListProjectFolders(projectID)
	if err != nil {
		// Folder resolution is best-effort; the file ids are the answer.
		s.logger.Warn("listing folders for uncommitted set", "project", projectID, "error", err)
		folders = nil
	}
	parent := make(map[string]string, len(folders))
	for _, f := range folders {
		parent[f.ID] = f.ParentID
	}

	seen := make(map[string]bool)
	var work []string
	for _, f := range files {
		out.FileIDs = append(out.FileIDs, f.ID)
		if f.FolderID != "" {
			work = append(work, f.FolderID)
		}
	}

	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out.FolderIDs = append(out.FolderIDs, id)
		work = append(work, parent[id])
	}

	return out
}

// LastCommitForFile walks the owning branch's commit chain newest-first and
// returns the first commit whose snapshot for fileID records an actual
// change. Returns nil when no commit touched the file.
func (s *Service) LastCommitForFile(projectID, fileID string) (*model.Commit, error) {
	branchID, err := s.owningBranchID(projectID, fileID)
	if err != nil {
		return nil, err
	}

	branch, err := s.store.FindBranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("finding branch: %w", err)
	}
	if branch == nil || branch.HeadCommitID == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	next := branch.HeadCommitID
	for next != "" {
		if seen[next] {
			return nil, fmt.Errorf("commit chain contains a cycle at %s", next)
		}
		seen[next] = true

		commit, err := s.store.FindCommitByID(next)
		if err != nil {
			return nil, fmt.Errorf("loading commit %s: %w", next, err)
		}
		if commit == nil {
			return nil, fmt.Errorf("commit %s: %w", next, ErrNotFound)
		}

		snap, err := s.store.FindSnapshotForFile(commit.ID, fileID)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		if snap != nil && snap.ChangeType != model.ChangeUnchanged {
			return commit, nil
		}

		next = commit.ParentCommitID
	}

	return nil, nil
}

// owningBranchID resolves which branch's chain tracks the file: the branch
// whose working tree holds it (main preferred), then the branch of the
// newest commit that snapshotted it, then the project's main branch. A file
// deleted from every working tree still has history on the branch that last
// committed it.
func (s *Service) owningBranchID(projectID, fileID string) (string, error) {
	branchID, err := s.store.FindFileBranch(projectID, fileID)
	if err != nil {
		return "", fmt.Errorf("finding file branch: %w", err)
	}
	if branchID != "" {
		return branchID, nil
	}

	branchID, err = s.store.FindFileHistoryBranch(projectID, fileID)
	if err != nil {
		return "", fmt.Errorf("finding file history branch: %w", err)
	}
	if branchID != "" {
		return branchID, nil
	}

	main, err := s.store.FindMainBranch(projectID)
	if err != nil {
		return "", fmt.Errorf("finding main branch: %w", err)
	}
	if main == nil {
		return "", fmt.Errorf("version control is not initialized for project %s: %w", projectID, ErrInvalidState)
	}
	return main.ID, nil
}
