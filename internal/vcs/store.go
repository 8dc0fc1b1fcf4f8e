package vcs

import (
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// Store provides an interface for metadata storage operations.
// Find methods return (nil, nil) when the row does not exist; multi-step
// write methods must be implemented as a single transaction.
type Store interface {
	// Branch operations

	// CreateBranch creates a new branch row.
	CreateBranch(b *model.Branch) error

	// FindBranchByID returns a branch by its id.
	FindBranchByID(id string) (*model.Branch, error)

	// FindMainBranch returns the project's main branch.
	FindMainBranch(projectID string) (*model.Branch, error)

	// FindDraftBranch returns the draft branch owned by userID, if any.
	FindDraftBranch(projectID, userID string) (*model.Branch, error)

	// ListBranches returns all branches of a project.
	ListBranches(projectID string) ([]*model.Branch, error)

	// Working tree operations

	// FindWorkingFile returns the branch's row for a logical file identity.
	FindWorkingFile(branchID, fileID string) (*model.WorkingFile, error)

	// FindWorkingFileByPlacement resolves a working file by its placement
	// key: (branch, name, docType, folder).
	FindWorkingFileByPlacement(branchID, name string, docType model.DocType, folderID string) (*model.WorkingFile, error)

	// FindFileIdentity returns the logical identity already assigned to a
	// placement key on any branch of the project, preferring main, or ""
	// when the placement has never been tracked.
	FindFileIdentity(projectID, name string, docType model.DocType, folderID string) (string, error)

	// FindFileBranch returns the id of the branch whose working tree holds
	// the file, preferring main, or "" when no branch tracks it.
	FindFileBranch(projectID, fileID string) (string, error)

	// FindFileHistoryBranch returns the branch of the newest commit whose
	// snapshot set contains the file, or "" when the file was never
	// committed. Used when no working tree tracks the file anymore.
	FindFileHistoryBranch(projectID, fileID string) (string, error)

	// UpsertWorkingFile inserts the row or overwrites it in place by
	// (branch, id).
	UpsertWorkingFile(wf *model.WorkingFile) error

	// ListWorkingFiles returns the branch's tracked files, name order.
	ListWorkingFiles(branchID string) ([]*model.WorkingFile, error)

	// DeleteWorkingFile removes a tracked file from a branch's working tree.
	DeleteWorkingFile(branchID, fileID string) error

	// Commit operations

	// CreateCommit persists the commit row and all of its snapshots and
	// advances the branch head from expectedHeadID to the new commit, all in
	// one transaction. Returns an error wrapping ErrConflict when the branch
	// head no longer equals expectedHeadID.
	CreateCommit(commit *model.Commit, snapshots []*model.FileSnapshot, expectedHeadID string) error

	// FindCommitByID returns a commit by id.
	FindCommitByID(id string) (*model.Commit, error)

	// ListCommitsByBranch returns the branch's commits, newest first.
	ListCommitsByBranch(branchID string) ([]*model.Commit, error)

	// FindSnapshots returns all snapshots of a commit, name order.
	FindSnapshots(commitID string) ([]*model.FileSnapshot, error)

	// FindSnapshotForFile returns the snapshot of one file in one commit.
	FindSnapshotForFile(commitID, fileID string) (*model.FileSnapshot, error)

	// ListFileCommits returns commits on the branch whose snapshot for
	// fileID has a change type other than unchanged, newest first.
	// limit <= 0 returns all.
	ListFileCommits(branchID, fileID string, limit int) ([]*model.Commit, error)

	// CountVersionedFileCommits returns how many of those commits have a
	// non-auto source, i.e. are eligible for a version number.
	CountVersionedFileCommits(branchID, fileID string) (int, error)

	// Version cache operations

	// ListFileVersions returns the cached version rows, oldest first.
	ListFileVersions(projectID, fileID string) ([]*model.FileVersion, error)

	// CountFileVersions returns the number of cached rows for the file.
	CountFileVersions(projectID, fileID string) (int, error)

	// HasFileVersion reports whether a cache row exists for the commit.
	HasFileVersion(projectID, fileID, commitID string) (bool, error)

	// ReplaceFileVersions deletes all cache rows for (project, file) and
	// inserts the given rows in one transaction.
	ReplaceFileVersions(projectID, fileID string, rows []*model.FileVersion) error

	// Content operations (metadata rows; bytes live in the vault)

	// CreateContent records a content row. Inserting an already-known hash
	// is a no-op: the dedup lookup is advisory and needs no locking.
	CreateContent(c *model.Content) error

	// FindContentByHash returns content metadata by plaintext checksum.
	FindContentByHash(hash string) (*model.Content, error)

	// Live project file/folder operations

	// ListProjectFiles returns the project's live editable documents.
	ListProjectFiles(projectID string) ([]*model.ProjectFile, error)

	// FindProjectFileByID returns a live document by id.
	FindProjectFileByID(id string) (*model.ProjectFile, error)

	// UpsertProjectFile inserts or overwrites a live document row.
	UpsertProjectFile(f *model.ProjectFile) error

	// DeleteProjectFile removes a live document row.
	DeleteProjectFile(id string) error

	// CreateProjectFolder creates a folder node.
	CreateProjectFolder(f *model.ProjectFolder) error

	// ListProjectFolders returns all folder nodes of a project.
	ListProjectFolders(projectID string) ([]*model.ProjectFolder, error)

	// Project teardown

	// DeleteProject removes every row belonging to the project in one
	// transaction: versions, snapshots, commits, working files, branches,
	// live files, then folders in the given order (children before parents).
	// This is the only deletion path for commit rows.
	DeleteProject(projectID string, folderIDsInDeleteOrder []string) error

	// Close closes the underlying connection.
	Close() error
}
