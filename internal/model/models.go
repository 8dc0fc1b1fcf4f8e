package model

import "time"

// BranchKind distinguishes the canonical main branch from per-user drafts.
type BranchKind string

const (
	BranchMain  BranchKind = "main"
	BranchDraft BranchKind = "draft"
)

// DocType identifies the kind of process-definition document a file holds.
type DocType string

const (
	DocBpmn DocType = "bpmn"
	DocDmn  DocType = "dmn"
)

// ChangeType classifies a file snapshot relative to the parent commit.
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeModified  ChangeType = "modified"
	ChangeDeleted   ChangeType = "deleted"
	ChangeUnchanged ChangeType = "unchanged"
)

// CommitSource records what triggered a commit. It is set once at commit
// creation; intent is never inferred from message text afterwards.
type CommitSource string

const (
	SourceManual   CommitSource = "manual"
	SourceSyncPush CommitSource = "sync_push"
	SourceSyncPull CommitSource = "sync_pull"
	SourceDeploy   CommitSource = "deploy"
	SourceSystem   CommitSource = "system"
	SourceRestore  CommitSource = "restore"
)

// IsAuto reports whether commits with this source are machine-generated
// checkpoints. Auto commits never receive a user-facing version number and
// are hidden from file-level history by default.
func (s CommitSource) IsAuto() bool {
	switch s {
	case SourceSystem, SourceSyncPush, SourceSyncPull:
		return true
	}
	return false
}

// Content represents content-addressable XML data.
// The Hash is the SHA-256 checksum of the plaintext content itself.
type Content struct {
	Hash          string // SHA-256 checksum (not a UUID)
	EncryptedHash string // checksum of the ciphertext blob; empty when stored in plaintext
	Size          int64
	CreatedAt     time.Time
}

// Branch is a named, independently advancing commit chain.
// Exactly one main branch exists per project; at most one draft per
// (project, user). HeadCommitID is empty only before the first commit.
type Branch struct {
	ID           string // UUID
	ProjectID    string
	Kind         BranchKind
	OwnerUserID  string // draft branches only
	HeadCommitID string
	CreatedAt    time.Time
}

// Commit is an immutable, full snapshot of all tracked files at a point in
// time. Append-only: never mutated or deleted except by whole-project
// teardown.
type Commit struct {
	ID             string // UUID
	ProjectID      string
	BranchID       string
	ParentCommitID string // empty only for a branch's first commit
	AuthorUserID   string
	Message        string
	SetDigest      string // digest over the ordered snapshot set
	Source         CommitSource
	IsRemote       bool
	CreatedAt      time.Time
}

// FileSnapshot is a commit's per-file record: one row per tracked file per
// commit, a full snapshot rather than a delta. FileID is the working-tree
// identity, stable across edits and commits.
type FileSnapshot struct {
	ID          string // UUID
	CommitID    string
	FileID      string
	Name        string
	DocType     DocType
	FolderID    string
	ContentHash string // empty when the file is deleted
	ChangeType  ChangeType
}

// WorkingFile is the mutable staging state of one tracked file on a branch.
// Overwritten in place on every save; only commits are versioned. ID is the
// logical file identity: stable across edits and shared across branches, so
// snapshots of the same tracked file link across commits and merges.
type WorkingFile struct {
	ID          string // UUID, logical file identity (not the live-editor row id)
	BranchID    string
	ProjectID   string
	Name        string
	DocType     DocType
	FolderID    string
	ContentHash string
	UpdatedAt   time.Time
}

// FileVersion is a derived cache row mapping (file, commit) to a dense
// human-facing version number over non-auto commits, oldest first.
// Always safe to delete and regenerate.
type FileVersion struct {
	ProjectID     string
	FileID        string
	CommitID      string
	VersionNumber int
	CreatedAt     time.Time
}

// ProjectFile is a live editable document owned by the editor, outside any
// branch. The VCS reads these to compute uncommitted diffs and writes them
// back on restore.
type ProjectFile struct {
	ID          string // UUID
	ProjectID   string
	FolderID    string
	Name        string
	DocType     DocType
	ContentHash string
	UpdatedAt   time.Time
}

// ProjectFolder is a node in the live folder tree.
type ProjectFolder struct {
	ID        string // UUID
	ProjectID string
	ParentID  string // empty for root-level folders
	Name      string
}
