package database

import (
	"errors"
	"testing"
	"time"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// newTestStore creates a new in-memory store with schema applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if _, err := store.db.Exec(Schema); err != nil {
		store.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mustCreateBranch(t *testing.T, store *SQLiteStore, b *model.Branch) {
	t.Helper()
	if err := store.CreateBranch(b); err != nil {
		t.Fatalf("CreateBranch(%s) error = %v", b.ID, err)
	}
}

func mainBranch(projectID string) *model.Branch {
	return &model.Branch{
		ID:        "branch-main-" + projectID,
		ProjectID: projectID,
		Kind:      model.BranchMain,
		CreatedAt: testTime,
	}
}

func draftBranch(projectID, userID string) *model.Branch {
	return &model.Branch{
		ID:          "branch-draft-" + projectID + "-" + userID,
		ProjectID:   projectID,
		Kind:        model.BranchDraft,
		OwnerUserID: userID,
		CreatedAt:   testTime,
	}
}

func TestSQLiteStore_Branches(t *testing.T) {
	t.Run("FindMainBranch returns nil when missing", func(t *testing.T) {
		store := newTestStore(t)

		b, err := store.FindMainBranch("proj-1")
		if err != nil {
			t.Fatalf("FindMainBranch() error = %v", err)
		}
		if b != nil {
			t.Errorf("FindMainBranch() = %v, want nil", b)
		}
	})

	t.Run("finds created branches", func(t *testing.T) {
		store := newTestStore(t)
		mustCreateBranch(t, store, mainBranch("proj-1"))
		mustCreateBranch(t, store, draftBranch("proj-1", "user-1"))

		main, err := store.FindMainBranch("proj-1")
		if err != nil {
			t.Fatalf("FindMainBranch() error = %v", err)
		}
		if main == nil || main.Kind != model.BranchMain {
			t.Fatalf("FindMainBranch() = %v, want main branch", main)
		}
		if main.HeadCommitID != "" {
			t.Errorf("HeadCommitID = %q, want empty before first commit", main.HeadCommitID)
		}

		draft, err := store.FindDraftBranch("proj-1", "user-1")
		if err != nil {
			t.Fatalf("FindDraftBranch() error = %v", err)
		}
		if draft == nil || draft.OwnerUserID != "user-1" {
			t.Fatalf("FindDraftBranch() = %v, want user-1 draft", draft)
		}

		other, err := store.FindDraftBranch("proj-1", "user-2")
		if err != nil {
			t.Fatalf("FindDraftBranch(user-2) error = %v", err)
		}
		if other != nil {
			t.Errorf("FindDraftBranch(user-2) = %v, want nil", other)
		}
	})

	t.Run("second main branch is rejected", func(t *testing.T) {
		store := newTestStore(t)
		mustCreateBranch(t, store, mainBranch("proj-1"))

		err := store.CreateBranch(&model.Branch{
			ID:        "branch-main-2",
			ProjectID: "proj-1",
			Kind:      model.BranchMain,
			CreatedAt: testTime,
		})
		if err == nil {
			t.Error("CreateBranch() expected error for second main branch, got nil")
		}
	})

	t.Run("ListBranches returns all branches of the project", func(t *testing.T) {
		store := newTestStore(t)
		mustCreateBranch(t, store, mainBranch("proj-1"))
		mustCreateBranch(t, store, draftBranch("proj-1", "user-1"))
		mustCreateBranch(t, store, mainBranch("proj-2"))

		branches, err := store.ListBranches("proj-1")
		if err != nil {
			t.Fatalf("ListBranches() error = %v", err)
		}
		if len(branches) != 2 {
			t.Errorf("len(branches) = %d, want 2", len(branches))
		}
	})
}

func TestSQLiteStore_WorkingFiles(t *testing.T) {
	newFile := func(branchID, id string) *model.WorkingFile {
		return &model.WorkingFile{
			ID:          id,
			BranchID:    branchID,
			ProjectID:   "proj-1",
			Name:        "order-process.bpmn",
			DocType:     model.DocBpmn,
			ContentHash: "hash-1",
			UpdatedAt:   testTime,
		}
	}

	t.Run("upsert overwrites in place", func(t *testing.T) {
		store := newTestStore(t)
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, draft)

		wf := newFile(draft.ID, "file-1")
		if err := store.UpsertWorkingFile(wf); err != nil {
			t.Fatalf("UpsertWorkingFile() error = %v", err)
		}

		wf.ContentHash = "hash-2"
		if err := store.UpsertWorkingFile(wf); err != nil {
			t.Fatalf("second UpsertWorkingFile() error = %v", err)
		}

		got, err := store.FindWorkingFile(draft.ID, "file-1")
		if err != nil {
			t.Fatalf("FindWorkingFile() error = %v", err)
		}
		if got == nil || got.ContentHash != "hash-2" {
			t.Errorf("FindWorkingFile() = %v, want hash-2", got)
		}

		files, err := store.ListWorkingFiles(draft.ID)
		if err != nil {
			t.Fatalf("ListWorkingFiles() error = %v", err)
		}
		if len(files) != 1 {
			t.Errorf("len(files) = %d, want 1", len(files))
		}
	})

	t.Run("same identity can live on two branches", func(t *testing.T) {
		store := newTestStore(t)
		main := mainBranch("proj-1")
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, main)
		mustCreateBranch(t, store, draft)

		if err := store.UpsertWorkingFile(newFile(draft.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile(draft) error = %v", err)
		}
		if err := store.UpsertWorkingFile(newFile(main.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile(main) error = %v", err)
		}

		onMain, err := store.FindWorkingFile(main.ID, "file-1")
		if err != nil {
			t.Fatalf("FindWorkingFile(main) error = %v", err)
		}
		if onMain == nil {
			t.Fatal("FindWorkingFile(main) = nil, want row")
		}
	})

	t.Run("FindWorkingFileByPlacement matches folder including root", func(t *testing.T) {
		store := newTestStore(t)
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, draft)

		if err := store.UpsertWorkingFile(newFile(draft.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile() error = %v", err)
		}

		got, err := store.FindWorkingFileByPlacement(draft.ID, "order-process.bpmn", model.DocBpmn, "")
		if err != nil {
			t.Fatalf("FindWorkingFileByPlacement() error = %v", err)
		}
		if got == nil || got.ID != "file-1" {
			t.Errorf("FindWorkingFileByPlacement() = %v, want file-1", got)
		}

		miss, err := store.FindWorkingFileByPlacement(draft.ID, "order-process.bpmn", model.DocDmn, "")
		if err != nil {
			t.Fatalf("FindWorkingFileByPlacement(dmn) error = %v", err)
		}
		if miss != nil {
			t.Errorf("FindWorkingFileByPlacement(dmn) = %v, want nil", miss)
		}
	})

	t.Run("FindFileIdentity prefers main", func(t *testing.T) {
		store := newTestStore(t)
		main := mainBranch("proj-1")
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, main)
		mustCreateBranch(t, store, draft)

		if err := store.UpsertWorkingFile(newFile(main.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile(main) error = %v", err)
		}
		if err := store.UpsertWorkingFile(newFile(draft.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile(draft) error = %v", err)
		}

		id, err := store.FindFileIdentity("proj-1", "order-process.bpmn", model.DocBpmn, "")
		if err != nil {
			t.Fatalf("FindFileIdentity() error = %v", err)
		}
		if id != "file-1" {
			t.Errorf("FindFileIdentity() = %q, want file-1", id)
		}

		branchID, err := store.FindFileBranch("proj-1", "file-1")
		if err != nil {
			t.Fatalf("FindFileBranch() error = %v", err)
		}
		if branchID != main.ID {
			t.Errorf("FindFileBranch() = %q, want main branch %q", branchID, main.ID)
		}
	})

	t.Run("DeleteWorkingFile removes only the branch row", func(t *testing.T) {
		store := newTestStore(t)
		main := mainBranch("proj-1")
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, main)
		mustCreateBranch(t, store, draft)

		if err := store.UpsertWorkingFile(newFile(main.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile(main) error = %v", err)
		}
		if err := store.UpsertWorkingFile(newFile(draft.ID, "file-1")); err != nil {
			t.Fatalf("UpsertWorkingFile(draft) error = %v", err)
		}

		if err := store.DeleteWorkingFile(draft.ID, "file-1"); err != nil {
			t.Fatalf("DeleteWorkingFile() error = %v", err)
		}

		onDraft, err := store.FindWorkingFile(draft.ID, "file-1")
		if err != nil {
			t.Fatalf("FindWorkingFile(draft) error = %v", err)
		}
		if onDraft != nil {
			t.Errorf("FindWorkingFile(draft) = %v, want nil after delete", onDraft)
		}

		onMain, err := store.FindWorkingFile(main.ID, "file-1")
		if err != nil {
			t.Fatalf("FindWorkingFile(main) error = %v", err)
		}
		if onMain == nil {
			t.Error("FindWorkingFile(main) = nil, main row should survive")
		}
	})
}

func newCommit(id, branchID, parentID string, source model.CommitSource, at time.Time) *model.Commit {
	return &model.Commit{
		ID:             id,
		ProjectID:      "proj-1",
		BranchID:       branchID,
		ParentCommitID: parentID,
		AuthorUserID:   "user-1",
		Message:        "message for " + id,
		SetDigest:      "digest-" + id,
		Source:         source,
		CreatedAt:      at,
	}
}

func TestSQLiteStore_CreateCommit(t *testing.T) {
	t.Run("persists commit, snapshots and head in one step", func(t *testing.T) {
		store := newTestStore(t)
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, draft)

		commit := newCommit("commit-1", draft.ID, "", model.SourceManual, testTime)
		snaps := []*model.FileSnapshot{
			{ID: "snap-1", CommitID: "commit-1", FileID: "file-1", Name: "a.bpmn", DocType: model.DocBpmn, ContentHash: "hash-1", ChangeType: model.ChangeAdded},
		}

		if err := store.CreateCommit(commit, snaps, ""); err != nil {
			t.Fatalf("CreateCommit() error = %v", err)
		}

		got, err := store.FindCommitByID("commit-1")
		if err != nil {
			t.Fatalf("FindCommitByID() error = %v", err)
		}
		if got == nil || got.Source != model.SourceManual {
			t.Fatalf("FindCommitByID() = %v, want manual commit", got)
		}

		branch, err := store.FindBranchByID(draft.ID)
		if err != nil {
			t.Fatalf("FindBranchByID() error = %v", err)
		}
		if branch.HeadCommitID != "commit-1" {
			t.Errorf("HeadCommitID = %q, want commit-1", branch.HeadCommitID)
		}

		stored, err := store.FindSnapshots("commit-1")
		if err != nil {
			t.Fatalf("FindSnapshots() error = %v", err)
		}
		if len(stored) != 1 {
			t.Errorf("len(snapshots) = %d, want 1", len(stored))
		}
	})

	t.Run("stale expected head yields conflict and no rows", func(t *testing.T) {
		store := newTestStore(t)
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, draft)

		first := newCommit("commit-1", draft.ID, "", model.SourceManual, testTime)
		if err := store.CreateCommit(first, nil, ""); err != nil {
			t.Fatalf("CreateCommit(first) error = %v", err)
		}

		// Second writer read the head before the first commit landed.
		stale := newCommit("commit-2", draft.ID, "", model.SourceManual, testTime.Add(time.Second))
		err := store.CreateCommit(stale, nil, "")
		if !errors.Is(err, vcs.ErrConflict) {
			t.Fatalf("CreateCommit(stale) error = %v, want ErrConflict", err)
		}

		if got, _ := store.FindCommitByID("commit-2"); got != nil {
			t.Error("conflicting commit row was persisted, want rollback")
		}

		branch, _ := store.FindBranchByID(draft.ID)
		if branch.HeadCommitID != "commit-1" {
			t.Errorf("HeadCommitID = %q, want commit-1", branch.HeadCommitID)
		}

		// Retrying against the observed head succeeds.
		retry := newCommit("commit-3", draft.ID, "commit-1", model.SourceManual, testTime.Add(2*time.Second))
		if err := store.CreateCommit(retry, nil, "commit-1"); err != nil {
			t.Fatalf("CreateCommit(retry) error = %v", err)
		}
	})

	t.Run("duplicate snapshot per file is rejected", func(t *testing.T) {
		store := newTestStore(t)
		draft := draftBranch("proj-1", "user-1")
		mustCreateBranch(t, store, draft)

		commit := newCommit("commit-1", draft.ID, "", model.SourceManual, testTime)
		snaps := []*model.FileSnapshot{
			{ID: "snap-1", CommitID: "commit-1", FileID: "file-1", Name: "a.bpmn", DocType: model.DocBpmn, ContentHash: "h1", ChangeType: model.ChangeAdded},
			{ID: "snap-2", CommitID: "commit-1", FileID: "file-1", Name: "a.bpmn", DocType: model.DocBpmn, ContentHash: "h2", ChangeType: model.ChangeModified},
		}

		if err := store.CreateCommit(commit, snaps, ""); err == nil {
			t.Error("CreateCommit() expected error for duplicate file snapshot, got nil")
		}
	})
}

func TestSQLiteStore_CommitQueries(t *testing.T) {
	store := newTestStore(t)
	draft := draftBranch("proj-1", "user-1")
	mustCreateBranch(t, store, draft)

	snap := func(commitID string, change model.ChangeType) []*model.FileSnapshot {
		return []*model.FileSnapshot{
			{ID: "snap-" + commitID, CommitID: commitID, FileID: "file-1", Name: "a.bpmn", DocType: model.DocBpmn, ContentHash: "h-" + commitID, ChangeType: change},
		}
	}

	chain := []struct {
		id     string
		parent string
		source model.CommitSource
		change model.ChangeType
	}{
		{"commit-1", "", model.SourceManual, model.ChangeAdded},
		{"commit-2", "commit-1", model.SourceSystem, model.ChangeModified},
		{"commit-3", "commit-2", model.SourceManual, model.ChangeUnchanged},
		{"commit-4", "commit-3", model.SourceDeploy, model.ChangeModified},
	}
	for i, c := range chain {
		commit := newCommit(c.id, draft.ID, c.parent, c.source, testTime.Add(time.Duration(i)*time.Minute))
		if err := store.CreateCommit(commit, snap(c.id, c.change), c.parent); err != nil {
			t.Fatalf("CreateCommit(%s) error = %v", c.id, err)
		}
	}

	t.Run("ListCommitsByBranch is newest first", func(t *testing.T) {
		commits, err := store.ListCommitsByBranch(draft.ID)
		if err != nil {
			t.Fatalf("ListCommitsByBranch() error = %v", err)
		}
		if len(commits) != 4 {
			t.Fatalf("len(commits) = %d, want 4", len(commits))
		}
		if commits[0].ID != "commit-4" || commits[3].ID != "commit-1" {
			t.Errorf("order = [%s .. %s], want [commit-4 .. commit-1]", commits[0].ID, commits[3].ID)
		}
	})

	t.Run("ListFileCommits skips unchanged snapshots", func(t *testing.T) {
		commits, err := store.ListFileCommits(draft.ID, "file-1", 0)
		if err != nil {
			t.Fatalf("ListFileCommits() error = %v", err)
		}
		if len(commits) != 3 {
			t.Fatalf("len(commits) = %d, want 3 (commit-3 is unchanged)", len(commits))
		}
		if commits[0].ID != "commit-4" {
			t.Errorf("newest = %s, want commit-4", commits[0].ID)
		}
	})

	t.Run("ListFileCommits honors limit", func(t *testing.T) {
		commits, err := store.ListFileCommits(draft.ID, "file-1", 2)
		if err != nil {
			t.Fatalf("ListFileCommits() error = %v", err)
		}
		if len(commits) != 2 {
			t.Errorf("len(commits) = %d, want 2", len(commits))
		}
	})

	t.Run("CountVersionedFileCommits excludes auto sources", func(t *testing.T) {
		count, err := store.CountVersionedFileCommits(draft.ID, "file-1")
		if err != nil {
			t.Fatalf("CountVersionedFileCommits() error = %v", err)
		}
		// commit-1 (manual, added) and commit-4 (deploy, modified);
		// commit-2 is auto, commit-3 is unchanged.
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})

	t.Run("FindSnapshotForFile", func(t *testing.T) {
		got, err := store.FindSnapshotForFile("commit-2", "file-1")
		if err != nil {
			t.Fatalf("FindSnapshotForFile() error = %v", err)
		}
		if got == nil || got.ChangeType != model.ChangeModified {
			t.Errorf("FindSnapshotForFile() = %v, want modified snapshot", got)
		}

		miss, err := store.FindSnapshotForFile("commit-2", "file-9")
		if err != nil {
			t.Fatalf("FindSnapshotForFile(miss) error = %v", err)
		}
		if miss != nil {
			t.Errorf("FindSnapshotForFile(miss) = %v, want nil", miss)
		}
	})

	t.Run("FindFileHistoryBranch follows the newest snapshot", func(t *testing.T) {
		branchID, err := store.FindFileHistoryBranch("proj-1", "file-1")
		if err != nil {
			t.Fatalf("FindFileHistoryBranch() error = %v", err)
		}
		if branchID != draft.ID {
			t.Errorf("FindFileHistoryBranch() = %q, want %q", branchID, draft.ID)
		}

		never, err := store.FindFileHistoryBranch("proj-1", "file-9")
		if err != nil {
			t.Fatalf("FindFileHistoryBranch(never) error = %v", err)
		}
		if never != "" {
			t.Errorf("FindFileHistoryBranch(never) = %q, want empty", never)
		}
	})
}

func TestSQLiteStore_FileVersions(t *testing.T) {
	store := newTestStore(t)
	draft := draftBranch("proj-1", "user-1")
	mustCreateBranch(t, store, draft)

	if err := store.CreateCommit(newCommit("commit-1", draft.ID, "", model.SourceManual, testTime), nil, ""); err != nil {
		t.Fatalf("CreateCommit() error = %v", err)
	}
	if err := store.CreateCommit(newCommit("commit-2", draft.ID, "commit-1", model.SourceManual, testTime.Add(time.Minute)), nil, "commit-1"); err != nil {
		t.Fatalf("CreateCommit() error = %v", err)
	}

	rows := []*model.FileVersion{
		{ProjectID: "proj-1", FileID: "file-1", CommitID: "commit-1", VersionNumber: 1, CreatedAt: testTime},
		{ProjectID: "proj-1", FileID: "file-1", CommitID: "commit-2", VersionNumber: 2, CreatedAt: testTime.Add(time.Minute)},
	}
	if err := store.ReplaceFileVersions("proj-1", "file-1", rows); err != nil {
		t.Fatalf("ReplaceFileVersions() error = %v", err)
	}

	got, err := store.ListFileVersions("proj-1", "file-1")
	if err != nil {
		t.Fatalf("ListFileVersions() error = %v", err)
	}
	if len(got) != 2 || got[0].VersionNumber != 1 || got[1].VersionNumber != 2 {
		t.Fatalf("ListFileVersions() = %v, want versions 1,2 oldest first", got)
	}

	count, err := store.CountFileVersions("proj-1", "file-1")
	if err != nil {
		t.Fatalf("CountFileVersions() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountFileVersions() = %d, want 2", count)
	}

	has, err := store.HasFileVersion("proj-1", "file-1", "commit-2")
	if err != nil {
		t.Fatalf("HasFileVersion() error = %v", err)
	}
	if !has {
		t.Error("HasFileVersion(commit-2) = false, want true")
	}

	has, err = store.HasFileVersion("proj-1", "file-1", "commit-9")
	if err != nil {
		t.Fatalf("HasFileVersion(commit-9) error = %v", err)
	}
	if has {
		t.Error("HasFileVersion(commit-9) = true, want false")
	}

	// Replace drops the old rows entirely.
	if err := store.ReplaceFileVersions("proj-1", "file-1", rows[:1]); err != nil {
		t.Fatalf("second ReplaceFileVersions() error = %v", err)
	}
	count, _ = store.CountFileVersions("proj-1", "file-1")
	if count != 1 {
		t.Errorf("CountFileVersions() after replace = %d, want 1", count)
	}
}

func TestSQLiteStore_Contents(t *testing.T) {
	store := newTestStore(t)

	c := &model.Content{Hash: "hash-1", Size: 42, CreatedAt: testTime}
	if err := store.CreateContent(c); err != nil {
		t.Fatalf("CreateContent() error = %v", err)
	}
	// Duplicate insert is a no-op.
	if err := store.CreateContent(c); err != nil {
		t.Fatalf("second CreateContent() error = %v", err)
	}

	got, err := store.FindContentByHash("hash-1")
	if err != nil {
		t.Fatalf("FindContentByHash() error = %v", err)
	}
	if got == nil || got.Size != 42 {
		t.Errorf("FindContentByHash() = %v, want size 42", got)
	}

	miss, err := store.FindContentByHash("hash-9")
	if err != nil {
		t.Fatalf("FindContentByHash(miss) error = %v", err)
	}
	if miss != nil {
		t.Errorf("FindContentByHash(miss) = %v, want nil", miss)
	}
}

func TestSQLiteStore_ProjectFiles(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateContent(&model.Content{Hash: "hash-1", Size: 1, CreatedAt: testTime}); err != nil {
		t.Fatalf("CreateContent() error = %v", err)
	}

	folder := &model.ProjectFolder{ID: "folder-1", ProjectID: "proj-1", Name: "processes"}
	if err := store.CreateProjectFolder(folder); err != nil {
		t.Fatalf("CreateProjectFolder() error = %v", err)
	}

	f := &model.ProjectFile{
		ID:          "doc-1",
		ProjectID:   "proj-1",
		FolderID:    "folder-1",
		Name:        "order-process.bpmn",
		DocType:     model.DocBpmn,
		ContentHash: "hash-1",
		UpdatedAt:   testTime,
	}
	if err := store.UpsertProjectFile(f); err != nil {
		t.Fatalf("UpsertProjectFile() error = %v", err)
	}

	f.Name = "renamed.bpmn"
	if err := store.UpsertProjectFile(f); err != nil {
		t.Fatalf("second UpsertProjectFile() error = %v", err)
	}

	got, err := store.FindProjectFileByID("doc-1")
	if err != nil {
		t.Fatalf("FindProjectFileByID() error = %v", err)
	}
	if got == nil || got.Name != "renamed.bpmn" || got.FolderID != "folder-1" {
		t.Errorf("FindProjectFileByID() = %v, want renamed.bpmn in folder-1", got)
	}

	files, err := store.ListProjectFiles("proj-1")
	if err != nil {
		t.Fatalf("ListProjectFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("len(files) = %d, want 1", len(files))
	}

	folders, err := store.ListProjectFolders("proj-1")
	if err != nil {
		t.Fatalf("ListProjectFolders() error = %v", err)
	}
	if len(folders) != 1 {
		t.Errorf("len(folders) = %d, want 1", len(folders))
	}

	if err := store.DeleteProjectFile("doc-1"); err != nil {
		t.Fatalf("DeleteProjectFile() error = %v", err)
	}
	if got, _ := store.FindProjectFileByID("doc-1"); got != nil {
		t.Errorf("FindProjectFileByID() after delete = %v, want nil", got)
	}
}

func TestSQLiteStore_DeleteProject(t *testing.T) {
	store := newTestStore(t)

	main := mainBranch("proj-1")
	draft := draftBranch("proj-1", "user-1")
	mustCreateBranch(t, store, main)
	mustCreateBranch(t, store, draft)

	// Parent and child commit on the draft so teardown has to break the
	// self-referencing chain.
	snaps := []*model.FileSnapshot{
		{ID: "snap-1", CommitID: "commit-1", FileID: "file-1", Name: "a.bpmn", DocType: model.DocBpmn, ContentHash: "h1", ChangeType: model.ChangeAdded},
	}
	if err := store.CreateCommit(newCommit("commit-1", draft.ID, "", model.SourceManual, testTime), snaps, ""); err != nil {
		t.Fatalf("CreateCommit() error = %v", err)
	}
	if err := store.CreateCommit(newCommit("commit-2", draft.ID, "commit-1", model.SourceManual, testTime.Add(time.Minute)), nil, "commit-1"); err != nil {
		t.Fatalf("CreateCommit() error = %v", err)
	}

	if err := store.UpsertWorkingFile(&model.WorkingFile{
		ID: "file-1", BranchID: draft.ID, ProjectID: "proj-1",
		Name: "a.bpmn", DocType: model.DocBpmn, ContentHash: "h1", UpdatedAt: testTime,
	}); err != nil {
		t.Fatalf("UpsertWorkingFile() error = %v", err)
	}
	if err := store.ReplaceFileVersions("proj-1", "file-1", []*model.FileVersion{
		{ProjectID: "proj-1", FileID: "file-1", CommitID: "commit-1", VersionNumber: 1, CreatedAt: testTime},
	}); err != nil {
		t.Fatalf("ReplaceFileVersions() error = %v", err)
	}

	parent := &model.ProjectFolder{ID: "folder-1", ProjectID: "proj-1", Name: "root"}
	child := &model.ProjectFolder{ID: "folder-2", ProjectID: "proj-1", ParentID: "folder-1", Name: "sub"}
	if err := store.CreateProjectFolder(parent); err != nil {
		t.Fatalf("CreateProjectFolder(parent) error = %v", err)
	}
	if err := store.CreateProjectFolder(child); err != nil {
		t.Fatalf("CreateProjectFolder(child) error = %v", err)
	}

	// Children before parents.
	if err := store.DeleteProject("proj-1", []string{"folder-2", "folder-1"}); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	if b, _ := store.FindMainBranch("proj-1"); b != nil {
		t.Error("main branch survived DeleteProject")
	}
	if c, _ := store.FindCommitByID("commit-1"); c != nil {
		t.Error("commit survived DeleteProject")
	}
	if folders, _ := store.ListProjectFolders("proj-1"); len(folders) != 0 {
		t.Errorf("len(folders) = %d after DeleteProject, want 0", len(folders))
	}
	if count, _ := store.CountFileVersions("proj-1", "file-1"); count != 0 {
		t.Errorf("CountFileVersions() = %d after DeleteProject, want 0", count)
	}
}

func TestSQLiteStore_BackupTo(t *testing.T) {
	store := newTestStore(t)
	mustCreateBranch(t, store, mainBranch("proj-1"))

	dest := t.TempDir() + "/backup.db"
	if err := store.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	restored, err := NewSQLiteStore(dest)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer restored.Close()

	b, err := restored.FindMainBranch("proj-1")
	if err != nil {
		t.Fatalf("FindMainBranch() on backup error = %v", err)
	}
	if b == nil {
		t.Error("backup is missing the main branch row")
	}
}
