package app

import (
	"testing"
	"time"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/config"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := config.NewConfig(t.TempDir())
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Vault = config.VaultConfig{Type: "memory"}
	cfg.Encryption = config.EncryptionConfig{Type: "none"}
	cfg.LogDir = t.TempDir()

	a, err := NewApp(cfg, "Test")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApp_InitProject(t *testing.T) {
	a := newTestApp(t)

	draft, err := a.InitProject("proj-1", "user-1")
	if err != nil {
		t.Fatalf("InitProject() error = %v", err)
	}
	if draft.Kind != model.BranchDraft {
		t.Errorf("Kind = %q, want draft", draft.Kind)
	}
	if draft.OwnerUserID != "user-1" {
		t.Errorf("OwnerUserID = %q, want user-1", draft.OwnerUserID)
	}

	// Idempotent: same draft comes back.
	again, err := a.InitProject("proj-1", "user-1")
	if err != nil {
		t.Fatalf("second InitProject() error = %v", err)
	}
	if again.ID != draft.ID {
		t.Errorf("second InitProject() draft = %s, want %s", again.ID, draft.ID)
	}
}

func TestApp_CommitAndPublish(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.InitProject("proj-1", "user-1"); err != nil {
		t.Fatalf("InitProject() error = %v", err)
	}

	err := a.SaveLiveFile(&model.ProjectFile{
		ID:        "doc-1",
		ProjectID: "proj-1",
		Name:      "order-process.bpmn",
		DocType:   model.DocBpmn,
		UpdatedAt: time.Now(),
	}, []byte("<bpmn:definitions/>"))
	if err != nil {
		t.Fatalf("SaveLiveFile() error = %v", err)
	}

	commit, err := a.CommitDraft("proj-1", "user-1", "first commit")
	if err != nil {
		t.Fatalf("CommitDraft() error = %v", err)
	}
	if commit.Message != "first commit" {
		t.Errorf("Message = %q, want %q", commit.Message, "first commit")
	}
	if commit.Source != model.SourceManual {
		t.Errorf("Source = %q, want manual", commit.Source)
	}

	result, err := a.Publish("proj-1", "user-1")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if result.FilesChanged != 1 {
		t.Errorf("FilesChanged = %d, want 1", result.FilesChanged)
	}

	// Main history now holds the merge commit.
	mainLog, err := a.Log("proj-1", "")
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if len(mainLog) != 1 {
		t.Fatalf("len(mainLog) = %d, want 1", len(mainLog))
	}
	if mainLog[0].ID != result.MergeCommitID {
		t.Errorf("head commit = %s, want %s", mainLog[0].ID, result.MergeCommitID)
	}
}

func TestApp_Uncommitted(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.InitProject("proj-1", "user-1"); err != nil {
		t.Fatalf("InitProject() error = %v", err)
	}

	err := a.SaveLiveFile(&model.ProjectFile{
		ID:        "doc-1",
		ProjectID: "proj-1",
		Name:      "rates.dmn",
		DocType:   model.DocDmn,
		UpdatedAt: time.Now(),
	}, []byte("<dmn:definitions/>"))
	if err != nil {
		t.Fatalf("SaveLiveFile() error = %v", err)
	}

	// Without a baseline everything counts as uncommitted.
	changes, err := a.Uncommitted("proj-1", "")
	if err != nil {
		t.Fatalf("Uncommitted() error = %v", err)
	}
	if len(changes.FileIDs) != 1 {
		t.Errorf("len(FileIDs) = %d, want 1", len(changes.FileIDs))
	}

	commit, err := a.CommitDraft("proj-1", "user-1", "checkpoint")
	if err != nil {
		t.Fatalf("CommitDraft() error = %v", err)
	}

	changes, err = a.Uncommitted("proj-1", commit.ID)
	if err != nil {
		t.Fatalf("Uncommitted() after commit error = %v", err)
	}
	if len(changes.FileIDs) != 0 {
		t.Errorf("len(FileIDs) after commit = %d, want 0", len(changes.FileIDs))
	}
}

func TestApp_DeleteProject(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.InitProject("proj-1", "user-1"); err != nil {
		t.Fatalf("InitProject() error = %v", err)
	}
	if _, err := a.CommitDraft("proj-1", "user-1", "empty"); err != nil {
		t.Fatalf("CommitDraft() error = %v", err)
	}

	if err := a.DeleteProject("proj-1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	if _, err := a.Log("proj-1", ""); err == nil {
		t.Error("Log() after delete expected error, got nil")
	}
}
