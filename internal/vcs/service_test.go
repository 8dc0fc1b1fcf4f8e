package vcs_test

import (
	"testing"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/testutil"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

type testEnv struct {
	svc   *vcs.Service
	store vcs.Store
	clock *testutil.StubClock
}

func newTestService(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewTestStore(t)
	clock := testutil.FixedClock()
	logger := vcs.NewNopLogger()
	contents := vcs.NewContentStore(store, testutil.NewTestVault(), nil, nil, clock, logger)
	svc := vcs.NewService(store, contents, logger, clock, testutil.NewStubIDGenerator())

	return &testEnv{svc: svc, store: store, clock: clock}
}

// initProject initializes the project and returns its main branch and the
// user's draft branch.
func initProject(t *testing.T, e *testEnv, projectID, userID string) (main, draft *model.Branch) {
	t.Helper()

	main, err := e.svc.EnsureInitialized(projectID, userID)
	if err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}
	draft, err = e.svc.EnsureDraft(projectID, userID)
	if err != nil {
		t.Fatalf("EnsureDraft() error = %v", err)
	}
	return main, draft
}

// saveFile writes an editor save into the branch's working tree at the
// project root.
func saveFile(t *testing.T, e *testEnv, branchID, name string, content []byte) *model.WorkingFile {
	t.Helper()

	wf, err := e.svc.UpsertFile(branchID, "", name, model.DocBpmn, "", content)
	if err != nil {
		t.Fatalf("UpsertFile(%s) error = %v", name, err)
	}
	return wf
}

// putLive creates or updates a live editor document backed by stored content.
func putLive(t *testing.T, e *testEnv, projectID, id, name string, content []byte) *model.ProjectFile {
	t.Helper()

	ref, err := e.svc.Contents().Put(content)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	f := &model.ProjectFile{
		ID:          id,
		ProjectID:   projectID,
		Name:        name,
		DocType:     model.DocBpmn,
		ContentHash: ref,
		UpdatedAt:   e.clock.Now(),
	}
	if err := e.store.UpsertProjectFile(f); err != nil {
		t.Fatalf("UpsertProjectFile(%s) error = %v", name, err)
	}
	return f
}

func mustCommit(t *testing.T, e *testEnv, branchID, userID, message string, opts vcs.CommitOptions) *model.Commit {
	t.Helper()

	commit, err := e.svc.Commit(branchID, userID, message, opts)
	if err != nil {
		t.Fatalf("Commit(%q) error = %v", message, err)
	}
	return commit
}
