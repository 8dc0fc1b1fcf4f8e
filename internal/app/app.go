package app

import (
	"fmt"
	"os"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/config"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/database"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/encryption"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vault"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// App is the application layer between the CLI and the versioning service.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the store lifecycle on Close.
type App struct {
	cfg       *config.Config
	store     vcs.Store
	vault     vcs.Vault
	encryptor vcs.Encryptor
	contents  *vcs.ContentStore
	service   *vcs.Service
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Commit", "Publish").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	sqlStore, ok := store.(*database.SQLiteStore)
	if !ok {
		store.Close()
		return nil, fmt.Errorf("unexpected store type %T", store)
	}

	if err := sqlStore.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	v, err := vault.NewVaultFromConfig(cfg.Vault, sqlStore.DB())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapted := &slogAdapter{l: logger}
	contents := vcs.NewContentStore(store, v, enc, nil, vcs.RealClock{}, adapted)
	svc := vcs.NewService(store, contents, adapted, vcs.RealClock{}, vcs.UUIDGenerator{})

	return &App{
		cfg:       cfg,
		store:     store,
		vault:     v,
		encryptor: enc,
		contents:  contents,
		service:   svc,
		logFile:   logFile,
	}, nil
}

// Service exposes the underlying versioning service.
func (a *App) Service() *vcs.Service { return a.service }

// SetupKeys performs one-time key generation for content encryption.
func (a *App) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is not configured")
	}
	if a.encryptor.IsConfigured() {
		return fmt.Errorf("keys already exist")
	}
	return a.encryptor.Setup(passphrase)
}

// Unlock verifies the passphrase against the private key and installs the
// decryption context for reads of encrypted content.
func (a *App) Unlock(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is not configured")
	}
	ctx, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}
	a.contents.SetDecryptionContext(ctx)
	return nil
}

// InitProject initializes version control for a project and opens a draft
// branch for the given user.
func (a *App) InitProject(projectID, userID string) (*model.Branch, error) {
	if _, err := a.service.EnsureInitialized(projectID, userID); err != nil {
		return nil, err
	}
	return a.service.EnsureDraft(projectID, userID)
}

// SaveLiveFile stores a live editable document: content goes to the content
// store, the document row is inserted or overwritten in place.
func (a *App) SaveLiveFile(f *model.ProjectFile, content []byte) error {
	hash, err := a.contents.Put(content)
	if err != nil {
		return fmt.Errorf("storing content: %w", err)
	}
	f.ContentHash = hash
	if err := a.store.UpsertProjectFile(f); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// DeleteProject removes the project's entire version history.
func (a *App) DeleteProject(projectID string) error {
	return a.service.DeleteProject(projectID)
}

// CommitDraft snapshots the user's live documents onto their draft branch.
// A concurrent head advance is retried once against the new head.
func (a *App) CommitDraft(projectID, userID, message string) (*model.Commit, error) {
	draft, err := a.service.EnsureDraft(projectID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := a.service.SeedFromLive(projectID, draft.ID); err != nil {
		return nil, err
	}

	var commit *model.Commit
	err = retryOnConflict(func() error {
		var err error
		commit, err = a.service.Commit(draft.ID, userID, message, vcs.CommitOptions{
			Source: model.SourceManual,
		})
		return err
	})
	return commit, err
}

// Publish merges the user's draft branch into main.
func (a *App) Publish(projectID, userID string) (*vcs.MergeResult, error) {
	draft, err := a.service.EnsureDraft(projectID, userID)
	if err != nil {
		return nil, err
	}

	var result *vcs.MergeResult
	err = retryOnConflict(func() error {
		var err error
		result, err = a.service.MergeToMain(draft.ID, projectID, userID)
		return err
	})
	return result, err
}

// Restore rewrites the project's live documents to the state of a commit
// and records the rewrite as a new commit on main.
func (a *App) Restore(projectID, commitID, userID string) (*vcs.RestoreResult, error) {
	var result *vcs.RestoreResult
	err := retryOnConflict(func() error {
		var err error
		result, err = a.service.RestoreCommit(projectID, commitID, userID)
		return err
	})
	return result, err
}

// Log returns the commit history of the user's draft branch, or of main
// when userID is empty.
func (a *App) Log(projectID, userID string) ([]*model.Commit, error) {
	branch, err := a.resolveBranch(projectID, userID)
	if err != nil {
		return nil, err
	}
	return a.service.Log(branch.ID)
}

// Files returns the tracked files of the user's draft branch, or of main
// when userID is empty.
func (a *App) Files(projectID, userID string) ([]*model.WorkingFile, error) {
	branch, err := a.resolveBranch(projectID, userID)
	if err != nil {
		return nil, err
	}
	return a.service.ListFiles(branch.ID)
}

// Versions returns the version-numbered commits of a file.
func (a *App) Versions(projectID, fileID string) ([]*model.FileVersion, error) {
	return a.service.FileVersions(projectID, fileID)
}

// Uncommitted returns the ids of live documents and folders that differ
// from the given baseline commit.
func (a *App) Uncommitted(projectID, baselineCommitID string) (*vcs.UncommittedChanges, error) {
	return a.service.UncommittedIDs(projectID, vcs.UncommittedOptions{
		BaselineCommitID:     baselineCommitID,
		TreatNoBaselineAsAll: true,
	})
}

func (a *App) resolveBranch(projectID, userID string) (*model.Branch, error) {
	if userID != "" {
		return a.service.EnsureDraft(projectID, userID)
	}
	main, err := a.store.FindMainBranch(projectID)
	if err != nil {
		return nil, err
	}
	if main == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, vcs.ErrNotFound)
	}
	return main, nil
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
