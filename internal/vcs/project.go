package vcs

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// EnsureInitialized makes sure the project has a main branch, creating it on
// first call. Idempotent and safe to call on every request.
func (s *Service) EnsureInitialized(projectID, userID string) (*model.Branch, error) {
	main, err := s.store.FindMainBranch(projectID)
	if err != nil {
		return nil, fmt.Errorf("finding main branch: %w", err)
	}
	if main != nil {
		return main, nil
	}

	main = &model.Branch{
		ID:        s.idgen.New(),
		ProjectID: projectID,
		Kind:      model.BranchMain,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateBranch(main); err != nil {
		return nil, fmt.Errorf("creating main branch: %w", err)
	}

	s.logger.Info("project initialized", "project", projectID, "branch", main.ID)
	return main, nil
}

// EnsureDraft returns the user's draft branch for the project, creating it
// on first touch. The project must be initialized first.
func (s *Service) EnsureDraft(projectID, userID string) (*model.Branch, error) {
	main, err := s.store.FindMainBranch(projectID)
	if err != nil {
		return nil, fmt.Errorf("finding main branch: %w", err)
	}
	if main == nil {
		return nil, fmt.Errorf("version control is not initialized for project %s: %w", projectID, ErrInvalidState)
	}

	draft, err := s.store.FindDraftBranch(projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("finding draft branch: %w", err)
	}
	if draft != nil {
		return draft, nil
	}

	draft = &model.Branch{
		ID:          s.idgen.New(),
		ProjectID:   projectID,
		Kind:        model.BranchDraft,
		OwnerUserID: userID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateBranch(draft); err != nil {
		return nil, fmt.Errorf("creating draft branch: %w", err)
	}

	s.logger.Info("draft branch created", "project", projectID, "user", userID, "branch", draft.ID)
	return draft, nil
}

// DeleteProject removes all versioning state for the project: branches,
// commits, snapshots, working files and cache rows. This is the only path
// that deletes commit rows.
func (s *Service) DeleteProject(projectID string) error {
	folders, err := s.store.ListProjectFolders(projectID)
	if err != nil {
		return fmt.Errorf("listing project folders: %w", err)
	}

	order, err := folderDeleteOrder(folders)
	if err != nil {
		return fmt.Errorf("resolving folder tree: %w", err)
	}

	if err := s.store.DeleteProject(projectID, order); err != nil {
		return fmt.Errorf("deleting project rows: %w", err)
	}

	s.logger.Info("project deleted", "project", projectID)
	return nil
}

// folderDeleteOrder flattens the folder tree into a deletion order with
// children before parents. Traversal uses an explicit worklist over IDs, so
// depth is bounded and a corrupted tree with a cycle is detected instead of
// looping.
func folderDeleteOrder(folders []*model.ProjectFolder) ([]string, error) {
	children := make(map[string][]string, len(folders))
	var roots []string
	for _, f := range folders {
		if f.ParentID == "" {
			roots = append(roots, f.ID)
			continue
		}
		children[f.ParentID] = append(children[f.ParentID], f.ID)
	}

	seen := make(map[string]bool, len(folders))
	var order []string // parents first; reversed below

	work := append([]string(nil), roots...)
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]

		if seen[id] {
			return nil, fmt.Errorf("folder tree contains a cycle at %s", id)
		}
		seen[id] = true
		order = append(order, id)
		work = append(work, children[id]...)
	}

	if len(order) != len(folders) {
		// Folders unreachable from any root: parent rows missing or a cycle
		// among themselves. Append them last so teardown still completes.
		for _, f := range folders {
			if !seen[f.ID] {
				order = append(order, f.ID)
			}
		}
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
