package vcs

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// versionLookback bounds how far the validity check walks the newest
// commits to find the latest non-auto one. History queries sit on the hot
// path of the editor's versions panel; the lookback keeps the common case a
// handful of reads.
const versionLookback = 10

// EnsureFileVersions refreshes the derived version-number cache for one
// file. The cache maps each non-auto commit that touched the file to a dense
// 1..N sequence, oldest first; auto commits (sync, merge, pull) never
// receive a number. The cache is considered valid when the latest non-auto
// commit already has a row and the cached row count matches the true
// non-auto commit count; otherwise it is rebuilt in full, transactionally.
func (s *Service) EnsureFileVersions(projectID, fileID string) error {
	branchID, err := s.owningBranchID(projectID, fileID)
	if err != nil {
		return err
	}

	recent, err := s.store.ListFileCommits(branchID, fileID, versionLookback)
	if err != nil {
		return fmt.Errorf("listing recent commits: %w", err)
	}

	var latest *model.Commit
	for _, c := range recent {
		if !c.Source.IsAuto() {
			latest = c
			break
		}
	}

	if latest != nil {
		cached, err := s.store.HasFileVersion(projectID, fileID, latest.ID)
		if err != nil {
			return fmt.Errorf("checking cache head: %w", err)
		}
		if cached {
			cachedCount, err := s.store.CountFileVersions(projectID, fileID)
			if err != nil {
				return fmt.Errorf("counting cache rows: %w", err)
			}
			trueCount, err := s.store.CountVersionedFileCommits(branchID, fileID)
			if err != nil {
				return fmt.Errorf("counting versioned commits: %w", err)
			}
			if cachedCount == trueCount {
				return nil
			}
		}
	}

	rows, err := s.computeFileVersions(projectID, branchID, fileID)
	if err != nil {
		return err
	}

	if err := s.store.ReplaceFileVersions(projectID, fileID, rows); err != nil {
		return fmt.Errorf("replacing cache rows: %w", err)
	}

	s.logger.Debug("version cache rebuilt", "project", projectID, "file", fileID, "versions", len(rows))
	return nil
}

// computeFileVersions derives the full version sequence from the commit
// list: every non-auto commit that touched the file, oldest first.
func (s *Service) computeFileVersions(projectID, branchID, fileID string) ([]*model.FileVersion, error) {
	all, err := s.store.ListFileCommits(branchID, fileID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing file commits: %w", err)
	}

	var eligible []*model.Commit
	for _, c := range all {
		if !c.Source.IsAuto() {
			eligible = append(eligible, c)
		}
	}

	// Newest-first from the store; numbering runs oldest-first.
	rows := make([]*model.FileVersion, len(eligible))
	now := s.clock.Now()
	for i, c := range eligible {
		rows[len(eligible)-1-i] = &model.FileVersion{
			ProjectID:     projectID,
			FileID:        fileID,
			CommitID:      c.ID,
			VersionNumber: len(eligible) - i,
			CreatedAt:     now,
		}
	}
	return rows, nil
}

// FileVersions returns the version rows for a file, oldest first, refreshing
// the cache when needed. A cache refresh failure is non-fatal: the sequence
// is then computed on the fly from the commit list so the history request
// still succeeds.
func (s *Service) FileVersions(projectID, fileID string) ([]*model.FileVersion, error) {
	if err := s.EnsureFileVersions(projectID, fileID); err != nil {
		s.logger.Warn("version cache refresh failed, computing on the fly",
			"project", projectID, "file", fileID, "error", err)

		branchID, berr := s.owningBranchID(projectID, fileID)
		if berr != nil {
			return nil, fmt.Errorf("version cache refresh failed: %w", err)
		}
		return s.computeFileVersions(projectID, branchID, fileID)
	}

	rows, err := s.store.ListFileVersions(projectID, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing version rows: %w", err)
	}
	return rows, nil
}
