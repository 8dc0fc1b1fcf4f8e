package app

import "github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"

// retryOnConflict runs fn and, when it fails because another writer advanced
// a branch head first, runs it once more against the new head. Any second
// failure is returned to the caller.
func retryOnConflict(fn func() error) error {
	err := fn()
	if err != nil && vcs.IsRetryable(err) {
		return fn()
	}
	return err
}
