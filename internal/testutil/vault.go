package testutil

import (
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vault"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() vcs.Vault {
	return vault.NewMemoryVault()
}
