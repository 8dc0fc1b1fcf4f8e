package testutil

import (
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/encryption"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() vcs.Encryptor {
	return encryption.NewTestEncryptor()
}
