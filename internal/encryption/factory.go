package encryption

import (
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/config"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type. Type "none" (and empty) disables encryption at rest: content is
// stored in plaintext and the returned Encryptor is nil.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (vcs.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
