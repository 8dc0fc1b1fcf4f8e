package vcs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/model"
)

// ContentStore stores immutable file content addressed by checksum.
// Identical content is stored once; commits reference it by hash.
// When an encryptor is configured, blobs are encrypted before they reach the
// vault and the content row records the ciphertext checksum.
type ContentStore struct {
	store      Store
	vault      Vault
	encryptor  Encryptor
	decryptCtx DecryptionContext
	clock      Clock
	logger     Logger
}

// NewContentStore creates a ContentStore. encryptor may be nil for plaintext
// storage; decryptCtx may be nil if reads of encrypted content are not needed.
func NewContentStore(store Store, vault Vault, encryptor Encryptor, decryptCtx DecryptionContext, clock Clock, logger Logger) *ContentStore {
	return &ContentStore{
		store:      store,
		vault:      vault,
		encryptor:  encryptor,
		decryptCtx: decryptCtx,
		clock:      clock,
		logger:     logger,
	}
}

// SetDecryptionContext installs an unlocked key for reads of encrypted
// content. Called once after the private key passphrase is verified.
func (c *ContentStore) SetDecryptionContext(ctx DecryptionContext) {
	c.decryptCtx = ctx
}

// HashContent returns the SHA-256 checksum of content as a lowercase hex
// string. This is the contentRef format used everywhere in the engine.
func HashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Put stores content and returns its reference. If identical content already
// exists, the existing reference is returned without touching the vault.
func (c *ContentStore) Put(content []byte) (string, error) {
	hash := HashContent(content)

	existing, err := c.store.FindContentByHash(hash)
	if err != nil {
		return "", fmt.Errorf("checking for existing content: %w", err)
	}
	if existing != nil {
		c.logger.Debug("content deduplicated", "hash", hash)
		return hash, nil
	}

	row := &model.Content{
		Hash:      hash,
		Size:      int64(len(content)),
		CreatedAt: c.clock.Now(),
	}

	blob := content
	blobRef := hash
	if c.encryptor != nil {
		var buf bytes.Buffer
		if err := c.encryptor.Encrypt(bytes.NewReader(content), &buf); err != nil {
			return "", fmt.Errorf("encrypting content: %w", err)
		}
		blob = buf.Bytes()
		blobRef = HashContent(blob)
		row.EncryptedHash = blobRef
	}

	// Vault first: PutContent is idempotent by checksum, so a failure after
	// the upload leaves at worst an orphaned blob, never a dangling row.
	if err := c.vault.PutContent(blobRef, bytes.NewReader(blob), int64(len(blob))); err != nil {
		return "", fmt.Errorf("storing content blob: %w", err)
	}

	if err := c.store.CreateContent(row); err != nil {
		return "", fmt.Errorf("recording content: %w", err)
	}

	return hash, nil
}

// Get retrieves content by reference. Returns an error wrapping ErrNotFound
// if the reference is unknown.
func (c *ContentStore) Get(contentRef string) ([]byte, error) {
	row, err := c.store.FindContentByHash(contentRef)
	if err != nil {
		return nil, fmt.Errorf("finding content: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("content %s: %w", contentRef, ErrNotFound)
	}

	var buf bytes.Buffer
	if row.EncryptedHash != "" {
		if c.decryptCtx == nil {
			return nil, fmt.Errorf("content %s is encrypted and no key is unlocked", contentRef)
		}
		var ciphertext bytes.Buffer
		if err := c.vault.GetContent(row.EncryptedHash, &ciphertext); err != nil {
			return nil, fmt.Errorf("retrieving content blob: %w", err)
		}
		if err := c.decryptCtx.Decrypt(&ciphertext, &buf); err != nil {
			return nil, fmt.Errorf("decrypting content: %w", err)
		}
	} else {
		if err := c.vault.GetContent(contentRef, &buf); err != nil {
			return nil, fmt.Errorf("retrieving content blob: %w", err)
		}
	}

	return buf.Bytes(), nil
}
