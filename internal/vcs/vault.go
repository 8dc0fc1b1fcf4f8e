package vcs

import "io"

// Vault stores content blobs addressed by checksum. The relational store
// keeps only the content metadata rows; the bytes live here.
// io.Reader/io.Writer streaming keeps large definition files off the heap.
type Vault interface {
	// PutContent stores content identified by its checksum.
	// Idempotent: storing the same checksum multiple times is safe.
	// size is the number of bytes that will be read from r.
	PutContent(checksum string, r io.Reader, size int64) error

	// GetContent retrieves content by checksum and writes it to w.
	GetContent(checksum string, w io.Writer) error

	// ValidateSetup verifies that the vault is accessible and properly
	// configured.
	ValidateSetup() error
}
