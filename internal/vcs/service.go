package vcs

// Service is the versioning engine behind the editor: per-user draft
// branches, commits, snapshot diffing, draft-to-main merges and the derived
// per-file version numbering. It coordinates the metadata store and the
// content store; all multi-step writes happen inside store transactions.
type Service struct {
	store    Store
	contents *ContentStore
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewService creates a Service with the provided dependencies.
func NewService(store Store, contents *ContentStore, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:    store,
		contents: contents,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Contents exposes the content store for collaborators that need raw
// content access (the editor save path and the restore preview).
func (s *Service) Contents() *ContentStore { return s.contents }
