package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driving"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the ingested document library.
type DocumentService struct {
	docStore   driven.DocumentStore
	indexStore driven.IndexStore
	cache      *resultCache
}

// NewDocumentService creates a document service. indexStore and
// cacheStore may be nil; deletion then skips the corresponding purge.
func NewDocumentService(docStore driven.DocumentStore, indexStore driven.IndexStore, cacheStore driven.CacheStore) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		indexStore: indexStore,
		cache:      newResultCache(cacheStore),
	}
}

// Ingest builds a document from page-tagged text and stores it. Each
// ingestion creates a fresh document; re-uploading a file supersedes
// the old document rather than editing it.
func (s *DocumentService) Ingest(ctx context.Context, ownerID, title string, pages []domain.Page) (*domain.Document, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner ID is required", domain.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidConfiguration)
	}
	var chars int
	for i := range pages {
		chars += len(pages[i].Text)
	}
	if len(pages) == 0 || chars == 0 {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidConfiguration)
	}

	doc := &domain.Document{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       title,
		Pages:       pages,
		Fingerprint: domain.Fingerprint(pages),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	logger.Info("Ingested document %s (%q): %d pages, %d chars", doc.ID, title, len(pages), chars)
	return doc, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// List returns an owner's documents, newest first.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, ownerID)
}

// Latest returns an owner's most recently ingested document.
// Returns domain.ErrNotFound when the owner has no documents.
func (s *DocumentService) Latest(ctx context.Context, ownerID string) (*domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &docs[0], nil
}

// Delete removes a document along with its stored index and all cached
// results. Failures purging derived state are logged, not fatal: the
// entries are unreachable once the document is gone.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if s.indexStore != nil {
		if err := s.indexStore.DeleteIndex(ctx, documentID); err != nil {
			logger.Warn("Deleting stored index for document %s failed: %v", documentID, err)
		}
	}
	s.cache.invalidateDocument(ctx, documentID)

	logger.Info("Deleted document %s", documentID)
	return nil
}
