package driving

import (
	"context"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// DocumentService manages the ingested document library.
type DocumentService interface {
	// Ingest builds a document from page-tagged text and stores it.
	Ingest(ctx context.Context, ownerID, title string, pages []domain.Page) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns an owner's documents, newest first.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Latest returns an owner's most recently ingested document.
	Latest(ctx context.Context, ownerID string) (*domain.Document, error)

	// Delete removes a document along with its stored index and all
	// cached results.
	Delete(ctx context.Context, documentID string) error
}
