// Package memory provides in-memory implementations of the storage
// ports, used in tests and as a fallback when no database is wanted.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.CacheStore    = (*CacheStore)(nil)
	_ driven.IndexStore    = (*IndexStore)(nil)
)

// DocumentStore is an in-memory driven.DocumentStore.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*domain.Document)}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// ListDocuments returns an owner's documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, ownerID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// CacheStore is an in-memory driven.CacheStore.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
}

// NewCacheStore creates an empty in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{entries: make(map[string]*domain.CacheEntry)}
}

// Get retrieves an entry by key.
func (s *CacheStore) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

// Put stores an entry, replacing any existing entry with the same key.
func (s *CacheStore) Put(_ context.Context, entry *domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[entry.Key] = &cp
	return nil
}

// DeleteDocument removes all entries for a document.
func (s *CacheStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.DocumentID == documentID {
			delete(s.entries, key)
		}
	}
	return nil
}

// Len returns the number of stored entries. Useful in tests.
func (s *CacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IndexStore is an in-memory driven.IndexStore.
type IndexStore struct {
	mu      sync.RWMutex
	indexes map[string][]byte
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{indexes: make(map[string][]byte)}
}

// SaveIndex stores the serialised index for a document.
func (s *IndexStore) SaveIndex(_ context.Context, documentID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[documentID] = append([]byte(nil), data...)
	return nil
}

// LoadIndex retrieves the serialised index for a document.
func (s *IndexStore) LoadIndex(_ context.Context, documentID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.indexes[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// DeleteIndex removes the stored index for a document.
func (s *IndexStore) DeleteIndex(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, documentID)
	return nil
}
