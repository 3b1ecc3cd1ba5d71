package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes the content fingerprint for a sequence of pages.
// Identical page content always yields the same fingerprint; any change
// to text or page numbering yields a different one. Cached results carry
// the fingerprint they were computed against and are treated as stale
// when it no longer matches.
func Fingerprint(pages []Page) string {
	h := sha256.New()
	var num [8]byte
	for i := range pages {
		binary.LittleEndian.PutUint64(num[:], uint64(pages[i].Number))
		h.Write(num[:])
		binary.LittleEndian.PutUint64(num[:], uint64(len(pages[i].Text)))
		h.Write(num[:])
		h.Write([]byte(pages[i].Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache namespaces. Each namespace is an independent keyspace.
type CacheNamespace string

const (
	// NamespaceQA caches question/answer results keyed by question text.
	NamespaceQA CacheNamespace = "qa"

	// NamespaceSummary caches summaries keyed by summary kind.
	NamespaceSummary CacheNamespace = "summary"

	// NamespaceExtraction caches extracted field sets.
	NamespaceExtraction CacheNamespace = "extraction"
)

// CacheKey derives the deterministic cache key for an operation.
// The key covers owner, document identity, namespace and operation
// parameters; the document fingerprint is stored alongside the entry
// and compared at read time (lazy invalidation).
func CacheKey(ownerID, documentID string, ns CacheNamespace, params string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", ownerID, documentID, ns, params)
	return hex.EncodeToString(h.Sum(nil))
}
