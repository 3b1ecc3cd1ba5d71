package domain

import "time"

// Page is a single page of extracted contract text as supplied by the
// ingestion front-end. The core never parses PDFs itself.
type Page struct {
	// Number is the 1-based page number within the source document.
	Number int

	// Text is the extracted text content of the page.
	Text string
}

// Document represents an ingested contract document.
// It is immutable once ingested; a re-upload supersedes it rather than
// editing it in place.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OwnerID identifies the user the document belongs to.
	// It partitions all derived state (index, caches, memory).
	OwnerID string

	// Title is the human-readable title, typically the original filename.
	Title string

	// Pages is the ordered page-tagged text content.
	Pages []Page

	// Fingerprint is the content fingerprint used for cache staleness
	// detection. Computed once at ingestion.
	Fingerprint string

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Text returns the full document text: the concatenation of all page
// texts in order, with no separators inserted. Chunk character spans are
// offsets into this string.
func (d *Document) Text() string {
	var total int
	for i := range d.Pages {
		total += len(d.Pages[i].Text)
	}
	buf := make([]byte, 0, total)
	for i := range d.Pages {
		buf = append(buf, d.Pages[i].Text...)
	}
	return string(buf)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// CharCount returns the total number of characters across all pages.
func (d *Document) CharCount() int {
	var total int
	for i := range d.Pages {
		total += len(d.Pages[i].Text)
	}
	return total
}

// Chunk represents a retrievable unit within a document.
// Documents are split into overlapping chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Seq is the ordinal position within the document. It is the
	// tie-breaker for equal similarity scores (lower wins).
	Seq int

	// Page is the page number the chunk starts on.
	Page int

	// Start and End are the character span within Document.Text().
	Start int
	End   int

	// Text is the chunk content, including the overlap with the
	// preceding chunk.
	Text string
}
