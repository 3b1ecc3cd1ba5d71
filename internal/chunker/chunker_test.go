package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		c, err := New(WithChunkSize(500))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", c.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		c, err := New(WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", c.overlap)
		}
	})

	t.Run("overlap equal to chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(100))
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("overlap exceeding chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(150))
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c, err := New(WithChunkSize(0), WithOverlap(-1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestChunker_Split_EmptyDocument(t *testing.T) {
	c, _ := New()
	doc := &domain.Document{ID: "test-doc"}

	chunks := c.Split(doc)
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty document, got %d", len(chunks))
	}
}

func TestChunker_Split_SmallDocument(t *testing.T) {
	c, _ := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:    "test-doc",
		Pages: []domain.Page{{Number: 1, Text: "This is a small lease agreement."}},
	}

	chunks := c.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small document, got %d", len(chunks))
	}

	if chunks[0].DocumentID != doc.ID {
		t.Errorf("expected DocumentID %q, got %q", doc.ID, chunks[0].DocumentID)
	}
	if chunks[0].Text != doc.Text() {
		t.Error("expected chunk text to match document text")
	}
	if chunks[0].Seq != 0 {
		t.Errorf("expected seq 0, got %d", chunks[0].Seq)
	}
	if chunks[0].Page != 1 {
		t.Errorf("expected page 1, got %d", chunks[0].Page)
	}
}

func TestChunker_Split_LargeDocument(t *testing.T) {
	c, _ := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:    "test-doc",
		Pages: []domain.Page{{Number: 1, Text: strings.Repeat("x", 250)}},
	}

	chunks := c.Split(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	seenIDs := make(map[string]bool)
	for _, chunk := range chunks {
		if seenIDs[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		seenIDs[chunk.ID] = true
	}

	for i, chunk := range chunks {
		if chunk.Seq != i {
			t.Errorf("expected seq %d, got %d", i, chunk.Seq)
		}
		if chunk.DocumentID != doc.ID {
			t.Errorf("expected DocumentID %q, got %q", doc.ID, chunk.DocumentID)
		}
	}

	if len(chunks[0].Text) != 100 {
		t.Errorf("expected first chunk size 100, got %d", len(chunks[0].Text))
	}
}

// TestChunker_Split_Reconstruction verifies the overlap invariant: the
// first chunk plus every later chunk's text after its leading overlap
// rebuilds the document exactly.
func TestChunker_Split_Reconstruction(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		length  int
	}{
		{"no overlap exact multiple", 50, 0, 100},
		{"overlap uneven tail", 10, 3, 20},
		{"overlap exact boundary", 100, 20, 260},
		{"single chunk", 100, 20, 40},
		{"defaults", DefaultChunkSize, DefaultChunkOverlap, 7341},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(WithChunkSize(tc.size), WithOverlap(tc.overlap))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var b strings.Builder
			for i := 0; b.Len() < tc.length; i++ {
				b.WriteByte(byte('a' + i%26))
			}
			content := b.String()[:tc.length]

			doc := &domain.Document{
				ID:    "test-doc",
				Pages: []domain.Page{{Number: 1, Text: content}},
			}

			chunks := c.Split(doc)
			if len(chunks) == 0 {
				t.Fatal("expected at least one chunk")
			}

			rebuilt := chunks[0].Text
			for i, chunk := range chunks[1:] {
				rebuilt += chunk.Text[chunks[i].End-chunk.Start:]
			}
			if rebuilt != content {
				t.Errorf("reconstruction mismatch: got %d chars, want %d", len(rebuilt), len(content))
			}

			// Every chunk after the first must extend past its
			// predecessor, otherwise it carries no new text.
			for i, chunk := range chunks[1:] {
				if chunk.End <= chunks[i].End {
					t.Errorf("chunk %d is pure overlap (span [%d,%d))", chunk.Seq, chunk.Start, chunk.End)
				}
			}
		})
	}
}

// TestChunker_Split_MultibyteBoundaries checks that chunk edges never
// split a UTF-8 sequence and the spans still tile the document.
func TestChunker_Split_MultibyteBoundaries(t *testing.T) {
	c, _ := New(WithChunkSize(10), WithOverlap(3))
	content := strings.Repeat("租金每月三千五百新元", 5) // 3 bytes per rune
	doc := &domain.Document{
		ID:    "test-doc",
		Pages: []domain.Page{{Number: 1, Text: content}},
	}

	chunks := c.Split(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for _, chunk := range chunks {
		if !utf8.ValidString(chunk.Text) {
			t.Errorf("chunk %d splits a rune: %q", chunk.Seq, chunk.Text)
		}
		if content[chunk.Start:chunk.End] != chunk.Text {
			t.Errorf("chunk %d span [%d,%d) does not match its text", chunk.Seq, chunk.Start, chunk.End)
		}
	}

	rebuilt := chunks[0].Text
	for i, chunk := range chunks[1:] {
		rebuilt += chunk.Text[chunks[i].End-chunk.Start:]
	}
	if rebuilt != content {
		t.Errorf("reconstruction mismatch: got %d bytes, want %d", len(rebuilt), len(content))
	}
}

func TestChunker_Split_PageAttribution(t *testing.T) {
	c, _ := New(WithChunkSize(10), WithOverlap(2))
	doc := &domain.Document{
		ID: "test-doc",
		Pages: []domain.Page{
			{Number: 1, Text: strings.Repeat("a", 15)},
			{Number: 2, Text: strings.Repeat("b", 15)},
		},
	}

	chunks := c.Split(doc)
	for _, chunk := range chunks {
		wantPage := 1
		if chunk.Start >= 15 {
			wantPage = 2
		}
		if chunk.Page != wantPage {
			t.Errorf("chunk at offset %d: expected page %d, got %d", chunk.Start, wantPage, chunk.Page)
		}
	}
}

func TestChunker_Split_Spans(t *testing.T) {
	c, _ := New(WithChunkSize(10), WithOverlap(3))
	content := "0123456789ABCDEFGHIJ"
	doc := &domain.Document{
		ID:    "test-doc",
		Pages: []domain.Page{{Number: 1, Text: content}},
	}

	chunks := c.Split(doc)
	for _, chunk := range chunks {
		if content[chunk.Start:chunk.End] != chunk.Text {
			t.Errorf("chunk %d span [%d,%d) does not match its text", chunk.Seq, chunk.Start, chunk.End)
		}
	}
	last := chunks[len(chunks)-1]
	if last.End != len(content) {
		t.Errorf("expected last chunk to end at %d, got %d", len(content), last.End)
	}
}
