package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// loadTitle overrides the document title (defaults to the file name).
var loadTitle string

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a contract document",
	Long: `Reads a plain-text or markdown contract and stores it for querying.

Form-feed characters (\f) mark page boundaries; a file without them is
treated as a single page. Asking the first question about a new document
builds its index; subsequent questions reuse it.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadTitle, "title", "t", "", "document title (default: file name)")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	pages := splitPages(string(data))
	if len(pages) == 0 {
		return fmt.Errorf("%w: %s contains no text", domain.ErrInvalidConfiguration, path)
	}

	title := loadTitle
	if title == "" {
		title = filepath.Base(path)
	}

	ctx := context.Background()
	doc, err := documentService.Ingest(ctx, cfg.Owner, title, pages)
	if err != nil {
		return fmt.Errorf("ingesting document: %w", err)
	}

	cmd.Printf("Loaded %s\n", doc.Title)
	cmd.Printf("  ID:      %s\n", doc.ID)
	cmd.Printf("  Pages:   %d\n", doc.PageCount())
	cmd.Printf("  Chars:   %d\n", doc.CharCount())
	return nil
}

// splitPages turns file content into page-tagged text. Form feeds
// separate pages; pages that are entirely whitespace are dropped.
func splitPages(content string) []domain.Page {
	var pages []domain.Page
	for _, text := range strings.Split(content, "\f") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{
			Number: len(pages) + 1,
			Text:   text,
		})
	}
	return pages
}
