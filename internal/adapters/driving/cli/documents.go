package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/contracta-cli/internal/chunker"
	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage loaded contracts",
	Long:  `List, inspect or remove loaded contract documents.`,
	RunE:  runDocumentsList,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded contracts",
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show contract details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsRmCmd = &cobra.Command{
	Use:   "rm [doc-id]",
	Short: "Remove a contract",
	Long:  `Removes a document along with its stored index and all cached results.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsRm,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsRmCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := context.Background()
	docs, err := documentService.List(ctx, cfg.Owner)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents loaded. Run 'contracta load <file>' first.")
		return nil
	}

	cmd.Println("Documents:")
	for i := range docs {
		cmd.Printf("  %s  %s (%d pages, %d chars, loaded %s)\n",
			docs[i].ID, docs[i].Title, docs[i].PageCount(), docs[i].CharCount(),
			docs[i].CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := context.Background()
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return fmt.Errorf("getting document: %w", err)
	}

	cmd.Printf("%s\n", doc.Title)
	cmd.Printf("  ID:          %s\n", doc.ID)
	cmd.Printf("  Pages:       %d\n", doc.PageCount())
	cmd.Printf("  Chars:       %d\n", doc.CharCount())
	cmd.Printf("  Chunks:      %d\n", chunkCount(doc))
	cmd.Printf("  Fingerprint: %s\n", doc.Fingerprint)
	cmd.Printf("  Loaded:      %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentsRm(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := documentService.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}

	cmd.Printf("Removed %s\n", args[0])
	return nil
}

// chunkCount reports how many chunks the configured chunker would
// produce for a document.
func chunkCount(doc *domain.Document) int {
	var opts []chunker.Option
	if cfg.Chunking.Size > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.Chunking.Size))
	}
	if cfg.Chunking.Overlap > 0 {
		opts = append(opts, chunker.WithOverlap(cfg.Chunking.Overlap))
	}
	ck, err := chunker.New(opts...)
	if err != nil {
		return 0
	}
	return len(ck.Split(doc))
}
