package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	documentPage int
	documentSize int
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentListCmd.Flags().IntVarP(&documentPage, "page", "p", 1, "page number")
	documentListCmd.Flags().IntVarP(&documentSize, "size", "s", 20, "page size")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	page, err := documentService.List(context.Background(), flagOwner, documentPage, documentSize)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(page.Documents) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Printf("Documents (page %d of %d, %d total):\n\n", page.Page, page.TotalPages, page.Total)
	for _, doc := range page.Documents {
		cmd.Printf("  %s\n", doc.ID)
		cmd.Printf("    Title:   %s\n", doc.Title)
		cmd.Printf("    Created: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	deleted, err := documentService.Delete(context.Background(), flagOwner, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if !deleted {
		cmd.Printf("No document found with id %s\n", docID)
		return nil
	}
	cmd.Printf("Deleted document %s\n", docID)
	return nil
}
