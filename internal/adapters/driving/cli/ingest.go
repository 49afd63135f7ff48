package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	ingestTitle  string
	ingestImages []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document",
	Long: `Reads the file, chunks and embeds its content, and stores the result.
Markdown files can carry image attachments (--image) whose recognised
text is inlined next to each reference before chunking.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (default derived from the file name)")
	ingestCmd.Flags().StringArrayVar(&ingestImages, "image", nil, "image file referenced by the document (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ctx := context.Background()
	isMarkdown := strings.EqualFold(filepath.Ext(path), ".md")

	var docID string
	switch {
	case len(ingestImages) > 0:
		images := make(map[string][]byte, len(ingestImages))
		for _, imagePath := range ingestImages {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("reading image %s: %w", imagePath, err)
			}
			images[filepath.Base(imagePath)] = data
		}
		docID, err = ingestService.IngestMarkdownWithImages(ctx, flagOwner, ingestTitle, string(content), images)
	case isMarkdown:
		docID, err = ingestService.IngestMarkdown(ctx, flagOwner, ingestTitle, string(content), path)
	default:
		title := ingestTitle
		if title == "" {
			title = filepath.Base(path)
		}
		docID, err = ingestService.Ingest(ctx, flagOwner, title, string(content))
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s as document %s\n", path, docID)
	return nil
}
