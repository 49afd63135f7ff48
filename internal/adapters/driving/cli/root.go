// Package cli provides the cobra-based command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/vellum-search/vellum/internal/adapters/driven/config/file"
	"github.com/vellum-search/vellum/internal/adapters/driven/embedding/hash"
	"github.com/vellum-search/vellum/internal/adapters/driven/embedding/ollama"
	"github.com/vellum-search/vellum/internal/adapters/driven/ocr/tesseract"
	"github.com/vellum-search/vellum/internal/adapters/driven/storage/sqlite"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/core/ports/driving"
	"github.com/vellum-search/vellum/internal/core/services"
	"github.com/vellum-search/vellum/internal/inline"
	"github.com/vellum-search/vellum/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands run against. Wired in wireServices; tests swap
// them directly.
var (
	ingestService   driving.Ingestor
	searchService   driving.Searcher
	documentService driving.DocumentManager
)

// teardown closes resources opened by wireServices.
var teardown []func() error

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
	flagOwner     string
)

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "Personal document retrieval engine",
	Long: `Vellum ingests documents into chunked, embedded form and answers
natural-language queries over them with vector search plus keyword fallback.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return wireServices()
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.vellum)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.vellum/data)")
	rootCmd.PersistentFlags().StringVarP(&flagOwner, "owner", "o", "default", "owner namespace for documents")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// wireServices builds the adapter stack from configuration. Already
// wired services (e.g. injected by tests) are left alone.
func wireServices() error {
	if ingestService != nil && searchService != nil && documentService != nil {
		return nil
	}

	configStore, err := configfile.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	teardown = append(teardown, configStore.Close)
	if err := configStore.Watch(); err != nil {
		logger.Warn("config hot reload unavailable: %v", err)
	}

	store, err := sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	teardown = append(teardown, store.Close)

	cfg := configStore.Config()
	embedder := buildEmbedder(cfg, configStore)
	ocr := tesseract.NewService(cfg.OCR.Binary, cfg.OCR.Language)
	inliner := inline.New(ocr, cfg.OCR.Language)
	if !ocr.Available() {
		logger.Warn("tesseract not found; image text will not be recognised")
	}

	ingestService = services.NewIngestService(store, embedder, configStore, inliner)
	searchService = services.NewRetrievalService(store, embedder, configStore)
	documentService = services.NewDocumentService(store)
	return nil
}

// buildEmbedder picks the embedding backend named in configuration.
func buildEmbedder(cfg configfile.Config, settings driven.SettingsSource) driven.Embedder {
	switch cfg.Embedding.Provider {
	case "ollama":
		logger.Debug("using ollama embedder (%s)", cfg.Embedding.OllamaModel)
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: cfg.Embedding.OllamaURL,
			Model:   cfg.Embedding.OllamaModel,
		})
	default:
		size := settings.Retrieval().VectorSize
		logger.Debug("using hash embedder (size %d)", size)
		return hash.NewEmbedder(size)
	}
}

func closeServices() error {
	var firstErr error
	for i := len(teardown) - 1; i >= 0; i-- {
		if err := teardown[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	teardown = nil
	return firstErr
}
