package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/logger"
)

var _ driven.SettingsSource = (*ConfigStore)(nil)

// Config is the full on-disk configuration.
type Config struct {
	Retrieval RetrievalConfig `toml:"retrieval"`
	Embedding EmbeddingConfig `toml:"embedding"`
	OCR       OCRConfig       `toml:"ocr"`
}

// RetrievalConfig mirrors domain.RetrievalSettings in TOML form.
type RetrievalConfig struct {
	VectorSize             int     `toml:"vector_size"`
	TopK                   int     `toml:"top_k"`
	ChunkSize              int     `toml:"chunk_size"`
	ChunkOverlap           int     `toml:"chunk_overlap"`
	Strategy               string  `toml:"strategy"`
	MinScore               float64 `toml:"min_score"`
	MMRLambda              float64 `toml:"mmr_lambda"`
	MMRCandidateMultiplier int     `toml:"mmr_candidate_multiplier"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is "hash" or "ollama".
	Provider string `toml:"provider"`

	// OllamaURL is the Ollama server base URL.
	OllamaURL string `toml:"ollama_url"`

	// OllamaModel is the embedding model name.
	OllamaModel string `toml:"ollama_model"`
}

// OCRConfig configures text recognition for ingested images.
type OCRConfig struct {
	// Binary is the tesseract executable; empty means "tesseract" on PATH.
	Binary string `toml:"binary"`

	// Language is the tesseract language spec, e.g. "chi_sim+eng".
	Language string `toml:"language"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	settings := domain.DefaultRetrievalSettings()
	return Config{
		Retrieval: RetrievalConfig{
			VectorSize:             settings.VectorSize,
			TopK:                   settings.TopK,
			ChunkSize:              settings.ChunkSize,
			ChunkOverlap:           settings.ChunkOverlap,
			Strategy:               settings.Strategy,
			MinScore:               settings.MinScore,
			MMRLambda:              settings.MMRLambda,
			MMRCandidateMultiplier: settings.MMRCandidateMultiplier,
		},
		Embedding: EmbeddingConfig{Provider: "hash"},
	}
}

// ConfigStore loads config.toml and serves normalized settings
// snapshots. Watch() keeps the snapshot current as the file changes.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	config   Config
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewConfigStore creates a config store rooted at configDir. If
// configDir is empty, defaults to ~/.vellum. A missing config file
// yields defaults; a present file overrides them field by field.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".vellum")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		config:   DefaultConfig(),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load re-reads the config file. A missing file resets to defaults.
func (s *ConfigStore) Load() error {
	cfg := DefaultConfig()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// Save writes the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Config returns a snapshot of the full configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Retrieval returns a normalized snapshot of the retrieval settings.
func (s *ConfigStore) Retrieval() domain.RetrievalSettings {
	s.mu.RLock()
	r := s.config.Retrieval
	s.mu.RUnlock()

	return domain.RetrievalSettings{
		VectorSize:             r.VectorSize,
		TopK:                   r.TopK,
		ChunkSize:              r.ChunkSize,
		ChunkOverlap:           r.ChunkOverlap,
		Strategy:               r.Strategy,
		MinScore:               r.MinScore,
		MMRLambda:              r.MMRLambda,
		MMRCandidateMultiplier: r.MMRCandidateMultiplier,
	}.Normalize()
}

// Watch reloads the configuration whenever the file changes, until
// Close is called. Safe to skip for one-shot commands.
func (s *ConfigStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory: editors typically replace the file, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching config directory: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.filePath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Load(); err != nil {
					logger.Warn("config reload failed: %v", err)
					continue
				}
				logger.Debug("config reloaded from %s", s.filePath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error: %v", err)
			case <-done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher, if one is running.
func (s *ConfigStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
