package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-search/vellum/internal/core/domain"
)

func TestNewConfigStore_DefaultsWithoutFile(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	settings := store.Retrieval()
	assert.Equal(t, domain.DefaultVectorSize, settings.VectorSize)
	assert.Equal(t, domain.StrategyMMR, settings.Strategy)
	assert.Equal(t, "hash", store.Config().Embedding.Provider)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
[retrieval]
top_k = 9
strategy = "PLAIN"
min_score = 0.5

[embedding]
provider = "ollama"
ollama_model = "mxbai-embed-large"

[ocr]
language = "eng"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	settings := store.Retrieval()
	assert.Equal(t, 9, settings.TopK)
	assert.Equal(t, domain.StrategyPlain, settings.Strategy, "strategy is case-insensitive")
	assert.Equal(t, 0.5, settings.MinScore)
	// Untouched fields keep their defaults.
	assert.Equal(t, domain.DefaultChunkSize, settings.ChunkSize)

	assert.Equal(t, "ollama", store.Config().Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", store.Config().Embedding.OllamaModel)
	assert.Equal(t, "eng", store.Config().OCR.Language)
}

func TestRetrieval_NormalizesBadValues(t *testing.T) {
	dir := t.TempDir()
	content := `
[retrieval]
vector_size = 2
top_k = -1
chunk_size = 100
chunk_overlap = 500
strategy = "nonsense"
mmr_lambda = 3.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	settings := store.Retrieval()
	assert.Equal(t, domain.MinVectorSize, settings.VectorSize)
	assert.Equal(t, domain.DefaultTopK, settings.TopK)
	assert.Equal(t, 25, settings.ChunkOverlap, "overlap >= size coerces to size/4")
	assert.Equal(t, domain.StrategyPlain, settings.Strategy)
	assert.Equal(t, 1.0, settings.MMRLambda)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save())

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, store.Config(), reopened.Config())
}

func TestReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTopK, store.Retrieval().TopK)

	content := "[retrieval]\ntop_k = 42\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	// Watch() reacts to the same Load path; drive it directly so the
	// test does not depend on inotify timing.
	require.NoError(t, store.Load())
	assert.Equal(t, 42, store.Retrieval().TopK)
}

func TestWatchAndClose(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Watch())
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "double close is safe")
}
