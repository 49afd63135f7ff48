package cli

import (
	"bytes"
	"context"

	"github.com/vellum-search/vellum/internal/core/domain"
)

// fakeIngestor records ingested content.
type fakeIngestor struct {
	lastOwner   string
	lastTitle   string
	lastContent string
	lastImages  map[string][]byte
	err         error
}

func (f *fakeIngestor) Ingest(_ context.Context, owner, title, content string) (string, error) {
	f.lastOwner, f.lastTitle, f.lastContent = owner, title, content
	return "doc-1", f.err
}

func (f *fakeIngestor) IngestMarkdown(_ context.Context, owner, title, markdown, _ string) (string, error) {
	f.lastOwner, f.lastTitle, f.lastContent = owner, title, markdown
	return "doc-1", f.err
}

func (f *fakeIngestor) IngestMarkdownWithImages(_ context.Context, owner, title, markdown string, images map[string][]byte) (string, error) {
	f.lastOwner, f.lastTitle, f.lastContent, f.lastImages = owner, title, markdown, images
	return "doc-1", f.err
}

// fakeSearcher serves canned matches and context.
type fakeSearcher struct {
	matches []domain.ChunkMatch
	context string
	err     error
}

func (f *fakeSearcher) Search(context.Context, string, string, int) ([]domain.ChunkMatch, error) {
	return f.matches, f.err
}

func (f *fakeSearcher) BuildContext(context.Context, string, string, int) (string, error) {
	return f.context, f.err
}

// fakeDocumentManager serves a canned page.
type fakeDocumentManager struct {
	page    *domain.DocumentPage
	deleted bool
	err     error
}

func (f *fakeDocumentManager) List(context.Context, string, int, int) (*domain.DocumentPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.page == nil {
		return &domain.DocumentPage{Page: 1, Size: 20, TotalPages: 0}, nil
	}
	return f.page, nil
}

func (f *fakeDocumentManager) Delete(context.Context, string, string) (bool, error) {
	return f.deleted, f.err
}

// setupTestServices swaps in fakes and returns a cleanup restoring the
// previous wiring.
func setupTestServices() (ingest *fakeIngestor, search *fakeSearcher, docs *fakeDocumentManager, cleanup func()) {
	oldIngest, oldSearch, oldDocs := ingestService, searchService, documentService

	ingest = &fakeIngestor{}
	search = &fakeSearcher{
		matches: []domain.ChunkMatch{{DocID: "doc-1", Content: "chunk text", Score: 0.9}},
		context: "assembled context",
	}
	docs = &fakeDocumentManager{
		page: &domain.DocumentPage{
			Documents:  []domain.DocumentSummary{{ID: "doc-1", Title: "Test Document 1"}},
			Total:      1,
			Page:       1,
			Size:       20,
			TotalPages: 1,
		},
		deleted: true,
	}

	ingestService, searchService, documentService = ingest, search, docs
	cleanup = func() {
		ingestService, searchService, documentService = oldIngest, oldSearch, oldDocs
		resetFlags()
	}
	return ingest, search, docs, cleanup
}

// resetFlags restores flag-bound package variables between executions;
// cobra does not reset them itself.
func resetFlags() {
	ingestTitle = ""
	ingestImages = nil
	queryTopK = 0
	queryContext = false
	documentPage = 1
	documentSize = 20
}

// executeCommand runs the root command with args and captures output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
