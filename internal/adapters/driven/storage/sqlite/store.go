package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vellum-search/vellum/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
)

// Store is the SQLite-backed document and chunk store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.Store = (*Store)(nil)

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.vellum/data/vellum.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vellum", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vellum.db")

	// WAL mode for concurrent readers during ingestion.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// CreateDocument inserts a new document row and returns its id.
func (s *Store) CreateDocument(ctx context.Context, owner, title, content string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner, title, content, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, id, owner, title, content, now, now)
	if err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

// InsertChunk persists one chunk with its embedding.
func (s *Store) InsertChunk(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, owner, content, position, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, chunk.ID, chunk.DocumentID, chunk.Owner, chunk.Content, chunk.Position,
		encodeVector(chunk.Embedding), createdAt)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// SearchTopK returns the k nearest chunks without their embeddings.
func (s *Store) SearchTopK(ctx context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error) {
	candidates, err := s.nearest(ctx, owner, query, k)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Embedding = nil
	}
	return candidates, nil
}

// SearchCandidates returns the k nearest chunks with embeddings, as
// required by MMR re-ranking.
func (s *Store) SearchCandidates(ctx context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error) {
	return s.nearest(ctx, owner, query, k)
}

// nearest scans every chunk the owner has and ranks by Euclidean
// distance. Ties keep insertion order (rowid ascending, stable sort).
func (s *Store) nearest(ctx context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error) {
	if k < 1 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, content, embedding
		FROM chunks
		WHERE owner = ?
		ORDER BY rowid ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.ChunkCandidate
	for rows.Next() {
		var docID, content string
		var blob []byte
		if err := rows.Scan(&docID, &content, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		embedding := decodeVector(blob)
		candidates = append(candidates, domain.ChunkCandidate{
			DocID:     docID,
			Content:   content,
			Embedding: embedding,
			Distance:  euclideanDistance(query, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// SearchChunksByKeyword returns chunk contents containing the keyword,
// newest first. Matching is a case-insensitive substring test.
func (s *Store) SearchChunksByKeyword(ctx context.Context, owner, keyword string, limit int) ([]string, error) {
	return s.queryContents(ctx, `
		SELECT content FROM chunks
		WHERE owner = ? AND instr(lower(content), lower(?)) > 0
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, owner, keyword, limit)
}

// SearchDocumentsByKeyword returns document contents whose title or
// content contains the keyword, most recently updated first.
func (s *Store) SearchDocumentsByKeyword(ctx context.Context, owner, keyword string, limit int) ([]string, error) {
	return s.queryContents(ctx, `
		SELECT content FROM documents
		WHERE owner = ? AND is_deleted = 0
		  AND (instr(lower(title), lower(?)) > 0 OR instr(lower(content), lower(?)) > 0)
		ORDER BY updated_at DESC, rowid DESC
		LIMIT ?
	`, owner, keyword, keyword, limit)
}

// ListRecentChunks returns the newest chunk contents.
func (s *Store) ListRecentChunks(ctx context.Context, owner string, limit int) ([]string, error) {
	return s.queryContents(ctx, `
		SELECT content FROM chunks
		WHERE owner = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, owner, limit)
}

// ListRecentDocuments returns the most recently updated document
// contents.
func (s *Store) ListRecentDocuments(ctx context.Context, owner string, limit int) ([]string, error) {
	return s.queryContents(ctx, `
		SELECT content FROM documents
		WHERE owner = ? AND is_deleted = 0
		ORDER BY updated_at DESC, rowid DESC
		LIMIT ?
	`, owner, limit)
}

// ListDocuments returns a page of document summaries, newest first.
func (s *Store) ListDocuments(ctx context.Context, owner string, offset, limit int) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM documents
		WHERE owner = ? AND is_deleted = 0
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary
	for rows.Next() {
		var s domain.DocumentSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return summaries, nil
}

// CountDocuments returns the number of live documents for the owner.
func (s *Store) CountDocuments(ctx context.Context, owner string) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE owner = ? AND is_deleted = 0", owner)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// SoftDeleteDocument marks the document deleted and removes its chunks.
func (s *Store) SoftDeleteDocument(ctx context.Context, owner, docID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE documents SET is_deleted = 1, updated_at = ?
		WHERE owner = ? AND id = ? AND is_deleted = 0
	`, time.Now().UTC(), owner, docID)
	if err != nil {
		return false, fmt.Errorf("marking document deleted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE owner = ? AND document_id = ?", owner, docID); err != nil {
		return false, fmt.Errorf("deleting chunks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}
	return true, nil
}

// queryContents runs a query whose single column is a content string.
func (s *Store) queryContents(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contents: %w", err)
	}
	return contents, nil
}

// encodeVector packs float32s into a little-endian blob.
func encodeVector(vector []float32) []byte {
	blob := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[4*i:], math.Float32bits(v))
	}
	return blob
}

// decodeVector unpacks a little-endian blob into float32s.
func decodeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vector
}

// euclideanDistance between two vectors. Mismatched lengths compare
// over the shorter prefix with the excess counted at full magnitude,
// which ranks stale-dimension vectors last in practice.
func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}
