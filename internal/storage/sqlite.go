package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearplan/planrag/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrCacheMiss is returned when no servable cache entry exists
	ErrCacheMiss = errors.New("cache miss")
)

// DefaultEmbeddingDim is the embedding dimension used when none is
// configured (text-embedding-3-large)
const DefaultEmbeddingDim = 3072

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db        *sql.DB
	dimension int
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance. The embedding
// dimension is fixed for the lifetime of the store; pass 0 for the
// default.
func NewSQLiteStorage(dbPath string, dimension int) (*SQLiteStorage, error) {
	if dimension < 0 {
		return nil, fmt.Errorf("%w: embedding dimension must not be negative", types.ErrInvalidInput)
	}
	if dimension == 0 {
		dimension = DefaultEmbeddingDim
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, dimension: dimension}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Dimension returns the fixed embedding dimension of this store
func (s *SQLiteStorage) Dimension() int {
	return s.dimension
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Document operations

// insertDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}

	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}

	version := doc.Version
	if version == "" {
		version = "1.0"
	}

	query := `
		INSERT INTO documents (id, name, borough, category, source_url, file_path,
		                       total_pages, total_chunks, is_active, version, metadata,
		                       created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err = q.ExecContext(ctx, query,
		doc.ID, doc.Name, string(doc.Borough), string(doc.Category),
		doc.SourceURL, doc.FilePath, doc.TotalPages, doc.TotalChunks,
		doc.IsActive, version, metadata, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("document %s: %w", doc.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	doc.Version = version
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertDocument(ctx context.Context, doc *types.Document) error {
	return s.insertDocumentWithQuerier(ctx, s.db, doc)
}

// InsertDocumentWithChunks inserts a document and all of its chunks in a
// single transaction. The document only becomes visible to search once
// every chunk row is committed, so a reader never observes a partially
// populated document.
func (s *SQLiteStorage) InsertDocumentWithChunks(ctx context.Context, doc *types.Document, chunks []*types.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc.TotalChunks = len(chunks)
	if err := s.insertDocumentWithQuerier(ctx, tx, doc); err != nil {
		return err
	}

	for _, chunk := range chunks {
		chunk.DocumentID = doc.ID
		if err := s.insertChunkWithQuerier(ctx, tx, chunk); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, documentID string) (*types.Document, error) {
	query := `
		SELECT id, name, borough, category, source_url, file_path,
		       total_pages, total_chunks, is_active, version, metadata,
		       created_at, updated_at
		FROM documents
		WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, documentID)
	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, filters *SearchFilters, activeOnly bool) ([]*types.Document, error) {
	query := `
		SELECT id, name, borough, category, source_url, file_path,
		       total_pages, total_chunks, is_active, version, metadata,
		       created_at, updated_at
		FROM documents
		WHERE 1=1
	`
	args := make([]interface{}, 0, 3)
	if activeOnly {
		query += " AND is_active = 1"
	}
	if filters != nil && filters.Borough != "" {
		query += " AND borough = ?"
		args = append(args, filters.Borough)
	}
	if filters != nil && filters.Category != "" {
		query += " AND category = ?"
		args = append(args, filters.Category)
	}
	query += " ORDER BY borough, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*types.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SetDocumentActive toggles a document's visibility to search. Chunks
// are untouched; the rankers exclude inactive documents at query time.
func (s *SQLiteStorage) SetDocumentActive(ctx context.Context, documentID string, active bool) error {
	query := `UPDATE documents SET is_active = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, active, time.Now(), documentID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document; its chunks go with it via the
// foreign key cascade.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *types.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if len(chunk.Embedding) != s.dimension {
		return fmt.Errorf("%w: chunk %s has dimension %d, store requires %d",
			types.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), s.dimension)
	}

	metadata, err := marshalMetadata(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode chunk metadata: %w", err)
	}

	if chunk.TokenCount == 0 {
		chunk.ComputeTokenCount()
	}

	query := `
		INSERT INTO chunks (id, document_id, content, page_number, section_title,
		                    chunk_index, token_count, embedding, dimension, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err = q.ExecContext(ctx, query,
		chunk.ID, chunk.DocumentID, chunk.Content, chunk.PageNumber, chunk.SectionTitle,
		chunk.ChunkIndex, chunk.TokenCount, serializeVector(chunk.Embedding),
		len(chunk.Embedding), metadata, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("chunk %s: %w", chunk.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	chunk.Dimension = len(chunk.Embedding)
	chunk.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.db, chunk)
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error) {
	query := `
		SELECT id, document_id, content, page_number, section_title,
		       chunk_index, token_count, embedding, dimension, metadata, created_at
		FROM chunks
		WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, chunkID)
	chunk, err := scanChunk(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	query := `
		SELECT id, document_id, content, page_number, section_title,
		       chunk_index, token_count, embedding, dimension, metadata, created_at
		FROM chunks
		WHERE document_id = ?
		ORDER BY chunk_index
	`
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*types.Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// GetChunkDetails fetches result-assembly fields for a set of chunk ids
// in one query, joined with the owning document
func (s *SQLiteStorage) GetChunkDetails(ctx context.Context, chunkIDs []string) (map[string]*ChunkDetail, error) {
	details := make(map[string]*ChunkDetail, len(chunkIDs))
	if len(chunkIDs) == 0 {
		return details, nil
	}

	placeholders := make([]string, len(chunkIDs))
	args := make([]interface{}, len(chunkIDs))
	for i, id := range chunkIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `
		SELECT c.id, c.document_id, d.name, d.borough, c.content,
		       c.page_number, c.section_title, c.metadata
		FROM chunks c
		INNER JOIN documents d ON c.document_id = d.id
		WHERE c.id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunk details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d ChunkDetail
		var pageNumber sql.NullInt64
		var sectionTitle sql.NullString
		var metadata sql.NullString
		err := rows.Scan(&d.ChunkID, &d.DocumentID, &d.DocumentName, &d.Borough,
			&d.Content, &pageNumber, &sectionTitle, &metadata)
		if err != nil {
			return nil, err
		}
		if pageNumber.Valid {
			n := int(pageNumber.Int64)
			d.PageNumber = &n
		}
		if sectionTitle.Valid {
			t := sectionTitle.String
			d.SectionTitle = &t
		}
		if metadata.Valid {
			d.Metadata, err = unmarshalMetadata(metadata.String)
			if err != nil {
				return nil, err
			}
		}
		details[d.ChunkID] = &d
	}
	return details, rows.Err()
}

// Status operations

func (s *SQLiteStorage) Status(ctx context.Context) (*Status, error) {
	status := &Status{EmbeddingDim: s.dimension}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&status.Documents)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE is_active = 1").Scan(&status.ActiveDocuments)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&status.Chunks)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_cache").Scan(&status.CacheEntries)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM query_cache WHERE is_valid = 1 AND expires_at > ?", time.Now()).Scan(&status.ValidCacheRows)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM aggregate_stats").Scan(&status.StatRows)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return status, nil
}

// Scan helpers

func scanDocument(scan func(dest ...interface{}) error) (*types.Document, error) {
	var doc types.Document
	var borough, category string
	var sourceURL, filePath, metadata sql.NullString
	err := scan(
		&doc.ID, &doc.Name, &borough, &category, &sourceURL, &filePath,
		&doc.TotalPages, &doc.TotalChunks, &doc.IsActive, &doc.Version,
		&metadata, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Borough = types.Borough(borough)
	doc.Category = types.Category(category)
	if sourceURL.Valid {
		doc.SourceURL = sourceURL.String
	}
	if filePath.Valid {
		doc.FilePath = filePath.String
	}
	if metadata.Valid {
		doc.Metadata, err = unmarshalMetadata(metadata.String)
		if err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

func scanChunk(scan func(dest ...interface{}) error) (*types.Chunk, error) {
	var chunk types.Chunk
	var pageNumber sql.NullInt64
	var sectionTitle, metadata sql.NullString
	var embedding []byte
	err := scan(
		&chunk.ID, &chunk.DocumentID, &chunk.Content, &pageNumber, &sectionTitle,
		&chunk.ChunkIndex, &chunk.TokenCount, &embedding, &chunk.Dimension,
		&metadata, &chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	chunk.Embedding = deserializeVector(embedding)
	if pageNumber.Valid {
		n := int(pageNumber.Int64)
		chunk.PageNumber = &n
	}
	if sectionTitle.Valid {
		t := sectionTitle.String
		chunk.SectionTitle = &t
	}
	if metadata.Valid {
		chunk.Metadata, err = unmarshalMetadata(metadata.String)
		if err != nil {
			return nil, err
		}
	}
	return &chunk, nil
}

func marshalMetadata(m map[string]any) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return m, nil
}
