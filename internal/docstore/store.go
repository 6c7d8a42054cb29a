// Package docstore persists document content and indexing status in
// PostgreSQL. Reads go through an in-process LRU cache keyed by document ID,
// since search responses hydrate the same hot documents repeatedly.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lib/pq"

	pkgerrors "github.com/nishanth-tharma/vector-retrieval-platform/pkg/errors"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/postgres"
)

// Document indexing status values.
const (
	StatusPending = "PENDING"
	StatusIndexed = "INDEXED"
	StatusFailed  = "FAILED"
)

// Document is a stored document with its indexing status.
type Document struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes documents in PostgreSQL with an LRU read cache.
type Store struct {
	client *postgres.Client
	cache  *lru.Cache[int, Document]
	logger *slog.Logger
}

// New creates a Store with a read cache of the given size.
func New(client *postgres.Client, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[int, Document](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating document cache: %w", err)
	}
	return &Store{
		client: client,
		cache:  cache,
		logger: slog.Default().With("component", "docstore"),
	}, nil
}

// EnsureSchema creates the documents table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS documents (
			id         SERIAL PRIMARY KEY,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := s.client.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Insert stores a new document in PENDING state and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, title, body string) (int, error) {
	var id int
	err := s.client.DB.QueryRowContext(ctx,
		`INSERT INTO documents (title, body, status) VALUES ($1, $2, $3) RETURNING id`,
		title, body, StatusPending,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

// Get returns a single document by ID, consulting the read cache first.
func (s *Store) Get(ctx context.Context, id int) (Document, error) {
	if doc, ok := s.cache.Get(id); ok {
		return doc, nil
	}
	var doc Document
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT id, title, body, status, created_at FROM documents WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Title, &doc.Body, &doc.Status, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, pkgerrors.Newf(pkgerrors.ErrDocumentNotFound, 404, "document %d", id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("loading document %d: %w", id, err)
	}
	s.cache.Add(id, doc)
	return doc, nil
}

// GetMany returns the documents for the given IDs, preserving input order.
// IDs with no stored document are skipped rather than failing the batch.
func (s *Store) GetMany(ctx context.Context, ids []int) ([]Document, error) {
	docs := make([]Document, 0, len(ids))
	missing := make([]int64, 0)
	byID := make(map[int]Document, len(ids))

	for _, id := range ids {
		if doc, ok := s.cache.Get(id); ok {
			byID[id] = doc
		} else {
			missing = append(missing, int64(id))
		}
	}

	if len(missing) > 0 {
		rows, err := s.client.DB.QueryContext(ctx,
			`SELECT id, title, body, status, created_at FROM documents WHERE id = ANY($1)`,
			pq.Int64Array(missing),
		)
		if err != nil {
			return nil, fmt.Errorf("loading %d documents: %w", len(missing), err)
		}
		defer rows.Close()
		for rows.Next() {
			var doc Document
			if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body, &doc.Status, &doc.CreatedAt); err != nil {
				return nil, fmt.Errorf("scanning document row: %w", err)
			}
			s.cache.Add(doc.ID, doc)
			byID[doc.ID] = doc
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating document rows: %w", err)
		}
	}

	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// UpdateStatus transitions a document's indexing status and drops any cached
// copy so the next read sees the new state.
func (s *Store) UpdateStatus(ctx context.Context, id int, status string) error {
	result, err := s.client.DB.ExecContext(ctx,
		`UPDATE documents SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating document %d status: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return pkgerrors.Newf(pkgerrors.ErrDocumentNotFound, 404, "document %d", id)
	}
	s.cache.Remove(id)
	return nil
}

// StreamAll invokes fn for every stored document in ID order. Used at
// startup to rebuild the in-memory index from the persistent store.
func (s *Store) StreamAll(ctx context.Context, fn func(Document) error) error {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT id, title, body, status, created_at FROM documents ORDER BY id`,
	)
	if err != nil {
		return fmt.Errorf("streaming documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body, &doc.Status, &doc.CreatedAt); err != nil {
			return fmt.Errorf("scanning document row: %w", err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Ping verifies store connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.DB.PingContext(ctx)
}
