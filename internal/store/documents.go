package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// Document is one stored payload.
type Document struct {
	Key      string
	Payload  []byte
	Digest   string
	Revision int64
	SavedAt  int64 // epoch milliseconds
}

// Revision is one entry of a document's save journal.
type Revision struct {
	Revision int64  `json:"revision"`
	Digest   string `json:"digest"`
	Nodes    int    `json:"nodes"`
	SavedAt  int64  `json:"saved_at"`
}

// Put writes payload under key, bumping the revision, and appends a history
// row in the same transaction. nodes is recorded in the history for display.
// Returns the new revision number.
func (s *Store) Put(ctx context.Context, key string, payload []byte, digest string, nodes int, savedAt int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("put %q: begin: %w", key, err)
	}
	defer tx.Rollback()

	var revision int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (key, payload, digest, revision, saved_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload  = excluded.payload,
			digest   = excluded.digest,
			revision = documents.revision + 1,
			saved_at = excluded.saved_at
		RETURNING revision
	`, key, payload, digest, savedAt).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("put %q: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_history (key, revision, digest, nodes, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`, key, revision, digest, nodes, savedAt)
	if err != nil {
		return 0, fmt.Errorf("put %q: history: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("put %q: commit: %w", key, err)
	}
	return revision, nil
}

// Get returns the document stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (Document, error) {
	doc := Document{Key: key}
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, digest, revision, saved_at
		FROM documents
		WHERE key = ?
	`, key).Scan(&doc.Payload, &doc.Digest, &doc.Revision, &doc.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %q: %w", key, err)
	}
	return doc, nil
}

// Digest returns the stored digest for key without reading the payload.
func (s *Store) Digest(ctx context.Context, key string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM documents WHERE key = ?`, key).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("digest %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("digest %q: %w", key, err)
	}
	return digest, nil
}

// Delete removes key and its history. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys in binary order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM documents ORDER BY key COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("keys: scan: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	return keys, nil
}

// History returns up to limit journal entries for key, newest first.
// A limit of 0 or less returns every entry.
func (s *Store) History(ctx context.Context, key string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT revision, digest, nodes, saved_at
		FROM document_history
		WHERE key = ?
		ORDER BY revision DESC
		LIMIT ?
	`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("history %q: %w", key, err)
	}
	defer rows.Close()

	out := []Revision{}
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.Revision, &r.Digest, &r.Nodes, &r.SavedAt); err != nil {
			return nil, fmt.Errorf("history %q: scan: %w", key, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history %q: %w", key, err)
	}
	return out, nil
}
