// SQLite-backed Storer using ncruces/go-sqlite3, which provides a
// database/sql interface and runs under js/wasm.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the SQLite-backed index store.
// Thread-safe for concurrent WASM callbacks.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// metadataKey is the primary key of the single metadata row.
const metadataKey = "status"

const schema = `
-- Content mirror (one row per indexable document)
CREATE TABLE IF NOT EXISTS content (
    id TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    text TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'active',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_type ON content(content_type);

-- Token rows, composite key mirrors the IndexedDB keyPath
CREATE TABLE IF NOT EXISTS tokens (
    content_id TEXT NOT NULL,
    word_token TEXT NOT NULL,
    token_type TEXT NOT NULL,
    positions TEXT NOT NULL DEFAULT '[]',
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (content_id, word_token)
);

CREATE INDEX IF NOT EXISTS idx_tokens_word ON tokens(word_token);

-- Persisted trie, keyed by raw prefix string
CREATE TABLE IF NOT EXISTS trie_nodes (
    prefix TEXT PRIMARY KEY,
    node_type TEXT NOT NULL,
    children TEXT NOT NULL DEFAULT '[]',
    content_ids TEXT NOT NULL DEFAULT '[]',
    frequency INTEGER NOT NULL DEFAULT 0
);

-- Single keyed health record
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    last_indexed INTEGER,
    items_indexed INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'empty'
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Content
// =============================================================================

func (s *SQLiteStore) UpsertContent(ctx context.Context, content *SearchableContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, err := json.Marshal(content.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content (id, content_type, text, tags, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content_type = excluded.content_type,
			text = excluded.text,
			tags = excluded.tags,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, content.ID, content.ContentType, content.Text, string(tagsJSON),
		content.Status, content.CreatedAt, content.UpdatedAt)

	return err
}

func (s *SQLiteStore) GetContent(ctx context.Context, id string) (*SearchableContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c SearchableContent
	var tagsJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, content_type, text, tags, status, created_at, updated_at
		FROM content WHERE id = ?
	`, id).Scan(&c.ID, &c.ContentType, &c.Text, &tagsJSON, &c.Status, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		c.Tags = []string{}
	}

	return &c, nil
}

func (s *SQLiteStore) DeleteContent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM content WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) CountContent(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&count)
	return count, err
}

// =============================================================================
// Tokens
// =============================================================================

func (s *SQLiteStore) ListTokensForContent(ctx context.Context, contentID string) ([]*IndexToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT content_id, word_token, token_type, positions, frequency
		FROM tokens WHERE content_id = ? ORDER BY word_token
	`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*IndexToken
	for rows.Next() {
		var t IndexToken
		var positionsJSON string

		if err := rows.Scan(&t.ContentID, &t.WordToken, &t.TokenType, &positionsJSON, &t.Frequency); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(positionsJSON), &t.Positions); err != nil {
			t.Positions = []int{}
		}
		tokens = append(tokens, &t)
	}

	return tokens, rows.Err()
}

// DeleteTokensForContent range-deletes every token row keyed by contentID.
func (s *SQLiteStore) DeleteTokensForContent(ctx context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE content_id = ?", contentID)
	return err
}

// PutBatch upserts content and token rows in one transaction.
// A failure rolls back every write in the batch.
func (s *SQLiteStore) PutBatch(ctx context.Context, contents []*SearchableContent, tokens []*IndexToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, c := range contents {
		tagsJSON, err := json.Marshal(c.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO content (id, content_type, text, tags, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				content_type = excluded.content_type,
				text = excluded.text,
				tags = excluded.tags,
				status = excluded.status,
				updated_at = excluded.updated_at
		`, c.ID, c.ContentType, c.Text, string(tagsJSON), c.Status, c.CreatedAt, c.UpdatedAt); err != nil {
			return err
		}
	}

	for _, t := range tokens {
		positionsJSON, err := json.Marshal(t.Positions)
		if err != nil {
			return fmt.Errorf("failed to marshal positions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tokens (content_id, word_token, token_type, positions, frequency)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(content_id, word_token) DO UPDATE SET
				token_type = excluded.token_type,
				positions = excluded.positions,
				frequency = excluded.frequency
		`, t.ContentID, t.WordToken, t.TokenType, string(positionsJSON), t.Frequency); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// Trie nodes
// =============================================================================

func (s *SQLiteStore) GetTrieNode(ctx context.Context, prefix string) (*TrieNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n TrieNode
	var childrenJSON, idsJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT prefix, node_type, children, content_ids, frequency
		FROM trie_nodes WHERE prefix = ?
	`, prefix).Scan(&n.Prefix, &n.NodeType, &childrenJSON, &idsJSON, &n.Frequency)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(childrenJSON), &n.Children); err != nil {
		n.Children = []string{}
	}
	if err := json.Unmarshal([]byte(idsJSON), &n.ContentIDs); err != nil {
		n.ContentIDs = []string{}
	}

	return &n, nil
}

// PutTrieNodes upserts nodes in one transaction.
func (s *SQLiteStore) PutTrieNodes(ctx context.Context, nodes []*TrieNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trie write: %w", err)
	}
	defer tx.Rollback()

	for _, n := range nodes {
		childrenJSON, err := json.Marshal(n.Children)
		if err != nil {
			return fmt.Errorf("failed to marshal children: %w", err)
		}
		idsJSON, err := json.Marshal(n.ContentIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal content ids: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trie_nodes (prefix, node_type, children, content_ids, frequency)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(prefix) DO UPDATE SET
				node_type = excluded.node_type,
				children = excluded.children,
				content_ids = excluded.content_ids,
				frequency = excluded.frequency
		`, n.Prefix, n.NodeType, string(childrenJSON), string(idsJSON), n.Frequency); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteTrieNode(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM trie_nodes WHERE prefix = ?", prefix)
	return err
}

func (s *SQLiteStore) ListTrieNodes(ctx context.Context) ([]*TrieNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT prefix, node_type, children, content_ids, frequency FROM trie_nodes
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*TrieNode
	for rows.Next() {
		var n TrieNode
		var childrenJSON, idsJSON string

		if err := rows.Scan(&n.Prefix, &n.NodeType, &childrenJSON, &idsJSON, &n.Frequency); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(childrenJSON), &n.Children); err != nil {
			n.Children = []string{}
		}
		if err := json.Unmarshal([]byte(idsJSON), &n.ContentIDs); err != nil {
			n.ContentIDs = []string{}
		}
		nodes = append(nodes, &n)
	}

	return nodes, rows.Err()
}

// =============================================================================
// Metadata
// =============================================================================

// GetMetadata returns the health record, or the empty default when the
// row has never been written.
func (s *SQLiteStore) GetMetadata(ctx context.Context) (*IndexMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var meta IndexMetadata
	var lastIndexed sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT last_indexed, items_indexed, status FROM metadata WHERE key = ?
	`, metadataKey).Scan(&lastIndexed, &meta.ItemsIndexed, &meta.Status)

	if err == sql.ErrNoRows {
		return &IndexMetadata{Status: IndexEmpty}, nil
	}
	if err != nil {
		return nil, err
	}

	if lastIndexed.Valid {
		meta.LastIndexed = &lastIndexed.Int64
	}

	return &meta, nil
}

func (s *SQLiteStore) PutMetadata(ctx context.Context, meta *IndexMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastIndexed any
	if meta.LastIndexed != nil {
		lastIndexed = *meta.LastIndexed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, last_indexed, items_indexed, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			last_indexed = excluded.last_indexed,
			items_indexed = excluded.items_indexed,
			status = excluded.status
	`, metadataKey, lastIndexed, meta.ItemsIndexed, meta.Status)

	return err
}

// =============================================================================
// Bulk
// =============================================================================

// ClearAll empties content, tokens and trie_nodes in one transaction.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"content", "tokens", "trie_nodes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
