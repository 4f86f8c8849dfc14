// Package store provides persistence for the search index.
// This file contains the row models and the Storer interface.
package store

import "context"

// ContentType identifies the kind of document behind a content row.
type ContentType string

const (
	ContentIdea     ContentType = "idea"
	ContentInfobase ContentType = "infobase"
)

// ContentStatus is the lifecycle state of a content row. Deleted rows
// stay indexable but must never surface in search results.
type ContentStatus string

const (
	StatusActive  ContentStatus = "active"
	StatusDeleted ContentStatus = "deleted"
)

// SearchableContent is one indexable document. Text arrives already
// decrypted; the row only lives inside this disposable index store.
type SearchableContent struct {
	ID          string        `json:"id"`
	ContentType ContentType   `json:"contentType"`
	Text        string        `json:"text"`
	Tags        []string      `json:"tags"`
	Status      ContentStatus `json:"status"`
	CreatedAt   int64         `json:"createdAt"`
	UpdatedAt   int64         `json:"updatedAt"`
}

// TokenType classifies an IndexToken row.
type TokenType string

const (
	TokenWord   TokenType = "word"
	TokenPhrase TokenType = "phrase"
	TokenChord  TokenType = "chord"
	// TokenTag is reserved for wire compatibility with the TypeScript
	// client; tags are scored directly and never tokenized here.
	TokenTag TokenType = "tag"
)

// IndexToken is one (contentId, wordToken) row.
type IndexToken struct {
	ContentID string    `json:"contentId"`
	WordToken string    `json:"wordToken"`
	TokenType TokenType `json:"tokenType"`
	Positions []int     `json:"positions"`
	Frequency int       `json:"frequency"`
}

// TrieNode is the persisted form of a trie node, keyed by prefix.
type TrieNode struct {
	Prefix     string   `json:"prefix"`
	NodeType   string   `json:"nodeType"`
	Children   []string `json:"children"`
	ContentIDs []string `json:"contentIds"`
	Frequency  int      `json:"frequency"`
}

// IndexStatus is the coarse health of the whole index.
type IndexStatus string

const (
	IndexEmpty    IndexStatus = "empty"
	IndexBuilding IndexStatus = "building"
	IndexReady    IndexStatus = "ready"
	IndexError    IndexStatus = "error"
)

// IndexMetadata is the single health record for the index.
type IndexMetadata struct {
	LastIndexed  *int64      `json:"lastIndexed"`
	ItemsIndexed int         `json:"itemsIndexed"`
	Status       IndexStatus `json:"status"`
}

// Storer defines the persistence contract consumed by the index manager.
// This allows swapping between MemStore (testing) and SQLiteStore
// (production). Writes inside PutBatch and PutTrieNodes are atomic:
// either every row lands or none do.
type Storer interface {
	// Content
	UpsertContent(ctx context.Context, content *SearchableContent) error
	GetContent(ctx context.Context, id string) (*SearchableContent, error)
	DeleteContent(ctx context.Context, id string) error
	CountContent(ctx context.Context) (int, error)

	// Tokens
	ListTokensForContent(ctx context.Context, contentID string) ([]*IndexToken, error)
	DeleteTokensForContent(ctx context.Context, contentID string) error

	// PutBatch writes content rows and token rows in one transaction.
	PutBatch(ctx context.Context, contents []*SearchableContent, tokens []*IndexToken) error

	// Trie nodes
	GetTrieNode(ctx context.Context, prefix string) (*TrieNode, error)
	PutTrieNodes(ctx context.Context, nodes []*TrieNode) error
	DeleteTrieNode(ctx context.Context, prefix string) error
	ListTrieNodes(ctx context.Context) ([]*TrieNode, error)

	// Metadata
	GetMetadata(ctx context.Context) (*IndexMetadata, error)
	PutMetadata(ctx context.Context, meta *IndexMetadata) error

	// ClearAll empties content, tokens and trie_nodes. Metadata is left
	// for the caller to reset explicitly.
	ClearAll(ctx context.Context) error

	// Lifecycle
	Close() error
}
