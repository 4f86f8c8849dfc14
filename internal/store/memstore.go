// In-memory Storer implementation for tests and the native harness.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory implementation of Storer.
type MemStore struct {
	mu       sync.RWMutex
	contents map[string]*SearchableContent
	tokens   map[string]*IndexToken // key: contentID + "\x00" + wordToken
	trie     map[string]*TrieNode
	meta     *IndexMetadata
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		contents: make(map[string]*SearchableContent),
		tokens:   make(map[string]*IndexToken),
		trie:     make(map[string]*TrieNode),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

func tokenKey(contentID, wordToken string) string {
	return contentID + "\x00" + wordToken
}

// =============================================================================
// Content
// =============================================================================

func (s *MemStore) UpsertContent(_ context.Context, content *SearchableContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid mutation issues
	c := *content
	c.Tags = append([]string(nil), content.Tags...)
	s.contents[c.ID] = &c
	return nil
}

func (s *MemStore) GetContent(_ context.Context, id string) (*SearchableContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contents[id]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	return &out, nil
}

func (s *MemStore) DeleteContent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contents, id)
	return nil
}

func (s *MemStore) CountContent(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.contents), nil
}

// =============================================================================
// Tokens
// =============================================================================

func (s *MemStore) ListTokensForContent(_ context.Context, contentID string) ([]*IndexToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*IndexToken
	prefix := contentID + "\x00"
	for key, t := range s.tokens {
		if strings.HasPrefix(key, prefix) {
			tt := *t
			tt.Positions = append([]int(nil), t.Positions...)
			out = append(out, &tt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordToken < out[j].WordToken })
	return out, nil
}

func (s *MemStore) DeleteTokensForContent(_ context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := contentID + "\x00"
	for key := range s.tokens {
		if strings.HasPrefix(key, prefix) {
			delete(s.tokens, key)
		}
	}
	return nil
}

func (s *MemStore) PutBatch(ctx context.Context, contents []*SearchableContent, tokens []*IndexToken) error {
	for _, c := range contents {
		if err := s.UpsertContent(ctx, c); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tokens {
		tt := *t
		tt.Positions = append([]int(nil), t.Positions...)
		s.tokens[tokenKey(t.ContentID, t.WordToken)] = &tt
	}
	return nil
}

// =============================================================================
// Trie nodes
// =============================================================================

func (s *MemStore) GetTrieNode(_ context.Context, prefix string) (*TrieNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.trie[prefix]
	if !ok {
		return nil, nil
	}
	return copyTrieNode(n), nil
}

func (s *MemStore) PutTrieNodes(_ context.Context, nodes []*TrieNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range nodes {
		s.trie[n.Prefix] = copyTrieNode(n)
	}
	return nil
}

func (s *MemStore) DeleteTrieNode(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.trie, prefix)
	return nil
}

func (s *MemStore) ListTrieNodes(_ context.Context) ([]*TrieNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*TrieNode, 0, len(s.trie))
	for _, n := range s.trie {
		out = append(out, copyTrieNode(n))
	}
	return out, nil
}

func copyTrieNode(n *TrieNode) *TrieNode {
	out := *n
	out.Children = append([]string(nil), n.Children...)
	out.ContentIDs = append([]string(nil), n.ContentIDs...)
	return &out
}

// =============================================================================
// Metadata
// =============================================================================

func (s *MemStore) GetMetadata(_ context.Context) (*IndexMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.meta == nil {
		return &IndexMetadata{Status: IndexEmpty}, nil
	}
	out := *s.meta
	return &out, nil
}

func (s *MemStore) PutMetadata(_ context.Context, meta *IndexMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := *meta
	s.meta = &m
	return nil
}

// =============================================================================
// Bulk
// =============================================================================

func (s *MemStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contents = make(map[string]*SearchableContent)
	s.tokens = make(map[string]*IndexToken)
	s.trie = make(map[string]*TrieNode)
	return nil
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
