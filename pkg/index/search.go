package index

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/kittclouds/gosearch/internal/store"
	"github.com/kittclouds/gosearch/pkg/highlight"
)

// SearchOptions filters and pages a query.
type SearchOptions struct {
	// Type restricts results to one content type. Empty or "all" means
	// no filter.
	Type store.ContentType `json:"type,omitempty"`
	// Limit caps the page size; zero means the configured default.
	Limit int `json:"limit,omitempty"`
	// Offset skips the first N ranked results.
	Offset int `json:"offset,omitempty"`
}

// SearchResult is the lightweight projection returned to the caller.
// The stored text never leaves the index whole; only the truncated
// preview does.
type SearchResult struct {
	ID             string            `json:"id"`
	ContentType    store.ContentType `json:"contentType"`
	Title          string            `json:"title"`
	Preview        string            `json:"preview"`
	Highlights     []highlight.Span  `json:"highlights"`
	RelevanceScore float64           `json:"relevanceScore"`
	CreatedAt      int64             `json:"createdAt"`
	Tags           []string          `json:"tags"`
}

// Search runs a ranked prefix query. Every query word must match (AND
// semantics). Failures are absorbed: a broken index yields an empty
// result list and a log line, never an error, so the search box keeps
// working while the caller arranges a rebuild.
func (m *Manager) Search(ctx context.Context, query string, opts SearchOptions) []SearchResult {
	queryWords := m.tok.Tokenize(query).Words
	if len(queryWords) == 0 {
		return []SearchResult{}
	}

	results, err := m.runSearch(ctx, query, queryWords, opts)
	if err != nil {
		m.log.Error("search failed", "error", err)
		return []SearchResult{}
	}
	return results
}

func (m *Manager) runSearch(ctx context.Context, query string, queryWords []string, opts SearchOptions) ([]SearchResult, error) {
	candidates, err := m.resolveToken(ctx, queryWords[0])
	if err != nil {
		return nil, err
	}

	// AND semantics: intersect each further word, bail on empty.
	for _, word := range queryWords[1:] {
		if len(candidates) == 0 {
			return []SearchResult{}, nil
		}
		ids, err := m.resolveToken(ctx, word)
		if err != nil {
			return nil, err
		}
		candidates = lo.Intersect(candidates, ids)
	}
	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}

	now := time.Now()
	type scored struct {
		content *store.SearchableContent
		score   float64
	}
	var matches []scored

	for _, id := range candidates {
		content, err := m.getContent(ctx, id)
		if err != nil {
			return nil, err
		}
		if content == nil || content.Status == store.StatusDeleted {
			continue
		}
		if opts.Type != "" && opts.Type != "all" && content.ContentType != opts.Type {
			continue
		}
		matches = append(matches, scored{content, relevanceScore(query, content, now)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = m.cfg.DefaultLimit
	}
	offset := max(opts.Offset, 0)
	if offset >= len(matches) {
		return []SearchResult{}, nil
	}
	matches = matches[offset:min(offset+limit, len(matches))]

	hl := highlight.New(queryWords)
	results := make([]SearchResult, 0, len(matches))
	for _, s := range matches {
		preview := truncatePreview(s.content.Text, m.cfg.PreviewLength)
		results = append(results, SearchResult{
			ID:             s.content.ID,
			ContentType:    s.content.ContentType,
			Title:          deriveTitle(s.content),
			Preview:        preview,
			Highlights:     hl.Spans(preview),
			RelevanceScore: s.score,
			CreatedAt:      s.content.CreatedAt,
			Tags:           s.content.Tags,
		})
	}
	return results, nil
}

// resolveToken finds candidate content ids for one query word: exact
// lookup first, then an incremental prefix scan unioning every hit, so
// full-word queries stay O(1) while type-ahead partials still match.
func (m *Manager) resolveToken(ctx context.Context, word string) ([]string, error) {
	ids, err := m.lookupPrefix(ctx, word)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return ids, nil
	}

	runes := []rune(word)
	var union []string
	for i := 1; i <= len(runes); i++ {
		hit, err := m.lookupPrefix(ctx, string(runes[:i]))
		if err != nil {
			return nil, err
		}
		union = append(union, hit...)
	}
	return lo.Uniq(union), nil
}

// lookupPrefix reads the in-memory trie when it is populated, falling
// back to the persisted trie_nodes table on a cold manager.
func (m *Manager) lookupPrefix(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	warm := m.trie.Len() > 0
	var ids []string
	if warm {
		ids = append([]string(nil), m.trie.GetByPrefix(prefix)...)
	}
	m.mu.Unlock()

	if warm {
		return ids, nil
	}

	node, err := m.st.GetTrieNode(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return node.ContentIDs, nil
}

// getContent fetches a content row through the LRU cache.
func (m *Manager) getContent(ctx context.Context, id string) (*store.SearchableContent, error) {
	if c, ok := m.cache.Get(id); ok {
		return c, nil
	}
	c, err := m.st.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		m.cache.Add(id, c)
	}
	return c, nil
}
