// Package index orchestrates the client-resident search index: full
// rebuilds, incremental updates and ranked prefix search over decrypted
// note content.
//
// The in-memory trie is authoritative after any update; the persisted
// trie_nodes table lazily converges on the next full rebuild. The whole
// index is a disposable cache: on corruption it is always safe to clear
// and rebuild from the content list.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/gosearch/internal/store"
	"github.com/kittclouds/gosearch/pkg/tokenizer"
	"github.com/kittclouds/gosearch/pkg/trie"
)

// Manager owns the in-memory trie and is the only writer to the four
// index tables. Construct one per application and thread it through to
// whatever owns the search feature; there is no package-level instance.
type Manager struct {
	cfg Config
	st  store.Storer
	log *slog.Logger
	tok *tokenizer.Tokenizer

	mu           sync.Mutex
	trie         *trie.Trie
	building     bool
	initialized  bool
	listeners    map[EventType]map[int]Handler
	nextListener int

	cache *lru.Cache[string, *store.SearchableContent]
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg.withDefaults() }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithTokenizer overrides the default tokenizer, e.g. to change the
// chord-token grammar.
func WithTokenizer(tok *tokenizer.Tokenizer) Option {
	return func(m *Manager) { m.tok = tok }
}

// New creates a Manager over a store. Call Initialize before anything else.
func New(st store.Storer, opts ...Option) *Manager {
	m := &Manager{
		cfg:       DefaultConfig(),
		st:        st,
		log:       slog.Default(),
		tok:       tokenizer.New(),
		trie:      trie.New(),
		listeners: make(map[EventType]map[int]Handler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache, _ = lru.New[string, *store.SearchableContent](m.cfg.CacheSize)
	return m
}

// Initialize probes the store and, when a ready index is already
// persisted, hydrates the in-memory trie from the trie_nodes table.
// Idempotent; must succeed before any other operation.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if m.st == nil {
		return ErrStoreUnavailable
	}

	meta, err := m.st.GetMetadata(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	hydrated := trie.New()
	if meta.Status == store.IndexReady {
		nodes, err := m.st.ListTrieNodes(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		hydrated = trie.FromNodes(fromStoreNodes(nodes))
		m.log.Info("hydrated trie from persisted index", "nodes", hydrated.Len())
	}

	m.mu.Lock()
	m.trie = hydrated
	m.initialized = true
	m.mu.Unlock()
	return nil
}

// RebuildIndex rebuilds the whole index from the authoritative content
// list. Single-flight: a rebuild requested while one is running returns
// ErrRebuildInProgress and is not queued. Processing failures are
// absorbed: status flips to error and a rebuild-error event fires, but
// no error is returned because the index is always re-derivable.
func (m *Manager) RebuildIndex(ctx context.Context, contentList []*store.SearchableContent) error {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	if m.building {
		m.mu.Unlock()
		m.log.Warn("index rebuild already in progress")
		return ErrRebuildInProgress
	}
	m.building = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.building = false
		m.mu.Unlock()
	}()

	m.emit(Event{Type: EventRebuildStarted, ItemsTotal: len(contentList)})
	m.log.Info("index rebuild started", "items", len(contentList))

	if err := m.rebuild(ctx, contentList); err != nil {
		m.log.Error("index rebuild failed", "error", err)
		if merr := m.st.PutMetadata(ctx, &store.IndexMetadata{Status: store.IndexError}); merr != nil {
			m.log.Error("failed to record error status", "error", merr)
		}
		m.emit(Event{Type: EventRebuildError, Err: err})
		return nil
	}

	m.emit(Event{Type: EventRebuildCompleted, ItemsIndexed: len(contentList)})
	m.log.Info("index rebuild completed", "items", len(contentList))
	return nil
}

func (m *Manager) rebuild(ctx context.Context, contentList []*store.SearchableContent) error {
	if err := m.st.PutMetadata(ctx, &store.IndexMetadata{Status: store.IndexBuilding}); err != nil {
		return fmt.Errorf("failed to mark index building: %w", err)
	}
	if err := m.st.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	m.cache.Purge()

	fresh := trie.New()
	processed := 0

	for start := 0; start < len(contentList); start += m.cfg.BatchSize {
		end := min(start+m.cfg.BatchSize, len(contentList))
		batch := contentList[start:end]

		// Tokenization is pure, so it parallelizes; trie and store
		// writes stay serial.
		results := make([]tokenizer.Result, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.cfg.TokenizeWorkers)
		for i := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = m.tok.Tokenize(batch[i].Text)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var tokens []*store.IndexToken
		for i, content := range batch {
			tokens = append(tokens, indexContent(fresh, content, results[i])...)
		}

		if err := m.st.PutBatch(ctx, batch, tokens); err != nil {
			return fmt.Errorf("failed to persist batch: %w", err)
		}

		processed += len(batch)
		m.emit(Event{Type: EventRebuildProgress, ItemsProcessed: processed, ItemsTotal: len(contentList)})
	}

	if err := m.st.PutTrieNodes(ctx, toStoreNodes(fresh.Nodes())); err != nil {
		return fmt.Errorf("failed to persist trie: %w", err)
	}

	m.mu.Lock()
	m.trie = fresh
	m.mu.Unlock()

	now := time.Now().UnixMilli()
	if err := m.st.PutMetadata(ctx, &store.IndexMetadata{
		LastIndexed:  &now,
		ItemsIndexed: len(contentList),
		Status:       store.IndexReady,
	}); err != nil {
		return fmt.Errorf("failed to mark index ready: %w", err)
	}

	return nil
}

// AddContentToIndex incrementally upserts one item. The in-memory trie
// is fully updated; only persisted nodes sharing the first token's
// prefix are written back, a deliberate approximation that bounds write
// volume until the next full rebuild. Must not be called while a rebuild
// is in flight.
func (m *Manager) AddContentToIndex(ctx context.Context, content *store.SearchableContent) error {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	m.mu.Unlock()

	res := m.tok.Tokenize(content.Text)

	m.mu.Lock()
	tokens := indexContent(m.trie, content, res)

	var dirty []*trie.Node
	if len(res.Words) > 0 {
		first := res.Words[0]
		for _, n := range m.trie.Nodes() {
			if strings.HasPrefix(n.Prefix, first) {
				dirty = append(dirty, n)
			}
		}
	}
	m.mu.Unlock()

	if err := m.st.PutBatch(ctx, []*store.SearchableContent{content}, tokens); err != nil {
		return fmt.Errorf("failed to persist content: %w", err)
	}
	if len(dirty) > 0 {
		if err := m.st.PutTrieNodes(ctx, toStoreNodes(dirty)); err != nil {
			return fmt.Errorf("failed to persist trie nodes: %w", err)
		}
	}

	m.cache.Remove(content.ID)
	return nil
}

// RemoveContentFromIndex deletes one item's contribution: its content
// row, its token rows, and its id in every trie node. Nodes left with no
// content ids are dropped from the persisted trie.
func (m *Manager) RemoveContentFromIndex(ctx context.Context, contentID string) error {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	m.trie.RemoveContent(contentID)
	var keep, drop []*trie.Node
	for _, n := range m.trie.Nodes() {
		if len(n.ContentIDs) == 0 {
			drop = append(drop, n)
		} else {
			keep = append(keep, n)
		}
	}
	m.mu.Unlock()

	if err := m.st.DeleteContent(ctx, contentID); err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	if err := m.st.DeleteTokensForContent(ctx, contentID); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	for _, n := range drop {
		if err := m.st.DeleteTrieNode(ctx, n.Prefix); err != nil {
			return fmt.Errorf("failed to delete trie node: %w", err)
		}
	}
	if len(keep) > 0 {
		if err := m.st.PutTrieNodes(ctx, toStoreNodes(keep)); err != nil {
			return fmt.Errorf("failed to persist trie nodes: %w", err)
		}
	}

	m.cache.Remove(contentID)
	return nil
}

// ClearIndex drops every table and the in-memory trie, and resets the
// health record to empty.
func (m *Manager) ClearIndex(ctx context.Context) error {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	m.trie.Clear()
	m.mu.Unlock()
	m.cache.Purge()

	if err := m.st.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return m.st.PutMetadata(ctx, &store.IndexMetadata{Status: store.IndexEmpty})
}

// GetStatus returns the current health record.
func (m *Manager) GetStatus(ctx context.Context) (*store.IndexMetadata, error) {
	return m.st.GetMetadata(ctx)
}

// indexContent inserts one item's tokens into t and returns its token
// rows: one per distinct word, phrase, chord and tag. Phrases and
// multi-word tags enter the trie with whitespace removed so they match
// as one contiguous token.
func indexContent(t *trie.Trie, content *store.SearchableContent, res tokenizer.Result) []*store.IndexToken {
	var tokens []*store.IndexToken

	for word, freq := range res.Frequencies() {
		positions := res.Positions[word]
		if positions == nil {
			positions = []int{}
		}
		tokens = append(tokens, &store.IndexToken{
			ContentID: content.ID,
			WordToken: word,
			TokenType: store.TokenWord,
			Positions: positions,
			Frequency: freq,
		})
	}
	// Insert per occurrence so node frequencies count repeats.
	for _, word := range res.Words {
		t.Insert(word, content.ID)
	}

	seenPhrases := make(map[string]bool)
	for _, phrase := range res.Phrases {
		if seenPhrases[phrase] {
			continue
		}
		seenPhrases[phrase] = true
		tokens = append(tokens, &store.IndexToken{
			ContentID: content.ID,
			WordToken: phrase,
			TokenType: store.TokenPhrase,
			Positions: []int{},
			Frequency: 1,
		})
		t.Insert(strings.ReplaceAll(phrase, " ", ""), content.ID)
	}

	seenChords := make(map[string]bool)
	for _, chord := range res.Chords {
		key := strings.ToLower(chord)
		// Bare root letters are too noisy to index on their own.
		if len(key) <= 1 || seenChords[key] {
			continue
		}
		seenChords[key] = true
		tokens = append(tokens, &store.IndexToken{
			ContentID: content.ID,
			WordToken: key,
			TokenType: store.TokenChord,
			Positions: res.Positions[key],
			Frequency: 1,
		})
		t.Insert(key, content.ID)
	}

	seenTags := make(map[string]bool)
	for _, tag := range content.Tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if len(key) <= 1 || seenTags[key] {
			continue
		}
		seenTags[key] = true
		tokens = append(tokens, &store.IndexToken{
			ContentID: content.ID,
			WordToken: key,
			TokenType: store.TokenTag,
			Positions: []int{},
			Frequency: 1,
		})
		t.Insert(strings.ReplaceAll(key, " ", ""), content.ID)
	}

	return tokens
}

func toStoreNodes(nodes []*trie.Node) []*store.TrieNode {
	out := make([]*store.TrieNode, len(nodes))
	for i, n := range nodes {
		out[i] = &store.TrieNode{
			Prefix:     n.Prefix,
			NodeType:   string(n.NodeType),
			Children:   n.Children,
			ContentIDs: n.ContentIDs,
			Frequency:  n.Frequency,
		}
	}
	return out
}

func fromStoreNodes(nodes []*store.TrieNode) []*trie.Node {
	out := make([]*trie.Node, len(nodes))
	for i, n := range nodes {
		out[i] = &trie.Node{
			Prefix:     n.Prefix,
			NodeType:   trie.NodeType(n.NodeType),
			Children:   n.Children,
			ContentIDs: n.ContentIDs,
			Frequency:  n.Frequency,
		}
	}
	return out
}
