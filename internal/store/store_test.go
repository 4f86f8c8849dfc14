package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Store Factory for Testing Both Implementations
// =============================================================================

// storeFactory creates a store for testing.
// We test both MemStore and SQLiteStore with the same test suite.
type storeFactory func() (Storer, error)

func memStoreFactory() (Storer, error) {
	return NewMemStore(), nil
}

func sqliteStoreFactory() (Storer, error) {
	return NewSQLiteStore()
}

// runTestsForAllStores runs a test function against both store implementations.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store Storer)) {
	factories := map[string]storeFactory{
		"MemStore":    memStoreFactory,
		"SQLiteStore": sqliteStoreFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			store, err := factory()
			require.NoError(t, err, "Failed to create store")
			defer store.Close()
			testFn(t, store)
		})
	}
}

func sampleContent(id string) *SearchableContent {
	return &SearchableContent{
		ID:          id,
		ContentType: ContentIdea,
		Text:        "warm analog bus compression",
		Tags:        []string{"mixing", "analog"},
		Status:      StatusActive,
		CreatedAt:   1700000000000,
		UpdatedAt:   1700000000000,
	}
}

// =============================================================================
// Content
// =============================================================================

func TestContentUpsertAndGet(t *testing.T) {
	runTestsForAllStores(t, "ContentUpsertAndGet", func(t *testing.T, store Storer) {
		ctx := context.Background()
		content := sampleContent("idea-1")

		require.NoError(t, store.UpsertContent(ctx, content))

		retrieved, err := store.GetContent(ctx, "idea-1")
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		assert.Equal(t, content.ID, retrieved.ID)
		assert.Equal(t, content.Text, retrieved.Text)
		assert.Equal(t, content.Tags, retrieved.Tags)
		assert.Equal(t, StatusActive, retrieved.Status)

		// Upsert overwrites by id.
		content.Text = "updated text"
		content.Status = StatusDeleted
		require.NoError(t, store.UpsertContent(ctx, content))

		retrieved, err = store.GetContent(ctx, "idea-1")
		require.NoError(t, err)
		assert.Equal(t, "updated text", retrieved.Text)
		assert.Equal(t, StatusDeleted, retrieved.Status)

		count, err := store.CountContent(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestContentGetMissing(t *testing.T) {
	runTestsForAllStores(t, "ContentGetMissing", func(t *testing.T, store Storer) {
		retrieved, err := store.GetContent(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})
}

func TestContentDelete(t *testing.T) {
	runTestsForAllStores(t, "ContentDelete", func(t *testing.T, store Storer) {
		ctx := context.Background()
		require.NoError(t, store.UpsertContent(ctx, sampleContent("idea-1")))
		require.NoError(t, store.DeleteContent(ctx, "idea-1"))

		retrieved, err := store.GetContent(ctx, "idea-1")
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})
}

// =============================================================================
// Tokens
// =============================================================================

func TestPutBatchAndListTokens(t *testing.T) {
	runTestsForAllStores(t, "PutBatchAndListTokens", func(t *testing.T, store Storer) {
		ctx := context.Background()

		tokens := []*IndexToken{
			{ContentID: "idea-1", WordToken: "warm", TokenType: TokenWord, Positions: []int{0}, Frequency: 1},
			{ContentID: "idea-1", WordToken: "warm analog", TokenType: TokenPhrase, Positions: []int{}, Frequency: 1},
			{ContentID: "idea-2", WordToken: "reverb", TokenType: TokenWord, Positions: []int{8}, Frequency: 2},
		}
		contents := []*SearchableContent{sampleContent("idea-1"), sampleContent("idea-2")}

		require.NoError(t, store.PutBatch(ctx, contents, tokens))

		listed, err := store.ListTokensForContent(ctx, "idea-1")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "warm", listed[0].WordToken)
		assert.Equal(t, TokenWord, listed[0].TokenType)
		assert.Equal(t, []int{0}, listed[0].Positions)
		assert.Equal(t, "warm analog", listed[1].WordToken)
		assert.Equal(t, TokenPhrase, listed[1].TokenType)

		// Composite key: same (contentId, wordToken) upserts in place.
		require.NoError(t, store.PutBatch(ctx, nil, []*IndexToken{
			{ContentID: "idea-1", WordToken: "warm", TokenType: TokenWord, Positions: []int{0, 12}, Frequency: 2},
		}))
		listed, err = store.ListTokensForContent(ctx, "idea-1")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, 2, listed[0].Frequency)
	})
}

func TestDeleteTokensForContent(t *testing.T) {
	runTestsForAllStores(t, "DeleteTokensForContent", func(t *testing.T, store Storer) {
		ctx := context.Background()

		require.NoError(t, store.PutBatch(ctx, nil, []*IndexToken{
			{ContentID: "idea-1", WordToken: "warm", TokenType: TokenWord, Positions: []int{}, Frequency: 1},
			{ContentID: "idea-1", WordToken: "analog", TokenType: TokenWord, Positions: []int{}, Frequency: 1},
			{ContentID: "idea-2", WordToken: "reverb", TokenType: TokenWord, Positions: []int{}, Frequency: 1},
		}))

		require.NoError(t, store.DeleteTokensForContent(ctx, "idea-1"))

		listed, err := store.ListTokensForContent(ctx, "idea-1")
		require.NoError(t, err)
		assert.Empty(t, listed)

		// Other content untouched.
		listed, err = store.ListTokensForContent(ctx, "idea-2")
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})
}

// =============================================================================
// Trie nodes
// =============================================================================

func TestTrieNodeRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "TrieNodeRoundTrip", func(t *testing.T, store Storer) {
		ctx := context.Background()

		nodes := []*TrieNode{
			{Prefix: "m", NodeType: "prefix", Children: []string{"mi"}, ContentIDs: []string{"a"}, Frequency: 1},
			{Prefix: "mi", NodeType: "prefix", Children: []string{"mix"}, ContentIDs: []string{"a"}, Frequency: 1},
			{Prefix: "mix", NodeType: "word", Children: []string{}, ContentIDs: []string{"a"}, Frequency: 1},
		}
		require.NoError(t, store.PutTrieNodes(ctx, nodes))

		node, err := store.GetTrieNode(ctx, "mi")
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, []string{"mix"}, node.Children)
		assert.Equal(t, []string{"a"}, node.ContentIDs)

		missing, err := store.GetTrieNode(ctx, "zzz")
		require.NoError(t, err)
		assert.Nil(t, missing)

		all, err := store.ListTrieNodes(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		require.NoError(t, store.DeleteTrieNode(ctx, "mix"))
		all, err = store.ListTrieNodes(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

// =============================================================================
// Metadata
// =============================================================================

func TestMetadataDefaultsToEmpty(t *testing.T) {
	runTestsForAllStores(t, "MetadataDefaultsToEmpty", func(t *testing.T, store Storer) {
		meta, err := store.GetMetadata(context.Background())
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Equal(t, IndexEmpty, meta.Status)
		assert.Nil(t, meta.LastIndexed)
		assert.Equal(t, 0, meta.ItemsIndexed)
	})
}

func TestMetadataRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "MetadataRoundTrip", func(t *testing.T, store Storer) {
		ctx := context.Background()
		now := int64(1700000000000)

		require.NoError(t, store.PutMetadata(ctx, &IndexMetadata{
			LastIndexed:  &now,
			ItemsIndexed: 42,
			Status:       IndexReady,
		}))

		meta, err := store.GetMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, IndexReady, meta.Status)
		assert.Equal(t, 42, meta.ItemsIndexed)
		require.NotNil(t, meta.LastIndexed)
		assert.Equal(t, now, *meta.LastIndexed)

		// Error state clears the timestamp.
		require.NoError(t, store.PutMetadata(ctx, &IndexMetadata{Status: IndexError}))
		meta, err = store.GetMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, IndexError, meta.Status)
		assert.Nil(t, meta.LastIndexed)
	})
}

// =============================================================================
// Bulk
// =============================================================================

func TestClearAll(t *testing.T) {
	runTestsForAllStores(t, "ClearAll", func(t *testing.T, store Storer) {
		ctx := context.Background()

		require.NoError(t, store.PutBatch(ctx,
			[]*SearchableContent{sampleContent("idea-1")},
			[]*IndexToken{{ContentID: "idea-1", WordToken: "warm", TokenType: TokenWord, Positions: []int{}, Frequency: 1}},
		))
		require.NoError(t, store.PutTrieNodes(ctx, []*TrieNode{
			{Prefix: "w", NodeType: "prefix", Children: []string{}, ContentIDs: []string{"idea-1"}, Frequency: 1},
		}))
		require.NoError(t, store.PutMetadata(ctx, &IndexMetadata{Status: IndexReady, ItemsIndexed: 1}))

		require.NoError(t, store.ClearAll(ctx))

		count, err := store.CountContent(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		nodes, err := store.ListTrieNodes(ctx)
		require.NoError(t, err)
		assert.Empty(t, nodes)

		// Metadata survives ClearAll; the manager resets it explicitly.
		meta, err := store.GetMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, IndexReady, meta.Status)
	})
}
