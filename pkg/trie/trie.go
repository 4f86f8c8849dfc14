// Package trie implements the in-memory prefix index.
//
// Nodes live in a flat table keyed by prefix string rather than as linked
// child pointers: exact-prefix lookup is a single map access, and the node
// table serializes 1:1 into the persistent trie_nodes table. Children are
// kept only for enumeration and cleanup.
package trie

import "slices"

// NodeType distinguishes pure prefixes from complete indexed words.
type NodeType string

const (
	NodePrefix NodeType = "prefix"
	NodeWord   NodeType = "word"
)

// Node is one prefix entry. ContentIDs is deduplicated; Frequency counts
// insertions and is never decremented on removal (advisory only).
type Node struct {
	Prefix     string   `json:"prefix"`
	NodeType   NodeType `json:"nodeType"`
	Children   []string `json:"children"`
	ContentIDs []string `json:"contentIds"`
	Frequency  int      `json:"frequency"`
}

// Trie maps every prefix of every inserted word to the content ids
// containing a word with that prefix. Not safe for concurrent mutation;
// the index manager serializes access.
type Trie struct {
	nodes map[string]*Node
}

// New creates an empty Trie.
func New() *Trie {
	return &Trie{nodes: make(map[string]*Node)}
}

// FromNodes rehydrates a Trie from a persisted node table.
func FromNodes(nodes []*Node) *Trie {
	t := New()
	for _, n := range nodes {
		t.nodes[n.Prefix] = n
	}
	return t
}

// Insert registers contentID under every prefix of word and marks the
// full-length node as a word. Inserting the same (word, contentID) pair
// twice does not duplicate the id, but does bump frequencies.
func (t *Trie) Insert(word, contentID string) {
	if word == "" {
		return
	}

	var prefixes []string
	prefix := ""
	for _, r := range word {
		prefix += string(r)
		prefixes = append(prefixes, prefix)

		node, ok := t.nodes[prefix]
		if !ok {
			node = &Node{Prefix: prefix, NodeType: NodePrefix}
			t.nodes[prefix] = node
		}
		if !slices.Contains(node.ContentIDs, contentID) {
			node.ContentIDs = append(node.ContentIDs, contentID)
		}
		node.Frequency++
	}

	t.nodes[prefix].NodeType = NodeWord

	for i := 0; i < len(prefixes)-1; i++ {
		parent := t.nodes[prefixes[i]]
		if !slices.Contains(parent.Children, prefixes[i+1]) {
			parent.Children = append(parent.Children, prefixes[i+1])
		}
	}
}

// GetByPrefix returns the content ids indexed under an exact prefix,
// or nil when the prefix was never inserted.
func (t *Trie) GetByPrefix(prefix string) []string {
	node, ok := t.nodes[prefix]
	if !ok {
		return nil
	}
	return node.ContentIDs
}

// Node returns the node for a prefix, or nil.
func (t *Trie) Node(prefix string) *Node {
	return t.nodes[prefix]
}

// Nodes returns every node in the table, in map order.
func (t *Trie) Nodes() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	return out
}

// RemoveContent strips contentID from every node. Frequencies are left
// stale on purpose; the next full rebuild resets them.
func (t *Trie) RemoveContent(contentID string) {
	for _, node := range t.nodes {
		if idx := slices.Index(node.ContentIDs, contentID); idx >= 0 {
			node.ContentIDs = slices.Delete(node.ContentIDs, idx, idx+1)
		}
	}
}

// Clear drops every node.
func (t *Trie) Clear() {
	t.nodes = make(map[string]*Node)
}

// Len returns the number of nodes.
func (t *Trie) Len() int {
	return len(t.nodes)
}
