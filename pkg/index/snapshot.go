package index

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/gosearch/pkg/trie"
)

// SaveSnapshot gob-encodes the in-memory trie node table to the
// configured path on fs. A wasm client points fs at an IndexedDB-backed
// filesystem so the next session can warm-start without replaying the
// trie_nodes table; the table stays authoritative.
func (m *Manager) SaveSnapshot(fs hackpadfs.FS) error {
	m.mu.Lock()
	nodes := m.trie.Nodes()
	m.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(nodes); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := hackpadfs.WriteFullFile(fs, m.cfg.SnapshotPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot replaces the in-memory trie with a previously saved
// snapshot. Missing or undecodable files return an error and leave the
// current trie untouched.
func (m *Manager) LoadSnapshot(fs hackpadfs.FS) error {
	content, err := hackpadfs.ReadFile(fs, m.cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var nodes []*trie.Node
	if err := gob.NewDecoder(bytes.NewReader(content)).Decode(&nodes); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	m.mu.Lock()
	m.trie = trie.FromNodes(nodes)
	m.mu.Unlock()

	return nil
}
