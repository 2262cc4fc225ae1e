package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// metadataFile lives inside each per-root index directory.
const metadataFile = "metadata.json"

// fileMeta records what was last indexed for one relative path.
type fileMeta struct {
	SHA256    string `json:"sha256"`
	IndexedAt string `json:"indexed_at"`
}

// metadata is the persisted incremental-index state for one root.
// It is loaded once per build, mutated in memory, and written back whole.
type metadata struct {
	Root  string              `json:"root"`
	Files map[string]fileMeta `json:"files"`
}

// loadMetadata reads the metadata file for an index directory. An absent,
// unreadable, or corrupt file yields an empty structure: metadata damage
// must only ever cost a re-index, never block one.
func loadMetadata(indexPath, root string) *metadata {
	empty := &metadata{Root: root, Files: map[string]fileMeta{}}

	data, err := os.ReadFile(filepath.Join(indexPath, metadataFile))
	if err != nil {
		return empty
	}
	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return empty
	}
	if m.Files == nil {
		m.Files = map[string]fileMeta{}
	}
	return &m
}

// save writes the complete metadata structure, creating the index
// directory if needed. Callers serialize access per root; concurrent
// writers to the same index path are not supported.
func (m *metadata) save(indexPath string) error {
	if err := os.MkdirAll(indexPath, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(indexPath, metadataFile), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
