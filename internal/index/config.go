package index

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Searchable field names. Boost weights are keyed by these.
const (
	FieldPathStem = "path_stem"
	FieldPath     = "path"
	FieldContent  = "content"
)

// Config controls index storage and query weighting.
type Config struct {
	// Dir is the directory holding all per-root indexes. Each root gets
	// its own subdirectory named by a hash of the root's absolute path.
	Dir string

	// HeapSizeMB caps the memory held by a pending write batch; when a
	// build accumulates more document bytes than this, the batch is
	// applied and a fresh one started.
	HeapSizeMB int

	// Boosts are the per-field relevance weights. A field missing from
	// the map is not searched at all.
	Boosts map[string]float64

	// StrictReplace switches the build to delete-before-insert and
	// prunes documents for files removed from disk. Off by default to
	// match the historical append-only behavior.
	StrictReplace bool
}

// DefaultConfig returns the standard storage location (under the user
// cache directory) and boost weights.
func DefaultConfig() Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return Config{
		Dir:        filepath.Join(cacheDir, "quarry", "index"),
		HeapSizeMB: 50,
		Boosts: map[string]float64{
			FieldPathStem: 3.0,
			FieldPath:     2.0,
			FieldContent:  1.0,
		},
	}
}

// indexPathFor maps an absolute root to its index directory. The first 16
// hex characters of the root's SHA-256 keep distinct roots isolated while
// reopening the same root always lands on the same storage.
func (c Config) indexPathFor(absRoot string) string {
	sum := sha256.Sum256([]byte(absRoot))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])[:16])
}
