// Package index owns the persistent ranked full-text index: one on-disk
// bleve index per indexed root, an incremental build cycle driven by
// content fingerprints, and boost-weighted multi-field queries.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/ihavespoons/quarry/internal/errdefs"
	"github.com/ihavespoons/quarry/internal/scan"
)

// Engine owns the on-disk index for one root directory. It assumes at
// most one writer process per root at a time; two CLI invocations racing
// on the same root are undefined behavior. Within a process the engine
// serializes all operations.
type Engine struct {
	mu        sync.Mutex
	root      string
	cfg       Config
	indexPath string
	idx       bleve.Index
}

// document is the indexed shape of one file. Only path and the metadata
// fields are stored; path_stem and content are searchable but not
// retrievable.
type document struct {
	Path      string `json:"path"`
	PathStem  string `json:"path_stem"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	DocID     string `json:"doc_id"`
	SHA256    string `json:"sha256"`
	BytesSize int64  `json:"bytes_size"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Path      string  `json:"path"`
	Score     float64 `json:"score"`
	Language  string  `json:"language"`
	DocID     string  `json:"doc_id"`
	SHA256    string  `json:"sha256"`
	BytesSize int64   `json:"bytes_size"`
	Snippet   string  `json:"snippet,omitempty"`
}

// IndexResult reports one IndexDirectory call.
type IndexResult struct {
	IndexedCount int      `json:"indexed_count"`
	SkippedCount int      `json:"skipped_count"`
	TotalBytes   int64    `json:"total_bytes"`
	Warnings     []string `json:"warnings,omitempty"`
	IndexPath    string   `json:"index_path"`
}

// NewEngine prepares an engine for root. Nothing touches disk until the
// first build or query.
func NewEngine(root string, cfg Config) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Engine{
		root:      abs,
		cfg:       cfg,
		indexPath: cfg.indexPathFor(abs),
	}, nil
}

// Root returns the absolute root directory this engine indexes.
func (e *Engine) Root() string { return e.root }

// IndexPath returns the on-disk index directory for this root.
func (e *Engine) IndexPath() string { return e.indexPath }

func buildIndexMapping() mapping.IndexMapping {
	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = "standard"
	pathField.Store = true

	stemField := bleve.NewTextFieldMapping()
	stemField.Analyzer = "standard"
	stemField.Store = false

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = "en"
	contentField.Store = false
	contentField.IncludeTermVectors = false

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	keywordField.Store = true
	keywordField.IncludeInAll = false

	sizeField := bleve.NewNumericFieldMapping()
	sizeField.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("path", pathField)
	docMapping.AddFieldMappingsAt("path_stem", stemField)
	docMapping.AddFieldMappingsAt("content", contentField)
	docMapping.AddFieldMappingsAt("language", keywordField)
	docMapping.AddFieldMappingsAt("doc_id", keywordField)
	docMapping.AddFieldMappingsAt("sha256", keywordField)
	docMapping.AddFieldMappingsAt("bytes_size", sizeField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// ensureIndex opens (and with create, builds) the bleve index. Callers
// hold e.mu.
func (e *Engine) ensureIndex(create bool) (bleve.Index, error) {
	if e.idx != nil {
		return e.idx, nil
	}

	if !create {
		if _, err := os.Stat(e.indexPath); err != nil {
			return nil, errdefs.Index(
				"Index does not exist.",
				fmt.Sprintf("No index found at '%s'.", e.indexPath),
				fmt.Sprintf("Run 'quarry index %s' to create one.", e.root),
			)
		}
		idx, err := bleve.Open(e.indexPath)
		if err != nil {
			return nil, errdefs.Index(
				"Cannot open index.",
				fmt.Sprintf("Opening '%s' failed: %v.", e.indexPath, err),
				fmt.Sprintf("Rebuild it with 'quarry index --force %s'.", e.root),
			).WithCause(err)
		}
		e.idx = idx
		return idx, nil
	}

	if err := os.MkdirAll(filepath.Dir(e.indexPath), 0755); err != nil {
		return nil, fmt.Errorf("create index parent: %w", err)
	}
	idx, err := bleve.Open(e.indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(e.indexPath, buildIndexMapping())
	} else if err != nil {
		// Unusable storage; start over rather than refuse to index.
		_ = os.RemoveAll(e.indexPath)
		idx, err = bleve.New(e.indexPath, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	e.idx = idx
	return idx, nil
}

// docKey is content-addressed: a changed file's new version lands under a
// new key, so the previous version stays in the index until pruned. This
// reproduces the historical append-only behavior; StrictReplace deletes
// the old key first.
func docKey(rel, sha string) string {
	return rel + "@" + sha[:12]
}

// IndexDirectory walks the root with opts and brings the index up to
// date. Files whose fingerprint matches the stored metadata are skipped;
// everything else is (re)indexed. force wipes the index and metadata
// first for a clean rebuild. The pending batch is applied once at the
// end (earlier only if it outgrows HeapSizeMB), and metadata is
// persisted once after the commit.
func (e *Engine) IndexDirectory(opts scan.Options, force bool) (*IndexResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if force {
		if err := e.clearLocked(); err != nil {
			return nil, err
		}
	}

	idx, err := e.ensureIndex(true)
	if err != nil {
		return nil, err
	}

	walked, err := scan.Collect(e.root, opts)
	if err != nil {
		return nil, err
	}

	meta := loadMetadata(e.indexPath, e.root)

	batch := idx.NewBatch()
	var pending int64
	heap := int64(e.cfg.HeapSizeMB) * 1024 * 1024

	now := time.Now().UTC().Format(time.RFC3339)
	indexed, skipped := 0, 0
	seen := make(map[string]bool, len(walked.Files))

	for _, entry := range walked.Files {
		seen[entry.Path] = true
		sha := Fingerprint(entry.Content)

		prev, known := meta.Files[entry.Path]
		if known && !isFingerprint(prev.SHA256) {
			// Malformed stored hash: treat the file as never indexed.
			known = false
		}
		if !force && known && prev.SHA256 == sha {
			skipped++
			continue
		}

		if e.cfg.StrictReplace && known {
			batch.Delete(docKey(entry.Path, prev.SHA256))
		}

		indexed++
		doc := document{
			Path:      entry.Path,
			PathStem:  pathStem(entry.Path),
			Content:   entry.Content,
			Language:  languageForPath(entry.Path),
			DocID:     fmt.Sprintf("doc-%04d", indexed),
			SHA256:    sha,
			BytesSize: entry.Size,
		}
		if err := batch.Index(docKey(entry.Path, sha), doc); err != nil {
			return nil, fmt.Errorf("index %s: %w", entry.Path, err)
		}
		pending += entry.Size
		if heap > 0 && pending >= heap {
			if err := idx.Batch(batch); err != nil {
				return nil, fmt.Errorf("apply batch: %w", err)
			}
			batch = idx.NewBatch()
			pending = 0
		}

		meta.Files[entry.Path] = fileMeta{SHA256: sha, IndexedAt: now}
	}

	if e.cfg.StrictReplace {
		for rel, fm := range meta.Files {
			if !seen[rel] {
				if isFingerprint(fm.SHA256) {
					batch.Delete(docKey(rel, fm.SHA256))
				}
				delete(meta.Files, rel)
			}
		}
	}

	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("commit index batch: %w", err)
	}
	if err := meta.save(e.indexPath); err != nil {
		return nil, err
	}

	return &IndexResult{
		IndexedCount: indexed,
		SkippedCount: skipped,
		TotalBytes:   walked.TotalBytes,
		Warnings:     walked.Warnings,
		IndexPath:    e.indexPath,
	}, nil
}

// Search runs the boost-weighted query and returns hits best-first. The
// language filter is applied to the returned hits, after truncation to
// limit: when it removes hits, fewer than limit results come back even if
// more matches exist in the index.
func (e *Engine) Search(queryStr string, limit int, language string) ([]SearchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.ensureIndex(false)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequest(planQuery(queryStr, e.cfg.Boosts))
	req.Size = limit
	req.Fields = []string{"path", "language", "doc_id", "sha256", "bytes_size"}

	res, err := idx.Search(req)
	if err != nil {
		return nil, errdefs.Index(
			"Search failed.",
			fmt.Sprintf("Query against '%s' failed: %v.", e.indexPath, err),
			fmt.Sprintf("Rebuild the index with 'quarry index --force %s'.", e.root),
		).WithCause(err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		lang, _ := hit.Fields["language"].(string)
		if language != "" && lang != language {
			continue
		}
		r := SearchResult{Score: hit.Score, Language: lang}
		r.Path, _ = hit.Fields["path"].(string)
		r.DocID, _ = hit.Fields["doc_id"].(string)
		r.SHA256, _ = hit.Fields["sha256"].(string)
		if v, ok := hit.Fields["bytes_size"].(float64); ok {
			r.BytesSize = int64(v)
		}
		results = append(results, r)
	}
	return results, nil
}

// IndexedPaths returns the relative paths currently recorded in the
// index metadata, sorted.
func (e *Engine) IndexedPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta := loadMetadata(e.indexPath, e.root)
	paths := make([]string, 0, len(meta.Files))
	for rel := range meta.Files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths
}

// DocCount returns the number of documents in the index.
func (e *Engine) DocCount() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.ensureIndex(false)
	if err != nil {
		return 0, err
	}
	return idx.DocCount()
}

// Clear deletes the on-disk index directory, metadata included, and
// resets the open handle. Clearing an absent index is not an error.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clearLocked()
}

func (e *Engine) clearLocked() error {
	if e.idx != nil {
		_ = e.idx.Close()
		e.idx = nil
	}
	if err := os.RemoveAll(e.indexPath); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

// Close releases the open index handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.idx == nil {
		return nil
	}
	err := e.idx.Close()
	e.idx = nil
	return err
}
