package index

import (
	"strings"

	"github.com/ihavespoons/quarry/internal/scan"
)

// Provider serves ranked retrieval over an indexed root. The Engine is
// the real implementation; SubstringProvider is the degraded fallback
// used when ranked search is disabled or no index exists.
type Provider interface {
	Search(query string, limit int, language string) ([]SearchResult, error)
}

var _ Provider = (*Engine)(nil)
var _ Provider = (*SubstringProvider)(nil)

// SubstringProvider matches files whose path or content contains the
// query, case-insensitively, in walk order. Scores are zero; there is no
// ranking.
type SubstringProvider struct {
	Files []scan.FileEntry
}

// Search implements Provider over the in-memory file set.
func (p *SubstringProvider) Search(query string, limit int, language string) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	needle := strings.ToLower(query)

	results := make([]SearchResult, 0)
	for _, f := range p.Files {
		if len(results) >= limit {
			break
		}
		lang := languageForPath(f.Path)
		if language != "" && lang != language {
			continue
		}
		if !strings.Contains(strings.ToLower(f.Content), needle) &&
			!strings.Contains(strings.ToLower(f.Path), needle) {
			continue
		}
		results = append(results, SearchResult{
			Path:      f.Path,
			Language:  lang,
			SHA256:    Fingerprint(f.Content),
			BytesSize: f.Size,
		})
	}
	return results, nil
}

// FilterFiles narrows an already-collected file set to those the provider
// returns for query, preserving result order (best relevance first for a
// ranked provider). Results naming paths outside files are dropped.
func FilterFiles(files []scan.FileEntry, query string, p Provider, limit int) ([]scan.FileEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	results, err := p.Search(query, limit, "")
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]scan.FileEntry, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	filtered := make([]scan.FileEntry, 0, len(results))
	for _, r := range results {
		if f, ok := byPath[r.Path]; ok {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}
