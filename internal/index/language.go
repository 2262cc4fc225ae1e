package index

import (
	"path"
	"strings"
)

var languageByExt = map[string]string{
	"py":   "python",
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"json": "json",
	"yml":  "yaml",
	"yaml": "yaml",
	"toml": "toml",
	"md":   "markdown",
	"rst":  "rst",
	"go":   "go",
	"rs":   "rust",
	"java": "java",
	"c":    "c",
	"h":    "c",
	"cpp":  "cpp",
}

// languageForPath derives a language tag from the file extension.
// Extension-less files are "text"; unknown extensions pass through bare.
func languageForPath(rel string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))
	if ext == "" {
		return "text"
	}
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	return ext
}

// pathStem is the final path element without its extension.
func pathStem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
