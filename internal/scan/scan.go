// Package scan walks a directory tree under exclusion policies and yields
// the readable text files beneath it, in deterministic order.
package scan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ihavespoons/quarry/internal/errdefs"
)

// defaultExcludeDirs are directory names never descended into.
var defaultExcludeDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"__pycache__":  true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
}

// defaultExcludeFiles are filenames always dropped.
var defaultExcludeFiles = map[string]bool{
	".DS_Store": true,
}

const binarySampleSize = 8192

// DefaultExcludedDir reports whether name is one of the directory names a
// walk never descends into. Exposed for the watch loop, which must prune
// the same subtrees.
func DefaultExcludedDir(name string) bool {
	return defaultExcludeDirs[name]
}

// FileEntry is one readable text file produced by a walk.
type FileEntry struct {
	// Path is the POSIX-style path relative to the walk root, unique
	// within one walk.
	Path string
	// Size is the file size in bytes, as stat reported it.
	Size int64
	// Content is the decoded text content.
	Content string
}

// Result is the outcome of one Collect call.
type Result struct {
	Files      []FileEntry
	Warnings   []string
	Truncated  bool
	TotalBytes int64
}

// errStopWalk unwinds the recursion once the total byte budget is hit.
var errStopWalk = errors.New("walk stopped")

type walker struct {
	root    string
	opts    Options
	exts    map[string]bool
	include *ignore.GitIgnore
	exclude *ignore.GitIgnore
	ignored *ignore.GitIgnore
	dec     *decoder
	res     *Result
}

// Collect walks root depth-first, applies the exclusion pipeline, and
// returns the surviving files sorted by POSIX relative path.
//
// Per-file stat/read failures become warnings and the walk continues.
// The only per-file fatal condition is a binary file under BinaryError,
// which aborts the whole call with an input error naming the file.
func Collect(root string, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	dec, err := newDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	w := &walker{
		root: absRoot,
		opts: opts,
		exts: normalizeExtensions(opts.Extensions),
		dec:  dec,
		res:  &Result{},
	}
	if len(opts.IncludeGlobs) > 0 {
		w.include = ignore.CompileIgnoreLines(opts.IncludeGlobs...)
	}
	if len(opts.ExcludeGlobs) > 0 {
		w.exclude = ignore.CompileIgnoreLines(opts.ExcludeGlobs...)
	}
	if opts.RespectGitignore {
		w.ignored = loadGitignore(absRoot)
	}

	if err := w.walkDir(absRoot, ""); err != nil && err != errStopWalk {
		return nil, err
	}

	sort.Slice(w.res.Files, func(i, j int) bool {
		return w.res.Files[i].Path < w.res.Files[j].Path
	})
	return w.res, nil
}

// loadGitignore reads the root-level .gitignore once per walk. Nested
// ignore files are not consulted. Missing or unreadable files mean no
// gitignore filtering.
func loadGitignore(root string) *ignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

func (w *walker) walkDir(dir, rel string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return errdefs.Input(
				"Cannot read directory.",
				fmt.Sprintf("'%s' is not a readable directory: %v.", dir, err),
				"Check that the path exists and is accessible.",
			).WithCause(err)
		}
		w.warnf("Failed to read directory %s: %v", rel, err)
		return nil
	}

	// os.ReadDir sorts by name, so traversal order is deterministic.
	for _, entry := range entries {
		name := entry.Name()
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		childPath := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(childPath); err == nil && info.IsDir() {
				// Directory symlinks are silently skipped unless
				// following is enabled.
				if !w.opts.FollowSymlinks {
					continue
				}
				isDir = true
			}
		}

		if isDir {
			if w.skipDir(childRel, name) {
				continue
			}
			if err := w.walkDir(childPath, childRel); err != nil {
				return err
			}
			continue
		}

		if err := w.visitFile(childPath, childRel, name); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) skipDir(rel, name string) bool {
	if defaultExcludeDirs[name] {
		return true
	}
	if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	if w.ignored != nil && w.ignored.MatchesPath(rel+"/") {
		return true
	}
	return false
}

func (w *walker) skipFile(rel, name string) bool {
	if defaultExcludeFiles[name] {
		return true
	}
	if w.opts.ExcludeLockfiles && strings.HasSuffix(name, ".lock") {
		return true
	}
	if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	if w.exts != nil && !w.exts[strings.ToLower(filepath.Ext(name))] {
		return true
	}
	if w.include != nil && !w.include.MatchesPath(rel) {
		return true
	}
	if w.exclude != nil && w.exclude.MatchesPath(rel) {
		return true
	}
	if w.ignored != nil && w.ignored.MatchesPath(rel) {
		return true
	}
	return false
}

func (w *walker) visitFile(full, rel, name string) error {
	if w.skipFile(rel, name) {
		return nil
	}

	info, err := os.Stat(full)
	if err != nil {
		w.warnf("Failed to stat %s: %v", rel, err)
		return nil
	}
	size := info.Size()

	if w.opts.MaxFileBytes > 0 && size > w.opts.MaxFileBytes {
		w.warnf("Skipping %s (size %d > max %d)", rel, size, w.opts.MaxFileBytes)
		return nil
	}

	if w.opts.MaxTotalBytes > 0 && w.res.TotalBytes+size > w.opts.MaxTotalBytes {
		w.res.Warnings = append(w.res.Warnings, "Total byte limit reached; remaining files skipped.")
		w.res.Truncated = true
		return errStopWalk
	}

	if isBinary(full) {
		if w.opts.BinaryPolicy == BinaryError {
			return errdefs.Input(
				"Binary file detected.",
				fmt.Sprintf("'%s' appears to be binary.", rel),
				"Remove the file or adjust binary handling.",
			)
		}
		w.warnf("Skipping binary file %s.", rel)
		return nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		w.warnf("Failed to read %s: %v", rel, err)
		return nil
	}
	content, err := w.dec.decode(data)
	if err != nil {
		w.warnf("Failed to decode %s: %v", rel, err)
		return nil
	}

	w.res.Files = append(w.res.Files, FileEntry{Path: rel, Size: size, Content: content})
	w.res.TotalBytes += size
	return nil
}

func (w *walker) warnf(format string, args ...interface{}) {
	w.res.Warnings = append(w.res.Warnings, fmt.Sprintf(format, args...))
}

// isBinary sniffs up to 8KB: a NUL byte, or more than 30% of bytes outside
// printable/common-whitespace ranges, marks the file binary. Unreadable
// files are not binary; the read warning happens later.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, binarySampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	chunk := buf[:n]
	if len(chunk) == 0 {
		return false
	}

	nontext := 0
	for _, b := range chunk {
		if b == 0 {
			return true
		}
		if b < 9 || (b > 13 && b < 32) {
			nontext++
		}
	}
	return float64(nontext)/float64(len(chunk)) > 0.3
}
