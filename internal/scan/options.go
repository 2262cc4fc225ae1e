package scan

import "strings"

// BinaryPolicy controls what happens when a binary file is encountered.
type BinaryPolicy string

const (
	// BinarySkip omits binary files with a warning.
	BinarySkip BinaryPolicy = "skip"
	// BinaryError aborts the whole walk on the first binary file.
	BinaryError BinaryPolicy = "error"
)

// Options configures a directory walk. The zero value means: all
// extensions, no globs, respect .gitignore is off, hidden files excluded,
// no byte limits, binary files skipped, UTF-8 decoding. Callers normally
// start from Defaults().
type Options struct {
	// Extensions is an allow-list of file suffixes (".py", ".go").
	// Empty allows every extension.
	Extensions []string

	// IncludeGlobs, when non-empty, requires files to match at least one
	// pattern (gitignore-style syntax).
	IncludeGlobs []string

	// ExcludeGlobs drops files matching any pattern.
	ExcludeGlobs []string

	// RespectGitignore applies the root-level .gitignore, if present.
	RespectGitignore bool

	// IncludeHidden keeps dot-files and descends into dot-directories.
	IncludeHidden bool

	// FollowSymlinks descends into symlinked directories.
	FollowSymlinks bool

	// MaxFileBytes skips any single file larger than this. 0 = no limit.
	MaxFileBytes int64

	// MaxTotalBytes is a hard global budget: the walk stops as soon as
	// the next file would push the running total past it. 0 = no limit.
	MaxTotalBytes int64

	// BinaryPolicy is BinarySkip or BinaryError.
	BinaryPolicy BinaryPolicy

	// ExcludeLockfiles drops files ending in ".lock".
	ExcludeLockfiles bool

	// Encoding is the IANA name of the text encoding used to decode file
	// content. Empty means UTF-8. Undecodable bytes are replaced.
	Encoding string
}

// Defaults returns the walk options used when nothing is configured.
func Defaults() Options {
	return Options{
		RespectGitignore: true,
		BinaryPolicy:     BinarySkip,
		Encoding:         "utf-8",
	}
}

// normalizeExtensions lowercases and dot-prefixes the allow-list.
// Returns nil when no filtering should happen.
func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		v := strings.ToLower(ext)
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		set[v] = true
	}
	return set
}
