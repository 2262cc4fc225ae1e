// Package config loads the optional quarry user configuration.
//
// Precedence is flags > environment > config file > built-in defaults.
// This package owns the bottom three layers; flag overlays happen in the
// CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ihavespoons/quarry/internal/errdefs"
	"github.com/ihavespoons/quarry/internal/index"
	"github.com/ihavespoons/quarry/internal/scan"
)

// Environment variables honored by Load and the section accessors.
const (
	EnvConfig   = "QUARRY_CONFIG"
	EnvIndexDir = "QUARRY_INDEX_DIR"
)

// ProviderRanked and ProviderSubstring select the search strategy.
const (
	ProviderRanked    = "ranked"
	ProviderSubstring = "substring"
)

// IndexSection configures index storage and build behavior.
type IndexSection struct {
	Dir           string             `yaml:"dir,omitempty"`
	HeapMB        int                `yaml:"heap_mb"`
	Boosts        map[string]float64 `yaml:"boosts,omitempty"`
	StrictReplace bool               `yaml:"strict_replace"`
}

// WalkSection carries the default walk options applied when the CLI does
// not override them.
type WalkSection struct {
	Extensions       []string `yaml:"extensions,omitempty"`
	IncludeGlobs     []string `yaml:"include,omitempty"`
	ExcludeGlobs     []string `yaml:"exclude,omitempty"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	IncludeHidden    bool     `yaml:"include_hidden"`
	FollowSymlinks   bool     `yaml:"follow_symlinks"`
	MaxFileBytes     int64    `yaml:"max_file_bytes"`
	MaxTotalBytes    int64    `yaml:"max_total_bytes"`
	BinaryPolicy     string   `yaml:"binary_policy"`
	ExcludeLockfiles bool     `yaml:"exclude_lockfiles"`
	Encoding         string   `yaml:"encoding"`
}

// SearchSection selects the retrieval strategy.
type SearchSection struct {
	Provider string `yaml:"provider"`
	Limit    int    `yaml:"limit"`
}

// Config is the merged configuration.
type Config struct {
	Index  IndexSection  `yaml:"index"`
	Walk   WalkSection   `yaml:"walk"`
	Search SearchSection `yaml:"search"`
}

// Default returns the built-in configuration: the extensions and byte
// budgets used for warming the index before retrieval.
func Default() *Config {
	return &Config{
		Index: IndexSection{
			HeapMB: 50,
			Boosts: map[string]float64{
				index.FieldPathStem: 3.0,
				index.FieldPath:     2.0,
				index.FieldContent:  1.0,
			},
		},
		Walk: WalkSection{
			Extensions: []string{
				".py", ".ts", ".js", ".jsx", ".tsx", ".java", ".go", ".rs",
				".cpp", ".c", ".h", ".md", ".txt", ".json", ".yaml", ".yml", ".toml",
			},
			RespectGitignore: true,
			MaxFileBytes:     1_000_000,
			MaxTotalBytes:    50_000_000,
			BinaryPolicy:     string(scan.BinarySkip),
			ExcludeLockfiles: true,
			Encoding:         "utf-8",
		},
		Search: SearchSection{
			Provider: ProviderRanked,
			Limit:    20,
		},
	}
}

// Path returns the config file location: $QUARRY_CONFIG if set, otherwise
// config.yaml under the user config directory.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "quarry", "config.yaml")
}

// Load reads the config file over the defaults. A missing file is fine;
// a file that exists but does not parse is a config error.
func Load() (*Config, error) {
	cfg := Default()

	path := Path()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errdefs.Config(
			"Cannot read config file.",
			fmt.Sprintf("Reading '%s' failed: %v.", path, err),
			"Fix the file permissions or unset QUARRY_CONFIG.",
		).WithCause(err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errdefs.Config(
			"Invalid config file.",
			fmt.Sprintf("Parsing '%s' failed: %v.", path, err),
			"Correct the YAML syntax or delete the file to use defaults.",
		).WithCause(err)
	}
	return cfg, nil
}

// IndexConfig materializes the index configuration, applying the
// QUARRY_INDEX_DIR environment override on top of the file value.
func (c *Config) IndexConfig() index.Config {
	out := index.DefaultConfig()
	if c.Index.Dir != "" {
		out.Dir = c.Index.Dir
	}
	if dir := os.Getenv(EnvIndexDir); dir != "" {
		out.Dir = dir
	}
	if c.Index.HeapMB > 0 {
		out.HeapSizeMB = c.Index.HeapMB
	}
	if len(c.Index.Boosts) > 0 {
		out.Boosts = c.Index.Boosts
	}
	out.StrictReplace = c.Index.StrictReplace
	return out
}

// WalkOptions materializes the walk options from the walk section.
func (c *Config) WalkOptions() scan.Options {
	return scan.Options{
		Extensions:       c.Walk.Extensions,
		IncludeGlobs:     c.Walk.IncludeGlobs,
		ExcludeGlobs:     c.Walk.ExcludeGlobs,
		RespectGitignore: c.Walk.RespectGitignore,
		IncludeHidden:    c.Walk.IncludeHidden,
		FollowSymlinks:   c.Walk.FollowSymlinks,
		MaxFileBytes:     c.Walk.MaxFileBytes,
		MaxTotalBytes:    c.Walk.MaxTotalBytes,
		BinaryPolicy:     scan.BinaryPolicy(c.Walk.BinaryPolicy),
		ExcludeLockfiles: c.Walk.ExcludeLockfiles,
		Encoding:         c.Walk.Encoding,
	}
}
