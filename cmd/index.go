package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ihavespoons/quarry/internal/config"
	"github.com/ihavespoons/quarry/internal/errdefs"
	"github.com/ihavespoons/quarry/internal/index"
	"github.com/ihavespoons/quarry/internal/scan"
	"github.com/ihavespoons/quarry/internal/watch"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build or refresh the search index for a directory",
	Long: `Build or incrementally refresh the full-text index for a directory.

Each indexed root gets its own on-disk index, located by a hash of the
root's absolute path. Files whose content fingerprint is unchanged since
the last build are skipped; use --force for a clean full rebuild.

Index management subcommands:
  status  - Show index statistics
  clear   - Delete the index for a root
  watch   - Re-index automatically when files change`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie()
		root := resolveRoot(args)
		opts := walkOptionsFrom(cmd, cfg)
		force, _ := cmd.Flags().GetBool("force")

		eng, err := engineCache.Get(root, indexConfigFrom(cmd, cfg))
		if err != nil {
			fail(err)
		}

		res, err := eng.IndexDirectory(opts, force)
		if err != nil {
			fail(err)
		}

		printWarnings(res.Warnings)
		if jsonOutput {
			if err := outputJSON(res); err != nil {
				exitError("failed to encode JSON: %v", err)
			}
		} else {
			fmt.Printf("Indexed %d files, %d skipped, %d warnings\n",
				res.IndexedCount, res.SkippedCount, len(res.Warnings))
			fmt.Printf("  Total bytes: %d\n", res.TotalBytes)
			fmt.Printf("  Index path: %s\n", res.IndexPath)
		}
	},
}

// indexStatusCmd represents the index status command
var indexStatusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show index statistics",
	Long:  `Display document counts and storage location for a root's index.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie()
		root := resolveRoot(args)

		eng, err := engineCache.Get(root, indexConfigFrom(cmd, cfg))
		if err != nil {
			fail(err)
		}

		count, err := eng.DocCount()
		if err != nil {
			fail(err)
		}
		paths := eng.IndexedPaths()

		if jsonOutput {
			if err := outputJSON(map[string]interface{}{
				"root":       eng.Root(),
				"index_path": eng.IndexPath(),
				"documents":  count,
				"files":      len(paths),
			}); err != nil {
				exitError("failed to encode JSON: %v", err)
			}
			return
		}

		fmt.Printf("Root: %s\n", eng.Root())
		fmt.Printf("Index path: %s\n", eng.IndexPath())
		fmt.Printf("Documents: %d\n", count)
		fmt.Printf("Files: %d\n", len(paths))
		if verbose {
			for _, p := range paths {
				fmt.Printf("  %s\n", p)
			}
		}
	},
}

// indexClearCmd represents the index clear command
var indexClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Delete the index for a root",
	Long:  `Remove the on-disk index and metadata for a root. Clearing an absent index is not an error.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie()
		root := resolveRoot(args)

		eng, err := engineCache.Get(root, indexConfigFrom(cmd, cfg))
		if err != nil {
			fail(err)
		}
		if err := eng.Clear(); err != nil {
			fail(err)
		}

		if jsonOutput {
			if err := outputJSON(map[string]interface{}{
				"success": true,
				"action":  "cleared",
			}); err != nil {
				exitError("failed to encode JSON: %v", err)
			}
		} else {
			fmt.Println("Index cleared")
		}
	},
}

// indexWatchCmd represents the index watch command
var indexWatchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-index automatically when files change",
	Long:  `Run an initial incremental build, then watch the root and re-index on changes.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie()
		root := resolveRoot(args)
		opts := walkOptionsFrom(cmd, cfg)

		eng, err := engineCache.Get(root, indexConfigFrom(cmd, cfg))
		if err != nil {
			fail(err)
		}

		res, err := eng.IndexDirectory(opts, false)
		if err != nil {
			fail(err)
		}
		printWarnings(res.Warnings)
		if !jsonOutput {
			fmt.Printf("Indexed %d files, %d skipped\n", res.IndexedCount, res.SkippedCount)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle interrupt
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Println("\nStopping watcher...")
			cancel()
		}()

		w := watch.New(eng, opts)
		w.OnResult = func(res *index.IndexResult, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: re-index failed: %v\n", err)
				return
			}
			if !jsonOutput && res.IndexedCount > 0 {
				fmt.Printf("Re-indexed %d files\n", res.IndexedCount)
			}
		}

		if !jsonOutput {
			fmt.Println("Watching for file changes... (Ctrl+C to stop)")
		}
		if err := w.Run(ctx); err != nil {
			fail(err)
		}
	},
}

// resolveRoot picks the positional root argument, defaulting to the
// current directory.
func resolveRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func loadConfigOrDie() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	return cfg
}

// walkOptionsFrom overlays explicitly-set flags on the configured walk
// defaults. Flags beat environment and config file values.
func walkOptionsFrom(cmd *cobra.Command, cfg *config.Config) scan.Options {
	opts := cfg.WalkOptions()
	fl := cmd.Flags()

	if fl.Changed("ext") {
		opts.Extensions, _ = fl.GetStringSlice("ext")
	}
	if fl.Changed("include") {
		opts.IncludeGlobs, _ = fl.GetStringSlice("include")
	}
	if fl.Changed("exclude") {
		opts.ExcludeGlobs, _ = fl.GetStringSlice("exclude")
	}
	if fl.Changed("gitignore") {
		opts.RespectGitignore, _ = fl.GetBool("gitignore")
	}
	if fl.Changed("hidden") {
		opts.IncludeHidden, _ = fl.GetBool("hidden")
	}
	if fl.Changed("follow-symlinks") {
		opts.FollowSymlinks, _ = fl.GetBool("follow-symlinks")
	}
	if fl.Changed("max-file-bytes") {
		opts.MaxFileBytes, _ = fl.GetInt64("max-file-bytes")
	}
	if fl.Changed("max-total-bytes") {
		opts.MaxTotalBytes, _ = fl.GetInt64("max-total-bytes")
	}
	if fl.Changed("binary") {
		v, _ := fl.GetString("binary")
		opts.BinaryPolicy = scan.BinaryPolicy(v)
	}
	if fl.Changed("exclude-lockfiles") {
		opts.ExcludeLockfiles, _ = fl.GetBool("exclude-lockfiles")
	}
	if fl.Changed("encoding") {
		opts.Encoding, _ = fl.GetString("encoding")
	}

	if opts.BinaryPolicy != scan.BinarySkip && opts.BinaryPolicy != scan.BinaryError {
		fail(errdefs.Config(
			"Invalid binary policy.",
			fmt.Sprintf("'%s' is not a binary policy.", opts.BinaryPolicy),
			"Use 'skip' or 'error'.",
		))
	}
	return opts
}

// indexConfigFrom overlays explicitly-set flags on the configured index
// settings (which already include the QUARRY_INDEX_DIR override).
func indexConfigFrom(cmd *cobra.Command, cfg *config.Config) index.Config {
	icfg := cfg.IndexConfig()
	fl := cmd.Flags()

	if fl.Changed("index-dir") {
		icfg.Dir, _ = fl.GetString("index-dir")
	}
	if fl.Changed("strict-replace") {
		icfg.StrictReplace, _ = fl.GetBool("strict-replace")
	}
	return icfg
}

// addWalkFlags registers the walk option flags on a command.
func addWalkFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("ext", nil, "Extension allow-list (e.g. .go,.md); empty allows all")
	cmd.Flags().StringSlice("include", nil, "Include globs; files must match at least one")
	cmd.Flags().StringSlice("exclude", nil, "Exclude globs")
	cmd.Flags().Bool("gitignore", true, "Respect the root-level .gitignore")
	cmd.Flags().Bool("hidden", false, "Include hidden files and directories")
	cmd.Flags().Bool("follow-symlinks", false, "Descend into symlinked directories")
	cmd.Flags().Int64("max-file-bytes", 0, "Skip files larger than this many bytes")
	cmd.Flags().Int64("max-total-bytes", 0, "Stop the walk once this total byte budget is hit")
	cmd.Flags().String("binary", "skip", "Binary file policy: skip or error")
	cmd.Flags().Bool("exclude-lockfiles", false, "Skip *.lock files")
	cmd.Flags().String("encoding", "", "Text encoding for file content (IANA name)")
}

// addIndexFlags registers the index storage flags on a command.
func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("index-dir", "", "Directory holding per-root indexes")
	cmd.Flags().Bool("strict-replace", false, "Delete old document versions and prune removed files")
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexClearCmd)
	indexCmd.AddCommand(indexWatchCmd)

	indexCmd.Flags().Bool("force", false, "Force full rebuild")
	addWalkFlags(indexCmd)
	addIndexFlags(indexCmd)

	addWalkFlags(indexWatchCmd)
	addIndexFlags(indexWatchCmd)

	addIndexFlags(indexStatusCmd)
	addIndexFlags(indexClearCmd)
}
