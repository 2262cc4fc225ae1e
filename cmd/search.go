package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ihavespoons/quarry/internal/config"
	"github.com/ihavespoons/quarry/internal/index"
	"github.com/ihavespoons/quarry/internal/scan"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a ranked query against a directory's index",
	Long: `Search the full-text index for a directory root.

The query matches across three fields with descending boost weights:
path stem, path, and content. Results come back best relevance first.
An optional language filter keeps only hits whose language tag (derived
from the file extension) matches; it is applied after the result limit.

The substring provider (--provider substring) skips the index entirely
and filters the walked files by case-insensitive containment.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrDie()
		query := args[0]

		root, _ := cmd.Flags().GetString("root")
		language, _ := cmd.Flags().GetString("language")
		limit, _ := cmd.Flags().GetInt("limit")
		if !cmd.Flags().Changed("limit") && cfg.Search.Limit > 0 {
			limit = cfg.Search.Limit
		}

		provider, _ := cmd.Flags().GetString("provider")
		if !cmd.Flags().Changed("provider") {
			provider = cfg.Search.Provider
		}

		results, err := runSearch(cmd, cfg, provider, root, query, limit, language)
		if err != nil {
			fail(err)
		}

		if jsonOutput {
			if err := outputJSON(results); err != nil {
				exitError("failed to encode JSON: %v", err)
			}
			return
		}

		if len(results) == 0 {
			fmt.Println("No results")
			return
		}
		for _, r := range results {
			fmt.Printf("%8.3f  %s (%s)\n", r.Score, r.Path, r.Language)
			if verbose {
				fmt.Printf("          doc_id=%s sha256=%s bytes=%d\n", r.DocID, r.SHA256, r.BytesSize)
			}
		}
	},
}

// runSearch dispatches to the configured provider.
func runSearch(cmd *cobra.Command, cfg *config.Config, provider, root, query string, limit int, language string) ([]index.SearchResult, error) {
	switch provider {
	case config.ProviderSubstring:
		walked, err := scan.Collect(root, walkOptionsFrom(cmd, cfg))
		if err != nil {
			return nil, err
		}
		sub := &index.SubstringProvider{Files: walked.Files}
		return sub.Search(query, limit, language)
	default:
		eng, err := engineCache.Get(root, indexConfigFrom(cmd, cfg))
		if err != nil {
			return nil, err
		}
		return eng.Search(query, limit, language)
	}
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("root", "r", ".", "Indexed root directory to query")
	searchCmd.Flags().IntP("limit", "n", 20, "Maximum number of results")
	searchCmd.Flags().StringP("language", "l", "", "Filter results by language tag")
	searchCmd.Flags().String("provider", "", "Search provider: ranked or substring")
	addWalkFlags(searchCmd)
	addIndexFlags(searchCmd)
}
