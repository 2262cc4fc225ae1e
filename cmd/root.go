package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ihavespoons/quarry/internal/errdefs"
	"github.com/ihavespoons/quarry/internal/index"
)

var (
	// Global flags
	jsonOutput bool
	verbose    bool
)

// engineCache reuses the last engine across commands in one invocation,
// keyed by root.
var engineCache index.Cache

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Incremental full-text indexing and ranked search for code trees",
	Long: `quarry maintains a persistent full-text index per directory tree and
serves ranked multi-field queries over it.

Builds are incremental: each file's content fingerprint is compared with
the stored index metadata, so unchanged files cost nothing. Queries rank
hits across the path stem, path, and content fields with configurable
boost weights.

Use 'quarry index <path>' to build or refresh an index, then
'quarry search <query>' to query it.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// outputJSON outputs data as JSON
func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// exitError prints an error message and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// fail renders a typed error with its remediation hints and exits.
// Untyped errors fall back to the plain one-line form.
func fail(err error) {
	e := errdefs.As(err)
	if e == nil {
		exitError("%v", err)
	}

	if jsonOutput {
		payload := map[string]string{
			"type":    string(e.Kind),
			"message": e.Message,
		}
		if hint := firstNonEmpty(e.Fix, e.Why); hint != "" {
			payload["hint"] = hint
		}
		_ = outputJSON(payload)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", e.Message)
	if e.Why != "" {
		fmt.Fprintf(os.Stderr, "Why: %s\n", e.Why)
	}
	if e.Fix != "" {
		fmt.Fprintf(os.Stderr, "How to fix: %s\n", e.Fix)
	}
	os.Exit(1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// printWarnings reports accumulated walk warnings without failing the
// operation.
func printWarnings(warnings []string) {
	if jsonOutput {
		return
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
