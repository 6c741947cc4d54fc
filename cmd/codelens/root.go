package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/logger"
	"github.com/RishiKendai/codelens/internal/plagiarism"
	"github.com/RishiKendai/codelens/internal/repository"
)

var (
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "codelens",
	Short: "Code analysis and plagiarism detection",
	Long: `codelens analyzes source snippets for structure, patterns and quality,
and scores their similarity against a reference corpus or each other.

Supports: Python, JavaScript, TypeScript, Java, C++, C, C#, PHP, Ruby, Go,
Rust, Swift, Kotlin`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.Init(level, true)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Float64("threshold", 0.7, "Plagiarism threshold (0.0-1.0)")
}

// newService builds an engine over in-memory stores seeded with the
// bundled reference corpus.
func newService(cmd *cobra.Command) (*engine.Service, func(), error) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold < 0 || threshold > 1 {
		return nil, nil, fmt.Errorf("threshold must be within [0, 1]")
	}

	ctx := cmd.Context()
	pool := plagiarism.NewWorkerPool(ctx, 0)

	opts := engine.DefaultOptions()
	opts.PlagiarismThreshold = threshold
	svc := engine.New(repository.NewMemoryCorpus(), repository.NewMemoryReports(), nil, pool, opts)
	if _, err := svc.SeedCorpus(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return svc, pool.Close, nil
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
