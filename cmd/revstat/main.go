// Command revstat inspects a companies table from the terminal: the same
// loader and views the web dashboard uses, without the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"revboard/internal/dataset"
)

var (
	inputFile string
	asJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "revstat",
	Short: "Inspect a largest-companies CSV/XLSX table",
	Long: `revstat loads a companies-by-revenue table, normalizes the numeric
columns and prints derived views: previews, summary statistics, industry
breakdowns and headquarters frequencies.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "data/Largest_Companies.csv", "path to the CSV or XLSX input")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "emit JSON instead of tables")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(industriesCmd)
	rootCmd.AddCommand(locationsCmd)
}

// loadDataset parses the input file with a quiet logger; CLI output should
// be the views, not load logs.
func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	loader := dataset.NewLoader(logger, nil)
	return loader.LoadFile(ctx, inputFile)
}
