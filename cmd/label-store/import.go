package main

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"label-store/internal/importer"
)

// maxPrintedErrors caps the per-value errors echoed in the summary
const maxPrintedErrors = 10

func newImportCmd(opts *options) *cobra.Command {
	var importOpts importer.Options

	importCmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Create a record for every label in a CSV or Excel file",
		Long: "Import labels from the first column of a CSV file, or of every sheet of an Excel file. " +
			"A header row and values that are not valid labels are skipped and reported.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0], importOpts)
		},
	}
	importCmd.Flags().BoolVar(&importOpts.DecodeIDN, "decode-idn", false, "convert xn-- labels to Unicode before validating")
	importCmd.Flags().IntVar(&importOpts.BatchSize, "batch-size", 10000, "labels per insert transaction")

	return importCmd
}

func runImport(cmd *cobra.Command, opts *options, path string, importOpts importer.Options) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := openStore(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		// Count lines in file for display
		if lineCount, err := importer.CountCSVLines(path); err == nil {
			fmt.Fprintf(out, "Importing %s (%d lines)...\n", name, lineCount)
		} else {
			fmt.Fprintf(out, "Importing %s...\n", name)
		}
	} else {
		fmt.Fprintf(out, "Importing %s...\n", name)
	}

	stats, err := importer.Import(ctx, store, path, importOpts)
	if stats != nil {
		printSummaryReport(out, name, stats)
	}
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", name, err)
	}
	return nil
}

func printSummaryReport(w io.Writer, name string, stats *importer.ImportStats) {
	// Final memory check
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if memMB := m.Alloc / 1024 / 1024; memMB > stats.MaxMemoryMB {
		stats.MaxMemoryMB = memMB
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "IMPORT SUMMARY REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintf(w, "  File:                  %s\n", name)
	fmt.Fprintf(w, "  Records Created:       %d\n", stats.Imported)
	fmt.Fprintf(w, "  Values Skipped:        %d\n", stats.Skipped)
	if stats.HeaderSkipped {
		fmt.Fprintf(w, "  (Header row skipped)\n")
	}
	fmt.Fprintf(w, "  Total Runtime:         %v\n", time.Since(stats.StartTime).Round(time.Millisecond))
	fmt.Fprintf(w, "  Peak Memory Usage:     %d MB\n", stats.MaxMemoryMB)

	if len(stats.Errors) > 0 {
		fmt.Fprintf(w, "\n  Errors Encountered: %d\n", len(stats.Errors))
		limit := min(len(stats.Errors), maxPrintedErrors)
		for _, e := range stats.Errors[:limit] {
			fmt.Fprintf(w, "    - %s\n", e)
		}
		if len(stats.Errors) > limit {
			fmt.Fprintf(w, "    ... and %d more errors\n", len(stats.Errors)-limit)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
}
