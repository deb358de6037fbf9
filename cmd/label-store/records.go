package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"label-store/internal/exporter"
	"label-store/internal/label"
	"label-store/internal/models"
)

const demoLabel = "test"

// runDemo creates one record with the label "test"
func runDemo(cmd *cobra.Command, opts *options) error {
	l, err := label.New(demoLabel)
	if err != nil {
		return err
	}
	return createAndPrint(cmd, opts, l)
}

func createAndPrint(cmd *cobra.Command, opts *options, l label.Label) error {
	ctx := cmd.Context()
	store, err := openStore(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.CreateRecord(ctx, l)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %d\n", rec.ID)
	return nil
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <label>",
		Short: "Create a record for a label",
		Long:  "Validate the label and create a record whose label column holds it and whose label_array column is a one-element array of it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate before touching the database
			l, err := label.New(args[0])
			if err != nil {
				return err
			}
			return createAndPrint(cmd, opts, l)
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetRecord(ctx, id)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), []models.Record{*rec})
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListRecords(ctx)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

// printRecords writes one tab-separated line per record, absent values as NULL
func printRecords(w io.Writer, records []models.Record) {
	fmt.Fprintln(w, strings.Join(exporter.Header, "\t"))
	for _, rec := range records {
		cells := exporter.Row(rec)
		for i, c := range cells {
			if c == "" {
				cells[i] = "NULL"
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <text> [text...]",
		Short: "Check whether values are valid labels",
		Long:  "Report for each argument whether it is a valid label. No database is opened.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, s := range args {
				if _, err := label.New(s); err != nil {
					invalid++
					fmt.Fprintf(out, "invalid\t%s\n", err)
					continue
				}
				fmt.Fprintf(out, "valid\t%q\n", s)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d values are not valid labels: %w", invalid, len(args), label.ErrInvalidLabel)
			}
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <output.csv|output.xlsx>",
		Short: "Write all records to a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := exporter.Export(ctx, store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", n, args[0])
			return nil
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// openStore applies the migrations
			store, err := openStore(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("failed to close database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", opts.cfg.Backend)
			return nil
		},
	}
}
