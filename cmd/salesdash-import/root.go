package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"salesdash/internal/adapters"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	"salesdash/internal/log"
	"salesdash/internal/sheets/excel"
	"salesdash/internal/storage"
)

const (
	stdinFile   = "-"
	stdinSource = "stdin"
)

type importOptions struct {
	files    []string
	sheet    string
	dbPath   string
	dryRun   bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "salesdash-import [file.xlsx...]",
		Short: "Import sales workbooks into the SQLite store",
		Long: `Reads one or more .xlsx workbooks with the columns Date, Item Type, Item,
Item Sort Order and Sales, checks that they pivot cleanly and replaces the
records previously imported from each file.

Workbooks are read concurrently; nothing is written unless every file is valid.
A file named "-" is read from standard input.
  salesdash-import data/2023.xlsx data/2024.xlsx
  cat export.xlsx | salesdash-import -
  salesdash-import --file sales.xlsx --sheet Export --db ./data/salesdash.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = append(opts.files, args...)
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "workbook to import (repeatable)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", cfg.ExcelSheet, "worksheet to read (default: the active sheet)")
	cmd.Flags().StringVar(&opts.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate the workbooks without writing")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	if len(opts.files) == 0 {
		return fmt.Errorf("no workbook given: pass files as arguments or with --file")
	}
	logger := cli.SetupLogger(opts.logLevel, log.ComponentImport)

	sources := make([]adapters.Source, 0, len(opts.files))
	stdin := false
	for _, f := range opts.files {
		if f == stdinFile {
			if stdin {
				return fmt.Errorf("standard input can only be imported once")
			}
			stdin = true
			sources = append(sources, adapters.Source{Name: stdinSource, Reader: excel.NewStream(cmd.InOrStdin(), opts.sheet)})
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("workbook %s: %w", f, err)
		}
		sources = append(sources, adapters.Source{Name: f, Reader: excel.New(f, opts.sheet)})
	}

	if dir := filepath.Dir(opts.dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	repo, err := storage.NewSQLiteRepository(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	var importerOpts []adapters.ImporterOption
	if opts.dryRun {
		importerOpts = append(importerOpts, adapters.WithDryRun())
	}
	results, err := adapters.NewImporter(repo, logger.Logger, importerOpts...).Import(cmd.Context(), sources...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total := 0
	for _, r := range results {
		total += r.Records
		fmt.Fprintf(out, "%-40s %6d records\n", r.Source, r.Records)
	}
	if opts.dryRun {
		fmt.Fprintf(out, "dry run: %d records validated, nothing written\n", total)
		return nil
	}
	stored, err := repo.CountRecords(cmd.Context())
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	fmt.Fprintf(out, "imported %d records, %d in store\n", total, stored)
	return nil
}
