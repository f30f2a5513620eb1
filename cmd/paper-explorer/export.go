// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/vectorstore"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a store as YAML, JSON or Parquet",
	Long: `Export writes every record of the papers or saved store, newest first.
YAML and JSON carry the paper records; Parquet also carries each
abstract embedding. Output goes to stdout unless --out is given.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	storeName, _ := cmd.Flags().GetString("store")
	formatName, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	format, err := vectorstore.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == vectorstore.FormatParquet && outPath == "" {
		return apperr.Input("export", "parquet output needs --out")
	}

	a, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer teardown(cmd.Context(), a)

	var store *vectorstore.Store
	switch storeName {
	case "papers":
		store = a.papers
	case "saved":
		store = a.saved
	default:
		return apperr.Input("export", "unknown store %q (want papers or saved)", storeName)
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	n, err := store.Export(cmd.Context(), w, format)
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d papers to %s\n", n, outPath)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("store", "papers", "store to export: papers or saved")
	exportCmd.Flags().String("format", "yaml", "output format: yaml, json or parquet")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}
