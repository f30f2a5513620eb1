// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Inspect the papers store",
}

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored papers, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer teardown(cmd.Context(), a)

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := a.papers.List(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		writePaperTable(cmd.OutOrStdout(), records)
		return nil
	},
}

func init() {
	papersListCmd.Flags().Int("limit", 20, "maximum number of papers to list (0 for all)")
	papersListCmd.Flags().Bool("json", false, "output records as JSON")

	papersCmd.AddCommand(papersListCmd)
	rootCmd.AddCommand(papersCmd)
}
