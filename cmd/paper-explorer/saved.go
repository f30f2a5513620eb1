// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage the saved papers",
	Long: `Saved adds papers from the papers store to your saved set, deletes them
from the saved set, or lists the saved set. Titles are matched by
similarity, so an approximate title is enough.`,
}

var savedAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Copy the paper closest to title into the saved set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer teardown(cmd.Context(), a)

		out, err := a.manager().Add(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete <title>",
	Short: "Delete the saved paper closest to title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer teardown(cmd.Context(), a)

		out, err := a.manager().Delete(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved papers, most recently saved first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer teardown(cmd.Context(), a)

		records, err := a.manager().List(cmd.Context())
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
	savedListCmd.Flags().Bool("json", false, "output records as JSON")

	savedCmd.AddCommand(savedAddCmd, savedDeleteCmd, savedListCmd)
	rootCmd.AddCommand(savedCmd)
}
