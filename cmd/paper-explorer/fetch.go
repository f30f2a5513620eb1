// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, summarize and store the latest papers",
	Long: `Fetch queries arXiv for the most recently submitted papers matching the
query, skips papers already in the papers store, summarizes the rest and
stores them with their embeddings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer teardown(cmd.Context(), a)

		return runIngest(cmd, a, a.cfg.Search.Query, a.cfg.Search.MaxResults)
	},
}

func runIngest(cmd *cobra.Command, a *app, query string, maxResults int) error {
	w, err := a.workflow()
	if err != nil {
		return err
	}
	w.Out = cmd.OutOrStdout()
	_, err = w.Run(cmd.Context(), query, maxResults)
	return err
}

func init() {
	fetchCmd.Flags().String("query", "artificial intelligence", "paper search query")
	fetchCmd.Flags().Int("max-results", 10, "number of papers to fetch")
	fetchCmd.Flags().String("source", "arxiv", "paper API: arxiv or semantic_scholar")
	viper.BindPFlag("search.source", fetchCmd.Flags().Lookup("source"))
	viper.BindPFlag("search.query", fetchCmd.Flags().Lookup("query"))
	viper.BindPFlag("search.max_results", fetchCmd.Flags().Lookup("max-results"))

	rootCmd.AddCommand(fetchCmd)
}
