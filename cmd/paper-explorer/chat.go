// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/agent"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the research agent without fetching",
	Long: `Chat starts the conversational agent over the existing stores. Ask about
recent papers, ask about your saved papers, or tell it to add or delete a
saved paper. Type exit or quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer teardown(cmd.Context(), a)

		return runChat(cmd, a)
	},
}

func runChat(cmd *cobra.Command, a *app) error {
	ag := a.agent()
	a.logger.Info("agent session started", zap.String("session", ag.SessionID()))

	repl := &agent.REPL{
		Agent:  ag,
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		Logger: a.logger.Named("repl"),
	}
	return repl.Run(cmd.Context())
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
