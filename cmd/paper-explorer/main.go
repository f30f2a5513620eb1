// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-explorer CLI: fetch and
// summarize recent arXiv papers, then chat with an agent that searches
// them and manages a saved set.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/logging"
	"github.com/pdiddy/paper-explorer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd ingests with the configured defaults and then starts the chat
// loop, like running fetch followed by chat.
var rootCmd = &cobra.Command{
	Use:   "paper-explorer",
	Short: "Fetch, summarize and chat about recent AI research papers",
	Long: `paper-explorer fetches the latest AI papers from arXiv, summarizes each
abstract with a hosted language model and stores them in a local vector
store. A conversational agent then answers questions about the current
papers and your saved papers, and adds or removes saved papers on request.

Run without a subcommand to fetch new papers and start the agent.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnvironment,
	RunE:              runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-explorer.yaml or ~/.config/paper-explorer/paper-explorer.yaml)")
	pf.String("env-file", ".env", "dotenv file with API keys")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of API key files")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.Bool("debug", false, "human-readable debug logging")
	pf.String("provider", "openai", "completion provider: openai or anthropic")
	pf.String("model", "", "completion model (default depends on provider)")
	pf.String("papers-dir", "./vectorstore/papers_db", "papers store directory")
	pf.String("saved-dir", "./vectorstore/saved_db", "saved store directory")

	for key, flag := range map[string]string{
		"log.level":        "log-level",
		"log.debug":        "debug",
		"ai.provider":      "provider",
		"ai.model":         "model",
		"store.papers_dir": "papers-dir",
		"store.saved_dir":  "saved-dir",
	} {
		viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	setDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-explorer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-explorer"))
		}
	}

	if err := bindEnv(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "warning: binding environment:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadEnvironment reads the env file and the secrets directory before any
// command builds its configuration.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if _, err := loadEnvFile(envFile); err != nil {
		return apperr.Input("config", "%v", err)
	}

	dir, _ := cmd.Flags().GetString("secrets-dir")
	s, err := secrets.Load(dir)
	if err != nil {
		return err
	}
	applySecrets(viper.GetViper(), s)
	for _, name := range s.Unreadable {
		fmt.Fprintf(os.Stderr, "warning: could not read secret %s\n", name)
	}
	return nil
}

// setup loads the configuration, builds the logger and opens the app.
func setup(cmd *cobra.Command, needAI bool) (*app, error) {
	cfg, err := loadConfig(viper.GetViper(), needAI)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Debug)
	if err != nil {
		return nil, apperr.Input("config", "%v", err)
	}

	a, err := newApp(cmd.Context(), cfg, logger, needAI)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("provider", string(cfg.AI.Provider)),
		zap.String("model", cfg.AI.Model))
	return a, nil
}

func teardown(ctx context.Context, a *app) {
	if err := a.close(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("closing resources", zap.Error(err))
	}
	a.logger.Sync()
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer teardown(cmd.Context(), a)

	if err := runIngest(cmd, a, a.cfg.Search.Query, a.cfg.Search.MaxResults); err != nil {
		return err
	}
	return runChat(cmd, a)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, apperr.Describe(err))
		os.Exit(1)
	}
}
