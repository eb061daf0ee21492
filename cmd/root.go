package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amine-the-boss/juris/internal/api"
	"github.com/amine-the-boss/juris/internal/chat"
	"github.com/amine-the-boss/juris/internal/config"
	"github.com/amine-the-boss/juris/internal/credential"
	"github.com/amine-the-boss/juris/internal/history"
	"github.com/amine-the-boss/juris/internal/logging"
	"github.com/amine-the-boss/juris/internal/tui"
)

var (
	cfgFile      string
	serverFlag   string
	languageFlag string

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "juris",
		Short: "Terminal client for the juris legal-assistant service",
		Long: "juris is a terminal client for a conversational legal-assistant service.\n" +
			"Running it with no subcommand opens the interactive chat screen.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/juris/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "override server base URL")
	rootCmd.PersistentFlags().StringVarP(&languageFlag, "language", "l", "", "override answer language")

	// Subcommands
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newConversationsCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if serverFlag != "" {
		cfg.Server = serverFlag
	}
	if languageFlag != "" {
		cfg.Language = languageFlag
	}
	return cfg
}

// app bundles the wired client pieces every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
	state  *chat.State
}

// buildApp wires config, logging, the credential store, the API client
// and the session container.
func buildApp() (*app, error) {
	cfg := initConfig()

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initializing log file: %w", err)
	}

	credDir, err := config.Dir()
	if err != nil {
		// Memory-only credentials still give a working session.
		logger.Warn("no config directory, token will not persist", "error", err)
		credDir = ""
	}
	creds := credential.NewStore(credDir, logger)

	client := api.NewClient(cfg.Server, cfg.RequestTimeout, creds, logger)
	state := chat.New(client, creds, cfg.Language, logger)

	return &app{cfg: cfg, logger: logger, client: client, state: state}, nil
}

// openHistory opens the prompt history store, or returns nil when
// history is disabled or unavailable. History is a convenience; losing
// it never blocks the client.
func (a *app) openHistory() *history.Store {
	if a.cfg.History.Disabled {
		return nil
	}
	path := a.cfg.History.Path
	if path == "" {
		dataDir, err := config.DataDir()
		if err != nil {
			a.logger.Warn("no data directory, prompt history disabled", "error", err)
			return nil
		}
		path = history.DefaultPath(dataDir)
	}
	store, err := history.Open(path, a.cfg.History.MaxEntries)
	if err != nil {
		a.logger.Warn("opening prompt history failed", "error", err)
		return nil
	}
	return store
}

func runTUI() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the chat screen needs a terminal; use `juris ask` in scripts")
	}

	a, err := buildApp()
	if err != nil {
		return err
	}

	hist := a.openHistory()
	if hist != nil {
		defer hist.Close()
	}

	tcfg := tui.Config{Version: displayVersion(), Server: a.cfg.Server}
	return tui.Run(context.Background(), a.state, hist, tcfg, a.logger)
}

// displayVersion returns a formatted version string, e.g. "v0.2.0 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("juris %s\n", displayVersion())
			fmt.Printf("  commit: %s\n", appCommit)
			fmt.Printf("  built:  %s\n", appDate)
		},
	}
}
