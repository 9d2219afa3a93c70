// Package cli implements the shellnav command line.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/justyntemme/shellnav/internal/config"
	"github.com/justyntemme/shellnav/internal/debug"
)

var (
	cfgManager *config.Manager
	cfg        config.Config

	flagConfig  string
	flagDB      string
	flagDebug   bool
	flagNoColor bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shellnav",
		Short: "Browse folders with tabbed, history-aware navigation",
		Long: `shellnav is a headless folder browser. Each tab keeps its own back and
forward history, navigations run asynchronously and can be superseded,
and the open tabs are saved as a session when the browser exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/shellnav/config.json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "Session database path (overrides session.dbPath)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable every debug log category (debug builds only)")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initColor(flagNoColor)
		if flagDebug {
			debug.EnableAll()
		}

		cfgManager = config.NewManager()
		if err := cfgManager.Load(flagConfig); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfgManager.ParseError(); err != nil {
			warn(cmd.ErrOrStderr(), "config %s is invalid, using defaults: %v", cfgManager.Path(), err)
		}
		cfg = cfgManager.Get()
		if flagDB != "" {
			cfg.Session.DBPath = config.ExpandHome(flagDB)
		}
		debug.Log(debug.CLI, "config loaded from %s", cfgManager.Path())
		return nil
	}

	root.AddCommand(
		newLsCmd(),
		newBrowseCmd(),
		newSessionCmd(),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
