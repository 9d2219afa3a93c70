package cli

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/justyntemme/shellnav/internal/app"
	"github.com/justyntemme/shellnav/internal/browser"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
)

func newBrowseCmd() *cobra.Command {
	var (
		showEvents bool
		noRestore  bool
		noWatch    bool
	)

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Start an interactive browser reading commands from stdin",
		Long: `Start a browser window and read commands from stdin, one per line.
The last session is restored unless --no-restore is given or a path is
passed. Type "help" for the command list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			home, _ := os.UserHomeDir()
			start, err := cfg.StartLocation()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				wd, _ := os.Getwd()
				base, err := location.Parse(wd)
				if err != nil {
					base = location.Root
				}
				if start, err = location.Resolve(base, args[0], home); err != nil {
					return err
				}
			}

			c := cfg
			if noRestore || len(args) == 1 {
				c.Session.RestoreOnStart = false
			}
			if noWatch {
				c.Watcher.Enabled = false
			}

			out := cmd.OutOrStdout()
			o := app.NewOrchestrator(c)
			if showEvents {
				watchEvents(o.Events(), out)
			}
			if err := o.Start(ctx, start); err != nil {
				o.Close(context.Background())
				return err
			}
			defer func() {
				if err := o.Close(context.Background()); err != nil {
					warn(cmd.ErrOrStderr(), "closing: %v", err)
				}
			}()

			if err := o.WaitIdle(ctx); err != nil {
				return err
			}
			sh := NewShell(o, c, out, home)
			if err := o.Do(ctx, func(w *browser.Window) { printTabs(out, w) }); err != nil {
				return err
			}

			prompt := ""
			if isatty.IsTerminal(os.Stdin.Fd()) {
				prompt = "shellnav> "
			}
			return sh.Run(ctx, cmd.InOrStdin(), prompt)
		},
	}

	cmd.Flags().BoolVar(&showEvents, "events", false, "Print navigation events as they happen")
	cmd.Flags().BoolVar(&noRestore, "no-restore", false, "Do not restore the last session")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not refresh folders when they change on disk")
	return cmd
}

// watchEvents subscribes before Start, while nothing else touches events.
func watchEvents(events *nav.Events, out io.Writer) {
	scope := nav.Global()
	events.AddStartedObserver(func(r *nav.NavigationRequest) { printEvent(out, "started", r) }, scope)
	events.AddCommittedObserver(func(r *nav.NavigationRequest) { printEvent(out, "committed", r) }, scope)
	events.AddFailedObserver(func(r *nav.NavigationRequest) { printEvent(out, "failed", r) }, scope)
	events.AddCancelledObserver(func(r *nav.NavigationRequest) { printEvent(out, "cancelled", r) }, scope)
}
