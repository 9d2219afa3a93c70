package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/location"
)

func newLsCmd() *cobra.Command {
	var (
		all           bool
		filterExpr    string
		caseSensitive bool
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a folder once, without history",
		Long: `List a folder. With no path the configured start location is listed.
"shell:desktop" lists the drives.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := cfg.StartLocation()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				wd, _ := os.Getwd()
				base, err := location.Parse(wd)
				if err != nil {
					base = location.Root
				}
				home, _ := os.UserHomeDir()
				if loc, err = location.Resolve(base, args[0], home); err != nil {
					return err
				}
			}

			showHidden := all || cfg.Navigation.ShowHidden
			if !cmd.Flags().Changed("filter") {
				filterExpr = cfg.Navigation.Filter
			}
			entries, err := fs.NewSystem().Enumerate(cmd.Context(), loc, fs.Options{
				ShowHidden:          showHidden,
				Filter:              filterExpr,
				FilterCaseSensitive: caseSensitive || cfg.Navigation.FilterCaseSensitive,
			})
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden items")
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "Filter expression (glob, ext:, size:, modified:)")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match the filter case-sensitively")
	return cmd
}
