package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/justyntemme/shellnav/internal/browser"
	"github.com/justyntemme/shellnav/internal/store"
)

// sessionDoc is the exported form of a saved session.
type sessionDoc struct {
	ID        string   `yaml:"id" json:"id"`
	ActiveTab int      `yaml:"activeTab" json:"activeTab"`
	Tabs      []tabDoc `yaml:"tabs" json:"tabs"`
}

type tabDoc struct {
	Name       string     `yaml:"name,omitempty" json:"name,omitempty"`
	LockState  string     `yaml:"lockState" json:"lockState"`
	ShowHidden bool       `yaml:"showHidden,omitempty" json:"showHidden,omitempty"`
	Filter     string     `yaml:"filter,omitempty" json:"filter,omitempty"`
	Current    int        `yaml:"current" json:"current"`
	History    []entryDoc `yaml:"history" json:"history"`
}

type entryDoc struct {
	Location string   `yaml:"location" json:"location"`
	Selected []string `yaml:"selected,omitempty" json:"selected,omitempty"`
	Scroll   int      `yaml:"scroll,omitempty" json:"scroll,omitempty"`
}

func newSessionDoc(id string, w browser.PreservedWindow) sessionDoc {
	doc := sessionDoc{ID: id, ActiveTab: w.ActiveTab}
	for _, t := range w.Tabs {
		td := tabDoc{
			Name:       t.CustomName,
			LockState:  t.LockState.String(),
			ShowHidden: t.Browser.Settings.ShowHidden,
			Filter:     t.Browser.Settings.FilterText,
			Current:    t.Browser.CurrentEntry,
		}
		for _, e := range t.Browser.History {
			ed := entryDoc{Location: e.Location.String(), Scroll: e.ScrollPosition}
			for _, sel := range e.SelectedItems {
				ed.Selected = append(ed.Selected, sel.String())
			}
			td.History = append(td.History, ed)
		}
		doc.Tabs = append(doc.Tabs, td)
	}
	return doc
}

func encodeSession(w io.Writer, doc sessionDoc, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("unknown format %q (yaml or json)", format)
}

func openStore() (*store.DB, error) {
	if cfg.Session.DBPath == "" {
		return nil, errors.New("sessions are disabled (session.dbPath is empty)")
	}
	return store.Open(cfg.Session.DBPath)
}

// loadSession resolves "latest" or a session id.
func loadSession(cmd *cobra.Command, db *store.DB, id string) (string, browser.PreservedWindow, error) {
	if id == "" || id == "latest" {
		return db.LatestSession(cmd.Context())
	}
	w, err := db.LoadSession(cmd.Context(), id)
	return id, w, err
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect saved sessions",
	}
	cmd.AddCommand(newSessionListCmd(), newSessionShowCmd(), newSessionExportCmd(), newSessionDeleteCmd())
	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := db.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No saved sessions.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  %-14s %d tab(s)\n",
					color.WhiteString(s.ID), humanize.Time(s.SavedAt), s.Tabs)
			}
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id|latest]",
		Short: "Show the tabs and history of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			id, w, err := loadSession(cmd, db, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s\n", color.WhiteString(id))
			for i, t := range w.Tabs {
				marker := "  "
				if i == w.ActiveTab {
					marker = color.CyanString("* ")
				}
				name := t.CustomName
				if name == "" && len(t.Browser.History) > 0 {
					name = t.Browser.History[t.Browser.CurrentEntry].Location.Name()
				}
				fmt.Fprintf(out, "%sTab %d: %s [%s]\n", marker, i, name, t.LockState)
				for j, e := range t.Browser.History {
					prefix := "      "
					loc := e.Location.String()
					if j == t.Browser.CurrentEntry {
						prefix = color.CyanString("    > ")
						loc = color.CyanString(loc)
					}
					fmt.Fprintf(out, "%s%s\n", prefix, loc)
				}
			}
			return nil
		},
	}
}

func newSessionExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [id|latest]",
		Short: "Export a session as YAML or JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			id, w, err := loadSession(cmd, db, id)
			if err != nil {
				return err
			}
			return encodeSession(cmd.OutOrStdout(), newSessionDoc(id, w), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}

func newSessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "deleted session %s", args[0])
			return nil
		},
	}
}
