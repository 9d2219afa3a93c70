package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/justyntemme/shellnav/internal/browser"
	"github.com/justyntemme/shellnav/internal/fs"
	"github.com/justyntemme/shellnav/internal/nav"
)

// initColor disables color when asked to or when stdout is not a terminal.
func initColor(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// ok prints a green success line.
func ok(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.YellowString("!"), fmt.Sprintf(format, a...))
}

func printEntries(w io.Writer, entries []fs.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, color.HiBlackString("  (empty)"))
		return
	}
	for _, e := range entries {
		if e.IsDir {
			fmt.Fprintf(w, "  %-10s %-16s %s\n", "<dir>", age(e), color.BlueString(e.Name+"/"))
			continue
		}
		fmt.Fprintf(w, "  %-10s %-16s %s\n", humanize.Bytes(uint64(e.Size)), age(e), e.Name)
	}
}

func age(e fs.Entry) string {
	if e.ModTime.IsZero() {
		return ""
	}
	return humanize.Time(e.ModTime)
}

func printHistory(w io.Writer, c *nav.Controller) {
	for i := 0; i < c.NumHistoryEntries(); i++ {
		e := c.EntryAtIndex(i)
		marker := "  "
		name := e.Location().String()
		if i == c.CurrentIndex() {
			marker = color.CyanString("> ")
			name = color.CyanString(name)
		}
		fmt.Fprintf(w, "%s%3d  %s\n", marker, i-c.CurrentIndex(), name)
	}
}

func printTabs(w io.Writer, win *browser.Window) {
	for i, t := range win.Tabs() {
		marker := "  "
		if i == win.ActiveIndex() {
			marker = color.CyanString("* ")
		}
		var flags []string
		if t.LockState() != browser.NotLocked {
			flags = append(flags, t.LockState().String())
		}
		if t.ShellBrowser().IsNavigating() {
			flags = append(flags, "loading")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = color.HiBlackString(" [" + strings.Join(flags, ",") + "]")
		}
		fmt.Fprintf(w, "%s%d  %-20s %s%s\n", marker, i, t.Name(), t.ShellBrowser().Location(), suffix)
	}
}

// printEvent renders a navigation event for browse --events.
func printEvent(w io.Writer, event string, req *nav.NavigationRequest) {
	var label string
	switch event {
	case "committed":
		label = color.GreenString(event)
	case "failed":
		label = color.RedString(event)
	case "cancelled":
		label = color.YellowString(event)
	default:
		label = color.HiBlackString(event)
	}
	line := fmt.Sprintf("  [%s] request %d %s", label, req.ID(), req.Location())
	if err := req.Err(); err != nil && event == "failed" {
		line += ": " + err.Error()
	}
	fmt.Fprintln(w, line)
}
