package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/justyntemme/shellnav/internal/app"
	"github.com/justyntemme/shellnav/internal/browser"
	"github.com/justyntemme/shellnav/internal/config"
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
)

var errUsage = errors.New("usage")

// Shell is the line-driven front end of browse. Each command runs against
// the active tab and waits for any navigation it starts.
type Shell struct {
	app  *app.Orchestrator
	cfg  config.Config
	out  io.Writer
	home string
}

func NewShell(o *app.Orchestrator, cfg config.Config, out io.Writer, home string) *Shell {
	return &Shell{app: o, cfg: cfg, out: out, home: home}
}

const shellHelp = `Commands:
  cd <path>              navigate the active tab (relative to the current folder)
  back | forward | up    move through history or to the parent folder
  refresh                reload the current folder
  ls                     list the current folder
  pwd                    print the current folder
  history                show the active tab's history
  hidden on|off          show or hide hidden items
  filter [expr]          filter items (name glob, ext:, size:, modified:); no expr clears
  case on|off            case-sensitive filtering
  tabs                   list tabs
  tab new [path]         open a tab
  tab close [n]          close a tab (default: active)
  tab select <n>         activate a tab
  tab lock <state>       not-locked | locked | address-locked
  tab name [name]        rename the active tab; no name resets it
  open <path> [where]    current-tab | new-tab | foreground-tab | background-tab | new-window
  save                   save the session
  quit                   exit`

// Run reads commands from in until EOF or quit. prompt is printed before
// each command when non-empty.
func (s *Shell) Run(ctx context.Context, in io.Reader, prompt string) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt != "" {
			fmt.Fprint(s.out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := s.Exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintln(s.out, color.RedString("error:"), err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]
	debug.Log(debug.CLI, "exec %q", line)

	var err error
	switch cmd {
	case "cd", "go":
		err = s.cd(ctx, strings.Join(args, " "))
	case "back":
		err = s.navigate(ctx, (*nav.Controller).GoBack)
	case "forward":
		err = s.navigate(ctx, (*nav.Controller).GoForward)
	case "up":
		err = s.navigate(ctx, (*nav.Controller).GoUp)
	case "refresh":
		err = s.navigate(ctx, (*nav.Controller).Refresh)
	case "ls":
		err = s.withView(ctx, func(_ *browser.Window, sb *nav.ShellBrowser) error {
			printEntries(s.out, sb.Items())
			return nil
		})
	case "pwd":
		err = s.withView(ctx, func(_ *browser.Window, sb *nav.ShellBrowser) error {
			fmt.Fprintln(s.out, sb.Location())
			return nil
		})
	case "history":
		err = s.withView(ctx, func(_ *browser.Window, sb *nav.ShellBrowser) error {
			printHistory(s.out, sb.Controller())
			return nil
		})
	case "hidden":
		err = s.toggle(ctx, args, func(sb *nav.ShellBrowser, on bool) (*nav.NavigationRequest, error) {
			return sb.SetShowHidden(on)
		})
	case "case":
		err = s.toggle(ctx, args, func(sb *nav.ShellBrowser, on bool) (*nav.NavigationRequest, error) {
			return sb.SetFilter(sb.FolderSettings().FilterText, on)
		})
	case "filter":
		expr := strings.Join(args, " ")
		err = s.settle(ctx, func(w *browser.Window) (*nav.NavigationRequest, error) {
			sb := w.ActiveShellBrowser()
			return sb.SetFilter(expr, sb.FolderSettings().FilterCaseSensitive)
		})
	case "tabs":
		err = s.app.Do(ctx, func(w *browser.Window) { printTabs(s.out, w) })
	case "tab":
		err = s.tab(ctx, args)
	case "open":
		err = s.open(ctx, args)
	case "save":
		var id string
		id, err = s.app.Save(ctx)
		if err == nil {
			if id == "" {
				warn(s.out, "sessions are disabled")
			} else {
				ok(s.out, "saved session %s", id)
			}
		}
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return true, nil
	default:
		err = fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, err
}

func (s *Shell) withView(ctx context.Context, fn func(w *browser.Window, sb *nav.ShellBrowser) error) error {
	var err error
	if doErr := s.app.Do(ctx, func(w *browser.Window) {
		sb := w.ActiveShellBrowser()
		if sb == nil {
			err = browser.ErrWindowClosed
			return
		}
		err = fn(w, sb)
	}); doErr != nil {
		return doErr
	}
	return err
}

// settle starts a navigation on the origin loop, waits for every tab to go
// idle, then reports where the active tab ended up.
func (s *Shell) settle(ctx context.Context, fn func(w *browser.Window) (*nav.NavigationRequest, error)) error {
	_, navErr := s.app.Navigate(ctx, fn)
	if err := s.app.WaitIdle(ctx); err != nil {
		return err
	}
	if navErr != nil {
		return navErr
	}
	return s.withView(ctx, func(_ *browser.Window, sb *nav.ShellBrowser) error {
		fmt.Fprintf(s.out, "%s %s\n", color.CyanString(sb.Location().String()),
			color.HiBlackString(fmt.Sprintf("(%d items)", len(sb.Items()))))
		return nil
	})
}

func (s *Shell) navigate(ctx context.Context, op func(*nav.Controller) (*nav.NavigationRequest, error)) error {
	return s.settle(ctx, func(w *browser.Window) (*nav.NavigationRequest, error) {
		return op(w.ActiveShellBrowser().Controller())
	})
}

func (s *Shell) resolve(ctx context.Context, input string) (location.Location, error) {
	var current location.Location
	if err := s.withView(ctx, func(_ *browser.Window, sb *nav.ShellBrowser) error {
		current = sb.Location()
		return nil
	}); err != nil {
		return "", err
	}
	return location.Resolve(current, input, s.home)
}

func (s *Shell) cd(ctx context.Context, input string) error {
	if input == "" {
		input = "~"
	}
	loc, err := s.resolve(ctx, input)
	if err != nil {
		return err
	}
	return s.settle(ctx, func(w *browser.Window) (*nav.NavigationRequest, error) {
		return w.ActiveShellBrowser().Controller().Navigate(nav.NormalParams(loc))
	})
}

func parseOnOff(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("%w: expected on or off", errUsage)
	}
	switch args[0] {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", errUsage, args[0])
}

func (s *Shell) toggle(ctx context.Context, args []string, set func(*nav.ShellBrowser, bool) (*nav.NavigationRequest, error)) error {
	on, err := parseOnOff(args)
	if err != nil {
		return err
	}
	return s.settle(ctx, func(w *browser.Window) (*nav.NavigationRequest, error) {
		return set(w.ActiveShellBrowser(), on)
	})
}

func (s *Shell) tab(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: tab new|close|select|lock|name", errUsage)
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "new":
		var (
			loc location.Location
			err error
		)
		if len(rest) > 0 {
			loc, err = s.resolve(ctx, strings.Join(rest, " "))
		} else {
			err = s.withView(ctx, func(_ *browser.Window, sb *nav.ShellBrowser) error {
				loc = s.cfg.NewTabLocation(sb.Location())
				return nil
			})
		}
		if err != nil {
			return err
		}
		return s.settle(ctx, func(w *browser.Window) (*nav.NavigationRequest, error) {
			t, err := w.CreateTab(loc, browser.TabOptions{Selected: true})
			if t == nil {
				return nil, err
			}
			return t.ShellBrowser().ActiveRequest(), err
		})

	case "close":
		return s.withTab(ctx, rest, func(w *browser.Window, t *browser.Tab) error {
			if err := w.CloseTab(t); err != nil {
				return err
			}
			ok(s.out, "closed %s", t.Name())
			return nil
		})

	case "select":
		if len(rest) != 1 {
			return fmt.Errorf("%w: tab select <n>", errUsage)
		}
		return s.withTab(ctx, rest, func(w *browser.Window, t *browser.Tab) error {
			return w.SelectTab(t)
		})

	case "lock":
		if len(rest) != 1 {
			return fmt.Errorf("%w: tab lock not-locked|locked|address-locked", errUsage)
		}
		state, err := browser.ParseLockState(rest[0])
		if err != nil {
			return err
		}
		return s.withTab(ctx, nil, func(_ *browser.Window, t *browser.Tab) error {
			t.SetLockState(state)
			return nil
		})

	case "name":
		name := strings.Join(rest, " ")
		return s.withTab(ctx, nil, func(_ *browser.Window, t *browser.Tab) error {
			t.SetCustomName(name)
			return nil
		})
	}
	return fmt.Errorf("unknown tab command %q", sub)
}

// withTab runs fn with the tab at the index in args, or the active tab.
func (s *Shell) withTab(ctx context.Context, args []string, fn func(*browser.Window, *browser.Tab) error) error {
	index := -1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: tab index %q", errUsage, args[0])
		}
		index = n
	}

	var err error
	if doErr := s.app.Do(ctx, func(w *browser.Window) {
		t := w.ActiveTab()
		if index >= 0 {
			tabs := w.Tabs()
			if index >= len(tabs) {
				err = browser.ErrTabNotFound
				return
			}
			t = tabs[index]
		}
		if t == nil {
			err = browser.ErrTabNotFound
			return
		}
		err = fn(w, t)
	}); doErr != nil {
		return doErr
	}
	return err
}

var dispositions = map[string]nav.OpenDisposition{
	nav.CurrentTab.String():    nav.CurrentTab,
	nav.NewTab.String():        nav.NewTab,
	nav.ForegroundTab.String(): nav.ForegroundTab,
	nav.BackgroundTab.String(): nav.BackgroundTab,
	nav.NewWindow.String():     nav.NewWindow,
}

func (s *Shell) open(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: open <path> [disposition]", errUsage)
	}
	disposition := nav.CurrentTab
	if len(args) > 1 {
		d, found := dispositions[args[len(args)-1]]
		if found {
			disposition = d
			args = args[:len(args)-1]
		}
	}
	loc, err := s.resolve(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return s.settle(ctx, func(w *browser.Window) (*nav.NavigationRequest, error) {
		return nil, w.OpenItem(loc, disposition)
	})
}
