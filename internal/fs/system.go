package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/filter"
	"github.com/justyntemme/shellnav/internal/location"
)

var (
	ErrNotFound     = errors.New("folder not found")
	ErrAccessDenied = errors.New("access denied")
	ErrNotFolder    = errors.New("not a folder")
)

// Entry is one item in a folder.
type Entry struct {
	Name    string
	Path    location.Location
	IsDir   bool
	Hidden  bool
	Size    int64
	ModTime time.Time
}

// Options control what an enumeration returns.
type Options struct {
	ShowHidden          bool
	Filter              string
	FilterCaseSensitive bool

	// BypassCache forces a fresh read when the enumerator is cached.
	BypassCache bool
}

// Enumerator lists the items in a folder. Implementations must return
// ctx.Err() promptly once ctx is cancelled.
type Enumerator interface {
	Enumerate(ctx context.Context, loc location.Location, opts Options) ([]Entry, error)
}

// System enumerates the local filesystem. Root lists drives.
type System struct {
	now    func() time.Time
	drives func() []Drive
}

func NewSystem() *System {
	return &System{now: time.Now, drives: ListDrives}
}

func (s *System) Enumerate(ctx context.Context, loc location.Location, opts Options) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.IsRoot() {
		return s.enumerateDrives(), nil
	}

	path := loc.Path()
	if err := checkFolder(path); err != nil {
		debug.Log(debug.FS, "Enumerate %q: %v", path, err)
		return nil, err
	}

	match := filter.Parse(opts.Filter, opts.FilterCaseSensitive, s.now())
	entries, err := s.fetchDir(ctx, path, loc, opts.ShowHidden, match)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	debug.Log(debug.FS, "Enumerate %q: %d entries", path, len(entries))
	return entries, nil
}

func checkFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return classify(path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotFolder)
	}
	f, err := os.Open(path)
	if err != nil {
		return classify(path, err)
	}
	f.Close()
	return nil
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case errors.Is(err, iofs.ErrPermission):
		return fmt.Errorf("%s: %w", path, ErrAccessDenied)
	}
	return fmt.Errorf("%s: %w", path, err)
}

func (s *System) fetchDir(ctx context.Context, path string, loc location.Location, showHidden bool, match *filter.Filter) ([]Entry, error) {
	var result []Entry
	var mu sync.Mutex

	conf := &fastwalk.Config{
		Follow: true,
	}

	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d iofs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			debug.Log(debug.FS_ENTRY, "fetchDir: walk error at %q: %v", fullPath, err)
			return nil
		}
		if fullPath == path {
			return nil
		}

		// Direct children only.
		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], `/\`) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Broken symlink: report the link itself.
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.FS_ENTRY, "fetchDir: skipping %q: %v", d.Name(), err)
				return nil
			}
		}

		hidden := isHidden(d.Name(), info)
		if hidden && !showHidden {
			return skip(d)
		}
		if !match.Match(d.Name(), info.IsDir(), info.Size(), info.ModTime()) {
			return skip(d)
		}

		mu.Lock()
		result = append(result, Entry{
			Name:    d.Name(),
			Path:    loc.Join(d.Name()),
			IsDir:   info.IsDir(),
			Hidden:  hidden,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		mu.Unlock()

		return skip(d)
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classify(path, err)
	}
	return result, nil
}

func skip(d iofs.DirEntry) error {
	if d.IsDir() {
		return fastwalk.SkipDir
	}
	return nil
}

func (s *System) enumerateDrives() []Entry {
	drives := s.drives()
	entries := make([]Entry, 0, len(drives))
	for _, d := range drives {
		loc, err := location.Parse(d.Path)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: d.Name, Path: loc, IsDir: true})
	}
	return entries
}

// sortEntries orders folders before files, then by case-insensitive name.
func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
