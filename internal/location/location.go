// Package location models folders in the shell namespace.
//
// A Location is an absolute, cleaned identifier. Two spellings are accepted:
// Windows style (drive letters and UNC shares, compared case-insensitively)
// and POSIX style (rooted at "/"). Above every drive sits Root, the top of
// the namespace, which has no parent.
package location

import (
	"errors"
	"path"
	"strings"
)

// Location identifies a folder in the shell namespace.
type Location string

// Root is the top of the shell namespace. Enumerating it lists drives.
const Root Location = "shell:desktop"

var (
	ErrEmpty       = errors.New("location: empty path")
	ErrNotAbsolute = errors.New("location: path is not absolute")
)

// Parse cleans s into a Location. Relative paths are rejected; callers that
// accept user input resolve them against the current folder with Resolve.
func Parse(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	if strings.EqualFold(s, string(Root)) {
		return Root, nil
	}
	if vol, rest, ok := splitVolume(s); ok {
		return windowsJoin(vol, rest), nil
	}
	if strings.HasPrefix(s, "/") {
		return Location(path.Clean(s)), nil
	}
	return "", ErrNotAbsolute
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Location {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Resolve interprets input relative to base. "~" expands to home when home
// is non-empty.
func Resolve(base Location, input, home string) (Location, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return base, nil
	}
	if home != "" && (input == "~" || strings.HasPrefix(input, "~/") || strings.HasPrefix(input, `~\`)) {
		input = home + input[1:]
	}
	if l, err := Parse(input); err == nil {
		return l, nil
	}
	if base == Root || base == "" {
		return "", ErrNotAbsolute
	}
	return Parse(string(base) + base.separator() + input)
}

// IsRoot reports whether l is the namespace root.
func (l Location) IsRoot() bool {
	return l == Root
}

// Parent returns the folder containing l. Drive roots, UNC shares and "/"
// have Root as their parent. Root has none.
func (l Location) Parent() (Location, bool) {
	if l == Root || l == "" {
		return "", false
	}
	if vol, rest, ok := splitVolume(string(l)); ok {
		if rest == "/" {
			return Root, true
		}
		return windowsJoin(vol, path.Dir(rest)), true
	}
	if l == "/" {
		return Root, true
	}
	return Location(path.Dir(string(l))), true
}

// HasParent reports whether Parent would succeed.
func (l Location) HasParent() bool {
	_, ok := l.Parent()
	return ok
}

// Equal compares two locations. Windows-style locations compare
// case-insensitively.
func (l Location) Equal(other Location) bool {
	if l == other {
		return true
	}
	if l.isWindows() && other.isWindows() {
		return strings.EqualFold(string(l), string(other))
	}
	return false
}

// Name returns the display name of the last path component.
func (l Location) Name() string {
	switch {
	case l == Root:
		return "Desktop"
	case l == "":
		return ""
	}
	if vol, rest, ok := splitVolume(string(l)); ok {
		if rest == "/" {
			return vol
		}
		return path.Base(rest)
	}
	if l == "/" {
		return "/"
	}
	return path.Base(string(l))
}

// Join returns the child location called name.
func (l Location) Join(name string) Location {
	if l == Root {
		c, err := Parse(name)
		if err != nil {
			return Location(name)
		}
		return c
	}
	c, err := Parse(string(l) + l.separator() + name)
	if err != nil {
		return l
	}
	return c
}

// Path returns the filesystem path for l. Root has no filesystem path.
func (l Location) Path() string {
	if l == Root {
		return ""
	}
	return string(l)
}

func (l Location) String() string {
	return string(l)
}

func (l Location) separator() string {
	if l.isWindows() {
		return `\`
	}
	return "/"
}

func (l Location) isWindows() bool {
	_, _, ok := splitVolume(string(l))
	return ok
}

// splitVolume separates a Windows volume ("C:" or `\\server\share`) from
// the rest of the path, which is returned slash-separated and rooted.
func splitVolume(s string) (vol, rest string, ok bool) {
	if len(s) >= 2 && isLetter(s[0]) && s[1] == ':' {
		vol = strings.ToUpper(s[:1]) + ":"
		rest = strings.ReplaceAll(s[2:], `\`, "/")
		return vol, path.Clean("/" + rest), true
	}
	if strings.HasPrefix(s, `\\`) || strings.HasPrefix(s, "//") {
		parts := strings.FieldsFunc(s, func(r rune) bool { return r == '\\' || r == '/' })
		if len(parts) < 2 {
			return "", "", false
		}
		vol = `\\` + parts[0] + `\` + parts[1]
		return vol, path.Clean("/" + strings.Join(parts[2:], "/")), true
	}
	return "", "", false
}

func windowsJoin(vol, rest string) Location {
	if rest == "/" {
		return Location(vol + `\`)
	}
	return Location(vol + strings.ReplaceAll(rest, "/", `\`))
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
