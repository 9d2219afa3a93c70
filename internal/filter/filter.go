// Package filter implements the folder filter used while enumerating.
//
// A filter is a space-separated list of terms, all of which must match:
//   - "foo", "*.go"        -> name glob (substring when there is no '*')
//   - "ext:go"             -> extension
//   - "size:>1MB"          -> size comparison (humanize units, MiB for 2^20)
//   - "modified:>2024-01-01", "modified:>=today"
//
// Folders are never filtered out; a filter only narrows the files shown.
package filter

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type TermType int

const (
	TermName TermType = iota
	TermExt
	TermSize
	TermModified
)

// Operator compares a size or date against the term's value.
type Operator int

const (
	OpEquals Operator = iota
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
)

type Term struct {
	Type     TermType
	Value    string
	Operator Operator
	Bytes    uint64
	Time     time.Time
}

// Filter is a parsed filter expression.
type Filter struct {
	Terms         []Term
	Raw           string
	CaseSensitive bool
}

// Parse parses input. now anchors relative dates such as "today".
func Parse(input string, caseSensitive bool, now time.Time) *Filter {
	f := &Filter{Raw: input, CaseSensitive: caseSensitive}
	for _, part := range splitRespectingQuotes(strings.TrimSpace(input)) {
		f.Terms = append(f.Terms, parseTerm(part, now))
	}
	return f
}

// IsEmpty reports whether the filter accepts everything.
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Terms) == 0
}

// Match reports whether an item passes the filter.
func (f *Filter) Match(name string, isDir bool, size int64, modTime time.Time) bool {
	if f.IsEmpty() || isDir {
		return true
	}
	for _, t := range f.Terms {
		if !f.matchTerm(t, name, size, modTime) {
			return false
		}
	}
	return true
}

func (f *Filter) matchTerm(t Term, name string, size int64, modTime time.Time) bool {
	switch t.Type {
	case TermName:
		pattern := t.Value
		if !f.CaseSensitive {
			name = strings.ToLower(name)
			pattern = strings.ToLower(pattern)
		}
		return matchGlob(name, pattern)

	case TermExt:
		ext := filepath.Ext(name)
		if f.CaseSensitive {
			return ext == t.Value
		}
		return strings.EqualFold(ext, t.Value)

	case TermSize:
		if size < 0 {
			return false
		}
		return compareUint(uint64(size), t.Bytes, t.Operator)

	case TermModified:
		if t.Time.IsZero() {
			return true
		}
		return compareTime(modTime, t.Time, t.Operator)
	}
	return true
}

func splitRespectingQuotes(s string) []string {
	var parts []string
	var current strings.Builder
	quote := rune(0)

	for _, r := range s {
		switch {
		case (r == '"' || r == '\'') && quote == 0:
			quote = r
		case r == quote:
			quote = 0
		case r == ' ' && quote == 0:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func parseTerm(s string, now time.Time) Term {
	if idx := strings.Index(s, ":"); idx > 0 {
		key := strings.ToLower(s[:idx])
		value := strings.Trim(s[idx+1:], `"'`)

		switch key {
		case "name", "filename", "file":
			return Term{Type: TermName, Value: value}

		case "ext", "extension", "type":
			if !strings.HasPrefix(value, ".") {
				value = "." + value
			}
			return Term{Type: TermExt, Value: value}

		case "size":
			op, num := parseOperator(value)
			n, err := humanize.ParseBytes(num)
			if err != nil {
				n = 0
			}
			return Term{Type: TermSize, Value: value, Operator: op, Bytes: n}

		case "modified", "date", "mtime":
			op, date := parseOperator(value)
			return Term{Type: TermModified, Value: value, Operator: op, Time: parseDate(date, now)}
		}
	}
	return Term{Type: TermName, Value: s}
}

func parseOperator(s string) (Operator, string) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, ">="):
		return OpGreaterEq, strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "<="):
		return OpLessEq, strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, ">"):
		return OpGreater, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "<"):
		return OpLess, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "="):
		return OpEquals, strings.TrimSpace(s[1:])
	}
	return OpEquals, s
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

func parseDate(s string, now time.Time) time.Time {
	s = strings.ToLower(strings.TrimSpace(s))
	startOfDay := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}

	switch s {
	case "today":
		return startOfDay(now)
	case "yesterday":
		return startOfDay(now.AddDate(0, 0, -1))
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return time.Time{}
}

// matchGlob matches '*' wildcards. A pattern without wildcards matches as a
// substring.
func matchGlob(name, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return strings.Contains(name, pattern)
	}

	parts := strings.Split(pattern, "*")
	if parts[0] != "" && !strings.HasPrefix(name, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if last != "" && !strings.HasSuffix(name, last) {
		return false
	}

	pos := len(parts[0])
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(name[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return pos <= len(name)-len(last)
}

func compareUint(val, target uint64, op Operator) bool {
	switch op {
	case OpGreater:
		return val > target
	case OpLess:
		return val < target
	case OpGreaterEq:
		return val >= target
	case OpLessEq:
		return val <= target
	}
	return val == target
}

func compareTime(val, target time.Time, op Operator) bool {
	switch op {
	case OpGreater:
		return val.After(target)
	case OpLess:
		return val.Before(target)
	case OpGreaterEq:
		return !val.Before(target)
	case OpLessEq:
		return !val.After(target)
	}
	vy, vm, vd := val.Date()
	ty, tm, td := target.Date()
	return vy == ty && vm == tm && vd == td
}
