//go:build !debug

// Package debug logs navigation, enumeration and session activity by
// category. Without the debug build tag every call compiles away.
package debug

const Enabled = false

type Category string

const (
	NAV      Category = "NAV"
	EVENTS   Category = "EVENTS"
	FS       Category = "FS"
	STORE    Category = "STORE"
	WATCH    Category = "WATCH"
	BROWSER  Category = "BROWSER"
	CLI      Category = "CLI"
	FS_ENTRY Category = "FS_ENTRY"
	DISPATCH Category = "DISPATCH"
)

func Log(cat Category, format string, args ...interface{}) {}

func Enable(cat Category) {}

func Disable(cat Category) {}

// IsEnabled reports false: no category logs in this build.
func IsEnabled(cat Category) bool { return false }

func EnableAll() {}
