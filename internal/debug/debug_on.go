//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	NAV     Category = "NAV"     // Navigation controller, requests, history
	EVENTS  Category = "EVENTS"  // Navigation event dispatch
	FS      Category = "FS"      // Folder enumeration
	STORE   Category = "STORE"   // Session database
	WATCH   Category = "WATCH"   // Directory change notifications
	BROWSER Category = "BROWSER" // Windows, tabs, open dispositions
	CLI     Category = "CLI"     // Command-line driver

	// Verbose
	FS_ENTRY Category = "FS_ENTRY" // Individual enumerated items
	DISPATCH Category = "DISPATCH" // Task posting between execution contexts
)

var (
	enabledCategories = map[Category]bool{
		NAV:     true,
		EVENTS:  true,
		FS:      true,
		STORE:   true,
		WATCH:   true,
		BROWSER: true,
		CLI:     true,

		FS_ENTRY: false,
		DISPATCH: false,
	}
	categoryMu sync.RWMutex

	logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
)

func init() {
	// SHELLNAV_DEBUG=NAV,FS or all or none
	if env := os.Getenv("SHELLNAV_DEBUG"); env != "" {
		categoryMu.Lock()
		defer categoryMu.Unlock()

		env = strings.ToUpper(env)
		switch env {
		case "ALL":
			for cat := range enabledCategories {
				enabledCategories[cat] = true
			}
		case "NONE":
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
		default:
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
			for _, cat := range strings.Split(env, ",") {
				enabledCategories[Category(strings.TrimSpace(cat))] = true
			}
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	logger.Printf("[%s] %s", cat, fmt.Sprintf(format, args...))
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// EnableAll enables all debug categories including verbose ones
func EnableAll() {
	categoryMu.Lock()
	for cat := range enabledCategories {
		enabledCategories[cat] = true
	}
	categoryMu.Unlock()
}
