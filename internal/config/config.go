package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
)

// EnvPrefix prefixes environment overrides, e.g.
// SHELLNAV_NAVIGATION_SHOWHIDDEN=true.
const EnvPrefix = "SHELLNAV"

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Navigation NavigationConfig `json:"navigation" mapstructure:"navigation"`
	Tabs       TabsConfig       `json:"tabs" mapstructure:"tabs"`
	Cache      CacheConfig      `json:"cache" mapstructure:"cache"`
	Watcher    WatcherConfig    `json:"watcher" mapstructure:"watcher"`
	Session    SessionConfig    `json:"session" mapstructure:"session"`
	History    HistoryConfig    `json:"history" mapstructure:"history"`
}

// NavigationConfig holds the folder settings new views start with
type NavigationConfig struct {
	StartLocation       string `json:"startLocation" mapstructure:"startLocation"` // empty means home
	ShowHidden          bool   `json:"showHidden" mapstructure:"showHidden"`
	Filter              string `json:"filter" mapstructure:"filter"`
	FilterCaseSensitive bool   `json:"filterCaseSensitive" mapstructure:"filterCaseSensitive"`
}

// TabsConfig holds tab-related settings
type TabsConfig struct {
	NewTabLocation string `json:"newTabLocation" mapstructure:"newTabLocation"` // "current" | "start" | absolute path
	SwitchToNewTab bool   `json:"switchToNewTab" mapstructure:"switchToNewTab"`
}

// CacheConfig sizes the folder listing cache
type CacheConfig struct {
	Size int `json:"size" mapstructure:"size"` // 0 disables the cache
}

// WatcherConfig controls automatic refresh on folder changes
type WatcherConfig struct {
	Enabled    bool `json:"enabled" mapstructure:"enabled"`
	DebounceMs int  `json:"debounceMs" mapstructure:"debounceMs"`
}

// SessionConfig controls session persistence
type SessionConfig struct {
	DBPath         string `json:"dbPath" mapstructure:"dbPath"`
	RestoreOnStart bool   `json:"restoreOnStart" mapstructure:"restoreOnStart"`
}

// HistoryConfig limits per-view history
type HistoryConfig struct {
	MaxEntries int `json:"maxEntries" mapstructure:"maxEntries"` // 0 = unlimited
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Navigation: NavigationConfig{
			StartLocation: "",
			ShowHidden:    false,
		},
		Tabs: TabsConfig{
			NewTabLocation: "current",
			SwitchToNewTab: true,
		},
		Cache: CacheConfig{
			Size: 64,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Session: SessionConfig{
			DBPath:         filepath.Join(configDir(), "sessions.db"),
			RestoreOnStart: true,
		},
		History: HistoryConfig{
			MaxEntries: nav.DefaultMaxHistoryEntries,
		},
	}
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "shellnav")
}

// ConfigPath returns the config file path: ~/.config/shellnav/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	return filepath.Join(configDir(), "config.json")
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("navigation.startLocation", d.Navigation.StartLocation)
	v.SetDefault("navigation.showHidden", d.Navigation.ShowHidden)
	v.SetDefault("navigation.filter", d.Navigation.Filter)
	v.SetDefault("navigation.filterCaseSensitive", d.Navigation.FilterCaseSensitive)
	v.SetDefault("tabs.newTabLocation", d.Tabs.NewTabLocation)
	v.SetDefault("tabs.switchToNewTab", d.Tabs.SwitchToNewTab)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("watcher.enabled", d.Watcher.Enabled)
	v.SetDefault("watcher.debounceMs", d.Watcher.DebounceMs)
	v.SetDefault("session.dbPath", d.Session.DBPath)
	v.SetDefault("session.restoreOnStart", d.Session.RestoreOnStart)
	v.SetDefault("history.maxEntries", d.History.MaxEntries)
}

// Load reads the configuration from path, or ConfigPath when path is empty.
// If the file doesn't exist, creates it with defaults.
// If parsing fails, stores the error and returns defaults.
// Environment variables override file values.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == "" {
		path = ConfigPath()
	}
	m.path = path
	m.parseErr = nil

	// Ensure config directory exists
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", dir, err)
		return err
	}

	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		// Create default config file
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if err := m.saveUnlocked(); err != nil {
			log.Printf("Config: failed to save default config: %v", err)
			return err
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(m.path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		// Store error for display, use defaults
		log.Printf("Config: parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Config: decode error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}

	cfg.Session.DBPath = ExpandHome(cfg.Session.DBPath)
	m.config = &cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	if m.path == "" {
		return errors.New("config: no path loaded")
	}
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// Path returns the file the configuration was loaded from.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetShowHidden updates the default hidden-file setting for new views
func (m *Manager) SetShowHidden(show bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Navigation.ShowHidden = show
	return m.saveUnlocked()
}

// SetStartLocation updates the folder new windows open in
func (m *Manager) SetStartLocation(loc location.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Navigation.StartLocation = loc.String()
	return m.saveUnlocked()
}

// FolderSettings returns the settings new views start with.
func (c Config) FolderSettings() nav.FolderSettings {
	return nav.FolderSettings{
		ShowHidden:          c.Navigation.ShowHidden,
		FilterText:          c.Navigation.Filter,
		FilterCaseSensitive: c.Navigation.FilterCaseSensitive,
		FilterEnabled:       c.Navigation.Filter != "",
	}
}

// StartLocation resolves navigation.startLocation. An empty value is the
// user's home folder, falling back to the namespace root.
func (c Config) StartLocation() (location.Location, error) {
	raw := ExpandHome(c.Navigation.StartLocation)
	if raw == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return location.Root, nil
		}
		raw = home
	}
	loc, err := location.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("config: navigation.startLocation %q: %w", c.Navigation.StartLocation, err)
	}
	return loc, nil
}

// NewTabLocation picks the folder a new tab opens in, given the folder of
// the active tab.
func (c Config) NewTabLocation(current location.Location) location.Location {
	switch c.Tabs.NewTabLocation {
	case "", "current":
		return current
	case "start":
		if loc, err := c.StartLocation(); err == nil {
			return loc
		}
		return current
	default:
		if loc, err := location.Parse(ExpandHome(c.Tabs.NewTabLocation)); err == nil {
			return loc
		}
		return current
	}
}

// WatcherDebounce returns watcher.debounceMs as a duration.
func (c Config) WatcherDebounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMs) * time.Millisecond
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
