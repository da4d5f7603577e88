package runtimeconfig

import (
	"errors"
	"strings"
	"time"
)

// ErrDocumentsDirRequired indicates the literate-config directory is missing.
var ErrDocumentsDirRequired = errors.New("initmd config: documents directory is required")

// ErrStateDirRequired indicates no state directory was configured.
var ErrStateDirRequired = errors.New("initmd config: state directory is required")

var ErrLoggingProviderRequired = errors.New("initmd config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("initmd config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("initmd config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("initmd config: logging format is invalid")
var ErrWatchIntervalInvalid = errors.New("initmd config: watch interval must be positive")
var ErrDumpVerbosityInvalid = errors.New("initmd config: dump verbosity must be zero or positive")

// Config aggregates feature flags and collaborator bindings for the initmd
// module. Fields intentionally use simple types so host applications can
// extend them later.
type Config struct {
	Enabled   bool
	Documents DocumentsConfig
	Extract   ExtractConfig
	State     StateConfig
	Render    RenderConfig
	Watch     WatchConfig
	Features  Features
	Commands  CommandsConfig
	Logging   LoggingConfig
}

// DocumentsConfig captures filesystem discovery behaviour for literate
// documents.
type DocumentsConfig struct {
	// Dir is the root directory where Markdown documents live.
	Dir string
	// File restricts processing to a single document; the empty string
	// sentinel means scan the whole directory.
	File string
	// Pattern limits discovered files to those matching the supplied glob
	// (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// ExtractConfig captures fence-scanning behaviour.
type ExtractConfig struct {
	// Language is the fence tag identifying embedded blocks (defaults to
	// "lua").
	Language string
	// MainHeading and PluginsHeading name the section headings that scope
	// extracted blocks.
	MainHeading    string
	PluginsHeading string
}

// StateConfig captures where persisted run records live.
type StateConfig struct {
	// Dir holds the hash ledger, association record, block dump, and run
	// metadata.
	Dir string
	// DumpVerbosity gates the block dump output; zero disables it.
	DumpVerbosity int
}

// RenderConfig mirrors the goldmark options used by the preview command.
type RenderConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// WatchConfig controls the polling document watcher.
type WatchConfig struct {
	Enabled  bool
	Interval time.Duration
	Debounce time.Duration
}

// Features toggles module functionality.
type Features struct {
	ChangeDetection bool
	Associations    bool
	Reconcile       bool
	Dump            bool
	Logger          bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled bool
	Timeout time.Duration
}

// DefaultConfig returns opinionated defaults for a standard literate setup.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Documents: DocumentsConfig{
			Pattern:   "*.md",
			Recursive: false,
		},
		Extract: ExtractConfig{
			Language:       "lua",
			MainHeading:    "Main",
			PluginsHeading: "Plugins",
		},
		State: StateConfig{
			DumpVerbosity: 1,
		},
		Render: RenderConfig{
			Extensions: []string{"gfm", "linkify", "tasklist"},
		},
		Watch: WatchConfig{
			Interval: 500 * time.Millisecond,
			Debounce: 100 * time.Millisecond,
		},
		Features: Features{
			ChangeDetection: true,
			Associations:    true,
			Reconcile:       true,
			Dump:            true,
		},
		Commands: CommandsConfig{
			Enabled: true,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "console",
		},
	}
}

// Validate checks cross-field consistency and returns the first violation.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Documents.Dir) == "" {
		return ErrDocumentsDirRequired
	}
	if strings.TrimSpace(c.State.Dir) == "" {
		return ErrStateDirRequired
	}
	if c.State.DumpVerbosity < 0 {
		return ErrDumpVerbosityInvalid
	}
	if c.Watch.Enabled && c.Watch.Interval <= 0 {
		return ErrWatchIntervalInvalid
	}
	if c.Features.Logger {
		if err := c.Logging.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l LoggingConfig) validate() error {
	provider := strings.ToLower(strings.TrimSpace(l.Provider))
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	switch provider {
	case "console", "gologger", "noop":
	default:
		return ErrLoggingProviderUnknown
	}

	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return ErrLoggingLevelInvalid
	}

	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "json", "console", "pretty":
	default:
		return ErrLoggingFormatInvalid
	}
	return nil
}
