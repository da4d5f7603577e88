package interfaces

import "context"

// PluginSpec is a declarative record describing one installable plugin.
// Identifier uniqueness is not enforced here; the installer's idempotence
// governs duplicate declarations.
type PluginSpec struct {
	// Identifier is the plugin's primary reference (typically "owner/repo").
	Identifier string
	// Dir marks a local-path plugin when non-empty.
	Dir string
	// Import marks an imported spec module when non-empty.
	Import string
	// Attributes carries the remaining declared fields untouched.
	Attributes map[string]any
	// Manual excludes the spec from the desired set used for removals.
	Manual bool
	// Setup is the spec's own configuration action, run after install.
	Setup Action
	// Deferred holds setup actions injected by the scheduler, run after
	// Setup in registration order with per-action isolation.
	Deferred []Action
}

// SetupEntry is a unit of imperative configuration code that is not itself a
// plugin declaration. Exactly one of Source or Action is populated.
type SetupEntry struct {
	// Index is the 1-based index of the originating block.
	Index int
	// Source holds normalized Lua text to be compiled at execution time.
	Source string
	// Action holds an already-materialised closure (from evaluated
	// declarations or setup-capable tables).
	Action Action
}

// InstalledSet is the set of plugin identifiers currently installed.
type InstalledSet map[string]struct{}

// Contains reports membership, tolerating a nil set.
func (s InstalledSet) Contains(identifier string) bool {
	_, ok := s[identifier]
	return ok
}

// Installer is the external collaborator that clones, builds and loads
// plugins. The pipeline hands it the full spec list and never performs
// installation work itself.
type Installer interface {
	// Reconcile installs the declared specs and returns the identifiers
	// currently installed (including leftovers from previous runs).
	Reconcile(ctx context.Context, specs []*PluginSpec) (InstalledSet, error)
	// OnFirstLoadComplete registers an idempotent one-shot callback fired
	// once initial installation finishes.
	OnFirstLoadComplete(fn func())
	// Remove uninstalls a single plugin by identifier.
	Remove(ctx context.Context, identifier string) error
}
