package reconcile

import (
	"context"
	"sort"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Result captures the outcome of one reconciliation pass.
type Result struct {
	Installed interfaces.InstalledSet
	Desired   interfaces.InstalledSet
	Removals  []string
	Failed    []string
}

// Reconciler drives the installer toward the desired plugin set and
// removes installed plugins that no longer appear in it.
type Reconciler struct {
	installer interfaces.Installer
	logger    interfaces.Logger
}

func New(installer interfaces.Installer, logger interfaces.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Reconciler{installer: installer, logger: logger}
}

// DesiredSet derives the identifiers the current document set asks for.
// Manual specs are excluded: they are user-managed and never reconciled.
// Local and import-only specs carry a tag so they cannot collide with
// repository identifiers.
func DesiredSet(specs []*interfaces.PluginSpec) interfaces.InstalledSet {
	desired := make(interfaces.InstalledSet, len(specs))
	for _, spec := range specs {
		if spec.Manual {
			continue
		}
		desired[Identifier(spec)] = struct{}{}
	}
	return desired
}

// Reconcile installs missing plugins and prunes orphaned ones. Removal
// failures are reported per identifier and never abort the pass.
func (r *Reconciler) Reconcile(ctx context.Context, specs []*interfaces.PluginSpec) (Result, error) {
	result := Result{Desired: DesiredSet(specs)}

	installed, err := r.installer.Reconcile(ctx, specs)
	if err != nil {
		return result, err
	}
	result.Installed = installed

	// An empty desired set means every document failed to yield specs;
	// pruning the whole install dir in that state would be destructive.
	if len(result.Desired) == 0 {
		if len(installed) > 0 {
			r.logger.Warn("skipping removals: desired set is empty", "installed", len(installed))
		}
		return result, nil
	}

	for identifier := range installed {
		if result.Desired.Contains(identifier) {
			continue
		}
		result.Removals = append(result.Removals, identifier)
	}
	sort.Strings(result.Removals)

	for _, identifier := range result.Removals {
		if err := r.installer.Remove(ctx, identifier); err != nil {
			r.logger.Error("plugin removal failed", "identifier", identifier, "error", err)
			result.Failed = append(result.Failed, identifier)
		}
	}

	return result, nil
}

// Identifier returns the identity a spec is reconciled under. Installers
// must key their installed sets with the same tags or path and import
// specs would always look orphaned.
func Identifier(spec *interfaces.PluginSpec) string {
	switch {
	case spec.Dir != "":
		return "dir:" + spec.Dir
	case spec.Import != "":
		return "import:" + spec.Import
	default:
		return spec.Identifier
	}
}
