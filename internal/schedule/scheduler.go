package schedule

import (
	"context"
	"strings"

	"github.com/iansherr/nvim-initmd/internal/associate"
	"github.com/iansherr/nvim-initmd/internal/classify"
	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// keymapCalls are the keymap-registration primitives that force immediate
// execution: interactive bindings must be available before the owning
// plugin's lazy load completes.
var keymapCalls = []string{
	"vim.keymap.set",
	"vim.api.nvim_set_keymap",
	"nvim_set_keymap",
}

// Plan is the result of partitioning setup entries: Immediate entries run
// during this pipeline run; deferred entries have already been compiled and
// injected into their owning spec's Deferred list.
type Plan struct {
	Immediate []*interfaces.SetupEntry
	// DeferredCount records how many entries were injected into specs.
	DeferredCount int
}

// Scheduler partitions setup entries into deferred-until-load versus
// run-immediately, and injects deferred actions into the owning spec.
type Scheduler struct {
	evaluator interfaces.Evaluator
	logger    interfaces.Logger
}

// New constructs a Scheduler. The logger may be nil.
func New(evaluator interfaces.Evaluator, logger interfaces.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Scheduler{evaluator: evaluator, logger: logger}
}

// Schedule walks the entries in order. An entry is deferred when it has an
// association that resolves to a spec and its text registers no keymaps;
// everything else stays immediate. Deferred entries are compiled once and
// appended to the owning spec's ordered Deferred list, which RunSetup
// executes after the spec's own setup action.
func (s *Scheduler) Schedule(specs []*interfaces.PluginSpec, entries []*interfaces.SetupEntry, associations associate.Map) Plan {
	plan := Plan{}

	for _, entry := range entries {
		identifier, associated := associations[entry.Index]
		if !associated || registersKeymaps(entry.Source) {
			plan.Immediate = append(plan.Immediate, entry)
			continue
		}

		spec := resolveSpec(specs, identifier)
		if spec == nil {
			// The association is advisory; with no owning spec installed
			// the entry degrades to immediate execution.
			s.logger.Debug("schedule.association.unresolved",
				"entry_index", entry.Index,
				"identifier", identifier,
			)
			plan.Immediate = append(plan.Immediate, entry)
			continue
		}

		action, ok := s.materialise(entry)
		if !ok {
			continue
		}
		spec.Deferred = append(spec.Deferred, action)
		plan.DeferredCount++
		s.logger.Debug("schedule.entry.deferred",
			"entry_index", entry.Index,
			"identifier", spec.Identifier,
		)
	}

	return plan
}

// RunImmediate executes the plan's immediate entries in block order and
// reports how many ran. Failures are isolated per entry.
func (s *Scheduler) RunImmediate(ctx context.Context, entries []*interfaces.SetupEntry) int {
	ran := 0
	for _, entry := range entries {
		action, ok := s.materialise(entry)
		if !ok {
			continue
		}
		if err := action(ctx); err != nil {
			s.logger.Error("schedule.entry.failed",
				"entry_index", entry.Index,
				"error", err,
			)
		}
		ran++
	}
	return ran
}

// materialise turns an entry into a runnable action, compiling text entries
// once with the layered fallback strategies. Compile failures are logged
// with the offending source and the entry is dropped.
func (s *Scheduler) materialise(entry *interfaces.SetupEntry) (interfaces.Action, bool) {
	if entry.Action != nil {
		return entry.Action, true
	}

	unit, err := classify.Compile(s.evaluator, entry.Source)
	if err != nil {
		s.logger.Error("schedule.entry.compile_failed",
			"entry_index", entry.Index,
			"error", err,
			"source", entry.Source,
		)
		return nil, false
	}
	return func(ctx context.Context) error {
		_, err := unit.Invoke(ctx)
		return err
	}, true
}

// RunSetup executes a spec's setup action followed by its deferred actions
// in registration order. Each action is isolated: a failure is logged and
// does not prevent subsequent actions, and effects already applied stand.
func RunSetup(ctx context.Context, spec *interfaces.PluginSpec, logger interfaces.Logger) {
	if logger == nil {
		logger = logging.NoOp()
	}

	if spec.Setup != nil {
		if err := spec.Setup(ctx); err != nil {
			logger.Error("schedule.setup.failed",
				"identifier", spec.Identifier,
				"error", err,
			)
		}
	}

	for i, action := range spec.Deferred {
		if err := action(ctx); err != nil {
			logger.Error("schedule.deferred.failed",
				"identifier", spec.Identifier,
				"position", i,
				"error", err,
			)
		}
	}
}

// registersKeymaps reports whether the entry text contains a
// keymap-registration call.
func registersKeymaps(source string) bool {
	for _, call := range keymapCalls {
		if strings.Contains(source, call) {
			return true
		}
	}
	return false
}

// resolveSpec finds the spec an association identifier refers to: an exact
// identifier match first, then a spec whose repository short name matches
// the require()-style module name.
func resolveSpec(specs []*interfaces.PluginSpec, identifier string) *interfaces.PluginSpec {
	for _, spec := range specs {
		if spec.Identifier == identifier {
			return spec
		}
	}
	for _, spec := range specs {
		if shortName(spec.Identifier) == moduleName(identifier) {
			return spec
		}
	}
	for _, spec := range specs {
		if spec.Identifier != "" && strings.Contains(spec.Identifier, moduleName(identifier)) {
			return spec
		}
	}
	return nil
}

// shortName reduces "owner/plugin.nvim" to "plugin".
func shortName(identifier string) string {
	name := identifier
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".nvim")
	name = strings.TrimSuffix(name, ".lua")
	return name
}

// moduleName reduces a require literal like "telescope.builtin" to its root
// module "telescope".
func moduleName(identifier string) string {
	if idx := strings.Index(identifier, "."); idx >= 0 {
		return identifier[:idx]
	}
	return identifier
}
