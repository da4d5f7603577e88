package plugins

import (
	"context"

	"github.com/iansherr/nvim-initmd/internal/classify"
	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Builder evaluates classified blocks into the two ordered collections the
// rest of the pipeline consumes: plugin specs and free-form setup entries.
// Every evaluation is isolated: one failing block never aborts processing
// of subsequent blocks.
type Builder struct {
	evaluator interfaces.Evaluator
	logger    interfaces.Logger
}

// NewBuilder constructs a Builder. The logger may be nil.
func NewBuilder(evaluator interfaces.Evaluator, logger interfaces.Logger) *Builder {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Builder{evaluator: evaluator, logger: logger}
}

// Build walks the classified blocks in order and produces specs and entries.
// Errors are recovered locally per block (logged with the offending source,
// block dropped) and never returned.
func (b *Builder) Build(ctx context.Context, classified []classify.Classified) ([]*interfaces.PluginSpec, []*interfaces.SetupEntry) {
	var specs []*interfaces.PluginSpec
	var entries []*interfaces.SetupEntry

	for _, item := range classified {
		switch item.Kind {
		case classify.KindDisabled:
			// Dropped entirely; the classifier already logged it.
		case classify.KindBareReference:
			// Shorthand for a one-element spec list wrapping the literal.
			specs = append(specs, &interfaces.PluginSpec{
				Identifier: item.Text,
				Manual:     item.Manual,
			})
		case classify.KindSpec:
			blockSpecs, blockEntries := b.buildSpec(ctx, item)
			specs = append(specs, blockSpecs...)
			entries = append(entries, blockEntries...)
		case classify.KindSetupFunction:
			if entry := b.buildSetupFunction(ctx, item); entry != nil {
				entries = append(entries, entry)
			}
		default:
			entries = append(entries, &interfaces.SetupEntry{
				Index:  item.Block.Index,
				Source: item.Text,
			})
		}
	}

	return specs, entries
}

// buildSpec evaluates a spec-shaped block and interprets the tagged result:
// lists recurse per item, spec-like tables become specs, setup-capable
// values become entries, and anything else demotes to a free-form entry
// with a warning rather than being dropped silently.
func (b *Builder) buildSpec(ctx context.Context, item classify.Classified) ([]*interfaces.PluginSpec, []*interfaces.SetupEntry) {
	result, ok := b.evaluate(ctx, item)
	if !ok {
		return nil, nil
	}

	var specs []*interfaces.PluginSpec
	var entries []*interfaces.SetupEntry

	switch {
	case result.Kind == interfaces.ResultList:
		for _, element := range result.Items {
			if element.SpecLike() {
				specs = append(specs, specFrom(element, item))
				continue
			}
			entries = append(entries, b.entryFrom(element, item))
		}
	case result.Name != "" || result.Dir != "" || result.Import != "":
		specs = append(specs, specFrom(result, item))
	case result.Kind == interfaces.ResultTable && result.Setup != nil:
		entries = append(entries, &interfaces.SetupEntry{
			Index:  item.Block.Index,
			Action: result.Setup,
		})
	case result.Kind == interfaces.ResultCallable:
		entries = append(entries, &interfaces.SetupEntry{
			Index:  item.Block.Index,
			Action: result.Call,
		})
	default:
		b.logger.Warn("build.spec.unrecognized_shape",
			"block_index", item.Block.Index,
			"document", item.Block.Document,
		)
		entries = append(entries, &interfaces.SetupEntry{
			Index:  item.Block.Index,
			Source: item.Text,
		})
	}

	return specs, entries
}

// buildSetupFunction evaluates a named setup declaration into a callable
// entry. On any failure the error is logged with the offending source and
// the block is dropped; there is no further fallback.
func (b *Builder) buildSetupFunction(ctx context.Context, item classify.Classified) *interfaces.SetupEntry {
	result, ok := b.evaluate(ctx, item)
	if !ok {
		return nil
	}

	switch {
	case result.Kind == interfaces.ResultCallable && result.Call != nil:
		return &interfaces.SetupEntry{Index: item.Block.Index, Action: result.Call}
	case result.Setup != nil:
		return &interfaces.SetupEntry{Index: item.Block.Index, Action: result.Setup}
	}

	b.logger.Error("build.setup_function.not_callable",
		"block_index", item.Block.Index,
		"document", item.Block.Document,
		"source", item.Text,
	)
	return nil
}

// evaluate compiles (with layered fallback) and invokes the block's text.
// Declaration shapes get a trailing return of the declared name so the
// evaluated value surfaces out of the chunk.
func (b *Builder) evaluate(ctx context.Context, item classify.Classified) (*interfaces.EvalResult, bool) {
	source := item.Text
	if item.DeclaredName != "" {
		source = source + "\nreturn " + item.DeclaredName
	}

	unit, err := classify.Compile(b.evaluator, source)
	if err != nil {
		b.logger.Error("build.block.compile_failed",
			"block_index", item.Block.Index,
			"document", item.Block.Document,
			"error", err,
			"source", item.Text,
		)
		return nil, false
	}

	result, err := unit.Invoke(ctx)
	if err != nil {
		b.logger.Error("build.block.eval_failed",
			"block_index", item.Block.Index,
			"document", item.Block.Document,
			"error", err,
			"source", item.Text,
		)
		return nil, false
	}
	return result, true
}

// entryFrom converts a non-spec list element into a setup entry: callables
// keep their closure, anything else is logged and demoted best-effort.
func (b *Builder) entryFrom(element *interfaces.EvalResult, item classify.Classified) *interfaces.SetupEntry {
	entry := &interfaces.SetupEntry{Index: item.Block.Index}
	switch {
	case element.Kind == interfaces.ResultCallable && element.Call != nil:
		entry.Action = element.Call
	default:
		b.logger.Warn("build.list.element_demoted",
			"block_index", item.Block.Index,
			"document", item.Block.Document,
		)
		entry.Source = item.Text
	}
	return entry
}

// specFrom materialises a plugin spec from a spec-like result, propagating
// the block's manual marker through list expansion.
func specFrom(result *interfaces.EvalResult, item classify.Classified) *interfaces.PluginSpec {
	return &interfaces.PluginSpec{
		Identifier: result.Name,
		Dir:        result.Dir,
		Import:     result.Import,
		Attributes: result.Attributes,
		Manual:     item.Manual,
		Setup:      result.Setup,
	}
}
