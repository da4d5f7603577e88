package interfaces

import "context"

// Action is a zero-argument unit of imperative configuration. Implementations
// must catch runtime failures internally or return them; they must never
// panic across the boundary.
type Action func(ctx context.Context) error

// ResultKind tags the shape of an evaluated Lua value so classification can
// branch without reaching into the VM's own types.
type ResultKind int

const (
	// ResultNil marks an evaluation that produced no value.
	ResultNil ResultKind = iota
	// ResultList marks an ordered list whose items are themselves results.
	ResultList
	// ResultTable marks a table value with named fields.
	ResultTable
	// ResultCallable marks a bare function value.
	ResultCallable
	// ResultOther marks any value the pipeline treats as opaque.
	ResultOther
)

// EvalResult is the tagged variant produced by evaluating a block. Exactly
// which fields are populated depends on Kind:
//
//   - ResultList: Items holds the converted elements in order.
//   - ResultTable: Name carries the first positional string element, Dir and
//     Import carry the matching named fields, Setup the callable config/setup
//     field when present, Attributes the remaining scalar fields.
//   - ResultCallable: Call invokes the underlying function.
type EvalResult struct {
	Kind       ResultKind
	Items      []*EvalResult
	Name       string
	Dir        string
	Import     string
	Setup      Action
	Call       Action
	Attributes map[string]any
}

// SpecLike reports whether the result satisfies the plugin-spec predicate:
// a non-empty identifier, a local-path marker, an import marker, or a setup
// callable.
func (r *EvalResult) SpecLike() bool {
	if r == nil || r.Kind != ResultTable {
		return false
	}
	return r.Name != "" || r.Dir != "" || r.Import != "" || r.Setup != nil
}

// Unit is a compiled chunk of Lua source ready to run.
type Unit interface {
	// Invoke executes the chunk, catching all runtime failures, and returns
	// the first value the chunk yields.
	Invoke(ctx context.Context) (*EvalResult, error)
}

// Evaluator is the host execution environment collaborator: it compiles Lua
// source into invocable units. Compilation errors are returned verbatim so
// callers can layer fallback strategies on top.
type Evaluator interface {
	Compile(source string) (Unit, error)
}
