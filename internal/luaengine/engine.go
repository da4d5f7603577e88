package luaengine

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// spec table fields recognised during conversion.
const (
	fieldDir    = "dir"
	fieldImport = "import"
	fieldConfig = "config"
	fieldSetup  = "setup"
)

// Config controls engine construction.
type Config struct {
	// StubGlobals lists global names (e.g. "vim") replaced with permissive
	// stand-ins so editor-API calls evaluate without a live host. An empty
	// slice installs the default "vim" stub; use NoStubs to disable.
	StubGlobals []string
	// NoStubs disables stub installation entirely, for embedding inside a
	// host that provides real globals.
	NoStubs bool
}

// Engine implements interfaces.Evaluator on top of a single gopher-lua
// state. The pipeline is single-threaded, so no locking is applied; callers
// must not share an Engine across goroutines.
type Engine struct {
	state  *lua.LState
	logger interfaces.Logger
}

var _ interfaces.Evaluator = (*Engine)(nil)

// New constructs an Engine. The logger may be nil.
func New(cfg Config, logger interfaces.Logger) *Engine {
	if logger == nil {
		logger = logging.NoOp()
	}
	state := lua.NewState()

	if !cfg.NoStubs {
		stubs := cfg.StubGlobals
		if len(stubs) == 0 {
			stubs = []string{"vim"}
		}
		for _, name := range stubs {
			state.SetGlobal(name, newPermissive(state))
		}
	}

	return &Engine{state: state, logger: logger}
}

// Close releases the underlying Lua state.
func (e *Engine) Close() {
	e.state.Close()
}

// Compile turns Lua source into an invocable unit. Compilation errors are
// returned verbatim so callers can layer fallback strategies.
func (e *Engine) Compile(source string) (interfaces.Unit, error) {
	fn, err := e.state.LoadString(source)
	if err != nil {
		return nil, err
	}
	return &unit{engine: e, fn: fn}, nil
}

type unit struct {
	engine *Engine
	fn     *lua.LFunction
}

// Invoke executes the compiled chunk and converts its first return value
// into the tagged result variant. All Lua runtime failures are caught and
// returned as errors.
func (u *unit) Invoke(ctx context.Context) (result *interfaces.EvalResult, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("luaengine: panic during invoke: %v", r)
		}
	}()

	state := u.engine.state
	base := state.GetTop()
	state.Push(u.fn)
	if callErr := state.PCall(0, lua.MultRet, nil); callErr != nil {
		state.SetTop(base)
		return nil, callErr
	}

	if state.GetTop() > base {
		result = u.engine.convert(state.Get(base + 1))
	} else {
		result = &interfaces.EvalResult{Kind: interfaces.ResultNil}
	}
	state.SetTop(base)
	return result, nil
}

// convert maps a Lua value into the tagged EvalResult variant the classifier
// inspects. Tables are either ordered spec lists or single spec-like tables;
// bare strings are promoted to identifier-only tables so list items like
// "owner/repo" classify uniformly.
func (e *Engine) convert(value lua.LValue) *interfaces.EvalResult {
	switch v := value.(type) {
	case *lua.LNilType:
		return &interfaces.EvalResult{Kind: interfaces.ResultNil}
	case lua.LString:
		return &interfaces.EvalResult{Kind: interfaces.ResultTable, Name: string(v)}
	case *lua.LFunction:
		return &interfaces.EvalResult{Kind: interfaces.ResultCallable, Call: e.action(v)}
	case *lua.LTable:
		return e.convertTable(v)
	default:
		return &interfaces.EvalResult{Kind: interfaces.ResultOther}
	}
}

func (e *Engine) convertTable(tbl *lua.LTable) *interfaces.EvalResult {
	length := tbl.Len()
	if isSpecList(tbl, length) {
		items := make([]*interfaces.EvalResult, 0, length)
		for i := 1; i <= length; i++ {
			items = append(items, e.convert(tbl.RawGetInt(i)))
		}
		return &interfaces.EvalResult{Kind: interfaces.ResultList, Items: items}
	}

	result := &interfaces.EvalResult{
		Kind:       interfaces.ResultTable,
		Attributes: map[string]any{},
	}

	if name, ok := tbl.RawGetInt(1).(lua.LString); ok {
		result.Name = string(name)
	}
	if dir, ok := tbl.RawGetString(fieldDir).(lua.LString); ok {
		result.Dir = string(dir)
	}
	if imp, ok := tbl.RawGetString(fieldImport).(lua.LString); ok {
		result.Import = string(imp)
	}
	if fn, ok := tbl.RawGetString(fieldConfig).(*lua.LFunction); ok {
		result.Setup = e.action(fn)
	} else if fn, ok := tbl.RawGetString(fieldSetup).(*lua.LFunction); ok {
		result.Setup = e.action(fn)
	}

	tbl.ForEach(func(key, value lua.LValue) {
		name, ok := key.(lua.LString)
		if !ok {
			return
		}
		field := string(name)
		if field == fieldDir || field == fieldImport || field == fieldConfig || field == fieldSetup {
			return
		}
		if decoded, ok := decode(value, 0); ok {
			result.Attributes[field] = decoded
		}
	})

	return result
}

// isSpecList reports whether the table is an ordered list of specs rather
// than a single spec with a positional identifier: every positional element
// is a table, or there are multiple positional elements that are all tables
// or strings.
func isSpecList(tbl *lua.LTable, length int) bool {
	if length == 0 {
		return false
	}
	allTables := true
	allTableOrString := true
	for i := 1; i <= length; i++ {
		switch tbl.RawGetInt(i).(type) {
		case *lua.LTable:
		case lua.LString:
			allTables = false
		default:
			allTables = false
			allTableOrString = false
		}
	}
	if allTables {
		return true
	}
	return length > 1 && allTableOrString
}

const maxDecodeDepth = 8

// decode converts scalar and nested table values into plain Go values for
// the attributes bag. Functions and userdata are skipped.
func decode(value lua.LValue, depth int) (any, bool) {
	if depth > maxDecodeDepth {
		return nil, false
	}
	switch v := value.(type) {
	case lua.LBool:
		return bool(v), true
	case lua.LNumber:
		return float64(v), true
	case lua.LString:
		return string(v), true
	case *lua.LTable:
		if length := v.Len(); length > 0 {
			items := make([]any, 0, length)
			for i := 1; i <= length; i++ {
				if decoded, ok := decode(v.RawGetInt(i), depth+1); ok {
					items = append(items, decoded)
				}
			}
			return items, true
		}
		fields := map[string]any{}
		v.ForEach(func(key, val lua.LValue) {
			name, ok := key.(lua.LString)
			if !ok {
				return
			}
			if decoded, ok := decode(val, depth+1); ok {
				fields[string(name)] = decoded
			}
		})
		return fields, true
	default:
		return nil, false
	}
}

// action wraps a Lua function into a host Action with PCall isolation.
func (e *Engine) action(fn *lua.LFunction) interfaces.Action {
	return func(ctx context.Context) (err error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("luaengine: panic during action: %v", r)
			}
		}()
		state := e.state
		base := state.GetTop()
		state.Push(fn)
		if callErr := state.PCall(0, 0, nil); callErr != nil {
			state.SetTop(base)
			return callErr
		}
		state.SetTop(base)
		return nil
	}
}

// newPermissive builds a table whose lookups and calls all succeed by
// yielding further permissive tables, so editor-API expressions like
// vim.opt.number or vim.keymap.set(...) evaluate without a live host.
func newPermissive(state *lua.LState) *lua.LTable {
	tbl := state.NewTable()
	mt := state.NewTable()
	state.SetField(mt, "__index", state.NewFunction(func(L *lua.LState) int {
		L.Push(newPermissive(L))
		return 1
	}))
	state.SetField(mt, "__call", state.NewFunction(func(L *lua.LState) int {
		L.Push(newPermissive(L))
		return 1
	}))
	state.SetMetatable(tbl, mt)
	return tbl
}
