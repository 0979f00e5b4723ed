package filter

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"firestige.xyz/nlyzer/internal/core"
)

// DefaultFunction is the global the built-in script defines.
const DefaultFunction = "filter"

//go:embed default.lua
var defaultScript string

// LuaPredicate calls a global Lua function with the record as a table and
// uses the truthiness of its first return value. One interpreter is loaded
// per predicate; calls are serialised.
type LuaPredicate struct {
	mu   sync.Mutex
	L    *lua.LState
	fn   lua.LValue
	name string
}

// NewLuaPredicate runs src once and binds the global function named function.
func NewLuaPredicate(src, function string) (*LuaPredicate, error) {
	L := lua.NewState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrFilterLoad, err)
	}
	fn := L.GetGlobal(function)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%w: global %q is %s, not a function", core.ErrFilterLoad, function, fn.Type())
	}
	return &LuaPredicate{L: L, fn: fn, name: function}, nil
}

// LoadLuaPredicate reads the script at path. An empty path loads the
// built-in accept-all script, whose entry point is always DefaultFunction.
func LoadLuaPredicate(path, function string) (*LuaPredicate, error) {
	if path == "" {
		return NewLuaPredicate(defaultScript, DefaultFunction)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFilterLoad, err)
	}
	if function == "" {
		function = DefaultFunction
	}
	return NewLuaPredicate(string(src), function)
}

func (p *LuaPredicate) Match(rec Record) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.L == nil {
		return false, fmt.Errorf("%w: interpreter closed", core.ErrFilterInvocation)
	}

	tbl := p.L.CreateTable(0, len(rec))
	for k, v := range rec {
		tbl.RawSetString(k, toLValue(v))
	}

	if err := p.L.CallByParam(lua.P{Fn: p.fn, NRet: 1, Protect: true}, tbl); err != nil {
		return false, fmt.Errorf("%w: %s: %v", core.ErrFilterInvocation, p.name, err)
	}
	ret := p.L.Get(-1)
	p.L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// Close releases the interpreter. Match fails afterwards.
func (p *LuaPredicate) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.L != nil {
		p.L.Close()
		p.L = nil
	}
}

func toLValue(v any) lua.LValue {
	switch x := v.(type) {
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case nil:
		return lua.LNil
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
