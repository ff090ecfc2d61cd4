// Package script runs Lua-scripted event listeners. A script is a Lua
// chunk that returns a function of one argument; the dispatcher passes an
// event handle exposing the event's name, target label, parameters and a
// stop control:
//
//	return function(ev)
//	    if ev.get("id") == 1 then
//	        ev.set("seen", true)
//	        ev.stop()
//	    end
//	end
//
// Each Listener owns one Lua state. gopher-lua states are not
// goroutine-safe, so invocations are serialized with a mutex.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/emitter"
)

// Sentinel errors for script listeners.
var (
	// ErrClosed is returned when a closed listener receives an event.
	ErrClosed = errors.New("script listener is closed")

	// ErrNotFunction is returned when a chunk does not return a function.
	ErrNotFunction = errors.New("script must return a function")
)

// Listener is a Lua-backed event listener. It implements emitter.Handler,
// so it takes the highest-precedence path through listener resolution.
type Listener struct {
	mu     sync.Mutex
	state  *lua.LState
	fn     lua.LValue
	closed bool
}

// New compiles a Lua source string into a listener. The chunk must return
// a function.
func New(source string) (*Listener, error) {
	L := newState()
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script: %w", err)
	}
	return wrap(L)
}

// NewFile compiles a Lua file into a listener. The chunk must return a
// function.
func NewFile(path string) (*Listener, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return New(string(src))
}

// wrap captures the chunk's returned function.
func wrap(L *lua.LState) (*Listener, error) {
	ret := L.Get(-1)
	L.Pop(1)
	if ret.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNotFunction
	}
	return &Listener{state: L, fn: ret}, nil
}

// newState creates a Lua state with only safe standard libraries.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// io, os, debug and package stay closed: scripts observe and mutate
	// events, nothing else.
	return L
}

// Handle implements emitter.Handler. It calls the script function with an
// event handle; a Lua runtime error propagates to the trigger caller.
func (l *Listener) Handle(_ context.Context, e *emitter.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	handle := l.eventHandle(e)
	if err := l.state.CallByParam(lua.P{Fn: l.fn, NRet: 0, Protect: true}, handle); err != nil {
		return fmt.Errorf("script listener for event %s: %w", e.Name(), err)
	}
	return nil
}

// Close releases the Lua state. Further events return ErrClosed.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.state.Close()
	return nil
}

// eventHandle builds the table handed to the script function. Parameter
// access goes through Go closures so mutations land on the event directly
// and parameter ordering is preserved.
func (l *Listener) eventHandle(e *emitter.Event) *lua.LTable {
	L := l.state
	tbl := L.NewTable()

	tbl.RawSetString("name", lua.LString(e.Name()))
	if label, ok := e.Target().(string); ok {
		tbl.RawSetString("target", lua.LString(label))
	}

	tbl.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		v, ok := e.Param(key)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(toLua(v))
		return 1
	}))
	tbl.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		e.SetParam(key, fromLua(L.Get(2)))
		return 0
	}))
	tbl.RawSetString("has", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(e.HasParam(L.CheckString(1))))
		return 1
	}))
	tbl.RawSetString("stop", L.NewFunction(func(L *lua.LState) int {
		e.StopPropagation(true)
		return 0
	}))
	return tbl
}

// toLua converts scalar Go values to Lua. Non-scalar values appear as nil
// in the script.
func toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	}
	return lua.LNil
}

// fromLua converts Lua values to Go scalars.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LString:
		return string(x)
	case lua.LNumber:
		return float64(x)
	}
	return nil
}
