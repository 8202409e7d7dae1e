// Package script drives access nodes from Lua.
//
// Scripts run on the calling goroutine. Every node operation they invoke is
// marshalled to the UI goroutine by the node itself, so a script exercises
// the bridge exactly as any other non-UI caller would.
package script

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// State wraps a gopher-lua state restricted to the safe standard libraries.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes callers.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	out    io.Writer
	closed bool
}

// NewState creates a state whose print writes to out.
func NewState(out io.Writer) *State {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	s := &State{L: L, out: out}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(s.print))
	return s
}

// openSafeLibraries opens the libraries without file, OS or debug access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func (s *State) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	if s.out != nil {
		fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	}
	return 0
}

// DoString executes code. Cancelling ctx stops the script.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.do(ctx, func() error { return s.L.DoString(code) })
}

// DoFile executes the file at path. Cancelling ctx stops the script.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.do(ctx, func() error { return s.L.DoFile(path) })
}

func (s *State) do(ctx context.Context, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Register installs fn as a global function.
func (s *State) Register(name string, fn lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.NewFunction(fn))
}

// Global returns a global variable, LNil once closed.
func (s *State) Global(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
