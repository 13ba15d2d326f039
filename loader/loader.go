// Package loader builds a World from a directory of Lua scripts. The Lua
// state stays open after loading so effects written in Lua can run during
// play; call Game.Close when done.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/textquest/engine"
	"github.com/nathoo/textquest/engine/effects"
)

// Error codes.
const (
	CodeWorldNotFound = "world_not_found"
	CodeLuaError      = "lua_error"
	CodeInvalidWorld  = "invalid_world"
)

// Game is a loaded world together with the Lua state backing its
// scripted effects.
type Game struct {
	World    *engine.World
	Warnings []string
	vm       *vm
}

// Close releases the Lua state. Script effects become no-ops afterwards.
func (g *Game) Close() {
	if g != nil && g.vm != nil {
		g.vm.close()
	}
}

// DefaultLoadTimeout bounds the execution of all world files together.
const DefaultLoadTimeout = 5 * time.Second

type options struct {
	logger      *slog.Logger
	effects     *effects.Registry
	loadTimeout time.Duration
}

// Option configures Load.
type Option func(*options)

// WithLogger sets the logger for load diagnostics and script errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEffects replaces the built-in effect registry.
func WithEffects(r *effects.Registry) Option {
	return func(o *options) { o.effects = r }
}

// WithLoadTimeout sets how long the world files may run before Load
// gives up.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) { o.loadTimeout = d }
}

// Load executes every .lua file in dir (game.lua first, the rest in
// name order), then compiles and validates the collected definitions.
func Load(dir string, opts ...Option) (*Game, error) {
	o := options{logger: slog.Default(), loadTimeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.effects == nil {
		o.effects = effects.Builtins()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.Code(CodeWorldNotFound).With("dir", dir).Wrapf(err, "reading world directory")
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, oops.Code(CodeWorldNotFound).With("dir", dir).Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L, err := newState()
	if err != nil {
		return nil, oops.Code(CodeLuaError).Wrapf(err, "creating lua state")
	}
	v := &vm{L: L, logger: o.logger}

	coll := &collector{}
	registerAPI(L, coll)

	if err := runFiles(L, dir, luaFiles, o.loadTimeout); err != nil {
		v.close()
		return nil, err
	}

	c := &compiler{coll: coll, effects: o.effects, vm: v}
	world, err := c.compile()
	if err != nil {
		v.close()
		return nil, err
	}

	o.logger.Info("world loaded",
		"dir", dir, "files", len(luaFiles), "title", world.Game.Title,
		"rooms", len(world.Rooms), "items", len(coll.items),
		"skills", len(coll.skills), "actors", len(coll.actors))
	for _, w := range c.warnings {
		o.logger.Warn("world warning", "detail", w)
	}

	return &Game{World: world, Warnings: c.warnings, vm: v}, nil
}

func runFiles(L *lua.LState, dir string, files []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	for _, f := range files {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return oops.Code(CodeLuaError).With("file", f).With("timeout", timeout).
					Errorf("executing %s: world scripts did not finish within %s", f, timeout)
			}
			return oops.Code(CodeLuaError).With("file", f).Wrapf(err, "executing %s", f)
		}
	}
	return nil
}

// Safe libraries: base, table, string, math. os, io, debug and package
// are never opened.
var safeLibraries = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Base functions that reach the filesystem or bypass metatables.
var unsafeBaseFunctions = []string{
	"dofile", "loadfile", "load", "loadstring",
	"rawset", "rawget", "rawequal", "collectgarbage",
}

func newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.With("library", lib.name).Wrapf(err, "opening library")
		}
	}
	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}
	// Scripts must not reseed math.random.
	if tbl, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
	}
	return L, nil
}

// sortedLuaFiles puts game.lua first and the rest in name order.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
