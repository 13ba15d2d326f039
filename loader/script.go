package loader

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/errutil"
)

// scriptTimeout bounds a single effect call.
const scriptTimeout = time.Second

// vm owns the Lua state shared by every scripted effect of one world.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	logger *slog.Logger
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L != nil {
		v.L.Close()
		v.L = nil
	}
}

// call runs fn with the arguments produced by args. Script errors are
// logged and swallowed: a broken effect must not end the game.
func (v *vm) call(name string, fn *lua.LFunction, args func(L *lua.LState) []lua.LValue) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	v.L.SetContext(ctx)
	defer v.L.RemoveContext()

	if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args(v.L)...); err != nil {
		errutil.LogError(v.logger, "script effect failed",
			oops.Code(CodeLuaError).With("effect", name).Wrapf(err, "running effect %s", name))
	}
}

// luaItemEffect runs effect = function(actor) ... end.
type luaItemEffect struct {
	vm   *vm
	name string
	fn   *lua.LFunction
}

func (e *luaItemEffect) Apply(a *actor.Actor) {
	e.vm.call(e.name, e.fn, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{actorProxy(L, a)}
	})
}

// luaSkillEffect runs effect = function(skill, user, target) ... end.
// target is nil when the skill was cast without one.
type luaSkillEffect struct {
	vm   *vm
	name string
	fn   *lua.LFunction
}

func (e *luaSkillEffect) Apply(skill *actor.Skill, user, target *actor.Actor) {
	e.vm.call(e.name, e.fn, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{skillTable(L, skill), actorProxy(L, user), actorProxy(L, target)}
	})
}

func skillTable(L *lua.LState, sk *actor.Skill) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(sk.ID))
	t.RawSetString("name", lua.LString(sk.Name))
	t.RawSetString("mana_cost", lua.LNumber(sk.ManaCost))
	t.RawSetString("power", lua.LNumber(sk.Power))
	return t
}

// actorProxy exposes a read-only view of a with heal, take_damage and
// restore_mana methods. Fields are read live, so they reflect changes
// made earlier in the same call.
func actorProxy(L *lua.LState, a *actor.Actor) lua.LValue {
	if a == nil {
		return lua.LNil
	}
	methods := map[string]lua.LGFunction{
		"heal":         amountMethod(a.Heal),
		"take_damage":  amountMethod(a.TakeDamage),
		"restore_mana": amountMethod(a.RestoreMana),
	}

	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		if m, ok := methods[key]; ok {
			L.Push(L.NewFunction(m))
			return 1
		}
		L.Push(actorField(a, key))
		return 1
	}))
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("actor fields are read-only; use heal, take_damage or restore_mana")
		return 0
	}))

	t := L.NewTable()
	L.SetMetatable(t, mt)
	return t
}

// amountMethod accepts both a.heal(5) and a:heal(5).
func amountMethod(f func(int)) lua.LGFunction {
	return func(L *lua.LState) int {
		f(toInt(L.CheckNumber(L.GetTop())))
		return 0
	}
}

// toInt saturates n into the int range; NaN becomes 0.
func toInt(n lua.LNumber) int {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	default:
		return int(f)
	}
}

func actorField(a *actor.Actor, key string) lua.LValue {
	s := a.Stats
	switch key {
	case "id":
		return lua.LString(a.ID)
	case "name":
		return lua.LString(a.Name)
	case "health":
		return lua.LNumber(s.Health)
	case "max_health":
		return lua.LNumber(s.MaxHealth)
	case "mana":
		return lua.LNumber(s.Mana)
	case "max_mana":
		return lua.LNumber(s.MaxMana)
	case "strength":
		return lua.LNumber(s.Strength)
	case "dexterity":
		return lua.LNumber(s.Dexterity)
	case "intelligence":
		return lua.LNumber(s.Intelligence)
	case "level":
		return lua.LNumber(s.Level)
	case "experience":
		return lua.LNumber(s.Experience)
	default:
		return lua.LNil
	}
}
