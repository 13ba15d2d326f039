package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// rawDef is a definition table awaiting compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// rawActor is an Enemy or NPC definition.
type rawActor struct {
	rawDef
	kind string // "enemy" or "npc"
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	game   *lua.LTable
	rooms  []rawDef
	items  []rawDef
	skills []rawDef
	actors []rawActor
}

// registerAPI installs the world constructors as globals:
//
//	Game { ... }
//	Room "id" { ... }
//	Item "id" { ... }
//	Skill "id" { ... }
//	Enemy "id" { ... }
//	NPC "id" { ... }
//
// The id forms are curried: Room("id") returns a function taking the table.
func registerAPI(L *lua.LState, coll *collector) {
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	L.SetGlobal("Room", curried(L, func(d rawDef) { coll.rooms = append(coll.rooms, d) }))
	L.SetGlobal("Item", curried(L, func(d rawDef) { coll.items = append(coll.items, d) }))
	L.SetGlobal("Skill", curried(L, func(d rawDef) { coll.skills = append(coll.skills, d) }))
	L.SetGlobal("Enemy", curried(L, func(d rawDef) {
		coll.actors = append(coll.actors, rawActor{rawDef: d, kind: kindEnemy})
	}))
	L.SetGlobal("NPC", curried(L, func(d rawDef) {
		coll.actors = append(coll.actors, rawActor{rawDef: d, kind: kindNPC})
	}))
}

// curried builds a Name "id" { ... } constructor.
func curried(L *lua.LState, add func(rawDef)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(rawDef{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	})
}
