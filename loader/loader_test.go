package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/errutil"
	"github.com/nathoo/textquest/logging"
)

const gameLua = `
Game {
  title = "Crypt of Tests",
  author = "Tester",
  version = "0.1",
  start = "gate",
  intro = "The crypt awaits.",
  player = {
    name = "Hero",
    stats = { max_health = 12, max_mana = 6, strength = 4 },
    items = { "dagger" },
    equip = { "dagger" },
    skills = { "spark" },
  },
}
`

const contentLua = `
Item "dagger" { name = "Dagger", type = "equipable", slot = "weapon", power = 2 }
Item "potion" { name = "Healing Potion", type = "consumable", effect = "heal:5" }
Item "elixir" {
  name = "Elixir", type = "consumable",
  effect = function(a) a:heal(a.max_health) a.restore_mana(2) end,
}
Item "bone" { name = "Old Bone", description = "Gnawed." }

Skill "spark" { name = "Spark", mana_cost = 2, power = 3, effect = "damage" }
Skill "leech" {
  name = "Leech", mana_cost = 1, power = 4,
  effect = function(skill, user, target)
    target:take_damage(skill.power)
    user:heal(skill.power)
  end,
}

Enemy "skeleton" {
  name = "Skeleton",
  description = "Rattling bones.",
  stats = { max_health = 8, max_mana = 3, strength = 3, level = 2 },
  items = { "dagger", "bone" },
  equip = { "dagger" },
  skills = { "leech" },
}

NPC "keeper" {
  name = "Crypt Keeper",
  topics = { greeting = "Welcome.", bones = "They walk at night." },
}

Room "gate" {
  name = "Crypt Gate",
  description = "Iron bars.",
  exits = { North = "hall" },
  items = { "potion", "potion" },
  npcs = { "keeper" },
  objects = { { name = "Gargoyle", description = "Watching." } },
}

Room "hall" {
  name = "Bone Hall",
  exits = { south = "gate" },
  items = { "elixir" },
  enemies = { "skeleton", "skeleton" },
}
`

func writeWorld(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func load(t *testing.T, files map[string]string) (*Game, error) {
	t.Helper()
	g, err := Load(writeWorld(t, files), WithLogger(logging.Discard()))
	if g != nil {
		t.Cleanup(g.Close)
	}
	return g, err
}

func TestLoad_FullWorld(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": gameLua, "content.lua": contentLua})
	require.NoError(t, err)
	w := g.World

	assert.Equal(t, "Crypt of Tests", w.Game.Title)
	assert.Equal(t, "Tester", w.Game.Author)
	assert.Equal(t, "gate", w.Game.Start)
	assert.Equal(t, "The crypt awaits.", w.Game.Intro)
	require.Len(t, w.Rooms, 2)

	gate := w.Rooms["gate"]
	assert.Equal(t, "Crypt Gate", gate.Name)
	assert.Equal(t, map[string]string{"north": "hall"}, gate.Exits)
	require.Len(t, gate.Items, 2)
	assert.NotSame(t, gate.Items[0], gate.Items[1])
	require.Len(t, gate.NPCs, 1)
	assert.Equal(t, actor.AIPassive, gate.NPCs[0].AI)
	assert.Equal(t, "They walk at night.", gate.NPCs[0].Topics["bones"])
	require.Len(t, gate.Objects, 1)
	assert.Equal(t, "Gargoyle", gate.Objects[0].Name)

	hall := w.Rooms["hall"]
	assert.Equal(t, "", hall.Description)
	require.Len(t, hall.Enemies, 2)
	assert.NotSame(t, hall.Enemies[0], hall.Enemies[1])
	sk := hall.Enemies[0]
	assert.Equal(t, actor.AIAggressive, sk.AI)
	assert.Equal(t, 8, sk.Stats.Health)
	assert.Equal(t, 2, sk.Stats.Level)
	assert.Equal(t, actor.DefaultDexterity, sk.Stats.Dexterity)
	require.NotNil(t, sk.Weapon())
	assert.Same(t, sk.Items[0], sk.Weapon())
	assert.Equal(t, 5, sk.AttackPower())
}

func TestLoad_Player(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": gameLua, "content.lua": contentLua})
	require.NoError(t, err)
	p := g.World.Player

	assert.Equal(t, "player_1", p.ID)
	assert.Equal(t, "Hero", p.Name)
	assert.Equal(t, actor.AIPlayer, p.AI)
	assert.Equal(t, 12, p.Stats.Health)
	assert.Equal(t, 6, p.Stats.Mana)
	assert.Equal(t, 4, p.Stats.Strength)
	assert.Equal(t, "dagger", p.Weapon().ID)
	require.Len(t, p.Skills, 1)
	assert.Equal(t, "Spark", p.Skills[0].Name)
}

func TestLoad_DefaultPlayer(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": `
Game { title = "Tiny", start = "room" }
Room "room" { name = "Room" }
`})
	require.NoError(t, err)
	p := g.World.Player
	assert.Equal(t, "Player", p.Name)
	assert.Equal(t, 10, p.Stats.MaxHealth)
	assert.Equal(t, 5, p.Stats.MaxMana)
}

func TestLoad_BuiltinAndScriptedItemEffects(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": gameLua, "content.lua": contentLua})
	require.NoError(t, err)

	p := g.World.Player
	p.Stats.Health, p.Stats.Mana = 1, 0
	p.AddItem(g.World.Rooms["gate"].Items[0])
	p.AddItem(g.World.Rooms["hall"].Items[0])

	_, ok := p.ConsumeItem("potion")
	require.True(t, ok)
	assert.Equal(t, 6, p.Stats.Health)

	_, ok = p.ConsumeItem("elixir")
	require.True(t, ok)
	assert.Equal(t, 12, p.Stats.Health)
	assert.Equal(t, 2, p.Stats.Mana)
}

func TestLoad_HugeAmountsSaturate(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": `
Game { title = "Huge", start = "room" }
Item "flask" { name = "Flask", type = "consumable", effect = "heal:9223372036854775807" }
Item "nectar" { name = "Nectar", type = "consumable", effect = function(a) a:heal(1e300) end }
Item "venom" { name = "Venom", type = "consumable", effect = function(a) a:take_damage(-1e300) end }
Room "room" { name = "Room", items = { "flask", "nectar", "venom" } }
`})
	require.NoError(t, err)

	p := g.World.Player
	for _, it := range g.World.Rooms["room"].Items {
		p.Stats.Health = 5
		p.AddItem(it)
		_, ok := p.ConsumeItem(it.ID)
		require.True(t, ok)
		assert.Equal(t, 10, p.Stats.Health, it.ID)
		assert.True(t, p.IsAlive(), it.ID)
	}
}

func TestLoad_ScriptedSkillEffect(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": gameLua, "content.lua": contentLua})
	require.NoError(t, err)

	sk := g.World.Rooms["hall"].Enemies[0]
	sk.Stats.Health = 2
	p := g.World.Player

	msg, err := sk.UseSkill("leech", p)
	require.NoError(t, err)
	assert.Equal(t, "Skeleton uses Leech on Hero.", msg)
	assert.Equal(t, 8, p.Stats.Health)
	assert.Equal(t, 6, sk.Stats.Health)
}

func TestLoad_ScriptErrorIsNotFatal(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": `
Game { title = "Broken", start = "room" }
Item "cursed" {
  name = "Cursed Tonic", type = "consumable",
  effect = function(a) a.health = 99 end,
}
Room "room" { name = "Room", items = { "cursed" } }
`})
	require.NoError(t, err)

	p := g.World.Player
	p.AddItem(g.World.Rooms["room"].Items[0])
	_, ok := p.ConsumeItem("cursed")
	assert.True(t, ok)
	assert.Equal(t, 10, p.Stats.Health)
}

func TestLoad_ClosedStateIgnoresScripts(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": gameLua, "content.lua": contentLua})
	require.NoError(t, err)
	g.Close()

	p := g.World.Player
	p.Stats.Health = 1
	p.AddItem(g.World.Rooms["hall"].Items[0])
	_, ok := p.ConsumeItem("elixir")
	assert.True(t, ok)
	assert.Equal(t, 1, p.Stats.Health)
}

func TestLoad_ArmourSpelling(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": `
Game { title = "Mail", start = "r" }
Item "mail" { name = "Chain Mail", type = "equipable", power = 2, slot = "Armour" }
Room "r" { name = "R", items = { "mail" } }
`})
	require.NoError(t, err)
	assert.Empty(t, g.Warnings)
	assert.Equal(t, actor.SlotArmor, g.World.Rooms["r"].Items[0].Slot)
}

func TestLoad_RunawayScriptTimesOut(t *testing.T) {
	dir := writeWorld(t, map[string]string{"game.lua": `
Game { title = "Loop", start = "r" }
Room "r" { name = "R" }
while true do end
`})
	start := time.Now()
	_, err := Load(dir, WithLogger(logging.Discard()), WithLoadTimeout(100*time.Millisecond))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeLuaError)
	errutil.AssertErrorContext(t, err, "file", "game.lua")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoad_Sandbox(t *testing.T) {
	for _, global := range []string{"os", "io", "debug", "package", "dofile", "loadfile", "load", "loadstring", "rawset"} {
		t.Run(global, func(t *testing.T) {
			_, err := load(t, map[string]string{"game.lua": `
assert(` + global + ` == nil, "` + global + ` is reachable")
Game { title = "Sandbox", start = "room" }
Room "room" { name = "Room" }
`})
			require.NoError(t, err)
		})
	}
}

func TestLoad_FileOrder(t *testing.T) {
	// b.lua reads a global set by game.lua, which must run first even
	// though it sorts later than a.lua.
	_, err := load(t, map[string]string{
		"game.lua": `START = "room"
Game { title = "Order", start = START }`,
		"a.lua": `Room(START) { name = "Room" }`,
	})
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope"), WithLogger(logging.Discard()))
		errutil.AssertErrorCode(t, err, CodeWorldNotFound)
	})

	t.Run("no lua files", func(t *testing.T) {
		_, err := load(t, map[string]string{"readme.txt": "hi"})
		errutil.AssertErrorCode(t, err, CodeWorldNotFound)
	})

	t.Run("lua syntax error", func(t *testing.T) {
		_, err := load(t, map[string]string{"game.lua": `Game {`})
		errutil.AssertErrorCode(t, err, CodeLuaError)
	})

	t.Run("no game", func(t *testing.T) {
		_, err := load(t, map[string]string{"game.lua": `Room "x" { name = "X" }`})
		errutil.AssertErrorCode(t, err, CodeInvalidWorld)
	})
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		lua  string
		want string
	}{
		{
			"missing title",
			`Game { start = "r" } Room "r" { name = "R" }`,
			`game: Title fails "required"`,
		},
		{
			"unknown start",
			`Game { title = "T", start = "nowhere" } Room "r" { name = "R" }`,
			`start room "nowhere" not found in defined rooms`,
		},
		{
			"dangling exit",
			`Game { title = "T", start = "r" } Room "r" { name = "R", exits = { north = "void" } }`,
			`room "r" exit "north" points to undefined room "void"`,
		},
		{
			"undefined item",
			`Game { title = "T", start = "r" } Room "r" { name = "R", items = { "ghost" } }`,
			`room "r" places undefined item "ghost"`,
		},
		{
			"npc placed as enemy",
			`Game { title = "T", start = "r" } NPC "n" { name = "N" } Room "r" { name = "R", enemies = { "n" } }`,
			`room "r" lists npc "n" as enemy`,
		},
		{
			"equipable without slot",
			`Game { title = "T", start = "r" } Item "ring" { name = "Ring", type = "equipable" } Room "r" { name = "R" }`,
			`item "ring" is equipable but has no slot`,
		},
		{
			"bad slot",
			`Game { title = "T", start = "r" } Item "hat" { name = "Hat", type = "equipable", slot = "head" } Room "r" { name = "R" }`,
			`item "hat": Slot fails "oneof=weapon armor armour"`,
		},
		{
			"unknown effect",
			`Game { title = "T", start = "r" } Item "p" { name = "P", type = "consumable", effect = "teleport" } Room "r" { name = "R" }`,
			`item "p": `,
		},
		{
			"health above max",
			`Game { title = "T", start = "r" } Enemy "e" { name = "E", stats = { health = 9, max_health = 5 } } Room "r" { name = "R" }`,
			`enemy "e": Stats.Health fails "ltefield=MaxHealth"`,
		},
		{
			"level zero",
			`Game { title = "T", start = "r" } Enemy "e" { name = "E", stats = { level = 0 } } Room "r" { name = "R" }`,
			`enemy "e": Stats.Level fails "gte=1"`,
		},
		{
			"equip not carried",
			`Game { title = "T", start = "r" } Item "s" { name = "S", type = "equipable", slot = "weapon" }
Enemy "e" { name = "E", equip = { "s" } } Room "r" { name = "R" }`,
			`enemy "e" equips "s" but does not carry it`,
		},
		{
			"undefined skill",
			`Game { title = "T", start = "r" } Enemy "e" { name = "E", skills = { "nuke" } } Room "r" { name = "R" }`,
			`enemy "e" knows undefined skill "nuke"`,
		},
		{
			"duplicate room",
			`Game { title = "T", start = "r" } Room "r" { name = "R" } Room "r" { name = "R2" }`,
			`duplicate room "r"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, map[string]string{"game.lua": tt.lua})
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, CodeInvalidWorld)

			ve, ok := AsValidationError(err)
			require.True(t, ok)
			found := false
			for _, e := range ve.Errors {
				if len(e) >= len(tt.want) && e[:len(tt.want)] == tt.want {
					found = true
				}
			}
			assert.True(t, found, "errors %q do not include %q", ve.Errors, tt.want)
		})
	}
}

func TestLoad_Warnings(t *testing.T) {
	g, err := load(t, map[string]string{"game.lua": `
Game { title = "T", start = "r" }
Item "rock" { name = "Rock", slot = "weapon" }
Item "water" { name = "Water", type = "consumable" }
Room "r" { name = "R" }
`})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		`item "rock" has a slot but is not equipable`,
		`consumable item "water" has no effect`,
	}, g.Warnings)
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"rooms.lua", "game.lua", "items.lua"})
	assert.Equal(t, []string{"game.lua", "items.lua", "rooms.lua"}, got)

	got = sortedLuaFiles([]string{"b.lua", "a.lua"})
	assert.Equal(t, []string{"a.lua", "b.lua"}, got)
}
