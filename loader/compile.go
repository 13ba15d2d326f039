package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/textquest/engine"
	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/engine/effects"
	"github.com/nathoo/textquest/types"
)

const (
	kindEnemy = "enemy"
	kindNPC   = "npc"
)

type itemDef struct {
	ID          string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	Type        string `validate:"required"`
	Power       *int   `validate:"omitempty,gte=0"`
	Slot        string `validate:"omitempty,oneof=weapon armor armour"`
	effect      lua.LValue
}

type skillDef struct {
	ID          string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	ManaCost    int `validate:"gte=0"`
	Power       int `validate:"gte=0"`
	effect      lua.LValue
}

type actorDef struct {
	ID          string `validate:"required"`
	Kind        string `validate:"oneof=enemy npc player"`
	Name        string `validate:"required"`
	Description string
	AI          string `validate:"oneof=player passive aggressive"`
	Stats       actor.Stats
	Items       []string
	Equip       []string
	Skills      []string
	Topics      map[string]string
}

type roomDef struct {
	ID          string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	Exits       map[string]string `validate:"dive,keys,required,endkeys,required"`
	Items       []string
	Enemies     []string
	NPCs        []string
	Objects     []types.ObjectDef `validate:"dive"`
}

// compiler turns collected tables into an engine.World.
type compiler struct {
	coll     *collector
	effects  *effects.Registry
	vm       *vm
	validate *validator.Validate

	itemDefs  map[string]*itemDef
	skillDefs map[string]*skillDef
	actorDefs map[string]*actorDef
	roomDefs  map[string]*roomDef
	player    *actorDef

	items  map[string]*actor.Item
	skills map[string]*actor.Skill
	actors map[string]*actor.Actor

	errors   []string
	warnings []string
}

func (c *compiler) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *compiler) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// compile parses, validates and instantiates the world. All problems are
// gathered into one ValidationError.
func (c *compiler) compile() (*engine.World, error) {
	if c.validate == nil {
		c.validate = validator.New()
	}

	if c.coll.game == nil {
		return nil, c.fail([]string{"Game { ... } is not defined"})
	}
	game := compileGame(c.coll.game)
	c.checkStruct("game", "", game)

	c.parseDefs()
	c.checkReferences(game)
	if len(c.errors) > 0 {
		return nil, c.fail(c.errors)
	}

	c.buildTemplates()
	player := c.buildPlayer()
	if len(c.errors) > 0 {
		return nil, c.fail(c.errors)
	}

	world := &engine.World{
		Game:   game,
		Rooms:  make(map[string]*engine.Room, len(c.roomDefs)),
		Player: player,
	}
	for id, rd := range c.roomDefs {
		world.Rooms[id] = c.buildRoom(rd)
	}
	return world, nil
}

func (c *compiler) fail(errs []string) error {
	ve := &ValidationError{Errors: errs, Warnings: c.warnings}
	return oops.Code(CodeInvalidWorld).With("errors", len(errs)).Wrap(ve)
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
	}
}

func (c *compiler) parseDefs() {
	c.itemDefs = map[string]*itemDef{}
	for _, raw := range c.coll.items {
		if c.duplicate("item", raw.id, c.itemDefs[raw.id] != nil) {
			continue
		}
		d := &itemDef{
			ID:          raw.id,
			Name:        getString(raw.table, "name"),
			Description: getString(raw.table, "description"),
			Type:        getStringOr(raw.table, "type", string(actor.ItemMisc)),
			Power:       getIntPtr(raw.table, "power"),
			Slot:        strings.ToLower(getString(raw.table, "slot")),
			effect:      raw.table.RawGetString("effect"),
		}
		c.checkStruct("item", raw.id, d)
		c.itemDefs[raw.id] = d
	}

	c.skillDefs = map[string]*skillDef{}
	for _, raw := range c.coll.skills {
		if c.duplicate("skill", raw.id, c.skillDefs[raw.id] != nil) {
			continue
		}
		d := &skillDef{
			ID:          raw.id,
			Name:        getString(raw.table, "name"),
			Description: getString(raw.table, "description"),
			ManaCost:    getInt(raw.table, "mana_cost"),
			Power:       getInt(raw.table, "power"),
			effect:      raw.table.RawGetString("effect"),
		}
		c.checkStruct("skill", raw.id, d)
		c.skillDefs[raw.id] = d
	}

	c.actorDefs = map[string]*actorDef{}
	for _, raw := range c.coll.actors {
		if c.duplicate(raw.kind, raw.id, c.actorDefs[raw.id] != nil) {
			continue
		}
		d := parseActor(raw.id, raw.kind, raw.table)
		c.checkStruct(raw.kind, raw.id, d)
		c.actorDefs[raw.id] = d
	}

	if p := getTable(c.coll.game, "player"); p != nil {
		c.player = parseActor("player_1", "player", p)
		if c.player.Name == "" {
			c.player.Name = "Player"
		}
		if id := getString(p, "id"); id != "" {
			c.player.ID = id
		}
		c.checkStruct("player", c.player.ID, c.player)
	}

	c.roomDefs = map[string]*roomDef{}
	for _, raw := range c.coll.rooms {
		if c.duplicate("room", raw.id, c.roomDefs[raw.id] != nil) {
			continue
		}
		d := &roomDef{
			ID:          raw.id,
			Name:        getStringOr(raw.table, "name", raw.id),
			Description: getString(raw.table, "description"),
			Exits:       lowerKeys(tableToStringMap(getTable(raw.table, "exits"))),
			Items:       stringList(getTable(raw.table, "items")),
			Enemies:     stringList(getTable(raw.table, "enemies")),
			NPCs:        stringList(getTable(raw.table, "npcs")),
			Objects:     compileObjects(raw.id, getTable(raw.table, "objects")),
		}
		c.checkStruct("room", raw.id, d)
		c.roomDefs[raw.id] = d
	}
}

func (c *compiler) duplicate(kind, id string, seen bool) bool {
	if seen {
		c.errorf("duplicate %s %q", kind, id)
	}
	return seen
}

// parseActor reads an Enemy, NPC or Game.player table. Unset stats keep
// their defaults; an unset health or mana starts at its maximum.
func parseActor(id, kind string, tbl *lua.LTable) *actorDef {
	ai := string(actor.AIAggressive)
	switch kind {
	case kindNPC:
		ai = string(actor.AIPassive)
	case "player":
		ai = string(actor.AIPlayer)
	}
	return &actorDef{
		ID:          id,
		Kind:        kind,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		AI:          getStringOr(tbl, "ai", ai),
		Stats:       compileStats(getTable(tbl, "stats"), kind),
		Items:       stringList(getTable(tbl, "items")),
		Equip:       stringList(getTable(tbl, "equip")),
		Skills:      stringList(getTable(tbl, "skills")),
		Topics:      tableToStringMap(getTable(tbl, "topics")),
	}
}

func compileStats(tbl *lua.LTable, kind string) actor.Stats {
	s := actor.DefaultStats()
	if kind == "player" {
		s = engine.DefaultPlayer().Stats
	}
	if tbl == nil {
		return s
	}
	setInt := func(key string, dst *int) {
		if v := getIntPtr(tbl, key); v != nil {
			*dst = *v
		}
	}
	setInt("max_health", &s.MaxHealth)
	setInt("max_mana", &s.MaxMana)
	s.Health, s.Mana = s.MaxHealth, s.MaxMana
	setInt("health", &s.Health)
	setInt("mana", &s.Mana)
	setInt("strength", &s.Strength)
	setInt("dexterity", &s.Dexterity)
	setInt("intelligence", &s.Intelligence)
	setInt("level", &s.Level)
	setInt("experience", &s.Experience)
	return s
}

func compileObjects(roomID string, tbl *lua.LTable) []types.ObjectDef {
	if tbl == nil {
		return nil
	}
	var out []types.ObjectDef
	for i := 1; i <= tbl.MaxN(); i++ {
		o, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		id := getString(o, "id")
		if id == "" {
			id = fmt.Sprintf("%s_object_%d", roomID, i)
		}
		out = append(out, types.ObjectDef{
			ID:          id,
			Name:        getString(o, "name"),
			Description: getString(o, "description"),
		})
	}
	return out
}

// checkStruct runs the validator and records one line per failed field.
func (c *compiler) checkStruct(kind, id string, v any) {
	err := c.validate.Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) {
		c.errorf("%s %q: %v", kind, id, err)
		return
	}
	for _, fe := range fieldErrs {
		field := fe.StructNamespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if id == "" {
			c.errorf("%s: %s fails %q", kind, field, ruleText(fe))
		} else {
			c.errorf("%s %q: %s fails %q", kind, id, field, ruleText(fe))
		}
	}
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func (c *compiler) checkReferences(game types.GameDef) {
	if game.Start != "" {
		if _, ok := c.roomDefs[game.Start]; !ok {
			c.errorf("start room %q not found in defined rooms", game.Start)
		}
	}

	for _, id := range sortedKeys(c.roomDefs) {
		rd := c.roomDefs[id]
		for _, dir := range sortedKeys(rd.Exits) {
			if _, ok := c.roomDefs[rd.Exits[dir]]; !ok {
				c.errorf("room %q exit %q points to undefined room %q", id, dir, rd.Exits[dir])
			}
		}
		for _, it := range rd.Items {
			if c.itemDefs[it] == nil {
				c.errorf("room %q places undefined item %q", id, it)
			}
		}
		c.checkActorRefs(id, rd.Enemies, kindEnemy)
		c.checkActorRefs(id, rd.NPCs, kindNPC)
	}

	for _, id := range sortedKeys(c.actorDefs) {
		c.checkLoadout(c.actorDefs[id])
	}
	if c.player != nil {
		c.checkLoadout(c.player)
	}

	for _, id := range sortedKeys(c.itemDefs) {
		d := c.itemDefs[id]
		slot := actor.ParseSlot(d.Slot)
		switch {
		case d.Type == string(actor.ItemEquipable) && slot == actor.SlotNone:
			c.errorf("item %q is equipable but has no slot", id)
		case d.Type != string(actor.ItemEquipable) && slot != actor.SlotNone:
			c.warnf("item %q has a slot but is not equipable", id)
		}
		if d.Type == string(actor.ItemConsumable) && isNil(d.effect) {
			c.warnf("consumable item %q has no effect", id)
		}
	}
}

func (c *compiler) checkActorRefs(roomID string, ids []string, kind string) {
	for _, a := range ids {
		d := c.actorDefs[a]
		switch {
		case d == nil:
			c.errorf("room %q places undefined %s %q", roomID, kind, a)
		case d.Kind != kind:
			c.errorf("room %q lists %s %q as %s", roomID, d.Kind, a, kind)
		}
	}
}

func (c *compiler) checkLoadout(d *actorDef) {
	for _, it := range d.Items {
		if c.itemDefs[it] == nil {
			c.errorf("%s %q carries undefined item %q", d.Kind, d.ID, it)
		}
	}
	for _, it := range d.Equip {
		if !contains(d.Items, it) {
			c.errorf("%s %q equips %q but does not carry it", d.Kind, d.ID, it)
		}
	}
	for _, sk := range d.Skills {
		if c.skillDefs[sk] == nil {
			c.errorf("%s %q knows undefined skill %q", d.Kind, d.ID, sk)
		}
	}
}

// buildTemplates resolves effects and builds one instance of every
// definition. Rooms receive clones.
func (c *compiler) buildTemplates() {
	c.items = make(map[string]*actor.Item, len(c.itemDefs))
	for _, id := range sortedKeys(c.itemDefs) {
		d := c.itemDefs[id]
		it := &actor.Item{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Type:        actor.ItemType(d.Type),
			Power:       d.Power,
			Slot:        actor.ParseSlot(d.Slot),
		}
		it.Effect = c.itemEffect(id, d.effect)
		c.items[id] = it
	}

	c.skills = make(map[string]*actor.Skill, len(c.skillDefs))
	for _, id := range sortedKeys(c.skillDefs) {
		d := c.skillDefs[id]
		c.skills[id] = &actor.Skill{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			ManaCost:    d.ManaCost,
			Power:       d.Power,
			Effect:      c.skillEffect(id, d.effect),
		}
	}

	c.actors = make(map[string]*actor.Actor, len(c.actorDefs))
	for _, id := range sortedKeys(c.actorDefs) {
		c.actors[id] = c.buildActor(c.actorDefs[id])
	}
}

func (c *compiler) itemEffect(id string, v lua.LValue) actor.ItemEffect {
	switch e := v.(type) {
	case lua.LString:
		eff, err := c.effects.Item(string(e))
		if err != nil {
			c.errorf("item %q: %v", id, err)
			return nil
		}
		return eff
	case *lua.LFunction:
		return &luaItemEffect{vm: c.vm, name: "item:" + id, fn: e}
	default:
		if !isNil(v) {
			c.errorf("item %q: effect must be a string or a function", id)
		}
		return nil
	}
}

func (c *compiler) skillEffect(id string, v lua.LValue) actor.SkillEffect {
	switch e := v.(type) {
	case lua.LString:
		eff, err := c.effects.Skill(string(e))
		if err != nil {
			c.errorf("skill %q: %v", id, err)
			return nil
		}
		return eff
	case *lua.LFunction:
		return &luaSkillEffect{vm: c.vm, name: "skill:" + id, fn: e}
	default:
		if !isNil(v) {
			c.errorf("skill %q: effect must be a string or a function", id)
		} else {
			c.warnf("skill %q has no effect", id)
		}
		return nil
	}
}

func (c *compiler) buildActor(d *actorDef) *actor.Actor {
	a := actor.New(d.ID, d.Name, d.Stats, actor.AIBehavior(d.AI))
	a.Description = d.Description
	for _, it := range d.Items {
		a.AddItem(c.items[it].Clone())
	}
	for _, it := range d.Equip {
		if _, err := a.EquipItem(it); err != nil {
			c.errorf("%s %q cannot equip %q: item is not equipable", d.Kind, d.ID, it)
		}
	}
	for _, sk := range d.Skills {
		a.Skills = append(a.Skills, c.skills[sk].Clone())
	}
	if len(d.Topics) > 0 {
		a.Topics = d.Topics
	}
	return a
}

func (c *compiler) buildPlayer() *actor.Actor {
	if c.player == nil {
		return engine.DefaultPlayer()
	}
	return c.buildActor(c.player)
}

func (c *compiler) buildRoom(d *roomDef) *engine.Room {
	r := &engine.Room{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Exits:       d.Exits,
		Objects:     d.Objects,
	}
	if r.Exits == nil {
		r.Exits = map[string]string{}
	}
	for _, it := range d.Items {
		r.Items = append(r.Items, c.items[it].Clone())
	}
	for _, a := range d.Enemies {
		r.Enemies = append(r.Enemies, c.actors[a].Clone())
	}
	for _, a := range d.NPCs {
		r.NPCs = append(r.NPCs, c.actors[a].Clone())
	}
	return r
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func getStringOr(tbl *lua.LTable, key, def string) string {
	if s := getString(tbl, key); s != "" {
		return s
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	if p := getIntPtr(tbl, key); p != nil {
		return *p
	}
	return 0
}

// getIntPtr returns nil when the field is absent or not a number.
func getIntPtr(tbl *lua.LTable, key string) *int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return actor.IntPtr(int(n))
	}
	return nil
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// stringList reads the array part of tbl, skipping non-strings.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

func lowerKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func isNil(v lua.LValue) bool {
	return v == nil || v == lua.LNil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
