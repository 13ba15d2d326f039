// Package engine provides the Session that turns player commands into
// room navigation, inventory handling, dialogue and combat.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/engine/combat"
	"github.com/nathoo/textquest/engine/dialogue"
	"github.com/nathoo/textquest/engine/parser"
	"github.com/nathoo/textquest/engine/rng"
	"github.com/nathoo/textquest/types"
)

// Session holds a loaded world and the player's progress through it.
type Session struct {
	World  *World
	Player *actor.Actor
	RNG    *rng.RNG

	room     *Room
	fight    *combat.Combat
	over     bool
	quitting bool
	turns    int
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Combat inherits it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRNG sets the randomness source.
func WithRNG(r *rng.RNG) Option {
	return func(s *Session) { s.RNG = r }
}

// New starts a session in the world's start room.
func New(w *World, opts ...Option) *Session {
	s := &Session{
		World:  w,
		Player: w.Player,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Player == nil {
		s.Player = DefaultPlayer()
		w.Player = s.Player
	}
	if s.RNG == nil {
		s.RNG = rng.New(time.Now().UnixNano())
	}
	s.room = w.Rooms[w.Game.Start]
	s.logger.Info("session started",
		"title", w.Game.Title, "start", w.Game.Start, "seed", s.RNG.Seed())
	return s
}

// Room returns the room the player is in.
func (s *Session) Room() *Room {
	return s.room
}

// Combat returns the running encounter, or nil.
func (s *Session) Combat() *combat.Combat {
	return s.fight
}

// InCombat reports whether an encounter is running.
func (s *Session) InCombat() bool {
	return s.fight != nil
}

// GameOver reports whether the player has been defeated.
func (s *Session) GameOver() bool {
	return s.over
}

// Quitting reports whether the player asked to leave.
func (s *Session) Quitting() bool {
	return s.quitting
}

// Turns returns the number of commands processed.
func (s *Session) Turns() int {
	return s.turns
}

// Enter announces the start room and starts a fight if it is occupied.
func (s *Session) Enter() types.Result {
	var r types.Result
	if s.room == nil {
		r.Output = append(r.Output, "You are nowhere.")
		return r
	}
	r.Output = append(r.Output, fmt.Sprintf("You find yourself in %s.", s.room.Name))
	s.maybeAmbush(&r)
	return r
}

// Step processes one player command and returns the result.
func (s *Session) Step(input string) types.Result {
	var r types.Result

	if s.over {
		r.Output = append(r.Output, "Game over.")
		return r
	}

	intent := parser.Parse(input)
	if intent.Verb == "quit" {
		s.quitting = true
		r.Output = append(r.Output, "Goodbye!")
		return r
	}

	s.turns++

	// Every line goes to the fight while one is running.
	if s.fight != nil {
		res := s.fight.Step(input)
		r.Events = append(r.Events, res.Events...)
		r.Output = append(r.Output, res.Output...)
		s.settleCombat()
		return r
	}

	if intent.Verb == "" {
		r.Output = append(r.Output, "What do you want to do?")
		return r
	}
	if s.room == nil {
		r.Output = append(r.Output, "You are nowhere.")
		return r
	}

	switch intent.Verb {
	case "help":
		r.Output = append(r.Output, helpText...)
	case "look":
		s.look(intent, &r)
	case "go":
		s.goTo(intent, &r)
	case "take":
		s.take(intent, &r)
	case "drop":
		s.drop(intent, &r)
	case "inventory":
		s.inventory(intent, &r)
	case "equip":
		s.equip(intent, &r)
	case "unequip":
		s.unequip(intent, &r)
	case "use":
		s.use(intent, &r)
	case "talk":
		s.talk(intent, &r)
	case "attack":
		s.attack(intent, &r)
	case "status":
		r.Output = append(r.Output, s.status()...)
	default:
		r.Output = append(r.Output, fmt.Sprintf("Command not found: %s", intent.Verb))
	}
	return r
}

var helpText = []string{
	"Commands:",
	"  help                  : Prints all commands",
	"  look [thing]          : Look around or at something",
	"  go <exit>             : Move through an exit (n/s/e/w work too)",
	"  take <item>           : Pick up an item",
	"  drop <item>           : Drop an item",
	"  inventory [item]      : Show your items or one item",
	"  equip <item>          : Equip a weapon or armor",
	"  unequip <slot|item>   : Unequip a slot",
	"  use <item>            : Use a consumable",
	"  talk <npc> [about x]  : Talk to someone",
	"  attack <enemy>        : Start a fight with one enemy",
	"  status                : Show your status",
	"  quit                  : Quit the game",
}

func (s *Session) look(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, s.describeRoom()...)
		return
	}

	q := intent.Object
	if _, it := s.room.FindItem(q); it != nil {
		r.Output = append(r.Output, it.Name, "    "+it.Description)
		return
	}
	if o, ok := s.room.FindObject(q); ok {
		r.Output = append(r.Output, o.Name, "    "+o.Description)
		return
	}
	if e := s.room.FindEnemy(q); e != nil {
		r.Output = append(r.Output,
			fmt.Sprintf("%s Level: %d Health: %d/%d", e.Name, e.Stats.Level, e.Stats.Health, e.Stats.MaxHealth),
			"    "+e.Description)
		return
	}
	if n := s.room.FindNPC(q); n != nil {
		r.Output = append(r.Output, n.Name, "    "+n.Description)
		return
	}
	if it := s.Player.FindItem(q, ""); it != nil {
		r.Output = append(r.Output, it.Name, "    "+it.Description)
		return
	}
	r.Output = append(r.Output, fmt.Sprintf("Couldn't find: %s", q))
}

func (s *Session) describeRoom() []string {
	out := []string{
		fmt.Sprintf("You are in %s", s.room.Name),
		"    " + s.room.Description,
	}

	var names []string
	for _, it := range s.room.Items {
		names = append(names, it.Name)
	}
	for _, o := range s.room.Objects {
		names = append(names, o.Name)
	}
	for _, e := range s.room.LivingEnemies() {
		names = append(names, e.Name)
	}
	for _, n := range s.room.NPCs {
		names = append(names, n.Name)
	}
	if len(names) > 0 {
		out = append(out, "There is:")
		for _, n := range names {
			out = append(out, "    "+n)
		}
	}

	if exits := s.room.ExitNames(); len(exits) > 0 {
		out = append(out, "You can go:")
		for _, d := range exits {
			out = append(out, "    "+d)
		}
	}
	return out
}

func (s *Session) goTo(intent types.Intent, r *types.Result) {
	if len(intent.Args) == 0 {
		r.Output = append(r.Output, "Usage: go <exit>")
		return
	}
	dir := strings.Join(intent.Args, " ")
	to, ok := s.room.Exits[dir]
	if !ok {
		r.Output = append(r.Output, fmt.Sprintf("Exit: %s not found.", dir))
		return
	}
	next, ok := s.World.Rooms[to]
	if !ok {
		// The loader rejects dangling exits; this only guards hand-built worlds.
		r.Output = append(r.Output, fmt.Sprintf("Exit: %s leads nowhere.", dir))
		s.logger.Warn("dangling exit", "room", s.room.ID, "exit", dir, "target", to)
		return
	}

	from := s.room.ID
	s.room = next
	r.Output = append(r.Output, fmt.Sprintf("%s went %s to %s.", s.Player.Name, dir, next.Name))
	r.Events = append(r.Events, types.Event{
		Type: types.EventPlayerMoved,
		Data: map[string]any{"from": from, "to": next.ID, "exit": dir},
	})
	s.logger.Debug("player moved", "from", from, "to", next.ID)
	s.maybeAmbush(r)
}

// maybeAmbush starts a fight with every living enemy in the room.
func (s *Session) maybeAmbush(r *types.Result) {
	if enemies := s.room.LivingEnemies(); len(enemies) > 0 {
		s.startCombat(enemies, r)
	}
}

func (s *Session) take(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Usage: take <item>")
		return
	}
	i, it := s.room.FindItem(intent.Object)
	if it == nil {
		r.Output = append(r.Output, fmt.Sprintf("%s not found.", intent.Object))
		return
	}
	s.room.Items = append(s.room.Items[:i], s.room.Items[i+1:]...)
	s.Player.AddItem(it)
	r.Output = append(r.Output, fmt.Sprintf("%s picked up %s.", s.Player.Name, it.Name))
	r.Events = append(r.Events, types.Event{
		Type: types.EventItemTaken,
		Data: map[string]any{"item": it.ID, "room": s.room.ID},
	})
}

func (s *Session) drop(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Usage: drop <item>")
		return
	}
	it := s.Player.FindItem(intent.Object, "")
	if it == nil {
		r.Output = append(r.Output, fmt.Sprintf("You don't have %s.", intent.Object))
		return
	}
	s.removeFromInventory(it)
	s.room.Items = append(s.room.Items, it)
	r.Output = append(r.Output, fmt.Sprintf("%s dropped %s.", s.Player.Name, it.Name))
	r.Events = append(r.Events, types.Event{
		Type: types.EventItemDropped,
		Data: map[string]any{"item": it.ID, "room": s.room.ID},
	})
}

// removeFromInventory removes exactly it, even when other carried items
// share its ID.
func (s *Session) removeFromInventory(it *actor.Item) {
	p := s.Player
	for i, held := range p.Items {
		if held == it {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			break
		}
	}
	for slot := range p.Equip {
		if p.Equip[slot] == it {
			p.Equip[slot] = nil
		}
	}
}

func (s *Session) inventory(intent types.Intent, r *types.Result) {
	items := s.Player.Items
	if intent.Object != "" {
		it := s.Player.FindItem(intent.Object, "")
		if it == nil {
			r.Output = append(r.Output, fmt.Sprintf("Couldn't find: %s.", intent.Object))
			return
		}
		r.Output = append(r.Output,
			it.Name,
			"    desc: "+it.Description,
			"    type: "+string(it.Type))
		if it.Power != nil {
			r.Output = append(r.Output, fmt.Sprintf("    power: %d", *it.Power))
		}
		if it.Slot != actor.SlotNone {
			r.Output = append(r.Output, "    slot: "+it.Slot.String())
		}
		return
	}

	if len(items) == 0 {
		r.Output = append(r.Output, fmt.Sprintf("%s's inventory is empty.", s.Player.Name))
		return
	}
	r.Output = append(r.Output, "You have:")
	for _, it := range items {
		line := "    " + it.Name
		if s.equipped(it) {
			line += " (equipped)"
		}
		r.Output = append(r.Output, line)
	}
}

func (s *Session) equipped(it *actor.Item) bool {
	for _, e := range s.Player.Equip {
		if e == it {
			return true
		}
	}
	return false
}

func (s *Session) equip(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Usage: equip <item>")
		return
	}
	it := s.Player.FindItem(intent.Object, actor.ItemEquipable)
	if it == nil {
		it = s.Player.FindItem(intent.Object, "")
	}
	if it == nil {
		r.Output = append(r.Output, fmt.Sprintf("You don't have %s.", intent.Object))
		return
	}
	msg, err := s.Player.EquipItem(it.ID)
	if err != nil {
		r.Output = append(r.Output, actor.Message(err))
		return
	}
	r.Output = append(r.Output, msg)
}

func (s *Session) unequip(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Usage: unequip <weapon|armor>")
		return
	}
	slot := actor.ParseSlot(intent.Object)
	if slot == actor.SlotNone {
		// Accept the name of an equipped item as well.
		q := normalize(intent.Object)
		for i, e := range s.Player.Equip {
			if e != nil && strings.Contains(strings.ToLower(e.Name), q) {
				slot = actor.Slot(i)
				break
			}
		}
	}
	msg, err := s.Player.Unequip(slot)
	if err != nil {
		r.Output = append(r.Output, actor.Message(err))
		return
	}
	r.Output = append(r.Output, msg)
}

func (s *Session) use(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Use what?")
		return
	}
	it := s.Player.FindItem(intent.Object, actor.ItemConsumable)
	if it == nil {
		r.Output = append(r.Output, "Item not found or not usable.")
		return
	}
	used, _ := s.Player.ConsumeItem(it.ID)
	r.Output = append(r.Output, fmt.Sprintf("You used %s.", used.Name))
	r.Events = append(r.Events, types.Event{
		Type: types.EventItemUsed,
		Data: map[string]any{"item": used.ID},
	})
}

func (s *Session) talk(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Talk to whom?")
		return
	}
	npc := s.room.FindNPC(intent.Object)
	topic := intent.Target
	if npc == nil && topic == "" && len(intent.Args) > 1 {
		// "talk guard gate": first word names the NPC.
		npc = s.room.FindNPC(intent.Args[0])
		topic = strings.Join(intent.Args[1:], " ")
	}
	if npc == nil {
		r.Output = append(r.Output, fmt.Sprintf("There is no %s here to talk to.", intent.Object))
		return
	}
	r.Output = append(r.Output, dialogue.Talk(npc, topic)...)
}

func (s *Session) attack(intent types.Intent, r *types.Result) {
	if intent.Object == "" {
		r.Output = append(r.Output, "Usage: attack <enemy>")
		return
	}
	target := s.room.FindEnemy(intent.Object)
	if target == nil {
		r.Output = append(r.Output, fmt.Sprintf("Enemy: %s not found.", intent.Object))
		return
	}
	s.startCombat([]*actor.Actor{target}, r)
}

func (s *Session) startCombat(enemies []*actor.Actor, r *types.Result) {
	s.fight = combat.New(s.Player, enemies, s.RNG, combat.WithLogger(s.logger))
	res := s.fight.Start()
	r.Events = append(r.Events, res.Events...)
	r.Output = append(r.Output, res.Output...)
	s.settleCombat()
}

// settleCombat writes a finished fight back into the room: defeated
// enemies leave it, the rest stay. A lost fight ends the game.
func (s *Session) settleCombat() {
	if s.fight == nil || !s.fight.Done() {
		return
	}
	out := s.fight.Outcome()
	s.room.removeEnemies(out.Defeated)
	s.fight = nil

	if out.State == combat.PlayerDefeated {
		s.over = true
		s.logger.Info("player defeated", "room", s.room.ID, "turns", s.turns)
	}
}

func (s *Session) status() []string {
	p := s.Player
	st := p.Stats
	out := []string{
		fmt.Sprintf("--- Name: %s --- Lvl: %d --- Exp: %d / %d ---", p.Name, st.Level, st.Experience, st.XPToNextLevel()),
		fmt.Sprintf("HP: %d/%d  MP: %d/%d", st.Health, st.MaxHealth, st.Mana, st.MaxMana),
		fmt.Sprintf("STR: %d", st.Strength),
		fmt.Sprintf("DEX: %d", st.Dexterity),
		fmt.Sprintf("INT: %d", st.Intelligence),
	}
	for slot := actor.SlotWeapon; slot <= actor.SlotArmor; slot++ {
		name := "none"
		if it := p.Equip[slot]; it != nil {
			name = it.Name
		}
		out = append(out, fmt.Sprintf("%s: %s", strings.ToUpper(slot.String()[:1])+slot.String()[1:], name))
	}
	if len(p.Skills) > 0 {
		var names []string
		for _, sk := range p.Skills {
			names = append(names, fmt.Sprintf("%s (%d MP)", sk.Name, sk.ManaCost))
		}
		out = append(out, "Skills: "+strings.Join(names, ", "))
	}
	return out
}
