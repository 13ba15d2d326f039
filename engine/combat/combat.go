// Package combat runs one encounter between the player and a group of
// enemies: player turn, enemy turn, end-of-round check, repeat.
package combat

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/engine/parser"
	"github.com/nathoo/textquest/types"
)

// State is where an encounter stands.
type State int

// Encounter states. Every state but Ongoing is terminal.
const (
	Ongoing State = iota
	PlayerFled
	PlayerDefeated
	AllEnemiesDefeated
)

func (s State) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case PlayerFled:
		return "player_fled"
	case PlayerDefeated:
		return "player_defeated"
	case AllEnemiesDefeated:
		return "all_enemies_defeated"
	default:
		return "unknown"
	}
}

// Dice is the randomness combat draws from.
type Dice interface {
	// UniformInt returns an integer in [lo, hi].
	UniformInt(lo, hi int) int
	// PercentRoll succeeds with probability p percent.
	PercentRoll(p int) bool
}

// Percent chances and reward scale.
const (
	PlayerCritBase   = 10
	EnemyCritBase    = 5
	FleeBase         = 50
	FleePerDexterity = 2
	HesitateChance   = 10
	XPPerEnemyLevel  = 5
	damageJitter     = 2
)

var (
	firstPersonVerbs  = []string{"slash", "strike", "bash", "hit", "smash", "pummel", "kick", "punch", "attack", "swing at", "jab"}
	secondPersonVerbs = []string{"slashes", "strikes", "bashes", "hits", "smashes", "pummels", "kicks", "punches", "attacks", "swings at", "jabs"}
)

// Outcome summarizes a finished (or running) encounter.
type Outcome struct {
	State      State
	Experience int
	Levels     int
	Defeated   []*actor.Actor
	Remaining  []*actor.Actor
}

// Combat is a single encounter. It is not safe for concurrent use.
type Combat struct {
	ID ulid.ULID

	player   *actor.Actor
	enemies  []*actor.Actor
	defeated []*actor.Actor
	dice     Dice
	logger   *slog.Logger

	state      State
	round      int
	experience int
	levels     int
}

// Option configures a Combat.
type Option func(*Combat)

// WithLogger sets the logger used for roll diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Combat) { c.logger = l }
}

// New prepares an encounter. The enemy slice is copied; the actors
// themselves are shared with the caller.
func New(player *actor.Actor, enemies []*actor.Actor, dice Dice, opts ...Option) *Combat {
	c := &Combat{
		ID:      ulid.Make(),
		player:  player,
		enemies: append([]*actor.Actor(nil), enemies...),
		dice:    dice,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("encounter", c.ID.String())
	return c
}

// State returns the current state.
func (c *Combat) State() State {
	return c.state
}

// Done reports whether the encounter reached a terminal state.
func (c *Combat) Done() bool {
	return c.state != Ongoing
}

// Round returns the number of rounds played so far.
func (c *Combat) Round() int {
	return c.round
}

// Living returns the enemies still standing, in list order. This is the
// list the player's target numbers refer to.
func (c *Combat) Living() []*actor.Actor {
	var out []*actor.Actor
	for _, e := range c.enemies {
		if e.IsAlive() {
			out = append(out, e)
		}
	}
	return out
}

// Outcome reports the result so far.
func (c *Combat) Outcome() Outcome {
	return Outcome{
		State:      c.state,
		Experience: c.experience,
		Levels:     c.levels,
		Defeated:   append([]*actor.Actor(nil), c.defeated...),
		Remaining:  c.Living(),
	}
}

// Start announces the encounter. An encounter with no enemies is won on
// the spot.
func (c *Combat) Start() types.Result {
	var r types.Result
	r.Output = append(r.Output, "Combat started!")
	r.Events = append(r.Events, types.Event{
		Type: types.EventCombatStarted,
		Data: map[string]any{"encounter": c.ID.String(), "enemies": len(c.enemies)},
	})
	c.logger.Info("combat started", "player", c.player.ID, "enemies", len(c.enemies))

	c.checkEnd(&r, false)
	if !c.Done() {
		r.Output = append(r.Output, c.Status()...)
	}
	return r
}

// Status describes the player and the living enemies, numbered from 1.
func (c *Combat) Status() []string {
	s := c.player.Stats
	lines := []string{
		fmt.Sprintf("Your HP: %d/%d  MP: %d/%d", s.Health, s.MaxHealth, s.Mana, s.MaxMana),
		"Enemies:",
	}
	for i, e := range c.Living() {
		lines = append(lines, fmt.Sprintf(" %d - %s L%d HP: %d/%d",
			i+1, e.Name, e.Stats.Level, e.Stats.Health, e.Stats.MaxHealth))
	}
	lines = append(lines, "Action (attack <n>/skill <name> [n]/use <item>/flee):")
	return lines
}

// Step plays one full round: the player's action from input, then the
// enemies' turn unless the player escaped, then the end check.
func (c *Combat) Step(input string) types.Result {
	var r types.Result
	if c.Done() {
		r.Output = append(r.Output, "The fight is over.")
		return r
	}

	c.round++
	fled := c.playerTurn(input, &r)
	if !fled {
		c.enemyTurn(&r)
	}
	c.checkEnd(&r, fled)

	if !c.Done() {
		r.Output = append(r.Output, "")
		r.Output = append(r.Output, c.Status()...)
	}
	return r
}

// playerTurn resolves one player action. Returns true if the player fled.
func (c *Combat) playerTurn(input string, r *types.Result) bool {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(words) == 0 {
		r.Output = append(r.Output, "Unknown action.")
		return false
	}
	verb, args := parser.CanonicalVerb(words[0]), words[1:]

	switch verb {
	case "attack", "a":
		c.playerAttack(args, r)
	case "use":
		c.playerUse(args, r)
	case "skill", "cast":
		c.playerSkill(args, r)
	case "flee", "run":
		chance := FleeBase + c.player.Stats.Dexterity*FleePerDexterity
		if c.dice.PercentRoll(chance) {
			r.Output = append(r.Output, "You successfully fled the combat!")
			c.logger.Debug("flee", "chance", chance, "success", true)
			return true
		}
		r.Output = append(r.Output, "Failed to flee!")
		c.logger.Debug("flee", "chance", chance, "success", false)
	default:
		// The enemies still get their turn.
		r.Output = append(r.Output, "Unknown action.")
	}
	return false
}

// targetIndex turns an optional 1-based argument into an index. A missing
// or non-numeric argument selects the first enemy.
func targetIndex(args []string) int {
	if len(args) == 0 || !isDigits(args[0]) {
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return -1
	}
	return n - 1
}

func (c *Combat) target(idx int) *actor.Actor {
	living := c.Living()
	if idx < 0 || idx >= len(living) {
		return nil
	}
	return living[idx]
}

func (c *Combat) playerAttack(args []string, r *types.Result) {
	target := c.target(targetIndex(args))
	if target == nil {
		r.Output = append(r.Output, "No such target.")
		return
	}

	damage, crit := RollDamage(c.player.AttackPower(), target.Defense(), PlayerCritBase+c.player.Stats.Dexterity, c.dice)
	c.logger.Debug("player attack",
		"target", target.ID, "attack", c.player.AttackPower(), "defense", target.Defense(),
		"damage", damage, "crit", crit)

	if crit {
		r.Output = append(r.Output, "Critical Hit!")
	}
	target.TakeDamage(damage)

	if w := c.player.Weapon(); w != nil {
		r.Output = append(r.Output, fmt.Sprintf("You attack %s with %s for %d damage.", target.Name, w.Name, damage))
	} else {
		verb := firstPersonVerbs[c.dice.UniformInt(0, len(firstPersonVerbs)-1)]
		r.Output = append(r.Output, fmt.Sprintf("You %s %s for %d damage.", verb, target.Name, damage))
	}
	c.reportKill(target, r)
}

func (c *Combat) playerUse(args []string, r *types.Result) {
	if len(args) == 0 {
		r.Output = append(r.Output, "Use what?")
		return
	}
	it := c.player.FindItem(strings.Join(args, " "), actor.ItemConsumable)
	if it == nil {
		r.Output = append(r.Output, "Item not found or not usable.")
		return
	}
	used, _ := c.player.ConsumeItem(it.ID)
	r.Output = append(r.Output, fmt.Sprintf("You used %s.", used.Name))
	r.Events = append(r.Events, types.Event{
		Type: types.EventItemUsed,
		Data: map[string]any{"item": used.ID},
	})
}

// playerSkill handles "skill <name> [n]".
func (c *Combat) playerSkill(args []string, r *types.Result) {
	idx := 0
	if n := len(args); n > 1 && isDigits(args[n-1]) {
		idx = targetIndex(args[n-1:])
		args = args[:n-1]
	}
	if len(args) == 0 {
		r.Output = append(r.Output, "Cast what?")
		return
	}
	skill := c.player.FindSkill(strings.Join(args, " "))
	if skill == nil {
		r.Output = append(r.Output, "Skill not found.")
		return
	}
	target := c.target(idx)
	if target == nil {
		r.Output = append(r.Output, "No such target.")
		return
	}

	msg, err := c.player.UseSkill(skill.ID, target)
	if err != nil {
		r.Output = append(r.Output, actor.Message(err))
		c.logger.Debug("skill refused", "skill", skill.ID, "error", err)
		return
	}
	r.Output = append(r.Output, msg)
	c.reportKill(target, r)
}

func (c *Combat) reportKill(target *actor.Actor, r *types.Result) {
	if target.IsAlive() {
		return
	}
	r.Output = append(r.Output, fmt.Sprintf("You have defeated L%d %s!", target.Stats.Level, target.Name))
	r.Events = append(r.Events, types.Event{
		Type: types.EventEnemyDefeated,
		Data: map[string]any{"enemy": target.ID, "level": target.Stats.Level},
	})
}

// enemyTurn lets each enemy act in list order. Dead enemies are moved to
// the defeated record here rather than when they die. A harmless hit or
// the player's death ends the turn early; enemies after that point keep
// their place for the next round.
func (c *Combat) enemyTurn(r *types.Result) {
	kept := make([]*actor.Actor, 0, len(c.enemies))
	stopped := false

	for _, e := range c.enemies {
		if stopped {
			kept = append(kept, e)
			continue
		}
		if !e.IsAlive() {
			c.defeated = append(c.defeated, e)
			continue
		}
		kept = append(kept, e)

		if e.AI == actor.AIPassive {
			r.Output = append(r.Output, fmt.Sprintf("%s keeps its distance.", e.Name))
			continue
		}
		if c.dice.PercentRoll(HesitateChance) {
			r.Output = append(r.Output, fmt.Sprintf("%s hesitates.", e.Name))
			continue
		}

		damage, crit := RollDamage(e.AttackPower(), c.player.Defense(), EnemyCritBase+e.Stats.Dexterity, c.dice)
		c.logger.Debug("enemy attack",
			"enemy", e.ID, "attack", e.AttackPower(), "defense", c.player.Defense(),
			"damage", damage, "crit", crit)

		if crit {
			r.Output = append(r.Output, "Critical Hit!")
		}
		if damage <= 0 {
			r.Output = append(r.Output, fmt.Sprintf("%s attacks but fails to hurt you.", e.Name))
			stopped = true
			continue
		}

		c.player.TakeDamage(damage)
		if w := e.Weapon(); w != nil {
			r.Output = append(r.Output, fmt.Sprintf("L%d %s attacks you with %s for %d damage.",
				e.Stats.Level, e.Name, w.Name, damage))
		} else {
			verb := secondPersonVerbs[c.dice.UniformInt(0, len(secondPersonVerbs)-1)]
			r.Output = append(r.Output, fmt.Sprintf("L%d %s %s you for %d damage.",
				e.Stats.Level, e.Name, verb, damage))
		}

		if !c.player.IsAlive() {
			r.Output = append(r.Output, fmt.Sprintf("You have been defeated by L%d %s!", e.Stats.Level, e.Name))
			stopped = true
		}
	}

	c.enemies = kept
}

// checkEnd moves the encounter to a terminal state when one applies.
func (c *Combat) checkEnd(r *types.Result, fled bool) {
	switch {
	case fled:
		c.finish(PlayerFled, r)
	case !c.player.IsAlive():
		c.finish(PlayerDefeated, r)
	case len(c.enemies) == 0:
		c.finish(AllEnemiesDefeated, r)
	}
}

func (c *Combat) finish(state State, r *types.Result) {
	c.state = state

	// Anyone left lying in the live list is swept up now. Only a win pays.
	kept := c.enemies[:0]
	for _, e := range c.enemies {
		if e.IsAlive() {
			kept = append(kept, e)
		} else {
			c.defeated = append(c.defeated, e)
		}
	}
	c.enemies = kept

	switch state {
	case PlayerDefeated:
		r.Output = append(r.Output, "Game Over.")
	case AllEnemiesDefeated:
		r.Output = append(r.Output, "You have defeated all enemies!")
		total := 0
		for _, e := range c.defeated {
			total += e.Stats.Level * XPPerEnemyLevel
		}
		c.experience = total
		c.levels = c.player.Stats.GainExperience(total)
		r.Output = append(r.Output, fmt.Sprintf("You gained %d experience points!", total))
		if c.levels > 0 {
			r.Output = append(r.Output, fmt.Sprintf("You reached level %d!", c.player.Stats.Level))
			r.Events = append(r.Events, types.Event{
				Type: types.EventLevelUp,
				Data: map[string]any{"level": c.player.Stats.Level, "levels": c.levels},
			})
		}
	}
	r.Output = append(r.Output, "Combat ended.")
	r.Events = append(r.Events, types.Event{
		Type: types.EventCombatEnded,
		Data: map[string]any{
			"encounter":  c.ID.String(),
			"state":      state.String(),
			"experience": c.experience,
			"rounds":     c.round,
		},
	})
	c.logger.Info("combat ended",
		"state", state.String(), "rounds", c.round,
		"experience", c.experience, "defeated", len(c.defeated), "remaining", len(c.enemies))
}

// RollDamage computes max(0, attack - defense + jitter) with jitter in
// [-2, 2], then rolls a critical hit at critChance percent. A critical
// hit deals floor(damage * 1.5) + 1.
func RollDamage(attack, defense, critChance int, dice Dice) (damage int, crit bool) {
	damage = max(0, attack-defense+dice.UniformInt(-damageJitter, damageJitter))
	if dice.PercentRoll(critChance) {
		return CriticalDamage(damage), true
	}
	return damage, false
}

// CriticalDamage applies the critical multiplier to a base damage value.
func CriticalDamage(base int) int {
	return base*3/2 + 1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
