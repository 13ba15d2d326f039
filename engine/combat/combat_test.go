package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/engine/rng"
	"github.com/nathoo/textquest/logging"
	"github.com/nathoo/textquest/types"
)

// scriptedDice replays queued values. With the queues empty it rolls no
// jitter, picks the first verb, and fails every percent roll.
type scriptedDice struct {
	ints    []int
	rolls   []bool
	percent []int // every p passed to PercentRoll, in order
}

func (d *scriptedDice) UniformInt(lo, hi int) int {
	if len(d.ints) > 0 {
		v := d.ints[0]
		d.ints = d.ints[1:]
		return v
	}
	return max(lo, min(hi, 0))
}

func (d *scriptedDice) PercentRoll(p int) bool {
	d.percent = append(d.percent, p)
	if len(d.rolls) > 0 {
		v := d.rolls[0]
		d.rolls = d.rolls[1:]
		return v
	}
	return false
}

func newPlayer() *actor.Actor {
	return actor.New("player_1", "Player", actor.Stats{
		Health: 10, MaxHealth: 10, Mana: 5, MaxMana: 5,
		Strength: 5, Dexterity: 4, Intelligence: 3, Level: 1,
	}, actor.AIPlayer)
}

// harmlessGoblin has no strength, so it can never get through the
// player's defense without a jitter bonus.
func harmlessGoblin() *actor.Actor {
	return actor.New("goblin", "Goblin", actor.Stats{
		Health: 8, MaxHealth: 8, Level: 2,
	}, actor.AIAggressive)
}

func brute(id string, strength int) *actor.Actor {
	return actor.New(id, "Brute", actor.Stats{
		Health: 20, MaxHealth: 20, Strength: strength, Level: 1,
	}, actor.AIAggressive)
}

func newCombat(p *actor.Actor, enemies []*actor.Actor, d Dice) *Combat {
	return New(p, enemies, d, WithLogger(logging.Discard()))
}

func hasEvent(r types.Result, typ string) bool {
	for _, e := range r.Events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestStart_EmptyEncounterWinsImmediately(t *testing.T) {
	p := newPlayer()
	c := newCombat(p, nil, &scriptedDice{})

	r := c.Start()

	assert.Equal(t, AllEnemiesDefeated, c.State())
	assert.True(t, c.Done())
	assert.Equal(t, 0, c.Outcome().Experience)
	assert.Equal(t, 0, p.Stats.Experience)
	assert.Contains(t, r.Output, "You gained 0 experience points!")
	assert.True(t, hasEvent(r, types.EventCombatEnded))
}

func TestStart_ShowsStatus(t *testing.T) {
	c := newCombat(newPlayer(), []*actor.Actor{harmlessGoblin()}, &scriptedDice{})

	r := c.Start()

	assert.Equal(t, Ongoing, c.State())
	assert.Equal(t, "Combat started!", r.Output[0])
	assert.Contains(t, r.Output, "Your HP: 10/10  MP: 5/5")
	assert.Contains(t, r.Output, " 1 - Goblin L2 HP: 8/8")
}

func TestAttack_PlainHit(t *testing.T) {
	p := newPlayer()
	g := harmlessGoblin()
	d := &scriptedDice{}
	c := newCombat(p, []*actor.Actor{g}, d)
	c.Start()

	r := c.Step("attack 1")

	assert.Equal(t, 3, g.Stats.Health)
	assert.True(t, g.IsAlive())
	assert.Contains(t, r.Output, "You slash Goblin for 5 damage.")
	assert.Equal(t, Ongoing, c.State())
	// Player crit chance is 10 + dex.
	assert.Equal(t, 14, d.percent[0])
}

func TestAttack_KillThenSweepAwardsExperience(t *testing.T) {
	p := newPlayer()
	g := harmlessGoblin()
	c := newCombat(p, []*actor.Actor{g}, &scriptedDice{})
	c.Start()

	c.Step("attack 1")
	r := c.Step("attack")

	assert.Equal(t, 0, g.Stats.Health)
	assert.Contains(t, r.Output, "You have defeated L2 Goblin!")
	assert.Equal(t, AllEnemiesDefeated, c.State())

	out := c.Outcome()
	assert.Equal(t, 10, out.Experience)
	assert.Equal(t, []*actor.Actor{g}, out.Defeated)
	assert.Empty(t, out.Remaining)
	assert.Equal(t, 10, p.Stats.Experience)
	assert.Equal(t, 1, p.Stats.Level)
	assert.True(t, hasEvent(r, types.EventEnemyDefeated))
}

func TestAttack_Critical(t *testing.T) {
	g := harmlessGoblin()
	g.Stats.MaxHealth, g.Stats.Health = 30, 30
	c := newCombat(newPlayer(), []*actor.Actor{g}, &scriptedDice{rolls: []bool{true}})
	c.Start()

	r := c.Step("attack")

	// floor(5 * 1.5) + 1
	assert.Equal(t, 22, g.Stats.Health)
	assert.Contains(t, r.Output, "Critical Hit!")
}

func TestAttack_Jitter(t *testing.T) {
	g := harmlessGoblin()
	c := newCombat(newPlayer(), []*actor.Actor{g}, &scriptedDice{ints: []int{-2}})
	c.Start()

	c.Step("attack")
	assert.Equal(t, 5, g.Stats.Health)
}

func TestAttack_DamageNeverNegative(t *testing.T) {
	g := harmlessGoblin()
	g.Stats.Dexterity = 40
	c := newCombat(newPlayer(), []*actor.Actor{g}, &scriptedDice{})
	c.Start()

	c.Step("attack")
	assert.Equal(t, 8, g.Stats.Health)
}

func TestAttack_WithWeaponNamesIt(t *testing.T) {
	p := newPlayer()
	p.AddItem(&actor.Item{ID: "sword", Name: "Sword", Type: actor.ItemEquipable, Power: actor.IntPtr(2), Slot: actor.SlotWeapon})
	_, err := p.EquipItem("sword")
	require.NoError(t, err)
	g := harmlessGoblin()
	g.Stats.MaxHealth, g.Stats.Health = 30, 30
	c := newCombat(p, []*actor.Actor{g}, &scriptedDice{})
	c.Start()

	r := c.Step("attack")
	assert.Contains(t, r.Output, "You attack Goblin with Sword for 7 damage.")
}

func TestAttack_NoSuchTarget(t *testing.T) {
	g := harmlessGoblin()
	c := newCombat(newPlayer(), []*actor.Actor{g}, &scriptedDice{})
	c.Start()

	for _, in := range []string{"attack 2", "attack 0", "attack 99"} {
		r := c.Step(in)
		assert.Contains(t, r.Output, "No such target.", in)
	}
	assert.Equal(t, 8, g.Stats.Health)
}

func TestAttack_NonNumericDefaultsToFirst(t *testing.T) {
	g := harmlessGoblin()
	c := newCombat(newPlayer(), []*actor.Actor{g}, &scriptedDice{})
	c.Start()

	c.Step("attack goblin")
	assert.Equal(t, 3, g.Stats.Health)
}

func TestAttack_IndexesLivingEnemiesOnly(t *testing.T) {
	dead := harmlessGoblin()
	dead.Stats.Health = 0
	second := harmlessGoblin()
	second.ID = "goblin2"
	c := newCombat(newPlayer(), []*actor.Actor{dead, second}, &scriptedDice{})
	c.Start()

	c.Step("attack 1")
	assert.Equal(t, 3, second.Stats.Health)
}

func TestUnknownAction_EnemiesStillAct(t *testing.T) {
	p := newPlayer()
	c := newCombat(p, []*actor.Actor{brute("b", 6)}, &scriptedDice{})
	c.Start()

	r := c.Step("dance")

	assert.Contains(t, r.Output, "Unknown action.")
	// 6 attack - 2 defense
	assert.Equal(t, 6, p.Stats.Health)
	assert.Contains(t, r.Output, "L1 Brute slashes you for 4 damage.")
}

func TestEnemyTurn_CritChanceAndHesitate(t *testing.T) {
	p := newPlayer()
	b := brute("b", 6)
	b.Stats.Dexterity = 7
	d := &scriptedDice{}
	c := newCombat(p, []*actor.Actor{b}, d)
	c.Start()

	c.Step("wait")
	require.Len(t, d.percent, 2)
	assert.Equal(t, HesitateChance, d.percent[0])
	assert.Equal(t, 12, d.percent[1])

	d.rolls = []bool{true}
	r := c.Step("wait")
	assert.Contains(t, r.Output, "Brute hesitates.")
	assert.Equal(t, 6, p.Stats.Health)
}

func TestEnemyTurn_ZeroDamageStopsTheRest(t *testing.T) {
	p := newPlayer()
	c := newCombat(p, []*actor.Actor{harmlessGoblin(), brute("b", 9)}, &scriptedDice{})
	c.Start()

	r := c.Step("wait")

	assert.Contains(t, r.Output, "Goblin attacks but fails to hurt you.")
	assert.Equal(t, 10, p.Stats.Health)
	assert.Len(t, c.Living(), 2)
}

func TestEnemyTurn_PlayerDiesMidTurn(t *testing.T) {
	p := newPlayer()
	p.Stats.Health = 3
	second := brute("b2", 9)
	c := newCombat(p, []*actor.Actor{brute("b1", 9), second}, &scriptedDice{})
	c.Start()

	r := c.Step("wait")

	assert.Equal(t, PlayerDefeated, c.State())
	assert.Contains(t, r.Output, "You have been defeated by L1 Brute!")
	assert.Contains(t, r.Output, "Game Over.")
	assert.Equal(t, 0, c.Outcome().Experience)
	assert.Len(t, c.Outcome().Remaining, 2)
}

func TestEnemyTurn_PassiveEnemyDoesNotAttack(t *testing.T) {
	p := newPlayer()
	b := brute("b", 9)
	b.AI = actor.AIPassive
	c := newCombat(p, []*actor.Actor{b}, &scriptedDice{})
	c.Start()

	r := c.Step("wait")
	assert.Contains(t, r.Output, "Brute keeps its distance.")
	assert.Equal(t, 10, p.Stats.Health)
}

func TestFlee(t *testing.T) {
	p := newPlayer()
	b := brute("b", 9)
	d := &scriptedDice{rolls: []bool{true}}
	c := newCombat(p, []*actor.Actor{b}, d)
	c.Start()

	r := c.Step("flee")

	assert.Equal(t, PlayerFled, c.State())
	assert.Equal(t, 10, p.Stats.Health, "enemy turn is skipped after a clean escape")
	assert.Contains(t, r.Output, "You successfully fled the combat!")
	assert.Equal(t, []int{58}, d.percent)
	assert.Equal(t, []*actor.Actor{b}, c.Outcome().Remaining)
	assert.Equal(t, 0, c.Outcome().Experience)
}

func TestFlee_FailureLetsEnemiesAct(t *testing.T) {
	p := newPlayer()
	c := newCombat(p, []*actor.Actor{brute("b", 6)}, &scriptedDice{})
	c.Start()

	r := c.Step("flee")

	assert.Contains(t, r.Output, "Failed to flee!")
	assert.Equal(t, Ongoing, c.State())
	assert.Equal(t, 6, p.Stats.Health)
}

func TestFlee_Probability(t *testing.T) {
	t.Run("dexterity 25 always escapes", func(t *testing.T) {
		r := rng.New(3)
		for i := 0; i < 200; i++ {
			p := newPlayer()
			p.Stats.Dexterity = 25
			c := newCombat(p, []*actor.Actor{brute("b", 1)}, r)
			c.Start()
			c.Step("flee")
			require.Equal(t, PlayerFled, c.State())
		}
	})

	t.Run("dexterity 0 escapes half the time", func(t *testing.T) {
		r := rng.New(11)
		fled := 0
		const trials = 4000
		for i := 0; i < trials; i++ {
			p := newPlayer()
			p.Stats.Dexterity = 0
			c := newCombat(p, []*actor.Actor{harmlessGoblin()}, r)
			c.Start()
			c.Step("flee")
			if c.State() == PlayerFled {
				fled++
			}
		}
		assert.InDelta(t, trials/2, fled, 200)
	})
}

func TestFlee_SweepsCorpsesWithoutReward(t *testing.T) {
	p := newPlayer()
	a := harmlessGoblin()
	g := harmlessGoblin()
	g.ID = "goblin2"
	g.Stats.Health = 5
	// player crit, goblin hesitate, goblin crit, flee
	c := newCombat(p, []*actor.Actor{a, g}, &scriptedDice{rolls: []bool{false, false, false, true}})
	c.Start()

	// The first goblin's harmless swing ends the enemy turn before the
	// corpse behind it is collected.
	c.Step("attack 2")
	require.False(t, g.IsAlive())

	c.Step("flee")
	out := c.Outcome()
	assert.Equal(t, PlayerFled, out.State)
	assert.Equal(t, 0, out.Experience)
	assert.Equal(t, 0, p.Stats.Experience)
	assert.Equal(t, []*actor.Actor{g}, out.Defeated)
	assert.Equal(t, []*actor.Actor{a}, out.Remaining)
}

func TestUseItem(t *testing.T) {
	p := newPlayer()
	p.Stats.Health = 4
	p.AddItem(&actor.Item{ID: "potion", Name: "Healing Potion", Type: actor.ItemConsumable,
		Effect: actor.ItemEffectFunc(func(a *actor.Actor) { a.Heal(5) })})
	c := newCombat(p, []*actor.Actor{harmlessGoblin()}, &scriptedDice{})
	c.Start()

	r := c.Step("use healing")
	assert.Contains(t, r.Output, "You used Healing Potion.")
	assert.Equal(t, 9, p.Stats.Health)
	assert.Empty(t, p.Items)

	r = c.Step("use healing")
	assert.Contains(t, r.Output, "Item not found or not usable.")

	r = c.Step("use")
	assert.Contains(t, r.Output, "Use what?")
}

func TestVerbAliases(t *testing.T) {
	p := newPlayer()
	p.Stats.Health = 4
	p.AddItem(&actor.Item{ID: "potion", Name: "Healing Potion", Type: actor.ItemConsumable,
		Effect: actor.ItemEffectFunc(func(a *actor.Actor) { a.Heal(5) })})
	g := harmlessGoblin()
	c := newCombat(p, []*actor.Actor{g}, &scriptedDice{})
	c.Start()

	r := c.Step("drink healing")
	assert.Contains(t, r.Output, "You used Healing Potion.")
	assert.NotContains(t, r.Output, "Unknown action.")
	assert.Equal(t, 9, p.Stats.Health)

	r = c.Step("HIT 1")
	assert.NotContains(t, r.Output, "Unknown action.")
	assert.Equal(t, 3, g.Stats.Health)
}

func TestSkill(t *testing.T) {
	p := newPlayer()
	p.Skills = []*actor.Skill{{
		ID: "fireball", Name: "Fireball", ManaCost: 3, Power: 6,
		Effect: actor.SkillEffectFunc(func(sk *actor.Skill, _, target *actor.Actor) { target.TakeDamage(sk.Power) }),
	}}
	g := harmlessGoblin()
	g2 := harmlessGoblin()
	g2.ID = "goblin2"
	c := newCombat(p, []*actor.Actor{g, g2}, &scriptedDice{})
	c.Start()

	r := c.Step("skill fire 2")
	assert.Contains(t, r.Output, "Player uses Fireball on Goblin.")
	assert.Equal(t, 8, g.Stats.Health)
	assert.Equal(t, 2, g2.Stats.Health)
	assert.Equal(t, 2, p.Stats.Mana)

	r = c.Step("skill fireball")
	assert.Contains(t, r.Output, "Not enough mana.")
	assert.Equal(t, 8, g.Stats.Health)

	r = c.Step("skill ice")
	assert.Contains(t, r.Output, "Skill not found.")

	r = c.Step("skill")
	assert.Contains(t, r.Output, "Cast what?")
}

func TestSkill_KillReported(t *testing.T) {
	p := newPlayer()
	p.Skills = []*actor.Skill{{
		ID: "smite", Name: "Smite", ManaCost: 1, Power: 50,
		Effect: actor.SkillEffectFunc(func(sk *actor.Skill, _, target *actor.Actor) { target.TakeDamage(sk.Power) }),
	}}
	c := newCombat(p, []*actor.Actor{harmlessGoblin()}, &scriptedDice{})
	c.Start()

	r := c.Step("skill smite")
	assert.Contains(t, r.Output, "You have defeated L2 Goblin!")
	assert.Equal(t, AllEnemiesDefeated, c.State())
}

func TestVictory_SumsLevelsAndLevelsUp(t *testing.T) {
	p := newPlayer()
	p.Stats.Strength = 50
	a := harmlessGoblin()
	b := harmlessGoblin()
	b.ID = "goblin2"
	b.Stats.Level = 3
	c := newCombat(p, []*actor.Actor{a, b}, &scriptedDice{})
	c.Start()

	c.Step("attack 1")
	r := c.Step("attack 1")

	require.Equal(t, AllEnemiesDefeated, c.State())
	// (2 + 3) * 5 = 25 → level 2 with 10 left over.
	assert.Equal(t, 25, c.Outcome().Experience)
	assert.Equal(t, 1, c.Outcome().Levels)
	assert.Equal(t, 2, p.Stats.Level)
	assert.Equal(t, 10, p.Stats.Experience)
	assert.Contains(t, r.Output, "You reached level 2!")
	assert.True(t, hasEvent(r, types.EventLevelUp))
}

func TestStep_AfterEnd(t *testing.T) {
	c := newCombat(newPlayer(), nil, &scriptedDice{})
	c.Start()

	r := c.Step("attack")
	assert.Equal(t, []string{"The fight is over."}, r.Output)
	assert.Equal(t, 0, c.Round())
}

func TestNew_CopiesEnemySlice(t *testing.T) {
	enemies := []*actor.Actor{harmlessGoblin()}
	c := newCombat(newPlayer(), enemies, &scriptedDice{})
	enemies[0] = nil

	assert.Len(t, c.Living(), 1)
}

func TestRollDamage_CriticalAlwaysHigher(t *testing.T) {
	for base := 1; base <= 200; base++ {
		assert.Greater(t, CriticalDamage(base), base)
	}
	assert.Equal(t, 1, CriticalDamage(0))
	assert.Equal(t, 8, CriticalDamage(5))
	assert.Equal(t, 7, CriticalDamage(4))
}

func TestRollDamage_Bounds(t *testing.T) {
	r := rng.New(77)
	for i := 0; i < 2000; i++ {
		d, crit := RollDamage(6, 2, 0, r)
		require.False(t, crit)
		require.True(t, d >= 2 && d <= 6, "got %d", d)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ongoing", Ongoing.String())
	assert.Equal(t, "player_fled", PlayerFled.String())
	assert.Equal(t, "player_defeated", PlayerDefeated.String())
	assert.Equal(t, "all_enemies_defeated", AllEnemiesDefeated.String())
}
