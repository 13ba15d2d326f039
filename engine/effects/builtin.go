package effects

import "github.com/nathoo/textquest/engine/actor"

// Builtins returns a registry preloaded with the stock handlers:
//
//	heal:N          restore N health
//	restore_mana:N  restore N mana
//	full_restore    refill health and mana
//	damage          skill: target loses power + user INT/2
//	heal_self       skill: user regains power
//	drain           skill: target loses power, user regains the same
func Builtins() *Registry {
	r := NewRegistry()

	_ = r.RegisterItemFactory("heal", func(n int) actor.ItemEffect {
		return actor.ItemEffectFunc(func(a *actor.Actor) { a.Heal(n) })
	})
	_ = r.RegisterItemFactory("restore_mana", func(n int) actor.ItemEffect {
		return actor.ItemEffectFunc(func(a *actor.Actor) { a.RestoreMana(n) })
	})
	_ = r.RegisterItem("full_restore", actor.ItemEffectFunc(func(a *actor.Actor) {
		a.Heal(a.Stats.MaxHealth)
		a.RestoreMana(a.Stats.MaxMana)
	}))

	_ = r.RegisterSkill("damage", actor.SkillEffectFunc(func(sk *actor.Skill, user, target *actor.Actor) {
		if target == nil {
			return
		}
		target.TakeDamage(sk.Power + user.Stats.Intelligence/2)
	}))
	_ = r.RegisterSkill("heal_self", actor.SkillEffectFunc(func(sk *actor.Skill, user, _ *actor.Actor) {
		user.Heal(sk.Power)
	}))
	_ = r.RegisterSkill("drain", actor.SkillEffectFunc(func(sk *actor.Skill, user, target *actor.Actor) {
		if target == nil {
			return
		}
		before := target.Stats.Health
		target.TakeDamage(sk.Power)
		user.Heal(before - target.Stats.Health)
	}))

	return r
}
