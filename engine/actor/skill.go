package actor

// SkillEffect runs when a skill is cast. Mana has already been paid.
type SkillEffect interface {
	Apply(skill *Skill, user, target *Actor)
}

// SkillEffectFunc adapts a function to SkillEffect.
type SkillEffectFunc func(skill *Skill, user, target *Actor)

// Apply calls f(skill, user, target).
func (f SkillEffectFunc) Apply(skill *Skill, user, target *Actor) { f(skill, user, target) }

// Skill is an ability owned by a single actor.
type Skill struct {
	ID          string
	Name        string
	Description string
	ManaCost    int
	Power       int
	Effect      SkillEffect
}

// Clone returns a copy of the skill sharing the same effect handler.
func (sk *Skill) Clone() *Skill {
	c := *sk
	return &c
}

func (sk *Skill) cast(user, target *Actor) {
	if sk.Effect != nil {
		sk.Effect.Apply(sk, user, target)
	}
}
