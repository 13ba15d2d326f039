// Package effects resolves the named effect handlers that items and
// skills reference. Handlers are registered up front, so world data can
// only trigger code the host trusts.
package effects

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/nathoo/textquest/engine/actor"
)

// Error codes.
const (
	CodeUnknownEffect   = "unknown_effect"
	CodeDuplicateEffect = "duplicate_effect"
	CodeBadEffectArg    = "bad_effect_arg"
)

// ItemFactory builds an item effect from the argument after the colon
// in a key such as "heal:5".
type ItemFactory func(arg int) actor.ItemEffect

// Registry maps effect keys to handlers.
type Registry struct {
	items         map[string]actor.ItemEffect
	itemFactories map[string]ItemFactory
	skills        map[string]actor.SkillEffect
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		items:         map[string]actor.ItemEffect{},
		itemFactories: map[string]ItemFactory{},
		skills:        map[string]actor.SkillEffect{},
	}
}

// RegisterItem adds a named item effect.
func (r *Registry) RegisterItem(name string, eff actor.ItemEffect) error {
	if _, ok := r.items[name]; ok {
		return duplicate("item", name)
	}
	if _, ok := r.itemFactories[name]; ok {
		return duplicate("item", name)
	}
	r.items[name] = eff
	return nil
}

// RegisterItemFactory adds a parameterized item effect, used as "name:N".
func (r *Registry) RegisterItemFactory(name string, f ItemFactory) error {
	if _, ok := r.items[name]; ok {
		return duplicate("item", name)
	}
	if _, ok := r.itemFactories[name]; ok {
		return duplicate("item", name)
	}
	r.itemFactories[name] = f
	return nil
}

// RegisterSkill adds a named skill effect.
func (r *Registry) RegisterSkill(name string, eff actor.SkillEffect) error {
	if _, ok := r.skills[name]; ok {
		return duplicate("skill", name)
	}
	r.skills[name] = eff
	return nil
}

// Item resolves an item effect key. Keys are either a plain name or
// "name:N" for factories.
func (r *Registry) Item(key string) (actor.ItemEffect, error) {
	if eff, ok := r.items[key]; ok {
		return eff, nil
	}
	name, rawArg, hasArg := strings.Cut(key, ":")
	f, ok := r.itemFactories[name]
	if !ok {
		return nil, unknown("item", key)
	}
	if !hasArg {
		return nil, oops.Code(CodeBadEffectArg).
			With("effect", key).
			Errorf("item effect %q needs an argument, e.g. %s:5", name, name)
	}
	arg, err := strconv.Atoi(strings.TrimSpace(rawArg))
	if err != nil {
		return nil, oops.Code(CodeBadEffectArg).
			With("effect", key).
			Wrapf(err, "item effect %q", key)
	}
	return f(arg), nil
}

// Skill resolves a skill effect key.
func (r *Registry) Skill(key string) (actor.SkillEffect, error) {
	if eff, ok := r.skills[key]; ok {
		return eff, nil
	}
	return nil, unknown("skill", key)
}

// Names lists every registered key, sorted, with factories shown as
// "name:N".
func (r *Registry) Names() []string {
	var names []string
	for n := range r.items {
		names = append(names, n)
	}
	for n := range r.itemFactories {
		names = append(names, n+":N")
	}
	for n := range r.skills {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func unknown(kind, key string) error {
	return oops.Code(CodeUnknownEffect).
		With("kind", kind).
		With("effect", key).
		Errorf("unknown %s effect %q", kind, key)
}

func duplicate(kind, key string) error {
	return oops.Code(CodeDuplicateEffect).
		With("kind", kind).
		With("effect", key).
		Errorf("%s effect %q registered twice", kind, key)
}
