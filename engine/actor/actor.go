// Package actor implements the stat, item, skill and actor model shared by
// the player, enemies and NPCs.
package actor

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/oops"
)

// Error codes returned by Actor operations.
const (
	CodeCannotEquip      = "cannot_equip"
	CodeNothingToUnequip = "nothing_to_unequip"
	CodeSkillNotFound    = "skill_not_found"
	CodeNotEnoughMana    = "not_enough_mana"
)

// AIBehavior tags how an actor acts when it is not the player.
type AIBehavior string

// Known behaviors.
const (
	AIPlayer     AIBehavior = "player"
	AIPassive    AIBehavior = "passive"
	AIAggressive AIBehavior = "aggressive"
)

// Equipment holds at most one item per slot.
type Equipment [slotCount]*Item

// Actor is any entity with stats, equipment and an inventory.
type Actor struct {
	ID          string
	Name        string
	Description string
	Stats       Stats
	AI          AIBehavior
	Equip       Equipment
	Items       []*Item
	Skills      []*Skill
	Topics      map[string]string // dialogue topics, NPCs only
}

// New creates an actor with normalized stats.
func New(id, name string, stats Stats, ai AIBehavior) *Actor {
	stats.Normalize()
	return &Actor{ID: id, Name: name, Stats: stats, AI: ai}
}

// TakeDamage lowers health, clamped to [0, max].
func (a *Actor) TakeDamage(amount int) {
	if amount == math.MinInt {
		a.Stats.Health = a.Stats.MaxHealth
		return
	}
	a.Stats.Health = shift(a.Stats.Health, -amount, a.Stats.MaxHealth)
}

// Heal raises health, clamped to [0, max].
func (a *Actor) Heal(amount int) {
	a.Stats.Health = shift(a.Stats.Health, amount, a.Stats.MaxHealth)
}

// RestoreMana raises mana, clamped to [0, max].
func (a *Actor) RestoreMana(amount int) {
	a.Stats.Mana = shift(a.Stats.Mana, amount, a.Stats.MaxMana)
}

// IsAlive reports whether health is above zero.
func (a *Actor) IsAlive() bool {
	return a.Stats.Health > 0
}

// AttackPower is strength plus the equipped weapon's power.
func (a *Actor) AttackPower() int {
	return a.Stats.Strength + a.Equip[SlotWeapon].PowerValue()
}

// Defense is half of dexterity (floored) plus the equipped armor's power.
func (a *Actor) Defense() int {
	return a.Stats.Dexterity/2 + a.Equip[SlotArmor].PowerValue()
}

// Weapon returns the equipped weapon, or nil.
func (a *Actor) Weapon() *Item {
	return a.Equip[SlotWeapon]
}

// AddItem appends an item to the inventory. Duplicates are allowed.
func (a *Actor) AddItem(item *Item) {
	a.Items = append(a.Items, item)
}

// ConsumeItem uses up the first consumable with the given id. The item's
// effect runs once against a before the item is removed and returned.
func (a *Actor) ConsumeItem(id string) (*Item, bool) {
	for i, it := range a.Items {
		if it.ID != id || it.Type != ItemConsumable {
			continue
		}
		if it.Effect != nil {
			it.Effect.Apply(a)
		}
		a.Items = append(a.Items[:i], a.Items[i+1:]...)
		return it, true
	}
	return nil, false
}

// EquipItem puts the first equipable inventory item with the given id
// into its slot, replacing whatever was there. The item also stays in the
// inventory.
func (a *Actor) EquipItem(id string) (string, error) {
	for _, it := range a.Items {
		if it.ID == id && it.Type == ItemEquipable && it.Slot != SlotNone {
			a.Equip[it.Slot] = it
			return fmt.Sprintf("%s equips %s.", a.Name, it.Name), nil
		}
	}
	return "", oops.
		Code(CodeCannotEquip).
		With("actor", a.ID).
		With("item", id).
		Public("Cannot equip.").
		Errorf("actor %s cannot equip %q", a.ID, id)
}

// Unequip empties a slot.
func (a *Actor) Unequip(slot Slot) (string, error) {
	if slot > SlotNone && slot < slotCount && a.Equip[slot] != nil {
		name := a.Equip[slot].Name
		a.Equip[slot] = nil
		return fmt.Sprintf("%s unequips %s.", a.Name, name), nil
	}
	return "", oops.
		Code(CodeNothingToUnequip).
		With("actor", a.ID).
		With("slot", slot.String()).
		Public("Nothing to unequip.").
		Errorf("actor %s has nothing in slot %d", a.ID, slot)
}

// RemoveItem takes the first item with the given id out of the
// inventory, whatever its type. A slot holding that item is cleared.
func (a *Actor) RemoveItem(id string) (*Item, bool) {
	for i, it := range a.Items {
		if it.ID != id {
			continue
		}
		a.Items = append(a.Items[:i], a.Items[i+1:]...)
		for s := range a.Equip {
			if a.Equip[s] == it {
				a.Equip[s] = nil
			}
		}
		return it, true
	}
	return nil, false
}

// FindItem returns the first inventory item whose name contains query
// (case-insensitive). An empty itemType matches any type.
func (a *Actor) FindItem(query string, itemType ItemType) *Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	for _, it := range a.Items {
		if itemType != "" && it.Type != itemType {
			continue
		}
		if strings.Contains(strings.ToLower(it.Name), q) || strings.ToLower(it.ID) == q {
			return it
		}
	}
	return nil
}

// FindSkill returns the first skill whose name contains query or whose
// id equals it (case-insensitive).
func (a *Actor) FindSkill(query string) *Skill {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	for _, sk := range a.Skills {
		if strings.ToLower(sk.ID) == q || strings.Contains(strings.ToLower(sk.Name), q) {
			return sk
		}
	}
	return nil
}

// UseSkill casts the first skill with the given id at target. Mana is
// paid before the effect runs.
func (a *Actor) UseSkill(id string, target *Actor) (string, error) {
	var skill *Skill
	for _, sk := range a.Skills {
		if sk.ID == id {
			skill = sk
			break
		}
	}
	if skill == nil {
		return "", oops.
			Code(CodeSkillNotFound).
			With("actor", a.ID).
			With("skill", id).
			Public("Skill not found.").
			Errorf("actor %s has no skill %q", a.ID, id)
	}
	if a.Stats.Mana < skill.ManaCost {
		return "", oops.
			Code(CodeNotEnoughMana).
			With("actor", a.ID).
			With("skill", id).
			With("mana", a.Stats.Mana).
			With("cost", skill.ManaCost).
			Public("Not enough mana.").
			Errorf("actor %s needs %d mana for %q, has %d", a.ID, skill.ManaCost, id, a.Stats.Mana)
	}

	a.Stats.Mana -= skill.ManaCost
	skill.cast(a, target)

	if target != nil && target != a {
		return fmt.Sprintf("%s uses %s on %s.", a.Name, skill.Name, target.Name), nil
	}
	return fmt.Sprintf("%s uses %s.", a.Name, skill.Name), nil
}

// Clone returns a deep copy of the actor's items, skills and equipment.
// Equipped items keep pointing at their cloned inventory entries.
func (a *Actor) Clone() *Actor {
	c := *a
	c.Items = make([]*Item, len(a.Items))
	mapping := make(map[*Item]*Item, len(a.Items))
	for i, it := range a.Items {
		c.Items[i] = it.Clone()
		mapping[it] = c.Items[i]
	}
	c.Equip = Equipment{}
	for s, it := range a.Equip {
		if it == nil {
			continue
		}
		if cl, ok := mapping[it]; ok {
			c.Equip[s] = cl
		} else {
			c.Equip[s] = it.Clone()
		}
	}
	c.Skills = make([]*Skill, len(a.Skills))
	for i, sk := range a.Skills {
		c.Skills[i] = sk.Clone()
	}
	if a.Topics != nil {
		c.Topics = make(map[string]string, len(a.Topics))
		for k, v := range a.Topics {
			c.Topics[k] = v
		}
	}
	return &c
}

// Message returns the player-facing text of an error produced by this
// package, falling back to the error string.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if oe, ok := oops.AsOops(err); ok && oe.Public() != "" {
		return oe.Public()
	}
	return err.Error()
}
