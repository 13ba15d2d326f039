package actor

import "strings"

// ItemType classifies what an item can be used for. The set is open:
// worlds may declare other types, which behave like ItemMisc.
type ItemType string

// Known item types.
const (
	ItemMisc       ItemType = "misc"
	ItemEquipable  ItemType = "equipable"
	ItemConsumable ItemType = "consumable"
)

// Slot is an equipment slot.
type Slot int

// Equipment slots. SlotNone marks items that cannot be equipped.
const (
	SlotNone Slot = iota
	SlotWeapon
	SlotArmor
	slotCount
)

var slotNames = [slotCount]string{"", "weapon", "armor"}

func (s Slot) String() string {
	if s < 0 || s >= slotCount {
		return ""
	}
	return slotNames[s]
}

// ParseSlot maps "weapon" and "armor" (or "armour") to a Slot. Anything else is SlotNone.
func ParseSlot(name string) Slot {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "weapon":
		return SlotWeapon
	case "armor", "armour":
		return SlotArmor
	default:
		return SlotNone
	}
}

// ItemEffect is applied to the actor consuming an item.
type ItemEffect interface {
	Apply(target *Actor)
}

// ItemEffectFunc adapts a function to ItemEffect.
type ItemEffectFunc func(target *Actor)

// Apply calls f(target).
func (f ItemEffectFunc) Apply(target *Actor) { f(target) }

// Item is a thing that can sit in a room, an inventory, or a slot.
type Item struct {
	ID          string
	Name        string
	Description string
	Type        ItemType
	Power       *int // nil when the item has no power value
	Slot        Slot
	Effect      ItemEffect // only used by consumables
}

// PowerValue returns the item's power, or 0 when unset.
func (it *Item) PowerValue() int {
	if it == nil || it.Power == nil {
		return 0
	}
	return *it.Power
}

// Clone returns a copy of the item. The effect handler is shared.
func (it *Item) Clone() *Item {
	c := *it
	if it.Power != nil {
		p := *it.Power
		c.Power = &p
	}
	return &c
}

// IntPtr returns a pointer to v, for filling optional fields like Power.
func IntPtr(v int) *int {
	return &v
}
