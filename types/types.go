// Package types defines the shared data structures for the textquest engine.
// It holds plain data only: no logic, no methods.
package types

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string   // optional
	Target string   // optional
	Args   []string // every word after the verb, lowercased
}

// Event is emitted when something noteworthy happens during a step.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single game step.
type Result struct {
	Events []Event
	Output []string
}

// Event types.
const (
	EventCombatStarted = "combat_started"
	EventEnemyDefeated = "enemy_defeated"
	EventCombatEnded   = "combat_ended"
	EventLevelUp       = "level_up"
	EventPlayerMoved   = "player_moved"
	EventItemTaken     = "item_taken"
	EventItemDropped   = "item_dropped"
	EventItemUsed      = "item_used"
)

// GameDef holds game metadata.
type GameDef struct {
	Title   string `validate:"required"`
	Author  string
	Version string
	Start   string `validate:"required"` // starting room ID
	Intro   string
}

// ObjectDef is scenery: something that can be looked at but not taken.
type ObjectDef struct {
	ID          string
	Name        string `validate:"required"`
	Description string
}
