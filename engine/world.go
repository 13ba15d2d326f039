package engine

import (
	"sort"
	"strings"

	"github.com/nathoo/textquest/engine/actor"
	"github.com/nathoo/textquest/types"
)

// Room is a location with its own item, enemy and NPC instances.
type Room struct {
	ID          string
	Name        string
	Description string
	Exits       map[string]string // direction → room ID
	Items       []*actor.Item
	Enemies     []*actor.Actor
	NPCs        []*actor.Actor
	Objects     []types.ObjectDef
}

// World is a loaded game: metadata, the room graph and the player.
type World struct {
	Game   types.GameDef
	Rooms  map[string]*Room
	Player *actor.Actor
}

// DefaultPlayer returns the player used when a world does not define one.
func DefaultPlayer() *actor.Actor {
	s := actor.DefaultStats()
	s.Health, s.MaxHealth = 10, 10
	s.Mana, s.MaxMana = 5, 5
	return actor.New("player_1", "Player", s, actor.AIPlayer)
}

// ExitNames returns the room's exit directions in sorted order.
func (r *Room) ExitNames() []string {
	dirs := make([]string, 0, len(r.Exits))
	for d := range r.Exits {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// FindItem returns the first room item whose name contains query.
func (r *Room) FindItem(query string) (int, *actor.Item) {
	q := normalize(query)
	if q == "" {
		return -1, nil
	}
	for i, it := range r.Items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			return i, it
		}
	}
	return -1, nil
}

// FindEnemy returns the first living enemy whose name contains query.
func (r *Room) FindEnemy(query string) *actor.Actor {
	return findActor(r.Enemies, query, true)
}

// FindNPC returns the first NPC whose name contains query.
func (r *Room) FindNPC(query string) *actor.Actor {
	return findActor(r.NPCs, query, false)
}

// FindObject returns the first scenery object whose name contains query.
func (r *Room) FindObject(query string) (types.ObjectDef, bool) {
	q := normalize(query)
	if q == "" {
		return types.ObjectDef{}, false
	}
	for _, o := range r.Objects {
		if strings.Contains(strings.ToLower(o.Name), q) {
			return o, true
		}
	}
	return types.ObjectDef{}, false
}

// LivingEnemies returns the enemies still standing.
func (r *Room) LivingEnemies() []*actor.Actor {
	var out []*actor.Actor
	for _, e := range r.Enemies {
		if e.IsAlive() {
			out = append(out, e)
		}
	}
	return out
}

// removeEnemies drops every listed actor from the room.
func (r *Room) removeEnemies(gone []*actor.Actor) {
	if len(gone) == 0 {
		return
	}
	drop := make(map[*actor.Actor]bool, len(gone))
	for _, a := range gone {
		drop[a] = true
	}
	kept := r.Enemies[:0]
	for _, e := range r.Enemies {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	r.Enemies = kept
}

func findActor(list []*actor.Actor, query string, livingOnly bool) *actor.Actor {
	q := normalize(query)
	if q == "" {
		return nil
	}
	for _, a := range list {
		if livingOnly && !a.IsAlive() {
			continue
		}
		if strings.Contains(strings.ToLower(a.Name), q) {
			return a
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
