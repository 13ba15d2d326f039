package actor

// Default stat values for actors built without explicit numbers.
const (
	DefaultHealth       = 20
	DefaultStrength     = 3
	DefaultDexterity    = 3
	DefaultIntelligence = 3
)

// Stats holds the mutable numeric attributes of an actor.
type Stats struct {
	Health       int `json:"health" validate:"gte=0,ltefield=MaxHealth"`
	MaxHealth    int `json:"max_health" validate:"gte=0"`
	Mana         int `json:"mana" validate:"gte=0,ltefield=MaxMana"`
	MaxMana      int `json:"max_mana" validate:"gte=0"`
	Strength     int `json:"strength" validate:"gte=0"`
	Dexterity    int `json:"dexterity" validate:"gte=0"`
	Intelligence int `json:"intelligence" validate:"gte=0"`
	Level        int `json:"level" validate:"gte=1"`
	Experience   int `json:"experience" validate:"gte=0"`
}

// DefaultStats returns a level 1 stat block with no mana.
func DefaultStats() Stats {
	return Stats{
		Health:       DefaultHealth,
		MaxHealth:    DefaultHealth,
		Strength:     DefaultStrength,
		Dexterity:    DefaultDexterity,
		Intelligence: DefaultIntelligence,
		Level:        1,
	}
}

// Normalize clamps every field back into its valid range: negatives
// become 0, level is at least 1, and health/mana never exceed their max.
func (s *Stats) Normalize() {
	s.MaxHealth = max(0, s.MaxHealth)
	s.MaxMana = max(0, s.MaxMana)
	s.Health = clamp(s.Health, 0, s.MaxHealth)
	s.Mana = clamp(s.Mana, 0, s.MaxMana)
	s.Strength = max(0, s.Strength)
	s.Dexterity = max(0, s.Dexterity)
	s.Intelligence = max(0, s.Intelligence)
	s.Level = max(1, s.Level)
	s.Experience = max(0, s.Experience)
}

// XPToNextLevel returns the experience needed to reach the next level.
func (s *Stats) XPToNextLevel() int {
	return 10 + 5*s.Level
}

// GainExperience adds experience and applies as many level-ups as it
// pays for. Leftover experience carries over. Returns the number of
// levels gained. Negative amounts are ignored.
func (s *Stats) GainExperience(amount int) int {
	if amount <= 0 {
		return 0
	}
	s.Experience += amount

	levels := 0
	for s.Experience >= s.XPToNextLevel() {
		s.Experience -= s.XPToNextLevel()
		s.levelUp()
		levels++
	}
	return levels
}

func (s *Stats) levelUp() {
	s.Level++
	s.MaxHealth += 5
	s.Health = s.MaxHealth
	if s.MaxMana > 0 {
		s.MaxMana += 2
		s.Mana = s.MaxMana
	}
	s.Strength++
	s.Dexterity++
	s.Intelligence++
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// shift returns clamp(cur+delta, 0, hi) without overflowing on extreme deltas.
func shift(cur, delta, hi int) int {
	hi = max(hi, 0)
	cur = clamp(cur, 0, hi)
	switch {
	case delta >= hi-cur:
		return hi
	case delta <= -cur:
		return 0
	default:
		return cur + delta
	}
}
