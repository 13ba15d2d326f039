package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPToNextLevel(t *testing.T) {
	s := DefaultStats()
	assert.Equal(t, 15, s.XPToNextLevel())
	s.Level = 4
	assert.Equal(t, 30, s.XPToNextLevel())
}

func TestGainExperience_NoLevel(t *testing.T) {
	s := DefaultStats()
	assert.Equal(t, 0, s.GainExperience(14))
	assert.Equal(t, 14, s.Experience)
	assert.Equal(t, 1, s.Level)
}

func TestGainExperience_ZeroAndNegativeAreNoOps(t *testing.T) {
	s := DefaultStats()
	s.Experience = 3
	assert.Equal(t, 0, s.GainExperience(0))
	assert.Equal(t, 0, s.GainExperience(-20))
	assert.Equal(t, 3, s.Experience)
}

func TestGainExperience_LevelUpCarriesOver(t *testing.T) {
	s := Stats{Health: 4, MaxHealth: 10, Mana: 1, MaxMana: 5, Strength: 5, Dexterity: 4, Intelligence: 3, Level: 1}

	levels := s.GainExperience(17)

	assert.Equal(t, 1, levels)
	assert.Equal(t, 2, s.Level)
	assert.Equal(t, 2, s.Experience)
	assert.Equal(t, 15, s.MaxHealth)
	assert.Equal(t, 15, s.Health)
	assert.Equal(t, 7, s.MaxMana)
	assert.Equal(t, 7, s.Mana)
	assert.Equal(t, 6, s.Strength)
	assert.Equal(t, 5, s.Dexterity)
	assert.Equal(t, 4, s.Intelligence)
}

func TestGainExperience_NoManaStaysZero(t *testing.T) {
	s := DefaultStats()
	s.GainExperience(15)
	assert.Equal(t, 0, s.MaxMana)
	assert.Equal(t, 0, s.Mana)
}

func TestGainExperience_MultipleLevels(t *testing.T) {
	s := DefaultStats()
	// 15 (L1→2) + 20 (L2→3) + 25 (L3→4) = 60, plus 4 left over.
	levels := s.GainExperience(64)

	assert.Equal(t, 3, levels)
	assert.Equal(t, 4, s.Level)
	assert.Equal(t, 4, s.Experience)
	assert.Equal(t, DefaultHealth+15, s.MaxHealth)
}

func TestGainExperience_PostCondition(t *testing.T) {
	for amount := 0; amount <= 500; amount += 7 {
		s := DefaultStats()
		s.GainExperience(amount)
		assert.Less(t, s.Experience, s.XPToNextLevel(), "amount %d", amount)
	}
}

func TestNormalize(t *testing.T) {
	s := Stats{Health: -5, MaxHealth: -1, Mana: 9, MaxMana: 3, Level: -2, Experience: -1}
	s.Normalize()

	assert.Equal(t, 0, s.MaxHealth)
	assert.Equal(t, 0, s.Health)
	assert.Equal(t, 3, s.Mana)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 0, s.Experience)
}
