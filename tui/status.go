package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line. Out of
// combat it shows the room and its exits; in combat the round and the
// enemies still standing. The player's vitals and the turn count sit on
// the right.
func (m Model) renderStatusBar() string {
	s := m.session
	p := s.Player.Stats

	var left string
	style := styleStatusBar
	if f := s.Combat(); f != nil {
		style = styleCombatBar
		var foes []string
		for i, e := range f.Living() {
			foes = append(foes, fmt.Sprintf("%d:%s %d/%d", i+1, e.Name, e.Stats.Health, e.Stats.MaxHealth))
		}
		left = fmt.Sprintf(" COMBAT R%d | %s", f.Round()+1, strings.Join(foes, ", "))
	} else if r := s.Room(); r != nil {
		left = fmt.Sprintf(" %s | Exits: %s", r.Name, strings.Join(r.ExitNames(), ","))
	}

	vitals := fmt.Sprintf("HP %d/%d MP %d/%d L%d", p.Health, p.MaxHealth, p.Mana, p.MaxMana, p.Level)
	right := fmt.Sprintf("%s | T:%d ", vitals, s.Turns())
	if s.GameOver() {
		right = fmt.Sprintf("GAME OVER | T:%d ", s.Turns())
	}

	// Drop the vitals before the room when the terminal is narrow.
	if lipgloss.Width(left)+lipgloss.Width(right) > m.width {
		right = fmt.Sprintf("T:%d ", s.Turns())
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return style.Width(m.width).Render(bar)
}
