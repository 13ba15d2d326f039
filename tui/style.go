package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleCombatBar = lipgloss.NewStyle().
			Background(lipgloss.Color("52")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleCombatPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("203"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeading = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleCombat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("209"))

	styleCritical = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true)

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindHeading
	kindDialogue
	kindCombat
	kindCritical
	kindReward
	kindSystem
	kindError
	kindTrace
)

var errorPrefixes = []string{
	"Couldn't find",
	"Exit:",
	"You don't have",
	"Command not found",
	"Usage:",
	"Enemy:",
	"There is no",
	"Item not found",
	"Not enough mana",
	"No such target",
	"Skill not found",
	"Unknown action",
	"Failed to flee",
	"Cannot equip",
	"Game over",
	"Game Over",
}

var rewardPrefixes = []string{
	"You have defeated",
	"You gained",
	"You reached level",
	"You successfully fled",
}

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case line == "Critical Hit!":
		return kindCritical
	case line == "There is:", line == "You can go:", line == "You have:", line == "Enemies:":
		return kindHeading
	case hasAnyPrefix(line, rewardPrefixes):
		return kindReward
	case hasAnyPrefix(line, errorPrefixes), strings.HasSuffix(line, " not found."):
		return kindError
	case strings.HasPrefix(line, "Combat "), strings.HasPrefix(line, "Action ("),
		strings.Contains(line, " damage."):
		return kindCombat
	case isSpeech(line):
		return kindDialogue
	default:
		return kindNarration
	}
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// isSpeech matches `Name: "text"` lines.
func isSpeech(line string) bool {
	i := strings.Index(line, `: "`)
	return i > 0 && strings.HasSuffix(line, `"`) && len(line)-i > len(`: ""`)
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeading:
		return styleHeading.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindCombat:
		return styleCombat.Render(line)
	case kindCritical:
		return styleCritical.Render(line)
	case kindReward:
		return styleReward.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
