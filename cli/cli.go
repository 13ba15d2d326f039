// Package cli provides the line based terminal front end and meta-command
// dispatch for a textquest session.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nathoo/textquest/engine"
	"github.com/nathoo/textquest/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Session   *engine.Session
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given session.
func New(s *engine.Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run shows the title and intro, enters the start room, then loops:
// prompt, input, dispatch, output. It returns when input runs out, the
// player quits or the game is over.
func (c *CLI) Run() {
	game := c.Session.World.Game
	c.printLine(Banner(game))
	c.printLine("")
	if game.Intro != "" {
		c.printLine(game.Intro)
		c.printLine("")
	}

	c.show(c.Session.Enter())
	if c.Session.GameOver() {
		return
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print(c.prompt())
		if !scanner.Scan() {
			c.printLine("")
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Comment lines in script files.
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		c.show(c.Session.Step(input))

		if c.Session.Quitting() || c.Session.GameOver() {
			return
		}
	}
}

// Banner is the "Title vX by Author" line shown before the intro.
func Banner(g types.GameDef) string {
	b := g.Title
	if g.Version != "" {
		b += " v" + g.Version
	}
	if g.Author != "" {
		b += " by " + g.Author
	}
	return b
}

func (c *CLI) prompt() string {
	if c.Session.InCombat() {
		return "combat> "
	}
	return "> "
}

func (c *CLI) show(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
	if c.Trace {
		c.printTrace(result)
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /quit         : Exit game",
		"  /help         : Show this help",
		"  /state        : Debug: dump current state",
		"  /trace        : Toggle event trace output",
		"  again (g)     : Repeat your last command",
		"",
		"Type help for game commands.",
		"",
		"In combat:",
		"  attack <n>          : Attack enemy number n",
		"  use <item>          : Use an item",
		"  skill <name> [n]    : Cast a skill, optionally at enemy n",
		"  flee                : Try to run away",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.Session
	p := s.Player
	c.printSystem(fmt.Sprintf("Turn: %d", s.Turns()))
	if r := s.Room(); r != nil {
		c.printSystem(fmt.Sprintf("Location: %s", r.ID))
	}
	c.printSystem(fmt.Sprintf("Health: %d/%d Mana: %d/%d Level: %d",
		p.Stats.Health, p.Stats.MaxHealth, p.Stats.Mana, p.Stats.MaxMana, p.Stats.Level))
	ids := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		ids = append(ids, it.ID)
	}
	c.printSystem(fmt.Sprintf("Inventory: %v", ids))
	if f := s.Combat(); f != nil {
		c.printSystem(fmt.Sprintf("Combat: %s round %d, %d enemies left", f.ID, f.Round(), len(f.Living())))
	}
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Events) == 0 {
		return
	}
	c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
	for _, e := range result.Events {
		c.printSystem(fmt.Sprintf("[trace]   %s%s", e.Type, formatData(e.Data)))
	}
}

func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, data[k])
	}
	return b.String()
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
