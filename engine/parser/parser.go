// Package parser converts command strings into Intent structs.
// No NLP, just word lists.
package parser

import (
	"strings"

	"github.com/nathoo/textquest/types"
)

var directionExpansions = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
	"u":  "up",
	"d":  "down",
}

// Full direction names that are standalone shortcuts for "go <dir>".
var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"northeast": true, "northwest": true, "southeast": true, "southwest": true,
	"up": true, "down": true,
}

var verbAliases = map[string]string{
	// Look
	"l":       "look",
	"x":       "look",
	"examine": "look",
	"inspect": "look",

	// Movement
	"move":   "go",
	"walk":   "go",
	"head":   "go",
	"travel": "go",

	// Take
	"pickup": "take",
	"get":    "take",
	"grab":   "take",

	// Drop
	"discard": "drop",

	// Items
	"inv":    "inventory",
	"i":      "inventory",
	"wield":  "equip",
	"wear":   "equip",
	"remove": "unequip",
	"drink":  "use",
	"eat":    "use",
	"quaff":  "use",

	// Combat
	"fight": "attack",
	"kill":  "attack",
	"hit":   "attack",

	// Talk
	"ask":   "talk",
	"speak": "talk",
	"chat":  "talk",

	// Meta
	"stats": "status",
	"st":    "status",
	"?":     "help",
	"exit":  "quit",
	"q":     "quit",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"about": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// CanonicalVerb resolves a verb alias ("drink", "hit") to the verb it
// stands for. Other words come back unchanged.
func CanonicalVerb(word string) string {
	if alias, ok := verbAliases[word]; ok {
		return alias
	}
	return word
}

// Parse converts a raw command string into an Intent. Args holds every
// word after the verb, lowercased and untouched otherwise.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Bare "n", "south", etc. → go <direction>
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "go", Object: dir, Args: []string{dir}}
		}
		if directionNames[words[0]] {
			return types.Intent{Verb: "go", Object: words[0], Args: []string{words[0]}}
		}
	}

	words = expandMultiWordVerbs(words)

	words[0] = CanonicalVerb(words[0])

	verb := words[0]
	args := append([]string(nil), words[1:]...)

	// "go n" reads as "go north".
	if verb == "go" && len(args) == 1 {
		if dir, ok := directionExpansions[args[0]]; ok {
			args[0] = dir
		}
	}

	object, target := splitOnPreposition(stripArticles(args))

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
		Args:   args,
	}
}

// expandMultiWordVerbs handles "look at", "pick up", "talk to" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look":
		if words[1] == "at" || words[1] == "in" {
			return append([]string{"look"}, words[2:]...)
		}
	case "pick":
		if words[1] == "up" {
			return append([]string{"take"}, words[2:]...)
		}
	case "talk", "speak", "chat":
		if words[1] == "to" || words[1] == "with" {
			return append([]string{"talk"}, words[2:]...)
		}
	case "put":
		if words[1] == "on" {
			return append([]string{"equip"}, words[2:]...)
		}
		if words[1] == "down" {
			return append([]string{"drop"}, words[2:]...)
		}
	case "take":
		if words[1] == "off" {
			return append([]string{"unequip"}, words[2:]...)
		}
	}

	return words
}

func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition.
// Words before it become the object, words after it the target.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), ""
}
