// Package dialogue implements the NPC topic system.
package dialogue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/textquest/engine/actor"
)

// GreetingTopic is shown when the player talks without naming a topic.
const GreetingTopic = "greeting"

// AvailableTopics returns the NPC's topic keys in sorted order, leaving
// out the greeting.
func AvailableTopics(npc *actor.Actor) []string {
	if npc == nil {
		return nil
	}
	var keys []string
	for k := range npc.Topics {
		if k != GreetingTopic {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// SelectTopic finds a topic by exact key, then by case-insensitive
// prefix. Returns the topic key and text.
func SelectTopic(npc *actor.Actor, query string) (key, text string, ok bool) {
	if npc == nil || npc.Topics == nil {
		return "", "", false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", "", false
	}
	for k, v := range npc.Topics {
		if strings.ToLower(k) == q {
			return k, v, true
		}
	}
	for _, k := range AvailableTopics(npc) {
		if strings.HasPrefix(strings.ToLower(k), q) {
			return k, npc.Topics[k], true
		}
	}
	return "", "", false
}

// Talk produces the lines for a conversation turn. An empty topic
// greets and lists what the NPC can talk about.
func Talk(npc *actor.Actor, topic string) []string {
	if strings.TrimSpace(topic) != "" {
		if _, text, ok := SelectTopic(npc, topic); ok {
			return []string{fmt.Sprintf("%s: %q", npc.Name, text)}
		}
		return []string{fmt.Sprintf("%s doesn't know anything about %s.", npc.Name, topic)}
	}

	var out []string
	if greeting, ok := npc.Topics[GreetingTopic]; ok {
		out = append(out, fmt.Sprintf("%s: %q", npc.Name, greeting))
	}
	topics := AvailableTopics(npc)
	if len(topics) == 0 {
		if len(out) == 0 {
			out = append(out, fmt.Sprintf("%s has nothing to say.", npc.Name))
		}
		return out
	}
	out = append(out, "You can ask about: "+strings.Join(topics, ", "))
	return out
}
