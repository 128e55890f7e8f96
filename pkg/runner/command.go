package runner

import (
	"encoding/json"
	"strings"
)

// Command is a parsed console line.
type Command struct {
	Name string
	// Arg is the first argument (event name, script path).
	Arg string
	// Rest is the raw remainder after Arg.
	Rest string
}

var commandNames = map[string]string{
	"send":    "send",
	"s":       "send",
	"undo":    "undo",
	"u":       "undo",
	"reset":   "reset",
	"replay":  "replay",
	"state":   "state",
	"events":  "events",
	"history": "history",
	"diagram": "diagram",
	"help":    "help",
	"?":       "help",
	"quit":    "quit",
	"exit":    "quit",
	"q":       "quit",
}

// ParseCommand splits a line into a command. A leading word that is not a
// command is read as an event: "toggle {...}" is "send toggle {...}".
func ParseCommand(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}

	word, rest := cut(line)
	name, ok := commandNames[strings.ToLower(word)]
	if !ok {
		return Command{Name: "send", Arg: word, Rest: rest}, true
	}
	arg, rest := cut(rest)
	return Command{Name: name, Arg: arg, Rest: rest}, true
}

// ParseInput decodes an event input: JSON when it parses, the raw text otherwise.
// An empty string yields nil, which the engine records as an empty object.
func ParseInput(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func cut(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
