package runner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/statelab/pkg/domain"
)

const helpText = `## Commands

| Command | Description |
|---------|-------------|
| ` + "`send <event> [input]`" + ` | send an event, input is JSON or text |
| ` + "`<event> [input]`" + ` | shorthand for send |
| ` + "`undo`" + ` | revert the last transition |
| ` + "`reset`" + ` | reload the configuration |
| ` + "`replay <file> [delay]`" + ` | replay a script |
| ` + "`state`, `events`, `history`, `diagram`" + ` | inspect the machine |
| ` + "`quit`" + ` | leave |
`

func formatResult(event string, res domain.SendResult) string {
	switch res.Kind {
	case domain.ResultApplied:
		return fmt.Sprintf("> **%s** applied", event)
	case domain.ResultActionFailed:
		return fmt.Sprintf("> **%s** failed: %s", event, res.Error)
	default:
		return fmt.Sprintf("> **%s** is not accepted in this state", event)
	}
}

func formatState(snap domain.Snapshot) string {
	var b strings.Builder
	if snap.ID == "" {
		b.WriteString("_No configuration loaded._\n")
		return b.String()
	}

	title := snap.ID
	if snap.Data != nil && snap.Data.Label != "" && snap.Data.Label != snap.ID {
		title = fmt.Sprintf("%s (%s)", snap.Data.Label, snap.ID)
	}
	fmt.Fprintf(&b, "## State: %s\n\n", title)
	if snap.Data == nil {
		b.WriteString("_State is not defined in the configuration._\n\n")
	}

	fmt.Fprintf(&b, "**Context**: `%s`\n\n", compactJSON(snap.Context))

	events := sortedEvents(snap.AvailableEvents)
	if len(events) == 0 {
		b.WriteString("_No events available._\n")
	} else {
		b.WriteString("**Events**:\n\n")
		for _, event := range events {
			t := snap.AvailableEvents[event]
			line := fmt.Sprintf("- `%s` → %s", event, t.To)
			if t.Label != "" {
				line += fmt.Sprintf(" (%s)", t.Label)
			}
			if t.Action != "" {
				line += " *with action*"
			}
			b.WriteString(line + "\n")
		}
	}
	if snap.CanUndo() {
		b.WriteString("\n_undo available_\n")
	}
	return b.String()
}

func formatHistory(history []domain.HistoryEntry) string {
	if len(history) == 0 {
		return "_History is empty._\n"
	}
	var b strings.Builder
	b.WriteString("## History\n\n| # | Time | Event | State | Context |\n|---|------|-------|-------|---------|\n")
	for i, h := range history {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | `%s` |\n",
			i, h.Timestamp.Format("15:04:05"), h.Event, h.State, compactJSON(h.Context))
	}
	return b.String()
}

func formatReplay(steps []domain.ReplayStep, results []domain.SendResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Replay (%d events)\n\n", len(steps))
	for i, res := range results {
		b.WriteString(formatResult(steps[i].Event, res) + "\n\n")
	}
	return b.String()
}

func sortedEvents(events map[string]domain.Transition) []string {
	out := make([]string, 0, len(events))
	for e := range events {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
