package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/statelab/pkg/domain"
)

// GenerateMermaid produces a Mermaid stateDiagram-v2 source for states.
// States and transitions are emitted in sorted order so the output is stable.
// The current state is tagged with the "current" class.
func GenerateMermaid(states map[string]domain.StateNode, currentID string) string {
	if states == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString("    direction LR\n\n")
	sb.WriteString("    classDef current fill:#6366f1,stroke:#fff,stroke-width:2px,color:#fff\n\n")

	ids := sortedKeys(states)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		sb.WriteString(fmt.Sprintf("    state \"%s\" as %s\n", escapeLabel(states[id].DisplayLabel(id)), safeID))
		if id == currentID {
			sb.WriteString(fmt.Sprintf("    class %s current\n", safeID))
		}
	}

	sb.WriteString("\n")

	for _, id := range ids {
		node := states[id]
		for _, event := range sortedKeys(node.On) {
			t := node.On[event]
			sb.WriteString(fmt.Sprintf("    %s --> %s: %s\n",
				sanitizeMermaidID(id), sanitizeMermaidID(t.To), escapeLabel(t.DisplayLabel(event))))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, "\"", "'")
	return strings.ReplaceAll(label, "\n", " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
