package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/statelab/pkg/domain"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding about a configuration.
type Issue struct {
	Severity Severity
	State    string
	Event    string
	Message  string
}

func (i Issue) String() string {
	where := i.State
	if i.Event != "" {
		where += "." + i.Event
	}
	if where == "" {
		return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, where, i.Message)
}

// Compiler checks that action code can run.
type Compiler interface {
	Compile(code string) error
}

// Report collects the issues found in a configuration.
type Report struct {
	Issues []Issue
}

// Err returns an error summarizing the error-level issues, or nil.
func (r Report) Err() error {
	var errs []string
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue.String())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
}

// ValidateConfig checks for a missing initial state, broken transition
// targets, actions that do not compile and states unreachable from the
// initial state. None of these prevent a load; the engine reports them as
// warnings and surfaces them lazily.
func ValidateConfig(cfg *domain.Configuration, compiler Compiler) Report {
	var report Report
	if cfg == nil {
		report.Issues = append(report.Issues, Issue{Severity: SeverityError, Message: "configuration is missing"})
		return report
	}
	if cfg.States == nil {
		report.Issues = append(report.Issues, Issue{Severity: SeverityError, Message: "configuration has no states mapping"})
		return report
	}

	if _, ok := cfg.States[cfg.InitialState]; !ok {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			State:    cfg.InitialState,
			Message:  fmt.Sprintf("initial state %q is not defined", cfg.InitialState),
		})
	}

	for _, id := range sortedKeys(cfg.States) {
		node := cfg.States[id]
		for _, event := range sortedKeys(node.On) {
			t := node.On[event]
			if _, ok := cfg.States[t.To]; !ok {
				report.Issues = append(report.Issues, Issue{
					Severity: SeverityError,
					State:    id,
					Event:    event,
					Message:  fmt.Sprintf("transition targets unknown state %q", t.To),
				})
			}
			if t.Action != "" && compiler != nil {
				if err := compiler.Compile(t.Action); err != nil {
					report.Issues = append(report.Issues, Issue{
						Severity: SeverityError,
						State:    id,
						Event:    event,
						Message:  err.Error(),
					})
				}
			}
		}
	}

	// Reachability crawl from the initial state
	visited := make(map[string]bool)
	queue := []string{cfg.InitialState}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, ok := cfg.States[currentID]
		if !ok {
			continue
		}
		for _, event := range sortedKeys(node.On) {
			if target := node.On[event].To; !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	for _, id := range sortedKeys(cfg.States) {
		if !visited[id] {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityWarning,
				State:    id,
				Message:  "state is unreachable from the initial state",
			})
		}
	}

	return report
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
