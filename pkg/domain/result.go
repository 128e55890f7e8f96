package domain

import "fmt"

// ResultKind discriminates the outcomes of sending an event.
type ResultKind int

const (
	// ResultNoTransition means the current state has no transition for the event.
	ResultNoTransition ResultKind = iota
	// ResultApplied means the transition committed.
	ResultApplied
	// ResultActionFailed means the transition action failed and nothing changed.
	ResultActionFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultNoTransition:
		return "no_transition"
	case ResultApplied:
		return "applied"
	case ResultActionFailed:
		return "action_failed"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// SendResult is the outcome of sending an event.
type SendResult struct {
	Kind ResultKind `json:"kind"`

	// Error holds the action failure message when Kind is ResultActionFailed.
	Error string `json:"error,omitempty"`
}

// Committed reports whether the transition committed.
func (r SendResult) Committed() bool { return r.Kind == ResultApplied }

// NoTransition builds the result for an event without a transition.
func NoTransition() SendResult { return SendResult{Kind: ResultNoTransition} }

// Applied builds the result for a committed transition.
func Applied() SendResult { return SendResult{Kind: ResultApplied} }

// ActionFailed builds the result for a failed action.
func ActionFailed(msg string) SendResult {
	return SendResult{Kind: ResultActionFailed, Error: msg}
}

// MarshalText lets the kind travel as a string in JSON payloads.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (k *ResultKind) UnmarshalText(text []byte) error {
	for _, kind := range []ResultKind{ResultNoTransition, ResultApplied, ResultActionFailed} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", text)
}
