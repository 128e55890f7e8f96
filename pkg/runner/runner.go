package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/internal/runtime"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/ports"
)

// ContentRenderer transforms Markdown before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner handles the console loop of a statelab engine using the provided IO.
type Runner struct {
	Engine ports.Engine

	Input    io.Reader
	Output   io.Writer
	Logger   *slog.Logger
	Renderer ContentRenderer

	// JSON writes one Response object per command instead of Markdown.
	JSON bool

	ReplayDelay  time.Duration
	MaxInputSize int
	Prompt       string
}

// Response is the JSON-mode record of a command.
type Response struct {
	Command string                `json:"command"`
	Event   string                `json:"event,omitempty"`
	Result  *domain.SendResult    `json:"result,omitempty"`
	Results []domain.SendResult   `json:"results,omitempty"`
	Error   string                `json:"error,omitempty"`
	State   *StateView            `json:"state,omitempty"`
	Diagram string                `json:"diagram,omitempty"`
	History []domain.HistoryEntry `json:"history,omitempty"`
}

// StateView is the compact state printed after each command.
type StateView struct {
	ID      string   `json:"id"`
	Context any      `json:"context"`
	Events  []string `json:"events"`
	CanUndo bool     `json:"canUndo"`
}

// New creates a runner over stdin/stdout.
func New(engine ports.Engine, opts ...Option) *Runner {
	r := &Runner{
		Engine:       engine,
		Input:        os.Stdin,
		Output:       os.Stdout,
		Logger:       logging.NewNop(),
		ReplayDelay:  runtime.DefaultReplayDelay,
		MaxInputSize: DefaultMaxInputSize,
		Prompt:       "> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run reads commands until quit, end of input or ctx cancellation.
// Command failures are reported to the console and do not stop the loop;
// only IO errors are returned.
func (r *Runner) Run(ctx context.Context) error {
	lines, readErr := r.readLines(ctx)

	for {
		if err := r.prompt(); err != nil {
			return err
		}

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		clean, err := SanitizeInput(strings.TrimRight(line, "\r\n"), r.MaxInputSize)
		if err != nil {
			r.Logger.Warn("Rejected input", "err", err)
			if err := r.fail("input", err); err != nil {
				return err
			}
			continue
		}

		cmd, ok := ParseCommand(clean)
		if !ok {
			continue
		}
		if cmd.Name == "quit" {
			return nil
		}
		if err := r.Execute(ctx, cmd); err != nil {
			return err
		}
	}
}

func (r *Runner) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(r.Input)
		for {
			line, err := reader.ReadString('\n')
			if len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errs <- err
				}
				return
			}
		}
	}()
	return lines, errs
}

func (r *Runner) prompt() error {
	if r.JSON || r.Prompt == "" {
		return nil
	}
	_, err := io.WriteString(r.Output, r.Prompt)
	return err
}

// Execute runs a single command and writes its outcome.
func (r *Runner) Execute(ctx context.Context, cmd Command) error {
	r.Logger.Debug("Executing command", "command", cmd.Name, "arg", cmd.Arg)

	switch cmd.Name {
	case "send":
		if cmd.Arg == "" {
			return r.fail(cmd.Name, errors.New("usage: send <event> [input]"))
		}
		res, err := r.Engine.Send(ctx, cmd.Arg, ParseInput(cmd.Rest))
		if err != nil {
			return r.fail(cmd.Name, err)
		}
		return r.sent(cmd.Arg, res)

	case "undo":
		if err := r.Engine.Undo(ctx); err != nil {
			return r.fail(cmd.Name, err)
		}
		return r.state(cmd.Name)

	case "reset":
		if err := r.Engine.Reset(ctx); err != nil {
			return r.fail(cmd.Name, err)
		}
		return r.state(cmd.Name)

	case "replay":
		return r.replay(ctx, cmd)

	case "state", "events":
		return r.state(cmd.Name)

	case "history":
		return r.history()

	case "diagram":
		return r.diagram()

	case "help":
		return r.markdown(cmd.Name, helpText)

	default:
		return r.fail(cmd.Name, fmt.Errorf("unknown command %q", cmd.Name))
	}
}

func (r *Runner) replay(ctx context.Context, cmd Command) error {
	if cmd.Arg == "" {
		return r.fail(cmd.Name, errors.New("usage: replay <file> [delay]"))
	}
	steps, err := loader.LoadScriptFile(cmd.Arg)
	if err != nil {
		return r.fail(cmd.Name, err)
	}
	delay := r.ReplayDelay
	if cmd.Rest != "" {
		d, err := time.ParseDuration(cmd.Rest)
		if err != nil {
			return r.fail(cmd.Name, fmt.Errorf("invalid delay: %w", err))
		}
		delay = d
	}

	results, err := r.Engine.Replay(ctx, steps, delay)
	if err != nil {
		return r.fail(cmd.Name, err)
	}
	if r.JSON {
		return r.writeJSON(Response{Command: cmd.Name, Results: results, State: r.view()})
	}
	return r.markdown(cmd.Name, formatReplay(steps, results)+"\n"+formatState(r.Engine.GetState()))
}

func (r *Runner) sent(event string, res domain.SendResult) error {
	if r.JSON {
		return r.writeJSON(Response{Command: "send", Event: event, Result: &res, State: r.view()})
	}
	return r.markdown("send", formatResult(event, res)+"\n"+formatState(r.Engine.GetState()))
}

func (r *Runner) state(command string) error {
	if r.JSON {
		return r.writeJSON(Response{Command: command, State: r.view()})
	}
	return r.markdown(command, formatState(r.Engine.GetState()))
}

func (r *Runner) history() error {
	snap := r.Engine.GetState()
	if r.JSON {
		return r.writeJSON(Response{Command: "history", History: snap.History})
	}
	return r.markdown("history", formatHistory(snap.History))
}

func (r *Runner) diagram() error {
	snap := r.Engine.GetState()
	if r.JSON {
		return r.writeJSON(Response{Command: "diagram", Diagram: snap.DiagramSource})
	}
	// Diagram source is printed raw, Markdown rendering would reflow it.
	_, err := fmt.Fprintln(r.Output, snap.DiagramSource)
	return err
}

func (r *Runner) view() *StateView {
	snap := r.Engine.GetState()
	return &StateView{
		ID:      snap.ID,
		Context: snap.Context,
		Events:  sortedEvents(snap.AvailableEvents),
		CanUndo: snap.CanUndo(),
	}
}

func (r *Runner) fail(command string, err error) error {
	if r.JSON {
		return r.writeJSON(Response{Command: command, Error: err.Error()})
	}
	_, werr := fmt.Fprintf(r.Output, "error: %v\n", err)
	return werr
}

func (r *Runner) markdown(command, md string) error {
	out := md
	if r.Renderer != nil {
		rendered, err := r.Renderer(md)
		if err != nil {
			r.Logger.Warn("Render failed, printing raw", "command", command, "err", err)
		} else {
			out = rendered
		}
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(r.Output, out)
	return err
}

func (r *Runner) writeJSON(resp Response) error {
	return json.NewEncoder(r.Output).Encode(resp)
}
