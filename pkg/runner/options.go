package runner

import (
	"io"
	"log/slog"
	"time"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithIO sets the console streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithJSON switches the output to one JSON object per command.
func WithJSON(enabled bool) Option {
	return func(r *Runner) {
		r.JSON = enabled
	}
}

// WithReplayDelay sets the default delay of the replay command.
func WithReplayDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.ReplayDelay = d
	}
}

// WithMaxInputSize overrides the line size limit.
func WithMaxInputSize(n int) Option {
	return func(r *Runner) {
		r.MaxInputSize = n
	}
}

// WithPrompt sets the prompt printed before each line in text mode.
func WithPrompt(prompt string) Option {
	return func(r *Runner) {
		r.Prompt = prompt
	}
}
