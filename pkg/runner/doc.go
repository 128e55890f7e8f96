/*
Package runner provides an interactive, line-oriented console for a statelab engine.

Each line is a command:

	send <event> [input]   send an event; input is JSON, or a plain string
	<event> [input]        shorthand for send when the word is not a command
	undo                   revert the last transition
	reset                  reload the configuration
	replay <file> [delay]  replay a YAML/JSON script of {event, input} items
	state | events | history | diagram
	help | quit

Lines are sanitized (size limit, UTF-8, control characters) before parsing.
Output is Markdown passed through an optional ContentRenderer (the CLI uses
glamour), or one JSON object per command in JSON mode.
*/
package runner
