package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"      _        _       _       _     ", "#818cf8"},
	{"  ___| |_ __ _| |_ ___| | __ _| |__  ", "#a78bfa"},
	{" / __| __/ _` | __/ _ \\ |/ _` | '_ \\ ", "#c084fc"},
	{" \\__ \\ || (_| | ||  __/ | (_| | |_) |", "#e879f9"},
	{" |___/\\__\\__,_|\\__\\___|_|\\__,_|_.__/ ", "#f472b6"},
}

// PrintBanner writes the statelab banner followed by the version line.
// Colors follow the capabilities of the output.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
