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
	{"  ____            _            ", "#34d399"},
	{" |  _ \\ __ _ _ __| | ___ _   _ ", "#2dd4bf"},
	{" | |_) / _` | '__| |/ _ \\ | | |", "#22d3ee"},
	{" |  __/ (_| | |  | |  __/ |_| |", "#38bdf8"},
	{" |_|   \\__,_|_|  |_|\\___|\\__, |", "#60a5fa"},
	{"                         |___/ ", "#818cf8"},
}

// PrintBanner writes the Parley banner to w using the terminal's color profile.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
