package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the A.C.T. banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"     _        ____   _____ ", "#34d399"},
		{"    / \\      / ___| |_   _|", "#10b981"},
		{"   / _ \\    | |       | |  ", "#059669"},
		{"  / ___ \\ _ | |___ _  | | _", "#0d9488"},
		{" /_/   \\_(_) \\____(_) |_|(_)", "#0f766e"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" Assess. Commit. Transform.").Faint())
	fmt.Fprintln(w)
}
