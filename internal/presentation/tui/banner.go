package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                              _           ",
	"  __ _  ___  ___  ___  ___ | |_   _____ ",
	" / _` |/ _ \\/ _ \\/ __|/ _ \\| \\ \\ / / _ \\",
	"| (_| |  __/ (_) \\__ \\ (_) | |\\ V /  __/",
	" \\__, |\\___|\\___/|___/\\___/|_| \\_/ \\___|",
	" |___/                                  ",
}

// PrintBanner writes the ASCII art banner, shaded from cyan to violet.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	from, _ := colorful.Hex("#22d3ee")
	to, _ := colorful.Hex("#a78bfa")

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		t := float64(i) / float64(len(bannerLines)-1)
		c := from.BlendLab(to, t).Clamped()
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(c.Hex())))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
