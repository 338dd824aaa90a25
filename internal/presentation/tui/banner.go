package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`   ____       _     _                       _   `,
	`  / ___|_   _(_) __| | ___ _ __   ___  ___| |_ `,
	` | |  _| | | | |/ _' |/ _ \ '_ \ / _ \/ __| __|`,
	` | |_| | |_| | | (_| |  __/ |_) | (_) \__ \ |_ `,
	`  \____|\__,_|_|\__,_|\___| .__/ \___/|___/\__|`,
	`                          |_|                  `,
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8"}

// PrintBanner writes the guidepost banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if version = strings.TrimSpace(version); version != "" {
		fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
