package main

import (
	"fmt"
	"io"
	"strings"
)

func renderStatus(e *env, w io.Writer) {
	if e.eng.Playing() {
		fmt.Fprintf(w, "playing ♩ = %v\n", e.eng.Tempo())
	} else {
		fmt.Fprintf(w, "stopped ♩ = %v\n", e.tempo)
	}

	var maxNameLen int
	for _, id := range e.ids {
		if n := len(e.infos[id].name); n > maxNameLen {
			maxNameLen = n
		}
	}

	for i, id := range e.ids {
		info := e.infos[id]

		speaker := "🔈"
		if muted, err := e.eng.Muted(id); err == nil && muted {
			speaker = "🔇"
		}

		var grid string
		for click, accent := range info.pattern.Accents {
			switch {
			case accent >= 0.9:
				grid += "⬛️"
			case click%info.pattern.Subdiv == 0:
				grid += "🔳"
			default:
				grid += "⬜️"
			}
			grid += " "
		}

		name := info.name
		if len(name) < maxNameLen {
			name += strings.Repeat(" ", maxNameLen-len(name))
		}

		line := fmt.Sprintf("%s %s %s %s",
			colorize(string(rune('a'+i)), colorGreen),
			colorize(name, colorBlue),
			speaker, grid)

		diag, err := e.eng.Diagnostics(id)
		if err == nil && (diag.Underruns > 0 || diag.Overflows > 0 || diag.Failed) {
			line += colorize(fmt.Sprintf("  under=%d over=%d failed=%v",
				diag.Underruns, diag.Overflows, diag.Failed), colorRed)
		}
		fmt.Fprintln(w, line)
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
