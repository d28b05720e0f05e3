package dispatch

import (
	"fmt"
	"io"
	"strings"
)

// Usage writes the help text.
func Usage(w io.Writer) {
	var b strings.Builder
	b.WriteString("\nusage: isaaclab")
	for _, entry := range flagTable {
		b.WriteString(" [" + entry.short + "]")
	}
	b.WriteString(" -- Utility to manage Isaac Lab.\n\noptional arguments:\n")

	for _, entry := range flagTable {
		names := append([]string{entry.short, entry.long}, entry.aliases...)
		left := strings.Join(names, ", ")
		if entry.metavar != "" {
			left += " " + entry.metavar
		}
		fmt.Fprintf(&b, "\t%-28s %s\n", left, entry.help)
	}
	b.WriteString("\n")
	io.WriteString(w, b.String())
}
