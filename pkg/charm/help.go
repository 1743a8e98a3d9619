package charm

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kr/text"
	"golang.org/x/term"
)

const tab = "    "

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func formatParagraph(body string, lineWidth int) string {
	var chunks []string
	for _, paragraph := range strings.Split(strings.TrimSpace(body), "\n\n") {
		paragraph = text.Wrap(strings.TrimSpace(paragraph), lineWidth)
		chunks = append(chunks, strings.ReplaceAll(paragraph, "\n", "\n"+tab))
	}
	return tab + strings.Join(chunks, "\n\n"+tab) + "\n\n"
}

func flagMap(flags string) map[string]bool {
	m := make(map[string]bool)
	for _, name := range strings.Split(flags, ",") {
		if name = strings.TrimSpace(name); name != "" {
			m[name] = true
		}
	}
	return m
}

func (i *instance) options() []string {
	hidden := flagMap(i.spec.HiddenFlags)
	var lines []string
	i.flags.VisitAll(func(f *flag.Flag) {
		if hidden[f.Name] {
			return
		}
		line := "-" + f.Name + " " + f.Usage
		if f.DefValue != "" {
			line = fmt.Sprintf("%s (default %q)", line, f.DefValue)
		}
		lines = append(lines, line)
	})
	return lines
}

// optionLines lists the flags of the last command followed by those of
// its parents, each group under the parent's name.
func optionLines(p path) []string {
	lines := p.last().options()
	if len(lines) == 0 {
		lines = []string{"no flags for this command"}
	}
	for k := len(p) - 2; k >= 0; k-- {
		opts := p[k].options()
		if len(opts) == 0 {
			continue
		}
		lines = append(lines, "", "["+p[:k+1].pathname()+" flags]")
		lines = append(lines, opts...)
	}
	return lines
}

func displayHelp(w io.Writer, p path) {
	spec := p.last().spec
	width := terminalWidth() - len(tab) - 5
	section := func(heading string, lines []string) {
		fmt.Fprintf(w, "%s\n%s%s\n\n", heading, tab, strings.Join(lines, "\n"+tab))
	}
	section("NAME", []string{p.pathname() + " - " + spec.Short})
	section("USAGE", []string{spec.Usage})
	section("OPTIONS", optionLines(p))
	var commands []string
	for _, child := range spec.children {
		if !child.Hidden {
			commands = append(commands, child.Name+" - "+child.Short)
		}
	}
	if len(commands) > 0 {
		section("COMMANDS", commands)
	}
	if spec.Long != "" {
		fmt.Fprint(w, "DESCRIPTION\n"+formatParagraph(spec.Long, width))
	}
}
