package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusKinds = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {label: "INFO", color: "\x1b[34m"},
	statusOK:    {label: "OK", color: "\x1b[32m"},
	statusWarn:  {label: "WARN", color: "\x1b[33m"},
	statusError: {label: "ERROR", color: "\x1b[31m"},
}

// statusPrinter writes the aligned sections of the status command. Color is
// applied only when the destination is a terminal.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, color: terminalWriter(out)}
}

func (p *statusPrinter) section(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if p.color {
		blue := statusKinds[statusInfo].color
		line = blue + line + ansiReset
		rule = blue + rule + ansiReset
	}
	fmt.Fprintln(p.out, line)
	fmt.Fprintln(p.out, rule)
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	entry := statusKinds[kind]
	value := "[" + entry.label + "]"
	if message != "" {
		value += " " + message
	}
	formatted := fmt.Sprintf("  %-18s %s", label+":", value)
	if p.color && entry.color != "" {
		formatted = entry.color + formatted + ansiReset
	}
	fmt.Fprintln(p.out, formatted)
}

func (p *statusPrinter) item(value string) {
	fmt.Fprintf(p.out, "  %s\n", value)
}

func (p *statusPrinter) blank() {
	fmt.Fprintln(p.out)
}

func terminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
