package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"gamewiki/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

const statusLabelWidth = 20

// statusReport accumulates the sectioned "label: [KIND] detail" lines
// printed by `gamewiki status`.
type statusReport struct {
	colorize bool
	lines    []string
}

func newStatusReport(w io.Writer) *statusReport {
	return &statusReport{colorize: shouldColorize(w)}
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	header := "== " + strings.TrimSpace(title) + " =="
	if r.colorize {
		header = text.Colors{text.FgBlue, text.Bold}.Sprint(header)
	}
	r.lines = append(r.lines, header)
}

func (r *statusReport) line(label string, kind statusKind, detail string) {
	style := statusStyles[kind]
	value := "[" + style.label + "]"
	if detail != "" {
		value += " " + detail
	}
	row := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", value)
	if r.colorize {
		row = style.color.Sprint(row)
	}
	r.lines = append(r.lines, row)
}

func (r *statusReport) check(result preflight.Result) {
	kind := statusError
	if result.Passed {
		kind = statusOK
	}
	r.line(result.Name, kind, result.Detail)
}

func (r *statusReport) String() string {
	return strings.Join(r.lines, "\n")
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
