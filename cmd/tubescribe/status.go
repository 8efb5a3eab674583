package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func renderStatusLine(kind statusKind, message string, colorize bool) string {
	label := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if colorize {
		if color := statusKindColor(kind); color != "" {
			label = color + label + ansiReset
		}
	}
	if message == "" {
		return label
	}
	return label + " " + message
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printer writes status lines to a command's output.
type printer struct {
	out      io.Writer
	colorize bool
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, colorize: shouldColorize(out)}
}

func (p *printer) status(kind statusKind, format string, args ...any) {
	fmt.Fprintln(p.out, renderStatusLine(kind, fmt.Sprintf(format, args...), p.colorize))
}

func (p *printer) item(value string) {
	fmt.Fprintf(p.out, "- %s\n", value)
}
