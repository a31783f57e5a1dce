package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"devbox/internal/deps"
	"devbox/internal/preflight"
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

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.Und)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
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

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func resultLine(result preflight.Result, failKind statusKind, colorize bool) string {
	kind := statusOK
	if !result.Passed {
		kind = failKind
	}
	return renderStatusLine(result.Name, kind, result.Detail, colorize)
}

func dependencyRows(statuses []deps.VersionStatus) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		version := status.Version
		if version == "" {
			version = "-"
		}
		minimum := status.MinVersion
		if minimum == "" {
			minimum = "-"
		}
		rows = append(rows, []string{
			status.Name,
			dependencyCommand(status),
			version,
			minimum,
			dependencyState(status),
		})
	}
	return rows
}

func dependencyCommand(status deps.VersionStatus) string {
	if status.Path != "" {
		return status.Path
	}
	return status.Command
}

func dependencyState(status deps.VersionStatus) string {
	switch {
	case !status.Available && status.Optional:
		return "optional, missing"
	case !status.Available:
		return "missing"
	case !status.Satisfied:
		return "too old"
	default:
		return "ok"
	}
}
