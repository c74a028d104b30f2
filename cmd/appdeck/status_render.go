package main

import (
	"fmt"
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

const statusLabelWidth = 28

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag := map[statusKind]string{statusOK: "OK", statusWarn: "WARN", statusError: "FAIL"}[kind]
	if tag == "" {
		tag = "INFO"
	}
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", tag)
	if message != "" {
		line += " " + message
	}
	if !colorize {
		return line
	}
	color := map[statusKind]string{statusOK: ansiGreen, statusWarn: ansiYellow, statusError: ansiRed, statusInfo: ansiBlue}[kind]
	return color + line + ansiReset
}
