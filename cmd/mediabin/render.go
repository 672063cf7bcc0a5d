package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"mediabin/internal/jobs"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorizeStatus(text string, state jobs.State, colorize bool) string {
	if !colorize {
		return text
	}
	switch state {
	case jobs.StateDone:
		return ansiGreen + text + ansiReset
	case jobs.StateProcessing:
		return ansiYellow + text + ansiReset
	case jobs.StateFailed:
		return ansiRed + text + ansiReset
	default:
		return text
	}
}
