package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	colourInfo  = "32"
	colourWarn  = "33"
	colourError = "31"
	colourDebug = "36"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger

	debugEnabled bool
	colour       bool
}

// NewLogger creates a new Logger writing to stdout/stderr. Debug lines are
// only emitted when level is "debug"; level labels are coloured only when
// stdout is a terminal.
func NewLogger(level string) *Logger {
	l := newLogger(os.Stdout, os.Stderr)
	l.debugEnabled = level == "debug"
	l.colour = term.IsTerminal(int(os.Stdout.Fd()))
	return l
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() *Logger {
	return newLogger(io.Discard, io.Discard)
}

func newLogger(out, errOut io.Writer) *Logger {
	flags := 0
	return &Logger{
		info:  log.New(out, "", flags),
		warn:  log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
		debug: log.New(out, "", flags),
	}
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// prefix renders "[timestamp] LEVEL " padded to a fixed width.
func (l *Logger) prefix(label, colour string) string {
	pad := strings.Repeat(" ", 6-len(label))
	if l.colour {
		label = "\033[" + colour + "m" + label + "\033[0m"
	}
	return fmt.Sprintf("[%s] %s%s", l.timestamp(), label, pad)
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(l.prefix("INFO", colourInfo)+format+"\n", args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(l.prefix("WARN", colourWarn)+format+"\n", args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(l.prefix("ERROR", colourError)+format+"\n", args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugEnabled {
		return
	}
	l.debug.Printf(l.prefix("DEBUG", colourDebug)+format+"\n", args...)
}
