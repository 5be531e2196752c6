package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerDebugGate(t *testing.T) {
	var out bytes.Buffer
	l := newLogger(&out, &out)

	l.Debug("hidden %d", 1)
	if out.Len() != 0 {
		t.Fatalf("debug should be suppressed, got %q", out.String())
	}

	l.debugEnabled = true
	l.Debug("shown %d", 2)
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("debug line missing: %q", out.String())
	}
}

func TestLoggerLevelsGoToTheirWriters(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut)

	l.Info("hello %s", "info")
	l.Error("hello %s", "error")

	if !strings.Contains(out.String(), "INFO") || !strings.Contains(out.String(), "hello info") {
		t.Errorf("info line missing: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "ERROR") || strings.Contains(out.String(), "hello error") {
		t.Errorf("error line misrouted: out=%q err=%q", out.String(), errOut.String())
	}
}

func TestLoggerColourOnlyWhenEnabled(t *testing.T) {
	var out bytes.Buffer
	l := newLogger(&out, &out)

	l.Warn("plain")
	if strings.Contains(out.String(), "\033[") {
		t.Errorf("uncoloured logger wrote escape codes: %q", out.String())
	}
	if !strings.Contains(out.String(), "WARN  plain") {
		t.Errorf("unexpected layout: %q", out.String())
	}

	out.Reset()
	l.colour = true
	l.Warn("tinted")
	if !strings.Contains(out.String(), "\033[33mWARN\033[0m") {
		t.Errorf("coloured logger missing escape codes: %q", out.String())
	}
}

func TestLoggerKeepsPercentInArgs(t *testing.T) {
	var out bytes.Buffer
	l := newLogger(&out, &out)

	l.Info("rate %s", "100%")
	if !strings.Contains(out.String(), "rate 100%") {
		t.Errorf("got %q", out.String())
	}
}
