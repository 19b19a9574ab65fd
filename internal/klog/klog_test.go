package klog

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel("ipc", LevelSilent)
	TraceIPC("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at LevelSilent, got %q", buf.String())
	}

	SetLevel("ipc", LevelDebug)
	TraceIPC("seen %d", 1)
	if !strings.Contains(buf.String(), "seen 1") {
		t.Fatalf("expected message to appear, got %q", buf.String())
	}
}

func TestErrorfAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel("general", LevelSilent)
	Errorf("boom %s", "now")
	if !strings.Contains(buf.String(), "boom now") {
		t.Fatalf("expected error output regardless of level, got %q", buf.String())
	}
}

func TestPadDisplayCountsWideRunesAsTwoColumns(t *testing.T) {
	got := PadDisplay("日b", 5)
	if got != "日b  " {
		t.Fatalf("expected 2 trailing spaces, got %q (len %d)", got, len(got))
	}
}

func TestDistinctCallerFirstThenRepeat(t *testing.T) {
	dc := &DistinctCaller{Enabled: true}
	first, trace := dc.Distinct()
	if !first || trace == "" {
		t.Fatal("expected first call to be distinct with a trace")
	}
	second, _ := dc.Distinct()
	if second {
		t.Fatal("expected repeated call from the same path to not be distinct")
	}
}
