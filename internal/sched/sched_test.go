package sched

import (
	"testing"

	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/mempage"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/region"
)

func newTestTable(procsMax int) *proc.Table {
	cfg := limits.Default()
	cfg.ProcsMax = procsMax
	alloc := mempage.New(0, 1024)
	rgn := region.NewTable()
	return proc.NewTable(cfg, alloc, rgn)
}

func TestNextRoundRobinSkipsIdleAndNonRunnable(t *testing.T) {
	tbl := newTestTable(4)
	a, _ := tbl.Create("a", 0, true, nil) // pidx 1
	b, _ := tbl.Create("b", 0, true, nil) // pidx 2
	_, _ = tbl.Create("c", 0, true, nil)  // pidx 3, will be exited

	tbl.Exit(3)

	if got := Next(tbl, a.Pidx); got != b.Pidx {
		t.Fatalf("expected to pick b (pidx %v), got %v", b.Pidx, got)
	}
}

func TestNextFallsBackToIdle(t *testing.T) {
	tbl := newTestTable(2)
	if got := Next(tbl, 0); got != tbl.Idle().Pidx {
		t.Fatalf("expected idle fallback, got %v", got)
	}
}

func TestShouldShutdownOnSlotOneTermination(t *testing.T) {
	tbl := newTestTable(2)
	p, _ := tbl.Create("init", 0, true, nil)
	if p.Pidx != 1 {
		t.Fatalf("expected first created process to land in slot 1, got %v", p.Pidx)
	}
	if ShouldShutdown(tbl) {
		t.Fatal("should not signal shutdown while init is runnable")
	}
	tbl.Exit(1)
	if !ShouldShutdown(tbl) {
		t.Fatal("expected shutdown signal once slot 1 terminates")
	}
}
