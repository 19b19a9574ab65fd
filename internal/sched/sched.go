// Package sched implements the cooperative scheduler (spec.md §4.5):
// round-robin over process slots, idle fallback, no preemption.
package sched

import (
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
)

// Next picks the next runnable process starting just after current, per
// spec.md §4.5: round robin from current.Pidx+1, skipping slot 0 (the
// reserved idle slot) as a candidate, wrapping around the table. Returns
// table.Idle()'s pidx if nothing else is RUNNABLE.
func Next(table *proc.Table, current procid.Pidx) procid.Pidx {
	n := table.ProcsMax()
	for i := 1; i <= n; i++ {
		cand := procid.Pidx((int(current) + i) % n)
		if cand == 0 {
			continue
		}
		if table.StateOf(cand) == proc.Runnable {
			return cand
		}
	}
	return table.Idle().Pidx
}

// ShouldShutdown reports whether slot 1 — the conventional init/shell
// process — has just terminated, which per spec.md §4.5 means the
// scheduler should stop returning user processes and the outer loop should
// proceed to firmware shutdown.
func ShouldShutdown(table *proc.Table) bool {
	if table.ProcsMax() < 2 {
		return false
	}
	return table.StateOf(1) == proc.Terminated
}
