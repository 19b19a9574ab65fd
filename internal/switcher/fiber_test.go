package switcher

import "testing"

func TestSwitchToRoundTrip(t *testing.T) {
	var trace []string
	host := NewFiber()

	var self *Fiber
	self = Spawn(func() {
		trace = append(trace, "A")
		SwitchTo(self, host)
		trace = append(trace, "B")
		SwitchTo(self, host)
	})

	SwitchTo(host, self)
	if len(trace) != 1 || trace[0] != "A" {
		t.Fatalf("expected [A] after first switch, got %v", trace)
	}
	SwitchTo(host, self)
	if len(trace) != 2 || trace[1] != "B" {
		t.Fatalf("expected [A B] after second switch, got %v", trace)
	}
}

func TestSwitchToDirectHandoffBetweenTwoFibers(t *testing.T) {
	var trace []string
	host := NewFiber()

	var a, b *Fiber
	a = Spawn(func() {
		trace = append(trace, "a1")
		SwitchTo(a, b) // direct hand-off, bypassing host
		trace = append(trace, "a2")
		SwitchTo(a, host)
	})
	b = Spawn(func() {
		trace = append(trace, "b1")
		SwitchTo(b, a)
	})

	SwitchTo(host, a)
	if got := trace; len(got) != 3 || got[0] != "a1" || got[1] != "b1" || got[2] != "a2" {
		t.Fatalf("expected [a1 b1 a2], got %v", got)
	}
}
