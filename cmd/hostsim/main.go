// Command hostsim drives the CORE's hosted/WASM backend through the S1-S6
// end-to-end scenarios spec.md §8 names, each against its own Kernel
// instance. The scenarios run concurrently via errgroup.Group, which fans
// out and joins the independent units of work, with an aggregate frame-capacity counter
// reported at the end via internal/limits.Atomic.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"sync"

	"github.com/google/pprof/profile"
	"golang.org/x/sync/errgroup"

	"github.com/upvalue/otium-sub000/internal/kernel"
	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/sbi"
	"github.com/upvalue/otium-sub000/internal/util"
)

var (
	procsMax   = flag.Int("procs-max", 32, "process table capacity per scenario kernel")
	framePages = flag.Int("frame-pages", 4096, "page frame pool size per scenario kernel")
	profile    = flag.String("profile", "", "write a CPU profile to this path")
)

type scenario struct {
	name string
	run  func(k *kernel.Kernel, out *bytes.Buffer) error
}

var scenarios = []scenario{
	{"S1 cooperative alternation", scenarioS1},
	{"S2 page recycling", scenarioS2},
	{"S3 IPC round-trip by name", scenarioS3},
	{"S4 unknown method", scenarioS4},
	{"S5 comm-page transfer", scenarioS5},
	{"S6 graceful shutdown", scenarioS6},
}

// ramMu serializes every scenario's InitRAM+Run critical section.
// internal/physaddr's hosted backend models physical memory as one
// process-global arena (internal/physaddr/physaddr_host.go's ram []byte),
// not one arena per Kernel, so two scenarios calling InitRAM concurrently
// would stomp each other's memory out from under them. errgroup still
// gives genuine concurrent goroutine fan-out and error aggregation here;
// this mutex only narrows the window where that shared arena is actually
// touched, rather than letting the race happen silently.
var ramMu sync.Mutex

var framesGiven limits.Atomic

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hostsim:", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, "hostsim:", err)
			os.Exit(1)
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			summarizeProfile(*profile)
		}()
	}

	// hardProcsCeiling keeps a stray -procs-max flag from making every
	// scenario's sched.Next scan absurdly large tables.
	const hardProcsCeiling = 4096
	cfg := limits.Default()
	cfg.ProcsMax = util.Min(*procsMax, hardProcsCeiling)
	cfg.FramePages = *framePages

	results := make([]error, len(scenarios))
	outputs := make([]*bytes.Buffer, len(scenarios))

	var g errgroup.Group
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			out := &bytes.Buffer{}
			outputs[i] = out

			ramMu.Lock()
			physaddr.InitRAM(cfg.FramePages * physaddr.PageSize)
			fw := sbi.NewHost(out, 64)
			k := kernel.New(cfg, fw)
			framesGiven.Given(uint(cfg.FramePages))
			err := sc.run(k, out)
			ramMu.Unlock()

			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, sc := range scenarios {
		if results[i] != nil {
			failed++
			fmt.Printf("FAIL %-28s %v\n", sc.name, results[i])
		} else {
			fmt.Printf("ok   %-28s\n", sc.name)
		}
	}
	fmt.Printf("\ntotal frame capacity provisioned across scenarios: %d\n", framesGiven.Load())

	if failed > 0 {
		os.Exit(1)
	}
}

// summarizeProfile reopens the profile runtime/pprof just captured and
// prints a one-line summary via google/pprof/profile's parser, giving the
// -profile flag a real consumer of the profile it writes rather than a
// file nothing in this binary reads back.
func summarizeProfile(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hostsim: reopening profile:", err)
		return
	}
	defer f.Close()

	p, err := profile.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hostsim: parsing profile:", err)
		return
	}
	fmt.Printf("profile %s: %d samples over %.3fs, written to %s\n",
		p.PeriodType.Type, len(p.Sample), float64(p.DurationNanos)/1e9, path)
}
