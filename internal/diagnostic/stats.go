package diagnostic

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
)

// Counters tallies the runtime events that `-s/--showStatistics` reports
// on: dispatch-tree growth, chunk invalidation, and fiber lifecycle. All
// fields are updated with atomic ops since readers and mutators run on
// different fiber-carrying OS threads.
type Counters struct {
	DispatchTreeGrowths   int64
	ChunkInvalidations    int64
	ChunkReoptimizations  int64
	DescriptorSwaps       int64
	FibersSpawned         int64
	FibersTerminated      int64
	SafepointPauses       int64
	MethodDefinitions     int64
	ContinuationsCreated  int64
}

func NewCounters() *Counters { return &Counters{} }

func (c *Counters) IncDispatchTreeGrowth()  { atomic.AddInt64(&c.DispatchTreeGrowths, 1) }
func (c *Counters) IncChunkInvalidation()   { atomic.AddInt64(&c.ChunkInvalidations, 1) }
func (c *Counters) IncChunkReoptimization() { atomic.AddInt64(&c.ChunkReoptimizations, 1) }
func (c *Counters) IncDescriptorSwap()      { atomic.AddInt64(&c.DescriptorSwaps, 1) }
func (c *Counters) IncFiberSpawned()        { atomic.AddInt64(&c.FibersSpawned, 1) }
func (c *Counters) IncFiberTerminated()     { atomic.AddInt64(&c.FibersTerminated, 1) }
func (c *Counters) IncSafepointPause()      { atomic.AddInt64(&c.SafepointPauses, 1) }
func (c *Counters) IncMethodDefinition()    { atomic.AddInt64(&c.MethodDefinitions, 1) }
func (c *Counters) IncContinuationCreated() { atomic.AddInt64(&c.ContinuationsCreated, 1) }

// Snapshot is an immutable copy suitable for rendering.
type Snapshot struct {
	DispatchTreeGrowths  int64
	ChunkInvalidations   int64
	ChunkReoptimizations int64
	DescriptorSwaps      int64
	FibersSpawned        int64
	FibersTerminated     int64
	SafepointPauses      int64
	MethodDefinitions    int64
	ContinuationsCreated int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		DispatchTreeGrowths:  atomic.LoadInt64(&c.DispatchTreeGrowths),
		ChunkInvalidations:   atomic.LoadInt64(&c.ChunkInvalidations),
		ChunkReoptimizations: atomic.LoadInt64(&c.ChunkReoptimizations),
		DescriptorSwaps:      atomic.LoadInt64(&c.DescriptorSwaps),
		FibersSpawned:        atomic.LoadInt64(&c.FibersSpawned),
		FibersTerminated:     atomic.LoadInt64(&c.FibersTerminated),
		SafepointPauses:      atomic.LoadInt64(&c.SafepointPauses),
		MethodDefinitions:    atomic.LoadInt64(&c.MethodDefinitions),
		ContinuationsCreated: atomic.LoadInt64(&c.ContinuationsCreated),
	}
}

// Render writes a human-readable statistics report, honoring the terminal
// color capability the way the teacher's CLI gates ANSI output.
func (s Snapshot) Render(w io.Writer) {
	bold, reset := "", ""
	if f, ok := w.(interface{ Fd() uintptr }); ok && isatty.IsTerminal(f.Fd()) {
		bold, reset = "\x1b[1m", "\x1b[0m"
	}
	fmt.Fprintf(w, "%sdispatch tree growths%s: %s\n", bold, reset, humanize.Comma(s.DispatchTreeGrowths))
	fmt.Fprintf(w, "%schunk invalidations%s:  %s\n", bold, reset, humanize.Comma(s.ChunkInvalidations))
	fmt.Fprintf(w, "%schunk reoptimizations%s: %s\n", bold, reset, humanize.Comma(s.ChunkReoptimizations))
	fmt.Fprintf(w, "%sdescriptor swaps%s:     %s\n", bold, reset, humanize.Comma(s.DescriptorSwaps))
	fmt.Fprintf(w, "%sfibers spawned%s:       %s\n", bold, reset, humanize.Comma(s.FibersSpawned))
	fmt.Fprintf(w, "%sfibers terminated%s:    %s\n", bold, reset, humanize.Comma(s.FibersTerminated))
	fmt.Fprintf(w, "%ssafepoint pauses%s:     %s\n", bold, reset, humanize.Comma(s.SafepointPauses))
	fmt.Fprintf(w, "%smethod definitions%s:   %s\n", bold, reset, humanize.Comma(s.MethodDefinitions))
	fmt.Fprintf(w, "%scontinuations created%s: %s\n", bold, reset, humanize.Comma(s.ContinuationsCreated))
}

// Dump pretty-prints an arbitrary value for --verboseMode diagnostics,
// in the spirit of the teacher's debugger dumps.
func Dump(w io.Writer, v any) {
	fmt.Fprintln(w, pretty.Sprint(v))
}
