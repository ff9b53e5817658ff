package main

import (
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/host/wirehost"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

func benchCmd(cfg func() *config.Config) *cobra.Command {
	var (
		items      int
		iterations int
		hostName   string
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure keyed list reconciliation",
		Long: `Render a keyed table and time common list updates: creating rows,
replacing them, swapping, reversing, shuffling, partial updates and removal.

The mem host measures reconciliation alone; the wire host adds patch
encoding and reports the frame bytes produced per update.

Examples:
  kinetic bench
  kinetic bench --items 10000 --iterations 20 --host wire`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if items <= 0 {
				items = c.Bench.Items
			}
			if iterations <= 0 {
				iterations = c.Bench.Iterations
			}
			if hostName != "mem" && hostName != "wire" {
				return fmt.Errorf("unknown host %q (available: mem, wire)", hostName)
			}
			return runBench(cmd.OutOrStdout(), benchOptions{
				items:      items,
				iterations: iterations,
				wire:       hostName == "wire",
				seed:       seed,
			})
		},
	}

	cmd.Flags().IntVarP(&items, "items", "n", 0, "Rows per table (default from config)")
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 0, "Measured updates per scenario (default from config)")
	cmd.Flags().StringVar(&hostName, "host", "mem", "Host adapter: mem or wire")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for the shuffle scenario")

	return cmd
}

type benchOptions struct {
	items      int
	iterations int
	wire       bool
	seed       int64
}

type row struct {
	id    int
	label string
}

// bench owns one runtime and a table mounted into a host.
type bench struct {
	opts benchOptions
	rng  *rand.Rand

	loop      *loop.Loop
	r         *renderer.Renderer
	container host.Handle
	wire      *wirehost.Host

	rows   []row
	nextID int
	ops    int
	bytes  int
}

func newBench(opts benchOptions) *bench {
	b := &bench{opts: opts, rng: rand.New(rand.NewSource(opts.seed)), loop: loop.New()}
	rt := reactive.New(scheduler.New(b.loop))
	count := host.CounterFunc(func(host.Op) { b.ops++ })
	if opts.wire {
		b.wire = wirehost.New()
		b.container = b.wire.Root()
		b.r = renderer.New(host.Instrument(b.wire, count), rt)
	} else {
		mh := memhost.New()
		b.container = mh.Root("bench")
		b.r = renderer.New(host.Instrument(mh, count), rt)
	}
	return b
}

func (b *bench) makeRows(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		b.nextID++
		rows[i] = row{id: b.nextID, label: "row " + strconv.Itoa(b.nextID)}
	}
	return rows
}

// render patches the table to rows and returns the time spent.
func (b *bench) render(rows []row) time.Duration {
	start := time.Now()
	b.loop.Do(func() { b.r.Render(tableNode(rows), b.container) })
	elapsed := time.Since(start)
	b.rows = rows
	if b.wire != nil {
		for _, f := range b.wire.TakeFrames() {
			b.bytes += len(f.Encode())
		}
	}
	return elapsed
}

func tableNode(rows []row) *vnode.Node {
	return vnode.El("table",
		vnode.El("tbody", vnode.Range(rows, func(r row, _ int) *vnode.Node {
			return vnode.El("tr", vnode.Key(r.id),
				vnode.El("td", vnode.Class("id"), strconv.Itoa(r.id)),
				vnode.El("td", vnode.Class("label"), r.label))
		})))
}

type benchScenario struct {
	name string

	// prepare brings the table into the scenario's start state; untimed.
	prepare func(b *bench)

	// next returns the rows to patch to; the patch is timed.
	next func(b *bench) []row
}

func benchScenarios(n int) []benchScenario {
	ensure := func(b *bench) {
		if len(b.rows) != n {
			b.render(b.makeRows(n))
		}
	}
	return []benchScenario{
		{
			name:    "create rows",
			prepare: func(b *bench) { b.render(nil) },
			next:    func(b *bench) []row { return b.makeRows(n) },
		},
		{
			name:    "replace all rows",
			prepare: ensure,
			next:    func(b *bench) []row { return b.makeRows(n) },
		},
		{
			name:    "update every 10th row",
			prepare: ensure,
			next: func(b *bench) []row {
				rows := append([]row(nil), b.rows...)
				for i := 0; i < len(rows); i += 10 {
					rows[i].label += " !"
				}
				return rows
			},
		},
		{
			name:    "swap rows",
			prepare: ensure,
			next: func(b *bench) []row {
				rows := append([]row(nil), b.rows...)
				if len(rows) > 2 {
					rows[1], rows[len(rows)-2] = rows[len(rows)-2], rows[1]
				}
				return rows
			},
		},
		{
			name:    "reverse",
			prepare: ensure,
			next: func(b *bench) []row {
				rows := make([]row, len(b.rows))
				for i, r := range b.rows {
					rows[len(rows)-1-i] = r
				}
				return rows
			},
		},
		{
			name:    "shuffle",
			prepare: ensure,
			next: func(b *bench) []row {
				rows := append([]row(nil), b.rows...)
				b.rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
				return rows
			},
		},
		{
			name:    "remove middle row",
			prepare: ensure,
			next: func(b *bench) []row {
				mid := len(b.rows) / 2
				rows := append([]row(nil), b.rows[:mid]...)
				return append(rows, b.rows[mid+1:]...)
			},
		},
		{
			name:    "append 10%",
			prepare: ensure,
			next: func(b *bench) []row {
				return append(append([]row(nil), b.rows...), b.makeRows(max(n/10, 1))...)
			},
		},
		{
			name:    "clear rows",
			prepare: ensure,
			next:    func(b *bench) []row { return nil },
		},
	}
}

type benchResult struct {
	name   string
	calc   *tachymeter.Metrics
	ops    int
	bytes  int
	allocs uint64
}

func runScenario(opts benchOptions, s benchScenario) benchResult {
	b := newBench(opts)
	tach := tachymeter.New(&tachymeter.Config{Size: opts.iterations})

	var ops, bytes int
	var allocs uint64
	var ms runtime.MemStats
	for i := 0; i < opts.iterations; i++ {
		s.prepare(b)
		next := s.next(b)

		b.ops, b.bytes = 0, 0
		runtime.ReadMemStats(&ms)
		before := ms.TotalAlloc
		tach.AddTime(b.render(next))
		runtime.ReadMemStats(&ms)

		allocs += ms.TotalAlloc - before
		ops += b.ops
		bytes += b.bytes
	}
	return benchResult{
		name:   s.name,
		calc:   tach.Calc(),
		ops:    ops / opts.iterations,
		bytes:  bytes / opts.iterations,
		allocs: allocs / uint64(opts.iterations),
	}
}

func runBench(w io.Writer, opts benchOptions) error {
	if opts.iterations <= 0 || opts.items <= 0 {
		return fmt.Errorf("items and iterations must be positive")
	}

	hostName := "mem"
	if opts.wire {
		hostName = "wire"
	}
	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("Keyed table · %s rows · %s iterations · %s host",
		humanize.Comma(int64(opts.items)), humanize.Comma(int64(opts.iterations)), hostName))
	tbl.SetOutputMirror(w)
	header := table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "ops/update", "alloc/update"}
	if opts.wire {
		header = append(header, "bytes/update")
	}
	tbl.AppendHeader(header)

	for _, s := range benchScenarios(opts.items) {
		res := runScenario(opts, s)
		r := table.Row{
			res.name,
			res.calc.Time.Avg,
			res.calc.Time.Min,
			res.calc.Time.P75,
			res.calc.Time.P99,
			res.calc.Time.Max,
			humanize.Comma(int64(res.ops)),
			humanize.Bytes(res.allocs),
		}
		if opts.wire {
			r = append(r, humanize.Bytes(uint64(res.bytes)))
		}
		tbl.AppendRow(r)
	}

	tbl.Render()
	return nil
}
