package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/demoapp"
	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/scheduler"
)

func demoCmd() *cobra.Command {
	var appName string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted session against the in-memory host",
		Long: `Mount a demo app into the in-memory host, drive it with a fixed
sequence of events and print the tree and host operations after each step.

Examples:
  kinetic demo
  kinetic demo --app counter`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), appName)
		},
	}

	cmd.Flags().StringVarP(&appName, "app", "a", "todos", "App to run: counter or todos")

	return cmd
}

type demo struct {
	loop *loop.Loop
	host *memhost.Host
	root *memhost.Node
	app  *renderer.App
}

type demoStep struct {
	name string
	run  func(d *demo) error
}

var demoScripts = map[string][]demoStep{
	"counter": {
		{"increment", func(d *demo) error { return d.click(memhost.ByProp("class", "inc")) }},
		{"increment", func(d *demo) error { return d.click(memhost.ByProp("class", "inc")) }},
		{"decrement", func(d *demo) error { return d.click(memhost.ByProp("class", "dec")) }},
	},
	"todos": {
		{"type draft", func(d *demo) error { return d.input(memhost.ByTag("input"), "profile it") }},
		{"add todo", func(d *demo) error { return d.click(byText("button", "add")) }},
		{"toggle second", func(d *demo) error { return d.click(byText("span", "write tests")) }},
		{"show done", func(d *demo) error { return d.click(byText("button", demoapp.FilterDone)) }},
		{"show all", func(d *demo) error { return d.click(byText("button", demoapp.FilterAll)) }},
		{"reverse", func(d *demo) error {
			state := d.app.Instance().Context().State
			n := len(state.Peek("todos").([]*demoapp.Todo))
			perm := make([]int, n)
			for i := range perm {
				perm[i] = n - 1 - i
			}
			d.loop.Do(func() { demoapp.Shuffle(state, perm) })
			return nil
		}},
		{"clear done", func(d *demo) error { return d.click(byText("button", "clear")) }},
	},
}

func runDemo(w io.Writer, appName string) error {
	spec, err := lookupApp(appName)
	if err != nil {
		return err
	}
	steps := demoScripts[appName]

	l := loop.New()
	rt := reactive.New(scheduler.New(l))
	h := memhost.New()
	d := &demo{loop: l, host: h, root: h.Root("app")}
	d.app = renderer.New(h, rt).CreateApp(spec.root, spec.props)

	summary := table.NewWriter()
	summary.SetTitle("Host operations")
	summary.SetOutputMirror(w)
	summary.AppendHeader(table.Row{"step", "create", "insert", "move", "remove", "text", "props"})

	step := func(name string, run func() error) error {
		h.Reset()
		if err := run(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(w, "\n▸ %s\n%s\n", name, renderTree(d.root, nil))
		summary.AppendRow(opRow(name, h.Log()))
		return nil
	}

	err = step("mount", func() error {
		var ok bool
		l.Do(func() { ok = d.app.Mount(d.root) })
		if !ok {
			return fmt.Errorf("mount failed")
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, s := range steps {
		if err := step(s.name, func() error { return s.run(d) }); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	summary.Render()
	if w == os.Stdout {
		success("demo finished")
	}
	return nil
}

func opRow(name string, log []memhost.Entry) table.Row {
	var create, insert, move, remove, text, props int
	for _, e := range log {
		switch e.Op {
		case host.OpCreateElement, host.OpCreateText, host.OpCreateComment:
			create++
		case host.OpInsert:
			if e.Move {
				move++
			} else {
				insert++
			}
		case host.OpRemove:
			remove++
		case host.OpSetText, host.OpSetElementText:
			text++
		case host.OpPatchProp:
			props++
		}
	}
	return table.Row{name, create, insert, move, remove, text, props}
}

func (d *demo) click(match func(*memhost.Node) bool) error {
	return d.fire(match, host.Event{Type: "click"})
}

func (d *demo) input(match func(*memhost.Node) bool, value string) error {
	return d.fire(match, host.Event{Type: "input", Value: value})
}

func (d *demo) fire(match func(*memhost.Node) bool, ev host.Event) error {
	n := d.root.Find(match)
	if n == nil {
		return fmt.Errorf("no target for %s event", ev.Type)
	}
	var handled bool
	d.loop.Do(func() { handled = d.host.Dispatch(n, ev) })
	if !handled {
		return fmt.Errorf("<%s> has no %s handler", n.Tag, ev.Type)
	}
	return nil
}

func byText(tag, text string) func(*memhost.Node) bool {
	return func(n *memhost.Node) bool {
		return n.Type == memhost.TypeElement && n.Tag == tag && n.TextContent() == text
	}
}
