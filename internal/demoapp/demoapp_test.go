package demoapp

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

type fixture struct {
	loop *loop.Loop
	host *memhost.Host
	root *memhost.Node
	app  *renderer.App
}

func mount(t *testing.T, c *renderer.Component, props vnode.Props) *fixture {
	t.Helper()
	l := loop.New()
	rt := reactive.New(scheduler.New(l))
	h := memhost.New()
	f := &fixture{loop: l, host: h, root: h.Root("app")}
	f.app = renderer.New(h, rt).CreateApp(c, props)
	l.Do(func() {
		if !f.app.Mount(f.root) {
			t.Fatal("mount failed")
		}
	})
	return f
}

func (f *fixture) byClass(class string) *memhost.Node {
	return f.root.Find(memhost.ByProp("class", class))
}

func (f *fixture) fire(t *testing.T, n *memhost.Node, ev host.Event) {
	t.Helper()
	if n == nil {
		t.Fatal("event target not found")
	}
	f.loop.Do(func() {
		if !f.host.Dispatch(n, ev) {
			t.Errorf("no %s handler on <%s>", ev.Type, n.Tag)
		}
	})
}

func (f *fixture) click(t *testing.T, n *memhost.Node) {
	t.Helper()
	f.fire(t, n, host.Event{Type: "click"})
}

func (f *fixture) titles() []string {
	var out []string
	for _, n := range f.root.FindAll(memhost.ByProp("class", "title")) {
		out = append(out, n.TextContent())
	}
	return out
}

func TestCounter(t *testing.T) {
	f := mount(t, Counter, vnode.Props{"start": 10, "step": 5})
	value := f.byClass("value")
	if value.TextContent() != "10" {
		t.Fatalf("initial value = %q", value.TextContent())
	}

	f.click(t, f.byClass("inc"))
	f.click(t, f.byClass("inc"))
	f.click(t, f.byClass("dec"))
	if got := value.TextContent(); got != "15" {
		t.Errorf("value = %q, want 15", got)
	}
	if f.byClass("value") != value {
		t.Error("value span should be patched in place")
	}
}

func TestTodosAddToggleRemove(t *testing.T) {
	f := mount(t, Todos, vnode.Props{"items": []string{"write code", "test it"}})
	if diff := cmp.Diff([]string{"write code", "test it"}, f.titles()); diff != "" {
		t.Fatalf("seeded titles (-want +got):\n%s", diff)
	}
	if got := f.byClass("count").TextContent(); got != "2 left" {
		t.Errorf("count = %q", got)
	}

	f.fire(t, f.root.Find(memhost.ByTag("input")), host.Event{Type: "input", Value: "  ship  "})
	f.click(t, f.byClass("add"))
	if diff := cmp.Diff([]string{"write code", "test it", "ship"}, f.titles()); diff != "" {
		t.Errorf("after add (-want +got):\n%s", diff)
	}
	if v := f.root.Find(memhost.ByTag("input")).Props["value"]; v != "" {
		t.Errorf("draft should be cleared, got %v", v)
	}

	// Blank drafts are ignored.
	f.click(t, f.byClass("add"))
	if len(f.titles()) != 3 {
		t.Errorf("blank draft added an item: %v", f.titles())
	}

	first := f.root.Find(memhost.ByTag("li"))
	f.click(t, first.Find(memhost.ByProp("class", "title")))
	if first.Props["class"] != "todo done" {
		t.Errorf("toggled class = %v", first.Props["class"])
	}
	if got := f.byClass("count").TextContent(); got != "2 left" {
		t.Errorf("count = %q, want 2 left", got)
	}

	f.click(t, first.Find(memhost.ByProp("class", "remove")))
	if diff := cmp.Diff([]string{"test it", "ship"}, f.titles()); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}
}

func TestTodosFilterAndClear(t *testing.T) {
	f := mount(t, Todos, vnode.Props{"items": []string{"a", "b", "c"}})
	items := f.root.FindAll(memhost.ByProp("class", "title"))
	f.click(t, items[1])

	filter := func(name string) *memhost.Node {
		for _, n := range f.root.FindAll(memhost.ByTag("button")) {
			if n.TextContent() == name {
				return n
			}
		}
		return nil
	}

	f.click(t, filter(FilterDone))
	if diff := cmp.Diff([]string{"b"}, f.titles()); diff != "" {
		t.Errorf("done filter (-want +got):\n%s", diff)
	}
	if filter(FilterDone).Props["class"] != "filter selected" {
		t.Error("active filter should be marked selected")
	}

	f.click(t, filter(FilterActive))
	if diff := cmp.Diff([]string{"a", "c"}, f.titles()); diff != "" {
		t.Errorf("active filter (-want +got):\n%s", diff)
	}

	f.click(t, filter(FilterAll))
	f.click(t, f.byClass("clear"))
	if diff := cmp.Diff([]string{"a", "c"}, f.titles()); diff != "" {
		t.Errorf("after clear (-want +got):\n%s", diff)
	}
}

func TestTodosShuffleMovesRows(t *testing.T) {
	f := mount(t, Todos, vnode.Props{"items": []string{"a", "b", "c", "d"}})
	rows := f.root.FindAll(memhost.ByTag("li"))
	state := f.app.Instance().Context().State

	f.host.Reset()
	f.loop.Do(func() { Shuffle(state, []int{3, 0, 1, 2}) })

	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, f.titles()); diff != "" {
		t.Errorf("after shuffle (-want +got):\n%s", diff)
	}
	after := f.root.FindAll(memhost.ByTag("li"))
	if after[0] != rows[3] || after[1] != rows[0] {
		t.Error("rows should be moved, not recreated")
	}
	if n := f.host.Count(host.OpCreateElement); n != 0 {
		t.Errorf("shuffle created %d elements", n)
	}
	if n := f.host.Count(host.OpInsert); n != 1 {
		t.Errorf("shuffle should be a single move, got %d inserts", n)
	}
}
