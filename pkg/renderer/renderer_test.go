package renderer

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

type fixture struct {
	loop *loop.Loop
	rt   *reactive.Runtime
	host *memhost.Host
	root *memhost.Node
	r    *Renderer
}

func newFixture(opts ...Option) *fixture {
	l := loop.New()
	rt := reactive.New(scheduler.New(l))
	h := memhost.New()
	return &fixture{
		loop: l,
		rt:   rt,
		host: h,
		root: h.Root("app"),
		r:    New(h, rt, opts...),
	}
}

func keyedList(keys ...string) *vnode.Node {
	kids := make([]*vnode.Node, len(keys))
	for i, k := range keys {
		kids[i] = vnode.El("li", vnode.Key(k), k)
	}
	return vnode.El("ul", kids)
}

func itemByText(root *memhost.Node, text string) *memhost.Node {
	return root.Find(func(n *memhost.Node) bool {
		return n.Type == memhost.TypeElement && n.Tag == "li" && n.TextContent() == text
	})
}

func TestLIS(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"empty", nil, []int{}},
		{"all zero", []int{0, 0}, []int{}},
		{"sorted", []int{1, 2, 3}, []int{0, 1, 2}},
		{"reversed", []int{3, 2, 1}, []int{2}},
		{"move pass", []int{5, 3, 4, 0}, []int{1, 2}},
		{"zeros skipped", []int{0, 2, 0, 1, 3}, []int{3, 4}},
		{"replacement ties", []int{2, 1, 5, 3, 6, 4, 8, 9, 7}, []int{1, 3, 5, 6, 7}},
		{"leading value", []int{4, 0, 0, 1, 2, 3}, []int{3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, LIS(tt.in)); diff != "" {
				t.Errorf("LIS(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestKeyedDiffMinimalMoves(t *testing.T) {
	f := newFixture()
	f.r.Render(keyedList("a", "b", "c", "d", "e", "f", "g"), f.root)

	before := map[string]*memhost.Node{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		before[k] = itemByText(f.root, k)
	}
	ul := f.root.Children[0]
	f.host.Reset()

	f.r.Render(keyedList("a", "b", "e", "c", "d", "h", "f", "g"), f.root)

	want := "<ul><li>a</li><li>b</li><li>e</li><li>c</li><li>d</li><li>h</li><li>f</li><li>g</li></ul>"
	if got := f.root.String(); got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	for k, n := range before {
		if itemByText(f.root, k) != n {
			t.Errorf("%s was recreated, want patched in place", k)
		}
	}

	h := itemByText(f.root, "h")
	wantLog := []memhost.Entry{
		{Op: host.OpCreateElement, Node: h.ID, Value: "li"},
		{Op: host.OpSetElementText, Node: h.ID, Value: "h"},
		{Op: host.OpInsert, Node: h.ID, Parent: ul.ID, Anchor: before["f"].ID},
		{Op: host.OpInsert, Node: before["e"].ID, Parent: ul.ID, Anchor: before["c"].ID, Move: true},
	}
	if diff := cmp.Diff(wantLog, f.host.Log()); diff != "" {
		t.Errorf("host ops mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyedDiffMountsAndUnmountsAtEnds(t *testing.T) {
	f := newFixture()
	f.r.Render(keyedList("b", "c"), f.root)

	f.host.Reset()
	f.r.Render(keyedList("a", "b", "c", "d"), f.root)
	if got := f.root.String(); got != "<ul><li>a</li><li>b</li><li>c</li><li>d</li></ul>" {
		t.Fatalf("tree after grow = %s", got)
	}
	if f.host.Count(host.OpCreateElement) != 2 || f.host.Moves() != 0 {
		t.Errorf("grow: %d creates, %d moves", f.host.Count(host.OpCreateElement), f.host.Moves())
	}

	f.host.Reset()
	f.r.Render(keyedList("b", "c"), f.root)
	if got := f.root.String(); got != "<ul><li>b</li><li>c</li></ul>" {
		t.Fatalf("tree after shrink = %s", got)
	}
	if f.host.Count(host.OpRemove) != 2 || f.host.Count(host.OpCreateElement) != 0 {
		t.Errorf("shrink: %d removes, %d creates", f.host.Count(host.OpRemove), f.host.Count(host.OpCreateElement))
	}
}

func TestKeyedDiffReverse(t *testing.T) {
	f := newFixture()
	f.r.Render(keyedList("a", "b", "c", "d"), f.root)
	f.host.Reset()

	f.r.Render(keyedList("d", "c", "b", "a"), f.root)
	if got := f.root.String(); got != "<ul><li>d</li><li>c</li><li>b</li><li>a</li></ul>" {
		t.Fatalf("tree = %s", got)
	}
	// One node stays put; every other one moves.
	if f.host.Moves() != 3 {
		t.Errorf("expected 3 moves, got %d", f.host.Moves())
	}
	if f.host.Count(host.OpCreateElement) != 0 {
		t.Error("reordering must not create nodes")
	}
}

func TestUnkeyedFirstFit(t *testing.T) {
	f := newFixture()
	f.r.Render(vnode.Fragment(vnode.El("div", "A"), vnode.El("span", "B")), f.root)
	div := f.root.Children[0]
	span := f.root.Children[1]
	f.host.Reset()

	f.r.Render(vnode.Fragment(vnode.El("span", "B2"), vnode.El("div", "A2")), f.root)
	if got := f.root.String(); got != "<span>B2</span><div>A2</div>" {
		t.Fatalf("tree = %s", got)
	}
	if f.root.Children[0] != span || f.root.Children[1] != div {
		t.Error("unkeyed siblings of matching tag should be reused")
	}
	if f.host.Moves() != 1 {
		t.Errorf("expected 1 move, got %d", f.host.Moves())
	}
}

func TestKeylessSiblingsAreSameNode(t *testing.T) {
	f := newFixture()
	f.r.Render(vnode.El("ul", vnode.El("li", "a"), vnode.El("li", "b")), f.root)
	f.host.Reset()

	f.r.Render(vnode.El("ul", vnode.El("li", "a"), vnode.El("li", "c"), vnode.El("li", "b")), f.root)
	if got := f.root.String(); got != "<ul><li>a</li><li>c</li><li>b</li></ul>" {
		t.Fatalf("tree = %s", got)
	}
	// "b" is patched into "c" and a new "b" is appended.
	if f.host.Count(host.OpCreateElement) != 1 || f.host.Count(host.OpSetElementText) != 2 {
		t.Errorf("unexpected ops: %+v", f.host.Log())
	}
}

func TestReplaceRemovesBeforeMount(t *testing.T) {
	f := newFixture()
	f.r.Render(vnode.El("div", "x"), f.root)
	f.host.Reset()

	f.r.Render(vnode.El("span", "y"), f.root)
	if got := f.root.String(); got != "<span>y</span>" {
		t.Fatalf("tree = %s", got)
	}
	log := f.host.Log()
	if len(log) == 0 || log[0].Op != host.OpRemove {
		t.Fatalf("expected remove first, got %+v", log)
	}
	if f.host.Count(host.OpRemove) != 1 || f.host.Count(host.OpCreateElement) != 1 {
		t.Errorf("unexpected ops: %+v", log)
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	f := newFixture()
	f.r.Render(vnode.Fragment(vnode.El("p", "1"), vnode.El("div", vnode.Key("k"), "2"), vnode.El("p", "3")), f.root)
	f.r.Render(vnode.Fragment(vnode.El("p", "1"), vnode.El("span", vnode.Key("k"), "2"), vnode.El("p", "3")), f.root)
	if got := f.root.String(); got != "<p>1</p><span>2</span><p>3</p>" {
		t.Errorf("tree = %s", got)
	}
}

func TestRenderNullUnmounts(t *testing.T) {
	f := newFixture()
	first := vnode.El("div", vnode.ID("a"), "one")
	f.r.Render(first, f.root)
	oldHandle := first.Handle

	f.r.Render(nil, f.root)
	if len(f.root.Children) != 0 {
		t.Fatalf("container not cleared: %s", f.root)
	}
	if f.r.Tree(f.root) != nil {
		t.Error("container tree should be forgotten")
	}
	if f.host.Count(host.OpRemove) != 1 {
		t.Errorf("expected 1 remove, got %d", f.host.Count(host.OpRemove))
	}

	f.host.Reset()
	second := vnode.El("div", vnode.ID("a"), "one")
	f.r.Render(second, f.root)
	if second.Handle == oldHandle {
		t.Error("render after null must mount fresh host nodes")
	}
	if f.host.Count(host.OpCreateElement) != 1 {
		t.Errorf("expected a fresh mount, got %+v", f.host.Log())
	}
	if got := f.root.String(); got != `<div id="a">one</div>` {
		t.Errorf("tree = %s", got)
	}
}

func TestSameNodeIsNoop(t *testing.T) {
	f := newFixture()
	n := vnode.El("div", "x")
	f.r.Render(n, f.root)
	f.host.Reset()
	f.r.Render(n, f.root)
	if len(f.host.Log()) != 0 {
		t.Errorf("patching a node with itself should do nothing: %+v", f.host.Log())
	}
}

func TestChildrenShapeTransitions(t *testing.T) {
	f := newFixture()
	steps := []struct {
		node *vnode.Node
		want string
	}{
		{vnode.El("div", "text"), "<div>text</div>"},
		{vnode.El("div", "other"), "<div>other</div>"},
		{vnode.El("div", vnode.El("b", "1"), vnode.El("i", "2")), "<div><b>1</b><i>2</i></div>"},
		{vnode.El("div", "back"), "<div>back</div>"},
		{vnode.El("div"), "<div></div>"},
		{vnode.El("div", vnode.El("b", "x")), "<div><b>x</b></div>"},
		{vnode.El("div"), "<div></div>"},
	}
	for i, s := range steps {
		f.r.Render(s.node, f.root)
		if got := f.root.String(); got != s.want {
			t.Fatalf("step %d: tree = %s, want %s", i, got, s.want)
		}
	}
}

func TestTextAndCommentReuseHandle(t *testing.T) {
	f := newFixture()
	f.r.Render(vnode.Fragment(vnode.Text("a"), vnode.Comment("c")), f.root)
	text, comment := f.root.Children[0], f.root.Children[1]
	f.host.Reset()

	f.r.Render(vnode.Fragment(vnode.Text("a"), vnode.Comment("c")), f.root)
	if len(f.host.Log()) != 0 {
		t.Errorf("unchanged payloads should not touch the host: %+v", f.host.Log())
	}

	f.r.Render(vnode.Fragment(vnode.Text("b"), vnode.Comment("d")), f.root)
	if f.root.Children[0] != text || f.root.Children[1] != comment {
		t.Error("text and comment nodes should be reused")
	}
	if got := f.root.String(); got != "b<!--d-->" {
		t.Errorf("tree = %s", got)
	}
	if f.host.Count(host.OpSetText) != 2 {
		t.Errorf("expected 2 set_text, got %d", f.host.Count(host.OpSetText))
	}
}

func TestPatchProps(t *testing.T) {
	f := newFixture()
	f.r.Render(vnode.El("div", vnode.ID("a"), vnode.Class("x")), f.root)
	div := f.root.Children[0]
	f.host.Reset()

	f.r.Render(vnode.El("div", vnode.ID("b"), vnode.Prop("title", "t")), f.root)
	want := []memhost.Entry{
		{Op: host.OpPatchProp, Node: div.ID, Key: "id", Value: "b"},
		{Op: host.OpPatchProp, Node: div.ID, Key: "title", Value: "t"},
		{Op: host.OpPatchProp, Node: div.ID, Key: "class", Value: nil},
	}
	if diff := cmp.Diff(want, f.host.Log()); diff != "" {
		t.Errorf("prop ops mismatch (-want +got):\n%s", diff)
	}
	if got := f.root.String(); got != `<div id="b" title="t"></div>` {
		t.Errorf("tree = %s", got)
	}
}

func TestHandlersArePatched(t *testing.T) {
	f := newFixture()
	calls := ""
	f.r.Render(vnode.El("button", vnode.OnClick(func() { calls += "1" })), f.root)
	f.r.Render(vnode.El("button", vnode.OnClick(func() { calls += "2" })), f.root)

	btn := f.root.Children[0]
	if !f.host.Dispatch(btn, host.Event{Type: "click"}) {
		t.Fatal("click handler missing")
	}
	if calls != "2" {
		t.Errorf("expected the latest handler to run, got %q", calls)
	}

	f.r.Render(vnode.El("button"), f.root)
	if f.host.Dispatch(btn, host.Event{Type: "click"}) {
		t.Error("handler should be removed")
	}
}

func TestNestedFragmentAnchors(t *testing.T) {
	f := newFixture()
	frag := func(keys ...string) *vnode.Node {
		kids := make([]any, 0, len(keys)+1)
		kids = append(kids, vnode.Key("mid"))
		for _, k := range keys {
			kids = append(kids, vnode.El("li", vnode.Key(k), k))
		}
		return vnode.Fragment(kids...)
	}
	tree := func(keys ...string) *vnode.Node {
		return vnode.El("ul",
			vnode.El("li", vnode.Key("first"), "first"),
			frag(keys...),
			vnode.El("li", vnode.Key("last"), "last"))
	}

	f.r.Render(tree("a"), f.root)
	f.r.Render(tree("a", "b"), f.root)
	f.r.Render(tree("b", "a", "c"), f.root)
	want := "<ul><li>first</li><li>b</li><li>a</li><li>c</li><li>last</li></ul>"
	if got := f.root.String(); got != want {
		t.Errorf("tree = %s, want %s", got, want)
	}

	// Moving the whole fragment moves all of its nodes.
	f.r.Render(vnode.El("ul",
		frag("b", "a", "c"),
		vnode.El("li", vnode.Key("first"), "first"),
		vnode.El("li", vnode.Key("last"), "last")), f.root)
	want = "<ul><li>b</li><li>a</li><li>c</li><li>first</li><li>last</li></ul>"
	if got := f.root.String(); got != want {
		t.Errorf("tree after fragment move = %s, want %s", got, want)
	}
}

func TestNilChildrenBecomeComments(t *testing.T) {
	f := newFixture()
	n := &vnode.Node{Kind: vnode.KindElement, Tag: "div"}
	n.SetChildren([]*vnode.Node{nil, vnode.Text("x")})
	f.r.Render(n, f.root)
	if got := f.root.String(); got != "<div><!---->x</div>" {
		t.Errorf("tree = %s", got)
	}
}

func TestInstrumentedAdapter(t *testing.T) {
	l := loop.New()
	rt := reactive.New(scheduler.New(l))
	mh := memhost.New()
	counts := map[host.Op]int{}
	r := New(host.Instrument(mh, host.CounterFunc(func(op host.Op) { counts[op]++ })), rt)

	root := mh.Root("app")
	r.Render(keyedList("a", "b"), root)
	r.Render(keyedList("b", "a"), root)
	if got := root.String(); got != "<ul><li>b</li><li>a</li></ul>" {
		t.Fatalf("tree = %s", got)
	}
	if counts[host.OpCreateElement] != 3 || counts[host.OpInsert] != 4 {
		t.Errorf("counts = %v", counts)
	}
}

func TestKeyedDiffWarnsOnDuplicateKeys(t *testing.T) {
	var logs bytes.Buffer
	f := newFixture(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	f.r.Render(keyedList("a", "b", "c"), f.root)
	if logs.Len() != 0 {
		t.Fatalf("unexpected log output: %s", logs.String())
	}

	f.r.Render(keyedList("c", "x", "x", "a"), f.root)
	if !strings.Contains(logs.String(), "duplicate key in children") || !strings.Contains(logs.String(), "key=x") {
		t.Errorf("expected a duplicate key warning, got %q", logs.String())
	}
	if got := f.root.String(); got != "<ul><li>c</li><li>x</li><li>x</li><li>a</li></ul>" {
		t.Errorf("tree = %s", got)
	}

	// The repeated old key is dropped instead of left behind.
	f.r.Render(keyedList("a", "x"), f.root)
	if got := f.root.String(); got != "<ul><li>a</li><li>x</li></ul>" {
		t.Errorf("tree = %s", got)
	}
}
