package memhost

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/kinetic/pkg/host"
)

func TestInsertAndMove(t *testing.T) {
	h := New()
	root := h.Root("app")
	a := h.CreateElement("a").(*Node)
	b := h.CreateElement("b").(*Node)
	c := h.CreateElement("c").(*Node)

	h.Insert(a, root, nil)
	h.Insert(c, root, nil)
	h.Insert(b, root, c)
	if got := root.String(); got != "<a></a><b></b><c></c>" {
		t.Fatalf("unexpected tree %q", got)
	}

	h.Reset()
	h.Insert(c, root, a)
	if got := root.String(); got != "<c></c><a></a><b></b>" {
		t.Errorf("unexpected tree after move %q", got)
	}
	want := []Entry{{Op: host.OpInsert, Node: c.ID, Parent: root.ID, Anchor: a.ID, Move: true}}
	if diff := cmp.Diff(want, h.Log()); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
	if h.Moves() != 1 {
		t.Errorf("expected 1 move, got %d", h.Moves())
	}
}

func TestNextSibling(t *testing.T) {
	h := New()
	root := h.Root("app")
	a := h.CreateElement("a")
	b := h.CreateElement("b")
	h.Insert(a, root, nil)
	h.Insert(b, root, nil)

	if next, ok := h.NextSibling(a); !ok || next != b {
		t.Errorf("NextSibling(a) = %v, %v; want b", next, ok)
	}
	if next, ok := h.NextSibling(b); !ok || next != nil {
		t.Errorf("NextSibling(b) = %v, %v; want nil, true", next, ok)
	}
	if _, ok := h.NextSibling(h.CreateText("loose")); ok {
		t.Error("detached node should report ok=false")
	}
}

func TestInsertForeignAnchorPanics(t *testing.T) {
	h := New()
	root := h.Root("app")
	other := h.CreateElement("div")
	defer func() {
		if recover() == nil {
			t.Error("expected panic for anchor outside parent")
		}
	}()
	h.Insert(h.CreateText("x"), root, other)
}

func TestRemoveAndText(t *testing.T) {
	h := New()
	root := h.Root("app")
	p := h.CreateElement("p")
	h.Insert(p, root, nil)
	h.SetElementText(p, "hello")
	if root.TextContent() != "hello" {
		t.Errorf("text content %q", root.TextContent())
	}
	h.SetElementText(p, "")
	if len(p.(*Node).Children) != 0 {
		t.Error("empty text should clear children")
	}

	txt := h.CreateText("a")
	h.Insert(txt, p, nil)
	h.SetText(txt, "b")
	if root.String() != "<p>b</p>" {
		t.Errorf("unexpected %q", root.String())
	}
	h.Remove(p)
	h.Remove(p)
	if len(root.Children) != 0 || h.Count(host.OpRemove) != 2 {
		t.Errorf("remove: %d children, %d removes", len(root.Children), h.Count(host.OpRemove))
	}
}

func TestPatchPropAndDispatch(t *testing.T) {
	h := New()
	btn := h.CreateElement("button").(*Node)
	h.PatchProp(btn, "class", nil, "primary")
	h.PatchProp(btn, "title", nil, "go")
	h.PatchProp(btn, "title", "go", nil)

	clicks := 0
	h.PatchProp(btn, "onclick", nil, host.Handler(func(host.Event) { clicks++ }))
	if btn.String() != `<button class="primary"></button>` {
		t.Errorf("unexpected markup %q", btn.String())
	}
	if !h.Dispatch(btn, host.Event{Type: "click"}) || clicks != 1 {
		t.Error("click handler not dispatched")
	}
	h.PatchProp(btn, "onclick", nil, nil)
	if h.Dispatch(btn, host.Event{Type: "click"}) {
		t.Error("removed handler still dispatched")
	}
}

func TestResolveAndFind(t *testing.T) {
	h := New()
	root := h.Root("app")
	if r, ok := h.Resolve("#app"); !ok || r != root {
		t.Error("#app should resolve to the root")
	}
	if _, ok := h.Resolve("#missing"); ok {
		t.Error("unknown root resolved")
	}
	if _, ok := h.Resolve(42); ok {
		t.Error("int resolved")
	}

	ul := h.CreateElement("ul")
	h.Insert(ul, root, nil)
	for _, id := range []string{"x", "y"} {
		li := h.CreateElement("li")
		h.PatchProp(li, "id", nil, id)
		h.Insert(li, ul, nil)
	}
	if n := root.Find(ByProp("id", "y")); n == nil || n.Tag != "li" {
		t.Error("Find by prop failed")
	}
	if n := len(root.FindAll(ByTag("li"))); n != 2 {
		t.Errorf("expected 2 li, got %d", n)
	}
	c := h.CreateComment("gap")
	h.Insert(c, root, nil)
	if root.String() != `<ul><li id="x"></li><li id="y"></li></ul><!--gap-->` {
		t.Errorf("unexpected markup %q", root.String())
	}
}
