package wirehost

import (
	"errors"
	"testing"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/protocol"
)

func buildList(h *Host) (ul, first host.Handle) {
	ul = h.CreateElement("ul")
	h.PatchProp(ul, "class", nil, "todos")
	for _, s := range []string{"a", "b", "c"} {
		li := h.CreateElement("li")
		h.SetElementText(li, s)
		h.Insert(li, ul, nil)
		if first == nil {
			first = li
		}
	}
	h.Insert(ul, h.Root(), nil)
	return ul, first
}

func mirrorAll(t *testing.T, m *Mirror, frames []*protocol.Frame) {
	t.Helper()
	for _, f := range frames {
		if err := m.Apply(f); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
}

func TestMirrorReproducesTree(t *testing.T) {
	h := New()
	ul, first := buildList(h)

	mh := memhost.New()
	m := NewMirror(mh, mh.Root("app"))
	mirrorAll(t, m, h.TakeFrames())

	want := `<ul class="todos"><li>a</li><li>b</li><li>c</li></ul>`
	if got := m.Root().String(); got != want {
		t.Fatalf("mirror = %q, want %q", got, want)
	}
	if h.Tree().String() != want {
		t.Errorf("shadow = %q", h.Tree().String())
	}

	// Move the first item to the end, drop the class, and edit text.
	h.Insert(first, ul, nil)
	h.PatchProp(ul, "class", "todos", nil)
	h.SetElementText(first, "z")
	frames := h.TakeFrames()
	if len(frames) != 1 || !frames[0].Flags.Has(protocol.FlagFinal) {
		t.Fatalf("expected one final frame, got %d", len(frames))
	}
	mirrorAll(t, m, frames)
	if got := m.Root().String(); got != `<ul><li>b</li><li>c</li><li>z</li></ul>` {
		t.Errorf("after update mirror = %q", got)
	}
	if m.Seq() != 2 || h.Seq() != 2 {
		t.Errorf("seq: mirror %d host %d", m.Seq(), h.Seq())
	}
	if h.TakeFrames() != nil {
		t.Error("no ops should yield no frames")
	}
}

func TestEventsRoundTrip(t *testing.T) {
	h := New()
	btn := h.CreateElement("button")
	clicks := 0
	h.PatchProp(btn, "onclick", nil, host.Handler(func(ev host.Event) {
		clicks++
		if ev.Data["x"] != "1" {
			t.Errorf("event data %v", ev.Data)
		}
	}))
	h.Insert(btn, h.Root(), nil)

	// Replacing the handler must not announce it again.
	h.PatchProp(btn, "onclick", host.Handler(func(host.Event) {}), host.Handler(func(host.Event) { clicks += 10 }))
	handlers := 0
	for _, f := range h.TakeFrames() {
		pf, err := protocol.DecodePatches(f.Payload)
		if err != nil {
			t.Fatal(err)
		}
		for _, op := range pf.Ops {
			if op.Code == protocol.OpSetHandler {
				handlers++
			}
		}
	}
	if handlers != 1 {
		t.Errorf("expected 1 SetHandler op, got %d", handlers)
	}

	h.PatchProp(btn, "onclick", nil, host.Handler(func(host.Event) { clicks++ }))
	h.TakeFrames()

	mh := memhost.New()
	m := NewMirror(mh, mh.Root("app"))
	var sent []protocol.Event
	m.OnEvent = func(ev protocol.Event) { sent = append(sent, ev) }

	h2 := New()
	b2 := h2.CreateElement("button")
	h2.PatchProp(b2, "onclick", nil, host.Handler(func(host.Event) { clicks++ }))
	h2.Insert(b2, h2.Root(), nil)
	mirrorAll(t, m, h2.TakeFrames())

	mb := m.Root().Find(memhost.ByTag("button"))
	if !mh.Dispatch(mb, host.Event{Type: "click", Data: map[string]any{"x": 1}}) {
		t.Fatal("mirror node has no click handler")
	}
	if len(sent) != 1 {
		t.Fatalf("expected 1 forwarded event, got %d", len(sent))
	}
	if err := h2.Dispatch(&sent[0]); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if clicks != 1 {
		t.Errorf("expected 1 click, got %d", clicks)
	}
}

func TestDispatchErrors(t *testing.T) {
	h := New()
	div := h.CreateElement("div")
	h.Insert(div, h.Root(), nil)
	id := uint32(div.(*memhost.Node).ID)

	var em *protocol.ErrorMessage
	err := h.Dispatch(&protocol.Event{Node: id, Type: "click"})
	if !errors.As(err, &em) || em.Code != protocol.ErrHandlerNotFound {
		t.Errorf("missing handler: got %v", err)
	}

	h.Remove(div)
	if err := h.Dispatch(&protocol.Event{Node: id, Type: "click"}); err == nil {
		t.Error("removed node should not receive events")
	}
}

func TestMirrorRejectsUnknownNode(t *testing.T) {
	mh := memhost.New()
	m := NewMirror(mh, mh.Root("app"))
	err := m.ApplyOps([]protocol.Op{{Code: protocol.OpSetText, Node: 99, Text: "x"}})
	if err == nil {
		t.Error("expected error for unknown node")
	}
	if err := m.Apply(protocol.NewFrame(protocol.FrameEvent, nil)); !errors.Is(err, protocol.ErrInvalidFrameType) {
		t.Errorf("event frame: got %v", err)
	}
}
