package host

// Op names one adapter primitive.
type Op string

const (
	OpCreateElement  Op = "create_element"
	OpCreateText     Op = "create_text"
	OpCreateComment  Op = "create_comment"
	OpSetElementText Op = "set_element_text"
	OpSetText        Op = "set_text"
	OpInsert         Op = "insert"
	OpRemove         Op = "remove"
	OpPatchProp      Op = "patch_prop"
)

// Ops lists every primitive in declaration order.
var Ops = []Op{
	OpCreateElement, OpCreateText, OpCreateComment, OpSetElementText,
	OpSetText, OpInsert, OpRemove, OpPatchProp,
}

// Counter receives one call per adapter primitive.
type Counter interface {
	CountOp(op Op)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(op Op)

// CountOp implements Counter.
func (f CounterFunc) CountOp(op Op) { f(op) }

// Instrument wraps a so that every primitive is reported to c before it is
// forwarded. The wrapper implements Resolver and Navigator; both report
// failure when a does not implement them.
func Instrument(a Adapter, c Counter) Adapter {
	if c == nil {
		return a
	}
	return &instrumented{next: a, c: c}
}

type instrumented struct {
	next Adapter
	c    Counter
}

func (i *instrumented) CreateElement(tag string) Handle {
	i.c.CountOp(OpCreateElement)
	return i.next.CreateElement(tag)
}

func (i *instrumented) CreateText(text string) Handle {
	i.c.CountOp(OpCreateText)
	return i.next.CreateText(text)
}

func (i *instrumented) CreateComment(text string) Handle {
	i.c.CountOp(OpCreateComment)
	return i.next.CreateComment(text)
}

func (i *instrumented) SetElementText(el Handle, text string) {
	i.c.CountOp(OpSetElementText)
	i.next.SetElementText(el, text)
}

func (i *instrumented) SetText(node Handle, text string) {
	i.c.CountOp(OpSetText)
	i.next.SetText(node, text)
}

func (i *instrumented) Insert(node, parent, anchor Handle) {
	i.c.CountOp(OpInsert)
	i.next.Insert(node, parent, anchor)
}

func (i *instrumented) Remove(node Handle) {
	i.c.CountOp(OpRemove)
	i.next.Remove(node)
}

func (i *instrumented) PatchProp(el Handle, key string, prev, next any) {
	i.c.CountOp(OpPatchProp)
	i.next.PatchProp(el, key, prev, next)
}

func (i *instrumented) Resolve(target any) (Handle, bool) {
	if r, ok := i.next.(Resolver); ok {
		return r.Resolve(target)
	}
	return nil, false
}

func (i *instrumented) NextSibling(node Handle) (Handle, bool) {
	if n, ok := i.next.(Navigator); ok {
		return n.NextSibling(node)
	}
	return nil, false
}
