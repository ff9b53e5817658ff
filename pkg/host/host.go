package host

// Handle is an adapter-owned reference to a realized host node.
type Handle = any

// Adapter is the complete platform surface used by the renderer.
type Adapter interface {
	CreateElement(tag string) Handle
	CreateText(text string) Handle
	CreateComment(text string) Handle
	SetElementText(el Handle, text string)
	SetText(node Handle, text string)
	// Insert places node in parent before anchor, or last when anchor is nil.
	// Inserting a node that is already attached moves it.
	Insert(node, parent, anchor Handle)
	Remove(node Handle)
	// PatchProp applies a property change. next is nil when the prop was
	// removed.
	PatchProp(el Handle, key string, prev, next any)
}

// Resolver is implemented by adapters that can look up a container from a
// selector or name.
type Resolver interface {
	Resolve(target any) (Handle, bool)
}

// Navigator is implemented by adapters that can report where a node sits.
// NextSibling returns the node following node in its parent, nil when node
// is the last child; ok is false when node is not attached.
type Navigator interface {
	NextSibling(node Handle) (next Handle, ok bool)
}

// Event is delivered to handlers registered through "on" props.
type Event struct {
	Type  string
	Value string
	Data  map[string]any
}

// Handler is the prop value type hosts recognize as an event listener.
type Handler func(Event)

// IsEventProp reports whether key names an event handler prop ("onclick").
func IsEventProp(key string) bool {
	return len(key) > 2 && key[0] == 'o' && key[1] == 'n'
}

// EventName returns the event type for an event prop key.
func EventName(key string) string {
	if !IsEventProp(key) {
		return ""
	}
	return key[2:]
}

// AsHandler converts a prop value into a Handler. Plain func() values are
// accepted too.
func AsHandler(v any) (Handler, bool) {
	switch h := v.(type) {
	case Handler:
		return h, h != nil
	case func(Event):
		return h, h != nil
	case func():
		if h == nil {
			return nil, false
		}
		return func(Event) { h() }, true
	}
	return nil, false
}
