package demoapp

import (
	"strings"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

// Todo is one entry of the todo list. Entries are wrapped individually, so
// toggling one re-renders only its row and the footer.
type Todo struct {
	ID    int
	Title string
	Done  bool
}

// Filters accepted by the todo list.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterDone   = "done"
)

// Todos is a keyed todo list. The "items" prop seeds it with titles.
var Todos = &renderer.Component{
	Name: "Todos",
	Setup: func(ctx *renderer.Context) renderer.SetupResult {
		remaining := reactive.NewComputed(ctx.Runtime, func() int {
			n := 0
			for _, t := range ctx.State.Get("todos").([]*Todo) {
				if !reactive.Get[bool](ctx.Runtime.Wrap(t), "Done") {
					n++
				}
			}
			return n
		})
		return renderer.SetupResult{State: map[string]any{"remaining": remaining}}
	},
	Data: func() map[string]any {
		return map[string]any{
			"todos":  []*Todo{},
			"draft":  "",
			"filter": FilterAll,
			"nextID": 1,
		}
	},
	Created: func(ctx *renderer.Context) {
		seed, _ := ctx.Props.Peek("items").([]string)
		for _, title := range seed {
			AddTodo(ctx.State, title)
		}
	},
	Render: renderTodos,
}

func renderTodos(ctx *renderer.Context) *vnode.Node {
	state := ctx.State
	filter := state.Get("filter").(string)
	remaining := ctx.Get("remaining").(*reactive.Computed[int])

	var visible []*Todo
	for _, t := range state.Get("todos").([]*Todo) {
		done := reactive.Get[bool](ctx.Runtime.Wrap(t), "Done")
		if filter == FilterAll || (filter == FilterDone) == done {
			visible = append(visible, t)
		}
	}

	return vnode.El("section", vnode.Class("todoapp"),
		vnode.El("h1", "todos"),
		vnode.El("div", vnode.Class("new-todo"),
			vnode.El("input",
				vnode.Prop("value", state.Get("draft")),
				vnode.On("input", func(ev host.Event) { state.Set("draft", ev.Value) })),
			vnode.El("button", vnode.Class("add"), vnode.OnClick(func() {
				if AddTodo(state, state.Peek("draft").(string)) {
					state.Set("draft", "")
				}
			}), "add"),
		),
		vnode.El("ul", vnode.Class("todo-list"), vnode.Range(visible, func(t *Todo, _ int) *vnode.Node {
			return vnode.Comp(todoItem, vnode.Key(t.ID), vnode.Prop("todo", t), vnode.Prop("list", state))
		})),
		vnode.El("footer",
			vnode.El("span", vnode.Class("count"), vnode.Textf("%d left", remaining.Value())),
			filterButton(state, FilterAll, filter),
			filterButton(state, FilterActive, filter),
			filterButton(state, FilterDone, filter),
			vnode.El("button", vnode.Class("clear"), vnode.OnClick(func() { ClearDone(state) }), "clear"),
		),
	)
}

func filterButton(state *reactive.Proxy, name, current string) *vnode.Node {
	class := "filter"
	if name == current {
		class += " selected"
	}
	return vnode.El("button", vnode.Class(class), vnode.OnClick(func() { state.Set("filter", name) }), name)
}

var todoItem = &renderer.Component{
	Name: "TodoItem",
	Render: func(ctx *renderer.Context) *vnode.Node {
		t := ctx.Runtime.Wrap(ctx.Get("todo"))
		list := ctx.Get("list").(*reactive.Proxy)
		class := "todo"
		if reactive.Get[bool](t, "Done") {
			class += " done"
		}
		return vnode.El("li", vnode.Class(class),
			vnode.El("span", vnode.Class("title"),
				vnode.OnClick(func() { t.Set("Done", !t.Peek("Done").(bool)) }),
				reactive.Get[string](t, "Title")),
			vnode.El("button", vnode.Class("remove"), vnode.OnClick(func() {
				RemoveTodo(list, t.Peek("ID").(int))
			}), "x"),
		)
	},
}

// AddTodo appends a todo to the list state and reports whether title was
// non-blank.
func AddTodo(state *reactive.Proxy, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	id := state.Peek("nextID").(int)
	todos := state.Peek("todos").([]*Todo)
	next := make([]*Todo, len(todos), len(todos)+1)
	copy(next, todos)
	state.Set("todos", append(next, &Todo{ID: id, Title: title}))
	state.Set("nextID", id+1)
	return true
}

// RemoveTodo deletes the todo with the given id.
func RemoveTodo(state *reactive.Proxy, id int) {
	todos := state.Peek("todos").([]*Todo)
	next := make([]*Todo, 0, len(todos))
	for _, t := range todos {
		if t.ID != id {
			next = append(next, t)
		}
	}
	state.Set("todos", next)
}

// ClearDone deletes every finished todo.
func ClearDone(state *reactive.Proxy) {
	todos := state.Peek("todos").([]*Todo)
	next := make([]*Todo, 0, len(todos))
	for _, t := range todos {
		if !t.Done {
			next = append(next, t)
		}
	}
	state.Set("todos", next)
}

// Shuffle reorders the list by applying perm, a permutation of indexes.
func Shuffle(state *reactive.Proxy, perm []int) {
	todos := state.Peek("todos").([]*Todo)
	next := make([]*Todo, len(todos))
	for i, j := range perm {
		next[i] = todos[j]
	}
	state.Set("todos", next)
}
