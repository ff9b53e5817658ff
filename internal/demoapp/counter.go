package demoapp

import (
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

// Counter renders a number with decrement and increment buttons. The "step"
// prop sets the increment (default 1); "start" sets the initial value.
var Counter = &renderer.Component{
	Name: "Counter",
	Setup: func(ctx *renderer.Context) renderer.SetupResult {
		start, _ := ctx.Props.Peek("start").(int)
		count := reactive.NewRef(ctx.Runtime, start)
		step := func() int {
			if s, ok := ctx.Props.Get("step").(int); ok && s != 0 {
				return s
			}
			return 1
		}
		return renderer.SetupResult{
			Render: func(ctx *renderer.Context) *vnode.Node {
				return vnode.El("div", vnode.Class("counter"),
					vnode.El("button", vnode.Class("dec"), vnode.OnClick(func() { count.Update(func(n int) int { return n - step() }) }), "-"),
					vnode.El("span", vnode.Class("value"), vnode.Textf("%d", count.Value())),
					vnode.El("button", vnode.Class("inc"), vnode.OnClick(func() { count.Update(func(n int) int { return n + step() }) }), "+"),
				)
			},
		}
	},
}
