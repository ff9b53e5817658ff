package renderer

import (
	"fmt"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

// App mounts a root component into a container.
type App struct {
	r         *Renderer
	root      *Component
	props     vnode.Props
	node      *vnode.Node
	container host.Handle
}

// CreateApp returns an App for root. props are passed to the root instance.
func (r *Renderer) CreateApp(root *Component, props vnode.Props) *App {
	return &App{r: r, root: root, props: props}
}

// Mount renders the root component into target and reports whether it did.
//
// target is resolved through the adapter when it implements host.Resolver.
// Other values are used as the container handle directly, except strings,
// which only name containers. An unresolved target mounts nothing.
func (a *App) Mount(target any) bool {
	if a.container != nil {
		a.r.logger.Warn("app already mounted", "component", a.root.ComponentName())
		return false
	}
	container, ok := a.r.resolve(target)
	if !ok {
		a.r.logger.Debug("mount container not found",
			"code", kerrors.CodeContainerUnresolved,
			"target", fmt.Sprint(target))
		return false
	}

	props := make(vnode.Props, len(a.props))
	for k, v := range a.props {
		props[k] = v
	}
	a.node = vnode.Comp(a.root, props)
	a.r.Render(a.node, container)
	a.container = container
	return true
}

// Unmount removes the root component and stops every instance below it.
func (a *App) Unmount() {
	if a.container == nil {
		return
	}
	a.r.Render(nil, a.container)
	a.container = nil
	a.node = nil
}

// Container returns the mounted container, or nil.
func (a *App) Container() host.Handle {
	return a.container
}

// Instance returns the root instance, or nil before Mount.
func (a *App) Instance() *Instance {
	if a.node == nil {
		return nil
	}
	inst, _ := a.node.Instance.(*Instance)
	return inst
}

func (r *Renderer) resolve(target any) (host.Handle, bool) {
	if target == nil {
		return nil, false
	}
	if res, ok := r.host.(host.Resolver); ok {
		if h, ok := res.Resolve(target); ok && h != nil {
			return h, true
		}
	}
	if _, ok := target.(string); ok {
		return nil, false
	}
	return target, true
}
