package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/kinetic/internal/demoapp"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

type appSpec struct {
	root  *renderer.Component
	props vnode.Props
}

var apps = map[string]appSpec{
	"counter": {root: demoapp.Counter, props: vnode.Props{"step": 1}},
	"todos": {root: demoapp.Todos, props: vnode.Props{
		"items": []string{"learn the runtime", "write tests", "ship it"},
	}},
}

func lookupApp(name string) (appSpec, error) {
	spec, ok := apps[name]
	if !ok {
		return appSpec{}, fmt.Errorf("unknown app %q (available: %s)", name, strings.Join(appNames(), ", "))
	}
	return spec, nil
}

func appNames() []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
