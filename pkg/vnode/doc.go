// Package vnode describes renderable trees.
//
// A Node is a tagged union over five kinds: Element, Text, Comment, Fragment
// and Component. Render functions build trees with the factories in this
// package; the renderer diffs two trees and drives a host adapter.
//
//	vnode.El("ul", vnode.Class("todos"),
//	    vnode.Range(items, func(it Item, _ int) *vnode.Node {
//	        return vnode.El("li", vnode.Key(it.ID), it.Title)
//	    }),
//	)
package vnode
