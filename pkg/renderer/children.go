package renderer

import (
	"fmt"

	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/vnode"
)

// patchChildren diffs the children of old and n inside container.
//
//	old \ new   none      text             list
//	none        -         set text         mount
//	text        clear     set if changed   clear, mount
//	list        unmount   unmount, set     keyed diff
func (r *Renderer) patchChildren(old, n *vnode.Node, container, anchor host.Handle) {
	if n.Shape == vnode.ShapeText {
		if old.Shape == vnode.ShapeList {
			r.unmountChildren(old.Children)
		}
		if old.Shape != vnode.ShapeText || old.Text != n.Text {
			r.host.SetElementText(container, n.Text)
		}
		return
	}

	if old.Shape == vnode.ShapeList {
		if n.Shape == vnode.ShapeList {
			r.patchKeyedChildren(old.Children, n.Children, container, anchor)
			return
		}
		r.unmountChildren(old.Children)
		return
	}

	if old.Shape == vnode.ShapeText {
		r.host.SetElementText(container, "")
	}
	if n.Shape == vnode.ShapeList {
		r.mountChildren(n.Children, container, anchor)
	}
}

// patchKeyedChildren diffs two child lists. Items are matched by SameNode,
// which treats keyless siblings of one type as the same node.
//
// Items patched in place get the next host node as their anchor. Elements
// ignore it; fragments and components mount new content there, and a node
// replaced by one of another type is mounted there.
func (r *Renderer) patchKeyedChildren(oldKids, newKids []*vnode.Node, container, parentAnchor host.Handle) {
	normalizeChildren(newKids)

	i := 0
	newLen := len(newKids)
	oldEnd := len(oldKids) - 1
	newEnd := newLen - 1

	// 1. head scan
	for i <= oldEnd && i <= newEnd {
		if !vnode.SameNode(oldKids[i], newKids[i]) {
			break
		}
		r.Patch(oldKids[i], newKids[i], container, anchorAt(oldKids, i+1, parentAnchor))
		i++
	}

	// 2. tail scan
	for i <= oldEnd && i <= newEnd {
		if !vnode.SameNode(oldKids[oldEnd], newKids[newEnd]) {
			break
		}
		r.Patch(oldKids[oldEnd], newKids[newEnd], container, anchorAt(newKids, newEnd+1, parentAnchor))
		oldEnd--
		newEnd--
	}

	switch {
	case i > oldEnd:
		// 3. only new items remain
		if i <= newEnd {
			anchor := anchorAt(newKids, newEnd+1, parentAnchor)
			for ; i <= newEnd; i++ {
				r.Patch(nil, newKids[i], container, anchor)
			}
		}

	case i > newEnd:
		// 4. only old items remain
		for ; i <= oldEnd; i++ {
			r.unmount(oldKids[i], true)
		}

	default:
		// 5. unknown order
		r.patchUnknownSequence(oldKids, newKids, i, oldEnd, newEnd, container, parentAnchor)
	}
}

// patchUnknownSequence handles the unresolved middle oldKids[start:oldEnd+1]
// against newKids[start:newEnd+1].
func (r *Renderer) patchUnknownSequence(oldKids, newKids []*vnode.Node, start, oldEnd, newEnd int, container, parentAnchor host.Handle) {
	keyToNewIndex := make(map[any]int)
	for i := start; i <= newEnd; i++ {
		k := newKids[i].Key
		if k == nil {
			continue
		}
		if j, dup := keyToNewIndex[k]; dup {
			r.logger.Warn("duplicate key in children",
				"key", fmt.Sprint(k),
				"first", j,
				"index", i)
			continue
		}
		keyToNewIndex[k] = i
	}

	toBePatched := newEnd - start + 1
	// newIndexToOldIndex holds oldIndex+1 for every matched new position; 0
	// marks a position that must be mounted.
	newIndexToOldIndex := make([]int, toBePatched)
	patched := 0
	moved := false
	maxNewIndexSoFar := 0

	for i := start; i <= oldEnd; i++ {
		prev := oldKids[i]
		if patched >= toBePatched {
			r.unmount(prev, true)
			continue
		}

		newIndex := -1
		if prev.Key != nil {
			// A position already claimed means prev repeats an old key.
			if j, ok := keyToNewIndex[prev.Key]; ok && newIndexToOldIndex[j-start] == 0 {
				newIndex = j
			}
		} else {
			for j := start; j <= newEnd; j++ {
				if newIndexToOldIndex[j-start] == 0 && vnode.SameNode(prev, newKids[j]) {
					newIndex = j
					break
				}
			}
		}

		if newIndex < 0 {
			r.unmount(prev, true)
			continue
		}
		newIndexToOldIndex[newIndex-start] = i + 1
		if newIndex >= maxNewIndexSoFar {
			maxNewIndexSoFar = newIndex
		} else {
			moved = true
		}
		r.Patch(prev, newKids[newIndex], container, anchorAt(oldKids, i+1, parentAnchor))
		patched++
	}

	var stable []int
	if moved {
		stable = LIS(newIndexToOldIndex)
	}
	j := len(stable) - 1
	for i := toBePatched - 1; i >= 0; i-- {
		pos := start + i
		child := newKids[pos]
		anchor := anchorAt(newKids, pos+1, parentAnchor)
		switch {
		case newIndexToOldIndex[i] == 0:
			r.Patch(nil, child, container, anchor)
		case !moved:
		case j < 0 || i != stable[j]:
			r.move(child, container, anchor)
		default:
			j--
		}
	}
}
