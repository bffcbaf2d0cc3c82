package dom

import "sort"

// eventAttrs is the fixed set of attribute names treated as behavior
// hooks rather than literal HTML attributes. Changes to these become
// SetProperty patches so the client can attach real handlers. The list
// follows nanomorph's event table.
var eventAttrs = map[string]bool{
	"onclick": true, "ondblclick": true, "onmousedown": true, "onmouseup": true,
	"onmouseover": true, "onmousemove": true, "onmouseout": true, "onmouseenter": true,
	"onmouseleave": true, "ontouchcancel": true, "ontouchend": true, "ontouchmove": true,
	"ontouchstart": true, "ondragstart": true, "ondrag": true, "ondragenter": true,
	"ondragleave": true, "ondragover": true, "ondrop": true, "ondragend": true,
	"onkeydown": true, "onkeypress": true, "onkeyup": true, "onunload": true,
	"onabort": true, "onerror": true, "onresize": true, "onscroll": true,
	"onselect": true, "onchange": true, "onsubmit": true, "onreset": true,
	"onfocus": true, "onblur": true, "oninput": true, "onanimationend": true,
	"onanimationiteration": true, "onanimationstart": true, "oncontextmenu": true,
	"onfocusin": true, "onfocusout": true,
}

// isEventAttr reports whether the attribute name is a behavior hook.
func isEventAttr(name string) bool {
	return eventAttrs[name]
}

// Diff compares two trees and returns the patch sequence that transforms
// old into new.
//
// Matching is positional: the i-th child of the old parent is compared
// against the i-th child of the new parent; there is no keyed
// reconciliation. Diff is deterministic and side-effect free: the same
// inputs always produce the same patch sequence.
func Diff(old, new *Node) []Patch {
	var patches []Patch
	diffNodes(old, new, 0, &patches)
	return patches
}

// diffNodes compares one positional pair. parentID is the ID of the old
// tree's enclosing element, used for patches targeting text and comment
// nodes, which have no ID of their own.
func diffNodes(old, new *Node, parentID uint64, patches *[]Patch) {
	switch {
	case old.Kind == KindElement && new.Kind == KindElement:
		diffElements(old, new, patches)

	case old.Kind == KindText && new.Kind == KindText:
		if old.Text != new.Text {
			*patches = append(*patches, Patch{
				Op:     PatchSetText,
				NodeID: parentID,
				Value:  new.Text,
			})
		}

	case old.Kind == KindComment && new.Kind == KindComment:
		if old.Text != new.Text {
			*patches = append(*patches, Patch{
				Op:     PatchReplaceNode,
				NodeID: parentID,
				Node:   new,
			})
		}

	default:
		// Node kinds differ: replace, keyed by the old node's own ID or,
		// for text/comment old nodes, the parent element's ID.
		targetID := parentID
		if old.Kind == KindElement {
			targetID = old.ID
		}
		*patches = append(*patches, Patch{
			Op:     PatchReplaceNode,
			NodeID: targetID,
			Node:   new,
		})
	}
}

func diffElements(old, new *Node, patches *[]Patch) {
	if old.Tag != new.Tag {
		// Children are not compared across a tag change.
		*patches = append(*patches, Patch{
			Op:     PatchReplaceNode,
			NodeID: old.ID,
			Node:   new,
		})
		return
	}

	// Attributes first, then children.
	diffAttributes(old, new, patches)

	minLen := len(old.Children)
	if len(new.Children) < minLen {
		minLen = len(new.Children)
	}
	for i := 0; i < minLen; i++ {
		diffNodes(old.Children[i], new.Children[i], old.ID, patches)
	}

	// Removals after all positional compares, appends after removals.
	for _, excess := range old.Children[minLen:] {
		if excess.Kind != KindElement {
			// Text and comment children carry no ID to remove by.
			continue
		}
		*patches = append(*patches, Patch{
			Op:       PatchRemoveChild,
			ParentID: old.ID,
			ChildID:  excess.ID,
		})
	}
	for _, added := range new.Children[minLen:] {
		*patches = append(*patches, Patch{
			Op:       PatchAppendChild,
			ParentID: old.ID,
			Node:     added,
		})
	}
}

// diffAttributes emits patches for the new-or-changed pass, then the
// removed pass. Names are visited in sorted order so the sequence is
// reproducible.
func diffAttributes(old, new *Node, patches *[]Patch) {
	for _, name := range sortedKeys(new.Attrs) {
		value := new.Attrs[name]
		if oldValue, ok := old.Attrs[name]; ok && oldValue == value {
			continue
		}
		switch {
		case value == "null" || value == "undefined":
			// nanomorph treats these literals as removal.
			if isEventAttr(name) {
				*patches = append(*patches, Patch{Op: PatchSetProperty, NodeID: old.ID, Name: name})
			} else {
				*patches = append(*patches, Patch{Op: PatchRemoveAttribute, NodeID: old.ID, Name: name})
			}
		case isEventAttr(name):
			v := value
			*patches = append(*patches, Patch{Op: PatchSetProperty, NodeID: old.ID, Name: name, Property: &v})
		default:
			*patches = append(*patches, Patch{Op: PatchSetAttribute, NodeID: old.ID, Name: name, Value: value})
		}
	}

	for _, name := range sortedKeys(old.Attrs) {
		if _, ok := new.Attrs[name]; ok {
			continue
		}
		if isEventAttr(name) {
			*patches = append(*patches, Patch{Op: PatchSetProperty, NodeID: old.ID, Name: name})
		} else {
			*patches = append(*patches, Patch{Op: PatchRemoveAttribute, NodeID: old.ID, Name: name})
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
