package dom

import "encoding/json"

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchSetAttribute    PatchOp = iota + 1 // Set/update attribute
	PatchRemoveAttribute                    // Remove attribute
	PatchSetProperty                        // Set DOM property (event hooks, input state)
	PatchReplaceNode                        // Replace node with a new subtree
	PatchSetText                            // Update text content of an element
	PatchAppendChild                        // Append a new child subtree
	PatchRemoveChild                        // Remove a child from its parent
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetAttribute:
		return "SetAttribute"
	case PatchRemoveAttribute:
		return "RemoveAttribute"
	case PatchSetProperty:
		return "SetProperty"
	case PatchReplaceNode:
		return "ReplaceNode"
	case PatchSetText:
		return "SetText"
	case PatchAppendChild:
		return "AppendChild"
	case PatchRemoveChild:
		return "RemoveChild"
	default:
		return "Unknown"
	}
}

// Patch is a single DOM mutation instruction.
//
// Every patch addresses nodes by IDs from the OLD tree (or the old tree's
// parent, for text and insert operations); the new tree's IDs never appear
// on the wire except inside carried subtrees, where they are ignored by
// the applier.
type Patch struct {
	Op       PatchOp
	NodeID   uint64  // Target node (SetAttribute, RemoveAttribute, SetProperty, ReplaceNode, SetText)
	ParentID uint64  // Parent node (AppendChild, RemoveChild)
	ChildID  uint64  // Removed child (RemoveChild)
	Name     string  // Attribute/property name
	Value    string  // Attribute value or text content
	Property *string // SetProperty value; nil clears the property
	Node     *Node   // Carried subtree (ReplaceNode, AppendChild)
}

// patchJSON is the field-tagged wire form pushed to live clients.
type patchJSON struct {
	Type     string  `json:"type"`
	NodeID   *uint64 `json:"node_id,omitempty"`
	ParentID *uint64 `json:"parent_id,omitempty"`
	ChildID  *uint64 `json:"child_id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Value    *string `json:"value,omitempty"`
	NewNode  *Node   `json:"new_node,omitempty"`
	Child    *Node   `json:"child,omitempty"`
}

// MarshalJSON encodes the patch as a field-tagged union, e.g.
// {"type":"SetAttribute","node_id":3,"name":"class","value":"bar"}.
func (p Patch) MarshalJSON() ([]byte, error) {
	out := patchJSON{Type: p.Op.String()}
	switch p.Op {
	case PatchSetAttribute:
		out.NodeID = &p.NodeID
		out.Name = p.Name
		out.Value = &p.Value
	case PatchRemoveAttribute:
		out.NodeID = &p.NodeID
		out.Name = p.Name
	case PatchSetProperty:
		out.NodeID = &p.NodeID
		out.Name = p.Name
		out.Value = p.Property
	case PatchReplaceNode:
		out.NodeID = &p.NodeID
		out.NewNode = p.Node
	case PatchSetText:
		out.NodeID = &p.NodeID
		out.Value = &p.Value
	case PatchAppendChild:
		out.ParentID = &p.ParentID
		out.Child = p.Node
	case PatchRemoveChild:
		out.ParentID = &p.ParentID
		out.ChildID = &p.ChildID
	}
	return json.Marshal(out)
}

// nodeJSON mirrors Node for wire encoding.
type nodeJSON struct {
	Type     string            `json:"type"`
	ID       uint64            `json:"id,omitempty"`
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attributes,omitempty"`
	Children []*Node           `json:"children,omitempty"`
	Text     string            `json:"text,omitempty"`
}

// MarshalJSON encodes the node for patch payloads.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindElement:
		return json.Marshal(nodeJSON{
			Type:     "element",
			ID:       n.ID,
			Tag:      n.Tag,
			Attrs:    n.Attrs,
			Children: n.Children,
		})
	case KindText:
		return json.Marshal(nodeJSON{Type: "text", Text: n.Text})
	default:
		return json.Marshal(nodeJSON{Type: "comment", Text: n.Text})
	}
}
