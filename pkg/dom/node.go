package dom

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <form>, etc.
	KindText                // Plain text node
	KindComment             // <!-- comment -->
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Node is one node of a parsed HTML tree.
//
// Element nodes carry a numeric ID assigned by the parser. IDs are unique
// within one parsed tree and stable for its lifetime, but they are NOT
// stable across parses: two renders of the same page produce two
// independent ID spaces. Diff therefore only ever emits IDs taken from
// the old tree; patch addressing depends on this.
type Node struct {
	Kind     Kind
	ID       uint64            // Element only; text and comment nodes have no ID
	Tag      string            // Element tag name (lowercase)
	Attrs    map[string]string // Element attributes
	Children []*Node           // Element children, in document order
	Text     string            // For KindText and KindComment
}

// IsElement reports whether the node is an element.
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == KindElement
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// Find returns the first element in the subtree (depth-first, the node
// itself included) matching pred, or nil.
func (n *Node) Find(pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindElement && pred(n) {
		return n
	}
	for _, c := range n.Children {
		if m := c.Find(pred); m != nil {
			return m
		}
	}
	return nil
}

// Clone returns a deep copy of the node with the same IDs.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind: n.Kind,
		ID:   n.ID,
		Tag:  n.Tag,
		Text: n.Text,
	}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}
