package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Parse parses an HTML string into a Node tree.
//
// The document node is wrapped in a synthetic "document" element so the
// root is always an element; fragments and full documents get the same
// shape. Element IDs start at 0 for each parse.
func Parse(source string) (*Node, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	var counter uint64
	return convert(doc, &counter), nil
}

func convert(n *html.Node, counter *uint64) *Node {
	switch n.Type {
	case html.DocumentNode:
		node := &Node{
			Kind:  KindElement,
			ID:    nextID(counter),
			Tag:   "document",
			Attrs: map[string]string{},
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			node.Children = append(node.Children, convert(c, counter))
		}
		return node

	case html.ElementNode:
		attrs := make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			attrs[a.Key] = a.Val
		}
		node := &Node{
			Kind:  KindElement,
			ID:    nextID(counter),
			Tag:   n.Data,
			Attrs: attrs,
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			node.Children = append(node.Children, convert(c, counter))
		}
		return node

	case html.TextNode:
		return &Node{Kind: KindText, Text: n.Data}

	case html.CommentNode:
		return &Node{Kind: KindComment, Text: n.Data}

	default:
		// Doctype and friends carry no render state.
		return &Node{Kind: KindComment, Text: n.Data}
	}
}

func nextID(counter *uint64) uint64 {
	id := *counter
	*counter++
	return id
}
