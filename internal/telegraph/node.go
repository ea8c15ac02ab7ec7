// Package telegraph implements the Telegraph-compatible document node tree
// and its two-way conversion to markdown.
package telegraph

import (
	"encoding/json"
	"fmt"
)

// Node is one entry in a document tree. A node is either a plain text leaf
// (Tag empty, Text set) or a tagged element with optional attributes and an
// ordered list of children.
//
// The JSON form follows the Telegraph API: text leaves serialize as bare
// strings, elements as {"tag": ..., "attrs": {...}, "children": [...]} with
// empty attrs and children omitted.
type Node struct {
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
	Text     string            `json:"-"`
}

// TextNode returns a plain text leaf.
func TextNode(s string) Node {
	return Node{Text: s}
}

// Elem returns an element node with the given children.
func Elem(tag string, children ...Node) Node {
	return Node{Tag: tag, Children: children}
}

// IsText reports whether the node is a plain text leaf.
func (n Node) IsText() bool {
	return n.Tag == ""
}

// MarshalJSON serializes text leaves as bare strings and elements as objects.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.IsText() {
		return json.Marshal(n.Text)
	}
	type element Node // drop methods to avoid recursion
	return json.Marshal(element(n))
}

// UnmarshalJSON accepts either a bare string or an element object.
func (n *Node) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &n.Text)
	}
	type element Node
	var e element
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	if e.Tag == "" {
		return fmt.Errorf("telegraph: node object without tag")
	}
	*n = Node(e)
	return nil
}

// ParseNodes decodes a JSON node array.
func ParseNodes(data []byte) ([]Node, error) {
	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("telegraph: parse nodes: %w", err)
	}
	return nodes, nil
}
