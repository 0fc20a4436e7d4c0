package garanti

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// Node is an insertion-ordered tree of request parameters. The gateway is
// positionally sensitive: elements must serialize in the order they were
// added, so a plain map cannot back this structure.
type Node struct {
	entries []treeEntry
}

type treeEntry struct {
	key   string
	value string
	child *Node
}

// NewNode creates an empty parameter tree
func NewNode() *Node {
	return &Node{}
}

// Add appends a scalar leaf and returns the node for chaining
func (n *Node) Add(key, value string) *Node {
	n.entries = append(n.entries, treeEntry{key: key, value: value})
	return n
}

// AddNode appends a nested subtree and returns the new child
func (n *Node) AddNode(key string) *Node {
	child := NewNode()
	n.entries = append(n.entries, treeEntry{key: key, child: child})
	return child
}

// Get returns the leaf value for a key, or empty string if absent
func (n *Node) Get(key string) string {
	for _, e := range n.entries {
		if e.key == key && e.child == nil {
			return e.value
		}
	}
	return ""
}

// Child returns the nested subtree for a key, or nil if absent
func (n *Node) Child(key string) *Node {
	for _, e := range n.entries {
		if e.key == key && e.child != nil {
			return e.child
		}
	}
	return nil
}

// Keys returns the keys in insertion order
func (n *Node) Keys() []string {
	keys := make([]string, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.key
	}
	return keys
}

// MarshalXML renders the tree as the gateway's XML request document with the
// given root element. Element order follows insertion order, text content is
// escaped, and no whitespace is emitted inside elements.
func (n *Node) MarshalXML(root string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	if err := writeElement(&buf, root, n); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, name string, n *Node) error {
	fmt.Fprintf(buf, "<%s>", name)
	for _, e := range n.entries {
		if e.child != nil {
			if err := writeElement(buf, e.key, e.child); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(buf, "<%s>", e.key)
		if err := xml.EscapeText(buf, []byte(e.value)); err != nil {
			return err
		}
		fmt.Fprintf(buf, "</%s>", e.key)
	}
	fmt.Fprintf(buf, "</%s>", name)
	return nil
}

// formField is a single key/value pair of the flat 3D initiation payload
type formField struct {
	key   string
	value string
}

// encodeForm renders fields as an application/x-www-form-urlencoded body,
// preserving field order instead of sorting keys the way url.Values does
func encodeForm(fields []formField) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.value))
	}
	return b.String()
}
