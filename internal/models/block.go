package models

import "strings"

// Block is a node of a note's content tree. The set of implementations is
// closed: every variant is declared in this file.
type Block interface {
	// Base returns the attributes shared by every block kind.
	Base() *Node
}

// Node carries the attributes shared by every block kind.
type Node struct {
	ID          string
	Style       string
	ParentStyle string
	Children    []Block
}

// Base implements Block.
func (n *Node) Base() *Node { return n }

// ListKind discriminates list flavours. Values match the serialized Typ field.
type ListKind int

const (
	ListUnordered ListKind = 0
	ListOrdered   ListKind = 1
	ListTask      ListKind = 3
)

// Column alignment hints carried by tables.
const (
	AlignNone   = 0
	AlignLeft   = 1
	AlignCenter = 2
	AlignRight  = 3
)

type (
	Paragraph struct{ Node }

	Heading struct {
		Node
		Level int
	}

	List struct {
		Node
		Kind ListKind
	}

	ListItem struct{ Node }

	// TaskMarker is the checkbox pseudo-node of a task list item.
	TaskMarker struct {
		Node
		Checked bool
	}

	Blockquote    struct{ Node }
	ThematicBreak struct{ Node }

	Table struct {
		Node
		Aligns []int
	}

	TableHead struct{ Node }
	TableRow  struct{ Node }

	TableCell struct {
		Node
		Header bool
	}

	// CodeBlock holds a fenced block; Info is the language tag, possibly
	// base64-encoded.
	CodeBlock struct {
		Node
		Info string
	}

	CodeContent struct {
		Node
		Text string
	}

	Text struct {
		Node
		Data string
	}

	// TextMark is an inline span. Types holds the space-separated mark
	// subtypes (e.g. "strong", "text strong", "block-ref").
	TextMark struct {
		Node
		Types      string
		Content    string
		Href       string
		RefID      string
		RefSubtype string
		Memo       string
	}

	Image struct{ Node }

	LinkDest struct {
		Node
		URL string
	}

	LinkText struct {
		Node
		Text string
	}

	LinkTitle struct {
		Node
		Text string
	}

	LineBreak struct{ Node }

	SuperBlock     struct{ Node }
	SuperBlockOpen struct{ Node }

	// SuperBlockLayout carries the stored layout payload ("row" or "col").
	SuperBlockLayout struct {
		Node
		Layout string
	}

	SuperBlockClose struct{ Node }

	// QueryEmbed transcludes the result of its script child.
	QueryEmbed struct{ Node }

	QueryEmbedScript struct {
		Node
		Script string
	}

	// Unknown keeps node kinds this version does not model.
	Unknown struct {
		Node
		Type string
		Data string
	}
)

// HasType reports whether the mark carries subtype t.
func (m *TextMark) HasType(t string) bool {
	for _, f := range strings.Fields(m.Types) {
		if f == t {
			return true
		}
	}
	return false
}

// IsMarker reports whether b is a structural pseudo-node that is never
// rendered on its own.
func IsMarker(b Block) bool {
	switch b.(type) {
	case *SuperBlockOpen, *SuperBlockLayout, *SuperBlockClose, *TaskMarker:
		return true
	}
	return false
}

// Content returns the children of b that are not marker pseudo-nodes.
func Content(b Block) []Block {
	children := b.Base().Children
	out := make([]Block, 0, len(children))
	for _, c := range children {
		if !IsMarker(c) {
			out = append(out, c)
		}
	}
	return out
}

// RawData returns the text payload of leaf kinds, or "" for containers.
func RawData(b Block) string {
	switch v := b.(type) {
	case *Text:
		return v.Data
	case *CodeContent:
		return v.Text
	case *TextMark:
		return v.Content
	case *LinkText:
		return v.Text
	case *SuperBlockLayout:
		return v.Layout
	case *QueryEmbedScript:
		return v.Script
	case *Unknown:
		return v.Data
	}
	return ""
}

// Walk visits blocks and their descendants depth-first in document order. Returning
// false from fn skips the node's children.
func Walk(blocks []Block, fn func(Block) bool) {
	for _, b := range blocks {
		if fn(b) {
			Walk(b.Base().Children, fn)
		}
	}
}
