// Package models defines the domain types for SyMark.
package models

import (
	"sort"
	"strings"
)

// IndexTag marks the note that replaces the generated home page.
const IndexTag = "index"

// Note is a parsed .sy document.
type Note struct {
	ID         string     `json:"id"`
	Type       string     `json:"type,omitempty"`
	Properties Properties `json:"properties"`
	Children   []Block    `json:"-"`
}

// Properties holds the document-level attributes of a note.
type Properties struct {
	Title       string `json:"title,omitempty"`
	TitleImage  string `json:"title_img,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Type        string `json:"type,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Style       string `json:"style,omitempty"`
	ParentStyle string `json:"parent_style,omitempty"`
}

// Title returns the note title, falling back to its id.
func (n *Note) Title() string {
	if n.Properties.Title != "" {
		return n.Properties.Title
	}
	return n.ID
}

// Created returns the creation timestamp. Notes without an explicit value
// use the leading 14 digits of their id (YYYYMMDDhhmmss-xxxxxxx).
func (n *Note) Created() string {
	if n.Properties.Created != "" {
		return n.Properties.Created
	}
	if len(n.ID) >= 14 {
		return n.ID[:14]
	}
	return ""
}

// Updated returns the update timestamp when it differs from Created.
func (n *Note) Updated() string {
	if n.Properties.Updated == n.Created() {
		return ""
	}
	return n.Properties.Updated
}

// Tags splits the comma-separated tag list, dropping blanks.
func (n *Note) Tags() []string {
	return SplitTags(n.Properties.Tags)
}

// HasTag reports whether the note carries tag.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// SplitTags splits a comma-separated tag list.
func SplitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Index maps note ids to notes. It is built once per run and only read after.
type Index map[string]*Note

// NewIndex builds an index from notes. Later duplicates replace earlier ones.
func NewIndex(notes ...*Note) Index {
	idx := make(Index, len(notes))
	for _, n := range notes {
		idx[n.ID] = n
	}
	return idx
}

// Sorted returns the notes ordered by id.
func (idx Index) Sorted() []*Note {
	out := make([]*Note, 0, len(idx))
	for _, n := range idx {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByTitle returns the titled notes ordered by title.
func (idx Index) ByTitle() []*Note {
	var out []*Note
	for _, n := range idx.Sorted() {
		if n.Properties.Title != "" {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Properties.Title < out[j].Properties.Title })
	return out
}

// Tagged returns the notes carrying tag, ordered by id.
func (idx Index) Tagged(tag string) []*Note {
	var out []*Note
	for _, n := range idx.Sorted() {
		if n.HasTag(tag) {
			out = append(out, n)
		}
	}
	return out
}

// AllTags returns the sorted set of tags used across the index, excluding
// the index marker tag.
func (idx Index) AllTags() []string {
	seen := make(map[string]struct{})
	for _, n := range idx {
		for _, t := range n.Tags() {
			if t != IndexTag {
				seen[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HomeNote returns the note tagged as the custom home page, if any. When
// several notes carry the tag the one with the greatest id wins.
func (idx Index) HomeNote() (*Note, bool) {
	var home *Note
	for _, n := range idx.Sorted() {
		if n.HasTag(IndexTag) {
			home = n
		}
	}
	return home, home != nil
}

// NoteMetadata is a lightweight description of a source file.
type NoteMetadata struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}
