// Package xref resolves note and block identifiers across the corpus.
package xref

import (
	"strings"

	"github.com/starford/symark/internal/models"
)

// Target is a resolved identifier. Block is nil when the identifier names a
// whole note.
type Target struct {
	Note  *models.Note
	Block models.Block
}

// IsNote reports whether the target is a whole note.
func (t Target) IsNote() bool { return t.Block == nil }

// Content returns the blocks to render for the target.
func (t Target) Content() []models.Block {
	if t.Block != nil {
		return []models.Block{t.Block}
	}
	return t.Note.Children
}

// URL returns the page link for the target. Block targets carry an anchor.
func (t Target) URL() string {
	if t.Block != nil {
		return PageURL(t.Note.ID) + "#" + t.Block.Base().ID
	}
	return PageURL(t.Note.ID)
}

// PageURL returns the relative page path for a note id.
func PageURL(noteID string) string {
	return noteID + ".html"
}

// TagURL returns the relative page path for a tag. Spaces become underscores.
func TagURL(tag string) string {
	return "tag_" + strings.ReplaceAll(tag, " ", "_") + ".html"
}

type location struct {
	note  *models.Note
	block models.Block
}

// Resolver answers identifier lookups against an immutable index. It is
// safe for concurrent use.
type Resolver struct {
	notes  models.Index
	blocks map[string]location
}

// New indexes every block id of every note. Notes are visited in id order
// and the first occurrence of a duplicated block id wins.
func New(idx models.Index) *Resolver {
	r := &Resolver{
		notes:  idx,
		blocks: make(map[string]location),
	}
	for _, n := range idx.Sorted() {
		models.Walk(n.Children, func(b models.Block) bool {
			id := b.Base().ID
			if id == "" {
				return true
			}
			if _, dup := r.blocks[id]; !dup {
				r.blocks[id] = location{note: n, block: b}
			}
			return true
		})
	}
	return r
}

// Index returns the underlying note index.
func (r *Resolver) Index() models.Index { return r.notes }

// Note looks up a note by id.
func (r *Resolver) Note(id string) (*models.Note, bool) {
	n, ok := r.notes[id]
	return n, ok
}

// Block looks up a nested block by id, ignoring note ids.
func (r *Resolver) Block(id string) (Target, bool) {
	loc, ok := r.blocks[id]
	if !ok {
		return Target{}, false
	}
	return Target{Note: loc.note, Block: loc.block}, true
}

// Resolve checks note ids first, then nested block ids.
func (r *Resolver) Resolve(id string) (Target, bool) {
	if id == "" {
		return Target{}, false
	}
	if n, ok := r.notes[id]; ok {
		return Target{Note: n}, true
	}
	return r.Block(id)
}

// Owner returns the id of the note that contains id, or id itself when it
// names a note.
func (r *Resolver) Owner(id string) (string, bool) {
	t, ok := r.Resolve(id)
	if !ok {
		return "", false
	}
	return t.Note.ID, true
}
