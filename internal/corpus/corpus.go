// Package corpus loads every source note into an immutable snapshot.
package corpus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/symark/internal/graph"
	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/parser"
	"github.com/starford/symark/internal/storage"
	"github.com/starford/symark/internal/xref"
)

// Corpus is the parsed note set of one build. It is read-only after Load.
type Corpus struct {
	Notes    models.Index
	Resolver *xref.Resolver
	// Sources maps note ids to the file they were parsed from.
	Sources  map[string]models.NoteMetadata
	LoadedAt time.Time

	backlinks map[string][]string
}

// Load parses every .sy file of store. Files that fail to read or parse are
// logged and skipped; when two files share an id the later path wins.
func Load(store storage.Provider, logger *slog.Logger) (*Corpus, error) {
	metas, err := store.List("", parser.Ext)
	if err != nil {
		return nil, fmt.Errorf("corpus: list: %w", err)
	}

	notes := make([]*models.Note, 0, len(metas))
	sources := make(map[string]models.NoteMetadata, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("corpus: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		n, err := parser.Parse(data)
		if err != nil {
			logger.Warn("corpus: parse failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if prev, dup := sources[n.ID]; dup {
			logger.Warn("corpus: duplicate note id",
				slog.String("id", n.ID), slog.String("path", m.Path), slog.String("previous", prev.Path))
		}
		notes = append(notes, n)
		sources[n.ID] = m
	}

	c := New(models.NewIndex(notes...))
	c.Sources = sources
	logger.Debug("corpus: loaded", slog.Int("notes", len(c.Notes)), slog.Int("files", len(metas)))
	return c, nil
}

// New wraps an already built index.
func New(idx models.Index) *Corpus {
	c := &Corpus{
		Notes:     idx,
		Resolver:  xref.New(idx),
		Sources:   make(map[string]models.NoteMetadata),
		LoadedAt:  time.Now(),
		backlinks: make(map[string][]string),
	}
	for _, n := range idx.Sorted() {
		for _, target := range c.Links(n) {
			c.backlinks[target] = append(c.backlinks[target], n.ID)
		}
	}
	return c
}

// Links returns the ids of the notes n references.
func (c *Corpus) Links(n *models.Note) []string {
	return graph.References(n, c.Resolver)
}

// Backlinks returns the ids of notes referencing id, ordered by id.
func (c *Corpus) Backlinks(id string) []string {
	return c.backlinks[id]
}

// Graph builds the link graph of the corpus.
func (c *Corpus) Graph() *graph.Graph {
	return graph.Build(c.Notes, c.Resolver)
}
