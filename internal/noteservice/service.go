// Package noteservice answers read queries against the most recently built
// corpus, backed by the search index when one is configured.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/starford/symark/internal/apperr"
	"github.com/starford/symark/internal/corpus"
	"github.com/starford/symark/internal/graph"
	"github.com/starford/symark/internal/index"
	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/render"
	"github.com/starford/symark/internal/xref"
)

const (
	defaultLimit = 50
	defaultHits  = 20
	snippetRunes = 160
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID        string           `json:"id"`
	Path      string           `json:"path"`
	URL       string           `json:"url"`
	Title     string           `json:"title"`
	Checksum  string           `json:"checksum"`
	Tags      []string         `json:"tags"`
	Created   string           `json:"created,omitempty"`
	Updated   string           `json:"updated,omitempty"`
	HTML      string           `json:"html"`
	TOC       []render.TocItem `json:"toc"`
	Links     []string         `json:"links"`
	Backlinks []string         `json:"backlinks"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID      string   `json:"id"`
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Created string   `json:"created,omitempty"`
}

// SearchHit is one search result.
type SearchHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Service serves the current corpus snapshot. Snapshots are swapped whole
// after every rebuild, so readers never observe a half-loaded corpus.
type Service struct {
	current atomic.Pointer[corpus.Corpus]
	db      index.NoteIndex
}

// NewService creates a service. db may be nil, in which case listing and
// search run against the in-memory corpus.
func NewService(db index.NoteIndex) *Service {
	return &Service{db: db}
}

// Swap installs a freshly loaded corpus.
func (s *Service) Swap(c *corpus.Corpus) {
	s.current.Store(c)
}

// Corpus returns the current snapshot or apperr.ErrNotReady.
func (s *Service) Corpus() (*corpus.Corpus, error) {
	c := s.current.Load()
	if c == nil {
		return nil, apperr.ErrNotReady
	}
	return c, nil
}

func (s *Service) note(id string) (*corpus.Corpus, *models.Note, error) {
	c, err := s.Corpus()
	if err != nil {
		return nil, nil, err
	}
	n, ok := c.Notes[id]
	if !ok {
		return nil, nil, fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
	}
	return c, n, nil
}

// GetNote renders one note with its outline and link neighbourhood.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	c, n, err := s.note(id)
	if err != nil {
		return nil, err
	}
	html, toc := render.New(c.Resolver).Page(n.Children)
	return &NoteDetail{
		ID:        n.ID,
		Path:      c.Sources[n.ID].Path,
		URL:       xref.PageURL(n.ID),
		Title:     n.Title(),
		Checksum:  c.Sources[n.ID].Checksum,
		Tags:      nonNilSlice(n.Tags()),
		Created:   n.Created(),
		Updated:   n.Updated(),
		HTML:      html,
		TOC:       nonNilSlice(toc),
		Links:     nonNilSlice(c.Links(n)),
		Backlinks: nonNilSlice(c.Backlinks(n.ID)),
	}, nil
}

// ListNotes returns a page of notes ordered by id, optionally filtered by tag,
// with the total number of matches.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag string) ([]NoteListItem, int, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	offset = max(offset, 0)

	if s.db != nil {
		rows, total, err := s.db.ListNotes(limit, offset, tag)
		if err != nil {
			return nil, 0, err
		}
		items := make([]NoteListItem, len(rows))
		for i, r := range rows {
			items[i] = NoteListItem{ID: r.ID, Path: r.Path, Title: r.Title, Tags: nonNilSlice(r.Tags), Created: r.Created}
		}
		return items, total, nil
	}

	c, err := s.Corpus()
	if err != nil {
		return nil, 0, err
	}
	notes := c.Notes.Sorted()
	if tag != "" {
		notes = c.Notes.Tagged(tag)
	}
	total := len(notes)
	items := []NoteListItem{}
	for _, n := range notes[min(offset, total):min(offset+limit, total)] {
		items = append(items, NoteListItem{
			ID:      n.ID,
			Path:    c.Sources[n.ID].Path,
			Title:   n.Title(),
			Tags:    nonNilSlice(n.Tags()),
			Created: n.Created(),
		})
	}
	return items, total, nil
}

// Search finds notes matching query. With an index it uses full-text search;
// otherwise titles and plain text are scanned case-insensitively.
func (s *Service) Search(_ context.Context, query string, limit int) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("noteservice: empty query: %w", apperr.ErrInvalid)
	}
	if limit <= 0 {
		limit = defaultHits
	}

	if s.db != nil {
		rows, err := s.db.Search(query, limit)
		if err != nil {
			return nil, err
		}
		hits := make([]SearchHit, len(rows))
		for i, r := range rows {
			hits[i] = SearchHit{ID: r.ID, Title: r.Title, URL: xref.PageURL(r.ID), Snippet: r.Snippet}
		}
		return hits, nil
	}

	c, err := s.Corpus()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	hits := []SearchHit{}
	for _, n := range c.Notes.Sorted() {
		if len(hits) == limit {
			break
		}
		body := render.PlainText(n.Children)
		inTitle := strings.Contains(strings.ToLower(n.Title()), needle)
		at := strings.Index(strings.ToLower(body), needle)
		if !inTitle && at < 0 {
			continue
		}
		hits = append(hits, SearchHit{ID: n.ID, Title: n.Title(), URL: xref.PageURL(n.ID), Snippet: snippet(body, at)})
	}
	return hits, nil
}

// snippet returns up to snippetRunes of body starting a little before byte
// offset at. ToLower can shift offsets for some scripts, so at is clamped.
func snippet(body string, at int) string {
	at = min(max(at-40, 0), len(body))
	for at > 0 && !utf8.RuneStart(body[at]) {
		at--
	}
	text := strings.Join(strings.Fields(body[at:]), " ")
	if at > 0 {
		text = "..." + text
	}
	return render.Truncate(text, snippetRunes)
}

// Backlinks returns the ids of notes referencing id.
func (s *Service) Backlinks(_ context.Context, id string) ([]string, error) {
	c, _, err := s.note(id)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(c.Backlinks(id)), nil
}

// Graph returns the link graph of the current corpus.
func (s *Service) Graph(_ context.Context) (*graph.Graph, error) {
	c, err := s.Corpus()
	if err != nil {
		return nil, err
	}
	return c.Graph(), nil
}

// Tags returns every tag in use except the home-page marker.
func (s *Service) Tags(_ context.Context) ([]string, error) {
	c, err := s.Corpus()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(c.Notes.AllTags()), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
