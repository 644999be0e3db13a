package api

import (
	"github.com/starford/symark/internal/graph"
	"github.com/starford/symark/internal/noteservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// SearchHit is a single search hit (aliased from the domain layer).
type SearchHit = noteservice.SearchHit

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes  []NoteListItem `json:"notes"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// BacklinksResponse lists the notes referencing one note.
type BacklinksResponse struct {
	ID        string   `json:"id"`
	Backlinks []string `json:"backlinks"`
}

// TagsResponse lists every tag in use.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// GraphResponse is the link graph, in the same shape as graph.json.
type GraphResponse = graph.Graph
