package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/xref"
)

func ref(target string) models.Block {
	return &models.Paragraph{Node: models.Node{Children: []models.Block{
		&models.TextMark{Types: "block-ref", RefID: target},
	}}}
}

func note(id string, children ...models.Block) *models.Note {
	return &models.Note{ID: id, Properties: models.Properties{Title: strings.ToUpper(id), Tags: "t"}, Children: children}
}

func build(notes ...*models.Note) *Graph {
	idx := models.NewIndex(notes...)
	return Build(idx, xref.New(idx))
}

func TestBuild_ReciprocalRefsCollapse(t *testing.T) {
	g := build(
		note("a", ref("b"), ref("b")),
		note("b", ref("a")),
	)
	if len(g.Links) != 1 {
		t.Fatalf("links = %+v, want exactly one", g.Links)
	}
	if g.Links[0] != (Link{Source: "a", Target: "b"}) {
		t.Errorf("link = %+v", g.Links[0])
	}
	for _, n := range g.Nodes {
		if n.Connections != 1 {
			t.Errorf("node %s connections = %d, want 1", n.ID, n.Connections)
		}
	}
}

func TestBuild_SubBlockAndSelfRefs(t *testing.T) {
	target := note("b", &models.Paragraph{Node: models.Node{ID: "inner"}})
	g := build(
		note("a", ref("inner"), ref("a"), ref("missing")),
		target,
		note("c"),
	)
	if len(g.Links) != 1 || g.Links[0] != (Link{Source: "a", Target: "b"}) {
		t.Fatalf("links = %+v", g.Links)
	}
	want := map[string]int{"a": 1, "b": 1, "c": 0}
	for _, n := range g.Nodes {
		if n.Connections != want[n.ID] {
			t.Errorf("node %s connections = %d, want %d", n.ID, n.Connections, want[n.ID])
		}
	}
}

func TestBuild_JSONShape(t *testing.T) {
	g := build(note("a", ref("b")), note("b"))
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"nodes":[{"id":"a","title":"A","tags":["t"],"connections":1},` +
		`{"id":"b","title":"B","tags":["t"],"connections":1}],"links":[{"source":"a","target":"b"}]}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestBuild_Empty(t *testing.T) {
	g := build()
	data, _ := json.Marshal(g)
	if string(data) != `{"nodes":[],"links":[]}` {
		t.Errorf("json = %s", data)
	}
}
