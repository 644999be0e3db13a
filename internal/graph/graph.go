// Package graph builds the note link graph shown on the visualization page.
package graph

import (
	"sort"

	"github.com/starford/symark/internal/models"
)

// Node is one note in the graph.
type Node struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Connections int      `json:"connections"`
}

// Link is an undirected edge between two notes.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the serialized form consumed by graph.html.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Owner maps a reference target id to the id of the note that holds it.
type Owner interface {
	Owner(id string) (string, bool)
}

type pair struct{ a, b string }

func newPair(x, y string) pair {
	if x > y {
		x, y = y, x
	}
	return pair{x, y}
}

// Build scans every note for block references and returns the simple
// undirected graph they form. References to sub-blocks count as links to the
// owning note; self references and unresolved targets are ignored.
func Build(idx models.Index, owners Owner) *Graph {
	notes := idx.Sorted()
	g := &Graph{
		Nodes: make([]Node, 0, len(notes)),
		Links: []Link{},
	}

	seen := make(map[pair]struct{})
	for _, n := range notes {
		g.Nodes = append(g.Nodes, Node{
			ID:    n.ID,
			Title: n.Title(),
			Tags:  nonNil(n.Tags()),
		})
		for _, target := range References(n, owners) {
			p := newPair(n.ID, target)
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			g.Links = append(g.Links, Link{Source: p.a, Target: p.b})
		}
	}

	sort.Slice(g.Links, func(i, j int) bool {
		if g.Links[i].Source != g.Links[j].Source {
			return g.Links[i].Source < g.Links[j].Source
		}
		return g.Links[i].Target < g.Links[j].Target
	})

	counts := make(map[string]int, len(g.Nodes))
	for _, l := range g.Links {
		counts[l.Source]++
		counts[l.Target]++
	}
	for i := range g.Nodes {
		g.Nodes[i].Connections = counts[g.Nodes[i].ID]
	}
	return g
}

// References returns the distinct ids of other notes that n references,
// in first-seen order.
func References(n *models.Note, owners Owner) []string {
	var out []string
	seen := make(map[string]struct{})
	models.Walk(n.Children, func(b models.Block) bool {
		m, ok := b.(*models.TextMark)
		if !ok || !m.HasType("block-ref") {
			return true
		}
		target, ok := owners.Owner(m.RefID)
		if !ok || target == n.ID {
			return true
		}
		if _, dup := seen[target]; !dup {
			seen[target] = struct{}{}
			out = append(out, target)
		}
		return true
	})
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
