package noteservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/symark/internal/apperr"
	"github.com/starford/symark/internal/corpus"
	"github.com/starford/symark/internal/index"
	"github.com/starford/symark/internal/testutil"
)

const (
	idA = "20240101000000-aaaaaaa"
	idB = "20240102000000-bbbbbbb"
	idC = "20240103000000-ccccccc"
)

func loadCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	_, store := testutil.TestStore(t)
	testutil.WriteNote(t, store, "a.sy", testutil.Doc(idA, "Alpha", "go",
		testutil.Heading("", 2, "Intro"),
		testutil.Para("pa", testutil.Text("Alpha mentions "), testutil.Ref(idB, "")),
	))
	testutil.WriteNote(t, store, "b.sy", testutil.Doc(idB, "Beta", "go, db",
		testutil.Para("pb", testutil.Text("Beta explains sqlite indexing in depth.")),
	))
	testutil.WriteNote(t, store, "c.sy", testutil.Doc(idC, "Gamma", "",
		testutil.Para("pc", testutil.Text("Gamma links "), testutil.Ref("pb", "to beta")),
	))
	c, err := corpus.Load(store, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNotReady(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()
	if _, err := svc.GetNote(ctx, idA); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("GetNote err = %v", err)
	}
	if _, err := svc.Graph(ctx); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("Graph err = %v", err)
	}
	if _, _, err := svc.ListNotes(ctx, 10, 0, ""); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("ListNotes err = %v", err)
	}
}

func TestGetNote(t *testing.T) {
	svc := NewService(nil)
	svc.Swap(loadCorpus(t))

	n, err := svc.GetNote(context.Background(), idA)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Title != "Alpha" || n.Path != "a.sy" || n.URL != idA+".html" {
		t.Errorf("note = %+v", n)
	}
	if !strings.Contains(n.HTML, `href="`+idB+`.html"`) {
		t.Errorf("html missing ref link: %s", n.HTML)
	}
	if len(n.TOC) != 1 || n.TOC[0].ID != "heading-0" {
		t.Errorf("toc = %+v", n.TOC)
	}
	if len(n.Links) != 1 || n.Links[0] != idB {
		t.Errorf("links = %v", n.Links)
	}
	if n.Backlinks == nil || len(n.Backlinks) != 0 {
		t.Errorf("backlinks = %#v, want empty slice", n.Backlinks)
	}

	if _, err := svc.GetNote(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestBacklinks(t *testing.T) {
	svc := NewService(nil)
	svc.Swap(loadCorpus(t))

	got, err := svc.Backlinks(context.Background(), idB)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != idA+","+idC {
		t.Errorf("backlinks = %v", got)
	}
}

func TestListNotes_Memory(t *testing.T) {
	svc := NewService(nil)
	svc.Swap(loadCorpus(t))
	ctx := context.Background()

	tests := []struct {
		name          string
		limit, offset int
		tag           string
		wantIDs       []string
		wantTotal     int
	}{
		{"all", 0, 0, "", []string{idA, idB, idC}, 3},
		{"paged", 1, 1, "", []string{idB}, 3},
		{"past end", 5, 10, "", nil, 3},
		{"tag", 10, 0, "go", []string{idA, idB}, 2},
		{"unknown tag", 10, 0, "nope", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := svc.ListNotes(ctx, tt.limit, tt.offset, tt.tag)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") || total != tt.wantTotal {
				t.Errorf("ids = %v total = %d, want %v %d", ids, total, tt.wantIDs, tt.wantTotal)
			}
		})
	}
}

func TestSearch_Memory(t *testing.T) {
	svc := NewService(nil)
	svc.Swap(loadCorpus(t))
	ctx := context.Background()

	hits, err := svc.Search(ctx, "SQLITE", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != idB || !strings.Contains(hits[0].Snippet, "sqlite indexing") {
		t.Errorf("hits = %+v", hits)
	}

	hits, _ = svc.Search(ctx, "gamma", 0)
	if len(hits) != 1 || hits[0].URL != idC+".html" {
		t.Errorf("title hits = %+v", hits)
	}

	if _, err := svc.Search(ctx, "  ", 0); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty query err = %v", err)
	}
}

func TestWithIndex(t *testing.T) {
	db := testutil.TestDB(t)
	c := loadCorpus(t)
	if err := index.Sync(db, c, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	svc := NewService(db)
	svc.Swap(c)
	ctx := context.Background()

	items, total, err := svc.ListNotes(ctx, 10, 0, "db")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].ID != idB || items[0].Path != "b.sy" {
		t.Errorf("items = %+v total = %d", items, total)
	}

	hits, err := svc.Search(ctx, "indexing", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != idB {
		t.Errorf("hits = %+v", hits)
	}
}

func TestGraphAndTags(t *testing.T) {
	svc := NewService(nil)
	svc.Swap(loadCorpus(t))
	ctx := context.Background()

	g, err := svc.Graph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 3 || len(g.Links) != 2 {
		t.Errorf("graph = %+v", g)
	}
	tags, _ := svc.Tags(ctx)
	if strings.Join(tags, ",") != "db,go" {
		t.Errorf("tags = %v", tags)
	}
}

func TestSnippet(t *testing.T) {
	body := strings.Repeat("a", 100) + " needle " + "tail"
	got := snippet(body, 101)
	if !strings.HasPrefix(got, "...") || !strings.Contains(got, "needle tail") {
		t.Errorf("snippet = %q", got)
	}
	if got := snippet("short", -1); got != "short" {
		t.Errorf("snippet = %q", got)
	}
}
