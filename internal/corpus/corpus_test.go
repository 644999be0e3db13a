package corpus

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/symark/internal/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

const noteA = `{"ID":"20240101000000-aaaaaaa","Type":"NodeDocument","Properties":{"title":"A"},"Children":[
 {"ID":"pa","Type":"NodeParagraph","Children":[{"Type":"NodeTextMark","TextMarkType":"block-ref","TextMarkBlockRefID":"pb"}]}]}`

const noteB = `{"ID":"20240102000000-bbbbbbb","Type":"NodeDocument","Properties":{"title":"B"},"Children":[
 {"ID":"pb","Type":"NodeParagraph","Children":[{"Type":"NodeText","Data":"hello"}]}]}`

func TestLoad(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("box/a.sy", []byte(noteA))
	_ = store.Write("box/b.sy", []byte(noteB))
	_ = store.Write("box/broken.sy", []byte("{not json"))
	_ = store.Write("box/readme.md", []byte("# ignored"))

	c, err := Load(store, discard())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(c.Notes))
	}
	if c.Sources["20240101000000-aaaaaaa"].Path != "box/a.sy" {
		t.Errorf("source = %+v", c.Sources["20240101000000-aaaaaaa"])
	}

	bl := c.Backlinks("20240102000000-bbbbbbb")
	if len(bl) != 1 || bl[0] != "20240101000000-aaaaaaa" {
		t.Errorf("backlinks = %v", bl)
	}
	if len(c.Backlinks("20240101000000-aaaaaaa")) != 0 {
		t.Error("a has no backlinks")
	}

	g := c.Graph()
	if len(g.Links) != 1 {
		t.Errorf("graph links = %+v", g.Links)
	}
}

func TestLoad_Empty(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := Load(store, discard())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Notes) != 0 {
		t.Errorf("notes = %d, want 0", len(c.Notes))
	}
}
