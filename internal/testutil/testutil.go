// Package testutil provides shared test helpers for note stores, databases
// and .sy documents.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/starford/symark/internal/index"
	"github.com/starford/symark/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "symark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary directory with a storage provider.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Doc returns a .sy document with the given properties and child nodes.
func Doc(id, title, tags string, children ...string) string {
	return fmt.Sprintf(`{"ID":%s,"Type":"NodeDocument","Properties":{"id":%s,"title":%s,"tags":%s},"Children":[%s]}`,
		quote(id), quote(id), quote(title), quote(tags), strings.Join(children, ","))
}

// Para returns a paragraph node holding the given inline nodes.
func Para(id string, inline ...string) string {
	return fmt.Sprintf(`{"ID":%s,"Type":"NodeParagraph","Children":[%s]}`, quote(id), strings.Join(inline, ","))
}

// Text returns a text node.
func Text(s string) string {
	return fmt.Sprintf(`{"Type":"NodeText","Data":%s}`, quote(s))
}

// Ref returns a block-ref text mark pointing at target.
func Ref(target, label string) string {
	return fmt.Sprintf(`{"Type":"NodeTextMark","TextMarkType":"block-ref","TextMarkBlockRefID":%s,"TextMarkTextContent":%s}`,
		quote(target), quote(label))
}

// Heading returns a heading node with a single text child.
func Heading(id string, level int, text string) string {
	return fmt.Sprintf(`{"ID":%s,"Type":"NodeHeading","HeadingLevel":%d,"Children":[%s]}`, quote(id), level, Text(text))
}

// WriteNote stores doc under path, failing the test on error.
func WriteNote(t *testing.T, store storage.Provider, path, doc string) {
	t.Helper()
	if err := store.Write(path, []byte(doc)); err != nil {
		t.Fatal(err)
	}
}
