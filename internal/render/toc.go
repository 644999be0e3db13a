package render

import (
	"fmt"
	"strings"

	"github.com/starford/symark/internal/models"
)

// TocItem is one heading of a page outline.
type TocItem struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// tocPass assigns synthetic heading ids in document order. The counter
// advances on every heading, so heading-N names the N-th heading of the page
// whether or not earlier headings carried their own id.
type tocPass struct {
	next  int
	items []TocItem
	ids   map[*models.Heading]string
}

func (p *tocPass) walk(blocks []models.Block) {
	models.Walk(blocks, func(b models.Block) bool {
		h, ok := b.(*models.Heading)
		if !ok {
			return true
		}
		id := h.ID
		if id == "" {
			id = fmt.Sprintf("heading-%d", p.next)
			p.ids[h] = id
		}
		p.next++
		p.items = append(p.items, TocItem{
			ID:    id,
			Text:  strings.TrimSpace(InlineText(h.Children)),
			Level: clampLevel(h.Level),
		})
		return true
	})
}

// ExtractTOC collects every heading of blocks, at any depth, in document
// order. Headings without an id get heading-N, matching the ids Page emits.
func ExtractTOC(blocks []models.Block) []TocItem {
	p := &tocPass{ids: make(map[*models.Heading]string)}
	p.walk(blocks)
	return p.items
}

// TOCHTML renders the level 2 and 3 entries as list items.
func TOCHTML(items []TocItem) string {
	var sb strings.Builder
	for _, it := range items {
		if it.Level < 2 || it.Level > 3 {
			continue
		}
		class := ""
		if it.Level == 3 {
			class = " toc-subitem"
		}
		fmt.Fprintf(&sb, `<li class="toc-item%s"><a class="toc-link" href="#%s">%s</a></li>`+"\n",
			class, Escape(it.ID), Escape(it.Text))
	}
	if sb.Len() == 0 {
		return `<li class="toc-item"><em>No headings found</em></li>` + "\n"
	}
	return sb.String()
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	}
	return level
}
