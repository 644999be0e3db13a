package render

import (
	"fmt"

	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/xref"
)

// simpleMarks wrap escaped text in a tag of the same name.
var simpleMarks = []string{"u", "s", "sub", "sup", "kbd", "mark"}

// textMark renders an inline span. Marks combining several types are
// dispatched on the first matching type in the order below.
func (r *Renderer) textMark(m *models.TextMark) string {
	id := idAttr(m.ID)
	text := Escape(m.Content)

	switch {
	case m.HasType("block-ref"):
		return r.blockRef(m)
	case m.HasType("tag"):
		return fmt.Sprintf(`<a%s href="%s" class="tag"># %s</a>`, id, Escape(xref.TagURL(m.Content)), text)
	case m.HasType("inline-math"):
		return fmt.Sprintf(`<span%s class="math-inline">%s</span>`, id, text)
	case m.HasType("inline-memo"):
		return fmt.Sprintf(`<span%s title="%s">%s</span>`, id, Escape(m.Memo), text)
	case m.HasType("code"):
		return fmt.Sprintf("<code%s>%s</code>", id, text)
	case m.HasType("strong") && !m.HasType("text"):
		if m.Href != "" {
			return fmt.Sprintf(`<a%s href="%s" target="_blank" class="link"><strong%s>%s</strong></a>`,
				id, Escape(m.Href), styleAttrs(m.Style, true), text)
		}
		return fmt.Sprintf("<strong%s%s>%s</strong>", id, styleAttrs(m.Style, true), text)
	case m.HasType("text"):
		tag := "span"
		if m.HasType("strong") {
			tag = "strong"
		}
		if m.Style == "" && tag == "span" {
			return text
		}
		return fmt.Sprintf("<%s%s%s>%s</%s>", tag, id, styleAttrs(m.Style, true), text, tag)
	case m.HasType("em"):
		if m.Href != "" {
			return fmt.Sprintf(`<a%s href="%s" target="_blank" class="link"><em>%s</em></a>`, id, Escape(m.Href), text)
		}
		return fmt.Sprintf("<em%s>%s</em>", id, text)
	case m.HasType("a"):
		return fmt.Sprintf(`<a%s href="%s" target="_blank" class="link">%s</a>`, id, Escape(m.Href), text)
	}

	for _, tag := range simpleMarks {
		if m.HasType(tag) {
			return fmt.Sprintf("<%s%s>%s</%s>", tag, id, text, tag)
		}
	}
	return text
}

// blockRef renders a reference with a hover card. Unresolved targets render
// as a titled span instead of a link.
func (r *Renderer) blockRef(m *models.TextMark) string {
	id := idAttr(m.ID)
	t, ok := r.res.Resolve(m.RefID)
	if !ok {
		return fmt.Sprintf(`<span%s title="Missing reference: %s">%s</span>`, id, Escape(m.RefID), Escape(m.Content))
	}

	label := m.Content
	if label == "" {
		label = t.Note.Properties.Title
	}
	if label == "" {
		label = m.RefID
	}

	return fmt.Sprintf(`<span%s class="tooltip"><a href="%s">%s</a>`+
		`<span class="right bottom"><span class="tooltip-title">%s</span><span class="tooltip-excerpt">%s</span><i></i></span></span>`,
		id, Escape(t.URL()), Escape(label), Escape(t.Note.Title()), Excerpt(t))
}
