// Package render turns note block trees into HTML fragments.
//
// Rendering never fails: unresolved references and unknown node kinds
// degrade to visible placeholders or to their children.
package render

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/xref"
)

// Resolver looks up notes and blocks by id.
type Resolver interface {
	Resolve(id string) (xref.Target, bool)
	Block(id string) (xref.Target, bool)
}

const (
	taskItemOpen       = `<li%s style="position: relative; padding-left: 30px; margin-bottom: 12px; list-style: none; ">`
	taskCheckedBox     = `<span class="task-checkbox-checked" style="position: absolute; left: 0; top: 2px; display: inline-block; width: 20px; height: 20px; border: 2px solid #bdc3c7; background-color: #3498db; border-color: #3498db; border-radius: 2px;"></span>`
	taskUncheckedBox   = `<span class="task-checkbox-unchecked" style="position: absolute; left: 0; top: 2px; display: inline-block; width: 20px; height: 20px; border: 2px solid #bdc3c7; background-color: #ecf0f1; border-radius: 2px;"></span>`
	taskCompleteOpen   = `<span class="task-complete" style="text-decoration: line-through; color: #7f8c8d;">`
	superBlockColOpen  = `<div class="superblock superblock-col">` + "\n"
	embedScriptIDStart = "id='"
)

// Renderer renders block trees. A Renderer holds per-pass state and must not
// be shared between goroutines; create one per page.
type Renderer struct {
	res Resolver

	// headingIDs holds the synthetic ids assigned by the current Page pass.
	headingIDs map[*models.Heading]string
	// embedding is the stack of transcluded ids being rendered.
	embedding []string
	aligns    []int
}

// New creates a Renderer resolving references through res.
func New(res Resolver) *Renderer {
	return &Renderer{res: res}
}

// Blocks renders a block sequence.
func (r *Renderer) Blocks(blocks []models.Block) string {
	var sb strings.Builder
	r.writeAll(&sb, blocks)
	return sb.String()
}

// Block renders a single block.
func (r *Renderer) Block(b models.Block) string {
	var sb strings.Builder
	r.write(&sb, b)
	return sb.String()
}

// Page renders a note body with synthetic heading ids and returns the
// matching outline.
func (r *Renderer) Page(blocks []models.Block) (string, []TocItem) {
	p := &tocPass{ids: make(map[*models.Heading]string)}
	p.walk(blocks)
	r.headingIDs = p.ids
	defer func() { r.headingIDs = nil }()
	return r.Blocks(blocks), p.items
}

func (r *Renderer) writeAll(sb *strings.Builder, blocks []models.Block) {
	for _, b := range blocks {
		r.write(sb, b)
	}
}

func (r *Renderer) write(sb *strings.Builder, b models.Block) {
	if models.IsMarker(b) {
		return
	}
	n := b.Base()
	switch v := b.(type) {
	case *models.Paragraph:
		fmt.Fprintf(sb, "<p%s%s>", idAttr(n.ID), styleAttrs(n.Style, false))
		r.writeAll(sb, n.Children)
		sb.WriteString("</p>\n")
	case *models.Heading:
		r.heading(sb, v)
	case *models.List:
		tag := "ul"
		if v.Kind == models.ListOrdered {
			tag = "ol"
		}
		fmt.Fprintf(sb, "<%s%s%s>\n", tag, idAttr(n.ID), styleAttrs(n.Style, false))
		r.writeAll(sb, n.Children)
		fmt.Fprintf(sb, "</%s>\n", tag)
	case *models.ListItem:
		r.listItem(sb, v)
	case *models.Blockquote:
		fmt.Fprintf(sb, "<blockquote%s%s>", idAttr(n.ID), styleAttrs(n.Style, false))
		r.writeAll(sb, n.Children)
		sb.WriteString("</blockquote>\n")
	case *models.ThematicBreak:
		fmt.Fprintf(sb, "<hr%s>\n", idAttr(n.ID))
	case *models.Table:
		prev := r.aligns
		r.aligns = v.Aligns
		fmt.Fprintf(sb, "<table%s%s>\n", idAttr(n.ID), styleAttrs(n.Style, false))
		r.writeAll(sb, n.Children)
		sb.WriteString("</table>\n")
		r.aligns = prev
	case *models.TableHead:
		fmt.Fprintf(sb, "<thead%s>\n", idAttr(n.ID))
		r.writeAll(sb, n.Children)
		sb.WriteString("</thead>\n")
	case *models.TableRow:
		fmt.Fprintf(sb, "<tr%s>\n", idAttr(n.ID))
		col := 0
		for _, c := range n.Children {
			if cell, ok := c.(*models.TableCell); ok {
				r.cell(sb, cell, col)
				col++
				continue
			}
			r.write(sb, c)
		}
		sb.WriteString("</tr>\n")
	case *models.TableCell:
		r.cell(sb, v, -1)
	case *models.CodeBlock:
		r.codeBlock(sb, v)
	case *models.CodeContent:
		sb.WriteString(Escape(v.Text))
	case *models.Text:
		if n.ID != "" {
			fmt.Fprintf(sb, "<span%s>%s</span>", idAttr(n.ID), Escape(v.Data))
		} else {
			sb.WriteString(Escape(v.Data))
		}
	case *models.TextMark:
		sb.WriteString(r.textMark(v))
	case *models.Image:
		r.image(sb, v)
	case *models.LineBreak:
		fmt.Fprintf(sb, "<br%s>", idAttr(n.ID))
	case *models.SuperBlock:
		r.superBlock(sb, v)
	case *models.QueryEmbed:
		r.embed(sb, v)
	case *models.LinkDest, *models.LinkText, *models.LinkTitle, *models.QueryEmbedScript:
		// Consumed by their parents.
	default:
		r.writeAll(sb, n.Children)
	}
}

func (r *Renderer) heading(sb *strings.Builder, h *models.Heading) {
	level := clampLevel(h.Level)
	id := h.ID
	if id == "" && len(r.embedding) == 0 {
		id = r.headingIDs[h]
	}
	fmt.Fprintf(sb, "<h%d%s%s>", level, idAttr(id), styleAttrs(h.Style, false))
	r.writeAll(sb, h.Children)
	fmt.Fprintf(sb, "</h%d>\n", level)
}

func (r *Renderer) listItem(sb *strings.Builder, li *models.ListItem) {
	var marker *models.TaskMarker
	for _, c := range li.Children {
		if m, ok := c.(*models.TaskMarker); ok {
			marker = m
			break
		}
	}

	if marker != nil {
		fmt.Fprintf(sb, taskItemOpen, idAttr(li.ID))
		if marker.Checked {
			sb.WriteString(taskCheckedBox)
			sb.WriteString(taskCompleteOpen)
			r.writeAll(sb, models.Content(li))
			sb.WriteString("</span>")
		} else {
			sb.WriteString(taskUncheckedBox)
			r.writeAll(sb, models.Content(li))
		}
		sb.WriteString("</li>\n")
		return
	}

	// Adjacent paragraphs share the first one's wrapper.
	fmt.Fprintf(sb, "<li%s%s>", idAttr(li.ID), styleAttrs(li.Style, false))
	lastWasParagraph := false
	for _, c := range li.Children {
		p, ok := c.(*models.Paragraph)
		switch {
		case ok && lastWasParagraph:
			r.writeAll(sb, p.Children)
		case ok:
			r.write(sb, p)
			lastWasParagraph = true
		default:
			r.write(sb, c)
			lastWasParagraph = false
		}
	}
	sb.WriteString("</li>\n")
}

func (r *Renderer) cell(sb *strings.Builder, c *models.TableCell, col int) {
	tag := "td"
	if c.Header {
		tag = "th"
	}
	fmt.Fprintf(sb, "<%s%s%s>", tag, idAttr(c.ID), r.alignAttr(col))
	r.writeAll(sb, c.Children)
	fmt.Fprintf(sb, "</%s>\n", tag)
}

func (r *Renderer) alignAttr(col int) string {
	if col < 0 || col >= len(r.aligns) {
		return ""
	}
	switch r.aligns[col] {
	case models.AlignLeft:
		return ` style="text-align: left"`
	case models.AlignCenter:
		return ` style="text-align: center"`
	case models.AlignRight:
		return ` style="text-align: right"`
	}
	return ""
}

func (r *Renderer) codeBlock(sb *strings.Builder, c *models.CodeBlock) {
	fmt.Fprintf(sb, "<pre%s><code", idAttr(c.ID))
	if lang := codeLanguage(c.Info); lang != "" {
		fmt.Fprintf(sb, ` class="language-%s"`, Escape(lang))
	}
	sb.WriteString(">")
	for _, child := range c.Children {
		if code, ok := child.(*models.CodeContent); ok {
			sb.WriteString(Escape(code.Text))
		}
	}
	sb.WriteString("</code></pre>\n")
}

// codeLanguage decodes a possibly base64-encoded language tag. Tags that do
// not decode to printable text are used as stored.
func codeLanguage(info string) string {
	if info == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(info)
	if err != nil || len(raw) == 0 || !utf8.Valid(raw) {
		return info
	}
	for _, c := range string(raw) {
		if !unicode.IsPrint(c) {
			return info
		}
	}
	return string(raw)
}

func (r *Renderer) image(sb *strings.Builder, img *models.Image) {
	var src, alt, caption string
	hasCaption := false
	for _, c := range img.Children {
		switch v := c.(type) {
		case *models.LinkDest:
			src = v.URL
		case *models.LinkText:
			alt = v.Text
		case *models.LinkTitle:
			caption = v.Text
			hasCaption = true
		}
	}
	if src == "" {
		return
	}

	wrapped := img.ParentStyle != ""
	imgID := ""
	if !hasCaption && !wrapped {
		imgID = idAttr(img.ID)
	}
	tag := fmt.Sprintf(`<img%s src="%s" alt="%s"%s/>`, imgID, Escape(src), Escape(alt), styleAttrs(img.Style, false))

	if wrapped {
		wrapperID := ""
		if !hasCaption {
			wrapperID = idAttr(img.ID)
		}
		tag = fmt.Sprintf(`<div%s style="%s">%s</div>`, wrapperID, Escape(img.ParentStyle), tag)
	}
	if hasCaption {
		tag = fmt.Sprintf("<figure%s>%s<figcaption>%s</figcaption></figure>", idAttr(img.ID), tag, Escape(caption))
	}
	sb.WriteString(tag)
}

// superBlock lays out a container. The stored layout is inverted: "row"
// renders as a column and anything else as a row.
func (r *Renderer) superBlock(sb *strings.Builder, s *models.SuperBlock) {
	layout := "col"
	for _, c := range s.Children {
		if m, ok := c.(*models.SuperBlockLayout); ok {
			if m.Layout == "row" {
				layout = "col"
			} else {
				layout = "row"
			}
			break
		}
	}

	fmt.Fprintf(sb, `<div%s class="superblock superblock-%s">`+"\n", idAttr(s.ID), layout)
	content := models.Content(s)

	if layout == "row" {
		var nested, rest []models.Block
		for _, c := range content {
			if _, ok := c.(*models.SuperBlock); ok {
				nested = append(nested, c)
			} else {
				rest = append(rest, c)
			}
		}
		r.writeAll(sb, nested)
		if len(rest) > 0 {
			sb.WriteString(superBlockColOpen)
			r.writeAll(sb, rest)
			sb.WriteString("</div>\n")
		}
	} else {
		r.writeAll(sb, content)
	}
	sb.WriteString("</div>\n")
}

// embedID extracts the quoted id from a query such as
// "select * from blocks where id='20240101120000-abc'".
func embedID(script string) (string, bool) {
	_, rest, ok := strings.Cut(script, embedScriptIDStart)
	if !ok {
		return "", false
	}
	id, _, ok := strings.Cut(rest, "'")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (r *Renderer) embed(sb *strings.Builder, e *models.QueryEmbed) {
	var script *models.QueryEmbedScript
	for _, c := range e.Children {
		if s, ok := c.(*models.QueryEmbedScript); ok {
			script = s
			break
		}
	}
	if script == nil {
		r.writeAll(sb, e.Children)
		return
	}
	id, ok := embedID(script.Script)
	if !ok {
		r.writeAll(sb, e.Children)
		return
	}

	url := "#" + id
	if t, ok := r.res.Resolve(id); ok {
		url = t.URL()
	}
	fmt.Fprintf(sb, `<div%s class="transcluded-block"><a href="%s" class="source-link">Go to source</a>`,
		idAttr(e.ID), Escape(url))

	for _, open := range r.embedding {
		if open == id {
			fmt.Fprintf(sb, "<p><em>Transclusion cycle: %s</em></p></div>", Escape(id))
			return
		}
	}

	r.embedding = append(r.embedding, id)
	if t, ok := r.res.Block(id); ok {
		r.write(sb, t.Block)
	} else if t, ok := r.res.Resolve(id); ok {
		r.writeAll(sb, t.Content())
	} else {
		fmt.Fprintf(sb, "<p><em>Transcluded content not found: %s</em></p>", Escape(id))
	}
	r.embedding = r.embedding[:len(r.embedding)-1]
	sb.WriteString("</div>")
}
