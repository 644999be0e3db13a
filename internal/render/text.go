package render

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/xref"
)

// ExcerptLimit is the rune budget of tooltip excerpts.
const ExcerptLimit = 300

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces the five HTML-significant characters.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Truncate cuts s to at most limit runes and appends "..." when it was cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// InlineText concatenates the text of direct Text and TextMark children.
func InlineText(blocks []models.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch v := b.(type) {
		case *models.Text:
			sb.WriteString(v.Data)
		case *models.TextMark:
			sb.WriteString(v.Content)
		}
	}
	return sb.String()
}

// PlainText flattens a block tree into text, one line per paragraph-like
// block.
func PlainText(blocks []models.Block) string {
	var sb strings.Builder
	models.Walk(blocks, func(b models.Block) bool {
		switch v := b.(type) {
		case *models.Paragraph, *models.Heading, *models.TableCell, *models.CodeBlock:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		case *models.Text:
			sb.WriteString(v.Data)
		case *models.TextMark:
			sb.WriteString(v.Content)
		case *models.CodeContent:
			sb.WriteString(v.Text)
		}
		return true
	})
	return strings.TrimSpace(sb.String())
}

// ParagraphText returns the inline text of the first n paragraphs among
// blocks, one per line.
func ParagraphText(blocks []models.Block, n int) []string {
	var out []string
	for _, b := range blocks {
		if len(out) == n {
			break
		}
		p, ok := b.(*models.Paragraph)
		if !ok {
			continue
		}
		out = append(out, strings.TrimSpace(InlineText(p.Children)))
	}
	return out
}

// Excerpt returns the tooltip excerpt for a resolved target: the first two
// paragraphs, each escaped, joined by <br> and cut to ExcerptLimit runes.
// A target block without paragraphs contributes its own inline text.
func Excerpt(t xref.Target) string {
	var parts []string
	switch b := t.Block.(type) {
	case nil:
		parts = ParagraphText(t.Note.Children, 2)
	case *models.Paragraph:
		parts = ParagraphText([]models.Block{b}, 1)
	default:
		parts = ParagraphText(models.Content(b), 2)
		if len(parts) == 0 {
			if s := strings.TrimSpace(InlineText(models.Content(b))); s != "" {
				parts = []string{s}
			}
		}
	}
	for i, p := range parts {
		parts[i] = Escape(p)
	}
	return truncateMarkup(strings.Join(parts, "<br>"), ExcerptLimit)
}

// truncateMarkup is Truncate for escaped text: a cut that would split an
// entity or a tag backs off to just before it.
func truncateMarkup(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := Truncate(s, limit)
	head := cut[:len(cut)-len("...")]
	if amp := strings.LastIndexByte(head, '&'); amp >= 0 && !strings.Contains(head[amp:], ";") {
		head = head[:amp]
	}
	if lt := strings.LastIndexByte(head, '<'); lt >= 0 && !strings.Contains(head[lt:], ">") {
		head = head[:lt]
	}
	return head + "..."
}
