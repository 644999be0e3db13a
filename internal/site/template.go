package site

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/symark/internal/apperr"
	"github.com/starford/symark/internal/storage"
)

//go:embed assets/*
var defaults embed.FS

// Template file names, looked up in the template directory first.
const (
	PageTemplate = "page.html"
	StylesFile   = "styles.css"
	GraphScript  = "graph.js"
)

// Templates holds the page template and the static files copied verbatim
// into the output.
type Templates struct {
	Page   string
	Styles string
	Graph  string
}

// LoadTemplates reads the templates from dir, falling back to the embedded
// defaults for an empty dir, a missing dir, or any file dir lacks.
func LoadTemplates(dir string) (*Templates, error) {
	var custom storage.Provider
	if dir != "" {
		if fsys, err := storage.NewFS(dir); err == nil {
			custom = fsys
		}
	}

	t := &Templates{}
	for name, dst := range map[string]*string{
		PageTemplate: &t.Page,
		StylesFile:   &t.Styles,
		GraphScript:  &t.Graph,
	} {
		data, err := loadOne(custom, name)
		if err != nil {
			return nil, err
		}
		*dst = RemoveZeroWidth(string(data))
	}
	return t, nil
}

func loadOne(custom storage.Provider, name string) ([]byte, error) {
	if custom != nil {
		data, err := custom.Read(name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("site: template %s: %w", name, err)
		}
	}
	data, err := defaults.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("site: embedded template %s: %w", name, err)
	}
	return data, nil
}

// Fill substitutes {{name}} placeholders of tpl in a single pass. Values are
// inserted as-is and never rescanned. {{#name}}…{{/name}} sections listed as
// false in sections are commented out; any other placeholder, including
// unknown sections, is dropped.
func Fill(tpl string, vars map[string]string, sections map[string]bool) string {
	var sb strings.Builder
	sb.Grow(len(tpl))
	rest := tpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:start])
		name := strings.TrimSpace(rest[start+2 : start+end])
		rest = rest[start+end+2:]

		switch {
		case strings.HasPrefix(name, "#"):
			if on, ok := sections[name[1:]]; ok && !on {
				sb.WriteString("<!-- ")
			}
		case strings.HasPrefix(name, "/"):
			if on, ok := sections[name[1:]]; ok && !on {
				sb.WriteString(" -->")
			}
		default:
			sb.WriteString(vars[name])
		}
	}
	return dropEmptyMeta(sb.String())
}

// dropEmptyMeta removes OpenGraph and article meta lines left without a
// value.
func dropEmptyMeta(html string) string {
	lines := strings.Split(html, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		isMeta := strings.HasPrefix(trimmed, `<meta property="og:`) ||
			strings.HasPrefix(trimmed, `<meta property="article:`)
		if isMeta && (strings.Contains(trimmed, `content=""`) || strings.Contains(trimmed, `content="{{`)) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

const zeroWidthJoiner = '\u200D'

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u2060', '\u200E', '\u200F':
		return true
	}
	return false
}

func isEmojiStart(r rune) bool {
	return (r >= 0x1F000 && r <= 0x1FFFF) ||
		(r >= 0x2300 && r <= 0x23FF) ||
		(r >= 0x2600 && r <= 0x27FF)
}

func isEmojiModifier(r rune) bool {
	return (r >= 0x1F3FB && r <= 0x1F3FF) || r == '\uFE0F'
}

// RemoveZeroWidth strips zero-width spaces, non-joiners, word joiners and
// direction marks. Zero-width joiners survive inside emoji sequences.
func RemoveZeroWidth(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isZeroWidth(r) {
			continue
		}
		sb.WriteRune(r)
		if isEmojiStart(r) {
			i = emojiTail(&sb, runes, i)
		}
	}
	return sb.String()
}

// emojiTail copies the joined parts and modifiers that follow the emoji at
// runes[i] and returns the index of the last rune consumed.
func emojiTail(sb *strings.Builder, runes []rune, i int) int {
	for i+1 < len(runes) {
		next := runes[i+1]
		switch {
		case next == zeroWidthJoiner && i+2 < len(runes):
			sb.WriteRune(next)
			sb.WriteRune(runes[i+2])
			i += 2
		case isEmojiModifier(next):
			sb.WriteRune(next)
			i++
		default:
			return i
		}
	}
	return i
}
