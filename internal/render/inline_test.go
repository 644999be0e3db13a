package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/starford/symark/internal/models"
)

func mark(types, content string) *models.TextMark {
	return &models.TextMark{Types: types, Content: content}
}

func TestTextMark_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		mark *models.TextMark
		want string
	}{
		{"link", &models.TextMark{Types: "a", Content: "go", Href: "https://go.dev"},
			`<a href="https://go.dev" target="_blank" class="link">go</a>`},
		{"code", mark("code", "x < y"), `<code>x &lt; y</code>`},
		{"strong", mark("strong", "b"), `<strong>b</strong>`},
		{"strong link", &models.TextMark{Types: "a strong", Content: "b", Href: "u"},
			`<a href="u" target="_blank" class="link"><strong>b</strong></a>`},
		{"em", mark("em", "i"), `<em>i</em>`},
		{"em link", &models.TextMark{Types: "em", Content: "i", Href: "u"},
			`<a href="u" target="_blank" class="link"><em>i</em></a>`},
		{"underline", mark("u", "x"), `<u>x</u>`},
		{"strike", mark("s", "x"), `<s>x</s>`},
		{"sub", mark("sub", "x"), `<sub>x</sub>`},
		{"sup", mark("sup", "x"), `<sup>x</sup>`},
		{"kbd", mark("kbd", "x"), `<kbd>x</kbd>`},
		{"mark", mark("mark", "x"), `<mark>x</mark>`},
		{"text plain", mark("text", "t&"), `t&amp;`},
		{"strong text", mark("strong text", "bold"), `<strong>bold</strong>`},
		{"text strong id", &models.TextMark{Types: "text strong", Content: "b", Node: models.Node{ID: "m2"}},
			`<strong id="m2">b</strong>`},
		{"tag", mark("tag", "deep learning"), `<a href="tag_deep_learning.html" class="tag"># deep learning</a>`},
		{"math", mark("inline-math", `a<b`), `<span class="math-inline">a&lt;b</span>`},
		{"memo", &models.TextMark{Types: "inline-memo", Content: "word", Memo: `say "hi"`},
			`<span title="say &quot;hi&quot;">word</span>`},
		{"unknown", mark("sparkle", "<x>"), `&lt;x&gt;`},
		{"id", &models.TextMark{Types: "em", Content: "i", Node: models.Node{ID: "m1"}}, `<em id="m1">i</em>`},
	}
	for _, tt := range tests {
		got := renderer().Block(tt.mark)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTextMark_StyledText(t *testing.T) {
	m := &models.TextMark{Types: "text strong", Content: "warn"}
	m.Style = "background-color: var(--b3-card-warning-background); color: var(--b3-card-warning-color);"
	if got := renderer().Block(m); got != `<strong class="inline-warning-box">warn</strong>` {
		t.Errorf("themed strong text: %q", got)
	}

	m.Types = "text"
	m.Style = "color: red"
	if got := renderer().Block(m); got != `<span style="color: red">warn</span>` {
		t.Errorf("custom text: %q", got)
	}

	m.Style = "background: yellow"
	if got := renderer().Block(m); got != `<span class="inline-custom-box" style="background: yellow">warn</span>` {
		t.Errorf("custom background text: %q", got)
	}
}

func TestBlockRef_Missing(t *testing.T) {
	m := &models.TextMark{Types: "block-ref", Content: "see", RefID: "nowhere"}
	got := renderer().Block(m)
	want := `<span title="Missing reference: nowhere">see</span>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBlockRef_Note(t *testing.T) {
	target := &models.Note{ID: "n2", Properties: models.Properties{Title: "Target"}, Children: []models.Block{
		&models.Heading{Level: 1},
		para("", text("First <p>")),
		para("", text("Second")),
		para("", text("Third")),
	}}
	r := renderer(target)

	got := r.Block(&models.TextMark{Types: "block-ref", RefID: "n2"})
	want := `<span class="tooltip"><a href="n2.html">Target</a><span class="right bottom">` +
		`<span class="tooltip-title">Target</span><span class="tooltip-excerpt">First &lt;p&gt;<br>Second</span><i></i></span></span>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = r.Block(&models.TextMark{Types: "block-ref", Content: "custom", RefID: "n2"})
	if !strings.Contains(got, `<a href="n2.html">custom</a>`) {
		t.Errorf("mark text should win: %q", got)
	}
}

func TestBlockRef_SubBlock(t *testing.T) {
	target := &models.Note{ID: "n2", Children: []models.Block{para("b1", text("only this"))}}
	got := renderer(target).Block(&models.TextMark{Types: "block-ref", RefID: "b1"})
	if !strings.Contains(got, `<a href="n2.html#b1">b1</a>`) {
		t.Errorf("block target should link with anchor and fall back to id: %q", got)
	}
	if !strings.Contains(got, `<span class="tooltip-excerpt">only this</span>`) {
		t.Errorf("excerpt from the paragraph itself: %q", got)
	}
}

func TestBlockRef_ExcerptTruncated(t *testing.T) {
	long := strings.Repeat("é", 400)
	target := &models.Note{ID: "n2", Children: []models.Block{para("", text(long))}}
	got := renderer(target).Block(&models.TextMark{Types: "block-ref", RefID: "n2"})
	want := strings.Repeat("é", ExcerptLimit) + "..."
	if !strings.Contains(got, `<span class="tooltip-excerpt">`+want+`</span>`) {
		t.Errorf("excerpt not truncated at %d runes", ExcerptLimit)
	}
}

func TestBlockRef_ExcerptBoundAfterEscaping(t *testing.T) {
	target := &models.Note{ID: "n2", Children: []models.Block{para("", text("a"+strings.Repeat("<", 400)))}}
	got := renderer(target).Block(&models.TextMark{Types: "block-ref", RefID: "n2"})

	start := strings.Index(got, `<span class="tooltip-excerpt">`) + len(`<span class="tooltip-excerpt">`)
	end := strings.Index(got[start:], "</span>")
	excerpt := got[start : start+end]
	if n := utf8.RuneCountInString(excerpt); n > ExcerptLimit+len("...") {
		t.Errorf("excerpt has %d runes, limit %d", n, ExcerptLimit)
	}
	want := "a" + strings.Repeat("&lt;", 74) + "..."
	if excerpt != want {
		t.Errorf("excerpt = %q, want %q", excerpt, want)
	}
}

func TestBlockRef_ExcerptJoinsParagraphs(t *testing.T) {
	target := &models.Note{ID: "n2", Children: []models.Block{
		para("", text("one & two")),
		para("", text("three")),
		para("", text("ignored")),
	}}
	got := renderer(target).Block(&models.TextMark{Types: "block-ref", RefID: "n2"})
	if !strings.Contains(got, `<span class="tooltip-excerpt">one &amp; two<br>three</span>`) {
		t.Errorf("excerpt = %q", got)
	}
}

func TestBlockRef_HeadingTargetExcerpt(t *testing.T) {
	heading := &models.Heading{Level: 2, Node: models.Node{ID: "h1", Children: []models.Block{text("Setup & usage")}}}
	target := &models.Note{ID: "n2", Children: []models.Block{heading}}
	got := renderer(target).Block(&models.TextMark{Types: "block-ref", RefID: "h1"})
	if !strings.Contains(got, `<span class="tooltip-excerpt">Setup &amp; usage</span>`) {
		t.Errorf("heading target should use its own text: %q", got)
	}
}

func TestTruncateMarkup(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"ab&amp;cd", 4, "ab..."},
		{"ab&amp;cd", 7, "ab&amp;..."},
		{"one<br>two", 5, "one..."},
		{"one<br>two", 8, "one<br>t..."},
	}
	for _, tt := range tests {
		if got := truncateMarkup(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateMarkup(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
