package render

import (
	"strings"
	"testing"

	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/xref"
)

func text(s string) *models.Text { return &models.Text{Data: s} }

func para(id string, children ...models.Block) *models.Paragraph {
	return &models.Paragraph{Node: models.Node{ID: id, Children: children}}
}

func renderer(notes ...*models.Note) *Renderer {
	return New(xref.New(models.NewIndex(notes...)))
}

func TestRender_ParagraphEscapes(t *testing.T) {
	got := renderer().Block(para("", text("Hello & <world>")))
	want := "<p>Hello &amp; &lt;world&gt;</p>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_OrderedList(t *testing.T) {
	list := &models.List{Kind: models.ListOrdered, Node: models.Node{Children: []models.Block{
		&models.ListItem{Node: models.Node{Children: []models.Block{para("", text("Item"))}}},
	}}}
	got := renderer().Block(list)
	want := "<ol>\n<li><p>Item</p>\n</li>\n</ol>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_ListKinds(t *testing.T) {
	tests := []struct {
		kind models.ListKind
		tag  string
	}{
		{models.ListUnordered, "<ul>"},
		{models.ListOrdered, "<ol>"},
		{models.ListTask, "<ul>"},
	}
	for _, tt := range tests {
		got := renderer().Block(&models.List{Kind: tt.kind})
		if !strings.HasPrefix(got, tt.tag) {
			t.Errorf("kind %d: got %q, want prefix %s", tt.kind, got, tt.tag)
		}
	}
}

func TestRender_ListItemCollapsesParagraphs(t *testing.T) {
	li := &models.ListItem{Node: models.Node{Children: []models.Block{
		para("", text("one")),
		para("", text("two")),
	}}}
	got := renderer().Block(li)
	want := "<li><p>one</p>\ntwo</li>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_TaskItem(t *testing.T) {
	item := func(checked bool) *models.ListItem {
		return &models.ListItem{Node: models.Node{ID: "li", Children: []models.Block{
			&models.TaskMarker{Checked: checked},
			para("", text("done")),
		}}}
	}

	got := renderer().Block(item(true))
	if !strings.Contains(got, "task-checkbox-checked") {
		t.Errorf("checked item missing checked indicator: %q", got)
	}
	if !strings.Contains(got, `<span class="task-complete"`) || !strings.Contains(got, "<p>done</p>\n</span></li>") {
		t.Errorf("checked item content not wrapped: %q", got)
	}
	if strings.Count(got, `id="li"`) != 1 {
		t.Errorf("id should appear once: %q", got)
	}

	got = renderer().Block(item(false))
	if !strings.Contains(got, "task-checkbox-unchecked") || strings.Contains(got, "task-complete") {
		t.Errorf("unchecked item: %q", got)
	}
}

func TestRender_SuperBlockLayoutInversion(t *testing.T) {
	sb := func(layout string) *models.SuperBlock {
		return &models.SuperBlock{Node: models.Node{Children: []models.Block{
			&models.SuperBlockOpen{},
			&models.SuperBlockLayout{Layout: layout},
			para("", text("x")),
			&models.SuperBlockClose{},
		}}}
	}

	got := renderer().Block(sb("row"))
	want := `<div class="superblock superblock-col">` + "\n<p>x</p>\n</div>\n"
	if got != want {
		t.Errorf("row payload: got %q, want %q", got, want)
	}

	got = renderer().Block(sb("col"))
	want = `<div class="superblock superblock-row">` + "\n" +
		`<div class="superblock superblock-col">` + "\n<p>x</p>\n</div>\n</div>\n"
	if got != want {
		t.Errorf("col payload: got %q, want %q", got, want)
	}
}

func TestRender_SuperBlockNestedRow(t *testing.T) {
	inner := &models.SuperBlock{Node: models.Node{ID: "inner", Children: []models.Block{
		&models.SuperBlockLayout{Layout: "row"},
		para("", text("a")),
	}}}
	outer := &models.SuperBlock{Node: models.Node{Children: []models.Block{
		&models.SuperBlockLayout{Layout: "col"},
		para("", text("b")),
		inner,
	}}}
	got := renderer().Block(outer)
	want := `<div class="superblock superblock-row">` + "\n" +
		`<div id="inner" class="superblock superblock-col">` + "\n<p>a</p>\n</div>\n" +
		`<div class="superblock superblock-col">` + "\n<p>b</p>\n</div>\n" +
		"</div>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_IDsAppearOnce(t *testing.T) {
	blocks := []models.Block{
		para("p1", text("x")),
		&models.Heading{Level: 2, Node: models.Node{ID: "h1", Children: []models.Block{text("H")}}},
		&models.List{Node: models.Node{ID: "l1"}},
		&models.Blockquote{Node: models.Node{ID: "q1"}},
		&models.ThematicBreak{Node: models.Node{ID: "hr1"}},
		&models.Table{Node: models.Node{ID: "t1"}},
		&models.CodeBlock{Node: models.Node{ID: "c1"}},
		&models.LineBreak{Node: models.Node{ID: "br1"}},
	}
	got := renderer().Blocks(blocks)
	for _, id := range []string{"p1", "h1", "l1", "q1", "hr1", "t1", "c1", "br1"} {
		if n := strings.Count(got, `id="`+id+`"`); n != 1 {
			t.Errorf("id %s appears %d times in %q", id, n, got)
		}
	}
}

func TestRender_ParagraphStyle(t *testing.T) {
	p := para("", text("x"))
	p.Style = "background-color: var(--b3-card-info-background); color: var(--b3-card-info-color);"
	if got := renderer().Block(p); got != `<p class="info-box">x</p>`+"\n" {
		t.Errorf("themed: %q", got)
	}

	p.Style = "background-color: #ff0;"
	if got := renderer().Block(p); got != `<p class="custom-box" style="background-color: #ff0;">x</p>`+"\n" {
		t.Errorf("custom: %q", got)
	}

	p.Style = "text-align: center;"
	if got := renderer().Block(p); got != `<p style="text-align: center;">x</p>`+"\n" {
		t.Errorf("plain: %q", got)
	}
}

func TestRender_HeadingClamp(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{0, "<h1>T</h1>\n"},
		{3, "<h3>T</h3>\n"},
		{9, "<h6>T</h6>\n"},
	}
	for _, tt := range tests {
		h := &models.Heading{Level: tt.level, Node: models.Node{Children: []models.Block{text("T")}}}
		if got := renderer().Block(h); got != tt.want {
			t.Errorf("level %d: got %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestRender_Table(t *testing.T) {
	tbl := &models.Table{Aligns: []int{models.AlignNone, models.AlignCenter}, Node: models.Node{Children: []models.Block{
		&models.TableHead{Node: models.Node{Children: []models.Block{
			&models.TableRow{Node: models.Node{Children: []models.Block{
				&models.TableCell{Header: true, Node: models.Node{Children: []models.Block{text("a")}}},
				&models.TableCell{Header: true, Node: models.Node{Children: []models.Block{text("b")}}},
			}}},
		}}},
		&models.TableRow{Node: models.Node{Children: []models.Block{
			&models.TableCell{Node: models.Node{Children: []models.Block{text("1")}}},
			&models.TableCell{Node: models.Node{Children: []models.Block{text("2")}}},
		}}},
	}}}
	got := renderer().Block(tbl)
	want := "<table>\n<thead>\n<tr>\n<th>a</th>\n<th style=\"text-align: center\">b</th>\n</tr>\n</thead>\n" +
		"<tr>\n<td>1</td>\n<td style=\"text-align: center\">2</td>\n</tr>\n</table>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_CodeBlock(t *testing.T) {
	tests := []struct {
		info string
		want string
	}{
		{"Z28=", `<pre><code class="language-go">a &lt;script&gt;</code></pre>` + "\n"},
		{"rust", `<pre><code class="language-rust">a &lt;script&gt;</code></pre>` + "\n"},
		{"", `<pre><code>a &lt;script&gt;</code></pre>` + "\n"},
	}
	for _, tt := range tests {
		c := &models.CodeBlock{Info: tt.info, Node: models.Node{Children: []models.Block{
			&models.CodeContent{Text: "a <script>"},
		}}}
		got := renderer().Block(c)
		if got != tt.want {
			t.Errorf("info %q: got %q, want %q", tt.info, got, tt.want)
		}
		if strings.Contains(got, "<script>") {
			t.Errorf("info %q: unescaped script tag", tt.info)
		}
	}
}

func TestRender_TextWithID(t *testing.T) {
	got := renderer().Block(&models.Text{Data: "a'b", Node: models.Node{ID: "t"}})
	if got != `<span id="t">a&#39;b</span>` {
		t.Errorf("got %q", got)
	}
}

func image(id, style, parentStyle string, title bool) *models.Image {
	children := []models.Block{
		&models.LinkDest{URL: "assets/a.png"},
		&models.LinkText{Text: "alt"},
	}
	if title {
		children = append(children, &models.LinkTitle{Text: "Caption"})
	}
	return &models.Image{Node: models.Node{ID: id, Style: style, ParentStyle: parentStyle, Children: children}}
}

func TestRender_Image(t *testing.T) {
	tests := []struct {
		name string
		img  *models.Image
		want string
	}{
		{"plain", image("i", "", "", false),
			`<img id="i" src="assets/a.png" alt="alt"/>`},
		{"styled", image("i", "width: 50%", "", false),
			`<img id="i" src="assets/a.png" alt="alt" style="width: 50%"/>`},
		{"wrapper", image("i", "", "text-align: center", false),
			`<div id="i" style="text-align: center"><img src="assets/a.png" alt="alt"/></div>`},
		{"caption", image("i", "", "", true),
			`<figure id="i"><img src="assets/a.png" alt="alt"/><figcaption>Caption</figcaption></figure>`},
		{"caption and wrapper", image("i", "", "text-align: center", true),
			`<figure id="i"><div style="text-align: center"><img src="assets/a.png" alt="alt"/></div><figcaption>Caption</figcaption></figure>`},
		{"no source", &models.Image{Node: models.Node{ID: "i"}}, ``},
	}
	for _, tt := range tests {
		if got := renderer().Block(tt.img); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRender_UnknownRendersChildren(t *testing.T) {
	u := &models.Unknown{Type: "NodeWidget", Node: models.Node{ID: "u", Children: []models.Block{text("inner")}}}
	if got := renderer().Block(u); got != "inner" {
		t.Errorf("got %q, want children only", got)
	}
}

func embed(query string) *models.QueryEmbed {
	return &models.QueryEmbed{Node: models.Node{ID: "e", Children: []models.Block{
		&models.QueryEmbedScript{Script: query},
	}}}
}

func TestRender_Transclusion(t *testing.T) {
	target := &models.Note{ID: "n2", Children: []models.Block{
		para("b1", text("embedded block")),
		para("b2", text("second")),
	}}
	r := renderer(target)

	got := r.Block(embed("select * from blocks where id='b1'"))
	want := `<div id="e" class="transcluded-block"><a href="n2.html#b1" class="source-link">Go to source</a>` +
		`<p id="b1">embedded block</p>` + "\n</div>"
	if got != want {
		t.Errorf("block: got %q, want %q", got, want)
	}

	got = r.Block(embed("select * from blocks where id='n2'"))
	if !strings.Contains(got, `href="n2.html"`) || !strings.Contains(got, "second") {
		t.Errorf("note: got %q", got)
	}

	got = r.Block(embed("select * from blocks where id='gone'"))
	if !strings.Contains(got, "Transcluded content not found: gone") {
		t.Errorf("missing: got %q", got)
	}

	got = r.Block(embed("select * from blocks"))
	if got != "" {
		t.Errorf("malformed query should fall back to children: got %q", got)
	}
}

func TestRender_TransclusionCycle(t *testing.T) {
	a := &models.Note{ID: "a"}
	b := &models.Note{ID: "b"}
	a.Children = []models.Block{embed("select * from blocks where id='b'")}
	b.Children = []models.Block{embed("select * from blocks where id='a'")}
	r := renderer(a, b)

	got := r.Blocks(a.Children)
	if !strings.Contains(got, "Transclusion cycle: b") {
		t.Errorf("cycle not detected: %q", got)
	}
}

func TestPage_HeadingIDsMatchTOC(t *testing.T) {
	blocks := []models.Block{
		&models.Heading{Level: 2, Node: models.Node{Children: []models.Block{text("One")}}},
		&models.Heading{Level: 2, Node: models.Node{ID: "own", Children: []models.Block{text("Two")}}},
		&models.Blockquote{Node: models.Node{Children: []models.Block{
			&models.Heading{Level: 3, Node: models.Node{Children: []models.Block{text("Three")}}},
		}}},
	}
	html, toc := renderer().Page(blocks)

	want := []TocItem{
		{ID: "heading-0", Text: "One", Level: 2},
		{ID: "own", Text: "Two", Level: 2},
		{ID: "heading-2", Text: "Three", Level: 3},
	}
	if len(toc) != len(want) {
		t.Fatalf("toc = %+v", toc)
	}
	for i := range want {
		if toc[i] != want[i] {
			t.Errorf("toc[%d] = %+v, want %+v", i, toc[i], want[i])
		}
		if !strings.Contains(html, `id="`+want[i].ID+`"`) {
			t.Errorf("rendered html lacks heading id %s", want[i].ID)
		}
	}

	again := renderer().Blocks(blocks)
	if strings.Contains(again, "heading-0") {
		t.Error("Blocks should not assign synthetic ids")
	}
}
