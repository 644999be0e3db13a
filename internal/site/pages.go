package site

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/symark/internal/corpus"
	"github.com/starford/symark/internal/graph"
	"github.com/starford/symark/internal/models"
	"github.com/starford/symark/internal/render"
	"github.com/starford/symark/internal/xref"
)

// Output file names of the generated pages.
const (
	HomePage  = "index.html"
	AllPage   = "all.html"
	GraphPage = "graph.html"
	GraphJSON = "graph.json"
	AssetsDir = "assets"
)

// BackNavigation links back to the home page.
const BackNavigation = `<a href="index.html" class="back-link">Back to home<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" class="lucide lucide-arrow-left"><path d="m12 19-7-7 7-7"></path><path d="M19 12H5"></path></svg></a>`

const (
	metaDescriptionLimit = 200
	tagExcerptLimit      = 200
	tagCloudTitles       = 3
	ogTagLine            = `<meta property="article:tag" content="{{.}}">`
)

// legacyParagraphType is the paragraph kind of an older export format.
// Current exports never produce it, so tag excerpts normally come from the
// fallback scan.
const legacyParagraphType = "P"

// pageData carries the values of one page. Text fields are escaped when the
// template is filled; toc, content and meta are HTML.
type pageData struct {
	title       string
	description string
	blog        string
	back        bool
	url         string
	image       string
	headerImage string
	published   string
	modified    string
	publishDate string
	dateLine    string
	category    string
	toc         string
	content     string
	meta        string
	tags        []string
}

type generator struct {
	cfg    Config
	c      *corpus.Corpus
	tpl    *Templates
	dates  Dates
	now    time.Time
	graph  *graph.Graph
	tags   []string
	tagged map[string][]*models.Note
}

func newGenerator(cfg Config, c *corpus.Corpus, tpl *Templates) *generator {
	g := &generator{
		cfg:    cfg.withDefaults(),
		c:      c,
		tpl:    tpl,
		graph:  c.Graph(),
		tags:   c.Notes.AllTags(),
		tagged: make(map[string][]*models.Note),
	}
	g.dates = Dates{Locale: g.cfg.Locale}
	g.now = g.cfg.Now()
	for _, t := range g.tags {
		notes := c.Notes.Tagged(t)
		sort.SliceStable(notes, func(i, j int) bool { return notes[i].Title() < notes[j].Title() })
		g.tagged[t] = notes
	}
	return g
}

type job struct {
	name   string
	render func() string
}

// plan lists every page of the site.
func (g *generator) plan() []job {
	var jobs []job
	if home, ok := g.c.Notes.HomeNote(); ok {
		jobs = append(jobs,
			job{HomePage, func() string { return g.notePage(home, true) }},
			job{AllPage, func() string { return g.listingPage(true) }},
		)
	} else {
		jobs = append(jobs, job{HomePage, func() string { return g.listingPage(false) }})
	}
	for _, n := range g.c.Notes.Sorted() {
		jobs = append(jobs, job{xref.PageURL(n.ID), func() string { return g.notePage(n, false) }})
	}
	for _, t := range g.tags {
		jobs = append(jobs, job{xref.TagURL(t), func() string { return g.tagPage(t) }})
	}
	jobs = append(jobs, job{GraphPage, g.graphPage})
	return jobs
}

func (g *generator) fill(d pageData) string {
	tpl := g.tpl.Page
	vars := map[string]string{
		"title":              render.Escape(d.title),
		"css_path":           StylesFile,
		"site_name":          render.Escape(g.cfg.Name),
		"meta_description":   render.Escape(d.description),
		"blog_description":   render.Escape(d.blog),
		"og_url":             render.Escape(d.url),
		"og_image":           render.Escape(d.image),
		"header_image":       render.Escape(d.headerImage),
		"og_published_time":  d.published,
		"og_modified_time":   d.modified,
		"reading_time":       "",
		"author_name":        render.Escape(g.cfg.Author),
		"publish_date":       render.Escape(d.publishDate),
		"last_updated_date":  render.Escape(d.dateLine),
		"category":           render.Escape(d.category),
		"next_article_url":   "#",
		"next_article_title": "",
		"table_of_contents":  d.toc,
		"content":            d.content,
		"note_meta":          d.meta,
		"generation_date":    g.now.Format("2006-01-02 15:04:05"),
	}
	if d.back {
		vars["back_navigation"] = BackNavigation
	}
	if len(d.tags) > 0 {
		lines := make([]string, len(d.tags))
		for i, t := range d.tags {
			key := "og_tag_" + strconv.Itoa(i)
			vars[key] = render.Escape(t)
			lines[i] = `<meta property="article:tag" content="{{` + key + `}}">`
		}
		tpl = strings.Replace(tpl, ogTagLine, strings.Join(lines, "\n"), 1)
	}
	sections := map[string]bool{
		"header_image":     d.headerImage != "",
		"og_modified_time": d.modified != "",
		"og_tags":          len(d.tags) > 0,
	}
	return RemoveZeroWidth(Fill(tpl, vars, sections))
}

func (g *generator) absURL(p string) string {
	base := strings.TrimRight(g.cfg.BaseURL, "/")
	switch {
	case base == "":
		return p
	case p == "":
		return base + "/"
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

func (g *generator) nowStamp() string {
	return g.now.Format("20060102150405")
}

func (g *generator) notePage(n *models.Note, home bool) string {
	content, toc := render.New(g.c.Resolver).Page(n.Children)
	created, updated := n.Created(), n.Updated()

	var linked string
	if !home {
		if linked = g.backlinks(n.ID); linked != "" {
			toc = append(toc, render.TocItem{ID: backlinksID, Text: backlinksTitle, Level: 2})
		}
	}

	d := pageData{
		title:       n.Title(),
		blog:        g.cfg.Description,
		back:        !home,
		url:         g.absURL(xref.PageURL(n.ID)),
		headerImage: n.Properties.TitleImage,
		published:   g.dates.ISO(created),
		publishDate: g.dates.Naturalize(created),
		dateLine:    "Created on " + g.dates.Naturalize(created),
		category:    n.Properties.Type,
		toc:         render.TOCHTML(toc),
		content:     content,
		meta:        g.noteMeta(n),
		tags:        visibleTags(n),
	}
	if d.published == "" {
		d.published = g.dates.ISO(g.nowStamp())
	}
	if updated != "" {
		d.modified = g.dates.ISO(updated)
		d.dateLine += ", updated on " + g.dates.Naturalize(updated)
	}
	if img := imageURL(n.Properties.TitleImage); img != "" {
		if strings.Contains(img, "://") {
			d.image = img
		} else {
			d.image = g.absURL(img)
		}
	}
	if home {
		if n.Properties.Title == "" {
			d.title = "Notes Index"
		}
		d.url = g.absURL("")
		d.category = "Notes"
		d.content += "\n" + `<div class="all-notes-link"><a href="all.html">View All Notes</a></div>`
	} else {
		d.content += linked
	}
	d.description = g.description(n, d.title)
	return g.fill(d)
}

// description joins the plain text of the leading paragraphs, stopping once
// two paragraphs exceed 100 bytes, and caps the result at 200 runes.
func (g *generator) description(n *models.Note, fallback string) string {
	var parts []string
	size := 0
	for _, b := range n.Children {
		p, ok := b.(*models.Paragraph)
		if !ok {
			continue
		}
		text := strings.Join(strings.Fields(render.PlainText(p.Children)), " ")
		parts = append(parts, text)
		size += len(text)
		if len(parts) >= 2 && size > 100 {
			break
		}
	}
	desc := strings.TrimSpace(strings.Join(parts, " "))
	if desc == "" {
		desc = fallback
	}
	if utf8.RuneCountInString(desc) > metaDescriptionLimit {
		desc = render.Truncate(desc, metaDescriptionLimit-3)
	}
	return desc
}

func (g *generator) noteMeta(n *models.Note) string {
	var sb strings.Builder
	if c := n.Created(); c != "" {
		fmt.Fprintf(&sb, `<span class="meta-tag date-tag">Created: %s</span>`, render.Escape(g.dates.Naturalize(c)))
	}
	if u := n.Updated(); u != "" {
		fmt.Fprintf(&sb, `<span class="meta-tag date-tag">Updated: %s</span>`, render.Escape(g.dates.Naturalize(u)))
	}
	for _, t := range visibleTags(n) {
		fmt.Fprintf(&sb, `<a href="%s" class="meta-tag">%s</a>`, render.Escape(xref.TagURL(t)), render.Escape(t))
	}
	return sb.String()
}

const (
	backlinksID    = "section-backlinks"
	backlinksTitle = "Linked from"
)

// backlinks renders the section listing notes that reference id. The page
// outline gets a matching entry from notePage.
func (g *generator) backlinks(id string) string {
	ids := g.c.Backlinks(id)
	if len(ids) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n" + `<section class="backlinks">` + "\n" + `<h2 id="` + backlinksID + `">` + backlinksTitle + `</h2>` + "\n<ul>\n")
	for _, src := range ids {
		n, ok := g.c.Notes[src]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, `<li><a href="%s">%s</a></li>`+"\n", render.Escape(xref.PageURL(src)), render.Escape(n.Title()))
	}
	sb.WriteString("</ul>\n</section>")
	return sb.String()
}

// visibleTags returns the sorted tags of n without the home-page marker.
func visibleTags(n *models.Note) []string {
	var out []string
	for _, t := range n.Tags() {
		if t != models.IndexTag {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// imageURL extracts the url(...) argument of a CSS declaration.
func imageURL(style string) string {
	i := strings.Index(style, "url(")
	if i < 0 {
		return ""
	}
	j := strings.Index(style[i:], ")")
	if j < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(style[i+4:i+j]), `"'`)
}

func (g *generator) listingPage(all bool) string {
	created := g.dates.Naturalize(g.nowStamp())
	d := pageData{
		title:       "Notes Index",
		description: "Collection of all notes",
		blog:        g.cfg.Description,
		url:         g.absURL(""),
		published:   g.dates.ISO(g.nowStamp()),
		publishDate: created,
		dateLine:    "Created on " + created,
		category:    "Notes",
		toc: render.TOCHTML([]render.TocItem{
			{ID: "section-all-notes", Text: "All Notes", Level: 2},
			{ID: "section-tags", Text: "Tags", Level: 2},
		}),
	}
	if all {
		d.title = "All Notes"
		d.back = true
		d.url = g.absURL(AllPage)
		d.meta = `<span class="meta-tag date-tag">Created on ` + render.Escape(created) + `</span>`
	}

	var sb strings.Builder
	sb.WriteString(`<h2 id="section-all-notes">All Notes</h2>` + "\n<ul>\n")
	for _, n := range g.c.Notes.ByTitle() {
		fmt.Fprintf(&sb, `<li><a href="%s">%s</a></li>`+"\n", render.Escape(xref.PageURL(n.ID)), render.Escape(n.Properties.Title))
	}
	sb.WriteString("</ul>")
	sb.WriteString(`<h2 id="section-tags">Tags</h2>` + "\n" + `<div class="tags-container">` + "\n")
	for _, t := range g.tags {
		fmt.Fprintf(&sb, `<a href="%s" class="tag">%s</a>`+"\n", render.Escape(xref.TagURL(t)), render.Escape(t))
	}
	sb.WriteString("</div>\n")
	sb.WriteString(`<p class="graph-link"><a href="graph.html">Graph view</a></p>`)
	d.content = sb.String()
	return g.fill(d)
}

func countSentence(n int, tag string) string {
	if n == 1 {
		return fmt.Sprintf("1 note has the tag %q", tag)
	}
	return fmt.Sprintf("%d notes have the tag %q", n, tag)
}

func (g *generator) tagPage(tag string) string {
	notes := g.tagged[tag]
	sentence := countSentence(len(notes), tag)
	created := g.dates.Naturalize(g.nowStamp())

	var sb strings.Builder
	fmt.Fprintf(&sb, `<h2 id="section-tagged-notes">%s</h2>`+"\n<ul>\n", render.Escape(sentence))
	for _, n := range notes {
		title := render.Escape(n.Title())
		fmt.Fprintf(&sb, `<li><span class="tooltip"><a href="%s">%s</a><span class="right bottom"><span class="tooltip-title">%s</span><span class="tooltip-excerpt">%s</span><i></i></span></span></li>`+"\n",
			render.Escape(xref.PageURL(n.ID)), title, title, render.Escape(tagExcerpt(n)))
	}
	sb.WriteString("</ul>\n")
	sb.WriteString(`<h2 id="section-all-tags">All Tags</h2>` + "\n" + `<div class="tags-container">` + "\n")
	sb.WriteString(g.tagCloud(tag))
	sb.WriteString("</div>")

	return g.fill(pageData{
		title:       "Tag: " + tag,
		description: sentence,
		blog:        sentence,
		back:        true,
		url:         g.absURL(xref.TagURL(tag)),
		published:   g.dates.ISO(g.nowStamp()),
		publishDate: created,
		category:    "Tags",
		meta:        `<span class="meta-tag date-tag">Created on ` + render.Escape(created) + `</span>`,
		toc: render.TOCHTML([]render.TocItem{
			{ID: "section-tagged-notes", Text: sentence, Level: 2},
			{ID: "section-all-tags", Text: "All Tags", Level: 2},
		}),
		content: sb.String(),
	})
}

// tagCloud lists every tag with its note count and a few note titles. The
// active tag is highlighted.
func (g *generator) tagCloud(active string) string {
	var sb strings.Builder
	for _, t := range g.tags {
		notes := g.tagged[t]
		class := "tag"
		if t == active {
			class = "tag active"
		}
		tip := countSentence(len(notes), t)
		if len(notes) > 0 {
			var titles []string
			for i, n := range notes {
				if i == tagCloudTitles {
					break
				}
				titles = append(titles, strconv.Quote(n.Title()))
			}
			tip += ": " + strings.Join(titles, ", ")
			if len(notes) > tagCloudTitles {
				tip += ", ..."
			}
		}
		fmt.Fprintf(&sb, `<span class="tooltip"><a href="%s" class="%s">%s</a><span class="right bottom"><span class="tooltip-excerpt">%s</span><i></i></span></span>`+"\n",
			render.Escape(xref.TagURL(t)), class, render.Escape(t), render.Escape(tip))
	}
	return sb.String()
}

func isLegacyParagraph(b models.Block) bool {
	u, ok := b.(*models.Unknown)
	return ok && u.Type == legacyParagraphType && u.Data != ""
}

// tagExcerpt picks the tooltip text of a note on tag pages: legacy
// paragraphs first, then the first text among the leading three blocks and
// their children, then the tag list, then the title.
func tagExcerpt(n *models.Note) string {
	var text string
	for i, b := range n.Children {
		if !isLegacyParagraph(b) {
			continue
		}
		text = models.RawData(b)
		if len(text) < 120 {
			for _, next := range n.Children[i+1:] {
				if isLegacyParagraph(next) {
					text += " " + models.RawData(next)
					break
				}
			}
		}
		break
	}

	if text == "" {
		lead := n.Children
		if len(lead) > 3 {
			lead = lead[:3]
		}
	scan:
		for _, b := range lead {
			if text = models.RawData(b); text != "" {
				break
			}
			for _, c := range b.Base().Children {
				if text = models.RawData(c); text != "" {
					break scan
				}
			}
		}
	}

	if text == "" {
		if tags := n.Tags(); len(tags) > 0 {
			return "Tagged with: " + strings.Join(tags, ", ")
		}
		return n.Title()
	}
	return clipAtBreak(text, tagExcerptLimit)
}

// clipAtBreak cuts s to limit runes, backing up to a space or punctuation
// mark within the last quarter, and appends "...".
func clipAtBreak(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	pos := limit
	for pos > limit*3/4 {
		if c := r[pos]; c == ' ' || c == '.' || c == ',' || c == ';' {
			break
		}
		pos--
	}
	return string(r[:pos]) + "..."
}

func (g *generator) graphPage() string {
	created := g.dates.Naturalize(g.nowStamp())
	return g.fill(pageData{
		title:       "Graph",
		description: "Links between notes",
		blog:        g.cfg.Description,
		back:        true,
		url:         g.absURL(GraphPage),
		published:   g.dates.ISO(g.nowStamp()),
		publishDate: created,
		dateLine:    "Created on " + created,
		category:    "Notes",
		toc:         render.TOCHTML(nil),
		meta: fmt.Sprintf(`<span class="meta-tag">%d notes</span><span class="meta-tag">%d links</span>`,
			len(g.graph.Nodes), len(g.graph.Links)),
		content: `<div class="graph-container"><canvas id="graph-canvas" data-src="` + GraphJSON + `"></canvas></div>` + "\n" +
			`<script src="` + GraphScript + `"></script>`,
	})
}
