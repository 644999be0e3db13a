package mcpserver

// BlockKindsURI names the resource describing how note blocks render.
const BlockKindsURI = "symark://block-kinds"

// BlockKinds describes the .sy node kinds SyMark understands and the HTML
// each one becomes. Clients use it to interpret read_note output.
const BlockKinds = `# SyMark block kinds

Notes are SiYuan ` + "`.sy`" + ` documents: a JSON tree whose root is a
NodeDocument carrying ` + "`Properties`" + ` (id, title, tags, title-img, type).
The note id doubles as its creation time (` + "`YYYYMMDDhhmmss-xxxxxxx`" + `).

## Blocks

| Node | HTML |
|------|------|
| NodeParagraph | ` + "`<p>`" + ` |
| NodeHeading | ` + "`<h1>`" + `..` + "`<h6>`" + `, headings without an id get heading-N |
| NodeList / NodeListItem | ` + "`<ul>`" + ` or ` + "`<ol>`" + ` with ` + "`<li>`" + `; task items get a checkbox |
| NodeBlockquote | ` + "`<blockquote>`" + ` |
| NodeThematicBreak | ` + "`<hr>`" + ` |
| NodeTable and rows/cells | ` + "`<table>`" + ` with column alignment |
| NodeCodeBlock | ` + "`<pre><code class=\"language-X\">`" + ` |
| NodeImage | ` + "`<img>`" + `, assets are served from /assets |
| NodeSuperBlock | ` + "`<div class=\"superblock superblock-row|col\">`" + ` |
| NodeBlockQueryEmbed | the referenced block, transcluded once |

Unknown node kinds render their children.

## Inline marks

NodeTextMark carries space-separated subtypes: strong, em, u, s, mark, sup,
sub, kbd, code, a, tag, inline-math, inline-memo, text and block-ref.
A block-ref becomes a link to the target page (with an anchor for block
targets) and a hover card; missing targets render as a titled span.

## Styles

A block style using the ` + "`--b3-card-{info,success,warning,error}`" + ` background
and color variables becomes the matching ` + "`*-box`" + ` class. Any other
background keeps its inline style and adds ` + "`custom-box`" + `.
Inline marks use the same rules with an ` + "`inline-`" + ` class prefix.

## Tags

Tags are comma separated. A note tagged ` + "`index`" + ` replaces the generated
home page; the full listing then moves to all.html.
`
