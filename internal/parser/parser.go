// Package parser decodes SiYuan .sy documents into typed note trees.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/starford/symark/internal/models"
)

// Ext is the file extension of source documents.
const Ext = ".sy"

type rawProperties struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TitleImage  string `json:"title-img"`
	Tags        string `json:"tags"`
	Type        string `json:"type"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
	Style       string `json:"style"`
	ParentStyle string `json:"parent-style"`
}

type rawListData struct {
	Typ int `json:"Typ"`
}

type rawBlock struct {
	ID         string        `json:"ID"`
	Type       string        `json:"Type"`
	Data       string        `json:"Data"`
	Properties rawProperties `json:"Properties"`
	Children   []rawBlock    `json:"Children"`

	HeadingLevel int             `json:"HeadingLevel"`
	ListData     json.RawMessage `json:"ListData"`
	TableAligns  []int           `json:"TableAligns"`

	TextMarkType              string `json:"TextMarkType"`
	TextMarkTextContent       string `json:"TextMarkTextContent"`
	TextMarkAHref             string `json:"TextMarkAHref"`
	TextMarkBlockRefID        string `json:"TextMarkBlockRefID"`
	TextMarkBlockRefSubtype   string `json:"TextMarkBlockRefSubtype"`
	TextMarkInlineMemoContent string `json:"TextMarkInlineMemoContent"`

	CodeBlockInfo       string `json:"CodeBlockInfo"`
	TaskListItemChecked bool   `json:"TaskListItemChecked"`
}

// Parse decodes a .sy document. Unknown node kinds are kept as
// models.Unknown so their children still render.
func Parse(data []byte) (*models.Note, error) {
	var doc rawBlock
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parser: decode: %w", err)
	}
	if doc.ID == "" {
		doc.ID = doc.Properties.ID
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("parser: document has no id")
	}

	return &models.Note{
		ID:   doc.ID,
		Type: doc.Type,
		Properties: models.Properties{
			Title:       doc.Properties.Title,
			TitleImage:  doc.Properties.TitleImage,
			Tags:        doc.Properties.Tags,
			Type:        doc.Properties.Type,
			Created:     doc.Properties.Created,
			Updated:     doc.Properties.Updated,
			Style:       doc.Properties.Style,
			ParentStyle: doc.Properties.ParentStyle,
		},
		Children: convertAll(doc.Children),
	}, nil
}

func convertAll(raws []rawBlock) []models.Block {
	if len(raws) == 0 {
		return nil
	}
	out := make([]models.Block, 0, len(raws))
	for i := range raws {
		out = append(out, convert(&raws[i]))
	}
	return out
}

func convert(r *rawBlock) models.Block {
	node := models.Node{
		ID:          r.ID,
		Style:       r.Properties.Style,
		ParentStyle: r.Properties.ParentStyle,
		Children:    convertAll(r.Children),
	}

	switch r.Type {
	case "NodeParagraph":
		return &models.Paragraph{Node: node}
	case "NodeHeading":
		return &models.Heading{Node: node, Level: r.HeadingLevel}
	case "NodeList":
		return &models.List{Node: node, Kind: listKind(r.ListData)}
	case "NodeListItem":
		return &models.ListItem{Node: node}
	case "NodeTaskListItemMarker":
		return &models.TaskMarker{Node: node, Checked: r.TaskListItemChecked}
	case "NodeBlockquote":
		return &models.Blockquote{Node: node}
	case "NodeThematicBreak":
		return &models.ThematicBreak{Node: node}
	case "NodeTable":
		return &models.Table{Node: node, Aligns: r.TableAligns}
	case "NodeTableHead":
		return &models.TableHead{Node: node}
	case "NodeTableRow":
		return &models.TableRow{Node: node}
	case "NodeTableCell":
		return &models.TableCell{Node: node, Header: r.Data == "th"}
	case "NodeCodeBlock":
		return &models.CodeBlock{Node: node, Info: r.CodeBlockInfo}
	case "NodeCodeBlockCode":
		return &models.CodeContent{Node: node, Text: r.Data}
	case "NodeText":
		return &models.Text{Node: node, Data: r.Data}
	case "NodeTextMark":
		return &models.TextMark{
			Node:       node,
			Types:      r.TextMarkType,
			Content:    r.TextMarkTextContent,
			Href:       r.TextMarkAHref,
			RefID:      r.TextMarkBlockRefID,
			RefSubtype: r.TextMarkBlockRefSubtype,
			Memo:       r.TextMarkInlineMemoContent,
		}
	case "NodeImage":
		return &models.Image{Node: node}
	case "NodeLinkDest":
		return &models.LinkDest{Node: node, URL: r.Data}
	case "NodeLinkText":
		return &models.LinkText{Node: node, Text: r.Data}
	case "NodeLinkTitle":
		return &models.LinkTitle{Node: node, Text: r.Data}
	case "NodeBr":
		return &models.LineBreak{Node: node}
	case "NodeSuperBlock":
		return &models.SuperBlock{Node: node}
	case "NodeSuperBlockOpenMarker":
		return &models.SuperBlockOpen{Node: node}
	case "NodeSuperBlockLayoutMarker":
		return &models.SuperBlockLayout{Node: node, Layout: r.Data}
	case "NodeSuperBlockCloseMarker":
		return &models.SuperBlockClose{Node: node}
	case "NodeBlockQueryEmbed":
		return &models.QueryEmbed{Node: node}
	case "NodeBlockQueryEmbedScript":
		return &models.QueryEmbedScript{Node: node, Script: r.Data}
	}
	return &models.Unknown{Node: node, Type: r.Type, Data: r.Data}
}

// listKind reads the Typ discriminant; anything unexpected is unordered.
func listKind(raw json.RawMessage) models.ListKind {
	if len(raw) == 0 {
		return models.ListUnordered
	}
	var ld rawListData
	if err := json.Unmarshal(raw, &ld); err != nil {
		return models.ListUnordered
	}
	switch models.ListKind(ld.Typ) {
	case models.ListOrdered:
		return models.ListOrdered
	case models.ListTask:
		return models.ListTask
	}
	return models.ListUnordered
}
