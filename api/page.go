package api

import (
	"bytes"
	_ "embed"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

//go:embed assets/board.js
var boardScript string

const pageTitle = "Kanban"

// page wraps a rendered board fragment into a complete document that loads
// the drag-and-drop script.
func page(fragment []byte) ([]byte, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := newElement(atom.Html)
	head := newElement(atom.Head)
	body := newElement(atom.Body)
	doc.AppendChild(root)
	root.AppendChild(head)
	root.AppendChild(body)

	meta := newElement(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	title := newElement(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: pageTitle})
	head.AppendChild(title)

	nodes, err := html.ParseFragment(bytes.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	script := newElement(atom.Script)
	script.AppendChild(&html.Node{Type: html.TextNode, Data: boardScript})
	body.AppendChild(script)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
