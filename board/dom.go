package board

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	classColumn    = "kanban-column"
	classCards     = "cards-container"
	classCard      = "kanban-card"
	classDragging  = "dragging"
	classDragOver  = "drag-over"
	attrColumnID   = "data-column-id"
	attrNoteID     = "data-note-id"
	attrDraggable  = "draggable"
	boardElementID = "kanban-board"
)

func element(a atom.Atom, class string, attrs ...html.Attribute) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	n.Attr = append(n.Attr, attrs...)
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func classes(n *html.Node) []string {
	v, _ := attr(n, "class")
	return strings.Fields(v)
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func setClasses(n *html.Node, cs []string) {
	val := strings.Join(cs, " ")
	for i := range n.Attr {
		if n.Attr[i].Key == "class" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: val})
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	setClasses(n, append(classes(n), class))
}

func removeClass(n *html.Node, class string) {
	cs := classes(n)
	out := cs[:0]
	for _, c := range cs {
		if c != class {
			out = append(out, c)
		}
	}
	setClasses(n, out)
}

// closest walks up from n (inclusive) to the first element carrying class.
func closest(n *html.Node, class string) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && hasClass(cur, class) {
			return cur
		}
	}
	return nil
}

// firstChildWithClass searches n's subtree depth first.
func firstChildWithClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := firstChildWithClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func clearChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// moveNode detaches child from its parent and appends it to parent.
func moveNode(parent, child *html.Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			sb.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func render(n *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
