package layout

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EmptyContent is the content of a cell with no text.
const EmptyContent = "<p></p>"

// blockElements are the elements that close an open <p> when parsed, so
// wrapping inline runs in <p> never gets reshuffled by a later parse.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Center: true, atom.Details: true, atom.Dialog: true, atom.Dir: true,
	atom.Div: true, atom.Dl: true, atom.Dd: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hgroup: true, atom.Hr: true, atom.Li: true, atom.Listing: true,
	atom.Main: true, atom.Menu: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Plaintext: true, atom.Pre: true, atom.Section: true,
	atom.Summary: true, atom.Table: true, atom.Ul: true, atom.Xmp: true,
}

// IsBlock reports whether n is an element that may appear at the top level
// of cell content.
func IsBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockElements[n.DataAtom]
}

// ParseFragment parses cell content as children of a <body> element.
func ParseFragment(s string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
}

// maxWrapPasses bounds the re-wrapping EnsureWrapped does when a parse
// moves blocks that sat inside an inline run.
const maxWrapPasses = 8

// EnsureWrapped guarantees that every top-level piece of content sits in a
// block element. Content that already satisfies this is returned unchanged;
// runs of inline content are wrapped in <p>. Empty input yields
// EmptyContent. EnsureWrapped is idempotent.
func EnsureWrapped(s string) string {
	out := wrapOnce(s)
	for i := 0; i < maxWrapPasses; i++ {
		// A block nested in an inline run ends up inside the new <p>, and
		// parsing that again splits it. Stop once a pass changes nothing.
		next := wrapOnce(out)
		if next == out {
			return out
		}
		out = next
	}
	return "<p>" + html.EscapeString(textContent(out)) + "</p>"
}

func wrapOnce(s string) string {
	if strings.TrimSpace(s) == "" {
		return EmptyContent
	}
	nodes, err := ParseFragment(s)
	if err != nil {
		return "<p>" + html.EscapeString(s) + "</p>"
	}
	wrapped, hasBlock := true, false
	for _, n := range nodes {
		if IsBlock(n) {
			hasBlock = true
		} else if !isBlank(n) {
			wrapped = false
			break
		}
	}
	if wrapped {
		if !hasBlock {
			return EmptyContent
		}
		return s
	}

	var b strings.Builder
	var para *html.Node
	flush := func() {
		if para != nil {
			_ = html.Render(&b, para)
			para = nil
		}
	}
	for _, n := range nodes {
		switch {
		case IsBlock(n):
			flush()
			_ = html.Render(&b, n)
		case isBlank(n) && para == nil:
		default:
			if para == nil {
				para = &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
			}
			para.AppendChild(n)
		}
	}
	flush()
	if b.Len() == 0 {
		return EmptyContent
	}
	return b.String()
}

// IsEmptyContent reports whether content has no visible text.
func IsEmptyContent(s string) bool {
	nodes, err := ParseFragment(s)
	if err != nil {
		return strings.TrimSpace(s) == ""
	}
	for _, n := range nodes {
		if hasVisible(n) {
			return false
		}
	}
	return true
}

func hasVisible(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) != ""
	case html.ElementNode:
		if n.DataAtom == atom.Img || n.DataAtom == atom.Hr {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasVisible(c) {
			return true
		}
	}
	return false
}

func textContent(s string) string {
	nodes, err := ParseFragment(s)
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

func isBlank(n *html.Node) bool {
	return n.Type == html.CommentNode || (n.Type == html.TextNode && strings.TrimSpace(n.Data) == "")
}
