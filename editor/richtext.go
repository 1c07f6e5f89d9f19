package editor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/eringen/foundry/layout"
)

// Marks are the inline formatting attributes of a run of text. Empty
// strings mean "inherited".
type Marks struct {
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
	Color      string `json:"color,omitempty"`
	Background string `json:"backgroundColor,omitempty"`
	LineHeight string `json:"lineHeight,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Underline  bool   `json:"underline,omitempty"`
}

func (m Marks) style() string {
	var decls layout.Declarations
	if m.FontFamily != "" {
		decls = append(decls, layout.Declaration{Property: "font-family", Value: m.FontFamily})
	}
	if m.FontSize != "" {
		decls = append(decls, layout.Declaration{Property: "font-size", Value: m.FontSize})
	}
	if m.Color != "" {
		decls = append(decls, layout.Declaration{Property: "color", Value: m.Color})
	}
	if m.Background != "" {
		decls = append(decls, layout.Declaration{Property: "background-color", Value: m.Background})
	}
	if m.LineHeight != "" {
		decls = append(decls, layout.Declaration{Property: "line-height", Value: m.LineHeight})
	}
	return decls.String()
}

// Span is a run of text sharing one set of marks. A "\n" in Text is a
// hard line break.
type Span struct {
	Text  string
	Marks Marks
}

// Block is a paragraph-level element.
type Block struct {
	Tag   string
	Spans []Span
}

// Len is the length of the block text in runes.
func (b Block) Len() int {
	n := 0
	for _, s := range b.Spans {
		n += utf8.RuneCountInString(s.Text)
	}
	return n
}

// Text returns the plain text of the block.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Doc is the marked-text model of a cell's content.
type Doc struct {
	Blocks []Block
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Blockquote: true,
}

// Parse reads cell HTML into the marked-text model. Headings, paragraphs
// and quotes keep their tag; list items and other block elements become
// paragraphs. Unknown inline elements keep their text.
func Parse(content string) Doc {
	content = layout.EnsureWrapped(content)
	nodes, err := layout.ParseFragment(content)
	if err != nil {
		return Doc{Blocks: []Block{{Tag: "p"}}}
	}
	var doc Doc
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.DataAtom {
		case atom.Ul, atom.Ol:
			for li := n.FirstChild; li != nil; li = li.NextSibling {
				if li.Type != html.ElementNode {
					continue
				}
				b := Block{Tag: "p"}
				collect(li, Marks{}, false, &b)
				doc.Blocks = append(doc.Blocks, b)
			}
			continue
		}
		tag := "p"
		if blockTags[n.DataAtom] {
			tag = n.Data
		}
		b := Block{Tag: tag}
		collect(n, Marks{}, n.DataAtom == atom.Pre, &b)
		doc.Blocks = append(doc.Blocks, b)
	}
	if len(doc.Blocks) == 0 {
		doc.Blocks = []Block{{Tag: "p"}}
	}
	return doc
}

// collect flattens the inline content of n into b. Outside of pre, source
// newlines are whitespace and only <br> breaks a line.
func collect(n *html.Node, marks Marks, pre bool, b *Block) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := c.Data
			if !pre {
				text = strings.ReplaceAll(text, "\n", " ")
			} else {
				text = strings.TrimSuffix(text, "\n")
			}
			appendSpan(b, Span{Text: text, Marks: marks})
		case html.ElementNode:
			m := marks
			switch c.DataAtom {
			case atom.Br:
				appendSpan(b, Span{Text: "\n", Marks: marks})
				continue
			case atom.Strong, atom.B:
				m.Bold = true
			case atom.Em, atom.I:
				m.Italic = true
			case atom.U:
				m.Underline = true
			}
			for _, a := range c.Attr {
				if a.Key == "style" {
					m = applyStyle(m, a.Val)
				}
			}
			collect(c, m, pre, b)
		}
	}
}

func applyStyle(m Marks, style string) Marks {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = sanitizeValue(val)
		if val == "" {
			continue
		}
		switch prop {
		case "font-family":
			m.FontFamily = val
		case "font-size":
			m.FontSize = val
		case "color":
			m.Color = val
		case "background-color":
			m.Background = val
		case "line-height":
			m.LineHeight = val
		case "font-weight":
			m.Bold = val == "bold" || val == "700" || val == "800" || val == "900"
		case "font-style":
			m.Italic = val == "italic"
		case "text-decoration":
			m.Underline = strings.Contains(val, "underline")
		}
	}
	return m
}

// sanitizeValue drops CSS values that could escape a style attribute.
func sanitizeValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.ContainsAny(v, ";{}<>\\") || strings.Contains(strings.ToLower(v), "url(") || strings.Contains(strings.ToLower(v), "expression") {
		return ""
	}
	return v
}

func appendSpan(b *Block, s Span) {
	if s.Text == "" {
		return
	}
	if n := len(b.Spans); n > 0 && b.Spans[n-1].Marks == s.Marks {
		b.Spans[n-1].Text += s.Text
		return
	}
	b.Spans = append(b.Spans, s)
}

// HTML serializes the model. An empty document serializes as
// layout.EmptyContent.
func (d Doc) HTML() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		tag := b.Tag
		if tag == "" {
			tag = "p"
		}
		sb.WriteString("<" + tag + ">")
		for _, s := range b.Spans {
			writeSpan(&sb, s)
		}
		sb.WriteString("</" + tag + ">")
	}
	if sb.Len() == 0 {
		return layout.EmptyContent
	}
	return sb.String()
}

func writeSpan(sb *strings.Builder, s Span) {
	var closers []string
	open := func(tag, attrs string) {
		sb.WriteString("<" + tag + attrs + ">")
		closers = append(closers, "</"+tag+">")
	}
	if s.Marks.Bold {
		open("strong", "")
	}
	if s.Marks.Italic {
		open("em", "")
	}
	if s.Marks.Underline {
		open("u", "")
	}
	if style := s.Marks.style(); style != "" {
		open("span", ` style="`+html.EscapeString(style)+`"`)
	}
	lines := strings.Split(s.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("<br>")
		}
		sb.WriteString(html.EscapeString(line))
	}
	for i := len(closers) - 1; i >= 0; i-- {
		sb.WriteString(closers[i])
	}
}

// Position addresses a rune offset within a block.
type Position struct {
	Block  int `json:"block"`
	Offset int `json:"offset"`
}

func (p Position) before(q Position) bool {
	return p.Block < q.Block || (p.Block == q.Block && p.Offset < q.Offset)
}

// Range is a text selection between an anchor and a head position.
type Range struct {
	Anchor Position `json:"anchor"`
	Head   Position `json:"head"`
}

// Collapsed reports whether the range selects nothing.
func (r Range) Collapsed() bool {
	return r.Anchor == r.Head
}

// ordered returns the range endpoints in document order.
func (r Range) ordered() (Position, Position) {
	if r.Head.before(r.Anchor) {
		return r.Head, r.Anchor
	}
	return r.Anchor, r.Head
}

// clamp restricts r to positions that exist in d.
func (d Doc) clamp(r Range) Range {
	fix := func(p Position) Position {
		if len(d.Blocks) == 0 {
			return Position{}
		}
		p.Block = min(max(p.Block, 0), len(d.Blocks)-1)
		p.Offset = min(max(p.Offset, 0), d.Blocks[p.Block].Len())
		return p
	}
	return Range{Anchor: fix(r.Anchor), Head: fix(r.Head)}
}

// splitAt splits the span containing offset so that a span boundary falls
// exactly at offset.
func (b *Block) splitAt(offset int) {
	pos := 0
	for i, s := range b.Spans {
		n := utf8.RuneCountInString(s.Text)
		if offset > pos && offset < pos+n {
			runes := []rune(s.Text)
			cut := offset - pos
			left := Span{Text: string(runes[:cut]), Marks: s.Marks}
			right := Span{Text: string(runes[cut:]), Marks: s.Marks}
			spans := make([]Span, 0, len(b.Spans)+1)
			spans = append(spans, b.Spans[:i]...)
			spans = append(spans, left, right)
			spans = append(spans, b.Spans[i+1:]...)
			b.Spans = spans
			return
		}
		pos += n
	}
}

// eachSelected calls fn for every span fully inside r, after splitting the
// boundary spans.
func (d *Doc) eachSelected(r Range, fn func(s *Span)) {
	start, end := r.ordered()
	for bi := start.Block; bi <= end.Block; bi++ {
		b := &d.Blocks[bi]
		from, to := 0, b.Len()
		if bi == start.Block {
			from = start.Offset
		}
		if bi == end.Block {
			to = end.Offset
		}
		b.splitAt(from)
		b.splitAt(to)
		pos := 0
		for i := range b.Spans {
			n := utf8.RuneCountInString(b.Spans[i].Text)
			if pos >= from && pos+n <= to && n > 0 {
				fn(&b.Spans[i])
			}
			pos += n
		}
	}
}

// merge joins adjacent spans with equal marks.
func (d *Doc) merge() {
	for i := range d.Blocks {
		b := &d.Blocks[i]
		merged := Block{Tag: b.Tag}
		for _, s := range b.Spans {
			appendSpan(&merged, s)
		}
		b.Spans = merged.Spans
	}
}

// MarksIn returns the marks shared by every character in r, or nil when r
// is collapsed. Attributes that differ across the range are left empty.
func (d Doc) MarksIn(r Range) *Marks {
	r = d.clamp(r)
	if r.Collapsed() {
		return nil
	}
	work := Doc{Blocks: cloneBlocks(d.Blocks)}
	var shared *Marks
	work.eachSelected(r, func(s *Span) {
		if shared == nil {
			m := s.Marks
			shared = &m
			return
		}
		*shared = intersect(*shared, s.Marks)
	})
	if shared == nil {
		return &Marks{}
	}
	return shared
}

func intersect(a, b Marks) Marks {
	keep := func(x, y string) string {
		if x == y {
			return x
		}
		return ""
	}
	return Marks{
		FontFamily: keep(a.FontFamily, b.FontFamily),
		FontSize:   keep(a.FontSize, b.FontSize),
		Color:      keep(a.Color, b.Color),
		Background: keep(a.Background, b.Background),
		LineHeight: keep(a.LineHeight, b.LineHeight),
		Bold:       a.Bold && b.Bold,
		Italic:     a.Italic && b.Italic,
		Underline:  a.Underline && b.Underline,
	}
}

func cloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = Block{Tag: b.Tag, Spans: append([]Span(nil), b.Spans...)}
	}
	return out
}
