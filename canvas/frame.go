// Package canvas lays out specimen pages and renders them, either as the
// interactive workspace surface or for print.
package canvas

import (
	"sort"

	"github.com/eringen/foundry/layout"
)

// Paper is a sheet size in CSS pixels at 96 dpi.
type Paper struct {
	Width  float64
	Height float64
}

var papers = map[layout.Format]Paper{
	layout.FormatA4:     {Width: 794, Height: 1123},
	layout.FormatLetter: {Width: 816, Height: 1056},
}

// PaperSize returns the sheet size for a format and orientation. Unknown
// values fall back to A4 portrait.
func PaperSize(f layout.Format, o layout.Orientation) Paper {
	p, ok := papers[f]
	if !ok {
		p = papers[layout.FormatA4]
	}
	if o == layout.Landscape {
		p.Width, p.Height = p.Height, p.Width
	}
	return p
}

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Selection addresses the selected cell of a workspace.
type Selection struct {
	PageID    string
	CellIndex int
}

// Slot is one laid out grid cell.
type Slot struct {
	Index    int
	Rect     Rect
	Cell     layout.Cell
	Style    layout.Declarations
	Selected bool
	Empty    bool
}

// Frame is a page resolved into concrete geometry.
type Frame struct {
	SpecimenID string
	PageID     string
	PageName   string
	Paper      Paper
	Content    Rect
	Grid       layout.Grid
	Background layout.Declarations
	Slots      []Slot
	// Faces are the uploaded fonts referenced by the page's cells.
	Faces []layout.Font
}

// Layout resolves page p of specimen s. sel may be nil; it only marks a
// slot selected when it addresses p.
func Layout(s layout.Specimen, p layout.Page, sel *Selection, fonts layout.FontLookup) Frame {
	s = layout.NormalizeSpecimen(s)
	paper := PaperSize(s.Format, s.Orientation)
	m := layout.ResolveMargins(p)
	g := layout.ResolveGrid(p)

	content := Rect{
		X: m.Left,
		Y: m.Top,
		W: max(paper.Width-m.Left-m.Right, 0),
		H: max(paper.Height-m.Top-m.Bottom, 0),
	}
	cellW := max((content.W-g.Gap*float64(g.Columns-1))/float64(g.Columns), 0)
	cellH := max((content.H-g.Gap*float64(g.Rows-1))/float64(g.Rows), 0)

	f := Frame{
		SpecimenID: s.ID,
		PageID:     p.ID,
		PageName:   p.Name,
		Paper:      paper,
		Content:    content,
		Grid:       g,
		Background: layout.PageBackgroundStyle(p),
	}
	seen := make(map[string]bool)
	for i, c := range layout.EffectiveCells(p) {
		col, row := i%g.Columns, i/g.Columns
		f.Slots = append(f.Slots, Slot{
			Index: i,
			Rect: Rect{
				X: content.X + float64(col)*(cellW+g.Gap),
				Y: content.Y + float64(row)*(cellH+g.Gap),
				W: cellW,
				H: cellH,
			},
			Cell:     c,
			Style:    layout.CellStyle(c, fonts),
			Selected: sel != nil && sel.PageID == p.ID && sel.CellIndex == i,
			Empty:    layout.IsEmptyContent(c.Content),
		})
		if c.FontID == "" || fonts == nil || seen[c.FontID] {
			continue
		}
		if font, ok := fonts.Font(c.FontID); ok && layout.FontFamily(&font) != "" {
			seen[c.FontID] = true
			f.Faces = append(f.Faces, font)
		}
	}
	sort.Slice(f.Faces, func(i, j int) bool { return f.Faces[i].ID < f.Faces[j].ID })
	return f
}

// Slot returns the slot at index i.
func (f Frame) Slot(i int) (Slot, bool) {
	if i < 0 || i >= len(f.Slots) {
		return Slot{}, false
	}
	return f.Slots[i], true
}
