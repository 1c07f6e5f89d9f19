// Package layout holds the specimen page model: pages, grid cells,
// backgrounds and the pure functions that resolve them into effective
// geometry and styling. Nothing in this package performs I/O.
package layout

// Format is the paper size of a specimen.
type Format string

const (
	FormatA4     Format = "A4"
	FormatLetter Format = "Letter"
)

// Valid reports whether f is one of the supported paper sizes.
func (f Format) Valid() bool {
	return f == FormatA4 || f == FormatLetter
}

// Orientation is the paper orientation of a specimen.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Valid reports whether o is portrait or landscape.
func (o Orientation) Valid() bool {
	return o == Portrait || o == Landscape
}

// HAlign is the horizontal text alignment of a cell.
type HAlign string

const (
	AlignLeft    HAlign = "left"
	AlignCenter  HAlign = "center"
	AlignRight   HAlign = "right"
	AlignJustify HAlign = "justify"
)

func (a HAlign) valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// VAlign is the vertical alignment of a cell's content.
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "center"
	AlignBottom VAlign = "bottom"
)

func (a VAlign) valid() bool {
	switch a {
	case AlignTop, AlignMiddle, AlignBottom:
		return true
	}
	return false
}

// Margins inset the page grid from the paper edges, in px.
type Margins struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Padding is the four-sided inner spacing of a cell, in px.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Grid describes how a page is divided into cells.
type Grid struct {
	Columns   int     `json:"columns"`
	Rows      int     `json:"rows"`
	Gap       float64 `json:"gap"`
	ShowLines bool    `json:"showGridLines"`
}

// Slots is the number of cells the grid holds.
func (g Grid) Slots() int {
	return g.Columns * g.Rows
}

// Cell is one addressable slot on a page.
type Cell struct {
	Content       string  `json:"content"`
	Color         string  `json:"color"`
	Align         HAlign  `json:"align"`
	VerticalAlign VAlign  `json:"verticalAlign"`
	Padding       Padding `json:"padding"`
	FontID        string  `json:"fontId,omitempty"`
	Background    Fill    `json:"background,omitzero"`
	FontSize      float64 `json:"fontSize,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`
}

// Page is one sheet of a specimen. Optional fields are nil when the page
// relies on defaults.
type Page struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Margins    *Margins `json:"margins,omitempty"`
	Background Fill     `json:"background,omitzero"`
	Grid       *Grid    `json:"grid,omitempty"`
	Cells      []Cell   `json:"cells"`
	TemplateID string   `json:"templateId,omitempty"`
}

// Specimen is a multi-page type specimen owned by a studio.
type Specimen struct {
	ID          string      `json:"id"`
	StudioID    string      `json:"studioId"`
	Typeface    string      `json:"typeface"`
	Name        string      `json:"name"`
	Format      Format      `json:"format"`
	Orientation Orientation `json:"orientation"`
	Pages       []Page      `json:"pages"`
}

// Font is an uploaded font file as seen by the layout core.
type Font struct {
	ID     string `json:"id"`
	File   string `json:"file"`
	Weight int    `json:"weight"`
	Italic bool   `json:"italic"`
}

// FontLookup resolves a font id to its record.
type FontLookup interface {
	Font(id string) (Font, bool)
}

// Fonts is a FontLookup backed by a map.
type Fonts map[string]Font

// Font implements FontLookup.
func (f Fonts) Font(id string) (Font, bool) {
	font, ok := f[id]
	return font, ok
}

// NewFonts indexes fonts by id.
func NewFonts(list []Font) Fonts {
	m := make(Fonts, len(list))
	for _, f := range list {
		m[f.ID] = f
	}
	return m
}
