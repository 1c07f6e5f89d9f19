package layout

import (
	"strconv"
	"strings"
)

// Grid bounds and defaults.
const (
	MaxGridDimension = 12
	DefaultColumns   = 2
	DefaultRows      = 2
	DefaultGap       = 8.0
	DefaultTextColor = "#000000"
	DefaultPadding   = 8.0
	FontFamilyPrefix = "specimen-font-"
)

// Declaration is a single CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Declarations is an ordered list of CSS declarations.
type Declarations []Declaration

// String renders the declarations as an inline style attribute value.
func (d Declarations) String() string {
	var b strings.Builder
	for i, decl := range d {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(decl.Property)
		b.WriteString(": ")
		b.WriteString(decl.Value)
		b.WriteByte(';')
	}
	return b.String()
}

// Get returns the value of the last declaration for property.
func (d Declarations) Get(property string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Property == property {
			return d[i].Value, true
		}
	}
	return "", false
}

// DefaultGrid is the grid of a page that does not set one.
func DefaultGrid() Grid {
	return Grid{Columns: DefaultColumns, Rows: DefaultRows, Gap: DefaultGap}
}

// DefaultCell is an empty cell with default styling.
func DefaultCell() Cell {
	return Cell{
		Content:       EmptyContent,
		Color:         DefaultTextColor,
		Align:         AlignLeft,
		VerticalAlign: AlignTop,
		Padding:       Padding{DefaultPadding, DefaultPadding, DefaultPadding, DefaultPadding},
	}
}

// DefaultPage returns a page with the default grid, white background and
// one default cell per slot.
func DefaultPage(id, name string) Page {
	g := DefaultGrid()
	cells := make([]Cell, g.Slots())
	for i := range cells {
		cells[i] = DefaultCell()
	}
	return Page{
		ID:         id,
		Name:       name,
		Margins:    &Margins{},
		Background: Fill{White},
		Grid:       &g,
		Cells:      cells,
	}
}

// ResolveMargins returns the page margins with negative sides clamped to 0.
func ResolveMargins(p Page) Margins {
	if p.Margins == nil {
		return Margins{}
	}
	m := *p.Margins
	m.Left = nonNegative(m.Left)
	m.Top = nonNegative(m.Top)
	m.Right = nonNegative(m.Right)
	m.Bottom = nonNegative(m.Bottom)
	return m
}

// ResolveGrid returns the page grid, or the default grid when the page has
// none or its dimensions are out of range.
func ResolveGrid(p Page) Grid {
	if p.Grid == nil {
		return DefaultGrid()
	}
	g := *p.Grid
	if g.Columns < 1 || g.Columns > MaxGridDimension || g.Rows < 1 || g.Rows > MaxGridDimension {
		return DefaultGrid()
	}
	if g.Gap < 0 {
		g.Gap = DefaultGap
	}
	return g
}

// ResolveCell fills unusable fields of c with their defaults.
func ResolveCell(c Cell) Cell {
	d := DefaultCell()
	c.Content = EnsureWrapped(c.Content)
	if c.Color = SanitizeColor(c.Color); c.Color == "" {
		c.Color = d.Color
	}
	if !c.Align.valid() {
		c.Align = d.Align
	}
	if !c.VerticalAlign.valid() {
		c.VerticalAlign = d.VerticalAlign
	}
	c.Padding.Top = nonNegative(c.Padding.Top)
	c.Padding.Right = nonNegative(c.Padding.Right)
	c.Padding.Bottom = nonNegative(c.Padding.Bottom)
	c.Padding.Left = nonNegative(c.Padding.Left)
	if c.FontSize < 0 {
		c.FontSize = 0
	}
	if c.LineHeight < 0 {
		c.LineHeight = 0
	}
	if b, ok := resolveBackground(c.Background); ok {
		c.Background = Fill{b}
	} else {
		c.Background = Fill{}
	}
	return c
}

// EffectiveCells returns exactly columns×rows resolved cells for p. Stored
// cells beyond the grid are not returned but are left untouched in p.
func EffectiveCells(p Page) []Cell {
	n := ResolveGrid(p).Slots()
	cells := make([]Cell, n)
	for i := range cells {
		if i < len(p.Cells) {
			cells[i] = ResolveCell(p.Cells[i])
		} else {
			cells[i] = DefaultCell()
		}
	}
	return cells
}

// FillCells pads p.Cells with default cells up to the grid capacity. Excess
// cells are kept.
func FillCells(p Page) Page {
	n := ResolveGrid(p).Slots()
	if len(p.Cells) >= n {
		return p
	}
	cells := make([]Cell, len(p.Cells), n)
	copy(cells, p.Cells)
	for len(cells) < n {
		cells = append(cells, DefaultCell())
	}
	p.Cells = cells
	return p
}

// Resize changes the grid dimensions of p and sizes its cells to match,
// dropping cells beyond the new capacity. Out-of-range dimensions are
// clamped to 1..MaxGridDimension.
func Resize(p Page, columns, rows int) Page {
	g := ResolveGrid(p)
	g.Columns = clampInt(columns, 1, MaxGridDimension)
	g.Rows = clampInt(rows, 1, MaxGridDimension)
	p.Grid = &g
	n := g.Slots()
	cells := make([]Cell, n)
	for i := range cells {
		if i < len(p.Cells) {
			cells[i] = p.Cells[i]
		} else {
			cells[i] = DefaultCell()
		}
	}
	p.Cells = cells
	return p
}

// FontFamily returns the synthetic family name of an uploaded font, or ""
// when the font has no file and the caller should fall back.
func FontFamily(f *Font) string {
	if f == nil || f.ID == "" || strings.TrimSpace(f.File) == "" {
		return ""
	}
	return FontFamilyPrefix + f.ID
}

// CellFontFamily resolves the family name for the font referenced by c.
func CellFontFamily(c Cell, fonts FontLookup) string {
	if c.FontID == "" || fonts == nil {
		return ""
	}
	f, ok := fonts.Font(c.FontID)
	if !ok {
		return ""
	}
	return FontFamily(&f)
}

// CellStyle resolves the inline style of a cell slot.
func CellStyle(c Cell, fonts FontLookup) Declarations {
	c = ResolveCell(c)
	d := Declarations{
		{"color", c.Color},
		{"text-align", string(c.Align)},
		{"display", "flex"},
		{"flex-direction", "column"},
		{"justify-content", justify(c.VerticalAlign)},
		{"padding", px(c.Padding.Top) + " " + px(c.Padding.Right) + " " + px(c.Padding.Bottom) + " " + px(c.Padding.Left)},
	}
	if family := CellFontFamily(c, fonts); family != "" {
		d = append(d, Declaration{"font-family", "'" + family + "'"})
	}
	if c.FontSize > 0 {
		d = append(d, Declaration{"font-size", px(c.FontSize)})
	}
	if c.LineHeight > 0 {
		d = append(d, Declaration{"line-height", FormatNumber(c.LineHeight)})
	}
	if c.Background.Background != nil {
		d = append(d, BackgroundStyle(ResolveBackground(c.Background))...)
	}
	return d
}

// CellBackgroundStyle resolves the fill of a cell on its own; a cell
// without a background resolves to solid white.
func CellBackgroundStyle(c Cell) Declarations {
	return BackgroundStyle(ResolveBackground(c.Background))
}

// PageBackgroundStyle resolves the fill of a page.
func PageBackgroundStyle(p Page) Declarations {
	return BackgroundStyle(ResolveBackground(p.Background))
}

func justify(v VAlign) string {
	switch v {
	case AlignMiddle:
		return "center"
	case AlignBottom:
		return "flex-end"
	}
	return "flex-start"
}

func px(v float64) string {
	return FormatNumber(v) + "px"
}

// FormatNumber formats v for CSS without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
