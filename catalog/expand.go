package catalog

import "github.com/eringen/foundry/layout"

// Expand materializes t into the fields of page that a template controls:
// margins, background, grid, cells and the template reference. The page id
// and name are kept.
//
// A cell spanning c×r slots becomes c*r identical flat cells, each of which
// can be edited on its own afterwards. When the template declares fewer
// slots than the grid holds, the remainder is padded with empty cells in
// the template's text color, aligned top left. Surplus cells are kept.
func Expand(t Template, page layout.Page) layout.Page {
	out := layout.Page{
		ID:   page.ID,
		Name: page.Name,
		Margins: &layout.Margins{
			Top:    t.Margins[0],
			Right:  t.Margins[1],
			Bottom: t.Margins[2],
			Left:   t.Margins[3],
		},
		Background: t.Background.Fill(t.Colors.Background),
		Grid: &layout.Grid{
			Columns: t.Columns,
			Rows:    t.Rows,
			Gap:     t.Gap,
		},
		TemplateID: t.ID,
	}
	if page.Grid != nil {
		out.Grid.ShowLines = page.Grid.ShowLines
	}

	capacity := t.Capacity()
	cells := make([]layout.Cell, 0, max(capacity, 0))
	for _, tc := range t.Cells {
		cell := expandCell(t, tc)
		for range tc.Slots() {
			cells = append(cells, cell)
		}
	}
	for len(cells) < capacity {
		cells = append(cells, paddingCell(t))
	}
	out.Cells = cells
	return out
}

func expandCell(t Template, tc TemplateCell) layout.Cell {
	c := layout.DefaultCell()
	c.Content = layout.EnsureWrapped(tc.Content)
	if t.Colors.Text != "" {
		c.Color = t.Colors.Text
	}
	if tc.Align != "" {
		c.Align = tc.Align
	}
	if tc.VerticalAlign != "" {
		c.VerticalAlign = tc.VerticalAlign
	}
	c.Padding = layout.Padding{
		Top:    tc.Padding[0],
		Right:  tc.Padding[1],
		Bottom: tc.Padding[2],
		Left:   tc.Padding[3],
	}
	c.FontSize = tc.FontSize
	c.LineHeight = tc.LineHeight
	return c
}

func paddingCell(t Template) layout.Cell {
	c := layout.DefaultCell()
	if t.Colors.Text != "" {
		c.Color = t.Colors.Text
	}
	c.Align = layout.AlignLeft
	c.VerticalAlign = layout.AlignTop
	return c
}
