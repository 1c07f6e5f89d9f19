package layout

import (
	"strconv"
	"strings"
)

// PlaceholderPageID identifies the page synthesized for a specimen that has
// no stored pages. It is never persisted.
const PlaceholderPageID = "placeholder"

// DefaultPageName is the name of the n-th page (1-based).
func DefaultPageName(n int) string {
	return "Page " + strconv.Itoa(n)
}

// PlaceholderPage is the page shown for a specimen without pages.
func PlaceholderPage() Page {
	return DefaultPage(PlaceholderPageID, DefaultPageName(1))
}

// IsPlaceholder reports whether p is the synthesized placeholder.
func IsPlaceholder(p Page) bool {
	return p.ID == PlaceholderPageID
}

// EditablePages returns the pages of s, or a single placeholder page when s
// has none. The specimen itself is not modified.
func EditablePages(s Specimen) []Page {
	if len(s.Pages) == 0 {
		return []Page{PlaceholderPage()}
	}
	return s.Pages
}

// NormalizeSpecimen fills an unknown format or orientation with A4 portrait.
func NormalizeSpecimen(s Specimen) Specimen {
	if !s.Format.Valid() {
		s.Format = FormatA4
	}
	if !s.Orientation.Valid() {
		s.Orientation = Portrait
	}
	return s
}

// FindPage returns the index of the page with id, or -1.
func FindPage(pages []Page, id string) int {
	for i, p := range pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ClonePages deep-copies pages so that edits to the copy never alias the
// original slices or pointers.
func ClonePages(pages []Page) []Page {
	if pages == nil {
		return nil
	}
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = ClonePage(p)
	}
	return out
}

// ClonePage deep-copies a single page.
func ClonePage(p Page) Page {
	if p.Margins != nil {
		m := *p.Margins
		p.Margins = &m
	}
	if p.Grid != nil {
		g := *p.Grid
		p.Grid = &g
	}
	if p.Cells != nil {
		cells := make([]Cell, len(p.Cells))
		copy(cells, p.Cells)
		p.Cells = cells
	}
	return p
}

// NextPageName picks "Page N" with N one past the highest numbered default
// name in pages, or len(pages)+1 if that is larger.
func NextPageName(pages []Page) string {
	n := len(pages)
	for _, p := range pages {
		rest, ok := strings.CutPrefix(p.Name, "Page ")
		if !ok {
			continue
		}
		if k, err := strconv.Atoi(rest); err == nil && k > n {
			n = k
		}
	}
	return DefaultPageName(n + 1)
}
