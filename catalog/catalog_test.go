package catalog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/foundry/layout"
)

func TestBuiltinCatalogLoads(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}
	if len(c.All()) == 0 {
		t.Fatal("builtin catalog is empty")
	}
	for _, tmpl := range c.All() {
		if Overflow(tmpl) != 0 {
			t.Errorf("template %s overflows", tmpl.ID)
		}
	}
	if _, ok := c.Get("hero"); !ok {
		t.Fatal("expected hero template")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected template for unknown id")
	}
}

func TestParseRejectsOverflow(t *testing.T) {
	data := []byte(`
templates:
  - id: big
    title: Too big
    columns: 2
    rows: 1
    cells:
      - colSpan: 2
        rowSpan: 2
`)
	_, err := Parse(data)
	if err == nil || !strings.Contains(err.Error(), "overflow") {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	data := []byte(`
templates:
  - {id: a, columns: 1, rows: 1}
  - {id: a, columns: 1, rows: 1}
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestExpandSpansAndPadding(t *testing.T) {
	tmpl := Template{
		ID:      "t",
		Colors:  Colors{Text: "#333333", Background: "#eeeeee"},
		Margins: [4]float64{1, 2, 3, 4},
		Columns: 3,
		Rows:    2,
		Gap:     5,
		Cells: []TemplateCell{
			{ColSpan: 2, RowSpan: 1, Content: "<p>wide</p>", Align: layout.AlignCenter, VerticalAlign: layout.AlignBottom},
			{Content: "tall"},
		},
	}
	page := layout.Page{ID: "p1", Name: "Cover", Grid: &layout.Grid{Columns: 1, Rows: 1, ShowLines: true}}
	got := Expand(tmpl, page)

	if got.ID != "p1" || got.Name != "Cover" {
		t.Fatalf("Expand renamed the page: %q %q", got.ID, got.Name)
	}
	if got.TemplateID != "t" {
		t.Fatalf("TemplateID = %q", got.TemplateID)
	}
	if diff := cmp.Diff(&layout.Margins{Top: 1, Right: 2, Bottom: 3, Left: 4}, got.Margins); diff != "" {
		t.Fatalf("margins mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&layout.Grid{Columns: 3, Rows: 2, Gap: 5, ShowLines: true}, got.Grid); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(layout.Fill{Background: layout.Solid{Color: "#eeeeee"}}, got.Background); diff != "" {
		t.Fatalf("background mismatch (-want +got):\n%s", diff)
	}
	if len(got.Cells) != 6 {
		t.Fatalf("len(cells) = %d, want 6", len(got.Cells))
	}
	if got.Cells[0] != got.Cells[1] {
		t.Fatalf("spanned slots should be identical copies")
	}
	if got.Cells[0].Content != "<p>wide</p>" || got.Cells[0].Align != layout.AlignCenter {
		t.Fatalf("unexpected first cell %+v", got.Cells[0])
	}
	if got.Cells[2].Content != "<p>tall</p>" {
		t.Fatalf("template content should be wrapped, got %q", got.Cells[2].Content)
	}
	for i := 3; i < 6; i++ {
		c := got.Cells[i]
		if c.Color != "#333333" || c.Align != layout.AlignLeft || c.VerticalAlign != layout.AlignTop || c.Content != layout.EmptyContent {
			t.Errorf("padding cell %d = %+v", i, c)
		}
	}
}

func TestExpandNeverTruncates(t *testing.T) {
	tmpl := Template{ID: "over", Columns: 1, Rows: 1, Cells: []TemplateCell{{ColSpan: 2}, {}}}
	got := Expand(tmpl, layout.Page{ID: "p"})
	if len(got.Cells) != 3 {
		t.Fatalf("len(cells) = %d, want 3", len(got.Cells))
	}
	if Overflow(tmpl) != 2 {
		t.Fatalf("Overflow = %d, want 2", Overflow(tmpl))
	}
}

func TestExpandFillsCapacityAndIsDeterministic(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}
	for _, tmpl := range c.All() {
		page := layout.DefaultPage("p", "Page 1")
		first := Expand(tmpl, page)
		if len(first.Cells) < tmpl.Columns*tmpl.Rows {
			t.Errorf("%s: %d cells for %d slots", tmpl.ID, len(first.Cells), tmpl.Columns*tmpl.Rows)
		}
		second := Expand(tmpl, first)
		if diff := cmp.Diff(first.Cells, second.Cells); diff != "" {
			t.Errorf("%s: expansion not deterministic (-first +second):\n%s", tmpl.ID, diff)
		}
	}
}

func TestClosest(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"glyphgrid", "glyph-grid", true},
		{"Heros", "hero", true},
		{"Glyph Grid", "glyph-grid", true},
		{"zzzzzzzzzzzz", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Closest(tt.query)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Closest(%q) = %q, %v; want %q, %v", tt.query, got, ok, tt.want, tt.ok)
		}
	}
}
