package canvas

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
)

func TestPaperSize(t *testing.T) {
	cases := []struct {
		format layout.Format
		orient layout.Orientation
		want   Paper
	}{
		{layout.FormatA4, layout.Portrait, Paper{794, 1123}},
		{layout.FormatA4, layout.Landscape, Paper{1123, 794}},
		{layout.FormatLetter, layout.Portrait, Paper{816, 1056}},
		{layout.FormatLetter, layout.Landscape, Paper{1056, 816}},
		{"Tabloid", "sideways", Paper{794, 1123}},
	}
	for _, tc := range cases {
		if got := PaperSize(tc.format, tc.orient); got != tc.want {
			t.Errorf("PaperSize(%s, %s) = %+v, want %+v", tc.format, tc.orient, got, tc.want)
		}
	}
}

func TestLayoutGeometry(t *testing.T) {
	s := layout.Specimen{ID: "s1", Format: layout.FormatLetter, Orientation: layout.Portrait}
	p := layout.Page{
		ID:      "p1",
		Margins: &layout.Margins{Left: 8, Top: 6, Right: 8, Bottom: 10},
		Grid:    &layout.Grid{Columns: 2, Rows: 2, Gap: 10},
	}
	f := Layout(s, p, &Selection{PageID: "p1", CellIndex: 3}, nil)

	if diff := cmp.Diff(Rect{X: 8, Y: 6, W: 800, H: 1040}, f.Content); diff != "" {
		t.Fatalf("content rect mismatch (-want +got):\n%s", diff)
	}
	if len(f.Slots) != 4 {
		t.Fatalf("len(slots) = %d, want 4", len(f.Slots))
	}
	want := []Rect{
		{X: 8, Y: 6, W: 395, H: 515},
		{X: 413, Y: 6, W: 395, H: 515},
		{X: 8, Y: 531, W: 395, H: 515},
		{X: 413, Y: 531, W: 395, H: 515},
	}
	for i, s := range f.Slots {
		if s.Rect != want[i] {
			t.Errorf("slot %d rect = %+v, want %+v", i, s.Rect, want[i])
		}
		if s.Selected != (i == 3) {
			t.Errorf("slot %d selected = %v", i, s.Selected)
		}
		if !s.Empty {
			t.Errorf("slot %d should be empty", i)
		}
	}
}

func TestLayoutIgnoresSelectionOnOtherPage(t *testing.T) {
	f := Layout(layout.Specimen{}, layout.DefaultPage("p1", "Page 1"), &Selection{PageID: "p2"}, nil)
	for _, s := range f.Slots {
		if s.Selected {
			t.Fatalf("slot %d selected for another page", s.Index)
		}
	}
}

func TestLayoutCollectsFaces(t *testing.T) {
	fonts := layout.NewFonts([]layout.Font{
		{ID: "b", File: "b.woff2", Weight: 700},
		{ID: "a", File: "a.woff2"},
		{ID: "nofile"},
	})
	p := layout.DefaultPage("p1", "Page 1")
	p.Cells = []layout.Cell{{FontID: "b"}, {FontID: "a"}, {FontID: "b"}, {FontID: "nofile"}}
	f := Layout(layout.Specimen{}, p, nil, fonts)

	var ids []string
	for _, face := range f.Faces {
		ids = append(ids, face.ID)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids); diff != "" {
		t.Fatalf("faces mismatch (-want +got):\n%s", diff)
	}
	if got := FontFace(fonts["b"]); !strings.Contains(got, "font-weight:700") || !strings.Contains(got, "url('/fonts/b.woff2')") {
		t.Fatalf("unexpected face %q", got)
	}
	if FontFace(fonts["nofile"]) != "" {
		t.Fatal("font without file should not produce a face")
	}
}

func TestComponentSlots(t *testing.T) {
	p := layout.DefaultPage("p1", "Page 1")
	p.Cells[0].Content = "<p>Hello <em>there</em></p>"
	p.Cells[1].Content = "<p>Other</p>"
	ed := editor.New(nil)
	ed.Open("p1", 1, p.Cells[1].Content, nil)
	_ = ed.Update("<p>Edited</p>")

	f := Layout(layout.Specimen{ID: "s1"}, p, &Selection{PageID: "p1", CellIndex: 1}, nil)
	var buf bytes.Buffer
	if err := Component(f, ed).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "<p>Hello <em>there</em></p>") {
		t.Error("non-selected content should render as markup")
	}
	if !strings.Contains(out, `contenteditable="true"`) || !strings.Contains(out, "<p>Edited</p>") {
		t.Error("selected slot should host the editor buffer")
	}
	if !strings.Contains(out, `hx-post="/studio/specimens/s1/cells/save" hx-trigger="blur" hx-swap="none" hx-vals='{"page":"p1","cell":"1"}'`) {
		t.Error("blur save should name the edited cell")
	}
	if strings.Contains(out, "<p>Other</p>") {
		t.Error("selected slot should not render stored content")
	}
	if got := strings.Count(out, EmptyHint); got != 2 {
		t.Errorf("empty hints = %d, want 2", got)
	}
	if got := strings.Count(out, "/studio/specimens/s1/cells/select"); got != 3 {
		t.Errorf("select actions = %d, want 3", got)
	}
}

func TestPrintComponent(t *testing.T) {
	s := layout.Specimen{
		ID:          "s1",
		Format:      layout.FormatA4,
		Orientation: layout.Landscape,
		Pages: []layout.Page{
			layout.DefaultPage("p1", "One"),
			layout.DefaultPage("p2", "Two"),
		},
	}
	s.Pages[0].Cells[0].Content = "<h1>Aa</h1>"
	var buf bytes.Buffer
	if err := PrintComponent(s, nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "@page{size:1123px 794px;") {
		t.Errorf("missing landscape @page rule in %q", out)
	}
	if got := strings.Count(out, `class="sheet"`); got != 2 {
		t.Errorf("sheets = %d, want 2", got)
	}
	if strings.Contains(out, "contenteditable") || strings.Contains(out, EmptyHint) || strings.Contains(out, "hx-post") {
		t.Error("print output must not contain editing affordances")
	}
	if !strings.Contains(out, "<h1>Aa</h1>") {
		t.Error("print output should contain cell content")
	}
}
