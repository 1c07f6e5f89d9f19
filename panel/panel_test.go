package panel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/foundry/catalog"
	"github.com/eringen/foundry/layout"
)

type fakeGateway struct {
	patches []Patch
	err     error
}

func (g *fakeGateway) UpdateSpecimen(_ context.Context, _ string, p Patch) error {
	if g.err != nil {
		return g.err
	}
	g.patches = append(g.patches, p)
	return nil
}

func sequentialIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("id%d", n)
	})
}

func specimenWith(names ...string) layout.Specimen {
	s := layout.Specimen{ID: "s1", Name: "Specimen", Format: layout.FormatA4, Orientation: layout.Portrait}
	for i, name := range names {
		s.Pages = append(s.Pages, layout.DefaultPage(fmt.Sprintf("p%d", i+1), name))
	}
	return s
}

func pageNames(pages []layout.Page) []string {
	var names []string
	for _, p := range pages {
		names = append(names, p.Name)
	}
	return names
}

func TestPlaceholderIsNotWritten(t *testing.T) {
	gw := &fakeGateway{}
	c := New(gw, specimenWith(), sequentialIDs())

	pages := c.Pages()
	if len(pages) != 1 || !layout.IsPlaceholder(pages[0]) {
		t.Fatalf("expected placeholder page, got %+v", pages)
	}
	if len(gw.patches) != 0 {
		t.Fatal("showing the placeholder must not write")
	}
	if c.CanDelete() {
		t.Fatal("placeholder cannot be deleted")
	}
}

func TestSaveCellMaterializesPlaceholder(t *testing.T) {
	gw := &fakeGateway{}
	c := New(gw, specimenWith(), sequentialIDs())

	if err := c.SaveCell(context.Background(), layout.PlaceholderPageID, 1, "hello"); err != nil {
		t.Fatalf("SaveCell: %v", err)
	}
	if len(gw.patches) != 1 || gw.patches[0].Pages == nil {
		t.Fatalf("expected one pages patch, got %+v", gw.patches)
	}
	written := *gw.patches[0].Pages
	if len(written) != 1 || written[0].ID != "id1" || written[0].Name != "Page 1" {
		t.Fatalf("unexpected materialized page %+v", written)
	}
	if got := written[0].Cells[1].Content; got != "<p>hello</p>" {
		t.Fatalf("cell content = %q", got)
	}
	if got := c.ResolvePageID(layout.PlaceholderPageID); got != "id1" {
		t.Fatalf("placeholder should resolve to the materialized page, got %q", got)
	}

	// A second save from the same editor targets the materialized page.
	if err := c.SaveCell(context.Background(), layout.PlaceholderPageID, 0, "<p>again</p>"); err != nil {
		t.Fatalf("second SaveCell: %v", err)
	}
	pages := c.Specimen().Pages
	if len(pages) != 1 || pages[0].Cells[0].Content != "<p>again</p>" || pages[0].Cells[1].Content != "<p>hello</p>" {
		t.Fatalf("unexpected pages after second save: %+v", pages)
	}
}

func TestGatewayFailureLeavesMirror(t *testing.T) {
	boom := errors.New("boom")
	gw := &fakeGateway{err: boom}
	c := New(gw, specimenWith("Cover", "Body"), sequentialIDs())
	before := c.Specimen()
	ctx := context.Background()

	checks := []struct {
		name string
		fn   func() error
	}{
		{"add", func() error { _, err := c.AddPage(ctx); return err }},
		{"delete", func() error { return c.DeletePage(ctx, "p1", true) }},
		{"reorder", func() error { return c.Reorder(ctx, []string{"p2", "p1"}) }},
		{"name", func() error { return c.SetName(ctx, "New") }},
		{"format", func() error { return c.SetFormat(ctx, layout.FormatLetter) }},
		{"orientation", func() error { return c.SetOrientation(ctx, layout.Landscape) }},
		{"resize", func() error { return c.ResizeGrid(ctx, "p1", 3, 3) }},
		{"margins", func() error { return c.SetMargins(ctx, "p1", layout.Margins{Left: 10}) }},
		{"background", func() error { return c.SetBackground(ctx, "p1", layout.Fill{Background: layout.Solid{Color: "red"}}) }},
		{"cell", func() error { return c.SaveCell(ctx, "p1", 0, "x") }},
	}
	for _, tc := range checks {
		if err := tc.fn(); !errors.Is(err, boom) {
			t.Errorf("%s: error = %v, want wrapped boom", tc.name, err)
		}
	}
	if diff := cmp.Diff(before, c.Specimen()); diff != "" {
		t.Fatalf("mirror changed after failures (-before +after):\n%s", diff)
	}
}

func TestAddPageNaming(t *testing.T) {
	gw := &fakeGateway{}
	c := New(gw, specimenWith("Page 1", "Intro", "Page 5"), sequentialIDs())
	page, err := c.AddPage(context.Background())
	if err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if page.Name != "Page 6" {
		t.Fatalf("new page name = %q, want Page 6", page.Name)
	}
	if got := len(c.Pages()); got != 4 {
		t.Fatalf("len(pages) = %d, want 4", got)
	}
}

func TestAddPageFromPlaceholder(t *testing.T) {
	c := New(&fakeGateway{}, specimenWith(), sequentialIDs())
	if _, err := c.AddPage(context.Background()); err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if diff := cmp.Diff([]string{"Page 1", "Page 2"}, pageNames(c.Pages())); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestDeletePage(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	c := New(gw, specimenWith("A", "B"))

	if err := c.DeletePage(ctx, "p1", false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unconfirmed delete = %v", err)
	}
	if err := c.DeletePage(ctx, "missing", true); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("missing page delete = %v", err)
	}
	if err := c.DeletePage(ctx, "p1", true); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if diff := cmp.Diff([]string{"B"}, pageNames(c.Pages())); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	if err := c.DeletePage(ctx, "p2", true); !errors.Is(err, ErrLastPage) {
		t.Fatalf("last page delete = %v", err)
	}
	if len(gw.patches) != 1 {
		t.Fatalf("refused deletes must not write, got %d patches", len(gw.patches))
	}
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	c := New(&fakeGateway{}, specimenWith("A", "B", "C"))

	for _, ids := range [][]string{
		{"p1", "p2"},
		{"p1", "p1", "p2"},
		{"p1", "p2", "p9"},
	} {
		if err := c.Reorder(ctx, ids); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Reorder(%v) = %v, want ErrInvalidOrder", ids, err)
		}
	}
	if err := c.Reorder(ctx, []string{"p3", "p1", "p2"}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, pageNames(c.Pages())); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRenameFlow(t *testing.T) {
	ctx := context.Background()
	c := New(&fakeGateway{}, specimenWith("A"))

	if err := c.Rename("x"); !errors.Is(err, ErrNotRenaming) {
		t.Fatalf("Rename without start = %v", err)
	}
	if err := c.StartRename("p1"); err != nil {
		t.Fatalf("StartRename: %v", err)
	}
	if _, buf, ok := c.Renaming(); !ok || buf != "A" {
		t.Fatalf("rename buffer = %q, %v", buf, ok)
	}
	_ = c.Rename("   ")
	if err := c.CommitRename(ctx); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("blank commit = %v", err)
	}
	_ = c.Rename("  Cover  ")
	if err := c.CommitRename(ctx); err != nil {
		t.Fatalf("CommitRename: %v", err)
	}
	if _, _, ok := c.Renaming(); ok {
		t.Fatal("rename should close after commit")
	}
	if got := c.Pages()[0].Name; got != "Cover" {
		t.Fatalf("page name = %q, want Cover", got)
	}
}

func TestSettingsValidation(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	c := New(gw, specimenWith("A"))

	if err := c.SetFormat(ctx, "A3"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("SetFormat(A3) = %v", err)
	}
	if err := c.SetOrientation(ctx, "diagonal"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("SetOrientation = %v", err)
	}
	if err := c.SetName(ctx, " "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("SetName blank = %v", err)
	}
	if err := c.SetFormat(ctx, layout.FormatLetter); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}
	if len(gw.patches) != 1 || gw.patches[0].Format == nil || gw.patches[0].Pages != nil {
		t.Fatalf("format change should send only the format, got %+v", gw.patches)
	}
	if c.Specimen().Format != layout.FormatLetter {
		t.Fatal("mirror not updated")
	}
}

func TestCellEdits(t *testing.T) {
	ctx := context.Background()
	c := New(&fakeGateway{}, specimenWith("A"))

	if err := c.SaveCell(ctx, "p1", 4, "x"); !errors.Is(err, ErrCellOutOfRange) {
		t.Fatalf("out of range save = %v", err)
	}
	align := layout.AlignRight
	size := 24.0
	if err := c.UpdateCell(ctx, "p1", 2, CellPatch{Align: &align, FontSize: &size}); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	cell := c.Pages()[0].Cells[2]
	if cell.Align != layout.AlignRight || cell.FontSize != 24 {
		t.Fatalf("unexpected cell %+v", cell)
	}
}

func TestResizeAndTemplate(t *testing.T) {
	ctx := context.Background()
	c := New(&fakeGateway{}, specimenWith("A"))

	if err := c.ResizeGrid(ctx, "p1", 3, 2); err != nil {
		t.Fatalf("ResizeGrid: %v", err)
	}
	p, _ := c.Page("p1")
	if len(p.Cells) != 6 {
		t.Fatalf("len(cells) = %d, want 6", len(p.Cells))
	}

	tmpl := catalog.Template{ID: "t", Columns: 1, Rows: 2, Cells: []catalog.TemplateCell{{Content: "<p>x</p>"}}}
	if err := c.ApplyTemplate(ctx, "p1", tmpl); err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	p, _ = c.Page("p1")
	if p.TemplateID != "t" || len(p.Cells) != 2 || p.Name != "A" {
		t.Fatalf("unexpected page after template: %+v", p)
	}
	if err := c.ApplyTemplate(ctx, "nope", tmpl); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("template on missing page = %v", err)
	}
}
