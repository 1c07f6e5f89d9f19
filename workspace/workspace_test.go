package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
	"github.com/eringen/foundry/panel"
)

func TestViewPanRequiresModifier(t *testing.T) {
	v := NewView()
	if v.PointerDown(10, 10, false) {
		t.Fatal("pan must not start without modifier")
	}
	if v.PointerMove(50, 50) || v.X != 0 || v.Y != 0 {
		t.Fatal("move while idle must not translate")
	}

	if !v.PointerDown(10, 20, true) || v.Mode() != Panning {
		t.Fatal("expected panning")
	}
	v.PointerMove(15, 30)
	v.PointerMove(40, 25)
	if v.X != 30 || v.Y != 5 {
		t.Fatalf("translation = (%v, %v), want (30, 5)", v.X, v.Y)
	}
	v.PointerUp()
	if v.Mode() != Idle {
		t.Fatal("expected idle after pointer up")
	}
	v.PointerMove(100, 100)
	if v.X != 30 || v.Y != 5 {
		t.Fatal("move after pointer up must not translate")
	}

	// A second pan continues from the current translation.
	v.PointerDown(0, 0, true)
	v.PointerMove(10, 10)
	if v.X != 40 || v.Y != 15 {
		t.Fatalf("translation = (%v, %v), want (40, 15)", v.X, v.Y)
	}
}

func TestViewWheelZoom(t *testing.T) {
	v := NewView()
	if v.Wheel(-1, false) {
		t.Fatal("wheel without modifier should not be handled")
	}
	if v.Scale != DefaultScale {
		t.Fatalf("scale changed without modifier: %v", v.Scale)
	}
	v.Wheel(-120, true)
	if v.Scale != 0.3 {
		t.Fatalf("zoom in: scale = %v, want 0.3", v.Scale)
	}
	for range 100 {
		v.Wheel(1, true)
	}
	if v.Scale != MinScale {
		t.Fatalf("scale = %v, want clamp at %v", v.Scale, MinScale)
	}
	for range 100 {
		v.Wheel(-1, true)
	}
	if v.Scale != MaxScale {
		t.Fatalf("scale = %v, want clamp at %v", v.Scale, MaxScale)
	}
}

func TestCenterOn(t *testing.T) {
	s := layout.Specimen{Format: layout.FormatA4, Orientation: layout.Portrait}
	strip := NewStrip(s, []layout.Page{{ID: "a"}, {ID: "b"}})

	r, ok := strip.PageRect("b")
	if !ok || r.X != 794+StripGap {
		t.Fatalf("page b rect = %+v", r)
	}

	v := NewView()
	v.Scale = 0.5
	v.X, v.Y = 100, 50
	if !v.CenterOn("b", strip, Size{W: 1000, H: 800}) {
		t.Fatal("CenterOn known page failed")
	}
	cx, cy := r.Center()
	if gotX, gotY := v.X+cx*v.Scale, v.Y+cy*v.Scale; gotX != 500 || gotY != 400 {
		t.Fatalf("page centre on screen = (%v, %v), want (500, 400)", gotX, gotY)
	}

	before := v
	if v.CenterOn("missing", strip, Size{W: 1000, H: 800}) {
		t.Fatal("CenterOn unknown page should report false")
	}
	if v != before {
		t.Fatal("CenterOn unknown page must not move the view")
	}
}

func TestHandleGesture(t *testing.T) {
	v := NewView()
	if !v.Handle(Gesture{Kind: "down", X: 1, Y: 1, Modifier: true}, nil) {
		t.Fatal("down with modifier should be handled")
	}
	v.Handle(Gesture{Kind: "move", X: 11, Y: 1}, nil)
	if !v.Handle(Gesture{Kind: "up"}, nil) || v.X != 10 {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Handle(Gesture{Kind: "bogus"}, nil) {
		t.Fatal("unknown gesture should not be handled")
	}
	v.Handle(Gesture{Kind: "zoom", Scale: 9}, nil)
	if v.Scale != MaxScale {
		t.Fatalf("zoom should clamp, got %v", v.Scale)
	}
}

type gateway struct{ err error }

func (g *gateway) UpdateSpecimen(context.Context, string, panel.Patch) error { return g.err }

func newSelectorFixture(gw *gateway) (*panel.Controller, LoadFunc) {
	ctrl := panel.New(gw, layout.Specimen{ID: "s", Pages: []layout.Page{layout.DefaultPage("p1", "Page 1")}})
	load := func(sel Selection) (string, error) {
		p, ok := ctrl.Page(sel.PageID)
		if !ok {
			return "", panel.ErrPageNotFound
		}
		return p.Cells[sel.CellIndex].Content, nil
	}
	return ctrl, load
}

func TestSelectorFlushesBeforeMoving(t *testing.T) {
	ctx := context.Background()
	gw := &gateway{}
	ctrl, load := newSelectorFixture(gw)
	s := NewSelector(nil)

	if err := s.Select(ctx, Selection{PageID: "p1", CellIndex: 0}, load, ctrl.SaveCell); err != nil {
		t.Fatalf("Select: %v", err)
	}
	_ = s.WithEditor(func(ed *editor.Editor) error { return ed.Update("<p>typed</p>") })

	if err := s.Select(ctx, Selection{PageID: "p1", CellIndex: 1}, load, ctrl.SaveCell); err != nil {
		t.Fatalf("Select second: %v", err)
	}
	p, _ := ctrl.Page("p1")
	if got := p.Cells[0].Content; got != "<p>typed</p>" {
		t.Fatalf("first cell not flushed, content %q", got)
	}
	if sel, ok := s.Current(); !ok || sel.CellIndex != 1 {
		t.Fatalf("selection = %+v, %v", sel, ok)
	}
}

func TestSelectorKeepsCellWhenFlushFails(t *testing.T) {
	ctx := context.Background()
	gw := &gateway{}
	ctrl, load := newSelectorFixture(gw)
	s := NewSelector(nil)

	_ = s.Select(ctx, Selection{PageID: "p1", CellIndex: 0}, load, ctrl.SaveCell)
	_ = s.WithEditor(func(ed *editor.Editor) error { return ed.Update("<p>unsaved</p>") })

	boom := errors.New("offline")
	gw.err = boom
	err := s.Select(ctx, Selection{PageID: "p1", CellIndex: 3}, load, ctrl.SaveCell)
	if !errors.Is(err, boom) {
		t.Fatalf("Select error = %v, want wrapped offline", err)
	}
	if sel, _ := s.Current(); sel.CellIndex != 0 {
		t.Fatalf("selection moved to %+v after failed flush", sel)
	}
	_ = s.WithEditor(func(ed *editor.Editor) error {
		if ed.HTML() != "<p>unsaved</p>" {
			t.Errorf("buffer lost: %q", ed.HTML())
		}
		return nil
	})
	if err := s.Clear(ctx); !errors.Is(err, boom) {
		t.Fatalf("Clear error = %v", err)
	}
	if _, ok := s.Current(); !ok {
		t.Fatal("failed Clear must keep the selection")
	}

	gw.err = nil
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatal("selection should be cleared")
	}
}

func TestSelectorRebindsMaterializedPlaceholder(t *testing.T) {
	ctx := context.Background()
	ctrl := panel.New(&gateway{}, layout.Specimen{ID: "s"}, panel.WithIDFunc(func() string { return "real" }))
	load := func(sel Selection) (string, error) {
		p, _ := ctrl.Page(sel.PageID)
		return p.Cells[sel.CellIndex].Content, nil
	}
	s := NewSelector(nil)
	_ = s.Select(ctx, Selection{PageID: layout.PlaceholderPageID}, load, ctrl.SaveCell)
	_ = s.WithEditor(func(ed *editor.Editor) error { return ed.Update("hi") })
	if err := s.WithEditor(func(ed *editor.Editor) error { return ed.Save(ctx) }); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Rebind(ctrl.ResolvePageID)
	if sel, _ := s.Current(); sel.PageID != "real" {
		t.Fatalf("selection page = %q, want real", sel.PageID)
	}
}

func TestHubSessions(t *testing.T) {
	h := NewHub(time.Hour)
	defer h.Close()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	created := 0
	newPanel := func() *panel.Controller {
		created++
		return panel.New(&gateway{}, layout.Specimen{ID: "s1"})
	}
	a := h.Open("tok", "s1", newPanel)
	if b := h.Open("tok", "s1", newPanel); a != b || created != 1 {
		t.Fatal("Open should reuse the session")
	}
	h.Open("tok", "s2", newPanel)
	h.Open("other", "s1", newPanel)
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	if a.View().Scale != DefaultScale {
		t.Fatal("new session should start at default scale")
	}

	h.Drop("s1")
	if h.Len() != 1 {
		t.Fatalf("Len after Drop = %d, want 1", h.Len())
	}

	now = now.Add(2 * time.Hour)
	h.Sweep()
	if h.Len() != 0 {
		t.Fatalf("idle session survived sweep")
	}
	if _, ok := h.Get("tok", "s2"); ok {
		t.Fatal("expired session should be gone")
	}
}

func TestSessionToolbarFollowsEditor(t *testing.T) {
	h := NewHub(time.Hour)
	defer h.Close()
	ctrl := panel.New(&gateway{}, layout.Specimen{ID: "s", Pages: []layout.Page{layout.DefaultPage("p1", "Page 1")}})
	sess := h.Open("tok", "s", func() *panel.Controller { return ctrl })
	load := func(sel Selection) (string, error) { return "<p><strong>bold</strong></p>", nil }

	_ = sess.Selector.Select(context.Background(), Selection{PageID: "p1"}, load, ctrl.SaveCell)
	_ = sess.Selector.WithEditor(func(ed *editor.Editor) error {
		ed.Select(editor.Range{Anchor: editor.Position{Block: 0, Offset: 0}, Head: editor.Position{Block: 0, Offset: 4}})
		return nil
	})
	if m := sess.Toolbar(); m == nil || !m.Bold {
		t.Fatalf("toolbar = %+v, want bold", m)
	}
	if _, ok := sess.Strip().PageRect("p1"); !ok {
		t.Fatal("strip should contain the session's page")
	}
}
